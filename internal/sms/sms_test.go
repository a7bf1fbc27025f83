package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5551234567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"+1 555 123 4567", "+15551234567"},
		{"21086501234", "+12108650123"},
		{"+442071838750", "+442071838750"},
	}
	for _, tc := range cases {
		got, err := NormalizeNumber(tc.in)
		if err != nil {
			t.Fatalf("NormalizeNumber(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeNumberRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "123", "abc"} {
		if _, err := NormalizeNumber(in); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("NormalizeNumber(%q) should fail, got err=%v", in, err)
		}
	}
}

func TestTwilioSend(t *testing.T) {
	var gotPath, gotTo, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotBody = r.PostFormValue("Body")
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("expected basic auth on gateway request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer srv.Close()

	sender, err := NewTwilio("AC1", "token", "+15550001111", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewTwilio: %v", err)
	}
	sid, err := sender.Send(context.Background(), "555-123-4567", strings.Repeat("x", 2000))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid != "SM123" {
		t.Fatalf("unexpected sid %q", sid)
	}
	if gotPath != "/Accounts/AC1/Messages.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotTo != "+15551234567" {
		t.Fatalf("destination not normalized: %q", gotTo)
	}
	if len(gotBody) != 1600 {
		t.Fatalf("body not clamped, len=%d", len(gotBody))
	}
}

func TestTwilioSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"unverified number"}`))
	}))
	defer srv.Close()

	sender, err := NewTwilio("AC1", "token", "+15550001111", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewTwilio: %v", err)
	}
	if _, err := sender.Send(context.Background(), "5551234567", "hi"); err == nil {
		t.Fatal("expected gateway error")
	}
}

func TestNewTwilioRequiresCredentials(t *testing.T) {
	if _, err := NewTwilio("", "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

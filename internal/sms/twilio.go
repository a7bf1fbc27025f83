package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio posts messages to the Twilio REST API with HTTP basic auth.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// TwilioOption adjusts the client, mainly for tests.
type TwilioOption func(*Twilio)

// WithBaseURL points the client at a different API host.
func WithBaseURL(base string) TwilioOption {
	return func(t *Twilio) { t.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(c *http.Client) TwilioOption {
	return func(t *Twilio) { t.client = c }
}

// NewTwilio builds a sender. Missing credentials are an error; callers that
// want optional SMS should wire Disabled instead.
func NewTwilio(accountSID, authToken, from string, opts ...TwilioOption) (*Twilio, error) {
	if accountSID == "" || authToken == "" || strings.TrimSpace(from) == "" {
		return nil, ErrNotConfigured
	}
	t := &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		from:       strings.TrimSpace(from),
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Twilio) Send(ctx context.Context, to, body string) (string, error) {
	dest, err := NormalizeNumber(to)
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("To", dest)
	form.Set("From", t.from)
	form.Set("Body", clampBody(body))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("sms: gateway rejected message: %s", apiErr.Message)
		}
		return "", fmt.Errorf("sms: gateway returned status %d", resp.StatusCode)
	}
	var out struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("sms: decode response: %w", err)
	}
	return out.SID, nil
}

package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"/metrics":                           "/metrics",
		"/api/properties/01ABC":              "/api/properties/:id",
		"/api/tenants/01ABC/portal":          "/api/tenants/:id/portal",
		"/api/maintenance-requests/x?sort=1": "/api/maintenance-requests/:id",
		"/api/auth/login":                    "/api/auth/login",
		"/api/tenant/maintenance":            "/api/tenant/maintenance",
		"/api/sms/send":                      "/api/sms/send",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

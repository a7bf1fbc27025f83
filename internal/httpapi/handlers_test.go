package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/sms"
	"leasepilot.org/internal/store/memory"
)

type apiClient struct {
	baseURL  string
	client   *http.Client
	t        *testing.T
	recorder *sms.Recorder
}

func newTestAPI(t *testing.T, authOpts ...auth.ServiceOption) *apiClient {
	t.Helper()
	return newTestAPIWithConfig(t, Config{RateBurst: 1000, RatePerSecond: 1000}, authOpts...)
}

func newTestAPIWithConfig(t *testing.T, cfg Config, authOpts ...auth.ServiceOption) *apiClient {
	t.Helper()

	store := memory.New()
	opts := append([]auth.ServiceOption{auth.WithSecret("test-secret")}, authOpts...)
	authSvc, err := auth.NewService(store, opts...)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	portfolioSvc, err := portfolio.NewService(store)
	if err != nil {
		t.Fatalf("new portfolio service: %v", err)
	}
	recorder := &sms.Recorder{}
	api := New(authSvc, portfolioSvc, recorder, ReadyProbe{}, cfg)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	return &apiClient{
		baseURL:  srv.URL,
		client:   client,
		t:        t,
		recorder: recorder,
	}
}

// fork returns a client against the same server with its own cookie jar, so
// tests can hold two sessions at once.
func (c *apiClient) fork() *apiClient {
	c.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		c.t.Fatalf("cookie jar: %v", err)
	}
	client := *c.client
	client.Jar = jar
	return &apiClient{baseURL: c.baseURL, client: &client, t: c.t, recorder: c.recorder}
}

func (c *apiClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (c *apiClient) get(path string) *http.Response  { return c.do(http.MethodGet, path, nil) }
func (c *apiClient) post(path string, body any) *http.Response {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) register(email, name string) {
	c.t.Helper()
	resp := c.post("/api/auth/register", map[string]any{
		"email":    email,
		"password": "longenough",
		"name":     name,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestRegisterAndVerifySession(t *testing.T) {
	api := newTestAPI(t)
	api.register("owner@example.com", "Olive Owner")

	resp := api.get("/api/auth/verify")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	user, _ := payload["user"].(map[string]any)
	if user["role"] != "manager" {
		t.Fatalf("expected manager role, got %v", user["role"])
	}
	if user["email"] != "owner@example.com" {
		t.Fatalf("unexpected email %v", user["email"])
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/api/properties")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	health := api.get("/healthz")
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz should be public, got %d", health.StatusCode)
	}
}

func TestPropertyLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.register("owner@example.com", "Olive Owner")

	resp := api.post("/api/properties", map[string]any{
		"name":       "Maple Court",
		"address":    "12 Maple St",
		"city":       "Austin",
		"rent_cents": 185000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create property: status %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") == "" {
		t.Fatalf("expected Location header")
	}
	created := decode[map[string]any](t, resp)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("missing property id")
	}
	if created["status"] != "vacant" {
		t.Fatalf("expected default vacant status, got %v", created["status"])
	}

	upd := api.do(http.MethodPut, "/api/properties/"+id, map[string]any{"status": "occupied"})
	if upd.StatusCode != http.StatusOK {
		t.Fatalf("update property: status %d", upd.StatusCode)
	}
	updated := decode[map[string]any](t, upd)
	if updated["status"] != "occupied" {
		t.Fatalf("expected occupied, got %v", updated["status"])
	}

	del := api.do(http.MethodDelete, "/api/properties/"+id, nil)
	del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Fatalf("delete property: status %d", del.StatusCode)
	}
	gone := api.get("/api/properties/" + id)
	gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.StatusCode)
	}
}

func TestCrossOwnerIsolation(t *testing.T) {
	alice := newTestAPI(t)
	alice.register("alice@example.com", "Alice")

	resp := alice.post("/api/properties", map[string]any{"name": "Alice House"})
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)

	bob := alice.fork()
	bob.register("bob@example.com", "Bob")

	foreign := bob.get("/api/properties/" + id)
	foreign.Body.Close()
	if foreign.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign property, got %d", foreign.StatusCode)
	}

	list := bob.get("/api/properties")
	properties := decode[[]map[string]any](t, list)
	if len(properties) != 0 {
		t.Fatalf("expected empty list for bob, got %d entries", len(properties))
	}
}

func TestTenantPortalFlow(t *testing.T) {
	manager := newTestAPI(t)
	manager.register("manager@example.com", "Marge Manager")

	prop := decode[map[string]any](t, manager.post("/api/properties", map[string]any{
		"name":       "Elm Flats",
		"rent_cents": 120000,
	}))
	tenantRec := decode[map[string]any](t, manager.post("/api/tenants", map[string]any{
		"property_id": prop["id"],
		"first_name":  "Tina",
		"last_name":   "Tenant",
	}))
	tenantID := tenantRec["id"].(string)

	link := manager.post(fmt.Sprintf("/api/tenants/%s/link-portal", tenantID), map[string]any{
		"email":    "tina@example.com",
		"password": "longenough",
	})
	link.Body.Close()
	if link.StatusCode != http.StatusCreated {
		t.Fatalf("link portal: status %d", link.StatusCode)
	}

	tenant := manager.fork()
	login := tenant.post("/api/auth/login", map[string]any{
		"email":    "tina@example.com",
		"password": "longenough",
	})
	login.Body.Close()
	if login.StatusCode != http.StatusOK {
		t.Fatalf("tenant login: status %d", login.StatusCode)
	}

	lease := tenant.get("/api/tenant/lease")
	if lease.StatusCode != http.StatusOK {
		t.Fatalf("lease: status %d", lease.StatusCode)
	}
	leaseBody := decode[map[string]any](t, lease)
	if leaseBody["property_name"] != "Elm Flats" {
		t.Fatalf("expected joined property name, got %v", leaseBody["property_name"])
	}

	// Manager routes stay closed to tenant logins.
	forbidden := tenant.get("/api/properties")
	forbidden.Body.Close()
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 on manager route, got %d", forbidden.StatusCode)
	}

	submitted := tenant.post("/api/tenant/maintenance", map[string]any{
		"subject":   "Leaky faucet",
		"priority":  "unknown-priority",
		"issueType": "plumbing",
	})
	if submitted.StatusCode != http.StatusBadRequest {
		// Unknown fields are rejected by the strict decoder.
		t.Fatalf("expected 400 for unknown field, got %d", submitted.StatusCode)
	}
	submitted.Body.Close()

	created := tenant.post("/api/tenant/maintenance", map[string]any{
		"subject":    "Leaky faucet",
		"priority":   "unknown-priority",
		"issue_type": "plumbing",
	})
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("submit maintenance: status %d", created.StatusCode)
	}
	request := decode[map[string]any](t, created)
	if request["priority"] != "normal" {
		t.Fatalf("expected priority fallback to normal, got %v", request["priority"])
	}
	if request["property_id"] != prop["id"] {
		t.Fatalf("request should inherit tenant property")
	}

	list := manager.get("/api/maintenance-requests")
	requests := decode[[]map[string]any](t, list)
	if len(requests) != 1 || requests[0]["subject"] != "Leaky faucet" {
		t.Fatalf("manager should see the submitted request, got %v", requests)
	}
}

func TestMessagingOverHTTP(t *testing.T) {
	manager := newTestAPI(t)
	manager.register("manager@example.com", "Marge Manager")

	tenantRec := decode[map[string]any](t, manager.post("/api/tenants", map[string]any{
		"first_name": "Tina",
		"last_name":  "Tenant",
	}))
	tenantID := tenantRec["id"].(string)
	link := manager.post(fmt.Sprintf("/api/tenants/%s/link-portal", tenantID), map[string]any{
		"email":    "tina@example.com",
		"password": "longenough",
	})
	link.Body.Close()

	sent := manager.post("/api/messages", map[string]any{
		"recipient_type": "tenant",
		"recipient_id":   tenantID,
		"subject":        "Inspection",
		"body":           "Annual inspection on Friday.",
	})
	if sent.StatusCode != http.StatusCreated {
		t.Fatalf("send message: status %d", sent.StatusCode)
	}
	root := decode[map[string]any](t, sent)

	tenant := manager.fork()
	login := tenant.post("/api/auth/login", map[string]any{"email": "tina@example.com", "password": "longenough"})
	login.Body.Close()

	unread := decode[map[string]any](t, tenant.get("/api/tenant/messages/unread-count"))
	if unread["unread"].(float64) != 1 {
		t.Fatalf("expected 1 unread, got %v", unread["unread"])
	}

	reply := tenant.post("/api/tenant/messages", map[string]any{
		"parent_message_id": root["id"],
		"body":              "Friday works.",
	})
	if reply.StatusCode != http.StatusCreated {
		t.Fatalf("reply: status %d", reply.StatusCode)
	}
	replyMsg := decode[map[string]any](t, reply)
	if replyMsg["subject"] != "Re: Inspection" {
		t.Fatalf("expected reply subject, got %v", replyMsg["subject"])
	}

	threads := decode[[]map[string]any](t, manager.get("/api/messages"))
	if len(threads) != 1 {
		t.Fatalf("expected one thread, got %d", len(threads))
	}
	replies, _ := threads[0]["replies"].([]any)
	if len(replies) != 1 {
		t.Fatalf("expected reply visible to manager, got %v", threads[0]["replies"])
	}

	read := tenant.post(fmt.Sprintf("/api/tenant/messages/%s/read", root["id"]), nil)
	read.Body.Close()
	if read.StatusCode != http.StatusOK {
		t.Fatalf("mark read: status %d", read.StatusCode)
	}
	unread = decode[map[string]any](t, tenant.get("/api/tenant/messages/unread-count"))
	if unread["unread"].(float64) != 0 {
		t.Fatalf("expected 0 unread after read, got %v", unread["unread"])
	}
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/api/auth/register", map[string]any{
		"email":    "owner@example.com",
		"password": "longenough",
		"name":     "Olive Owner",
	})
	var oldRefresh string
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			oldRefresh = c.Value
		}
	}
	resp.Body.Close()
	if oldRefresh == "" {
		t.Fatalf("register set no refresh cookie")
	}

	rotated := api.post("/api/auth/refresh", nil)
	rotated.Body.Close()
	if rotated.StatusCode != http.StatusOK {
		t.Fatalf("refresh: status %d", rotated.StatusCode)
	}

	// The pre-rotation token is single-use and now dead.
	req, err := http.NewRequest(http.MethodPost, api.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: oldRefresh})
	replay, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("replay request: %v", err)
	}
	replay.Body.Close()
	if replay.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replayed refresh, got %d", replay.StatusCode)
	}
}

func TestSendSMSEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.register("manager@example.com", "Marge Manager")

	resp := api.post("/api/sms", map[string]any{
		"to":   "(210) 865-0176",
		"body": "Rent reminder",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send sms: status %d", resp.StatusCode)
	}
	payload := decode[map[string]any](t, resp)
	if sid, ok := payload["sid"].(string); !ok || sid == "" {
		t.Fatalf("expected message sid, got %v", payload["sid"])
	}
	sent := api.recorder.Sent()
	if len(sent) != 1 || sent[0].To != "+12108650176" {
		t.Fatalf("expected normalized recipient, got %v", sent)
	}

	bad := api.post("/api/sms", map[string]any{"to": "12", "body": "x"})
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid number, got %d", bad.StatusCode)
	}
}

func TestOrganizationOnboarding(t *testing.T) {
	api := newTestAPI(t, auth.WithScopeMode(auth.ScopeModeOrganization))
	api.register("manager@example.com", "Marge Manager")

	// No organization yet: resource routes are closed but the session holds.
	blocked := api.get("/api/properties")
	blocked.Body.Close()
	if blocked.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 before onboarding, got %d", blocked.StatusCode)
	}

	created := api.post("/api/organizations", map[string]any{"name": "Acme Property Group"})
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("create organization: status %d", created.StatusCode)
	}
	org := decode[map[string]any](t, created)

	open := api.get("/api/properties")
	open.Body.Close()
	if open.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after onboarding, got %d", open.StatusCode)
	}

	// A second manager joins the same organization and sees shared resources.
	colleague := api.fork()
	colleague.register("colleague@example.com", "Carl Colleague")
	added := api.post(fmt.Sprintf("/api/organizations/%s/members", org["id"]), map[string]any{
		"email": "colleague@example.com",
	})
	added.Body.Close()
	if added.StatusCode != http.StatusCreated {
		t.Fatalf("add member: status %d", added.StatusCode)
	}

	prop := decode[map[string]any](t, api.post("/api/properties", map[string]any{"name": "Shared Tower"}))
	shared := colleague.get("/api/properties/" + prop["id"].(string))
	shared.Body.Close()
	if shared.StatusCode != http.StatusOK {
		t.Fatalf("colleague should see shared property, got %d", shared.StatusCode)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	api := newTestAPIWithConfig(t, Config{RateBurst: 3, RatePerSecond: 1})

	var last int
	for i := 0; i < 6; i++ {
		resp := api.get("/healthz")
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

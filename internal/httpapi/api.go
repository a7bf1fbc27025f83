// Package httpapi is the HTTP transport layer. Handlers decode requests,
// delegate to the auth and portfolio services and encode responses; all
// scope filtering happens below them.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/obs"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/sms"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks store reachability for /readyz. A nil Store (in-memory
// mode) is always ready.
type ReadyProbe struct {
	Store Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

// Config carries the transport knobs. Zero values get sane defaults in New.
type Config struct {
	Version        string
	SecureCookies  bool
	AllowedOrigins []string
	MaxBodyBytes   int64
	RateBurst      int
	RatePerSecond  int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	portfolio  *portfolio.Service
	sms        sms.Sender
	readyProbe ReadyProbe
	cfg        Config
}

func New(authSvc *auth.Service, portfolioSvc *portfolio.Service, sender sms.Sender, rp ReadyProbe, cfg Config) *API {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 50
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 25
	}
	if sender == nil {
		sender = sms.Disabled{}
	}
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		portfolio:  portfolioSvc,
		sms:        sender,
		readyProbe: rp,
		cfg:        cfg,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// Auth and session lifecycle
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/demo", a.handleDemo)
	a.mux.HandleFunc("/api/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/verify", a.handleVerify)
	a.mux.HandleFunc("/api/auth/profile", a.handleProfile)
	a.mux.HandleFunc("/api/auth/password", a.handlePassword)
	a.mux.HandleFunc("/api/auth/account", a.handleAccount)

	// Manager resources
	a.mux.HandleFunc("/api/properties", a.handleProperties)
	a.mux.HandleFunc("/api/properties/", a.handlePropertyScoped)
	a.mux.HandleFunc("/api/tenants", a.handleTenants)
	a.mux.HandleFunc("/api/tenants/", a.handleTenantScoped)
	a.mux.HandleFunc("/api/transactions", a.handleTransactions)
	a.mux.HandleFunc("/api/transactions/", a.handleTransactionScoped)
	a.mux.HandleFunc("/api/contractors", a.handleContractors)
	a.mux.HandleFunc("/api/contractors/", a.handleContractorScoped)
	a.mux.HandleFunc("/api/maintenance-requests", a.handleMaintenanceList)
	a.mux.HandleFunc("/api/maintenance-requests/", a.handleMaintenanceScoped)
	a.mux.HandleFunc("/api/messages", a.handleMessages)
	a.mux.HandleFunc("/api/notifications", a.handleNotifications)
	a.mux.HandleFunc("/api/notifications/", a.handleNotificationScoped)
	a.mux.HandleFunc("/api/announcements", a.handleAnnouncements)
	a.mux.HandleFunc("/api/announcements/", a.handleAnnouncementScoped)
	a.mux.HandleFunc("/api/sms", a.handleSendSMS)
	a.mux.HandleFunc("/api/organizations", a.handleOrganizations)
	a.mux.HandleFunc("/api/organizations/", a.handleOrganizationScoped)

	// Tenant portal
	a.mux.HandleFunc("/api/tenant/profile", a.handleTenantPortalProfile)
	a.mux.HandleFunc("/api/tenant/lease", a.handleTenantPortalLease)
	a.mux.HandleFunc("/api/tenant/balance", a.handleTenantPortalBalance)
	a.mux.HandleFunc("/api/tenant/payments", a.handleTenantPortalPayments)
	a.mux.HandleFunc("/api/tenant/pay", a.handleTenantPortalPay)
	a.mux.HandleFunc("/api/tenant/maintenance", a.handleTenantPortalMaintenance)
	a.mux.HandleFunc("/api/tenant/announcements", a.handleTenantPortalAnnouncements)
	a.mux.HandleFunc("/api/tenant/documents", a.handleTenantPortalDocuments)
	a.mux.HandleFunc("/api/tenant/messages", a.handleTenantPortalMessages)
	a.mux.HandleFunc("/api/tenant/messages/", a.handleTenantPortalMessageScoped)

	// Contractor portal
	a.mux.HandleFunc("/api/contractor/profile", a.handleContractorPortalProfile)
	a.mux.HandleFunc("/api/contractor/maintenance", a.handleContractorPortalMaintenance)
	a.mux.HandleFunc("/api/contractor/maintenance/", a.handleContractorPortalMaintenanceScoped)
	a.mux.HandleFunc("/api/contractor/messages", a.handleContractorPortalMessages)
	a.mux.HandleFunc("/api/contractor/messages/", a.handleContractorPortalMessageScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. Order matters: the
// request id must exist before logging, and the guard runs last so rejected
// requests are still logged and rate limited.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.cfg.MaxBodyBytes)
	h = RateLimit(h, a.cfg.RateBurst, a.cfg.RatePerSecond)
	h = Logging(h)
	h = RequestID(h)
	h = SecurityHeaders(h)
	h = CORS(h, a.cfg.AllowedOrigins)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "leasepilot-api",
		"version": a.cfg.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

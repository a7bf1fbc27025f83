package httpapi

import (
	"net/http"

	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
)

// Tenant portal. Every handler works off identity.Scope.Value, the linked
// tenant record id; a tenant login can never name another tenant's id.

type submitMaintenanceRequest struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issue_type"`
	PhotoURLs   []string `json:"photo_urls"`
}

type replyRequest struct {
	ParentMessageID string `json:"parent_message_id"`
	Body            string `json:"body"`
}

func (a *API) handleTenantPortalProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	tenant, err := a.portfolio.Lease(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":   identity,
		"tenant": tenant,
	})
}

func (a *API) handleTenantPortalLease(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	lease, err := a.portfolio.Lease(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lease)
}

func (a *API) handleTenantPortalBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	lease, err := a.portfolio.Lease(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"balance_cents": lease.BalanceCents,
		"rent_cents":    lease.PropertyRent,
	})
}

func (a *API) handleTenantPortalPayments(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleTenant); !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	// No payment processor is wired up yet; the history is always empty.
	writeJSON(w, http.StatusOK, []any{})
}

func (a *API) handleTenantPortalPay(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleTenant); !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	writeError(w, r, http.StatusNotImplemented, "online payments are not available yet")
}

func (a *API) handleTenantPortalMaintenance(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListMaintenanceForTenant(r.Context(), identity.Scope.Value)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req submitMaintenanceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		m, err := a.portfolio.SubmitMaintenanceRequest(r.Context(), identity.Scope.Value, portfolio.MaintenanceRequest{
			Subject:     req.Subject,
			Description: req.Description,
			Priority:    req.Priority,
			IssueType:   req.IssueType,
			PhotoURLs:   req.PhotoURLs,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantPortalAnnouncements(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.portfolio.AnnouncementsForTenant(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleTenantPortalDocuments(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	docs, err := a.portfolio.DocumentsForTenant(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (a *API) handleTenantPortalMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		threads, err := a.portfolio.ThreadsForTenant(r.Context(), identity.Scope.Value)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, threads)
	case http.MethodPost:
		var req replyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		msg, err := a.portfolio.ReplyAsTenant(r.Context(), identity.Scope.Value, req.ParentMessageID, req.Body)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantPortalMessageScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleTenant)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/tenant/messages/")
	switch {
	case id == "unread-count" && len(rest) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		n, err := a.portfolio.UnreadCountForTenant(r.Context(), identity.Scope.Value)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unread": n})
	case id != "" && len(rest) == 1 && rest[0] == "read":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		msg, err := a.portfolio.MarkMessageReadByTenant(r.Context(), identity.Scope.Value, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// Contractor portal.

type contractorStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleContractorPortalProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (a *API) handleContractorPortalMaintenance(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.portfolio.ListMaintenanceForContractor(r.Context(), identity.Scope.Value)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleContractorPortalMaintenanceScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/contractor/maintenance/")
	if id == "" || len(rest) != 1 || rest[0] != "status" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPut, http.MethodPatch)
		return
	}
	var req contractorStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	m, err := a.portfolio.UpdateMaintenanceStatusAsContractor(r.Context(), identity.Scope.Value, id, req.Status)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) handleContractorPortalMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		threads, err := a.portfolio.ThreadsForContractor(r.Context(), identity.Scope.Value)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, threads)
	case http.MethodPost:
		var req replyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		msg, err := a.portfolio.ReplyAsContractor(r.Context(), identity.Scope.Value, req.ParentMessageID, req.Body)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleContractorPortalMessageScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleContractor)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/contractor/messages/")
	switch {
	case id == "unread-count" && len(rest) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		n, err := a.portfolio.UnreadCountForContractor(r.Context(), identity.Scope.Value)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unread": n})
	case id != "" && len(rest) == 1 && rest[0] == "read":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		msg, err := a.portfolio.MarkMessageReadByContractor(r.Context(), identity.Scope.Value, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"leasepilot.org/internal/audit"
	"leasepilot.org/internal/auth"
	"leasepilot.org/internal/portfolio"
	"leasepilot.org/internal/sms"
)

// Properties ---------------------------------------------------------------

type createPropertyRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms float64 `json:"bathrooms"`
	Sqft      int     `json:"sqft"`
	RentCents int64   `json:"rent_cents"`
	ImageURL  string  `json:"image_url"`
	Status    string  `json:"status"`
}

type updatePropertyRequest struct {
	Name      *string  `json:"name"`
	Type      *string  `json:"type"`
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	State     *string  `json:"state"`
	Zip       *string  `json:"zip"`
	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`
	Sqft      *int     `json:"sqft"`
	RentCents *int64   `json:"rent_cents"`
	ImageURL  *string  `json:"image_url"`
	Status    *string  `json:"status"`
}

func (a *API) handleProperties(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListProperties(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createPropertyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.portfolio.CreateProperty(r.Context(), identity.Scope, portfolio.Property{
			Name:      req.Name,
			Type:      req.Type,
			Address:   req.Address,
			City:      req.City,
			State:     req.State,
			Zip:       req.Zip,
			Bedrooms:  req.Bedrooms,
			Bathrooms: req.Bathrooms,
			Sqft:      req.Sqft,
			RentCents: req.RentCents,
			ImageURL:  req.ImageURL,
			Status:    req.Status,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/properties/%s", p.ID))
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePropertyScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/properties/")
	if id == "" || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := a.portfolio.GetProperty(r.Context(), identity.Scope, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut, http.MethodPatch:
		var req updatePropertyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.portfolio.UpdateProperty(r.Context(), identity.Scope, id, portfolio.PropertyUpdate{
			Name:      req.Name,
			Type:      req.Type,
			Address:   req.Address,
			City:      req.City,
			State:     req.State,
			Zip:       req.Zip,
			Bedrooms:  req.Bedrooms,
			Bathrooms: req.Bathrooms,
			Sqft:      req.Sqft,
			RentCents: req.RentCents,
			ImageURL:  req.ImageURL,
			Status:    req.Status,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := a.portfolio.DeleteProperty(r.Context(), identity.Scope, id); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// Tenants ------------------------------------------------------------------

type createTenantRequest struct {
	PropertyID   string `json:"property_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Unit         string `json:"unit"`
	Status       string `json:"status"`
	LeaseStart   string `json:"lease_start"`
	LeaseEnd     string `json:"lease_end"`
	BalanceCents int64  `json:"balance_cents"`
}

type updateTenantRequest struct {
	PropertyID   *string `json:"property_id"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Unit         *string `json:"unit"`
	Status       *string `json:"status"`
	LeaseStart   *string `json:"lease_start"`
	LeaseEnd     *string `json:"lease_end"`
	BalanceCents *int64  `json:"balance_cents"`
}

type linkPortalRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type addDocumentRequest struct {
	Name    string `json:"name"`
	FileURL string `json:"file_url"`
}

func (a *API) handleTenants(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListTenants(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createTenantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.portfolio.CreateTenant(r.Context(), identity.Scope, portfolio.Tenant{
			PropertyID:   req.PropertyID,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Unit:         req.Unit,
			Status:       req.Status,
			LeaseStart:   parseDate(req.LeaseStart),
			LeaseEnd:     parseDate(req.LeaseEnd),
			BalanceCents: req.BalanceCents,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/tenants/%s", t.ID))
		writeJSON(w, http.StatusCreated, t)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/tenants/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch {
	case len(rest) == 0:
		a.handleTenantByID(w, r, identity, id)
	case len(rest) == 1 && rest[0] == "link-portal":
		a.handleLinkTenantPortal(w, r, identity, id)
	case len(rest) == 1 && rest[0] == "documents":
		a.handleTenantDocuments(w, r, identity, id)
	case len(rest) == 2 && rest[0] == "documents":
		a.handleTenantDocumentByID(w, r, identity, id, rest[1])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleTenantByID(w http.ResponseWriter, r *http.Request, identity auth.Identity, id string) {
	switch r.Method {
	case http.MethodGet:
		t, err := a.portfolio.GetTenant(r.Context(), identity.Scope, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPut, http.MethodPatch:
		var req updateTenantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.portfolio.UpdateTenant(r.Context(), identity.Scope, id, portfolio.TenantUpdate{
			PropertyID:   req.PropertyID,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Unit:         req.Unit,
			Status:       req.Status,
			LeaseStart:   req.LeaseStart,
			LeaseEnd:     req.LeaseEnd,
			BalanceCents: req.BalanceCents,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := a.portfolio.DeleteTenant(r.Context(), identity.Scope, id); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// handleLinkTenantPortal creates a portal login for the tenant and links it
// in one request. The tenant record must be in scope; the created account is
// useless until linked, so a failed link deletes it again.
func (a *API) handleLinkTenantPortal(w http.ResponseWriter, r *http.Request, identity auth.Identity, tenantID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req linkPortalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tenant, err := a.portfolio.GetTenant(r.Context(), identity.Scope, tenantID)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = tenant.FirstName + " " + tenant.LastName
	}
	account, err := a.auth.CreatePortalAccount(r.Context(), req.Email, req.Password, name, auth.RoleTenant)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.portfolio.LinkTenantPortal(r.Context(), identity.Scope, tenantID, account.ID); err != nil {
		_ = a.auth.DeleteAccount(r.Context(), account.ID)
		handlePortfolioError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "tenant.portal_link", map[string]any{
		"tenant_id":  tenantID,
		"account_id": account.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"tenant_id": tenantID,
		"account":   account,
	})
}

func (a *API) handleTenantDocuments(w http.ResponseWriter, r *http.Request, identity auth.Identity, tenantID string) {
	switch r.Method {
	case http.MethodGet:
		docs, err := a.portfolio.DocumentsForScopeTenant(r.Context(), identity.Scope, tenantID)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	case http.MethodPost:
		var req addDocumentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		doc, err := a.portfolio.AddTenantDocument(r.Context(), identity.Scope, portfolio.TenantDocument{
			TenantID: tenantID,
			Name:     req.Name,
			FileURL:  req.FileURL,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTenantDocumentByID(w http.ResponseWriter, r *http.Request, identity auth.Identity, tenantID, docID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.portfolio.DeleteTenantDocument(r.Context(), identity.Scope, docID); err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// Transactions -------------------------------------------------------------

type createTransactionRequest struct {
	PropertyID  string `json:"property_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"transaction_date"`
	Status      string `json:"status"`
}

type updateTransactionRequest struct {
	PropertyID  *string `json:"property_id"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	AmountCents *int64  `json:"amount_cents"`
	Category    *string `json:"category"`
	Date        *string `json:"transaction_date"`
	Status      *string `json:"status"`
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListTransactions(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createTransactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.portfolio.CreateTransaction(r.Context(), identity.Scope, portfolio.Transaction{
			PropertyID:  req.PropertyID,
			Type:        req.Type,
			Description: req.Description,
			AmountCents: req.AmountCents,
			Category:    req.Category,
			Date:        parseDate(req.Date),
			Status:      req.Status,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/transactions/%s", t.ID))
		writeJSON(w, http.StatusCreated, t)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTransactionScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/transactions/")
	if id == "" || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		t, err := a.portfolio.GetTransaction(r.Context(), identity.Scope, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPut, http.MethodPatch:
		var req updateTransactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		t, err := a.portfolio.UpdateTransaction(r.Context(), identity.Scope, id, portfolio.TransactionUpdate{
			PropertyID:  req.PropertyID,
			Type:        req.Type,
			Description: req.Description,
			AmountCents: req.AmountCents,
			Category:    req.Category,
			Date:        req.Date,
			Status:      req.Status,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		if err := a.portfolio.DeleteTransaction(r.Context(), identity.Scope, id); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// Contractors --------------------------------------------------------------

type createContractorRequest struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
}

type updateContractorRequest struct {
	Name      *string `json:"name"`
	Company   *string `json:"company"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Specialty *string `json:"specialty"`
}

func (a *API) handleContractors(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListContractors(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createContractorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.portfolio.CreateContractor(r.Context(), identity.Scope, portfolio.Contractor{
			Name:      req.Name,
			Company:   req.Company,
			Phone:     req.Phone,
			Email:     req.Email,
			Specialty: req.Specialty,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/contractors/%s", c.ID))
		writeJSON(w, http.StatusCreated, c)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleContractorScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/contractors/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if len(rest) == 1 && rest[0] == "link-portal" {
		a.handleLinkContractorPortal(w, r, identity, id)
		return
	}
	if len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := a.portfolio.GetContractor(r.Context(), identity.Scope, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut, http.MethodPatch:
		var req updateContractorRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		c, err := a.portfolio.UpdateContractor(r.Context(), identity.Scope, id, portfolio.ContractorUpdate{
			Name:      req.Name,
			Company:   req.Company,
			Phone:     req.Phone,
			Email:     req.Email,
			Specialty: req.Specialty,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		if err := a.portfolio.DeleteContractor(r.Context(), identity.Scope, id); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleLinkContractorPortal(w http.ResponseWriter, r *http.Request, identity auth.Identity, contractorID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req linkPortalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	contractor, err := a.portfolio.GetContractor(r.Context(), identity.Scope, contractorID)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = contractor.Name
	}
	account, err := a.auth.CreatePortalAccount(r.Context(), req.Email, req.Password, name, auth.RoleContractor)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if err := a.portfolio.LinkContractorPortal(r.Context(), identity.Scope, contractorID, account.ID); err != nil {
		_ = a.auth.DeleteAccount(r.Context(), account.ID)
		handlePortfolioError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "contractor.portal_link", map[string]any{
		"contractor_id": contractorID,
		"account_id":    account.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"contractor_id": contractorID,
		"account":       account,
	})
}

// Maintenance --------------------------------------------------------------

type updateMaintenanceRequest struct {
	Status               *string `json:"status"`
	Priority             *string `json:"priority"`
	AssignedContractorID *string `json:"assigned_contractor_id"`
}

func (a *API) handleMaintenanceList(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.portfolio.ListMaintenance(r.Context(), identity.Scope)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleMaintenanceScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/maintenance-requests/")
	if id == "" || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		m, err := a.portfolio.GetMaintenance(r.Context(), identity.Scope, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	case http.MethodPut, http.MethodPatch:
		var req updateMaintenanceRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		m, err := a.portfolio.UpdateMaintenance(r.Context(), identity.Scope, id, portfolio.MaintenanceUpdate{
			Status:               req.Status,
			Priority:             req.Priority,
			AssignedContractorID: req.AssignedContractorID,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodPatch)
	}
}

// Messages and notifications ----------------------------------------------

type sendMessageRequest struct {
	RecipientType string `json:"recipient_type"`
	RecipientID   string `json:"recipient_id"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		threads, err := a.portfolio.ThreadsForManager(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, threads)
	case http.MethodPost:
		var req sendMessageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var (
			msg portfolio.Message
			err error
		)
		switch req.RecipientType {
		case "tenant":
			msg, err = a.portfolio.SendMessageToTenant(r.Context(), identity.Scope, identity.AccountID, req.RecipientID, req.Subject, req.Body)
		case "contractor":
			msg, err = a.portfolio.SendMessageToContractor(r.Context(), identity.Scope, identity.AccountID, req.RecipientID, req.Subject, req.Body)
		default:
			writeError(w, r, http.StatusBadRequest, "recipient_type must be tenant or contractor")
			return
		}
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.identity(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.portfolio.ListNotifications(r.Context(), identity.AccountID)
	if err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleNotificationScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.identity(w, r)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/notifications/")
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	switch {
	case id == "read-all" && len(rest) == 0:
		if err := a.portfolio.MarkAllNotificationsRead(r.Context(), identity.AccountID); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "read"})
	case id != "" && len(rest) == 1 && rest[0] == "read":
		n, err := a.portfolio.MarkNotificationRead(r.Context(), identity.AccountID, id)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// Announcements ------------------------------------------------------------

type createAnnouncementRequest struct {
	PropertyID string `json:"property_id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

func (a *API) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.portfolio.ListAnnouncements(r.Context(), identity.Scope)
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req createAnnouncementRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		ann, err := a.portfolio.CreateAnnouncement(r.Context(), identity.Scope, portfolio.Announcement{
			PropertyID: req.PropertyID,
			AuthorID:   identity.AccountID,
			Title:      req.Title,
			Message:    req.Message,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ann)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAnnouncementScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	id, rest := trailingID(r.URL.Path, "/api/announcements/")
	if id == "" || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.portfolio.DeleteAnnouncement(r.Context(), identity.Scope, id); err != nil {
		handlePortfolioError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// SMS ----------------------------------------------------------------------

type sendSMSRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (a *API) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleManager); !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req sendSMSRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sid, err := a.sms.Send(r.Context(), req.To, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, sms.ErrNotConfigured):
			writeError(w, r, http.StatusServiceUnavailable, "sms gateway not configured")
		case errors.Is(err, sms.ErrInvalidNumber):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusBadGateway, "sms gateway error")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "sms.send", map[string]any{"sid": sid})
	writeJSON(w, http.StatusOK, map[string]any{"sid": sid})
}

// Organizations ------------------------------------------------------------

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		if identity.Scope.Kind != auth.ScopeOrganization {
			writeError(w, r, http.StatusNotFound, "no organization")
			return
		}
		org, err := a.auth.Organization(r.Context(), identity.Scope.Value)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		members, err := a.auth.OrganizationMembers(r.Context(), org.ID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"organization": org,
			"members":      members,
		})
	case http.MethodPost:
		var req createOrganizationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.auth.CreateOrganization(r.Context(), identity.AccountID, req.Name)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.create", map[string]any{"organization_id": org.ID})
		w.Header().Set("Location", fmt.Sprintf("/api/organizations/%s", org.ID))
		writeJSON(w, http.StatusCreated, org)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrganizationScoped(w http.ResponseWriter, r *http.Request) {
	identity, ok := a.requireRole(w, r, auth.RoleManager)
	if !ok {
		return
	}
	orgID, rest := trailingID(r.URL.Path, "/api/organizations/")
	if orgID == "" || len(rest) != 1 || rest[0] != "members" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	// Members may only be added to the caller's own organization.
	if identity.Scope.Kind != auth.ScopeOrganization || identity.Scope.Value != orgID {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	account, err := a.auth.AddOrganizationMember(r.Context(), orgID, req.Email, req.Role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.member_add", map[string]any{
		"organization_id": orgID,
		"member_id":       account.ID,
	})
	writeJSON(w, http.StatusCreated, account)
}

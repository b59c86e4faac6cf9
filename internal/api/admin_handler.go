package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/accolade/internal/apperr"
	"github.com/alecgard/accolade/internal/audit"
	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/nomination"
	"github.com/alecgard/accolade/internal/recognition"
	"github.com/alecgard/accolade/internal/user"
	"github.com/alecgard/accolade/internal/validate"
)

// adminHandler groups the admin-only endpoints.
type adminHandler struct {
	db          docstore.Store
	roles       *user.Store
	employees   *employee.Store
	nominations *nomination.Service
	auditRec    AuditRecorder
	auditStore  *audit.Store
}

// ListUsers handles GET /api/admin/users.
func (h *adminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	records, err := h.roles.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if records == nil {
		records = []*user.RoleRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": records})
}

// UpdateEmployee handles PUT /api/admin/employees/{id}.
func (h *adminHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in employee.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, string(apperr.Validation), "failed to parse request body")
		return
	}
	if in.Email != nil && *in.Email != "" {
		if errs := validate.Var(*in.Email, "email"); errs != nil {
			writeError(w, http.StatusBadRequest, string(apperr.Validation), "email must be a valid email address")
			return
		}
	}

	e, err := h.employees.Update(r.Context(), id, in)
	if err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}

	auditLog(h.auditRec, r, "employee.update", "employee", id, nil)
	writeJSON(w, http.StatusOK, e)
}

// DeactivateEmployee handles POST /api/admin/employees/{id}/deactivate.
func (h *adminHandler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.employees.Deactivate(r.Context(), id); err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}

	auditLog(h.auditRec, r, "employee.deactivate", "employee", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEmployee handles DELETE /api/admin/employees/{id}.
func (h *adminHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.employees.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}
	if err := h.employees.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(h.auditRec, r, "employee.delete", "employee", id, map[string]any{"name": e.Name})
	w.WriteHeader(http.StatusNoContent)
}

// ApproveNomination handles POST /api/admin/nominations/{id}/approve.
func (h *adminHandler) ApproveNomination(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, nomination.StatusApproved)
}

// RejectNomination handles POST /api/admin/nominations/{id}/reject.
func (h *adminHandler) RejectNomination(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, nomination.StatusRejected)
}

func (h *adminHandler) review(w http.ResponseWriter, r *http.Request, to nomination.Status) {
	id := chi.URLParam(r, "id")

	n, err := h.nominations.Review(r.Context(), id, to)
	if err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}

	auditLog(h.auditRec, r, "nomination.review", "nomination", id, map[string]any{"status": string(to)})
	writeJSON(w, http.StatusOK, n)
}

// Seed handles POST /api/admin/seed.
func (h *adminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := recognition.Seed(r.Context(), h.db, recognition.Sample())
	if err != nil {
		writeAppError(w, r, apperr.Wrap(apperr.Upstream, "failed to load sample data", err))
		return
	}

	auditLog(h.auditRec, r, "data.seed", "portal", "", map[string]any{
		"employees":   res.Employees,
		"nominations": res.Nominations,
	})
	writeJSON(w, http.StatusOK, res)
}

// ListAudit handles GET /api/admin/audit[?limit=].
func (h *adminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditStore == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []audit.Entry{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, string(apperr.Validation), "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := h.auditStore.List(r.Context(), limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

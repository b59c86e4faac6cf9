package api

import (
	"net/http"

	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/provision"
)

type provisionHandler struct {
	svc      *provision.Service
	auditRec AuditRecorder
}

// CreateUser handles POST /api/admin/create-user. The route is not behind
// the admin middleware: the service verifies the header token and re-reads
// the caller's role itself before touching any state. An unreadable body
// is validated as an empty request so authorization failures still win.
func (h *provisionHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req provision.Request
	_ = readJSON(r, &req)

	res, err := h.svc.CreateEmployeeAccount(r.Context(), auth.BearerToken(r), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(h.auditRec, r, "user.create", "user", res.UID, map[string]any{
		"email":       req.Email,
		"employee_id": res.EmployeeID,
	})
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"errors"
	"net/http"

	"github.com/alecgard/accolade/internal/apperr"
	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/nomination"
	"github.com/alecgard/accolade/internal/recognition"
	"github.com/alecgard/accolade/internal/validate"
)

// portalHandler serves the read views and nomination submission every
// signed-in member can use.
type portalHandler struct {
	employees   *employee.Store
	nominations *nomination.Service
	recognition *recognition.Store
}

func newPortalHandler(employees *employee.Store, nominations *nomination.Service, rec *recognition.Store) *portalHandler {
	return &portalHandler{employees: employees, nominations: nominations, recognition: rec}
}

// nominationError classifies nomination and employee store failures.
func nominationError(err error) error {
	switch {
	case errors.Is(err, nomination.ErrInvalidCategory), errors.Is(err, nomination.ErrInvalidStatus):
		return apperr.Wrap(apperr.Validation, err.Error(), err)
	case errors.Is(err, nomination.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, "nomination not found", err)
	case errors.Is(err, employee.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, "employee not found", err)
	case errors.Is(err, nomination.ErrInvalidTransition):
		return apperr.Wrap(apperr.Conflict, "nomination has already been reviewed", err)
	}
	return err
}

// ListEmployees handles GET /api/employees.
func (h *portalHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.employees.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": list})
}

// ListActiveEmployees handles GET /api/employees/active.
func (h *portalHandler) ListActiveEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.employees.ListActive(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": list})
}

// ListNominations handles GET /api/nominations[?status=].
func (h *portalHandler) ListNominations(w http.ResponseWriter, r *http.Request) {
	status := nomination.Status(r.URL.Query().Get("status"))
	list, err := h.nominations.List(r.Context(), status)
	if err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nominations": list})
}

// SubmitNomination handles POST /api/nominations. The nominator is the
// signed-in user and the nominee's details come from the directory.
func (h *portalHandler) SubmitNomination(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, string(apperr.Unauthenticated), "not authenticated")
		return
	}

	var body struct {
		NomineeID string `json:"nomineeId"`
		Category  string `json:"category"`
		Reason    string `json:"reason"`
		Impact    string `json:"impact"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, string(apperr.Validation), "failed to parse request body")
		return
	}

	in := nomination.SubmitInput{
		NomineeID:     body.NomineeID,
		NominatorID:   u.ID,
		NominatorName: u.Name,
		Category:      nomination.Category(body.Category),
		Reason:        body.Reason,
		Impact:        body.Impact,
	}
	if in.NominatorName == "" {
		in.NominatorName = u.Email
	}

	if body.NomineeID != "" {
		nominee, err := h.employees.Get(r.Context(), body.NomineeID)
		if err != nil {
			writeAppError(w, r, nominationError(err))
			return
		}
		in.NomineeName = nominee.Name
		in.NomineeRole = nominee.Role
		in.NomineeDepartment = nominee.Department
	}

	if errs := validate.Struct(in); errs != nil {
		writeError(w, http.StatusBadRequest, string(apperr.Validation), validate.Summary(errs))
		return
	}

	n, err := h.nominations.Submit(r.Context(), in)
	if err != nil {
		writeAppError(w, r, nominationError(err))
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// Leaderboard handles GET /api/leaderboard.
func (h *portalHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.recognition.Leaderboard(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

// HallOfFame handles GET /api/hall-of-fame.
func (h *portalHandler) HallOfFame(w http.ResponseWriter, r *http.Request) {
	winners, err := h.recognition.MonthlyWinners(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"winners": winners})
}

// Analytics handles GET /api/analytics.
func (h *portalHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.recognition.Analytics(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analytics": data})
}

// Stats handles GET /api/stats.
func (h *portalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.recognition.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Categories handles GET /api/categories.
func (h *portalHandler) Categories(w http.ResponseWriter, r *http.Request) {
	type category struct {
		ID    nomination.Category `json:"id"`
		Label string              `json:"label"`
	}
	out := make([]category, 0, len(nomination.Categories))
	for _, c := range nomination.Categories {
		out = append(out, category{ID: c, Label: c.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// Package provision creates employee accounts on behalf of an admin: an
// identity, its employee Role Record, and a directory entry.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecgard/accolade/internal/apperr"
	"github.com/alecgard/accolade/internal/employee"
	"github.com/alecgard/accolade/internal/identity"
	"github.com/alecgard/accolade/internal/user"
	"github.com/alecgard/accolade/internal/validate"
)

// Result labels reported to the Observer.
const (
	ResultCreated      = "created"
	ResultUnauthorized = "unauthorized"
	ResultForbidden    = "forbidden"
	ResultInvalid      = "invalid"
	ResultConflict     = "conflict"
	ResultFailed       = "failed"
	ResultCompensated  = "compensated"
)

// Accounts creates and removes identities.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*identity.Account, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// Observer records provisioning outcomes.
type Observer interface {
	IncProvision(result string)
}

// Request is the create-user payload.
type Request struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" validate:"required"`
	Department  string `json:"department" validate:"required"`
	JobTitle    string `json:"jobTitle" validate:"required"`
}

func (r Request) trimmed() Request {
	return Request{
		Email:       strings.TrimSpace(r.Email),
		Password:    r.Password,
		DisplayName: strings.TrimSpace(r.DisplayName),
		Department:  strings.TrimSpace(r.Department),
		JobTitle:    strings.TrimSpace(r.JobTitle),
	}
}

// Result is the success payload.
type Result struct {
	Success    bool   `json:"success"`
	UID        string `json:"uid"`
	EmployeeID string `json:"employeeId,omitempty"`
	Message    string `json:"message"`
}

// Service runs the provisioning sequence.
type Service struct {
	verifier  user.TokenVerifier
	roles     *user.Store
	accounts  Accounts
	employees *employee.Store
	logger    *slog.Logger
	obs       Observer
}

// NewService creates a new provisioning service. obs may be nil.
func NewService(verifier user.TokenVerifier, roles *user.Store, accounts Accounts, employees *employee.Store, logger *slog.Logger, obs Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		verifier:  verifier,
		roles:     roles,
		accounts:  accounts,
		employees: employees,
		logger:    logger,
		obs:       obs,
	}
}

func (s *Service) record(result string) {
	if s.obs != nil {
		s.obs.IncProvision(result)
	}
}

// CreateEmployeeAccount provisions a new employee. The caller is
// authenticated by bearer and must hold the admin role in its stored Role
// Record; nothing is written before both checks pass. Returned errors are
// *apperr.Error values.
func (s *Service) CreateEmployeeAccount(ctx context.Context, bearer string, req Request) (*Result, error) {
	caller, err := s.authorize(ctx, bearer)
	if err != nil {
		return nil, err
	}

	req = req.trimmed()
	if errs := validate.Struct(&req); errs != nil {
		s.record(ResultInvalid)
		return nil, apperr.New(apperr.Validation, "Missing required fields: "+strings.Join(validate.Missing(errs), ", "))
	}

	acct, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, s.accountError(err)
	}

	if _, err := s.roles.Create(ctx, &user.RoleRecord{
		UID:   acct.UID,
		Name:  req.DisplayName,
		Email: acct.Email,
		Role:  user.RoleEmployee,
	}); err != nil {
		s.compensate(ctx, acct.UID, false)
		return nil, apperr.Wrap(apperr.Upstream, "Failed to create role record", err)
	}

	emp, err := s.employees.Create(ctx, employee.CreateInput{
		Name:       req.DisplayName,
		Role:       req.JobTitle,
		Department: req.Department,
		Email:      acct.Email,
	})
	if err != nil {
		s.compensate(ctx, acct.UID, true)
		return nil, apperr.Wrap(apperr.Upstream, "Failed to create employee record", err)
	}

	s.logger.Info("employee account created",
		"uid", acct.UID,
		"employee_id", emp.ID,
		"created_by", caller,
	)
	s.record(ResultCreated)
	return &Result{
		Success:    true,
		UID:        acct.UID,
		EmployeeID: emp.ID,
		Message:    fmt.Sprintf("Employee account created for %s", acct.Email),
	}, nil
}

// authorize returns the caller's uid once the token is valid and the
// stored role is admin.
func (s *Service) authorize(ctx context.Context, bearer string) (string, error) {
	if bearer == "" {
		s.record(ResultUnauthorized)
		return "", apperr.New(apperr.Unauthenticated, "Unauthorized")
	}
	tok, err := s.verifier.VerifyIDToken(ctx, bearer)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			s.record(ResultUnauthorized)
			return "", apperr.Wrap(apperr.Unauthenticated, "Unauthorized", err)
		}
		s.record(ResultFailed)
		return "", apperr.Wrap(apperr.Upstream, "Failed to verify token", err)
	}

	rec, err := s.roles.Get(ctx, tok.Subject)
	switch {
	case errors.Is(err, user.ErrNotFound):
		rec = nil
	case err != nil:
		s.record(ResultFailed)
		return "", apperr.Wrap(apperr.Upstream, "Failed to load caller role", err)
	}
	if !rec.IsAdmin() {
		s.record(ResultForbidden)
		return "", apperr.New(apperr.Unauthorized, "Forbidden: Admin access required")
	}
	return tok.Subject, nil
}

func (s *Service) accountError(err error) error {
	if errors.Is(err, identity.ErrEmailExists) {
		s.record(ResultConflict)
		return apperr.Wrap(apperr.Conflict, "An account with this email already exists.", err)
	}
	// Anything else the provider rejects is reported with its own text.
	s.record(ResultFailed)
	return apperr.Wrap(apperr.Upstream, err.Error(), err)
}

// compensate removes what an interrupted run created. Failures leave
// orphans, which are logged for manual cleanup.
func (s *Service) compensate(ctx context.Context, uid string, roleWritten bool) {
	ctx = context.WithoutCancel(ctx)
	if roleWritten {
		if err := s.roles.Delete(ctx, uid); err != nil {
			s.logger.Error("orphaned role record", "uid", uid, "error", err)
		}
	}
	if err := s.accounts.DeleteAccount(ctx, uid); err != nil {
		s.logger.Error("orphaned identity", "uid", uid, "error", err)
	}
	s.record(ResultCompensated)
}

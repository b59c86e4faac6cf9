// Package identity authenticates people. It owns accounts, passwords, and
// sessions, and issues the short-lived bearer tokens every other component
// verifies.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/alecgard/accolade/internal/docstore"
	"github.com/alecgard/accolade/internal/ids"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accountsCollection = "accounts"
	emailsCollection   = "accountEmails"
	sessionsCollection = "sessions"

	minPasswordLength = 6

	DefaultTokenTTL   = time.Hour
	DefaultSessionTTL = 14 * 24 * time.Hour
)

// Credential is the service credential that signs tokens.
type Credential struct {
	ProjectID   string
	ClientEmail string
	SigningKey  string
}

// Limiter throttles sign-in attempts per key.
type Limiter interface {
	Allow(key string) bool
	Reset(key string)
}

// Account is a stored identity.
type Account struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the result of a successful sign-in.
type Session struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	SessionID   string    `json:"-"`
	IDToken     string    `json:"idToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Token is a verified bearer token.
type Token struct {
	Subject   string
	Email     string
	Name      string
	SessionID string
	ExpiresAt time.Time
}

type claims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Options tune a Service. Zero values select defaults.
type Options struct {
	TokenTTL   time.Duration
	SessionTTL time.Duration
	Limiter    Limiter
}

// Service is the identity provider.
type Service struct {
	store      docstore.Store
	issuer     string
	key        []byte
	tokenTTL   time.Duration
	sessionTTL time.Duration
	limiter    Limiter
	now        func() time.Time
}

// NewService creates an identity provider signing with cred.
func NewService(store docstore.Store, cred Credential, opts Options) (*Service, error) {
	if cred.ProjectID == "" || cred.SigningKey == "" {
		return nil, errors.New("identity: credential requires project_id and signing_key")
	}
	s := &Service{
		store:      store,
		issuer:     cred.ProjectID,
		key:        []byte(cred.SigningKey),
		tokenTTL:   opts.TokenTTL,
		sessionTTL: opts.SessionTTL,
		limiter:    opts.Limiter,
		now:        time.Now,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = DefaultTokenTTL
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	return s, nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// SignIn checks credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, authErr(CodeInvalidEmail)
	}
	if password == "" {
		return nil, authErr(CodeMissingPassword)
	}
	if s.limiter != nil && !s.limiter.Allow(email) {
		return nil, authErr(CodeTooManyRequests)
	}

	acct, hash, err := s.lookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, authErr(CodeInvalidCredential)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, authErr(CodeInvalidCredential)
	}
	if acct.Disabled {
		return nil, authErr(CodeUserDisabled)
	}
	if s.limiter != nil {
		s.limiter.Reset(email)
	}
	return s.openSession(ctx, acct)
}

func (s *Service) openSession(ctx context.Context, acct *Account) (*Session, error) {
	now := s.now().UTC()
	sid := uuid.NewString()
	err := s.store.Create(ctx, sessionsCollection, sid, map[string]any{
		"uid":       acct.UID,
		"createdAt": now,
		"expiresAt": now.Add(s.sessionTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s.issue(acct, sid)
}

// Refresh issues a fresh token for a session that is still open.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidToken
	}
	doc, err := s.store.Get(ctx, sessionsCollection, sessionID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if exp, ok := docstore.Time(doc.Data["expiresAt"]); ok && !s.now().Before(exp) {
		return nil, ErrInvalidToken
	}
	acct, err := s.GetAccount(ctx, docstore.String(doc.Data["uid"]))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if acct.Disabled {
		return nil, ErrInvalidToken
	}
	return s.issue(acct, sessionID)
}

func (s *Service) issue(acct *Account, sid string) (*Session, error) {
	now := s.now().UTC()
	expires := now.Add(s.tokenTTL)
	c := claims{
		Email:     acct.Email,
		Name:      acct.DisplayName,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   acct.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Session{
		UID:         acct.UID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		SessionID:   sid,
		IDToken:     signed,
		ExpiresAt:   expires,
	}, nil
}

// SignOut revokes the session behind token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionsCollection, c.SessionID); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func (s *Service) parse(token string) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.key, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || strings.TrimSpace(c.Subject) == "" || c.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// VerifyIDToken checks the signature and claims of token and that its
// session has not been revoked. Verification failures return
// ErrInvalidToken; store failures are returned as-is.
func (s *Service) VerifyIDToken(ctx context.Context, token string) (*Token, error) {
	c, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Get(ctx, sessionsCollection, c.SessionID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if docstore.String(doc.Data["uid"]) != c.Subject {
		return nil, ErrInvalidToken
	}
	if exp, ok := docstore.Time(doc.Data["expiresAt"]); ok && !s.now().Before(exp) {
		return nil, ErrInvalidToken
	}

	return &Token{
		Subject:   c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		SessionID: c.SessionID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// CreateAccount registers a new identity. The account and its email index
// are written in one batch, so two concurrent creates for the same email
// yield exactly one account.
func (s *Service) CreateAccount(ctx context.Context, email, password, displayName string) (*Account, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, authErr(CodeInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return nil, authErr(CodeWeakPassword)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, authErr(CodeInvalidDisplayName)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	acct := &Account{
		UID:         ids.New(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   s.now().UTC(),
	}
	err = s.store.Batch(ctx, []docstore.Op{
		docstore.CreateOp(emailsCollection, email, map[string]any{"uid": acct.UID}),
		docstore.CreateOp(accountsCollection, acct.UID, map[string]any{
			"email":        acct.Email,
			"displayName":  acct.DisplayName,
			"passwordHash": string(hash),
			"disabled":     false,
			"createdAt":    acct.CreatedAt,
		}),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return acct, nil
}

// DeleteAccount removes an identity, its email index, and its sessions.
// Deleting a missing account is not an error.
func (s *Service) DeleteAccount(ctx context.Context, uid string) error {
	acct, err := s.GetAccount(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return err
	}

	sessions, err := docstore.ListByEquality(ctx, s.store, sessionsCollection, "uid", uid)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	ops := []docstore.Op{
		docstore.DeleteOp(accountsCollection, uid),
		docstore.DeleteOp(emailsCollection, acct.Email),
	}
	for _, sess := range sessions {
		ops = append(ops, docstore.DeleteOp(sessionsCollection, sess.ID))
	}
	if err := s.store.Batch(ctx, ops); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	return nil
}

// SetDisabled enables or disables sign-in for an account.
func (s *Service) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	err := s.store.Update(ctx, accountsCollection, uid, map[string]any{"disabled": disabled})
	if err != nil {
		if docstore.IsNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given id.
func (s *Service) GetAccount(ctx context.Context, uid string) (*Account, error) {
	acct, _, err := s.loadAccount(ctx, uid)
	return acct, err
}

// GetAccountByEmail returns the account registered under email.
func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	acct, _, err := s.lookupByEmail(ctx, NormalizeEmail(email))
	return acct, err
}

func (s *Service) lookupByEmail(ctx context.Context, email string) (*Account, string, error) {
	idx, err := s.store.Get(ctx, emailsCollection, email)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, "", ErrAccountNotFound
		}
		return nil, "", fmt.Errorf("looking up email: %w", err)
	}
	return s.loadAccount(ctx, docstore.String(idx.Data["uid"]))
}

func (s *Service) loadAccount(ctx context.Context, uid string) (*Account, string, error) {
	if uid == "" {
		return nil, "", ErrAccountNotFound
	}
	doc, err := s.store.Get(ctx, accountsCollection, uid)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, "", ErrAccountNotFound
		}
		return nil, "", fmt.Errorf("loading account: %w", err)
	}
	acct := &Account{
		UID:         doc.ID,
		Email:       docstore.String(doc.Data["email"]),
		DisplayName: docstore.String(doc.Data["displayName"]),
		Disabled:    docstore.Bool(doc.Data["disabled"], false),
	}
	acct.CreatedAt, _ = docstore.Time(doc.Data["createdAt"])
	return acct, docstore.String(doc.Data["passwordHash"]), nil
}

// CleanExpiredSessions deletes sessions past their expiry.
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	docs, err := docstore.ListAll(ctx, s.store, sessionsCollection)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	now := s.now()
	var ops []docstore.Op
	for _, d := range docs {
		if exp, ok := docstore.Time(d.Data["expiresAt"]); ok && exp.Before(now) {
			ops = append(ops, docstore.DeleteOp(sessionsCollection, d.ID))
		}
	}
	if len(ops) == 0 {
		return 0, nil
	}
	if err := s.store.Batch(ctx, ops); err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return len(ops), nil
}

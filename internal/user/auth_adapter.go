package user

import (
	"context"
	"errors"

	"github.com/alecgard/accolade/internal/auth"
	"github.com/alecgard/accolade/internal/identity"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*identity.Token, error)
}

// AuthAdapter resolves bearer tokens to auth.Users: the identity comes
// from the verified token, the role from the Role Record.
type AuthAdapter struct {
	verifier TokenVerifier
	store    *Store
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(verifier TokenVerifier, store *Store) *AuthAdapter {
	return &AuthAdapter{verifier: verifier, store: store}
}

// LookupSession verifies token and loads the caller's current role.
func (a *AuthAdapter) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	tok, err := a.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, auth.ErrInvalidSession
		}
		return nil, err
	}
	role, err := a.store.Role(ctx, tok.Subject)
	if err != nil {
		return nil, err
	}
	return &auth.User{
		ID:    tok.Subject,
		Email: tok.Email,
		Name:  tok.Name,
		Role:  role,
		Token: token,
	}, nil
}

package identity

import (
	"errors"
	"fmt"
)

// Provider error codes carried by *AuthError.
const (
	CodeInvalidEmail       = "invalid-email"
	CodeInvalidCredential  = "invalid-credential"
	CodeUserDisabled       = "user-disabled"
	CodeTooManyRequests    = "too-many-requests"
	CodeMissingPassword    = "missing-password"
	CodeWeakPassword       = "weak-password"
	CodeEmailAlreadyInUse  = "email-already-in-use"
	CodeUserNotFound       = "user-not-found"
	CodeWrongPassword      = "wrong-password"
	CodeNetworkFailed      = "network-request-failed"
	CodeInvalidAPIKey      = "invalid-api-key"
	CodeInvalidDisplayName = "invalid-display-name"
)

var (
	// ErrInvalidToken is returned when a bearer token fails verification
	// for any reason: bad signature, wrong issuer, expired, or revoked.
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrEmailExists is returned by CreateAccount when the email is taken.
	ErrEmailExists = errors.New("identity: email already exists")

	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("identity: account not found")

	// ErrNoSession is returned by Client when nobody is signed in.
	ErrNoSession = errors.New("identity: no active session")
)

// AuthError is a sign-in or account failure with a provider code.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("identity: %s", e.Code)
}

// Is matches any *AuthError with the same code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

func authErr(code string) error {
	return &AuthError{Code: code}
}

// CodeOf returns the provider code carried by err, or "".
func CodeOf(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	if errors.Is(err, ErrEmailExists) {
		return CodeEmailAlreadyInUse
	}
	return ""
}

var friendlyMessages = map[string]string{
	CodeEmailAlreadyInUse: "An account with this email already exists.",
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeWeakPassword:      "Password must be at least 6 characters.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeInvalidCredential: "Invalid email or password.",
	CodeTooManyRequests:   "Too many attempts. Please try again later.",
	CodeNetworkFailed:     "Network error. Check your connection.",
	CodeInvalidAPIKey:     "App configuration error. Contact admin.",
	CodeMissingPassword:   "Please enter your password.",
	CodeUserDisabled:      "This account has been disabled. Contact an administrator.",
}

const fallbackMessage = "Authentication failed. Please try again."

// FriendlyMessage maps err to the message shown on the sign-in form.
func FriendlyMessage(err error) string {
	if msg, ok := friendlyMessages[CodeOf(err)]; ok {
		return msg
	}
	return fallbackMessage
}

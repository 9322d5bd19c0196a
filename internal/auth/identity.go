package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	ExternalID  string `json:"external_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	// Role is the raw role claim, possibly empty or a legacy name.
	Role string `json:"role,omitempty"`
}

// FullName prefers the display name, then first and last name.
func (i Identity) FullName() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Verifier turns a session token into an Identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

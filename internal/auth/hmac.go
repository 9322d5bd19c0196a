package auth

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the HS256 session token used in development and tests.
type Claims struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DisplayName string `json:"name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

type HMACVerifier struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewHMACVerifier(secret string, expiresIn time.Duration) *HMACVerifier {
	return &HMACVerifier{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// IssueToken signs a token for identity. The subject is the external id.
func (v *HMACVerifier) IssueToken(identity Identity) (string, error) {
	now := v.now().UTC()
	c := Claims{
		Email:       identity.Email,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		Role:        identity.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   identity.ExternalID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(v.expiresIn)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (v *HMACVerifier) Verify(token string) (*Identity, error) {
	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(v.now),
	)

	var c Claims
	_, err := p.ParseWithClaims(token, &c, func(t *jwtlib.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ExternalID:  c.Subject,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
		Role:        c.Role,
	}, nil
}

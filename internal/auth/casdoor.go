package auth

import (
	"errors"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// CasdoorVerifier validates tokens issued by a Casdoor application.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

func NewCasdoorVerifier(cfg CasdoorConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.Organization,
			cfg.Application,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*Identity, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "expired") {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	identity := IdentityFromCasdoorUser(&claims.User)
	if identity.ExternalID == "" {
		return nil, ErrInvalidToken
	}
	return identity, nil
}

// IdentityFromCasdoorUser maps a Casdoor user. The role claim is read from the
// "role" property first, then the first assigned role, then the user tag.
func IdentityFromCasdoorUser(u *casdoorsdk.User) *Identity {
	if u == nil {
		return &Identity{}
	}
	externalID := u.Id
	if externalID == "" && u.Owner != "" && u.Name != "" {
		externalID = u.Owner + "/" + u.Name
	}
	return &Identity{
		ExternalID:  externalID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		AvatarURL:   u.Avatar,
		Role:        casdoorRole(u),
	}
}

func casdoorRole(u *casdoorsdk.User) string {
	if role := u.Properties["role"]; role != "" {
		return role
	}
	for _, r := range u.Roles {
		if r != nil && r.Name != "" {
			return r.Name
		}
	}
	return u.Tag
}

// ErrNoVerifier is returned when no token verifier is configured.
var ErrNoVerifier = errors.New("no token verifier configured")

package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

var ErrMalformedEvent = errors.New("malformed identity event")

// WebhookEvent is a provider event normalized to an Identity.
type WebhookEvent struct {
	Type     string
	Identity Identity
}

// Supported reports whether the event should be reconciled.
func (e *WebhookEvent) Supported() bool {
	return e.Type == EventUserCreated || e.Type == EventUserUpdated
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type userEventData struct {
	ID                    string         `json:"id"`
	Email                 string         `json:"email"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Role                  string         `json:"role"`
	PublicMetadata        struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
	ImageURL  string `json:"image_url"`
	AvatarURL string `json:"avatar_url"`
}

func (d userEventData) primaryEmail() string {
	if d.Email != "" {
		return d.Email
	}
	for _, e := range d.EmailAddresses {
		if e.ID != "" && e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

type webhookEnvelope struct {
	// {type, data} user events
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`

	// Casdoor webhook records
	Action       string           `json:"action"`
	ExtendedUser *casdoorsdk.User `json:"extendedUser"`
}

// ParseWebhook accepts both {type, data} user events and Casdoor webhook
// records carrying an extendedUser.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if env.ExtendedUser != nil {
		return &WebhookEvent{
			Type:     casdoorEventType(env.Action),
			Identity: *IdentityFromCasdoorUser(env.ExtendedUser),
		}, nil
	}

	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	event := &WebhookEvent{Type: env.Type}
	if !event.Supported() {
		return event, nil
	}

	var data userEventData
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	role := data.Role
	if role == "" {
		role = data.PublicMetadata.Role
	}
	avatar := data.AvatarURL
	if avatar == "" {
		avatar = data.ImageURL
	}
	event.Identity = Identity{
		ExternalID: data.ID,
		Email:      data.primaryEmail(),
		FirstName:  data.FirstName,
		LastName:   data.LastName,
		AvatarURL:  avatar,
		Role:       role,
	}
	return event, nil
}

func casdoorEventType(action string) string {
	switch strings.ToLower(action) {
	case "signup", "add-user":
		return EventUserCreated
	case "update-user", "login":
		return EventUserUpdated
	default:
		return action
	}
}

// SecretMatches compares the configured webhook secret in constant time. An
// empty expected secret accepts every request; LoadConfig refuses that in
// production.
func SecretMatches(expected, got string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

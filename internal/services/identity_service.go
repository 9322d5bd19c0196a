package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
)

const usernameAttempts = 5

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9._-]+`)

// IdentityService keeps stored users in step with the identity provider.
type IdentityService interface {
	// Reconcile upserts the user keyed by external id. Replaying the same
	// identity leaves a single user with the same fields.
	Reconcile(ctx context.Context, identity auth.Identity) (user *models.User, created bool, err error)

	// Resolve returns the stored user for an authenticated identity, syncing it
	// on first sight.
	Resolve(ctx context.Context, identity auth.Identity) (*models.User, error)
}

type identityService struct {
	repo        repositories.Repository
	audit       AuditService
	events      eventEmitter
	logger      *ServiceLogger
	defaultRole models.UserRole

	now      func() time.Time
	username func(email string) string
}

func NewIdentityService(
	repo repositories.Repository,
	audit AuditService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	defaultRole string,
) IdentityService {
	fallback := models.ParseRole(defaultRole, models.RoleStudent)
	sl := NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "identity"})
	return &identityService{
		repo:        repo,
		audit:       audit,
		events:      newEventEmitter(publisher, sl.Logger()),
		logger:      sl,
		defaultRole: fallback,
		now:         time.Now,
		username:    GenerateUsername,
	}
}

// GenerateUsername derives "<email local part>_<4 digits>".
func GenerateUsername(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	local = usernameUnsafe.ReplaceAllString(local, "")
	if local == "" {
		local = "student"
	}
	return fmt.Sprintf("%s_%04d", local, rand.IntN(10_000))
}

func (s *identityService) Reconcile(ctx context.Context, identity auth.Identity) (user *models.User, created bool, err error) {
	start := time.Now()
	defer func() {
		s.logger.LogOperation(ctx, "reconcile_identity", "", identity.ExternalID, "identity", time.Since(start), err)
	}()

	var verrs ValidationErrors
	if strings.TrimSpace(identity.ExternalID) == "" {
		verrs = append(verrs, *NewValidationError("external_id", "is required", nil))
	}
	if strings.TrimSpace(identity.Email) == "" {
		verrs = append(verrs, *NewValidationError("email", "is required", nil))
	}
	if len(verrs) > 0 {
		return nil, false, verrs
	}

	in := models.IdentityUpsert{
		ExternalID: identity.ExternalID,
		Email:      strings.ToLower(strings.TrimSpace(identity.Email)),
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		FullName:   identity.FullName(),
		AvatarURL:  identity.AvatarURL,
		Role:       models.ParseRole(identity.Role, s.defaultRole),
		At:         s.now().UTC(),
	}

	user, created, err = s.upsert(ctx, in)
	if err != nil {
		return nil, false, err
	}

	s.audit.Record(ctx, SystemActor, AuditEntry{
		EventType:   models.AuditIdentitySynced,
		TargetType:  "user",
		TargetID:    user.ID.Hex(),
		Description: fmt.Sprintf("identity %s synced as %s", identity.ExternalID, user.Role),
		Metadata:    map[string]interface{}{"created": created, "external_id": identity.ExternalID},
	})
	s.events.emit(ctx, events.EventUserSynced, events.UserSyncedEvent{
		UserID:     user.ID.Hex(),
		ExternalID: identity.ExternalID,
		Email:      user.Email,
		Role:       string(user.Role),
		Created:    created,
	}, nil)
	return user, created, nil
}

// upsert retries username collisions and links a pre-existing user that
// shares the email but has no external id yet.
func (s *identityService) upsert(ctx context.Context, in models.IdentityUpsert) (*models.User, bool, error) {
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		in.Username = s.username(in.Email)

		user, created, err := s.repo.Users().UpsertIdentity(ctx, in)
		if err == nil {
			return user, created, nil
		}

		var dup *apperrors.DuplicateKeyError
		if !errors.As(err, &dup) {
			return nil, false, err
		}
		switch dup.Field {
		case "username":
			continue
		case "email":
			return s.linkByEmail(ctx, in, err)
		default:
			return nil, false, err
		}
	}
	return nil, false, ErrUsernameExhausted
}

func (s *identityService) linkByEmail(ctx context.Context, in models.IdentityUpsert, dupErr error) (*models.User, bool, error) {
	existing, err := s.repo.Users().FindOne(ctx, models.UserFilter{Email: in.Email})
	if err != nil {
		return nil, false, dupErr
	}
	if existing.ExternalID != nil && *existing.ExternalID != in.ExternalID {
		return nil, false, dupErr
	}

	user, err := s.repo.Users().LinkExternalID(ctx, existing.ID, in)
	if err != nil {
		if IsNotFound(err) {
			return nil, false, dupErr
		}
		return nil, false, err
	}
	s.logger.Logger().InfoContext(ctx, "Linked existing user to identity",
		"user_id", user.ID.Hex(), "external_id", in.ExternalID)
	return user, false, nil
}

func (s *identityService) Resolve(ctx context.Context, identity auth.Identity) (*models.User, error) {
	if identity.ExternalID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.Users().FindByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return user, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	user, _, err = s.Reconcile(ctx, identity)
	return user, err
}

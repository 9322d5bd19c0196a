package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestIdentityService(d *testDeps) *identityService {
	return NewIdentityService(d.repo, d.auditService(), d.publisher, d.logger, "student").(*identityService)
}

func TestGenerateUsername(t *testing.T) {
	assert.Regexp(t, `^jane\.doe_[0-9]{4}$`, GenerateUsername("Jane.Doe@Example.com"))
	assert.Regexp(t, `^ab_[0-9]{4}$`, GenerateUsername("a+b@example.com"))
	assert.Regexp(t, `^student_[0-9]{4}$`, GenerateUsername("+++@example.com"))
}

func TestIdentityService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("replay keeps a single user", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		id := bson.NewObjectID()
		ext := "user_123"
		identity := auth.Identity{ExternalID: ext, Email: "Admin@Example.com", FirstName: "Ada", LastName: "L", Role: "admin"}

		stored := &models.User{ID: id, ExternalID: &ext, Email: "admin@example.com", Role: models.RoleAdmin}
		matches := mock.MatchedBy(func(in models.IdentityUpsert) bool {
			return in.ExternalID == ext && in.Email == "admin@example.com" && in.Role == models.RoleAdmin && in.FullName == "Ada L"
		})
		d.users.On("UpsertIdentity", ctx, matches).Return(stored, true, nil).Once()
		d.users.On("UpsertIdentity", ctx, matches).Return(stored, false, nil).Once()

		first, created, err := svc.Reconcile(ctx, identity)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := svc.Reconcile(ctx, identity)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, models.RoleAdmin, second.Role)

		assert.Len(t, d.auditEvents(models.AuditIdentitySynced), 2)
		assert.Len(t, d.publisher.EventsOfType(events.EventUserSynced), 2)
	})

	t.Run("legacy and unknown roles", func(t *testing.T) {
		tests := []struct {
			claim string
			want  models.UserRole
		}{
			{"moderator", models.RoleMentor},
			{"client", models.RoleStudent},
			{"", models.RoleStudent},
			{"superuser", models.RoleStudent},
		}
		for _, tt := range tests {
			d := newTestDeps()
			svc := newTestIdentityService(d)
			d.users.On("UpsertIdentity", ctx, mock.MatchedBy(func(in models.IdentityUpsert) bool {
				return in.Role == tt.want
			})).Return(&models.User{ID: bson.NewObjectID(), Role: tt.want}, true, nil)

			user, _, err := svc.Reconcile(ctx, auth.Identity{ExternalID: "x", Email: "x@example.com", Role: tt.claim})
			require.NoError(t, err, tt.claim)
			assert.Equal(t, tt.want, user.Role, tt.claim)
		}
	})

	t.Run("username collision retries", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		names := []string{"x_0001", "x_0002"}
		calls := 0
		svc.username = func(string) string {
			n := names[calls]
			calls++
			return n
		}

		d.users.On("UpsertIdentity", ctx, mock.MatchedBy(func(in models.IdentityUpsert) bool { return in.Username == "x_0001" })).
			Return(nil, false, apperrors.NewDuplicateKeyError("username")).Once()
		d.users.On("UpsertIdentity", ctx, mock.MatchedBy(func(in models.IdentityUpsert) bool { return in.Username == "x_0002" })).
			Return(&models.User{ID: bson.NewObjectID(), Username: "x_0002"}, true, nil).Once()

		user, _, err := svc.Reconcile(ctx, auth.Identity{ExternalID: "x", Email: "x@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "x_0002", user.Username)
	})

	t.Run("existing email without external id is linked", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		existing := &models.User{ID: bson.NewObjectID(), Email: "x@example.com"}

		d.users.On("UpsertIdentity", ctx, mock.Anything).Return(nil, false, apperrors.NewDuplicateKeyError("email"))
		d.users.On("FindOne", ctx, models.UserFilter{Email: "x@example.com"}).Return(existing, nil)
		d.users.On("LinkExternalID", ctx, existing.ID, mock.Anything).Return(&models.User{ID: existing.ID, Email: existing.Email}, nil)

		user, created, err := svc.Reconcile(ctx, auth.Identity{ExternalID: "ext-9", Email: "x@example.com"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, user.ID)
	})

	t.Run("email owned by another identity", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		other := "ext-other"

		d.users.On("UpsertIdentity", ctx, mock.Anything).Return(nil, false, apperrors.NewDuplicateKeyError("email"))
		d.users.On("FindOne", ctx, mock.Anything).Return(&models.User{ID: bson.NewObjectID(), ExternalID: &other}, nil)

		_, _, err := svc.Reconcile(ctx, auth.Identity{ExternalID: "ext-9", Email: "x@example.com"})
		assert.True(t, IsDuplicate(err))
		d.users.AssertNotCalled(t, "LinkExternalID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)

		_, _, err := svc.Reconcile(ctx, auth.Identity{})
		assert.True(t, IsValidation(err))
	})
}

func TestIdentityService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("known user", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		d.users.On("FindByExternalID", ctx, "ext-1").Return(&models.User{Email: "a@example.com"}, nil)

		user, err := svc.Resolve(ctx, auth.Identity{ExternalID: "ext-1"})
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", user.Email)
		d.users.AssertNotCalled(t, "UpsertIdentity", mock.Anything, mock.Anything)
	})

	t.Run("first sight syncs", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)
		d.users.On("FindByExternalID", ctx, "ext-2").Return(nil, ErrNotFound)
		d.users.On("UpsertIdentity", ctx, mock.Anything).Return(&models.User{ID: bson.NewObjectID(), Email: "b@example.com"}, true, nil)

		user, err := svc.Resolve(ctx, auth.Identity{ExternalID: "ext-2", Email: "b@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "b@example.com", user.Email)
	})

	t.Run("no external id", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestIdentityService(d)

		_, err := svc.Resolve(ctx, auth.Identity{})
		assert.True(t, IsUnauthorized(err))
	})
}

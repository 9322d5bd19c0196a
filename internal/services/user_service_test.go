package services

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(d *testDeps) *userService {
	svc := NewUserService(d.repo, d.validator, d.auditService(), d.publisher, d.logger, UserServiceConfig{}).(*userService)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerateStudentCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateStudentCode("Y4D_K")
		assert.Regexp(t, `^Y4D_K_[0-9]{6}$`, code)
	}
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates mentor with empty student list", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		d.users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Role == models.RoleMentor && u.Mentor != nil && u.Mentor.AssignedStudents != nil &&
				u.Email == "mentor@example.com"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = bson.NewObjectID()
		}).Return(nil)

		user, err := svc.Create(ctx, adminActor(), &models.CreateUserRequest{
			Username: "mentor1",
			Email:    "Mentor@Example.com ",
			Role:     models.RoleMentor,
		})

		require.NoError(t, err)
		assert.Equal(t, "mentor@example.com", user.Email)
		assert.Len(t, d.auditEvents(models.AuditUserCreated), 1)
		d.users.AssertExpectations(t)
	})

	t.Run("password is hashed", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		d.users.On("Create", ctx, mock.Anything).Return(nil)

		user, err := svc.Create(ctx, adminActor(), &models.CreateUserRequest{
			Username: "student1",
			Email:    "s@example.com",
			Password: strPtr("secret-pass"),
			Role:     models.RoleStudent,
		})

		require.NoError(t, err)
		require.NotNil(t, user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("secret-pass")))
	})

	t.Run("student payload on mentor is rejected", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		_, err := svc.Create(ctx, adminActor(), &models.CreateUserRequest{
			Username: "mentor2",
			Email:    "m2@example.com",
			Role:     models.RoleMentor,
			Student:  &models.StudentProfile{Phone: "123"},
		})

		assert.True(t, IsValidation(err))
		d.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		_, err := svc.Create(ctx, mentorActor(), &models.CreateUserRequest{
			Username: "x1234", Email: "x@example.com", Role: models.RoleStudent,
		})

		assert.True(t, IsForbidden(err))
	})

	t.Run("duplicate email surfaces", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		d.users.On("Create", ctx, mock.Anything).Return(&apperrors.DuplicateKeyError{Field: "email"})

		_, err := svc.Create(ctx, adminActor(), &models.CreateUserRequest{
			Username: "dupuser", Email: "dup@example.com", Role: models.RoleStudent,
		})

		assert.True(t, IsDuplicate(err))
	})
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	svc := newTestUserService(d)

	student := studentActor()
	other := bson.NewObjectID()
	d.users.On("FindByID", ctx, student.ID).Return(&models.User{ID: student.ID, Role: models.RoleStudent}, nil)

	user, err := svc.GetByID(ctx, student, student.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, student.ID, user.ID)

	_, err = svc.GetByID(ctx, student, other.Hex())
	assert.True(t, IsForbidden(err))

	_, err = svc.GetByID(ctx, adminActor(), "not-an-id")
	assert.True(t, IsValidation(err))
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	id := bson.NewObjectID()

	t.Run("empty patch is rejected", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		_, err := svc.Update(ctx, adminActor(), id.Hex(), &models.UpdateUserRequest{})
		assert.True(t, IsValidation(err))
	})

	t.Run("student patch on mentor is rejected", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		d.users.On("FindByID", ctx, id).Return(&models.User{ID: id, Role: models.RoleMentor}, nil)

		_, err := svc.Update(ctx, adminActor(), id.Hex(), &models.UpdateUserRequest{
			Student: &models.StudentProfilePatch{Phone: strPtr("1")},
		})
		assert.True(t, IsValidation(err))
		d.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fields are passed through and audited", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		patch := &models.UpdateUserRequest{FullName: strPtr("New Name")}
		d.users.On("Update", ctx, id, patch).Return(&models.User{ID: id, Email: "u@example.com", FullName: "New Name"}, nil)

		user, err := svc.Update(ctx, adminActor(), id.Hex(), patch)
		require.NoError(t, err)
		assert.Equal(t, "New Name", user.FullName)
		assert.Len(t, d.auditEvents(models.AuditUserUpdated), 1)
	})

	t.Run("missing user", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		d.users.On("Update", ctx, id, mock.Anything).Return(nil, ErrNotFound)

		_, err := svc.Update(ctx, adminActor(), id.Hex(), &models.UpdateUserRequest{FullName: strPtr("x")})
		assert.True(t, IsNotFound(err))
	})
}

func TestUserService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	svc := newTestUserService(d)
	id := bson.NewObjectID()

	d.users.On("Update", ctx, id, mock.MatchedBy(func(p *models.UpdateUserRequest) bool {
		return p.Status != nil && *p.Status == models.StatusBlocked
	})).Return(&models.User{ID: id, Status: models.StatusBlocked}, nil)

	user, err := svc.UpdateStatus(ctx, adminActor(), id.Hex(), &models.UpdateStatusRequest{Status: models.StatusBlocked})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, user.Status)
	assert.Len(t, d.auditEvents(models.AuditStatusChanged), 1)

	_, err = svc.UpdateStatus(ctx, adminActor(), id.Hex(), &models.UpdateStatusRequest{Status: "archived"})
	assert.True(t, IsValidation(err))
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	svc := newTestUserService(d)

	id := bson.NewObjectID()
	mentorID := bson.NewObjectID()
	d.users.On("Delete", ctx, id).Return(&models.User{
		ID:      id,
		Email:   "gone@example.com",
		Role:    models.RoleStudent,
		Student: &models.StudentProfile{AssignedMentor: &mentorID},
	}, nil)
	d.users.On("RemoveAssignedStudent", ctx, mentorID, id).Return(nil)

	require.NoError(t, svc.Delete(ctx, adminActor(), id.Hex()))
	d.users.AssertExpectations(t)
	assert.Len(t, d.publisher.EventsOfType(events.EventUserDeleted), 1)
	assert.Len(t, d.auditEvents(models.AuditUserDeleted), 1)
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps()
	svc := newTestUserService(d)

	role := models.RoleStudent
	filter := models.UserFilter{Role: &role}
	d.users.On("List", ctx, filter, models.ListOptions{}.Normalize()).
		Return(&models.UserPage{Items: []*models.User{{Email: "a@example.com"}}, Total: 1}, nil)

	page, err := svc.List(ctx, mentorActor(), filter, models.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	bad := models.UserRole("superuser")
	_, err = svc.List(ctx, adminActor(), models.UserFilter{Role: &bad}, models.ListOptions{})
	assert.True(t, IsValidation(err))

	_, err = svc.List(ctx, studentActor(), models.UserFilter{}, models.ListOptions{})
	assert.True(t, IsForbidden(err))
}

func TestBuildProgress(t *testing.T) {
	code := "Y4D_K_000001"

	tests := []struct {
		name    string
		user    *models.User
		percent float64
	}{
		{"nothing", &models.User{}, 0},
		{"registered only", &models.User{FullName: "A", Student: &models.StudentProfile{StudentCode: &code}}, 33},
		{"registered and growth", &models.User{
			FullName:           "A",
			Student:            &models.StudentProfile{StudentCode: &code},
			ProfessionalGrowth: []models.ProfessionalGrowthRecord{{}},
		}, 67},
		{"everything", &models.User{
			FullName:           "A",
			Student:            &models.StudentProfile{StudentCode: &code},
			ProfessionalGrowth: []models.ProfessionalGrowthRecord{{}},
			Marksheets:         []models.MarksheetRecord{{Verified: true}, {}},
		}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildProgress(tt.user)
			assert.Equal(t, tt.percent, p.CompletionPercent)
		})
	}

	p := BuildProgress(tests[3].user)
	assert.Equal(t, 1, p.VerifiedMarksheets)
	assert.Equal(t, 2, p.TotalMarksheets)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	req := &models.StudentRegistrationRequest{
		FullName:       "Asha Rao",
		Phone:          "9999999999",
		EducationLevel: "Graduation",
	}

	t.Run("first registration allocates code", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		actor := studentActor()
		svc.studentCode = func(prefix string) string { return prefix + "_123456" }

		d.users.On("FindByID", ctx, actor.ID).Return(&models.User{ID: actor.ID, Role: models.RoleStudent}, nil)
		d.users.On("Update", ctx, actor.ID, mock.MatchedBy(func(p *models.UpdateUserRequest) bool {
			return p.Student != nil && p.Student.StudentCode != nil && *p.Student.StudentCode == "Y4D_K_123456" &&
				p.Student.EnrollmentDate != nil && p.Status != nil && *p.Status == models.StatusActive
		})).Return(&models.User{ID: actor.ID, Email: actor.Email}, nil)

		_, created, err := svc.Register(ctx, actor, req)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Len(t, d.publisher.EventsOfType(events.EventStudentRegistered), 1)
	})

	t.Run("code collision retries", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		actor := studentActor()
		codes := []string{"Y4D_K_000001", "Y4D_K_000002"}
		calls := 0
		svc.studentCode = func(string) string {
			c := codes[calls]
			calls++
			return c
		}

		d.users.On("FindByID", ctx, actor.ID).Return(&models.User{ID: actor.ID, Role: models.RoleStudent}, nil)
		d.users.On("Update", ctx, actor.ID, mock.MatchedBy(func(p *models.UpdateUserRequest) bool {
			return *p.Student.StudentCode == "Y4D_K_000001"
		})).Return(nil, &apperrors.DuplicateKeyError{Field: "student_code"}).Once()
		d.users.On("Update", ctx, actor.ID, mock.MatchedBy(func(p *models.UpdateUserRequest) bool {
			return *p.Student.StudentCode == "Y4D_K_000002"
		})).Return(&models.User{ID: actor.ID}, nil).Once()

		_, created, err := svc.Register(ctx, actor, req)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, 2, calls)
	})

	t.Run("collisions exhaust attempts", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		actor := studentActor()
		svc.studentCode = func(string) string { return "Y4D_K_000001" }

		d.users.On("FindByID", ctx, actor.ID).Return(&models.User{ID: actor.ID, Role: models.RoleStudent}, nil)
		d.users.On("Update", ctx, actor.ID, mock.Anything).
			Return(nil, &apperrors.DuplicateKeyError{Field: "student_code"})

		_, _, err := svc.Register(ctx, actor, req)
		assert.ErrorIs(t, err, ErrStudentCodeExhausted)
		d.users.AssertNumberOfCalls(t, "Update", 5)
	})

	t.Run("re-registration keeps code", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)
		actor := studentActor()
		code := "Y4D_K_654321"

		d.users.On("FindByID", ctx, actor.ID).Return(&models.User{
			ID: actor.ID, Role: models.RoleStudent, Student: &models.StudentProfile{StudentCode: &code},
		}, nil)
		d.users.On("Update", ctx, actor.ID, mock.MatchedBy(func(p *models.UpdateUserRequest) bool {
			return p.Student.StudentCode == nil && p.Student.EnrollmentDate == nil
		})).Return(&models.User{ID: actor.ID}, nil)

		_, created, err := svc.Register(ctx, actor, req)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Empty(t, d.publisher.EventsOfType(events.EventStudentRegistered))
	})

	t.Run("mentors cannot register", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		_, _, err := svc.Register(ctx, mentorActor(), req)
		assert.True(t, IsForbidden(err))
	})

	t.Run("missing required field", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestUserService(d)

		_, _, err := svc.Register(ctx, studentActor(), &models.StudentRegistrationRequest{FullName: "x"})
		assert.True(t, IsValidation(err))
	})
}

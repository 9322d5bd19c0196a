package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	apperrors "github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages user documents and the student self-service flows.
type UserService interface {
	// Admin operations
	Create(ctx context.Context, actor *Actor, req *models.CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, actor *Actor, id string) (*models.User, error)
	Update(ctx context.Context, actor *Actor, id string, req *models.UpdateUserRequest) (*models.User, error)
	UpdateStatus(ctx context.Context, actor *Actor, id string, req *models.UpdateStatusRequest) (*models.User, error)
	Delete(ctx context.Context, actor *Actor, id string) error
	List(ctx context.Context, actor *Actor, filter models.UserFilter, opts models.ListOptions) (*models.UserPage, error)

	// Self service
	Me(ctx context.Context, actor *Actor) (*models.User, error)
	Progress(ctx context.Context, actor *Actor) (*models.Progress, error)
	Register(ctx context.Context, actor *Actor, req *models.StudentRegistrationRequest) (user *models.User, created bool, err error)
}

type UserServiceConfig struct {
	StudentCodePrefix      string
	StudentCodeMaxAttempts int
}

type userService struct {
	repo      repositories.Repository
	validator *validator.Validator
	audit     AuditService
	events    eventEmitter
	logger    *ServiceLogger
	config    UserServiceConfig

	now         func() time.Time
	studentCode func(prefix string) string
}

func NewUserService(
	repo repositories.Repository,
	validator *validator.Validator,
	audit AuditService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	config UserServiceConfig,
) UserService {
	if config.StudentCodePrefix == "" {
		config.StudentCodePrefix = "Y4D_K"
	}
	if config.StudentCodeMaxAttempts <= 0 {
		config.StudentCodeMaxAttempts = 5
	}
	sl := NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "users"})
	return &userService{
		repo:        repo,
		validator:   validator,
		audit:       audit,
		events:      newEventEmitter(publisher, sl.Logger()),
		logger:      sl,
		config:      config,
		now:         time.Now,
		studentCode: GenerateStudentCode,
	}
}

// GenerateStudentCode returns prefix followed by six random digits.
func GenerateStudentCode(prefix string) string {
	return fmt.Sprintf("%s_%06d", prefix, rand.IntN(1_000_000))
}

// ===== ADMIN OPERATIONS =====

func (s *userService) Create(ctx context.Context, actor *Actor, req *models.CreateUserRequest) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "create_user", actor)
	defer func() { op.LogResult(userIDString(user), "user", err) }()

	if err = authorize(actor, "user", "create", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	user = &models.User{
		ExternalID: req.ExternalID,
		Username:   req.Username,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Role:       req.Role,
		Status:     req.Status,
		FullName:   req.FullName,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		AvatarURL:  req.AvatarURL,
		Student:    req.Student,
		Mentor:     req.Mentor,
	}
	if user.FullName == "" {
		user.FullName = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}
	if user.Role == models.RoleMentor && user.Mentor == nil {
		user.Mentor = &models.MentorProfile{}
	}
	if user.Mentor != nil && user.Mentor.AssignedStudents == nil {
		user.Mentor.AssignedStudents = []bson.ObjectID{}
	}

	if req.Password != nil {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, fmt.Errorf("failed to hash password: %w", hashErr)
		}
		h := string(hash)
		user.PasswordHash = &h
	}

	if err = s.repo.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditUserCreated,
		TargetType:  "user",
		TargetID:    user.ID.Hex(),
		Description: fmt.Sprintf("created %s %s", user.Role, user.Email),
	})
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, actor *Actor, id string) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "get_user", actor)
	defer func() { op.LogResult(id, "user", err) }()

	oid, err := ParseID("id", id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.IDString() != id {
		return nil, NewPermissionError(actor.IDString(), id, "user", "read", "students can only read themselves")
	}
	return s.repo.Users().FindByID(ctx, oid)
}

func (s *userService) Update(ctx context.Context, actor *Actor, id string, req *models.UpdateUserRequest) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "update_user", actor)
	defer func() { op.LogResult(id, "user", err) }()

	if err = authorize(actor, "user", "update", models.RoleAdmin); err != nil {
		return nil, err
	}
	oid, err := ParseID("id", id)
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return nil, ValidationErrors{*NewValidationError("body", "at least one field must be supplied", nil)}
	}

	if req.Student != nil {
		current, findErr := s.repo.Users().FindByID(ctx, oid)
		if findErr != nil {
			return nil, findErr
		}
		if current.Role != models.RoleStudent {
			return nil, ValidationErrors{*apperrors.NewValidationErrorWithRule("student", "is only allowed for role student", "role_payload", current.Role)}
		}
	}

	user, err = s.repo.Users().Update(ctx, oid, req)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditUserUpdated,
		TargetType:  "user",
		TargetID:    id,
		Description: "updated user " + user.Email,
		Changes:     updateChanges(req),
	})
	return user, nil
}

func (s *userService) UpdateStatus(ctx context.Context, actor *Actor, id string, req *models.UpdateStatusRequest) (user *models.User, err error) {
	op := s.logger.WithOperation(ctx, "update_user_status", actor)
	defer func() { op.LogResult(id, "user", err) }()

	if err = authorize(actor, "user", "update_status", models.RoleAdmin); err != nil {
		return nil, err
	}
	oid, err := ParseID("id", id)
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	status := req.Status
	user, err = s.repo.Users().Update(ctx, oid, &models.UpdateUserRequest{Status: &status})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditStatusChanged,
		TargetType:  "user",
		TargetID:    id,
		Description: fmt.Sprintf("status of %s set to %s", user.Email, status),
		Changes:     map[string]interface{}{"status": status},
	})
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor *Actor, id string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_user", actor)
	defer func() { op.LogResult(id, "user", err) }()

	if err = authorize(actor, "user", "delete", models.RoleAdmin); err != nil {
		return err
	}
	oid, err := ParseID("id", id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Users().Delete(ctx, oid)
	if err != nil {
		return err
	}

	// A deleted student leaves its mentor's list; this is best effort.
	if deleted.Student != nil && deleted.Student.AssignedMentor != nil {
		if rmErr := s.repo.Users().RemoveAssignedStudent(ctx, *deleted.Student.AssignedMentor, oid); rmErr != nil && !IsNotFound(rmErr) {
			s.logger.Logger().WarnContext(ctx, "Failed to detach deleted student from mentor",
				"student_id", id, "mentor_id", deleted.Student.AssignedMentor.Hex(), "error", rmErr)
		}
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditUserDeleted,
		TargetType:  "user",
		TargetID:    id,
		Description: "deleted user " + deleted.Email,
	})
	s.events.emit(ctx, events.EventUserDeleted, events.UserDeletedEvent{
		UserID:    id,
		Email:     deleted.Email,
		Role:      string(deleted.Role),
		DeletedBy: actor.IDString(),
	}, actor)
	return nil
}

func (s *userService) List(ctx context.Context, actor *Actor, filter models.UserFilter, opts models.ListOptions) (page *models.UserPage, err error) {
	op := s.logger.WithOperation(ctx, "list_users", actor)
	defer func() { op.LogResult("", "user", err) }()

	if err = authorize(actor, "user", "list", models.RoleAdmin, models.RoleMentor); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, ValidationErrors{*NewValidationError("role", "must be one of: student, mentor, admin", *filter.Role)}
	}
	return s.repo.Users().List(ctx, filter, opts.Normalize())
}

// ===== SELF SERVICE =====

func (s *userService) Me(ctx context.Context, actor *Actor) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	return s.repo.Users().FindByID(ctx, actor.ID)
}

func (s *userService) Progress(ctx context.Context, actor *Actor) (*models.Progress, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	return BuildProgress(user), nil
}

// BuildProgress scores registration, growth and marksheets as three equal steps.
func BuildProgress(user *models.User) *models.Progress {
	p := &models.Progress{
		Registration:       user.HasRegistration(),
		ProfessionalGrowth: len(user.ProfessionalGrowth) > 0,
		Marksheets:         len(user.Marksheets) > 0,
		VerifiedMarksheets: user.VerifiedMarksheets(),
		TotalMarksheets:    len(user.Marksheets),
		GrowthRecords:      len(user.ProfessionalGrowth),
	}
	done := 0
	for _, ok := range []bool{p.Registration, p.ProfessionalGrowth, p.Marksheets} {
		if ok {
			done++
		}
	}
	p.CompletionPercent = math.Round(float64(done) / 3 * 100)
	return p
}

// Register fills in the caller's student profile. The first registration
// allocates a student code and enrollment date; later calls overwrite the
// supplied fields only.
func (s *userService) Register(ctx context.Context, actor *Actor, req *models.StudentRegistrationRequest) (user *models.User, created bool, err error) {
	op := s.logger.WithOperation(ctx, "register_student", actor)
	defer func() { op.LogResult(actor.IDString(), "user", err) }()

	if err = authorize(actor, "student", "register", models.RoleStudent); err != nil {
		return nil, false, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, false, err
	}

	current, err := s.repo.Users().FindByID(ctx, actor.ID)
	if err != nil {
		return nil, false, err
	}

	patch := registrationPatch(req)
	if current.StudentCode() != "" {
		user, err = s.repo.Users().Update(ctx, actor.ID, patch)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	enrolled := s.now().UTC()
	patch.Student.EnrollmentDate = &enrolled
	active := models.StatusActive
	patch.Status = &active

	for attempt := 0; attempt < s.config.StudentCodeMaxAttempts; attempt++ {
		code := s.studentCode(s.config.StudentCodePrefix)
		patch.Student.StudentCode = &code

		user, err = s.repo.Users().Update(ctx, actor.ID, patch)
		var dup *apperrors.DuplicateKeyError
		if errors.As(err, &dup) && dup.Field == "student_code" {
			continue
		}
		if err != nil {
			return nil, false, err
		}

		s.events.emit(ctx, events.EventStudentRegistered, events.StudentRegisteredEvent{
			UserID:      user.ID.Hex(),
			StudentCode: code,
			Email:       user.Email,
			Created:     true,
		}, actor)
		return user, true, nil
	}
	return nil, false, ErrStudentCodeExhausted
}

func registrationPatch(req *models.StudentRegistrationRequest) *models.UpdateUserRequest {
	fullName := req.FullName
	student := &models.StudentProfilePatch{
		DateOfBirth:      req.DateOfBirth,
		Phone:            &req.Phone,
		Address:          optional(req.Address),
		EmploymentStatus: optional(req.EmploymentStatus),
		FatherOccupation: optional(req.FatherOccupation),
		MotherOccupation: optional(req.MotherOccupation),
		EducationLevel:   &req.EducationLevel,
		CGPAOrPercentage: optional(req.CGPAOrPercentage),
		GraduationYear:   req.GraduationYear,
		CollegeName:      optional(req.CollegeName),
	}
	if req.Gender != "" {
		g := req.Gender
		student.Gender = &g
	}
	if req.PlacementStatus != "" {
		p := req.PlacementStatus
		student.PlacementStatus = &p
	}
	return &models.UpdateUserRequest{FullName: &fullName, Student: student}
}

// optional returns nil for an empty string so it is left untouched.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func updateChanges(req *models.UpdateUserRequest) map[string]interface{} {
	changes := map[string]interface{}{}
	if req.Username != nil {
		changes["username"] = *req.Username
	}
	if req.Email != nil {
		changes["email"] = *req.Email
	}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.FullName != nil {
		changes["full_name"] = *req.FullName
	}
	if req.Student != nil {
		changes["student"] = "updated"
	}
	return changes
}

func userIDString(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID.Hex()
}

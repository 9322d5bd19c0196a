package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AssignmentService links students to mentors.
type AssignmentService interface {
	AssignMentor(ctx context.Context, actor *Actor, req *models.AssignMentorRequest) (*AssignmentResult, error)
}

type AssignmentResult struct {
	Student *models.User `json:"student"`
	Mentor  *models.User `json:"mentor"`
}

// PartialAssignmentError reports that the student side was written but the
// mentor side was not. The student write is not rolled back.
type PartialAssignmentError struct {
	StudentID string
	MentorID  string
	Err       error
}

func (e *PartialAssignmentError) Error() string {
	return fmt.Sprintf("student %s assigned to mentor %s but mentor was not updated: %v", e.StudentID, e.MentorID, e.Err)
}

func (e *PartialAssignmentError) Unwrap() error {
	return e.Err
}

type assignmentService struct {
	repo      repositories.Repository
	validator *validator.Validator
	audit     AuditService
	events    eventEmitter
	logger    *ServiceLogger
}

func NewAssignmentService(
	repo repositories.Repository,
	validator *validator.Validator,
	audit AuditService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) AssignmentService {
	sl := NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "assignments"})
	return &assignmentService{
		repo:      repo,
		validator: validator,
		audit:     audit,
		events:    newEventEmitter(publisher, sl.Logger()),
		logger:    sl,
	}
}

// AssignMentor writes the student first and the mentor second, with no
// transaction spanning both. A previous mentor loses the student afterwards on
// a best-effort basis.
func (s *assignmentService) AssignMentor(ctx context.Context, actor *Actor, req *models.AssignMentorRequest) (result *AssignmentResult, err error) {
	op := s.logger.WithOperation(ctx, "assign_mentor", actor)
	defer func() { op.LogResult(req.StudentID, "user", err) }()

	if err = authorize(actor, "mentor_assignment", "assign", models.RoleAdmin); err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	studentID, err := ParseID("student_id", req.StudentID)
	if err != nil {
		return nil, err
	}
	mentorID, err := ParseID("mentor_id", req.MentorID)
	if err != nil {
		return nil, err
	}

	student, err := s.repo.Users().FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, NewBusinessRuleError("student_role", "only students can be assigned a mentor",
			map[string]interface{}{"user_id": req.StudentID, "role": student.Role})
	}
	mentor, err := s.repo.Users().FindByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Role != models.RoleMentor {
		return nil, NewBusinessRuleError("mentor_role", "students can only be assigned to mentors",
			map[string]interface{}{"user_id": req.MentorID, "role": mentor.Role})
	}

	var previous *bson.ObjectID
	if student.Student != nil && student.Student.AssignedMentor != nil && *student.Student.AssignedMentor != mentorID {
		prev := *student.Student.AssignedMentor
		previous = &prev
	}

	updatedStudent, err := s.repo.Users().SetAssignedMentor(ctx, studentID, mentorID)
	if err != nil {
		return nil, err
	}

	updatedMentor, err := s.repo.Users().AddAssignedStudent(ctx, mentorID, studentID)
	if err != nil {
		s.logger.Logger().ErrorContext(ctx, "Mentor side of assignment failed; student already points at mentor",
			"student_id", req.StudentID, "mentor_id", req.MentorID, "error", err)
		return &AssignmentResult{Student: updatedStudent}, &PartialAssignmentError{
			StudentID: req.StudentID,
			MentorID:  req.MentorID,
			Err:       err,
		}
	}

	if previous != nil {
		if rmErr := s.repo.Users().RemoveAssignedStudent(ctx, *previous, studentID); rmErr != nil && !IsNotFound(rmErr) {
			s.logger.Logger().WarnContext(ctx, "Failed to detach student from previous mentor",
				"student_id", req.StudentID, "previous_mentor_id", previous.Hex(), "error", rmErr)
		}
	}

	metadata := map[string]interface{}{"mentor_id": req.MentorID}
	if previous != nil {
		metadata["previous_mentor_id"] = previous.Hex()
	}
	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditMentorAssigned,
		TargetType:  "user",
		TargetID:    req.StudentID,
		Description: fmt.Sprintf("assigned %s to mentor %s", updatedStudent.Email, updatedMentor.Email),
		Metadata:    metadata,
	})
	s.events.emit(ctx, events.EventMentorAssigned, events.MentorAssignedEvent{
		StudentID: req.StudentID,
		MentorID:  req.MentorID,
	}, actor)

	return &AssignmentResult{Student: updatedStudent, Mentor: updatedMentor}, nil
}

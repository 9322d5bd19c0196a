package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestAssignmentService(d *testDeps) AssignmentService {
	return NewAssignmentService(d.repo, d.validator, d.auditService(), d.publisher, d.logger)
}

func TestAssignmentService_AssignMentor(t *testing.T) {
	ctx := context.Background()
	studentID := bson.NewObjectID()
	mentorID := bson.NewObjectID()
	req := &models.AssignMentorRequest{StudentID: studentID.Hex(), MentorID: mentorID.Hex()}

	student := &models.User{ID: studentID, Email: "s@example.com", Role: models.RoleStudent, Student: &models.StudentProfile{}}
	mentor := &models.User{ID: mentorID, Email: "m@example.com", Role: models.RoleMentor, Mentor: &models.MentorProfile{}}

	t.Run("links both sides", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)

		d.users.On("FindByID", ctx, studentID).Return(student, nil)
		d.users.On("FindByID", ctx, mentorID).Return(mentor, nil)
		d.users.On("SetAssignedMentor", ctx, studentID, mentorID).Return(&models.User{
			ID: studentID, Email: student.Email, Role: models.RoleStudent,
			Student: &models.StudentProfile{AssignedMentor: &mentorID},
		}, nil)
		d.users.On("AddAssignedStudent", ctx, mentorID, studentID).Return(&models.User{
			ID: mentorID, Email: mentor.Email, Role: models.RoleMentor,
			Mentor: &models.MentorProfile{AssignedStudents: []bson.ObjectID{studentID}},
		}, nil)

		result, err := svc.AssignMentor(ctx, adminActor(), req)

		require.NoError(t, err)
		assert.Equal(t, mentorID, *result.Student.Student.AssignedMentor)
		assert.Contains(t, result.Mentor.Mentor.AssignedStudents, studentID)
		assert.Len(t, d.auditEvents(models.AuditMentorAssigned), 1)
		assert.Len(t, d.publisher.EventsOfType(events.EventMentorAssigned), 1)
		d.users.AssertNotCalled(t, "RemoveAssignedStudent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mentor write failure leaves student updated", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)
		writeErr := errors.New("write conflict")

		d.users.On("FindByID", ctx, studentID).Return(student, nil)
		d.users.On("FindByID", ctx, mentorID).Return(mentor, nil)
		d.users.On("SetAssignedMentor", ctx, studentID, mentorID).Return(&models.User{
			ID: studentID, Student: &models.StudentProfile{AssignedMentor: &mentorID},
		}, nil)
		d.users.On("AddAssignedStudent", ctx, mentorID, studentID).Return(nil, writeErr)

		result, err := svc.AssignMentor(ctx, adminActor(), req)

		var partial *PartialAssignmentError
		require.ErrorAs(t, err, &partial)
		assert.ErrorIs(t, err, writeErr)
		require.NotNil(t, result)
		assert.Equal(t, mentorID, *result.Student.Student.AssignedMentor)
		assert.Nil(t, result.Mentor)
		assert.Empty(t, d.publisher.EventsOfType(events.EventMentorAssigned))
	})

	t.Run("previous mentor is detached", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)
		previous := bson.NewObjectID()

		d.users.On("FindByID", ctx, studentID).Return(&models.User{
			ID: studentID, Role: models.RoleStudent, Student: &models.StudentProfile{AssignedMentor: &previous},
		}, nil)
		d.users.On("FindByID", ctx, mentorID).Return(mentor, nil)
		d.users.On("SetAssignedMentor", ctx, studentID, mentorID).Return(student, nil)
		d.users.On("AddAssignedStudent", ctx, mentorID, studentID).Return(mentor, nil)
		d.users.On("RemoveAssignedStudent", ctx, previous, studentID).Return(nil)

		_, err := svc.AssignMentor(ctx, adminActor(), req)
		require.NoError(t, err)
		d.users.AssertExpectations(t)
	})

	t.Run("target must be a mentor", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)

		d.users.On("FindByID", ctx, studentID).Return(student, nil)
		d.users.On("FindByID", ctx, mentorID).Return(&models.User{ID: mentorID, Role: models.RoleAdmin}, nil)

		_, err := svc.AssignMentor(ctx, adminActor(), req)
		assert.True(t, IsBusinessRule(err))
		d.users.AssertNotCalled(t, "SetAssignedMentor", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("subject must be a student", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)

		d.users.On("FindByID", ctx, studentID).Return(&models.User{ID: studentID, Role: models.RoleMentor}, nil)

		_, err := svc.AssignMentor(ctx, adminActor(), req)
		assert.True(t, IsBusinessRule(err))
	})

	t.Run("only admins assign", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)

		_, err := svc.AssignMentor(ctx, mentorActor(), req)
		assert.True(t, IsForbidden(err))
	})

	t.Run("malformed ids", func(t *testing.T) {
		d := newTestDeps()
		svc := newTestAssignmentService(d)

		_, err := svc.AssignMentor(ctx, adminActor(), &models.AssignMentorRequest{StudentID: "abc", MentorID: mentorID.Hex()})
		assert.True(t, IsValidation(err))
	})
}

package validator

import (
	"github.com/SAP-F-2025/student-portal-service/internal/errors"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
)

// BusinessValidator checks rules that span several fields.
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// Validate dispatches on the request type. Unknown types pass.
func (b *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch v := s.(type) {
	case *models.CreateUserRequest:
		return b.ValidateRolePayload(v.Role, v.Student, v.Mentor)
	case *models.User:
		return b.ValidateRolePayload(v.Role, v.Student, v.Mentor)
	case *models.CreateGrowthRecordRequest:
		return b.ValidateGrowthRecord(&v.GrowthRecordInput, true)
	case *models.GrowthRecordInput:
		return b.ValidateGrowthRecord(v, false)
	}
	return nil
}

// ValidateRolePayload enforces that only students carry a student payload and
// only mentors carry a mentor payload.
func (b *BusinessValidator) ValidateRolePayload(role models.UserRole, student *models.StudentProfile, mentor *models.MentorProfile) ValidationErrors {
	var errs ValidationErrors
	if student != nil && role != models.RoleStudent {
		errs = append(errs, *errors.NewValidationErrorWithRule("student", "is only allowed for role student", "role_payload", role))
	}
	if mentor != nil && role != models.RoleMentor {
		errs = append(errs, *errors.NewValidationErrorWithRule("mentor", "is only allowed for role mentor", "role_payload", role))
	}
	return errs
}

// ValidateGrowthRecord checks date ordering and, for new records, that at least
// one of the two record shapes is present.
func (b *BusinessValidator) ValidateGrowthRecord(in *models.GrowthRecordInput, creating bool) ValidationErrors {
	var errs ValidationErrors
	if creating && !in.HasNarrative() && !in.HasEmployment() {
		errs = append(errs, *errors.NewValidationErrorWithRule("current_organization",
			"must contain either current organization/role or company/job role", "growth_shape", nil))
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		errs = append(errs, *errors.NewValidationErrorWithRule("end_date", "must not be before the start date", "date_order", in.EndDate))
	}
	if in.PastJoinDate != nil && in.PastLeaveDate != nil && in.PastLeaveDate.Before(*in.PastJoinDate) {
		errs = append(errs, *errors.NewValidationErrorWithRule("past_leave_date", "must not be before the start date", "date_order", in.PastLeaveDate))
	}
	return errs
}

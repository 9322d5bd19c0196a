package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type DocumentType string

const (
	Document10th           DocumentType = "10th"
	Document12th           DocumentType = "12th"
	DocumentDiploma        DocumentType = "Diploma"
	DocumentGraduation     DocumentType = "Graduation"
	DocumentPostGraduation DocumentType = "Post-Graduation"
	DocumentCertificate    DocumentType = "Certificate"
)

var DocumentTypes = []DocumentType{
	Document10th, Document12th, DocumentDiploma,
	DocumentGraduation, DocumentPostGraduation, DocumentCertificate,
}

// ProfessionalGrowthRecord holds both the narrative form and the older
// employment form. Either set of fields may be populated on a stored record.
type ProfessionalGrowthRecord struct {
	ID bson.ObjectID `json:"id" bson:"_id"`

	// Narrative form
	CurrentOrganization string     `json:"current_organization,omitempty" bson:"current_organization,omitempty"`
	CurrentRole         string     `json:"current_role,omitempty" bson:"current_role,omitempty"`
	CurrentJoinDate     *time.Time `json:"current_join_date,omitempty" bson:"current_join_date,omitempty"`
	PastOrganization    string     `json:"past_organization,omitempty" bson:"past_organization,omitempty"`
	PastRole            string     `json:"past_role,omitempty" bson:"past_role,omitempty"`
	PastJoinDate        *time.Time `json:"past_join_date,omitempty" bson:"past_join_date,omitempty"`
	PastLeaveDate       *time.Time `json:"past_leave_date,omitempty" bson:"past_leave_date,omitempty"`
	ProjectsDescription string     `json:"projects_description,omitempty" bson:"projects_description,omitempty"`
	ChallengesFaced     string     `json:"challenges_faced,omitempty" bson:"challenges_faced,omitempty"`
	SkillsLearned       string     `json:"skills_learned,omitempty" bson:"skills_learned,omitempty"`
	CareerGoals         string     `json:"career_goals,omitempty" bson:"career_goals,omitempty"`
	MentorImpact        string     `json:"mentor_impact,omitempty" bson:"mentor_impact,omitempty"`
	TrainingFeedback    string     `json:"training_feedback,omitempty" bson:"training_feedback,omitempty"`
	AdditionalComments  string     `json:"additional_comments,omitempty" bson:"additional_comments,omitempty"`
	SubmissionDate      time.Time  `json:"submission_date" bson:"submission_date"`

	// Employment form
	CompanyName    string     `json:"company_name,omitempty" bson:"company_name,omitempty"`
	JobRole        string     `json:"job_role,omitempty" bson:"job_role,omitempty"`
	EmploymentType string     `json:"employment_type,omitempty" bson:"employment_type,omitempty"`
	Salary         *float64   `json:"salary,omitempty" bson:"salary,omitempty"`
	Rating         *int       `json:"rating,omitempty" bson:"rating,omitempty"`
	SkillsAcquired []string   `json:"skills_acquired,omitempty" bson:"skills_acquired,omitempty"`
	Achievements   []string   `json:"achievements,omitempty" bson:"achievements,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

type MarksheetRecord struct {
	ID           bson.ObjectID  `json:"id" bson:"_id"`
	DocumentType DocumentType   `json:"document_type" bson:"document_type"`
	FileURL      string         `json:"file_url" bson:"file_url"`
	FileName     string         `json:"file_name" bson:"file_name"`
	UploadDate   time.Time      `json:"upload_date" bson:"upload_date"`
	Verified     bool           `json:"verified" bson:"verified"`
	Feedback     *string        `json:"feedback,omitempty" bson:"feedback,omitempty"`
	VerifiedBy   *bson.ObjectID `json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	VerifiedAt   *time.Time     `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
}

// MentorNote is a remark a mentor leaves on an assigned student.
type MentorNote struct {
	ID        bson.ObjectID `json:"id" bson:"_id"`
	Note      string        `json:"note" bson:"note"`
	CreatedBy bson.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// ===== REQUESTS =====

// GrowthRecordInput is the body for creating a growth record. The same type is
// used for partial updates, where nil fields are left unchanged.
type GrowthRecordInput struct {
	CurrentOrganization *string    `json:"current_organization,omitempty" bson:"current_organization,omitempty" validate:"omitempty,max=200"`
	CurrentRole         *string    `json:"current_role,omitempty" bson:"current_role,omitempty" validate:"omitempty,max=200"`
	CurrentJoinDate     *time.Time `json:"current_join_date,omitempty" bson:"current_join_date,omitempty"`
	PastOrganization    *string    `json:"past_organization,omitempty" bson:"past_organization,omitempty" validate:"omitempty,max=200"`
	PastRole            *string    `json:"past_role,omitempty" bson:"past_role,omitempty" validate:"omitempty,max=200"`
	PastJoinDate        *time.Time `json:"past_join_date,omitempty" bson:"past_join_date,omitempty"`
	PastLeaveDate       *time.Time `json:"past_leave_date,omitempty" bson:"past_leave_date,omitempty"`
	ProjectsDescription *string    `json:"projects_description,omitempty" bson:"projects_description,omitempty" validate:"omitempty,max=5000"`
	ChallengesFaced     *string    `json:"challenges_faced,omitempty" bson:"challenges_faced,omitempty" validate:"omitempty,max=5000"`
	SkillsLearned       *string    `json:"skills_learned,omitempty" bson:"skills_learned,omitempty" validate:"omitempty,max=5000"`
	CareerGoals         *string    `json:"career_goals,omitempty" bson:"career_goals,omitempty" validate:"omitempty,max=5000"`
	MentorImpact        *string    `json:"mentor_impact,omitempty" bson:"mentor_impact,omitempty" validate:"omitempty,max=5000"`
	TrainingFeedback    *string    `json:"training_feedback,omitempty" bson:"training_feedback,omitempty" validate:"omitempty,max=5000"`
	AdditionalComments  *string    `json:"additional_comments,omitempty" bson:"additional_comments,omitempty" validate:"omitempty,max=5000"`

	CompanyName    *string    `json:"company_name,omitempty" bson:"company_name,omitempty" validate:"omitempty,max=200"`
	JobRole        *string    `json:"job_role,omitempty" bson:"job_role,omitempty" validate:"omitempty,max=200"`
	EmploymentType *string    `json:"employment_type,omitempty" bson:"employment_type,omitempty"`
	Salary         *float64   `json:"salary,omitempty" bson:"salary,omitempty" validate:"omitempty,min=0"`
	Rating         *int       `json:"rating,omitempty" bson:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	SkillsAcquired []string   `json:"skills_acquired,omitempty" bson:"skills_acquired,omitempty"`
	Achievements   []string   `json:"achievements,omitempty" bson:"achievements,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

// IsEmpty reports whether no field is set.
func (in *GrowthRecordInput) IsEmpty() bool {
	for _, s := range []*string{
		in.CurrentOrganization, in.CurrentRole, in.PastOrganization, in.PastRole,
		in.ProjectsDescription, in.ChallengesFaced, in.SkillsLearned, in.CareerGoals,
		in.MentorImpact, in.TrainingFeedback, in.AdditionalComments,
		in.CompanyName, in.JobRole, in.EmploymentType,
	} {
		if s != nil {
			return false
		}
	}
	for _, t := range []*time.Time{
		in.CurrentJoinDate, in.PastJoinDate, in.PastLeaveDate, in.StartDate, in.EndDate,
	} {
		if t != nil {
			return false
		}
	}
	return in.Salary == nil && in.Rating == nil && in.SkillsAcquired == nil && in.Achievements == nil
}

// HasNarrative reports whether the narrative form is being submitted.
func (in *GrowthRecordInput) HasNarrative() bool {
	return in.CurrentOrganization != nil || in.CurrentRole != nil
}

// HasEmployment reports whether the employment form is being submitted.
func (in *GrowthRecordInput) HasEmployment() bool {
	return in.CompanyName != nil || in.JobRole != nil
}

// ToRecord builds a new record with a fresh id.
func (in *GrowthRecordInput) ToRecord(now time.Time) ProfessionalGrowthRecord {
	return ProfessionalGrowthRecord{
		ID:                  bson.NewObjectID(),
		CurrentOrganization: deref(in.CurrentOrganization),
		CurrentRole:         deref(in.CurrentRole),
		CurrentJoinDate:     in.CurrentJoinDate,
		PastOrganization:    deref(in.PastOrganization),
		PastRole:            deref(in.PastRole),
		PastJoinDate:        in.PastJoinDate,
		PastLeaveDate:       in.PastLeaveDate,
		ProjectsDescription: deref(in.ProjectsDescription),
		ChallengesFaced:     deref(in.ChallengesFaced),
		SkillsLearned:       deref(in.SkillsLearned),
		CareerGoals:         deref(in.CareerGoals),
		MentorImpact:        deref(in.MentorImpact),
		TrainingFeedback:    deref(in.TrainingFeedback),
		AdditionalComments:  deref(in.AdditionalComments),
		SubmissionDate:      now,
		CompanyName:         deref(in.CompanyName),
		JobRole:             deref(in.JobRole),
		EmploymentType:      deref(in.EmploymentType),
		Salary:              in.Salary,
		Rating:              in.Rating,
		SkillsAcquired:      in.SkillsAcquired,
		Achievements:        in.Achievements,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
	}
}

type CreateGrowthRecordRequest struct {
	UserID string `json:"user_id,omitempty"`
	GrowthRecordInput
}

type CreateMarksheetRequest struct {
	UserID       string       `json:"user_id,omitempty"`
	DocumentType DocumentType `json:"document_type" validate:"required,document_type"`
	FileURL      string       `json:"file_url" validate:"required,max=2048"`
	FileName     string       `json:"file_name" validate:"required,max=255"`
	UploadDate   *time.Time   `json:"upload_date,omitempty"`
}

type CreateMentorNoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

// ToRecord builds a new unverified marksheet with a fresh id.
func (r *CreateMarksheetRequest) ToRecord(now time.Time) MarksheetRecord {
	upload := now
	if r.UploadDate != nil {
		upload = *r.UploadDate
	}
	return MarksheetRecord{
		ID:           bson.NewObjectID(),
		DocumentType: r.DocumentType,
		FileURL:      r.FileURL,
		FileName:     r.FileName,
		UploadDate:   upload,
		Verified:     false,
	}
}

// MarksheetPatch is a partial marksheet update. Verified and Feedback are only
// honoured for mentors and admins.
type MarksheetPatch struct {
	DocumentType *DocumentType `json:"document_type,omitempty" bson:"document_type,omitempty" validate:"omitempty,document_type"`
	FileURL      *string       `json:"file_url,omitempty" bson:"file_url,omitempty" validate:"omitempty,max=2048"`
	FileName     *string       `json:"file_name,omitempty" bson:"file_name,omitempty" validate:"omitempty,max=255"`
	Verified     *bool         `json:"verified,omitempty" bson:"-"`
	Feedback     *string       `json:"feedback,omitempty" bson:"-" validate:"omitempty,max=2000"`
}

// HasFieldChanges reports whether any non-verification field is set.
func (p *MarksheetPatch) HasFieldChanges() bool {
	return p.DocumentType != nil || p.FileURL != nil || p.FileName != nil
}

type UpdateRecordRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// VerificationUpdate is what a reviewer writes onto a marksheet.
type VerificationUpdate struct {
	Verified   bool
	Feedback   *string
	VerifiedBy *bson.ObjectID
	At         time.Time
}

type DocumentFilter struct {
	UserID       *bson.ObjectID
	DocumentType *DocumentType
	Verified     *bool
}

// Matches reports whether the marksheet passes the type and verified filters.
func (f DocumentFilter) Matches(m MarksheetRecord) bool {
	if f.DocumentType != nil && m.DocumentType != *f.DocumentType {
		return false
	}
	if f.Verified != nil && m.Verified != *f.Verified {
		return false
	}
	return true
}

// UserDocuments groups a user's marksheets for listing responses.
type UserDocuments struct {
	UserID      bson.ObjectID     `json:"user_id"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	StudentCode string            `json:"student_code,omitempty"`
	Documents   []MarksheetRecord `json:"documents"`
}

type UserGrowthRecords struct {
	UserID      bson.ObjectID              `json:"user_id"`
	FullName    string                     `json:"full_name"`
	Email       string                     `json:"email"`
	StudentCode string                     `json:"student_code,omitempty"`
	Records     []ProfessionalGrowthRecord `json:"records"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleMentor  UserRole = "mentor"
	RoleAdmin   UserRole = "admin"
)

// ParseRole maps an identity-provider role claim onto a UserRole. The provider
// still issues the legacy names "client" and "moderator"; anything unknown falls
// back to the supplied default.
func ParseRole(claim string, fallback UserRole) UserRole {
	switch strings.ToLower(strings.TrimSpace(claim)) {
	case "student", "client", "user":
		return RoleStudent
	case "mentor", "moderator":
		return RoleMentor
	case "admin":
		return RoleAdmin
	default:
		return fallback
	}
}

func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleMentor || r == RoleAdmin
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusBlocked  UserStatus = "blocked"
)

type PlacementStatus string

const (
	PlacementNotPlaced      PlacementStatus = "Not Placed"
	PlacementPlaced         PlacementStatus = "Placed"
	PlacementMultipleOffers PlacementStatus = "Multiple Offers"
)

// PlacedStatuses are the placement values counted as placed in reports.
var PlacedStatuses = []PlacementStatus{PlacementPlaced, PlacementMultipleOffers}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// User is the single stored document for every role. Role specific data lives
// in exactly one of Student or Mentor; admins carry neither.
type User struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	ExternalID   *string       `json:"external_id,omitempty" bson:"external_id,omitempty"`
	Username     string        `json:"username" bson:"username"`
	Email        string        `json:"email" bson:"email"`
	PasswordHash *string       `json:"-" bson:"password_hash,omitempty"`
	Role         UserRole      `json:"role" bson:"role"`
	Status       UserStatus    `json:"status" bson:"status"`
	FullName     string        `json:"full_name,omitempty" bson:"full_name,omitempty"`
	FirstName    string        `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty" bson:"last_name,omitempty"`
	AvatarURL    string        `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	LastLogin    *time.Time    `json:"last_login,omitempty" bson:"last_login,omitempty"`

	// Role payload
	Student *StudentProfile `json:"student,omitempty" bson:"student,omitempty"`
	Mentor  *MentorProfile  `json:"mentor,omitempty" bson:"mentor,omitempty"`

	// Embedded records
	ProfessionalGrowth []ProfessionalGrowthRecord `json:"professional_growth" bson:"professional_growth"`
	Marksheets         []MarksheetRecord          `json:"marksheets" bson:"marksheets"`
	MentorNotes        []MentorNote               `json:"mentor_notes,omitempty" bson:"mentor_notes,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type StudentProfile struct {
	StudentCode      *string         `json:"student_code,omitempty" bson:"student_code,omitempty" validate:"omitempty,student_code"`
	DateOfBirth      *time.Time      `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender           Gender          `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,gender"`
	Phone            string          `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=20"`
	Address          string          `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=500"`
	EmploymentStatus string          `json:"employment_status,omitempty" bson:"employment_status,omitempty"`
	FatherOccupation string          `json:"father_occupation,omitempty" bson:"father_occupation,omitempty"`
	MotherOccupation string          `json:"mother_occupation,omitempty" bson:"mother_occupation,omitempty"`
	EducationLevel   string          `json:"education_level,omitempty" bson:"education_level,omitempty"`
	CGPAOrPercentage string          `json:"cgpa_or_percentage,omitempty" bson:"cgpa_or_percentage,omitempty"`
	GraduationYear   *int            `json:"graduation_year,omitempty" bson:"graduation_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	CollegeName      string          `json:"college_name,omitempty" bson:"college_name,omitempty"`
	PlacementStatus  PlacementStatus `json:"placement_status,omitempty" bson:"placement_status,omitempty" validate:"omitempty,placement_status"`
	EnrollmentDate   *time.Time      `json:"enrollment_date,omitempty" bson:"enrollment_date,omitempty"`
	AssignedMentor   *bson.ObjectID  `json:"assigned_mentor,omitempty" bson:"assigned_mentor,omitempty"`
}

type MentorProfile struct {
	AssignedStudents []bson.ObjectID `json:"assigned_students" bson:"assigned_students"`
}

// HasRegistration reports whether the student filled in the registration form.
func (u *User) HasRegistration() bool {
	return u.Student != nil && u.Student.StudentCode != nil && u.FullName != ""
}

// StudentCode returns the code or "" for non-students.
func (u *User) StudentCode() string {
	if u.Student == nil || u.Student.StudentCode == nil {
		return ""
	}
	return *u.Student.StudentCode
}

// AssignedStudentIDs returns the mentor's students, nil for other roles.
func (u *User) AssignedStudentIDs() []bson.ObjectID {
	if u.Mentor == nil {
		return nil
	}
	return u.Mentor.AssignedStudents
}

// VerifiedMarksheets counts verified documents.
func (u *User) VerifiedMarksheets() int {
	n := 0
	for _, m := range u.Marksheets {
		if m.Verified {
			n++
		}
	}
	return n
}

// ===== REQUEST / PATCH TYPES =====

// CreateUserRequest is the admin creation payload.
type CreateUserRequest struct {
	ExternalID *string         `json:"external_id,omitempty"`
	Username   string          `json:"username" validate:"required,min=3,max=64"`
	Email      string          `json:"email" validate:"required,email"`
	Password   *string         `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role       UserRole        `json:"role" validate:"required,user_role"`
	Status     UserStatus      `json:"status,omitempty" validate:"omitempty,user_status"`
	FullName   string          `json:"full_name,omitempty" validate:"omitempty,max=200"`
	FirstName  string          `json:"first_name,omitempty"`
	LastName   string          `json:"last_name,omitempty"`
	AvatarURL  string          `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Student    *StudentProfile `json:"student,omitempty" validate:"omitempty"`
	Mentor     *MentorProfile  `json:"mentor,omitempty"`
}

// UpdateUserRequest carries only the fields to overwrite. Nil fields are left
// untouched and the embedded record arrays are never part of it.
type UpdateUserRequest struct {
	Username  *string              `json:"username,omitempty" bson:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email     *string              `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Status    *UserStatus          `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,user_status"`
	FullName  *string              `json:"full_name,omitempty" bson:"full_name,omitempty" validate:"omitempty,max=200"`
	FirstName *string              `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName  *string              `json:"last_name,omitempty" bson:"last_name,omitempty"`
	AvatarURL *string              `json:"avatar_url,omitempty" bson:"avatar_url,omitempty" validate:"omitempty,url"`
	LastLogin *time.Time           `json:"-" bson:"last_login,omitempty"`
	Student   *StudentProfilePatch `json:"student,omitempty" bson:"-"`
}

// StudentProfilePatch is the partial form of StudentProfile.
type StudentProfilePatch struct {
	StudentCode      *string          `json:"student_code,omitempty" bson:"student_code,omitempty" validate:"omitempty,student_code"`
	DateOfBirth      *time.Time       `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender           *Gender          `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,gender"`
	Phone            *string          `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,max=20"`
	Address          *string          `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=500"`
	EmploymentStatus *string          `json:"employment_status,omitempty" bson:"employment_status,omitempty"`
	FatherOccupation *string          `json:"father_occupation,omitempty" bson:"father_occupation,omitempty"`
	MotherOccupation *string          `json:"mother_occupation,omitempty" bson:"mother_occupation,omitempty"`
	EducationLevel   *string          `json:"education_level,omitempty" bson:"education_level,omitempty"`
	CGPAOrPercentage *string          `json:"cgpa_or_percentage,omitempty" bson:"cgpa_or_percentage,omitempty"`
	GraduationYear   *int             `json:"graduation_year,omitempty" bson:"graduation_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	CollegeName      *string          `json:"college_name,omitempty" bson:"college_name,omitempty"`
	PlacementStatus  *PlacementStatus `json:"placement_status,omitempty" bson:"placement_status,omitempty" validate:"omitempty,placement_status"`
	EnrollmentDate   *time.Time       `json:"enrollment_date,omitempty" bson:"enrollment_date,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Username == nil && r.Email == nil && r.Status == nil && r.FullName == nil &&
		r.FirstName == nil && r.LastName == nil && r.AvatarURL == nil && r.LastLogin == nil &&
		r.Student == nil
}

type UpdateStatusRequest struct {
	Status UserStatus `json:"status" validate:"required,user_status"`
}

type AssignMentorRequest struct {
	StudentID string `json:"student_id" validate:"required,len=24,hexadecimal"`
	MentorID  string `json:"mentor_id" validate:"required,len=24,hexadecimal"`
}

// StudentRegistrationRequest is the self-service registration form.
type StudentRegistrationRequest struct {
	FullName         string          `json:"full_name" validate:"required,max=200"`
	DateOfBirth      *time.Time      `json:"date_of_birth,omitempty"`
	Gender           Gender          `json:"gender,omitempty" validate:"omitempty,gender"`
	Phone            string          `json:"phone" validate:"required,max=20"`
	Address          string          `json:"address,omitempty" validate:"omitempty,max=500"`
	EmploymentStatus string          `json:"employment_status,omitempty"`
	FatherOccupation string          `json:"father_occupation,omitempty"`
	MotherOccupation string          `json:"mother_occupation,omitempty"`
	EducationLevel   string          `json:"education_level" validate:"required"`
	CGPAOrPercentage string          `json:"cgpa_or_percentage,omitempty"`
	GraduationYear   *int            `json:"graduation_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	CollegeName      string          `json:"college_name,omitempty"`
	PlacementStatus  PlacementStatus `json:"placement_status,omitempty" validate:"omitempty,placement_status"`
}

// ===== LISTING =====

// UserFilter selects users. Email, Username and StudentCode are exact matches;
// Search is a case-insensitive substring match over name, email, username and
// student code.
type UserFilter struct {
	Email           string           `form:"-"`
	Username        string           `form:"-"`
	StudentCode     string           `form:"-"`
	Role            *UserRole        `form:"role"`
	Status          *UserStatus      `form:"status"`
	PlacementStatus *PlacementStatus `form:"placement_status"`
	Search          string           `form:"search"`
	IDs             []bson.ObjectID  `form:"-"`
	HasGrowth       bool             `form:"-"`
	HasMarksheets   bool             `form:"-"`
	AssignedMentor  *bson.ObjectID   `form:"-"`
	// Marksheet keeps users owning at least one marksheet that matches.
	Marksheet *DocumentFilter `form:"-"`
}

// IdentityUpsert carries the identity-provider fields written on every sync.
type IdentityUpsert struct {
	ExternalID string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	FullName   string
	AvatarURL  string
	Role       UserRole
	At         time.Time
}

type ListOptions struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"limit"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize applies the listing defaults: page 1, ten per page, newest first.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.SortBy == "" {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" {
		o.SortOrder = "desc"
	}
	return o
}

func (o ListOptions) Skip() int64 {
	return int64((o.Page - 1) * o.PageSize)
}

type UserPage struct {
	Items []*User `json:"items"`
	Total int64   `json:"total"`
}

// Pages returns the page count for a total at the given size.
func Pages(total int64, pageSize int) int64 {
	if pageSize <= 0 || total == 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}

package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AnalyticsType string

const (
	AnalyticsOverview  AnalyticsType = "overview"
	AnalyticsPlacement AnalyticsType = "placement"
	AnalyticsDocuments AnalyticsType = "documents"
	AnalyticsGrowth    AnalyticsType = "growth"
)

type TrendInterval string

const (
	IntervalDay   TrendInterval = "day"
	IntervalMonth TrendInterval = "month"
)

const DefaultTimeFrameDays = 30

// AnalyticsQuery selects a report. TimeFrame is a window in days ending now.
type AnalyticsQuery struct {
	Type      AnalyticsType  `form:"type"`
	TimeFrame int            `form:"timeFrame"`
	Interval  TrendInterval  `form:"interval"`
	MentorID  *bson.ObjectID `form:"-"`
}

// Normalize fills defaults: overview, 30 days, daily buckets.
func (q AnalyticsQuery) Normalize() AnalyticsQuery {
	if q.Type == "" {
		q.Type = AnalyticsOverview
	}
	if q.TimeFrame <= 0 {
		q.TimeFrame = DefaultTimeFrameDays
	}
	if q.Interval != IntervalMonth {
		q.Interval = IntervalDay
	}
	return q
}

// Since returns the start of the window relative to now.
func (q AnalyticsQuery) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -q.TimeFrame)
}

// AnalyticsScope restricts reports to a set of students. When Scoped is true an
// empty StudentIDs slice matches nothing.
type AnalyticsScope struct {
	Scoped     bool
	StudentIDs []bson.ObjectID
}

// Rate returns part/total as a percentage rounded to one decimal, 0 when total is 0.
func Rate(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type TrendPoint struct {
	Bucket string `json:"bucket" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

type CompanyStat struct {
	Company       string  `json:"company" bson:"_id"`
	Count         int64   `json:"count" bson:"count"`
	AverageSalary float64 `json:"average_salary" bson:"avg_salary"`
}

type SkillStat struct {
	Skill string `json:"skill" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

type GrowthGroupStat struct {
	Count         int64   `json:"count" bson:"count"`
	AverageSalary float64 `json:"average_salary" bson:"avg_salary"`
	AverageRating float64 `json:"average_rating" bson:"avg_rating"`
}

type DocumentTypeStat struct {
	Total    int64 `json:"total" bson:"total"`
	Verified int64 `json:"verified" bson:"verified"`
}

type SalaryStats struct {
	Average float64 `json:"average" bson:"avg"`
	Min     float64 `json:"min" bson:"min"`
	Max     float64 `json:"max" bson:"max"`
	Count   int64   `json:"count" bson:"count"`
}

type ActivityItem struct {
	UserID    bson.ObjectID `json:"user_id" bson:"_id"`
	FullName  string        `json:"full_name" bson:"full_name"`
	Email     string        `json:"email" bson:"email"`
	Role      UserRole      `json:"role" bson:"role"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

type PendingDocument struct {
	UserID      bson.ObjectID   `json:"user_id" bson:"user_id"`
	FullName    string          `json:"full_name" bson:"full_name"`
	Email       string          `json:"email" bson:"email"`
	StudentCode string          `json:"student_code,omitempty" bson:"student_code,omitempty"`
	Document    MarksheetRecord `json:"document" bson:"document"`
}

type OverviewReport struct {
	RoleCounts          map[string]int64 `json:"role_counts"`
	TotalStudents       int64            `json:"total_students"`
	ActiveStudents      int64            `json:"active_students"`
	RecentRegistrations int64            `json:"recent_registrations"`
	PlacedStudents      int64            `json:"placed_students"`
	PlacementRate       float64          `json:"placement_rate"`
	RecentActivity      []ActivityItem   `json:"recent_activity"`
}

type DocumentReport struct {
	Total             int64                       `json:"total"`
	Verified          int64                       `json:"verified"`
	Pending           int64                       `json:"pending"`
	VerificationRate  float64                     `json:"verification_rate"`
	ByType            map[string]DocumentTypeStat `json:"by_type"`
	VerificationTrend []TrendPoint                `json:"verification_trend"`
	PendingDocuments  []PendingDocument           `json:"pending_documents,omitempty"`
}

type GrowthReport struct {
	TotalRecords     int64                      `json:"total_records"`
	ByEmploymentType map[string]GrowthGroupStat `json:"by_employment_type"`
	TopCompanies     []CompanyStat              `json:"top_companies"`
	TopSkills        []SkillStat                `json:"top_skills"`
	SubmissionTrend  []TrendPoint               `json:"submission_trend"`
}

type PlacementReport struct {
	TotalStudents     int64            `json:"total_students"`
	PlacedStudents    int64            `json:"placed_students"`
	PlacementRate     float64          `json:"placement_rate"`
	Breakdown         map[string]int64 `json:"breakdown"`
	RegistrationTrend []TrendPoint     `json:"registration_trend"`
	PlacementTrend    []TrendPoint     `json:"placement_trend"`
	TopCompanies      []CompanyStat    `json:"top_companies"`
	Salary            SalaryStats      `json:"salary"`
}

// AnalyticsReport wraps one report type with the window it was computed for.
type AnalyticsReport struct {
	Type        AnalyticsType    `json:"type"`
	TimeFrame   int              `json:"time_frame"`
	Interval    TrendInterval    `json:"interval"`
	MentorID    *bson.ObjectID   `json:"mentor_id,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Overview    *OverviewReport  `json:"overview,omitempty"`
	Documents   *DocumentReport  `json:"documents,omitempty"`
	Growth      *GrowthReport    `json:"growth,omitempty"`
	Placement   *PlacementReport `json:"placement,omitempty"`
}

// Progress summarises how much of the onboarding a student has completed.
type Progress struct {
	Registration       bool    `json:"registration"`
	ProfessionalGrowth bool    `json:"professional_growth"`
	Marksheets         bool    `json:"marksheets"`
	VerifiedMarksheets int     `json:"verified_marksheets"`
	TotalMarksheets    int     `json:"total_marksheets"`
	GrowthRecords      int     `json:"growth_records"`
	CompletionPercent  float64 `json:"completion_percent"`
}

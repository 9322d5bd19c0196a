package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditUserCreated      AuditEventType = "user_created"
	AuditUserUpdated      AuditEventType = "user_updated"
	AuditUserDeleted      AuditEventType = "user_deleted"
	AuditStatusChanged    AuditEventType = "status_changed"
	AuditMentorAssigned   AuditEventType = "mentor_assigned"
	AuditDocumentVerified AuditEventType = "document_verified"
	AuditMentorNoteAdded  AuditEventType = "mentor_note_added"
	AuditIdentitySynced   AuditEventType = "identity_synced"
	AuditRosterExported   AuditEventType = "roster_exported"
)

// AuditLog is stored in Postgres. User ids are Mongo hex ids.
type AuditLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventType AuditEventType `json:"event_type" gorm:"not null;index;size:50"`

	// Actor information
	ActorID    string   `json:"actor_id" gorm:"size:24;index"`
	ActorEmail string   `json:"actor_email" gorm:"size:255"`
	ActorRole  UserRole `json:"actor_role" gorm:"size:20"`

	// Target information
	TargetType string `json:"target_type" gorm:"size:50;index"` // user, marksheet
	TargetID   string `json:"target_id" gorm:"size:24;index"`

	Description string         `json:"description" gorm:"not null;type:text"`
	Changes     datatypes.JSON `json:"changes,omitempty" gorm:"type:jsonb"`
	Metadata    datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	IPAddress string  `json:"ip_address,omitempty" gorm:"size:45"`
	UserAgent string  `json:"user_agent,omitempty" gorm:"type:text"`
	RequestID *string `json:"request_id,omitempty" gorm:"size:64"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditFilter struct {
	TargetID  string         `form:"target_id"`
	ActorID   string         `form:"actor_id"`
	EventType AuditEventType `form:"event_type"`
	Page      int            `form:"page"`
	Limit     int            `form:"limit"`
}

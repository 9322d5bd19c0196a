package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the portal emits
type EventType string

const (
	// Identity events
	EventUserSynced  EventType = "user.synced"
	EventUserDeleted EventType = "user.deleted"

	// Student events
	EventStudentRegistered EventType = "student.registered"
	EventGrowthSubmitted   EventType = "growth.submitted"
	EventDocumentUploaded  EventType = "document.uploaded"
	EventDocumentVerified  EventType = "document.verified"

	// Relationship events
	EventMentorAssigned EventType = "mentor.assigned"
)

const (
	DefaultSource = "student-portal-service"
	EventVersion  = "1.0"
)

// DomainEvent is the envelope written to the topic for every event
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type UserSyncedEvent struct {
	UserID     string `json:"user_id"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Created    bool   `json:"created"`
}

type UserDeletedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	DeletedBy string `json:"deleted_by"`
}

type StudentRegisteredEvent struct {
	UserID      string `json:"user_id"`
	StudentCode string `json:"student_code"`
	Email       string `json:"email"`
	Created     bool   `json:"created"`
}

type GrowthSubmittedEvent struct {
	UserID   string `json:"user_id"`
	RecordID string `json:"record_id"`
	Company  string `json:"company,omitempty"`
}

type DocumentUploadedEvent struct {
	UserID       string `json:"user_id"`
	RecordID     string `json:"record_id"`
	DocumentType string `json:"document_type"`
}

type DocumentVerifiedEvent struct {
	UserID     string  `json:"user_id"`
	RecordID   string  `json:"record_id"`
	Verified   bool    `json:"verified"`
	Feedback   *string `json:"feedback,omitempty"`
	VerifiedBy string  `json:"verified_by"`
}

type MentorAssignedEvent struct {
	StudentID string `json:"student_id"`
	MentorID  string `json:"mentor_id"`
}

// NewDomainEvent builds an event envelope with a fresh id
func NewDomainEvent(eventType EventType, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    DefaultSource,
		Version:   EventVersion,
		Data:      data,
	}
}

// WithMetadata attaches a metadata entry and returns the event
func (e *DomainEvent) WithMetadata(key string, value interface{}) *DomainEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// GenerateEventID returns a random event id
func GenerateEventID() string {
	return uuid.NewString()
}

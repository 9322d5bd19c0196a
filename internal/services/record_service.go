package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RecordService manages the professional growth and marksheet records embedded
// in a user. Students may only touch their own records; userID is ignored for
// them. Admins must name the user. Mentors read and verify the records of their
// assigned students and change nothing else.
type RecordService interface {
	// Professional growth
	AddGrowth(ctx context.Context, actor *Actor, req *models.CreateGrowthRecordRequest) (*models.ProfessionalGrowthRecord, error)
	UpdateGrowth(ctx context.Context, actor *Actor, userID, recordID string, in *models.GrowthRecordInput) (*models.ProfessionalGrowthRecord, error)
	DeleteGrowth(ctx context.Context, actor *Actor, userID, recordID string) error
	ListGrowth(ctx context.Context, actor *Actor, userID string, opts models.ListOptions) ([]models.UserGrowthRecords, int64, error)

	// Marksheets
	AddMarksheet(ctx context.Context, actor *Actor, req *models.CreateMarksheetRequest) (*models.MarksheetRecord, error)
	UpdateMarksheet(ctx context.Context, actor *Actor, userID, recordID string, patch *models.MarksheetPatch) (*models.MarksheetRecord, error)
	SetVerified(ctx context.Context, actor *Actor, userID, recordID string, verified bool, feedback *string) (*models.MarksheetRecord, error)
	DeleteMarksheet(ctx context.Context, actor *Actor, userID, recordID string) error
	ListDocuments(ctx context.Context, actor *Actor, query DocumentQuery, opts models.ListOptions) ([]models.UserDocuments, int64, error)

	// Mentor notes
	AddMentorNote(ctx context.Context, actor *Actor, studentID string, req *models.CreateMentorNoteRequest) (*models.MentorNote, error)
}

// DocumentQuery filters document listings. UserID is a hex id.
type DocumentQuery struct {
	UserID       string `form:"userId"`
	DocumentType string `form:"documentType"`
	Verified     *bool  `form:"verified"`
}

type recordService struct {
	repo      repositories.Repository
	validator *validator.Validator
	audit     AuditService
	events    eventEmitter
	logger    *ServiceLogger
	now       func() time.Time
}

func NewRecordService(
	repo repositories.Repository,
	validator *validator.Validator,
	audit AuditService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) RecordService {
	sl := NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "records"})
	return &recordService{
		repo:      repo,
		validator: validator,
		audit:     audit,
		events:    newEventEmitter(publisher, sl.Logger()),
		logger:    sl,
		now:       time.Now,
	}
}

// targetUser resolves whose records are being touched.
func (s *recordService) targetUser(actor *Actor, userID, action string) (bson.ObjectID, error) {
	if actor == nil {
		return bson.NilObjectID, ErrUnauthorized
	}
	if !actor.IsStaff() {
		if userID != "" && userID != actor.IDString() {
			return bson.NilObjectID, NewPermissionError(actor.IDString(), userID, "record", action, "students can only access their own records")
		}
		return actor.ID, nil
	}
	if userID == "" {
		return bson.NilObjectID, ValidationErrors{*NewValidationError("user_id", "is required", nil)}
	}
	return ParseID("user_id", userID)
}

// ownerTarget resolves the user for a record change. Only the owner or an
// admin may change records.
func (s *recordService) ownerTarget(actor *Actor, userID, action string) (bson.ObjectID, error) {
	if actor.Is(models.RoleMentor) {
		return bson.NilObjectID, NewPermissionError(actor.IDString(), userID, "record", action, "mentors can only verify documents")
	}
	return s.targetUser(actor, userID, action)
}

// reviewTarget resolves the user for a read or a verification. Mentors are
// held to their assigned students.
func (s *recordService) reviewTarget(ctx context.Context, actor *Actor, userID, action string) (bson.ObjectID, error) {
	uid, err := s.targetUser(actor, userID, action)
	if err != nil {
		return bson.NilObjectID, err
	}
	if !actor.Is(models.RoleMentor) {
		return uid, nil
	}
	assigned, err := s.assignedStudents(ctx, actor)
	if err != nil {
		return bson.NilObjectID, err
	}
	if !slices.Contains(assigned, uid) {
		return bson.NilObjectID, NewPermissionError(actor.IDString(), userID, "record", action, "student is not assigned to this mentor")
	}
	return uid, nil
}

// assignedStudents reads the mentor's current roster from the store.
func (s *recordService) assignedStudents(ctx context.Context, actor *Actor) ([]bson.ObjectID, error) {
	mentor, err := s.repo.Users().FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := mentor.AssignedStudentIDs()
	if ids == nil {
		ids = []bson.ObjectID{}
	}
	return ids, nil
}

// ===== PROFESSIONAL GROWTH =====

func (s *recordService) AddGrowth(ctx context.Context, actor *Actor, req *models.CreateGrowthRecordRequest) (record *models.ProfessionalGrowthRecord, err error) {
	op := s.logger.WithOperation(ctx, "add_growth_record", actor)
	defer func() { op.LogResult(growthIDString(record), "growth_record", err) }()

	userID, err := s.ownerTarget(actor, req.UserID, "create")
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	rec := req.ToRecord(s.now().UTC())
	user, err := s.repo.Records().AppendGrowth(ctx, userID, rec)
	if err != nil {
		return nil, err
	}
	record = findGrowthRecord(user, rec.ID)
	if record == nil {
		record = &rec
	}

	company := record.CompanyName
	if company == "" {
		company = record.CurrentOrganization
	}
	s.events.emit(ctx, events.EventGrowthSubmitted, events.GrowthSubmittedEvent{
		UserID:   userID.Hex(),
		RecordID: rec.ID.Hex(),
		Company:  company,
	}, actor)
	return record, nil
}

func (s *recordService) UpdateGrowth(ctx context.Context, actor *Actor, userID, recordID string, in *models.GrowthRecordInput) (record *models.ProfessionalGrowthRecord, err error) {
	op := s.logger.WithOperation(ctx, "update_growth_record", actor)
	defer func() { op.LogResult(recordID, "growth_record", err) }()

	uid, err := s.ownerTarget(actor, userID, "update")
	if err != nil {
		return nil, err
	}
	rid, err := ParseID("id", recordID)
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(in); err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return nil, ValidationErrors{*NewValidationError("body", "at least one field must be supplied", nil)}
	}

	return s.repo.Records().UpdateGrowth(ctx, uid, rid, in)
}

func (s *recordService) DeleteGrowth(ctx context.Context, actor *Actor, userID, recordID string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_growth_record", actor)
	defer func() { op.LogResult(recordID, "growth_record", err) }()

	uid, err := s.ownerTarget(actor, userID, "delete")
	if err != nil {
		return err
	}
	rid, err := ParseID("id", recordID)
	if err != nil {
		return err
	}
	return s.repo.Records().DeleteGrowth(ctx, uid, rid)
}

// ListGrowth returns one user's records, or a page of users that have any.
func (s *recordService) ListGrowth(ctx context.Context, actor *Actor, userID string, opts models.ListOptions) ([]models.UserGrowthRecords, int64, error) {
	users, total, err := s.usersWithRecords(ctx, actor, userID, models.UserFilter{HasGrowth: true}, opts)
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.UserGrowthRecords, 0, len(users))
	for _, u := range users {
		records := u.ProfessionalGrowth
		if records == nil {
			records = []models.ProfessionalGrowthRecord{}
		}
		out = append(out, models.UserGrowthRecords{
			UserID:      u.ID,
			FullName:    u.FullName,
			Email:       u.Email,
			StudentCode: u.StudentCode(),
			Records:     records,
		})
	}
	return out, total, nil
}

// ===== MARKSHEETS =====

func (s *recordService) AddMarksheet(ctx context.Context, actor *Actor, req *models.CreateMarksheetRequest) (record *models.MarksheetRecord, err error) {
	op := s.logger.WithOperation(ctx, "add_marksheet", actor)
	defer func() { op.LogResult(marksheetIDString(record), "marksheet", err) }()

	userID, err := s.ownerTarget(actor, req.UserID, "create")
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	rec := req.ToRecord(s.now().UTC())
	user, err := s.repo.Records().AppendMarksheet(ctx, userID, rec)
	if err != nil {
		return nil, err
	}
	record = findMarksheetRecord(user, rec.ID)
	if record == nil {
		record = &rec
	}

	s.events.emit(ctx, events.EventDocumentUploaded, events.DocumentUploadedEvent{
		UserID:       userID.Hex(),
		RecordID:     rec.ID.Hex(),
		DocumentType: string(rec.DocumentType),
	}, actor)
	return record, nil
}

// UpdateMarksheet applies field changes and, for mentors and admins, a
// verification toggle in the same call. Students may not send verified or
// feedback; mentors may send nothing else.
func (s *recordService) UpdateMarksheet(ctx context.Context, actor *Actor, userID, recordID string, patch *models.MarksheetPatch) (record *models.MarksheetRecord, err error) {
	op := s.logger.WithOperation(ctx, "update_marksheet", actor)
	defer func() { op.LogResult(recordID, "marksheet", err) }()

	if actor == nil {
		return nil, ErrUnauthorized
	}
	rid, err := ParseID("id", recordID)
	if err != nil {
		return nil, err
	}
	if err = s.validator.Validate(patch); err != nil {
		return nil, err
	}

	verifying := patch.Verified != nil || patch.Feedback != nil
	changing := patch.HasFieldChanges()
	if verifying && !actor.IsStaff() {
		return nil, NewPermissionError(actor.IDString(), recordID, "marksheet", "verify", "only mentors and admins can verify documents")
	}
	if !verifying && !changing {
		return nil, ValidationErrors{*NewValidationError("body", "at least one field must be supplied", nil)}
	}

	var uid bson.ObjectID
	if changing {
		uid, err = s.ownerTarget(actor, userID, "update")
	} else {
		uid, err = s.reviewTarget(ctx, actor, userID, "verify")
	}
	if err != nil {
		return nil, err
	}

	if changing {
		record, err = s.repo.Records().UpdateMarksheet(ctx, uid, rid, patch)
		if err != nil {
			return nil, err
		}
	}
	if !verifying {
		return record, nil
	}

	verified := record != nil && record.Verified
	if patch.Verified != nil {
		verified = *patch.Verified
	} else if record == nil {
		// Feedback alone keeps the current verification state.
		user, findErr := s.repo.Users().FindByID(ctx, uid)
		if findErr != nil {
			return nil, findErr
		}
		current := findMarksheetRecord(user, rid)
		if current == nil {
			return nil, ErrRecordNotFound
		}
		verified = current.Verified
	}
	return s.setVerified(ctx, actor, uid, rid, verified, patch.Feedback)
}

func (s *recordService) SetVerified(ctx context.Context, actor *Actor, userID, recordID string, verified bool, feedback *string) (record *models.MarksheetRecord, err error) {
	op := s.logger.WithOperation(ctx, "verify_marksheet", actor)
	defer func() { op.LogResult(recordID, "marksheet", err) }()

	if err = authorize(actor, "marksheet", "verify", models.RoleMentor, models.RoleAdmin); err != nil {
		return nil, err
	}
	uid, err := s.reviewTarget(ctx, actor, userID, "verify")
	if err != nil {
		return nil, err
	}
	rid, err := ParseID("id", recordID)
	if err != nil {
		return nil, err
	}
	return s.setVerified(ctx, actor, uid, rid, verified, feedback)
}

func (s *recordService) setVerified(ctx context.Context, actor *Actor, userID, recordID bson.ObjectID, verified bool, feedback *string) (*models.MarksheetRecord, error) {
	reviewer := actor.ID
	record, err := s.repo.Records().SetMarksheetVerified(ctx, userID, recordID, models.VerificationUpdate{
		Verified:   verified,
		Feedback:   feedback,
		VerifiedBy: &reviewer,
		At:         s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditDocumentVerified,
		TargetType:  "marksheet",
		TargetID:    recordID.Hex(),
		Description: fmt.Sprintf("marksheet of %s marked verified=%t", userID.Hex(), verified),
		Changes:     map[string]interface{}{"verified": verified, "feedback": feedback},
		Metadata:    map[string]interface{}{"user_id": userID.Hex()},
	})
	s.events.emit(ctx, events.EventDocumentVerified, events.DocumentVerifiedEvent{
		UserID:     userID.Hex(),
		RecordID:   recordID.Hex(),
		Verified:   verified,
		Feedback:   feedback,
		VerifiedBy: actor.IDString(),
	}, actor)
	return record, nil
}

func (s *recordService) DeleteMarksheet(ctx context.Context, actor *Actor, userID, recordID string) (err error) {
	op := s.logger.WithOperation(ctx, "delete_marksheet", actor)
	defer func() { op.LogResult(recordID, "marksheet", err) }()

	uid, err := s.ownerTarget(actor, userID, "delete")
	if err != nil {
		return err
	}
	rid, err := ParseID("id", recordID)
	if err != nil {
		return err
	}
	return s.repo.Records().DeleteMarksheet(ctx, uid, rid)
}

func (s *recordService) ListDocuments(ctx context.Context, actor *Actor, query DocumentQuery, opts models.ListOptions) ([]models.UserDocuments, int64, error) {
	filter := models.DocumentFilter{Verified: query.Verified}
	if query.DocumentType != "" {
		dt := models.DocumentType(query.DocumentType)
		filter.DocumentType = &dt
	}

	listFilter := models.UserFilter{HasMarksheets: true}
	if filter.DocumentType != nil || filter.Verified != nil {
		listFilter.Marksheet = &filter
	}
	users, total, err := s.usersWithRecords(ctx, actor, query.UserID, listFilter, opts)
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.UserDocuments, 0, len(users))
	for _, u := range users {
		docs := []models.MarksheetRecord{}
		for _, m := range u.Marksheets {
			if filter.Matches(m) {
				docs = append(docs, m)
			}
		}
		out = append(out, models.UserDocuments{
			UserID:      u.ID,
			FullName:    u.FullName,
			Email:       u.Email,
			StudentCode: u.StudentCode(),
			Documents:   docs,
		})
	}
	return out, total, nil
}

// usersWithRecords loads a single user when one is named (always the actor for
// students) and otherwise a page of users matching filter. Mentors only see
// their assigned students.
func (s *recordService) usersWithRecords(ctx context.Context, actor *Actor, userID string, filter models.UserFilter, opts models.ListOptions) ([]*models.User, int64, error) {
	if actor == nil {
		return nil, 0, ErrUnauthorized
	}
	if !actor.IsStaff() || userID != "" {
		uid, err := s.reviewTarget(ctx, actor, userID, "list")
		if err != nil {
			return nil, 0, err
		}
		user, err := s.repo.Users().FindByID(ctx, uid)
		if err != nil {
			return nil, 0, err
		}
		return []*models.User{user}, 1, nil
	}

	if actor.Is(models.RoleMentor) {
		assigned, err := s.assignedStudents(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		filter.IDs = assigned
	}
	page, err := s.repo.Users().List(ctx, filter, opts.Normalize())
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

// ===== MENTOR NOTES =====

// AddMentorNote appends a note to an assigned student. Only mentors write notes.
func (s *recordService) AddMentorNote(ctx context.Context, actor *Actor, studentID string, req *models.CreateMentorNoteRequest) (note *models.MentorNote, err error) {
	op := s.logger.WithOperation(ctx, "add_mentor_note", actor)
	defer func() { op.LogResult(studentID, "mentor_note", err) }()

	if err = authorize(actor, "mentor_note", "create", models.RoleMentor); err != nil {
		return nil, err
	}
	req.Note = strings.TrimSpace(req.Note)
	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if studentID == "" {
		return nil, ValidationErrors{*NewValidationError("id", "is required", nil)}
	}
	uid, err := s.reviewTarget(ctx, actor, studentID, "note")
	if err != nil {
		return nil, err
	}

	rec := models.MentorNote{
		ID:        bson.NewObjectID(),
		Note:      req.Note,
		CreatedBy: actor.ID,
		CreatedAt: s.now().UTC(),
	}
	if _, err = s.repo.Records().AppendMentorNote(ctx, uid, rec); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditMentorNoteAdded,
		TargetType:  "user",
		TargetID:    uid.Hex(),
		Description: "mentor note added",
		Metadata:    map[string]interface{}{"note_id": rec.ID.Hex()},
	})
	return &rec, nil
}

func findGrowthRecord(user *models.User, id bson.ObjectID) *models.ProfessionalGrowthRecord {
	if user == nil {
		return nil
	}
	for i := range user.ProfessionalGrowth {
		if user.ProfessionalGrowth[i].ID == id {
			return &user.ProfessionalGrowth[i]
		}
	}
	return nil
}

func findMarksheetRecord(user *models.User, id bson.ObjectID) *models.MarksheetRecord {
	if user == nil {
		return nil
	}
	for i := range user.Marksheets {
		if user.Marksheets[i].ID == id {
			return &user.Marksheets[i]
		}
	}
	return nil
}

func growthIDString(r *models.ProfessionalGrowthRecord) string {
	if r == nil {
		return ""
	}
	return r.ID.Hex()
}

func marksheetIDString(r *models.MarksheetRecord) string {
	if r == nil {
		return ""
	}
	return r.ID.Hex()
}

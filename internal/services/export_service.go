package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	rosterSheet    = "Students"
	exportPageSize = models.MaxPageSize
)

var rosterHeaders = []string{
	"Student Code", "Full Name", "Email", "Status", "Placement Status",
	"Assigned Mentor", "Marksheets", "Verified Marksheets", "Growth Records",
}

// ExportService renders the student roster as an XLSX workbook.
type ExportService interface {
	ExportRoster(ctx context.Context, actor *Actor, filter models.UserFilter) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	audit  AuditService
	logger *ServiceLogger
}

func NewExportService(repo repositories.Repository, audit AuditService, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		audit:  audit,
		logger: NewServiceLogger(logger, LogConfig{Service: "student-portal", Component: "export"}),
	}
}

func (s *exportService) ExportRoster(ctx context.Context, actor *Actor, filter models.UserFilter) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_roster", actor)
	defer func() { op.LogResult("", "user", err) }()

	if err = authorize(actor, "user", "export", models.RoleAdmin); err != nil {
		return nil, err
	}
	student := models.RoleStudent
	filter.Role = &student

	students, err := s.collectStudents(ctx, filter)
	if err != nil {
		return nil, err
	}
	mentors, err := s.mentorNames(ctx, students)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err = f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err = f.SetSheetRow(rosterSheet, "A1", &rosterHeaders); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for i, u := range students {
		row := rosterRow(u, mentors)
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return nil, cellErr
		}
		if err = f.SetSheetRow(rosterSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.audit.Record(ctx, actor, AuditEntry{
		EventType:   models.AuditRosterExported,
		TargetType:  "user",
		Description: "exported " + strconv.Itoa(len(students)) + " students",
	})
	return buf.Bytes(), nil
}

func (s *exportService) collectStudents(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	var out []*models.User
	opts := models.ListOptions{Page: 1, PageSize: exportPageSize, SortBy: "created_at", SortOrder: "asc"}
	for {
		page, err := s.repo.Users().List(ctx, filter, opts.Normalize())
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < opts.PageSize || int64(len(out)) >= page.Total {
			return out, nil
		}
		opts.Page++
	}
}

func (s *exportService) mentorNames(ctx context.Context, students []*models.User) (map[bson.ObjectID]string, error) {
	seen := map[bson.ObjectID]struct{}{}
	var ids []bson.ObjectID
	for _, u := range students {
		if u.Student == nil || u.Student.AssignedMentor == nil {
			continue
		}
		id := *u.Student.AssignedMentor
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	names := make(map[bson.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	mentors, err := s.repo.Users().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range mentors {
		name := m.FullName
		if name == "" {
			name = m.Email
		}
		names[m.ID] = name
	}
	return names, nil
}

func rosterRow(u *models.User, mentors map[bson.ObjectID]string) []interface{} {
	var placement, mentor string
	if u.Student != nil {
		placement = string(u.Student.PlacementStatus)
		if u.Student.AssignedMentor != nil {
			mentor = mentors[*u.Student.AssignedMentor]
		}
	}
	return []interface{}{
		u.StudentCode(),
		u.FullName,
		u.Email,
		string(u.Status),
		placement,
		mentor,
		len(u.Marksheets),
		u.VerifiedMarksheets(),
		len(u.ProfessionalGrowth),
	}
}

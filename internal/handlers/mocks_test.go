package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== SERVICE MOCKS =====

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Create(ctx context.Context, actor *services.Actor, req *models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, actor *services.Actor, id string) (*models.User, error) {
	args := m.Called(ctx, actor, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor *services.Actor, id string, req *models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, id, req)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserService) UpdateStatus(ctx context.Context, actor *services.Actor, id string, req *models.UpdateStatusRequest) (*models.User, error) {
	args := m.Called(ctx, actor, id, req)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor *services.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockUserService) List(ctx context.Context, actor *services.Actor, filter models.UserFilter, opts models.ListOptions) (*models.UserPage, error) {
	args := m.Called(ctx, actor, filter, opts)
	page, _ := args.Get(0).(*models.UserPage)
	return page, args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, actor *services.Actor) (*models.User, error) {
	args := m.Called(ctx, actor)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserService) Progress(ctx context.Context, actor *services.Actor) (*models.Progress, error) {
	args := m.Called(ctx, actor)
	p, _ := args.Get(0).(*models.Progress)
	return p, args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, actor *services.Actor, req *models.StudentRegistrationRequest) (*models.User, bool, error) {
	args := m.Called(ctx, actor, req)
	return userOrNil(args.Get(0)), args.Bool(1), args.Error(2)
}

type MockRecordService struct{ mock.Mock }

func (m *MockRecordService) AddGrowth(ctx context.Context, actor *services.Actor, req *models.CreateGrowthRecordRequest) (*models.ProfessionalGrowthRecord, error) {
	args := m.Called(ctx, actor, req)
	r, _ := args.Get(0).(*models.ProfessionalGrowthRecord)
	return r, args.Error(1)
}

func (m *MockRecordService) UpdateGrowth(ctx context.Context, actor *services.Actor, userID, recordID string, in *models.GrowthRecordInput) (*models.ProfessionalGrowthRecord, error) {
	args := m.Called(ctx, actor, userID, recordID, in)
	r, _ := args.Get(0).(*models.ProfessionalGrowthRecord)
	return r, args.Error(1)
}

func (m *MockRecordService) DeleteGrowth(ctx context.Context, actor *services.Actor, userID, recordID string) error {
	return m.Called(ctx, actor, userID, recordID).Error(0)
}

func (m *MockRecordService) ListGrowth(ctx context.Context, actor *services.Actor, userID string, opts models.ListOptions) ([]models.UserGrowthRecords, int64, error) {
	args := m.Called(ctx, actor, userID, opts)
	out, _ := args.Get(0).([]models.UserGrowthRecords)
	return out, args.Get(1).(int64), args.Error(2)
}

func (m *MockRecordService) AddMarksheet(ctx context.Context, actor *services.Actor, req *models.CreateMarksheetRequest) (*models.MarksheetRecord, error) {
	args := m.Called(ctx, actor, req)
	r, _ := args.Get(0).(*models.MarksheetRecord)
	return r, args.Error(1)
}

func (m *MockRecordService) UpdateMarksheet(ctx context.Context, actor *services.Actor, userID, recordID string, patch *models.MarksheetPatch) (*models.MarksheetRecord, error) {
	args := m.Called(ctx, actor, userID, recordID, patch)
	r, _ := args.Get(0).(*models.MarksheetRecord)
	return r, args.Error(1)
}

func (m *MockRecordService) SetVerified(ctx context.Context, actor *services.Actor, userID, recordID string, verified bool, feedback *string) (*models.MarksheetRecord, error) {
	args := m.Called(ctx, actor, userID, recordID, verified, feedback)
	r, _ := args.Get(0).(*models.MarksheetRecord)
	return r, args.Error(1)
}

func (m *MockRecordService) AddMentorNote(ctx context.Context, actor *services.Actor, studentID string, req *models.CreateMentorNoteRequest) (*models.MentorNote, error) {
	args := m.Called(ctx, actor, studentID, req)
	r, _ := args.Get(0).(*models.MentorNote)
	return r, args.Error(1)
}

func (m *MockRecordService) DeleteMarksheet(ctx context.Context, actor *services.Actor, userID, recordID string) error {
	return m.Called(ctx, actor, userID, recordID).Error(0)
}

func (m *MockRecordService) ListDocuments(ctx context.Context, actor *services.Actor, query services.DocumentQuery, opts models.ListOptions) ([]models.UserDocuments, int64, error) {
	args := m.Called(ctx, actor, query, opts)
	out, _ := args.Get(0).([]models.UserDocuments)
	return out, args.Get(1).(int64), args.Error(2)
}

type MockAssignmentService struct{ mock.Mock }

func (m *MockAssignmentService) AssignMentor(ctx context.Context, actor *services.Actor, req *models.AssignMentorRequest) (*services.AssignmentResult, error) {
	args := m.Called(ctx, actor, req)
	r, _ := args.Get(0).(*services.AssignmentResult)
	return r, args.Error(1)
}

type MockIdentityService struct{ mock.Mock }

func (m *MockIdentityService) Reconcile(ctx context.Context, identity auth.Identity) (*models.User, bool, error) {
	args := m.Called(ctx, identity)
	return userOrNil(args.Get(0)), args.Bool(1), args.Error(2)
}

func (m *MockIdentityService) Resolve(ctx context.Context, identity auth.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	return userOrNil(args.Get(0)), args.Error(1)
}

type MockAuditService struct{ mock.Mock }

func (m *MockAuditService) Record(ctx context.Context, actor *services.Actor, entry services.AuditEntry) {
	m.Called(ctx, actor, entry)
}

func (m *MockAuditService) List(ctx context.Context, actor *services.Actor, filter models.AuditFilter) ([]*models.AuditLog, int64, error) {
	args := m.Called(ctx, actor, filter)
	logs, _ := args.Get(0).([]*models.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

func userOrNil(v interface{}) *models.User {
	u, _ := v.(*models.User)
	return u
}

// ===== HELPERS =====

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newActor(role models.UserRole) *services.Actor {
	return &services.Actor{ID: bson.NewObjectID(), Email: string(role) + "@example.com", Role: role}
}

// newActorRouter returns an engine that injects actor before every handler.
func newActorRouter(actor *services.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			SetActor(c, actor)
		}
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    json.RawMessage `json:"details"`
	Pagination *Pagination     `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func setupMeRouter(actor *services.Actor, users *MockUserService, records *MockRecordService) *gin.Engine {
	h := NewMeHandler(users, records, testLogger())
	r := newActorRouter(actor)
	r.GET("/me", h.GetMe)
	r.GET("/me/progress", h.GetProgress)
	r.POST("/students/registration", h.Register)
	r.POST("/me/growth-records", h.AddMyGrowthRecord)
	r.POST("/me/documents", h.AddMyDocument)
	return r
}

func registrationBody() map[string]interface{} {
	return map[string]interface{}{
		"full_name":     "Ann Lee",
		"phone":         "0123456789",
		"gender":        "female",
		"date_of_birth": "2001-02-03T00:00:00Z",
	}
}

func TestRegisterFirstTimeReturnsCreated(t *testing.T) {
	student := newActor(models.RoleStudent)
	users := new(MockUserService)
	code := "STU-2025-0001"
	users.On("Register", mock.Anything, student, mock.Anything).Return(&models.User{
		ID:      student.ID,
		Role:    models.RoleStudent,
		Student: &models.StudentProfile{StudentCode: &code},
	}, true, nil)

	r := setupMeRouter(student, users, new(MockRecordService))
	w := doJSON(t, r, http.MethodPost, "/students/registration", registrationBody())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Registration completed", decode(t, w).Message)
}

func TestRegisterAgainReturnsOK(t *testing.T) {
	student := newActor(models.RoleStudent)
	users := new(MockUserService)
	users.On("Register", mock.Anything, student, mock.Anything).Return(&models.User{ID: student.ID}, false, nil)

	r := setupMeRouter(student, users, new(MockRecordService))
	w := doJSON(t, r, http.MethodPost, "/students/registration", registrationBody())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Registration updated", decode(t, w).Message)
}

func TestGetProgress(t *testing.T) {
	student := newActor(models.RoleStudent)
	users := new(MockUserService)
	users.On("Progress", mock.Anything, student).Return(&models.Progress{Registration: true, CompletionPercent: 33}, nil)

	r := setupMeRouter(student, users, new(MockRecordService))
	w := doJSON(t, r, http.MethodGet, "/me/progress", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"completion_percent":33`)
}

func TestAddMyRecordsTargetSelf(t *testing.T) {
	student := newActor(models.RoleStudent)
	records := new(MockRecordService)
	records.On("AddGrowth", mock.Anything, student, mock.MatchedBy(func(req *models.CreateGrowthRecordRequest) bool {
		return req.UserID == student.IDString()
	})).Return(&models.ProfessionalGrowthRecord{ID: bson.NewObjectID()}, nil)
	records.On("AddMarksheet", mock.Anything, student, mock.MatchedBy(func(req *models.CreateMarksheetRequest) bool {
		return req.UserID == student.IDString()
	})).Return(&models.MarksheetRecord{ID: bson.NewObjectID()}, nil)

	r := setupMeRouter(student, new(MockUserService), records)
	other := bson.NewObjectID().Hex()

	w := doJSON(t, r, http.MethodPost, "/me/growth-records", map[string]string{"user_id": other, "career_goals": "ship"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/me/documents", map[string]string{
		"user_id":       other,
		"document_type": "semester",
		"file_url":      "https://files.example.com/a.pdf",
		"file_name":     "a.pdf",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	records.AssertExpectations(t)
}

package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// MeHandler serves the caller's own profile, progress and records.
type MeHandler struct {
	BaseHandler
	userService   services.UserService
	recordService services.RecordService
}

func NewMeHandler(userService services.UserService, recordService services.RecordService, logger utils.Logger) *MeHandler {
	return &MeHandler{
		BaseHandler:   NewBaseHandler(logger),
		userService:   userService,
		recordService: recordService,
	}
}

// GetMe returns the stored user behind the session
// @Summary Current user
// @Tags me
// @Produce json
// @Success 200 {object} Response{data=models.User}
// @Router /me [get]
func (h *MeHandler) GetMe(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	user, err := h.userService.Me(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "", user)
}

// GetProgress reports registration, growth and marksheet completion
// @Summary Onboarding progress
// @Tags me
// @Produce json
// @Success 200 {object} Response{data=models.Progress}
// @Router /me/progress [get]
func (h *MeHandler) GetProgress(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	progress, err := h.userService.Progress(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "", progress)
}

// Register fills in the caller's student profile
// @Summary Student registration
// @Tags me
// @Accept json
// @Produce json
// @Param registration body models.StudentRegistrationRequest true "Registration form"
// @Success 201 {object} Response{data=models.User}
// @Success 200 {object} Response{data=models.User}
// @Router /students/registration [post]
func (h *MeHandler) Register(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.StudentRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	user, created, err := h.userService.Register(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if created {
		h.LogInfo(c, "Student registered", "student_code", user.StudentCode())
		h.respondSuccess(c, http.StatusCreated, "Registration completed", user)
		return
	}
	h.respondSuccess(c, http.StatusOK, "Registration updated", user)
}

// AddMyGrowthRecord appends a growth record to the caller
// @Summary Add own growth record
// @Tags me
// @Accept json
// @Produce json
// @Param record body models.GrowthRecordInput true "Growth record"
// @Success 201 {object} Response{data=models.ProfessionalGrowthRecord}
// @Router /me/growth-records [post]
func (h *MeHandler) AddMyGrowthRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateGrowthRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}
	req.UserID = actor.IDString()

	record, err := h.recordService.AddGrowth(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusCreated, "Growth record added", record)
}

// AddMyDocument appends a marksheet to the caller
// @Summary Add own document
// @Tags me
// @Accept json
// @Produce json
// @Param document body models.CreateMarksheetRequest true "Marksheet"
// @Success 201 {object} Response{data=models.MarksheetRecord}
// @Router /me/documents [post]
func (h *MeHandler) AddMyDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateMarksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}
	req.UserID = actor.IDString()

	record, err := h.recordService.AddMarksheet(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusCreated, "Document added", record)
}

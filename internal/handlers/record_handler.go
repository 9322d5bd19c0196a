package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// RecordHandler serves the embedded growth records and marksheets. Staff name
// the owning user with ?userId= or user_id in the body; students always act on
// themselves.
type RecordHandler struct {
	BaseHandler
	recordService services.RecordService
}

func NewRecordHandler(recordService services.RecordService, logger utils.Logger) *RecordHandler {
	return &RecordHandler{
		BaseHandler:   NewBaseHandler(logger),
		recordService: recordService,
	}
}

type updateGrowthBody struct {
	UserID string `json:"user_id,omitempty"`
	models.GrowthRecordInput
}

type updateDocumentBody struct {
	UserID string `json:"user_id,omitempty"`
	models.MarksheetPatch
}

// ===== PROFESSIONAL GROWTH =====

// ListGrowthRecords lists one user's records or every user with records
// @Summary List growth records
// @Tags growth-records
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {object} Response{data=[]models.UserGrowthRecords}
// @Router /growth-records [get]
func (h *RecordHandler) ListGrowthRecords(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	opts, ok := h.parseListOptions(c)
	if !ok {
		return
	}

	out, total, err := h.recordService.ListGrowth(c.Request.Context(), actor, targetUserID(c, ""), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondPage(c, out, opts, total)
}

// CreateGrowthRecord appends a growth record
// @Summary Add growth record
// @Tags growth-records
// @Accept json
// @Produce json
// @Param record body models.CreateGrowthRecordRequest true "Growth record"
// @Success 201 {object} Response{data=models.ProfessionalGrowthRecord}
// @Router /growth-records [post]
func (h *RecordHandler) CreateGrowthRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateGrowthRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}
	req.UserID = targetUserID(c, req.UserID)

	record, err := h.recordService.AddGrowth(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusCreated, "Growth record added", record)
}

// UpdateGrowthRecord overwrites the supplied fields of a growth record
// @Summary Update growth record
// @Tags growth-records
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Response{data=models.ProfessionalGrowthRecord}
// @Router /growth-records/{id} [put]
func (h *RecordHandler) UpdateGrowthRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	var body updateGrowthBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	record, err := h.recordService.UpdateGrowth(c.Request.Context(), actor, targetUserID(c, body.UserID), recordID, &body.GrowthRecordInput)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "Growth record updated", record)
}

// DeleteGrowthRecord removes a growth record
// @Summary Delete growth record
// @Tags growth-records
// @Param id path string true "Record ID"
// @Success 200 {object} Response
// @Router /growth-records/{id} [delete]
func (h *RecordHandler) DeleteGrowthRecord(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recordService.DeleteGrowth(c.Request.Context(), actor, targetUserID(c, ""), recordID); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "Growth record deleted", nil)
}

// ===== DOCUMENTS =====

// ListDocuments lists marksheets grouped by user
// @Summary List documents
// @Tags documents
// @Produce json
// @Param userId query string false "User ID"
// @Param documentType query string false "Document type"
// @Param verified query bool false "Verification state"
// @Success 200 {object} Response{data=[]models.UserDocuments}
// @Router /documents [get]
func (h *RecordHandler) ListDocuments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	opts, ok := h.parseListOptions(c)
	if !ok {
		return
	}
	verified, err := parseBoolQuery(c, "verified")
	if err != nil {
		h.respondBadRequest(c, "Invalid verified parameter", err)
		return
	}

	query := services.DocumentQuery{
		UserID:       targetUserID(c, ""),
		DocumentType: c.Query("documentType"),
		Verified:     verified,
	}
	out, total, err := h.recordService.ListDocuments(c.Request.Context(), actor, query, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondPage(c, out, opts, total)
}

// CreateDocument appends an unverified marksheet
// @Summary Add document
// @Tags documents
// @Accept json
// @Produce json
// @Param document body models.CreateMarksheetRequest true "Marksheet"
// @Success 201 {object} Response{data=models.MarksheetRecord}
// @Router /documents [post]
func (h *RecordHandler) CreateDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateMarksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}
	req.UserID = targetUserID(c, req.UserID)

	record, err := h.recordService.AddMarksheet(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusCreated, "Document added", record)
}

// UpdateDocument edits a marksheet; mentors and admins may also send verified
// and feedback
// @Summary Update document
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Response{data=models.MarksheetRecord}
// @Router /documents/{id} [put]
func (h *RecordHandler) UpdateDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	var body updateDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	record, err := h.recordService.UpdateMarksheet(c.Request.Context(), actor, targetUserID(c, body.UserID), recordID, &body.MarksheetPatch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if body.Verified != nil {
		h.LogInfo(c, "Document verification changed", "record_id", recordID, "verified", *body.Verified)
	}
	h.respondSuccess(c, http.StatusOK, "Document updated", record)
}

// DeleteDocument removes a marksheet
// @Summary Delete document
// @Tags documents
// @Param id path string true "Record ID"
// @Success 200 {object} Response
// @Router /documents/{id} [delete]
func (h *RecordHandler) DeleteDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recordService.DeleteMarksheet(c.Request.Context(), actor, targetUserID(c, ""), recordID); err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "Document deleted", nil)
}

// ===== MENTOR NOTES =====

// AddMentorNote appends a mentor's note to an assigned student
// @Summary Add mentor note
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param note body models.CreateMentorNoteRequest true "Note"
// @Success 201 {object} Response{data=models.MentorNote}
// @Router /users/{id}/notes [post]
func (h *RecordHandler) AddMentorNote(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	studentID, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateMentorNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	note, err := h.recordService.AddMentorNote(c.Request.Context(), actor, studentID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusCreated, "Note added", note)
}

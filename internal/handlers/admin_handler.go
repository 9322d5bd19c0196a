package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AdminHandler serves mentor assignment, analytics and the audit trail.
type AdminHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
	analyticsService  services.AnalyticsService
	auditService      services.AuditService
}

func NewAdminHandler(
	assignmentService services.AssignmentService,
	analyticsService services.AnalyticsService,
	auditService services.AuditService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
		analyticsService:  analyticsService,
		auditService:      auditService,
	}
}

// AssignMentor links a student and a mentor on both sides
// @Summary Assign mentor
// @Tags admin
// @Accept json
// @Produce json
// @Param assignment body models.AssignMentorRequest true "Student and mentor"
// @Success 200 {object} Response{data=services.AssignmentResult}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /admin/assign-mentor [post]
func (h *AdminHandler) AssignMentor(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.AssignMentorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	result, err := h.assignmentService.AssignMentor(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.LogInfo(c, "Mentor assigned", "student_id", req.StudentID, "mentor_id", req.MentorID)
	h.respondSuccess(c, http.StatusOK, "Mentor assigned successfully", result)
}

// GetAnalytics returns the overview, placement, documents or growth report
// @Summary Analytics report
// @Tags analytics
// @Produce json
// @Param type query string false "overview, placement, documents or growth"
// @Param timeFrame query int false "Window in days"
// @Param interval query string false "day or month"
// @Param mentorId query string false "Restrict to a mentor's students (admin only)"
// @Success 200 {object} Response{data=models.AnalyticsReport}
// @Router /analytics [get]
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var query models.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.respondBadRequest(c, "Invalid analytics parameters", err)
		return
	}
	if raw := c.Query("mentorId"); raw != "" {
		mentorID, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			h.respondBadRequest(c, "Invalid mentorId", err)
			return
		}
		query.MentorID = &mentorID
	}

	report, err := h.analyticsService.Report(c.Request.Context(), actor, query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "", report)
}

// ListAuditLogs pages through the audit trail
// @Summary Audit logs
// @Tags admin
// @Produce json
// @Param target_id query string false "Target ID"
// @Param actor_id query string false "Actor ID"
// @Param event_type query string false "Event type"
// @Success 200 {object} Response{data=[]models.AuditLog}
// @Router /audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filter models.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondBadRequest(c, "Invalid filter parameters", err)
		return
	}
	opts := models.ListOptions{Page: filter.Page, PageSize: filter.Limit}.Normalize()
	filter.Page, filter.Limit = opts.Page, opts.PageSize

	logs, total, err := h.auditService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondPage(c, logs, opts, total)
}

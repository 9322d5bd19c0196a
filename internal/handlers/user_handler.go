package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type UserHandler struct {
	BaseHandler
	userService   services.UserService
	exportService services.ExportService
}

func NewUserHandler(userService services.UserService, exportService services.ExportService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:   NewBaseHandler(logger),
		userService:   userService,
		exportService: exportService,
	}
}

// CreateUser creates a student, mentor or admin
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.CreateUserRequest true "User data"
// @Success 201 {object} Response{data=models.User}
// @Failure 400 {object} Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.LogInfo(c, "User created", "target_id", user.ID.Hex(), "role", user.Role)
	h.respondSuccess(c, http.StatusCreated, "User created successfully", user)
}

// ListUsers lists users with search and filters
// @Summary List users
// @Tags users
// @Produce json
// @Param search query string false "Search over name, email, username, student code"
// @Param role query string false "student, mentor or admin"
// @Param status query string false "active, inactive or blocked"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} Response{data=[]models.User}
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filter models.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondBadRequest(c, "Invalid filter parameters", err)
		return
	}
	opts, ok := h.parseListOptions(c)
	if !ok {
		return
	}

	page, err := h.userService.List(c.Request.Context(), actor, filter, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondPage(c, page.Items, opts, page.Total)
}

// GetUser returns a single user
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} Response{data=models.User}
// @Failure 404 {object} Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "", user)
}

// UpdateUser overwrites the supplied fields
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body models.UpdateUserRequest true "Fields to update"
// @Success 200 {object} Response{data=models.User}
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "User updated successfully", user)
}

// UpdateUserStatus sets active, inactive or blocked
// @Summary Update user status
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param status body models.UpdateStatusRequest true "Status"
// @Success 200 {object} Response{data=models.User}
// @Router /users/{id}/status [put]
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "Invalid request payload", err)
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondSuccess(c, http.StatusOK, "User status updated", user)
}

// DeleteUser removes a user
// @Summary Delete user
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} Response
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParseStringIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), actor, id); err != nil {
		h.respondError(c, err)
		return
	}

	h.LogInfo(c, "User deleted", "target_id", id)
	h.respondSuccess(c, http.StatusOK, "User deleted successfully", nil)
}

// ExportUsers downloads the student roster as XLSX
// @Summary Export student roster
// @Tags users
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /users/export [get]
func (h *UserHandler) ExportUsers(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var filter models.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.respondBadRequest(c, "Invalid filter parameters", err)
		return
	}

	data, err := h.exportService.ExportRoster(c.Request.Context(), actor, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("students_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

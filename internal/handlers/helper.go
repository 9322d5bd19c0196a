package handlers

import (
	"strconv"
	"strings"

	"github.com/SAP-F-2025/student-portal-service/internal/models"
	"github.com/gin-gonic/gin"
)

// ParseStringIDParam returns the trimmed path parameter, answering 400 when it
// is empty.
func (h *BaseHandler) ParseStringIDParam(c *gin.Context, param string) (string, bool) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" {
		h.respondBadRequest(c, "Invalid "+param, nil)
		return "", false
	}
	return id, true
}

// parseListOptions reads page, limit, sort_by and sort_order.
func (h *BaseHandler) parseListOptions(c *gin.Context) (models.ListOptions, bool) {
	var opts models.ListOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		h.respondBadRequest(c, "Invalid pagination parameters", err)
		return opts, false
	}
	return opts.Normalize(), true
}

// targetUserID is the user whose embedded records are addressed: the userId
// query parameter first, then the body's user_id.
func targetUserID(c *gin.Context, fromBody string) string {
	if id := strings.TrimSpace(c.Query("userId")); id != "" {
		return id
	}
	return strings.TrimSpace(fromBody)
}

// parseBoolQuery returns nil when the parameter is absent.
func parseBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/services"
)

// AuditLogHandler handles audit log requests
type AuditLogHandler struct {
	auditService services.AuditLogServicer
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(auditService services.AuditLogServicer) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// auditQuery holds the filter query parameters validated by the binding engine.
type auditQuery struct {
	EntityType string `form:"entity_type" binding:"omitempty,entity_type"`
	EntityID   string `form:"entity_id" binding:"omitempty,max=64"`
	UserID     string `form:"user_id" binding:"omitempty,max=64"`
	Action     string `form:"action" binding:"omitempty,audit_action"`
}

// ListAuditLogs lists audit records visible to the caller
// @Summary     List audit logs
// @Description List audit records of the selected lab, or of every lab for the system administrator
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id    header string false "Selected lab"
// @Param       entity_type query  string false "Entity type"
// @Param       entity_id   query  string false "Entity ID"
// @Param       user_id     query  string false "Actor"
// @Param       action      query  string false "Create, Update or Delete"
// @Param       from        query  string false "Start (RFC 3339)"
// @Param       to          query  string false "End (RFC 3339)"
// @Param       page        query  int    false "Page number"
// @Param       page_size   query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated audit logs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /audit-logs [get]
func (h *AuditLogHandler) ListAuditLogs(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	var q auditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	from, err := optionalTime(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := optionalTime(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.AuditLogFilter{
		EntityType: optionalQuery(c, "entity_type"),
		EntityID:   optionalQuery(c, "entity_id"),
		UserID:     optionalQuery(c, "user_id"),
		From:       from,
		To:         to,
	}
	if q.Action != "" {
		action := models.AuditAction(q.Action)
		filter.Action = &action
	}

	logs, err := h.auditService.ListAuditLogs(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

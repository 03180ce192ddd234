package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/services"
)

// MembershipHandler handles lab membership requests
type MembershipHandler struct {
	membershipService services.MembershipServicer
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(membershipService services.MembershipServicer) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// GrantRoleRequest represents the grant role request payload
type GrantRoleRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role" binding:"required,lab_role"`
}

// ListMembers lists the members of the selected lab
// @Summary     List members
// @Tags        memberships
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id  header string true  "Selected lab"
// @Param       page      query  int    false "Page number"
// @Param       page_size query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated memberships"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /members [get]
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	members, err := h.membershipService.ListMembers(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// GrantRole grants or changes a user's role in the selected lab
// @Summary     Grant role
// @Description Add a user to the selected lab or change their role
// @Tags        memberships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string           true "Selected lab"
// @Param       request  body   GrantRoleRequest true "Membership"
// @Success     200 {object} map[string]interface{} "Membership"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /members [put]
func (h *MembershipHandler) GrantRole(c *gin.Context) {
	var req GrantRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidRole)
		return
	}

	membership, err := h.membershipService.GrantRole(c.Request.Context(), req.UserID, role)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": membership})
}

// RevokeMember removes a user from the selected lab
// @Summary     Revoke member
// @Tags        memberships
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       userId   path   string true "User ID"
// @Success     204 "Membership revoked"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Membership not found"
// @Router      /members/{userId} [delete]
func (h *MembershipHandler) RevokeMember(c *gin.Context) {
	if err := h.membershipService.RevokeMember(c.Request.Context(), c.Param("userId")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

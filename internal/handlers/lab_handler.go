package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labtrack/internal/services"
)

// LabHandler handles lab-related requests
type LabHandler struct {
	labService services.LabServicer
}

// NewLabHandler creates a new LabHandler
func NewLabHandler(labService services.LabServicer) *LabHandler {
	return &LabHandler{labService: labService}
}

// CreateLabRequest represents the create lab request payload
type CreateLabRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateLabRequest represents the update lab request payload
type UpdateLabRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// CreateLab handles lab creation
// @Summary     Create lab
// @Description Create a new lab (tenant). System administrator only.
// @Tags        labs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLabRequest true "Lab details"
// @Success     201 {object} map[string]interface{} "Lab created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     409 {object} ErrorResponse "Lab name already in use"
// @Router      /labs [post]
func (h *LabHandler) CreateLab(c *gin.Context) {
	var req CreateLabRequest
	if !bindJSON(c, &req) {
		return
	}

	lab, err := h.labService.CreateLab(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lab": lab})
}

// ListLabs lists the labs visible to the caller
// @Summary     List labs
// @Description List every lab for the system administrator, the selected lab otherwise
// @Tags        labs
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id  header string false "Selected lab"
// @Param       page      query  int    false "Page number"
// @Param       page_size query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated labs"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /labs [get]
func (h *LabHandler) ListLabs(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	labs, err := h.labService.ListLabs(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, labs)
}

// GetCurrentLab returns the selected lab
// @Summary     Get current lab
// @Tags        labs
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Success     200 {object} map[string]interface{} "Lab"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Lab not found"
// @Router      /labs/current [get]
func (h *LabHandler) GetCurrentLab(c *gin.Context) {
	lab, err := h.labService.GetCurrentLab(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lab": lab})
}

// UpdateCurrentLab updates the selected lab
// @Summary     Update current lab
// @Tags        labs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string           true "Selected lab"
// @Param       request  body   UpdateLabRequest true "Fields to update"
// @Success     200 {object} map[string]interface{} "Lab updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     409 {object} ErrorResponse "Lab name already in use"
// @Router      /labs/current [patch]
func (h *LabHandler) UpdateCurrentLab(c *gin.Context) {
	var req UpdateLabRequest
	if !bindJSON(c, &req) {
		return
	}

	lab, err := h.labService.UpdateCurrentLab(c.Request.Context(), services.UpdateLabInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lab": lab})
}

// DeleteLab soft-deletes a lab
// @Summary     Delete lab
// @Description Soft-delete a lab. System administrator only.
// @Tags        labs
// @Security    BearerAuth
// @Param       id path string true "Lab ID"
// @Success     204 "Lab deleted"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Lab not found"
// @Router      /labs/{id} [delete]
func (h *LabHandler) DeleteLab(c *gin.Context) {
	if err := h.labService.DeleteLab(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

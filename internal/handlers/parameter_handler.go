package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labtrack/internal/services"
)

// ParameterHandler handles test parameter catalogue requests
type ParameterHandler struct {
	parameterService services.ParameterServicer
}

// NewParameterHandler creates a new ParameterHandler
func NewParameterHandler(parameterService services.ParameterServicer) *ParameterHandler {
	return &ParameterHandler{parameterService: parameterService}
}

// ParameterRequest represents the create or update parameter payload
type ParameterRequest struct {
	Code     string   `json:"code" binding:"required,record_code"`
	Name     string   `json:"name" binding:"required,min=1,max=120"`
	Unit     string   `json:"unit" binding:"max=32"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
}

func (r ParameterRequest) input() services.ParameterInput {
	return services.ParameterInput{
		Code:     r.Code,
		Name:     r.Name,
		Unit:     r.Unit,
		MinValue: r.MinValue,
		MaxValue: r.MaxValue,
	}
}

// CreateParameter handles parameter creation
// @Summary     Create parameter
// @Tags        parameters
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string           true "Selected lab"
// @Param       request  body   ParameterRequest true "Parameter details"
// @Success     201 {object} map[string]interface{} "Parameter created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     409 {object} ErrorResponse "Parameter code already in use"
// @Router      /parameters [post]
func (h *ParameterHandler) CreateParameter(c *gin.Context) {
	var req ParameterRequest
	if !bindJSON(c, &req) {
		return
	}

	parameter, err := h.parameterService.CreateParameter(c.Request.Context(), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"parameter": parameter})
}

// ListParameters lists the parameters of the selected lab
// @Summary     List parameters
// @Tags        parameters
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id  header string true  "Selected lab"
// @Param       page      query  int    false "Page number"
// @Param       page_size query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated parameters"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /parameters [get]
func (h *ParameterHandler) ListParameters(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	parameters, err := h.parameterService.ListParameters(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, parameters)
}

// GetParameter returns a single parameter
// @Summary     Get parameter
// @Tags        parameters
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Parameter ID"
// @Success     200 {object} map[string]interface{} "Parameter"
// @Failure     404 {object} ErrorResponse "Parameter not found"
// @Router      /parameters/{id} [get]
func (h *ParameterHandler) GetParameter(c *gin.Context) {
	parameter, err := h.parameterService.GetParameter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameter": parameter})
}

// UpdateParameter replaces a parameter definition
// @Summary     Update parameter
// @Tags        parameters
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string           true "Selected lab"
// @Param       id       path   string           true "Parameter ID"
// @Param       request  body   ParameterRequest true "Parameter details"
// @Success     200 {object} map[string]interface{} "Parameter updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Parameter not found"
// @Router      /parameters/{id} [put]
func (h *ParameterHandler) UpdateParameter(c *gin.Context) {
	var req ParameterRequest
	if !bindJSON(c, &req) {
		return
	}

	parameter, err := h.parameterService.UpdateParameter(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameter": parameter})
}

// DeleteParameter soft-deletes a parameter
// @Summary     Delete parameter
// @Tags        parameters
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Parameter ID"
// @Success     204 "Parameter deleted"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Parameter not found"
// @Router      /parameters/{id} [delete]
func (h *ParameterHandler) DeleteParameter(c *gin.Context) {
	if err := h.parameterService.DeleteParameter(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"labtrack/internal/services"
)

// TestResultHandler handles test result requests
type TestResultHandler struct {
	resultService services.TestResultServicer
}

// NewTestResultHandler creates a new TestResultHandler
func NewTestResultHandler(resultService services.TestResultServicer) *TestResultHandler {
	return &TestResultHandler{resultService: resultService}
}

// RecordResultRequest represents the record result payload
type RecordResultRequest struct {
	ParameterID string     `json:"parameter_id" binding:"required,uuid"`
	Value       *float64   `json:"value" binding:"required"`
	MeasuredAt  *time.Time `json:"measured_at"`
	Comment     string     `json:"comment" binding:"max=2000"`
}

// UpdateResultRequest represents the result correction payload
type UpdateResultRequest struct {
	Value   *float64 `json:"value"`
	Comment *string  `json:"comment" binding:"omitempty,max=2000"`
}

// RecordResult records a measurement against a sample
// @Summary     Record result
// @Tags        results
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string              true "Selected lab"
// @Param       id       path   string              true "Sample ID"
// @Param       request  body   RecordResultRequest true "Measurement"
// @Success     201 {object} map[string]interface{} "Result recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Sample or parameter not found"
// @Router      /samples/{id}/results [post]
func (h *TestResultHandler) RecordResult(c *gin.Context) {
	var req RecordResultRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.resultService.RecordResult(c.Request.Context(), c.Param("id"), services.RecordResultInput{
		ParameterID: req.ParameterID,
		Value:       *req.Value,
		MeasuredAt:  req.MeasuredAt,
		Comment:     req.Comment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": result})
}

// ListSampleResults lists the results recorded against a sample
// @Summary     List sample results
// @Tags        results
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id  header string true  "Selected lab"
// @Param       id        path   string true  "Sample ID"
// @Param       page      query  int    false "Page number"
// @Param       page_size query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated results"
// @Failure     404 {object} ErrorResponse "Sample not found"
// @Router      /samples/{id}/results [get]
func (h *TestResultHandler) ListSampleResults(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	results, err := h.resultService.ListSampleResults(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetResult returns a single result
// @Summary     Get result
// @Tags        results
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Result ID"
// @Success     200 {object} map[string]interface{} "Result"
// @Failure     404 {object} ErrorResponse "Result not found"
// @Router      /results/{id} [get]
func (h *TestResultHandler) GetResult(c *gin.Context) {
	result, err := h.resultService.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// UpdateResult corrects a recorded result
// @Summary     Update result
// @Tags        results
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string              true "Selected lab"
// @Param       id       path   string              true "Result ID"
// @Param       request  body   UpdateResultRequest true "Correction"
// @Success     200 {object} map[string]interface{} "Result updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Result not found"
// @Router      /results/{id} [patch]
func (h *TestResultHandler) UpdateResult(c *gin.Context) {
	var req UpdateResultRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.resultService.UpdateResult(c.Request.Context(), c.Param("id"), services.UpdateResultInput{
		Value:   req.Value,
		Comment: req.Comment,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// DeleteResult soft-deletes a result
// @Summary     Delete result
// @Tags        results
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Result ID"
// @Success     204 "Result deleted"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Result not found"
// @Router      /results/{id} [delete]
func (h *TestResultHandler) DeleteResult(c *gin.Context) {
	if err := h.resultService.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

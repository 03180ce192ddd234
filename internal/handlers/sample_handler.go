package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"labtrack/internal/models"
	"labtrack/internal/services"
)

// SampleHandler handles sample requests
type SampleHandler struct {
	sampleService services.SampleServicer
}

// NewSampleHandler creates a new SampleHandler
func NewSampleHandler(sampleService services.SampleServicer) *SampleHandler {
	return &SampleHandler{sampleService: sampleService}
}

// AliquotRequest represents one aliquot in a create sample payload
type AliquotRequest struct {
	Label           string  `json:"label" binding:"required,max=64"`
	VolumeML        float64 `json:"volume_ml" binding:"gte=0"`
	StorageLocation string  `json:"storage_location" binding:"max=120"`
}

// CreateSampleRequest represents the create sample payload
type CreateSampleRequest struct {
	Code        string           `json:"code" binding:"required,record_code"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Matrix      string           `json:"matrix" binding:"max=64"`
	CollectedAt *time.Time       `json:"collected_at"`
	Notes       string           `json:"notes" binding:"max=2000"`
	Aliquots    []AliquotRequest `json:"aliquots" binding:"omitempty,max=50,dive"`
}

// UpdateSampleRequest represents the update sample payload
type UpdateSampleRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Matrix      *string    `json:"matrix" binding:"omitempty,max=64"`
	CollectedAt *time.Time `json:"collected_at"`
	Notes       *string    `json:"notes" binding:"omitempty,max=2000"`
	Status      *string    `json:"status" binding:"omitempty,sample_status"`
}

// CreateSample handles sample registration
// @Summary     Create sample
// @Description Register a sample in the selected lab, optionally with aliquots
// @Tags        samples
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string              true "Selected lab"
// @Param       request  body   CreateSampleRequest true "Sample details"
// @Success     201 {object} map[string]interface{} "Sample created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     409 {object} ErrorResponse "Sample code already in use"
// @Router      /samples [post]
func (h *SampleHandler) CreateSample(c *gin.Context) {
	var req CreateSampleRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.CreateSampleInput{
		Code:        req.Code,
		Name:        req.Name,
		Matrix:      req.Matrix,
		CollectedAt: req.CollectedAt,
		Notes:       req.Notes,
	}
	for _, a := range req.Aliquots {
		input.Aliquots = append(input.Aliquots, services.AliquotInput{
			Label:           a.Label,
			VolumeML:        a.VolumeML,
			StorageLocation: a.StorageLocation,
		})
	}

	sample, err := h.sampleService.CreateSample(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sample": sample})
}

// ListSamples lists the samples of the selected lab
// @Summary     List samples
// @Tags        samples
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id  header string true  "Selected lab"
// @Param       status    query  string false "Filter by status"
// @Param       page      query  int    false "Page number"
// @Param       page_size query  int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Paginated samples"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /samples [get]
func (h *SampleHandler) ListSamples(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}

	var filter services.SampleFilter
	if status := optionalQuery(c, "status"); status != nil {
		s := models.SampleStatus(*status)
		filter.Status = &s
	}

	samples, err := h.sampleService.ListSamples(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// GetSample returns a single sample with its aliquots
// @Summary     Get sample
// @Tags        samples
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Sample ID"
// @Success     200 {object} map[string]interface{} "Sample"
// @Failure     404 {object} ErrorResponse "Sample not found"
// @Router      /samples/{id} [get]
func (h *SampleHandler) GetSample(c *gin.Context) {
	sample, err := h.sampleService.GetSample(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

// UpdateSample updates sample fields and optionally moves its lifecycle
// @Summary     Update sample
// @Tags        samples
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Lab-Id header string              true "Selected lab"
// @Param       id       path   string              true "Sample ID"
// @Param       request  body   UpdateSampleRequest true "Fields to update"
// @Success     200 {object} map[string]interface{} "Sample updated"
// @Failure     400 {object} ErrorResponse "Invalid input or status transition"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Sample not found"
// @Router      /samples/{id} [patch]
func (h *SampleHandler) UpdateSample(c *gin.Context) {
	var req UpdateSampleRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateSampleInput{
		Name:        req.Name,
		Matrix:      req.Matrix,
		CollectedAt: req.CollectedAt,
		Notes:       req.Notes,
	}
	if req.Status != nil {
		s := models.SampleStatus(*req.Status)
		input.Status = &s
	}

	sample, err := h.sampleService.UpdateSample(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

// DeleteSample soft-deletes a sample
// @Summary     Delete sample
// @Tags        samples
// @Security    BearerAuth
// @Param       X-Lab-Id header string true "Selected lab"
// @Param       id       path   string true "Sample ID"
// @Success     204 "Sample deleted"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Sample not found"
// @Router      /samples/{id} [delete]
func (h *SampleHandler) DeleteSample(c *gin.Context) {
	if err := h.sampleService.DeleteSample(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

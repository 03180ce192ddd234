package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/services"
)

type mockSampleService struct {
	createSampleFn func(input services.CreateSampleInput) (*models.Sample, error)
	listSamplesFn  func(filter services.SampleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Sample], error)
	getSampleFn    func(id string) (*models.Sample, error)
	updateSampleFn func(id string, input services.UpdateSampleInput) (*models.Sample, error)
	deleteSampleFn func(id string) error
}

var _ services.SampleServicer = (*mockSampleService)(nil)

func (m *mockSampleService) CreateSample(_ context.Context, input services.CreateSampleInput) (*models.Sample, error) {
	if m.createSampleFn != nil {
		return m.createSampleFn(input)
	}
	return &models.Sample{Code: input.Code}, nil
}

func (m *mockSampleService) ListSamples(_ context.Context, filter services.SampleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Sample], error) {
	if m.listSamplesFn != nil {
		return m.listSamplesFn(filter, page)
	}
	resp := pagination.NewPageResponse[models.Sample](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockSampleService) GetSample(_ context.Context, id string) (*models.Sample, error) {
	if m.getSampleFn != nil {
		return m.getSampleFn(id)
	}
	return &models.Sample{}, nil
}

func (m *mockSampleService) UpdateSample(_ context.Context, id string, input services.UpdateSampleInput) (*models.Sample, error) {
	if m.updateSampleFn != nil {
		return m.updateSampleFn(id, input)
	}
	return &models.Sample{}, nil
}

func (m *mockSampleService) DeleteSample(_ context.Context, id string) error {
	if m.deleteSampleFn != nil {
		return m.deleteSampleFn(id)
	}
	return nil
}

func setupSampleRouter(handler *SampleHandler) *gin.Engine {
	r := gin.New()
	r.POST("/samples", handler.CreateSample)
	r.GET("/samples", handler.ListSamples)
	r.GET("/samples/:id", handler.GetSample)
	r.PATCH("/samples/:id", handler.UpdateSample)
	r.DELETE("/samples/:id", handler.DeleteSample)
	return r
}

func TestSampleHandler_CreateSample(t *testing.T) {
	t.Run("maps aliquots into the input", func(t *testing.T) {
		var got services.CreateSampleInput
		svc := &mockSampleService{
			createSampleFn: func(input services.CreateSampleInput) (*models.Sample, error) {
				got = input
				return &models.Sample{Code: input.Code, Status: models.SampleStatusReceived}, nil
			},
		}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "POST", "/samples",
			`{"code":"W-001","name":"River water","matrix":"water","aliquots":[{"label":"A","volume_ml":10,"storage_location":"F1"}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(got.Aliquots) != 1 || got.Aliquots[0].Label != "A" || got.Aliquots[0].VolumeML != 10 {
			t.Errorf("unexpected aliquots: %+v", got.Aliquots)
		}
		sample := parseJSON(t, rec)["sample"].(map[string]interface{})
		if sample["status"] != "received" {
			t.Errorf("expected status received, got %v", sample["status"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing code", `{"name":"River water"}`},
		{"invalid code", `{"code":"has space","name":"River water"}`},
		{"aliquot without label", `{"code":"W-1","name":"River water","aliquots":[{"volume_ml":1}]}`},
		{"negative volume", `{"code":"W-1","name":"River water","aliquots":[{"label":"A","volume_ml":-1}]}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupSampleRouter(NewSampleHandler(&mockSampleService{}))

			rec := doRequest(r, "POST", "/samples", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 403 for a viewer", func(t *testing.T) {
		svc := &mockSampleService{
			createSampleFn: func(services.CreateSampleInput) (*models.Sample, error) {
				return nil, apperrors.ErrRoleInsufficient
			},
		}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "POST", "/samples", `{"code":"W-001","name":"River water"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ROLE_INSUFFICIENT")
	})
}

func TestSampleHandler_ListSamples(t *testing.T) {
	var got services.SampleFilter
	svc := &mockSampleService{
		listSamplesFn: func(filter services.SampleFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Sample], error) {
			got = filter
			resp := pagination.NewPageResponse[models.Sample](nil, 1, 20, 0)
			return &resp, nil
		},
	}
	r := setupSampleRouter(NewSampleHandler(svc))

	rec := doRequest(r, "GET", "/samples?status=in_testing", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Status == nil || *got.Status != models.SampleStatusInTesting {
		t.Errorf("expected status filter in_testing, got %v", got.Status)
	}
}

func TestSampleHandler_GetSample(t *testing.T) {
	svc := &mockSampleService{
		getSampleFn: func(string) (*models.Sample, error) { return nil, apperrors.ErrSampleNotFound },
	}
	r := setupSampleRouter(NewSampleHandler(svc))

	rec := doRequest(r, "GET", "/samples/other-lab-sample", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "SAMPLE_NOT_FOUND")
}

func TestSampleHandler_UpdateSample(t *testing.T) {
	t.Run("passes the status transition", func(t *testing.T) {
		var got services.UpdateSampleInput
		svc := &mockSampleService{
			updateSampleFn: func(_ string, input services.UpdateSampleInput) (*models.Sample, error) {
				got = input
				return &models.Sample{Status: *input.Status}, nil
			},
		}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "PATCH", "/samples/s-1", `{"status":"in_testing"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Status == nil || *got.Status != models.SampleStatusInTesting {
			t.Errorf("expected status in_testing, got %v", got.Status)
		}
		if got.Name != nil {
			t.Error("expected name untouched")
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupSampleRouter(NewSampleHandler(&mockSampleService{}))

		rec := doRequest(r, "PATCH", "/samples/s-1", `{"status":"lost"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid transition", func(t *testing.T) {
		svc := &mockSampleService{
			updateSampleFn: func(string, services.UpdateSampleInput) (*models.Sample, error) {
				return nil, apperrors.ErrInvalidStatusTransition
			},
		}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "PATCH", "/samples/s-1", `{"status":"archived"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_STATUS_TRANSITION")
	})
}

func TestSampleHandler_DeleteSample(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		r := setupSampleRouter(NewSampleHandler(&mockSampleService{}))

		rec := doRequest(r, "DELETE", "/samples/s-1", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("hides fatal defects behind a generic error", func(t *testing.T) {
		svc := &mockSampleService{
			deleteSampleFn: func(string) error {
				return apperrors.WithMessage(apperrors.ErrSoftDeleteContractViolation, "Sample lacks deleted_at")
			},
		}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "DELETE", "/samples/s-1", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INTERNAL_ERROR")
		if msg := result["error"].(map[string]interface{})["message"]; msg == "Sample lacks deleted_at" {
			t.Error("internal detail leaked to the client")
		}
	})

	t.Run("advertises retry on session bind failure", func(t *testing.T) {
		svc := &mockSampleService{deleteSampleFn: func(string) error { return apperrors.ErrSessionBindFailed }}
		r := setupSampleRouter(NewSampleHandler(svc))

		rec := doRequest(r, "DELETE", "/samples/s-1", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
	})
}

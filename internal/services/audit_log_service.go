package services

import (
	"context"

	"gorm.io/gorm"

	"labtrack/internal/authz"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
	"labtrack/internal/pagination"
	"labtrack/internal/tenant"
)

// auditLogService reads the audit trail. Records are written only by the
// audit interceptor and are never modified here.
type auditLogService struct {
	Deps
}

// NewAuditLogService creates a new AuditLogServicer.
func NewAuditLogService(deps Deps) AuditLogServicer {
	return &auditLogService{Deps: deps}
}

// ListAuditLogs returns audit records of the selected lab, newest first. The
// system administrator without a selected lab sees every record.
func (s *auditLogService) ListAuditLogs(ctx context.Context, filter AuditLogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	sc, err := s.begin(ctx, authz.ReadAuditLog)
	if err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	page.Defaults()

	var logs []models.AuditLog
	var total int64
	err = s.read(ctx, sc, func(conn *gorm.DB) error {
		q := conn.Model(&models.AuditLog{}).Scopes(tenant.Scope(sc), auditFilter(filter))
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("timestamp DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&logs).Error
	})
	if err != nil {
		return nil, dbError(err)
	}

	resp := pagination.NewPageResponse(logs, page.Page, page.PageSize, total)
	return &resp, nil
}

func auditFilter(f AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.EntityType != nil {
			db = db.Where("entity_type = ?", *f.EntityType)
		}
		if f.EntityID != nil {
			db = db.Where("entity_id = ?", *f.EntityID)
		}
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.Action != nil {
			db = db.Where("action = ?", *f.Action)
		}
		if f.From != nil {
			db = db.Where("timestamp >= ?", f.From.UTC())
		}
		if f.To != nil {
			db = db.Where("timestamp <= ?", f.To.UTC())
		}
		return db
	}
}

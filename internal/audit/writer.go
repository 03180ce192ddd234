// Package audit captures every tracked mutation as an immutable audit record
// written in the same transaction as the change.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"labtrack/internal/entity"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/ids"
	"labtrack/internal/logger"
	"labtrack/internal/metrics"
	"labtrack/internal/models"
	"labtrack/internal/tenant"
	"labtrack/internal/uow"
)

// DefaultMaxFieldLength is the length above which a string field is cut.
const DefaultMaxFieldLength = 50

// Writer is the audit capture interceptor. It reads each entry's Intent, so
// it records a Delete even after the soft-delete rewriter turned the flush
// into an update.
type Writer struct {
	maxFieldLength int
	log            *zap.SugaredLogger
}

// NewWriter creates a Writer truncating string fields over maxFieldLength
// runes.
func NewWriter(maxFieldLength int) *Writer {
	if maxFieldLength <= 0 {
		maxFieldLength = DefaultMaxFieldLength
	}
	return &Writer{maxFieldLength: maxFieldLength, log: logger.Named("audit")}
}

// SavingChanges implements uow.Interceptor.
func (w *Writer) SavingChanges(ctx context.Context, work *uow.Work) error {
	for _, e := range work.Entries() {
		if e.SkipAudit() {
			continue
		}
		action, ok := actionFor(e.Intent)
		if !ok {
			continue
		}

		typ := e.Descriptor.Type()
		if typ == "" {
			if _, auditable := e.Entity.(entity.Auditable); auditable {
				return apperrors.Wrap(apperrors.ErrAuditEntityTypeUnmapped,
					fmt.Errorf("no audit entity type for %s", e.Descriptor.Name()))
			}
			continue
		}

		rec, err := w.capture(ctx, work, e, typ, action)
		if err != nil {
			return err
		}
		work.Append(rec)
		work.OnCommit(func() {
			metrics.AuditRecords.WithLabelValues(string(typ), string(action)).Inc()
		})
	}
	return nil
}

func actionFor(s uow.State) (models.AuditAction, bool) {
	switch s {
	case uow.Added:
		return models.AuditActionCreate, true
	case uow.Modified:
		return models.AuditActionUpdate, true
	case uow.Deleted:
		return models.AuditActionDelete, true
	}
	return "", false
}

func (w *Writer) capture(ctx context.Context, work *uow.Work, e *uow.Entry, typ entity.Type, action models.AuditAction) (*models.AuditLog, error) {
	var before, after []entity.Value
	switch action {
	case models.AuditActionCreate:
		after = e.Current()
	case models.AuditActionUpdate:
		before = pick(e.Original, e.Changed())
		after = pick(e.Current(), e.Changed())
	case models.AuditActionDelete:
		before = e.Original
	}

	oldValue, oldCut, err := w.encode(typ, e.Key(), before)
	if err != nil {
		return nil, err
	}
	newValue, newCut, err := w.encode(typ, e.Key(), after)
	if err != nil {
		return nil, err
	}

	return &models.AuditLog{
		ID:         ids.NewAuditID(work.Now),
		LabID:      labOf(work.Security, e.Entity),
		UserID:     work.Security.Actor(),
		EntityType: typ,
		EntityID:   e.Key(),
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
		Truncated:  oldCut || newCut,
		Timestamp:  work.Now.UTC(),
		IPAddress:  ClientIP(ctx),
	}, nil
}

// encode serializes values as a JSON object keyed by field name, cutting
// oversized strings one field at a time.
func (w *Writer) encode(typ entity.Type, key string, values []entity.Value) (datatypes.JSON, bool, error) {
	if values == nil {
		return nil, false, nil
	}

	truncated := false
	payload := make(map[string]any, len(values))
	for _, v := range values {
		out, n, cut := truncateValue(v.Value, w.maxFieldLength)
		if cut {
			truncated = true
			metrics.AuditTruncations.WithLabelValues(string(typ)).Inc()
			w.log.Warnw("audit value truncated",
				"entity_type", typ,
				"entity_id", key,
				"field", v.Name,
				"length", n,
				"limit", w.maxFieldLength,
			)
		}
		payload[v.Name] = out
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode audit payload for %s %s: %w", typ, key, err)
	}
	return datatypes.JSON(raw), truncated, nil
}

func pick(values []entity.Value, names []string) []entity.Value {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]entity.Value, 0, len(names))
	for _, v := range values {
		if want[v.Name] {
			out = append(out, v)
		}
	}
	return out
}

func labOf(sc *tenant.SecurityContext, e any) *string {
	if scoped, ok := e.(models.LabScoped); ok {
		if lab := scoped.OwningLab(); lab != "" {
			return &lab
		}
	}
	if lab := sc.LabID(); lab != "" {
		return &lab
	}
	return nil
}

// Package softdelete turns pending deletes of soft-deletable entities into
// updates of their deletion flag and timestamp.
package softdelete

import (
	"context"

	"labtrack/internal/entity"
	"labtrack/internal/logger"
	"labtrack/internal/uow"
)

// Rewriter is a commit interceptor. It must run before audit capture.
type Rewriter struct{}

// NewRewriter creates a Rewriter.
func NewRewriter() *Rewriter { return &Rewriter{} }

// SavingChanges implements uow.Interceptor. The deletion timestamp is the
// commit time of the unit of work.
func (r *Rewriter) SavingChanges(_ context.Context, w *uow.Work) error {
	for _, e := range w.Entries() {
		if e.State != uow.Deleted {
			continue
		}
		deleted, deletedAt, ok, err := entity.SoftDeleteFields(e.Entity)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		at := w.Now
		*deleted = true
		*deletedAt = &at
		e.Rewrite(uow.Modified)
		keepOwned(e)

		logger.Named("softdelete").Debugw("delete rewritten",
			"entity", e.Descriptor.Name(),
			"id", e.Key(),
		)
	}
	return nil
}

// keepOwned walks the ownership graph below e and restores every record
// that was only deleted because an ancestor was.
func keepOwned(e *uow.Entry) {
	for _, child := range e.Owned() {
		if child.Cascaded() && child.State == uow.Deleted {
			child.Keep()
			keepOwned(child)
		}
	}
}

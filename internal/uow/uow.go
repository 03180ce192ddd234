// Package uow stages entity changes for one request and flushes them in a
// single transaction after the commit interceptors have run.
package uow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labtrack/internal/clock"
	"labtrack/internal/entity"
	apperrors "labtrack/internal/errors"
	"labtrack/internal/tenant"
)

// ErrCommitted is returned when a unit of work is used after Commit.
var ErrCommitted = errors.New("uow: unit of work already committed")

// Transactor runs fn in a transaction on a connection bound to sc.
type Transactor interface {
	InTransaction(ctx context.Context, sc *tenant.SecurityContext, fn func(tx *gorm.DB) error) error
}

// Interceptor inspects and rewrites the pending changes before they are
// flushed.
type Interceptor interface {
	SavingChanges(ctx context.Context, w *Work) error
}

// Work is the set of changes handed to interceptors at commit.
type Work struct {
	Security *tenant.SecurityContext
	Now      time.Time

	entries   []*Entry
	records   []any
	committed []func()
}

// Entries returns every tracked entry in staging order.
func (w *Work) Entries() []*Entry { return w.entries }

// Append stages a record that is inserted in the same transaction after the
// entities. Appended records never pass through the interceptors.
func (w *Work) Append(record any) { w.records = append(w.records, record) }

// Records returns the appended records.
func (w *Work) Records() []any { return w.records }

// OnCommit registers fn to run after the transaction committed.
func (w *Work) OnCommit(fn func()) { w.committed = append(w.committed, fn) }

func (w *Work) pending() bool {
	if len(w.records) > 0 {
		return true
	}
	for _, e := range w.entries {
		if e.State != Unchanged {
			return true
		}
	}
	return false
}

// Factory creates units of work sharing one store, registry, clock and
// interceptor chain.
type Factory struct {
	store        Transactor
	registry     *entity.Registry
	clock        clock.Clock
	interceptors []Interceptor
}

// NewFactory creates a Factory. Interceptors run in the given order.
func NewFactory(store Transactor, registry *entity.Registry, clk clock.Clock, interceptors ...Interceptor) *Factory {
	return &Factory{store: store, registry: registry, clock: clk, interceptors: interceptors}
}

// New starts a unit of work for the security context attached to ctx.
func (f *Factory) New(ctx context.Context) (*UnitOfWork, error) {
	sc, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	return &UnitOfWork{
		ctx:     ctx,
		factory: f,
		sc:      sc,
		tracked: make(map[any]*Entry),
	}, nil
}

// UnitOfWork tracks the changes of one request. It is not safe for
// concurrent use.
type UnitOfWork struct {
	ctx     context.Context
	factory *Factory
	sc      *tenant.SecurityContext

	entries       []*Entry
	tracked       map[any]*Entry
	suppressAudit bool
	done          bool
}

// Add stages e and every record it owns for insertion.
func (u *UnitOfWork) Add(e any) error {
	if err := u.check(e); err != nil {
		return err
	}
	if _, ok := u.tracked[e]; ok {
		return fmt.Errorf("uow: %T is already tracked", e)
	}
	_, err := u.stage(e, Added, nil)
	return err
}

// Attach starts tracking a loaded entity. Changes made to it afterwards are
// detected at commit.
func (u *UnitOfWork) Attach(e any) error {
	if err := u.check(e); err != nil {
		return err
	}
	if _, ok := u.tracked[e]; ok {
		return nil
	}
	_, err := u.stage(e, Unchanged, nil)
	return err
}

// Remove marks e for deletion. Owned records are marked with it.
func (u *UnitOfWork) Remove(e any) error {
	if err := u.check(e); err != nil {
		return err
	}
	entry, ok := u.tracked[e]
	if !ok {
		var err error
		if entry, err = u.stage(e, Unchanged, nil); err != nil {
			return err
		}
	}
	if entry.State == Added {
		u.forget(entry)
		return nil
	}

	entry.Intent, entry.State = Deleted, Deleted
	if u.suppressAudit {
		entry.skipAudit = true
	}
	u.cascade(entry)
	return nil
}

// check rejects a finished unit of work and unregistered values before e is
// used as a tracking key. Registered types are pointers, so a rejected value
// never reaches the map.
func (u *UnitOfWork) check(e any) error {
	if u.done {
		return ErrCommitted
	}
	_, err := u.factory.registry.Lookup(e)
	return err
}

// WithoutAudit runs fn with audit capture suppressed for everything fn
// stages. The flag belongs to this unit of work only.
func (u *UnitOfWork) WithoutAudit(fn func() error) error {
	prev := u.suppressAudit
	u.suppressAudit = true
	defer func() { u.suppressAudit = prev }()
	return fn()
}

// Entries returns the tracked entries.
func (u *UnitOfWork) Entries() []*Entry { return u.entries }

// Commit detects changes, runs the interceptors, stamps audit metadata and
// flushes everything in one transaction. A unit of work commits once.
func (u *UnitOfWork) Commit() error {
	if u.done {
		return ErrCommitted
	}
	u.done = true

	if err := u.ctx.Err(); err != nil {
		return err
	}

	u.detectChanges()
	w := &Work{Security: u.sc, Now: u.factory.clock.Now(), entries: u.entries}
	for _, ic := range u.factory.interceptors {
		if err := ic.SavingChanges(u.ctx, w); err != nil {
			return err
		}
	}
	if !w.pending() {
		return nil
	}
	u.stamp(w)

	if err := u.ctx.Err(); err != nil {
		return err
	}
	if err := u.factory.store.InTransaction(u.ctx, u.sc, func(tx *gorm.DB) error {
		return flush(tx, w)
	}); err != nil {
		return err
	}

	for _, fn := range w.committed {
		fn()
	}
	return nil
}

func (u *UnitOfWork) stage(e any, state State, owner *Entry) (*Entry, error) {
	d, err := u.factory.registry.Lookup(e)
	if err != nil {
		return nil, err
	}
	if a, ok := e.(entity.IDAssigner); ok && state == Added {
		a.EnsureID()
	}

	entry := &Entry{
		Entity:     e,
		Descriptor: d,
		Intent:     state,
		State:      state,
		Owner:      owner,
		skipAudit:  u.suppressAudit,
	}
	if state != Added {
		entry.Original = d.Snapshot(e)
	}
	u.entries = append(u.entries, entry)
	u.tracked[e] = entry
	if owner != nil {
		owner.owned = append(owner.owned, entry)
	}

	if state == Added {
		d.LinkOwned(e)
	}
	for _, child := range d.Owned(e) {
		if _, seen := u.tracked[child]; seen {
			continue
		}
		if _, err := u.stage(child, state, entry); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

func (u *UnitOfWork) cascade(owner *Entry) {
	for _, child := range append([]*Entry(nil), owner.owned...) {
		if child.State == Added {
			u.forget(child)
			continue
		}
		child.Intent, child.State = Deleted, Deleted
		child.cascaded = true
		child.skipAudit = child.skipAudit || owner.skipAudit
		u.cascade(child)
	}
}

func (u *UnitOfWork) forget(entry *Entry) {
	for _, child := range entry.owned {
		u.forget(child)
	}
	delete(u.tracked, entry.Entity)
	u.entries = without(u.entries, entry)
	if entry.Owner != nil {
		entry.Owner.owned = without(entry.Owner.owned, entry)
	}
}

func without(list []*Entry, target *Entry) []*Entry {
	out := list[:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

func (u *UnitOfWork) detectChanges() {
	for _, e := range u.entries {
		if e.State != Unchanged || e.Intent != Unchanged {
			continue
		}
		if changed := diff(e.Original, e.Current()); len(changed) > 0 {
			e.Intent, e.State = Modified, Modified
			e.changed = changed
		}
	}
}

type createStamper interface {
	StampCreated(actor string, at time.Time)
}

type updateStamper interface {
	StampUpdated(actor string, at time.Time)
}

func (u *UnitOfWork) stamp(w *Work) {
	actor := w.Security.Actor()
	for _, e := range w.entries {
		switch e.State {
		case Added:
			if s, ok := e.Entity.(createStamper); ok {
				s.StampCreated(actor, w.Now)
			}
		case Modified:
			if s, ok := e.Entity.(updateStamper); ok {
				s.StampUpdated(actor, w.Now)
			}
		}
	}
}

func flush(tx *gorm.DB, w *Work) error {
	for _, e := range w.entries {
		switch e.State {
		case Added:
			if err := tx.Omit(clause.Associations).Create(e.Entity).Error; err != nil {
				return err
			}
		case Modified:
			cols := columns(e)
			if len(cols) == 0 {
				continue
			}
			res := tx.Model(e.Entity).Omit(clause.Associations).Select(cols).Updates(e.Entity)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.Wrap(apperrors.ErrNotFound,
					fmt.Errorf("update %s %s matched no row", e.Descriptor.Name(), e.Key()))
			}
		}
	}

	// Deletes run in reverse staging order so owned records go first.
	for i := len(w.entries) - 1; i >= 0; i-- {
		e := w.entries[i]
		if e.State != Deleted {
			continue
		}
		res := tx.Delete(e.Entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Wrap(apperrors.ErrNotFound,
				fmt.Errorf("delete %s %s matched no row", e.Descriptor.Name(), e.Key()))
		}
	}

	for _, r := range w.records {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
	}
	return nil
}

func columns(e *Entry) []string {
	cols := append([]string(nil), e.changed...)
	if _, ok := e.Entity.(updateStamper); ok {
		cols = append(cols, "UpdatedAt", "UpdatedBy")
	}
	return cols
}

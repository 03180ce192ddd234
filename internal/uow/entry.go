package uow

import (
	"fmt"

	"labtrack/internal/entity"
)

// State is the pending operation of a tracked entity.
type State int

const (
	Unchanged State = iota
	Added
	Modified
	Deleted
)

var stateNames = [...]string{"Unchanged", "Added", "Modified", "Deleted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Entry is one tracked entity. Intent is the operation the caller asked
// for; State is the operation that will be flushed. Interceptors may change
// State, never Intent.
type Entry struct {
	Entity     any
	Descriptor *entity.Descriptor
	Intent     State
	State      State
	// Original is the registered field snapshot taken when the entity was
	// attached. Nil for added entities.
	Original []entity.Value
	Owner    *Entry

	owned     []*Entry
	changed   []string
	cascaded  bool
	skipAudit bool
}

// Owned returns the tracked entries of records owned by this entity.
func (e *Entry) Owned() []*Entry { return e.owned }

// Cascaded reports whether the entry was marked deleted only because its
// owner was.
func (e *Entry) Cascaded() bool { return e.cascaded }

// SkipAudit reports whether the entry was staged with audit suppressed.
func (e *Entry) SkipAudit() bool { return e.skipAudit }

// Changed lists the registered fields that differ from Original.
func (e *Entry) Changed() []string { return e.changed }

// Current snapshots the entity as it is now.
func (e *Entry) Current() []entity.Value { return e.Descriptor.Snapshot(e.Entity) }

// Key returns the audit key of the entity, or its type name.
func (e *Entry) Key() string {
	if a, ok := e.Entity.(entity.Auditable); ok {
		return a.AuditKey()
	}
	return e.Descriptor.Name()
}

// Rewrite changes the flushed operation and recomputes the changed fields
// against the original snapshot.
func (e *Entry) Rewrite(state State) {
	e.State = state
	if state == Modified {
		e.changed = diff(e.Original, e.Current())
	}
}

// Keep cancels a cascaded deletion so the record survives its owner. Edits
// made to the record in the same unit of work are still flushed.
func (e *Entry) Keep() {
	e.State, e.Intent = Unchanged, Unchanged
	e.cascaded = false
	if e.changed = diff(e.Original, e.Current()); len(e.changed) > 0 {
		e.State, e.Intent = Modified, Modified
	}
}

func diff(before, after []entity.Value) []string {
	if before == nil {
		return nil
	}
	var names []string
	for i := range after {
		if !entity.SameValue(before[i].Value, after[i].Value) {
			names = append(names, after[i].Name)
		}
	}
	return names
}

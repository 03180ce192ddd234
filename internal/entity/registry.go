package entity

import (
	"fmt"
	"reflect"
	"time"

	apperrors "labtrack/internal/errors"
)

// Registry maps Go types to their descriptors. It is built once at startup
// and read concurrently afterwards.
type Registry struct {
	byType map[reflect.Type]*Descriptor
	known  map[Type]bool
}

// NewRegistry validates and indexes descriptors against the closed set of
// audit entity types. Any configuration defect fails the whole registry so
// the process never starts with a partially audited or hard-deletable model.
func NewRegistry(types []Type, descriptors ...*Descriptor) (*Registry, error) {
	r := &Registry{
		byType: make(map[reflect.Type]*Descriptor, len(descriptors)),
		known:  make(map[Type]bool, len(types)),
	}
	for _, t := range types {
		r.known[t] = true
	}

	for _, d := range descriptors {
		if _, dup := r.byType[d.rtype]; dup {
			return nil, fmt.Errorf("entity %s registered twice", d.name)
		}

		sample := d.newFn()
		_, auditable := sample.(Auditable)
		switch {
		case auditable && d.typ == "":
			return nil, apperrors.Wrap(apperrors.ErrAuditEntityTypeUnmapped,
				fmt.Errorf("auditable entity %s has no audit entity type", d.name))
		case auditable && !r.known[d.typ]:
			return nil, apperrors.Wrap(apperrors.ErrAuditEntityTypeUnmapped,
				fmt.Errorf("entity %s maps to unknown audit entity type %q", d.name, d.typ))
		case !auditable && d.typ != "":
			return nil, fmt.Errorf("entity %s has audit type %q but does not implement Auditable", d.name, d.typ)
		}
		if auditable && len(d.fields) == 0 {
			return nil, fmt.Errorf("auditable entity %s registers no fields", d.name)
		}

		if err := checkSoftDeleteRegistered(d, sample); err != nil {
			return nil, err
		}

		r.byType[d.rtype] = d
	}
	return r, nil
}

// checkSoftDeleteRegistered verifies that a soft-deletable type exposes both
// fields and that both are registered, so a rewritten delete always carries
// the flag and the timestamp into the update.
func checkSoftDeleteRegistered(d *Descriptor, sample any) error {
	deleted, deletedAt, ok, err := SoftDeleteFields(sample)
	if err != nil || !ok {
		return err
	}

	before := d.Snapshot(sample)
	*deleted = true
	if !differs(before, d.Snapshot(sample)) {
		return apperrors.Wrap(apperrors.ErrSoftDeleteContractViolation,
			fmt.Errorf("entity %s does not register its deletion flag", d.name))
	}

	before = d.Snapshot(sample)
	at := time.Unix(0, 0).UTC()
	*deletedAt = &at
	if !differs(before, d.Snapshot(sample)) {
		return apperrors.Wrap(apperrors.ErrSoftDeleteContractViolation,
			fmt.Errorf("entity %s does not register its deletion timestamp", d.name))
	}
	return nil
}

func differs(a, b []Value) bool {
	for i := range a {
		if !SameValue(a[i].Value, b[i].Value) {
			return true
		}
	}
	return false
}

// Lookup returns the descriptor for e, which must be a pointer to a
// registered type.
func (r *Registry) Lookup(e any) (*Descriptor, error) {
	if d, ok := r.byType[reflect.TypeOf(e)]; ok {
		return d, nil
	}
	if _, auditable := e.(Auditable); auditable {
		return nil, apperrors.Wrap(apperrors.ErrAuditEntityTypeUnmapped,
			fmt.Errorf("no audit entity type registered for %T", e))
	}
	return nil, apperrors.Wrap(apperrors.ErrEntityUnregistered, fmt.Errorf("%T is not registered", e))
}

// Types returns the closed set of audit entity types.
func (r *Registry) Types() []Type {
	out := make([]Type, 0, len(r.known))
	for t := range r.known {
		out = append(out, t)
	}
	return out
}

// Known reports whether t belongs to the closed set.
func (r *Registry) Known(t Type) bool { return r.known[t] }

// Package entity holds the static, per-type field registration table used by
// the unit of work, the soft-delete rewriter and the audit writer.
//
// Every persisted type is described once at startup: which fields it exposes
// to the audit trail, which audit entity type tag it maps to, and which owned
// sub-records hang off it. Nothing here walks struct fields at runtime.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	apperrors "labtrack/internal/errors"
)

// Type is the audit log's entity type tag.
type Type string

// Auditable is implemented by entities that participate in the audit trail.
// AuditKey returns the entity's primary key as stored in the audit log.
type Auditable interface {
	AuditKey() string
}

// SoftDeletable is implemented by entities that must never be hard-deleted.
// Both pointers must be non-nil.
type SoftDeletable interface {
	SoftDeleteFields() (deleted *bool, deletedAt **time.Time)
}

// IDAssigner is implemented by entities that generate their own primary key
// before being flushed.
type IDAssigner interface {
	EnsureID()
}

// Value is a single captured field value.
type Value struct {
	Name  string
	Value any
}

// Field is one registered, audit-visible field of a type.
type Field struct {
	Name string
	get  func(any) any
	set  func(any, json.RawMessage) error
}

// Col registers the field name backed by the accessor ptr. The accessor is
// used both to read the value and to restore it from an audit payload.
// Read values are detached copies, so later writes through a pointer or
// slice field never reach a snapshot taken earlier.
func Col[T any, V any](name string, ptr func(*T) *V) Field {
	return Field{
		Name: name,
		get:  func(e any) any { return detach(*ptr(e.(*T))) },
		set:  func(e any, raw json.RawMessage) error { return json.Unmarshal(raw, ptr(e.(*T))) },
	}
}

type ownership struct {
	children func(parent any) []any
	link     func(parent, child any)
}

// Descriptor is the registration record for one Go type.
type Descriptor struct {
	name   string
	typ    Type
	rtype  reflect.Type
	fields []Field
	owned  []ownership
	newFn  func() any
}

// Describe builds the descriptor for *T. typ is empty for types that are not
// audited (owned sub-records, the audit log itself).
func Describe[T any](typ Type, fields ...Field) *Descriptor {
	rt := reflect.TypeOf((*T)(nil))
	return &Descriptor{
		name:   rt.Elem().Name(),
		typ:    typ,
		rtype:  rt,
		fields: fields,
		newFn:  func() any { return new(T) },
	}
}

// OwnsMany declares that every *P aggregate owns the records returned by
// children. link stamps the parent's key onto a child before it is flushed.
func OwnsMany[P any, C any](d *Descriptor, children func(*P) []*C, link func(*P, *C)) *Descriptor {
	d.owned = append(d.owned, ownership{
		children: func(parent any) []any {
			kids := children(parent.(*P))
			out := make([]any, 0, len(kids))
			for _, k := range kids {
				out = append(out, k)
			}
			return out
		},
		link: func(parent, child any) { link(parent.(*P), child.(*C)) },
	})
	return d
}

// Name returns the Go type name.
func (d *Descriptor) Name() string { return d.name }

// Type returns the audit entity type tag, empty if the type is not audited.
func (d *Descriptor) Type() Type { return d.typ }

// FieldNames lists registered fields in declaration order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

// Snapshot captures the current value of every registered field.
func (d *Descriptor) Snapshot(e any) []Value {
	out := make([]Value, len(d.fields))
	for i, f := range d.fields {
		out[i] = Value{Name: f.Name, Value: f.get(e)}
	}
	return out
}

// Restore builds a fresh entity from an audit payload keyed by field name.
// Unknown keys are rejected.
func (d *Descriptor) Restore(payload map[string]json.RawMessage) (any, error) {
	e := d.newFn()
	for key, raw := range payload {
		f, ok := d.field(key)
		if !ok {
			return nil, fmt.Errorf("%s has no audited field %q", d.name, key)
		}
		if err := f.set(e, raw); err != nil {
			return nil, fmt.Errorf("restore %s.%s: %w", d.name, key, err)
		}
	}
	return e, nil
}

// Owned returns the owned sub-records currently attached to e.
func (d *Descriptor) Owned(e any) []any {
	var out []any
	for _, o := range d.owned {
		out = append(out, o.children(e)...)
	}
	return out
}

// LinkOwned stamps e's key onto every owned sub-record.
func (d *Descriptor) LinkOwned(e any) {
	for _, o := range d.owned {
		for _, child := range o.children(e) {
			o.link(e, child)
		}
	}
}

func (d *Descriptor) field(name string) (Field, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SoftDeleteFields returns the deletion flag and timestamp of e. ok is false
// when e does not claim the soft-delete contract. A type that claims it but
// exposes only one of the two fields yields ErrSoftDeleteContractViolation.
func SoftDeleteFields(e any) (deleted *bool, deletedAt **time.Time, ok bool, err error) {
	sd, claims := e.(SoftDeletable)
	if !claims {
		return nil, nil, false, nil
	}
	deleted, deletedAt = sd.SoftDeleteFields()
	if deleted == nil || deletedAt == nil {
		return nil, nil, true, apperrors.Wrap(apperrors.ErrSoftDeleteContractViolation,
			fmt.Errorf("%T must expose both a deletion flag and a deletion timestamp", e))
	}
	return deleted, deletedAt, true, nil
}

// detach returns a copy of v that shares no pointer, slice or map storage
// with it.
func detach(v any) any {
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v)).Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	default:
		return v
	}
}

// SameValue reports whether two captured values encode identically.
func SameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}

package testutil

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"labtrack/internal/database"
	"labtrack/internal/tenant"
)

// Binding is one recorded session bind.
type Binding struct {
	LabID       string
	SystemAdmin string
}

// RecordingBinder records the session values it would have written. SQLite
// has no session settings, so tests assert on the recording instead.
type RecordingBinder struct {
	mu    sync.Mutex
	binds []Binding
	// Err, when set, is returned by every Bind.
	Err error
}

var _ database.SessionBinder = (*RecordingBinder)(nil)

// Bind implements database.SessionBinder.
func (b *RecordingBinder) Bind(_ context.Context, _ *gorm.DB, sc *tenant.SecurityContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	lab, admin := database.SessionValues(sc)
	b.binds = append(b.binds, Binding{LabID: lab, SystemAdmin: admin})
	return nil
}

// Bindings returns a copy of the recorded binds.
func (b *RecordingBinder) Bindings() []Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Binding(nil), b.binds...)
}

// Last returns the most recent bind.
func (b *RecordingBinder) Last(t *testing.T) Binding {
	t.Helper()
	binds := b.Bindings()
	if len(binds) == 0 {
		t.Fatal("no session was bound")
	}
	return binds[len(binds)-1]
}

// NewStore returns a store over db with a recording binder.
func NewStore(db *gorm.DB) (*database.Store, *RecordingBinder) {
	binder := &RecordingBinder{}
	return database.NewStore(db, binder), binder
}

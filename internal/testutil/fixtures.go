package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"labtrack/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// FixtureTime is the creation time stamped on fixtures.
var FixtureTime = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

const fixtureActor = "fixture"

func stamp(b *models.Base) {
	b.EnsureID()
	b.StampCreated(fixtureActor, FixtureTime)
}

func create(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to create %T fixture: %v", v, err)
	}
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", nextID()))
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{Email: email, Password: string(hash), DisplayName: "Test User", IsActive: true}
	stamp(&user.Base)
	create(t, db, user)
	return user
}

// CreateTestLab creates an active lab with a unique name.
func CreateTestLab(t *testing.T, db *gorm.DB) *models.Lab {
	t.Helper()

	lab := &models.Lab{Name: fmt.Sprintf("Test Lab %d", nextID()), IsActive: true}
	stamp(&lab.Base)
	create(t, db, lab)
	return lab
}

// CreateTestMembership grants role in lab to user.
func CreateTestMembership(t *testing.T, db *gorm.DB, userID, labID string, role models.Role) *models.UserLab {
	t.Helper()

	m := &models.UserLab{UserID: userID, LabID: labID, Role: role}
	stamp(&m.Base)
	create(t, db, m)
	return m
}

// CreateTestParameter creates a parameter in lab.
func CreateTestParameter(t *testing.T, db *gorm.DB, labID string) *models.Parameter {
	t.Helper()

	n := nextID()
	p := &models.Parameter{LabID: labID, Code: fmt.Sprintf("P%d", n), Name: fmt.Sprintf("Parameter %d", n), Unit: "mg/L"}
	stamp(&p.Base)
	create(t, db, p)
	return p
}

// CreateTestSample creates a received sample with two aliquots in lab.
func CreateTestSample(t *testing.T, db *gorm.DB, labID string) *models.Sample {
	t.Helper()

	n := nextID()
	s := &models.Sample{
		LabID:  labID,
		Code:   fmt.Sprintf("S-%04d", n),
		Name:   fmt.Sprintf("Sample %d", n),
		Matrix: "water",
		Status: models.SampleStatusReceived,
	}
	stamp(&s.Base)
	create(t, db, s)

	for _, label := range []string{"A", "B"} {
		a := &models.SampleAliquot{SampleID: s.ID, Label: label, VolumeML: 5, StorageLocation: "fridge-1"}
		a.EnsureID()
		create(t, db, a)
		s.Aliquots = append(s.Aliquots, *a)
	}
	return s
}

// CreateTestResult records value for parameter on sample.
func CreateTestResult(t *testing.T, db *gorm.DB, sample *models.Sample, parameter *models.Parameter, value float64) *models.TestResult {
	t.Helper()

	r := &models.TestResult{
		LabID:       sample.LabID,
		SampleID:    sample.ID,
		ParameterID: parameter.ID,
		Value:       value,
		Unit:        parameter.Unit,
		MeasuredAt:  FixtureTime,
	}
	stamp(&r.Base)
	create(t, db, r)
	return r
}

package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidators(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	tests := []struct {
		tag   string
		value string
		ok    bool
	}{
		{"lab_role", "viewer", true},
		{"lab_role", "Admin", true},
		{"lab_role", "owner", false},
		{"lab_role", "", false},
		{"entity_type", "Sample", true},
		{"entity_type", "SampleAliquot", false},
		{"entity_type", "sample", false},
		{"audit_action", "Delete", true},
		{"audit_action", "Purge", false},
		{"sample_status", "in_testing", true},
		{"sample_status", "lost", false},
		{"record_code", "W-001", true},
		{"record_code", "pH_2.1", true},
		{"record_code", "-bad", false},
		{"record_code", "has space", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.ok && err != nil {
				t.Errorf("expected %q to pass %s: %v", tt.value, tt.tag, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("expected %q to fail %s", tt.value, tt.tag)
			}
		})
	}
}

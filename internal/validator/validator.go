// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"labtrack/internal/models"
)

// codeRegex matches sample and parameter codes: letters, digits, dot, dash
// and underscore, starting with a letter or digit.
var codeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("lab_role", validateRole)
	_ = v.RegisterValidation("entity_type", validateEntityType)
	_ = v.RegisterValidation("audit_action", validateAuditAction)
	_ = v.RegisterValidation("sample_status", validateSampleStatus)
	_ = v.RegisterValidation("record_code", validateCode)
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := models.ParseRole(fl.Field().String())
	return err == nil
}

func validateEntityType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, t := range models.EntityTypes {
		if string(t) == value {
			return true
		}
	}
	return false
}

func validateAuditAction(fl validator.FieldLevel) bool {
	switch models.AuditAction(fl.Field().String()) {
	case models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete:
		return true
	}
	return false
}

func validateSampleStatus(fl validator.FieldLevel) bool {
	switch models.SampleStatus(fl.Field().String()) {
	case models.SampleStatusReceived, models.SampleStatusInTesting, models.SampleStatusCompleted,
		models.SampleStatusArchived, models.SampleStatusRejected:
		return true
	}
	return false
}

func validateCode(fl validator.FieldLevel) bool {
	return codeRegex.MatchString(fl.Field().String())
}

package database

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"labtrack/internal/entity"
	apperrors "labtrack/internal/errors"
)

// GuardPlugin refuses any hard DELETE of a soft-deletable model, whatever
// code path issued it.
type GuardPlugin struct{}

// Name implements gorm.Plugin.
func (GuardPlugin) Name() string { return "labtrack:delete_guard" }

// Initialize implements gorm.Plugin.
func (GuardPlugin) Initialize(db *gorm.DB) error {
	return db.Callback().Delete().Before("gorm:delete").Register("labtrack:delete_guard", refuseHardDelete)
}

func refuseHardDelete(tx *gorm.DB) {
	if tx.Statement.Schema == nil {
		return
	}
	model := reflect.New(tx.Statement.Schema.ModelType).Interface()
	if _, ok := model.(entity.SoftDeletable); ok {
		_ = tx.AddError(apperrors.Wrap(apperrors.ErrHardDeleteRefused,
			fmt.Errorf("hard delete of soft-deletable %s", tx.Statement.Schema.Name)))
	}
}

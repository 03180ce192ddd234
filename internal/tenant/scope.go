package tenant

import "gorm.io/gorm"

// Scope restricts a query on a lab-owned table to the caller's lab. It runs
// on top of the row-level security policies, not instead of them.
func Scope(sc *SecurityContext) func(*gorm.DB) *gorm.DB {
	return ScopeOn(sc, "lab_id")
}

// ScopeOn is Scope for tables whose lab key lives in column.
func ScopeOn(sc *SecurityContext, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case sc == nil:
			return db.Where("1 = 0")
		case sc.selected != "":
			return db.Where(column+" = ?", sc.selected)
		default:
			return db
		}
	}
}

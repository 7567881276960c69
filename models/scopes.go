package models

import (
	"gorm.io/gorm"
)

// Active restricts a query to rows whose is_active flag is set. Every entity
// carries the same soft-delete flag, so every read path shares this one scope
// instead of re-stating the filter per table.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

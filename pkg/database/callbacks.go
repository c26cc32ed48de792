package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/multidelivery/painel/pkg/metrics"
)

const startKey = "painel:query_start"

// Instrument records every gorm operation in the painel_db_query_duration_seconds
// histogram, labelled by operation.
func Instrument(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		op := h.op
		if err := h.before("painel:metrics_before_"+op, markStart); err != nil {
			return err
		}
		if err := h.after("painel:metrics_after_"+op, func(tx *gorm.DB) {
			if v, ok := tx.InstanceGet(startKey); ok {
				if start, ok := v.(time.Time); ok {
					metrics.ObserveDBQuery(op, start)
				}
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startKey, time.Now())
}

// Package repository implements the durable store access for all entity
// models. Every method runs on the transaction carried in the context when
// one is present, falling back to the repository's own connection otherwise.
package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrStaleVersion signals an optimistic-lock miss: the row was updated or
// removed since it was read. Handlers map it to a conflict response.
var ErrStaleVersion = errors.New("stale entity version")

// applyTimestampRange adds created/modified range conditions for the epoch
// millisecond bounds the query filters expose. Nil bounds are skipped.
func applyTimestampRange(query *gorm.DB, minCreated, maxCreated, minModified, maxModified *int64) *gorm.DB {
	if minCreated != nil {
		query = query.Where("created_at >= ?", time.UnixMilli(*minCreated))
	}
	if maxCreated != nil {
		query = query.Where("created_at <= ?", time.UnixMilli(*maxCreated))
	}
	if minModified != nil {
		query = query.Where("updated_at >= ?", time.UnixMilli(*minModified))
	}
	if maxModified != nil {
		query = query.Where("updated_at <= ?", time.UnixMilli(*maxModified))
	}
	return query
}

package models

import "time"

// Record is the shared header embedded by value in every entity model:
// surrogate identity, optimistic-lock version, and audit timestamps.
// Repositories bump Version on every successful update; an update matching
// zero rows under `WHERE id = ? AND version = ?` signals a lost update and
// surfaces as a conflict.
type Record struct {
	ID        uint      `gorm:"primarykey" json:"identity"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

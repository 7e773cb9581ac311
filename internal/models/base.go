package models

import (
	"strconv"
	"time"
)

// BaseModel defines the common fields for all models.
// Rows are hard-deleted so that ON DELETE CASCADE in the schema applies.
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IDString returns the ID as a string.
func (b *BaseModel) IDString() string {
	return strconv.FormatUint(uint64(b.ID), 10)
}

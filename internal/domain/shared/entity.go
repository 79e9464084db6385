package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is embedded by every mutable row.
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// NewBaseEntity creates an entity with a fresh id
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch updates UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// AppendOnlyEntity is embedded by ledger rows. The database rejects UPDATE
// and DELETE on their tables.
type AppendOnlyEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// NewAppendOnlyEntity creates a ledger row with a fresh id
func NewAppendOnlyEntity() AppendOnlyEntity {
	return AppendOnlyEntity{ID: uuid.New(), CreatedAt: time.Now()}
}

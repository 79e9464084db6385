package shared

// BaseAggregateRoot adds a row version to BaseEntity. Every conditional
// update that touches the row bumps it.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1" json:"version"`
}

// NewBaseAggregateRoot creates an aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the row version
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion bumps the row version
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

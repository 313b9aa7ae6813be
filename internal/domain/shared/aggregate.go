package shared

// AggregateRoot is the base interface for aggregates saved with optimistic locking
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number and touches UpdatedAt
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

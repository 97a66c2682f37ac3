package syncable

import "errors"

// EntityType identifies a synchronizable entity kind.
type EntityType string

const (
	EntityTypeOrder    EntityType = "ORDER"
	EntityTypeMenuItem EntityType = "MENU_ITEM"
)

// Operation is a client-requested mutation kind.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidOperation  = errors.New("invalid operation")

	// ErrNotFound is returned by a versioned repository when the addressed
	// entity does not exist within the tenant.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleVersion is returned when the client's base version is strictly
	// behind the stored version. The device must pull before retrying.
	ErrStaleVersion = errors.New("stale version")
)

func (t EntityType) String() string {
	return string(t)
}

func (o Operation) String() string {
	return string(o)
}

func ParseEntityType(s string) (EntityType, error) {
	switch s {
	case EntityTypeOrder.String():
		return EntityTypeOrder, nil
	case EntityTypeMenuItem.String():
		return EntityTypeMenuItem, nil
	default:
		return "", ErrInvalidEntityType
	}
}

func ParseOperation(s string) (Operation, error) {
	switch s {
	case OperationCreate.String():
		return OperationCreate, nil
	case OperationUpdate.String():
		return OperationUpdate, nil
	case OperationDelete.String():
		return OperationDelete, nil
	default:
		return "", ErrInvalidOperation
	}
}

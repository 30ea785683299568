package orders

// MovementKind names the line-item lifecycle event that moved stock.
type MovementKind string

const (
	MovementCreate MovementKind = "CREATE"
	MovementUpdate MovementKind = "UPDATE"
	MovementDelete MovementKind = "DELETE"
)

var knownKinds = map[MovementKind]bool{
	MovementCreate: true,
	MovementUpdate: true,
	MovementDelete: true,
}

func (k MovementKind) Valid() bool { return knownKinds[k] }

// Adjustment is one committed change to a product's stock.
type Adjustment struct {
	Kind      MovementKind
	ProductID int64
	DetailID  int64
	Delta     int // signed, applied to stock
	Stock     int // stock after the change
}

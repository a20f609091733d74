package types

// ShoppingListItem is one aggregated line of a shopping list.
// Items are grouped by the (Name, MeasurementUnit) pair, so the same
// name under two units yields two items.
type ShoppingListItem struct {
	// Name is the ingredient name.
	Name string `json:"name" db:"name"`

	// MeasurementUnit is the ingredient unit.
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`

	// Amount is the sum of the ingredient amounts across all cart recipes.
	Amount int `json:"amount" db:"amount"`
}

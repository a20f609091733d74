package types

// Ingredient is an entry of the ingredient catalog.
// The pair (Name, MeasurementUnit) is unique across the catalog.
type Ingredient struct {
	// ID is the unique identifier of the ingredient.
	ID int `json:"id" db:"id"`

	// Name is the human-readable ingredient name (e.g., "flour").
	Name string `json:"name" db:"name"`

	// MeasurementUnit is the unit amounts of this ingredient are expressed in
	// (e.g., "g", "ml", "pcs").
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

package models

// DeriveStatus computes a product's availability status from its stock
// quantity and minimum stock level. Status is always derived, never set
// independently: every quantity mutation recomputes it through here.
func DeriveStatus(quantity, minLevel int) string {
	switch {
	case quantity == 0:
		return ProductStatusOutOfStock
	case quantity <= minLevel:
		return ProductStatusLowStock
	default:
		return ProductStatusAvailable
	}
}

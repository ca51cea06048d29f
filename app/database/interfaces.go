package database

type ProductRepository interface {
	GetBySKU(sku string) (*Product, error)

	// TouchLastUpdate refreshes last_update without rewriting any other field.
	TouchLastUpdate(sku string) error

	// UpdateProduct rewrites all mapped fields plus last_update and the update
	// flag, returning the number of rows affected.
	UpdateProduct(sku string, update ProductUpdate) (int64, error)

	GetPendingForFeed(updateFlag int, skuPrefix string) ([]PendingProduct, error)
	ResetUpdateFlag(updateFlag int, skuPrefix string) (int64, error)
}

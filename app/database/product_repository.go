package database

import (
	"database/sql"
	"fmt"
)

// productRepository handles database operations for catalog products
type productRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB) ProductRepository {
	return &productRepository{db: db}
}

// GetBySKU returns the persisted row for a SKU, or nil when absent
func (r *productRepository) GetBySKU(sku string) (*Product, error) {
	var p Product
	err := r.db.QueryRow(`
		SELECT sku, COALESCE(marketplace_sku, ''), COALESCE(supplier_price, 0),
		       COALESCE(quantity, 0), COALESCE(availability, ''), COALESCE(brand, ''),
		       COALESCE(lead_time, 0), COALESCE(lead_time_2, 0),
		       COALESCE(handling_time_amz, 0), COALESCE(update_flag, 0), last_update
		FROM products
		WHERE sku = $1
	`, sku).Scan(
		&p.SKU, &p.MarketplaceSKU, &p.SupplierPrice,
		&p.Quantity, &p.Availability, &p.Brand,
		&p.LeadTime, &p.LeadTime2,
		&p.HandlingTimeAmz, &p.UpdateFlag, &p.LastUpdate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// TouchLastUpdate refreshes last_update for an unchanged row
func (r *productRepository) TouchLastUpdate(sku string) error {
	_, err := r.db.Exec(`
		UPDATE products SET last_update = NOW() WHERE sku = $1
	`, sku)
	if err != nil {
		return fmt.Errorf("failed to touch last update: %w", err)
	}

	return nil
}

// UpdateProduct rewrites all mapped fields plus last_update and the update flag
func (r *productRepository) UpdateProduct(sku string, update ProductUpdate) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE products SET
			supplier_price = $2, quantity = $3, availability = $4, brand = $5,
			lead_time = $6, lead_time_2 = $7, handling_time_amz = $8,
			update_flag = $9, last_update = NOW()
		WHERE sku = $1
	`, sku, update.SupplierPrice, update.Quantity, update.Availability, update.Brand,
		update.LeadTime, update.LeadTime2, update.HandlingTimeAmz, update.UpdateFlag)
	if err != nil {
		return 0, fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected, nil
}

// GetPendingForFeed returns changed rows marked for feed submission
func (r *productRepository) GetPendingForFeed(updateFlag int, skuPrefix string) ([]PendingProduct, error) {
	rows, err := r.db.Query(`
		SELECT marketplace_sku, COALESCE(handling_time_amz, 0), COALESCE(quantity, 0)
		FROM products
		WHERE update_flag = $1 AND marketplace_sku LIKE $2
		ORDER BY marketplace_sku
	`, updateFlag, skuPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get pending products: %w", err)
	}
	defer rows.Close()

	var pending []PendingProduct
	for rows.Next() {
		var p PendingProduct
		if err := rows.Scan(&p.MarketplaceSKU, &p.HandlingTimeAmz, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan pending row: %w", err)
		}
		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending rows: %w", err)
	}

	return pending, nil
}

// ResetUpdateFlag clears the pending marker once a feed run fully succeeded
func (r *productRepository) ResetUpdateFlag(updateFlag int, skuPrefix string) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE products SET update_flag = 0
		WHERE update_flag = $1 AND marketplace_sku LIKE $2
	`, updateFlag, skuPrefix+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to reset update flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected, nil
}

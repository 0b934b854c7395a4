package postgres

import (
	"context"

	"food-order-backend/internal/models"
)

func (db *DB) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY position, name`)
	if err != nil {
		return nil, mapError(err, "query categories")
	}
	cats, err := collect(rows, scanCategory)
	return cats, mapError(err, "scan categories")
}

func (db *DB) AvailableMenuItems(ctx context.Context, categoryID *int64) ([]models.MenuItem, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+menuItemColumns+` `+menuItemFrom+`
		WHERE m.is_active AND m.is_available AND ($1::bigint IS NULL OR m.category_id = $1)
		ORDER BY c.position, m.name`, categoryID)
	if err != nil {
		return nil, mapError(err, "query menu items")
	}
	items, err := collect(rows, scanMenuItem)
	return items, mapError(err, "scan menu items")
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"FinTrack/internal/bankimport"
)

// CategoryStore resolves and creates categories.
type CategoryStore struct {
	store *Store
}

// FindByName returns the category with that name, or nil when none exists.
func (c *CategoryStore) FindByName(ctx context.Context, name string) (*bankimport.Category, error) {
	var category bankimport.Category
	err := c.store.db(ctx).QueryRow(ctx, `
		SELECT id, name, COALESCE(description, '') FROM categories WHERE name = $1
	`, name).Scan(&category.ID, &category.Name, &category.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying category %q: %w", name, err)
	}
	return &category, nil
}

// Create inserts the category. Names are unique; a concurrent create of the
// same name surfaces as a constraint error.
func (c *CategoryStore) Create(ctx context.Context, category *bankimport.Category) (*bankimport.Category, error) {
	err := c.store.db(ctx).QueryRow(ctx, `
		INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id
	`, category.Name, category.Description).Scan(&category.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting category %q: %w", category.Name, err)
	}
	return category, nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// RecipeRepository implements ports.RecipeRepository using SQLite.
type RecipeRepository struct {
	db *DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create persists a new recipe.
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO recipes (id, name, is_deleted, updated_at, data) VALUES (?, ?, ?, ?, ?)",
		idBytes(recipe.ID), recipe.Name, boolInt(recipe.IsDeleted), recipe.UpdatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a recipe by its ID, or nil when it is missing or deleted.
func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM recipes WHERE id = ? AND is_deleted = 0", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var recipe domain.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &recipe, nil
}

// Update updates an existing recipe.
func (r *RecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"UPDATE recipes SET name = ?, is_deleted = ?, updated_at = ?, data = ? WHERE id = ?",
		recipe.Name, boolInt(recipe.IsDeleted), recipe.UpdatedAt.UnixMilli(), data, idBytes(recipe.ID),
	)
	return err
}

// Delete soft-deletes a recipe. Pinned snapshots are unaffected.
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.conn.ExecContext(ctx,
		"UPDATE recipes SET is_deleted = 1, data = json_set(data, '$.is_deleted', json('true')) WHERE id = ?",
		idBytes(id))
	return err
}

// List retrieves all recipes that are not deleted.
func (r *RecipeRepository) List(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT data FROM recipes WHERE is_deleted = 0 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var recipe domain.Recipe
		if err := json.Unmarshal(data, &recipe); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
		}
		recipes = append(recipes, &recipe)
	}
	return recipes, rows.Err()
}

var _ ports.RecipeRepository = (*RecipeRepository)(nil)

// ProductRepository implements ports.ProductRepository using SQLite.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO products (id, name, is_deleted, updated_at, data) VALUES (?, ?, ?, ?, ?)",
		idBytes(product.ID), product.Name, boolInt(product.IsDeleted), product.UpdatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID, or nil when it is missing or deleted.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM products WHERE id = ? AND is_deleted = 0", idBytes(id))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

// Update updates an existing product.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"UPDATE products SET name = ?, is_deleted = ?, updated_at = ?, data = ? WHERE id = ?",
		product.Name, boolInt(product.IsDeleted), product.UpdatedAt.UnixMilli(), data, idBytes(product.ID),
	)
	return err
}

// Delete soft-deletes a product.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.conn.ExecContext(ctx,
		"UPDATE products SET is_deleted = 1, data = json_set(data, '$.is_deleted', json('true')) WHERE id = ?",
		idBytes(id))
	return err
}

// List retrieves all products that are not deleted.
func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT data FROM products WHERE is_deleted = 0 ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var product domain.Product
		if err := json.Unmarshal(data, &product); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product: %w", err)
		}
		products = append(products, &product)
	}
	return products, rows.Err()
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

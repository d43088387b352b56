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

// RecipeSnapshotRepository implements ports.RecipeSnapshotRepository using
// SQLite. Snapshots are append-only; the unique (recipe_id, version) index
// turns a concurrent double-snapshot into a constraint error instead of a
// silent overwrite.
type RecipeSnapshotRepository struct {
	db *DB
}

// NewRecipeSnapshotRepository creates a new recipe snapshot repository.
func NewRecipeSnapshotRepository(db *DB) *RecipeSnapshotRepository {
	return &RecipeSnapshotRepository{db: db}
}

// Create persists a new snapshot version.
func (r *RecipeSnapshotRepository) Create(ctx context.Context, snapshot *domain.RecipeSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe snapshot: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO recipe_snapshots (id, recipe_id, version, created_at, data) VALUES (?, ?, ?, ?, ?)",
		idBytes(snapshot.ID), idBytes(snapshot.OriginalRecipeID), snapshot.Version,
		snapshot.CreatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot by its ID, or nil when none exists.
func (r *RecipeSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecipeSnapshot, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM recipe_snapshots WHERE id = ?", idBytes(id))
	return scanRecipeSnapshot(row)
}

// GetLatest retrieves the highest-version snapshot for a live recipe, or nil
// when none exists.
func (r *RecipeSnapshotRepository) GetLatest(ctx context.Context, recipeID uuid.UUID) (*domain.RecipeSnapshot, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM recipe_snapshots WHERE recipe_id = ? ORDER BY version DESC LIMIT 1",
		idBytes(recipeID))
	return scanRecipeSnapshot(row)
}

// ListByRecipe retrieves all snapshot versions of a recipe, newest first.
func (r *RecipeSnapshotRepository) ListByRecipe(ctx context.Context, recipeID uuid.UUID) ([]*domain.RecipeSnapshot, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT data FROM recipe_snapshots WHERE recipe_id = ? ORDER BY version DESC",
		idBytes(recipeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.RecipeSnapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var snapshot domain.RecipeSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, rows.Err()
}

func scanRecipeSnapshot(row *sql.Row) (*domain.RecipeSnapshot, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.RecipeSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe snapshot: %w", err)
	}
	return &snapshot, nil
}

var _ ports.RecipeSnapshotRepository = (*RecipeSnapshotRepository)(nil)

// ProductSnapshotRepository implements ports.ProductSnapshotRepository using
// SQLite.
type ProductSnapshotRepository struct {
	db *DB
}

// NewProductSnapshotRepository creates a new product snapshot repository.
func NewProductSnapshotRepository(db *DB) *ProductSnapshotRepository {
	return &ProductSnapshotRepository{db: db}
}

// Create persists a new snapshot version.
func (r *ProductSnapshotRepository) Create(ctx context.Context, snapshot *domain.ProductSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal product snapshot: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx,
		"INSERT INTO product_snapshots (id, product_id, version, created_at, data) VALUES (?, ?, ?, ?, ?)",
		idBytes(snapshot.ID), idBytes(snapshot.OriginalProductID), snapshot.Version,
		snapshot.CreatedAt.UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product snapshot: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot by its ID, or nil when none exists.
func (r *ProductSnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSnapshot, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM product_snapshots WHERE id = ?", idBytes(id))
	return scanProductSnapshot(row)
}

// GetLatest retrieves the highest-version snapshot for a live product, or nil
// when none exists.
func (r *ProductSnapshotRepository) GetLatest(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT data FROM product_snapshots WHERE product_id = ? ORDER BY version DESC LIMIT 1",
		idBytes(productID))
	return scanProductSnapshot(row)
}

func scanProductSnapshot(row *sql.Row) (*domain.ProductSnapshot, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot domain.ProductSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product snapshot: %w", err)
	}
	return &snapshot, nil
}

var _ ports.ProductSnapshotRepository = (*ProductSnapshotRepository)(nil)

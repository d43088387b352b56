package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// SnapshotService creates and reuses immutable, versioned copies of recipes
// and products. Snapshot creation is append-only: prior versions are never
// mutated or deleted, so past production runs stay reproducible.
type SnapshotService struct {
	recipeRepo      ports.RecipeRepository
	productRepo     ports.ProductRepository
	recipeSnapRepo  ports.RecipeSnapshotRepository
	productSnapRepo ports.ProductSnapshotRepository
	logger          ports.Logger
}

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(
	recipeRepo ports.RecipeRepository,
	productRepo ports.ProductRepository,
	recipeSnapRepo ports.RecipeSnapshotRepository,
	productSnapRepo ports.ProductSnapshotRepository,
	logger ports.Logger,
) *SnapshotService {
	return &SnapshotService{
		recipeRepo:      recipeRepo,
		productRepo:     productRepo,
		recipeSnapRepo:  recipeSnapRepo,
		productSnapRepo: productSnapRepo,
		logger:          logger,
	}
}

// GetOrCreateRecipeSnapshot returns the latest snapshot of a recipe if it is
// still faithful to the live definition, otherwise creates the next version.
// A snapshot is faithful when it was taken at or after the recipe's last
// edit.
func (s *SnapshotService) GetOrCreateRecipeSnapshot(ctx context.Context, recipeID uuid.UUID) (*domain.RecipeSnapshot, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe == nil {
		return nil, &domain.NotFoundError{Kind: "recipe", ID: recipeID}
	}

	// Snapshots copy an already-valid graph, but re-check defensively:
	// concurrent edits between save-time validation and snapshotting must
	// never pin a broken graph.
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	latest, err := s.recipeSnapRepo.GetLatest(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	if latest != nil && !latest.CreatedAt.Before(recipe.UpdatedAt) {
		s.logger.Debug("Recipe snapshot cache hit", "recipe", recipeID, "version", latest.Version)
		return latest, nil
	}

	version := 1
	if latest != nil {
		version = latest.Version + 1
	}

	snapshot := domain.SnapshotRecipe(recipe, version)
	if err := s.recipeSnapRepo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist recipe snapshot: %w", err)
	}

	s.logger.Info("Recipe snapshot created", "recipe", recipeID, "snapshot", snapshot.ID, "version", version)
	return snapshot, nil
}

// GetOrCreateProductSnapshot returns a faithful product snapshot or creates
// the next version. Every referenced recipe is snapshotted (or reused) first
// so the product snapshot's references are always resolved before it is
// persisted, producing a consistent point-in-time bundle.
func (s *SnapshotService) GetOrCreateProductSnapshot(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Kind: "product", ID: productID}
	}

	resolved := make(map[uuid.UUID]uuid.UUID, len(product.Recipes))
	for _, ref := range product.Recipes {
		snap, err := s.GetOrCreateRecipeSnapshot(ctx, ref.RecipeID)
		if err != nil {
			return nil, err
		}
		resolved[ref.RecipeID] = snap.ID
	}

	latest, err := s.productSnapRepo.GetLatest(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest product snapshot: %w", err)
	}

	// Reuse only when the product itself is unchanged and every reference
	// still resolves to the recipe snapshot pinned in the bundle. An edited
	// recipe mints a new recipe snapshot, so its resolved ID stops matching.
	if latest != nil && !latest.CreatedAt.Before(product.UpdatedAt) &&
		snapshotReferencesMatch(latest, resolved) {
		s.logger.Debug("Product snapshot cache hit", "product", productID, "version", latest.Version)
		return latest, nil
	}

	version := 1
	if latest != nil {
		version = latest.Version + 1
	}

	snapshot := domain.SnapshotProduct(product, version, resolved)
	if err := s.productSnapRepo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist product snapshot: %w", err)
	}

	s.logger.Info("Product snapshot created", "product", productID, "snapshot", snapshot.ID, "version", version)
	return snapshot, nil
}

func snapshotReferencesMatch(snapshot *domain.ProductSnapshot, resolved map[uuid.UUID]uuid.UUID) bool {
	if len(snapshot.Recipes) != len(resolved) {
		return false
	}
	for _, ref := range snapshot.Recipes {
		if resolved[ref.RecipeID] != ref.RecipeSnapshotID {
			return false
		}
	}
	return true
}

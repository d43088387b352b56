package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
)

func seedRecipe(t *testing.T, e *env) *domain.Recipe {
	t.Helper()
	recipe := domain.NewRecipe("gearbox", "")
	mill := recipe.AddStep("mill", 1, uuid.New(), 20*time.Minute, nil)
	drill := recipe.AddStep("drill", 2, uuid.New(), 10*time.Minute, []uuid.UUID{mill.ID})
	recipe.AddStep("assemble", 3, uuid.New(), 15*time.Minute, []uuid.UUID{drill.ID})
	if err := e.recipes.SaveRecipe(context.Background(), recipe); err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}
	return recipe
}

func TestRecipeSnapshotCacheHit(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	recipe := seedRecipe(t, e)

	first, err := e.snapshots.GetOrCreateRecipeSnapshot(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("expected version 1, got %d", first.Version)
	}

	second, err := e.snapshots.GetOrCreateRecipeSnapshot(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}
	if second.ID != first.ID || second.Version != first.Version {
		t.Error("unchanged recipe must reuse the existing snapshot")
	}
	if len(e.recipeSnapRepo.snapshots) != 1 {
		t.Errorf("expected exactly one stored snapshot, got %d", len(e.recipeSnapRepo.snapshots))
	}
}

func TestRecipeSnapshotCacheMiss(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	recipe := seedRecipe(t, e)

	first, err := e.snapshots.GetOrCreateRecipeSnapshot(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}

	// Edit the live recipe after the snapshot was taken.
	recipe.Steps[0].EstimatedDuration = 25 * time.Minute
	recipe.UpdatedAt = first.CreatedAt.Add(time.Second)
	if err := e.recipeRepo.Update(ctx, recipe); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	second, err := e.snapshots.GetOrCreateRecipeSnapshot(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}
	if second.Version != first.Version+1 {
		t.Errorf("expected version %d, got %d", first.Version+1, second.Version)
	}

	// The prior version must remain retrievable, unchanged.
	stored, err := e.recipeSnapRepo.GetByID(ctx, first.ID)
	if err != nil || stored == nil {
		t.Fatal("prior snapshot version must remain retrievable")
	}
	if stored.Version != 1 || stored.Steps[0].EstimatedDuration != 20*time.Minute {
		t.Error("prior snapshot version must be unchanged")
	}
}

func TestRecipeSnapshotUnknownRecipe(t *testing.T) {
	e := newEnv()

	_, err := e.snapshots.GetOrCreateRecipeSnapshot(context.Background(), uuid.New())
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestProductSnapshotResolvesRecipesFirst(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	frame := seedRecipe(t, e)
	wheel := seedRecipe(t, e)

	product := domain.NewProduct("bike", "")
	product.AddRecipe(frame.ID, 1)
	product.AddRecipe(wheel.ID, 2)
	if err := e.recipes.SaveProduct(ctx, product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	snapshot, err := e.snapshots.GetOrCreateProductSnapshot(ctx, product.ID)
	if err != nil {
		t.Fatalf("product snapshot failed: %v", err)
	}
	if snapshot.Version != 1 {
		t.Errorf("expected version 1, got %d", snapshot.Version)
	}

	// Every reference must point at a persisted recipe snapshot.
	for _, ref := range snapshot.Recipes {
		stored, err := e.recipeSnapRepo.GetByID(ctx, ref.RecipeSnapshotID)
		if err != nil || stored == nil {
			t.Fatalf("recipe snapshot %s must be persisted before the product snapshot", ref.RecipeSnapshotID)
		}
	}
}

func TestProductSnapshotCacheHitAndMiss(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	frame := seedRecipe(t, e)

	product := domain.NewProduct("cart", "")
	product.AddRecipe(frame.ID, 1)
	if err := e.recipes.SaveProduct(ctx, product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	first, err := e.snapshots.GetOrCreateProductSnapshot(ctx, product.ID)
	if err != nil {
		t.Fatalf("first product snapshot failed: %v", err)
	}

	second, err := e.snapshots.GetOrCreateProductSnapshot(ctx, product.ID)
	if err != nil {
		t.Fatalf("second product snapshot failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("unchanged product must reuse the existing snapshot")
	}
	if len(e.productSnapRepo.snapshots) != 1 {
		t.Errorf("expected exactly one stored snapshot, got %d", len(e.productSnapRepo.snapshots))
	}

	// Editing a constituent recipe invalidates the bundle.
	frame.UpdatedAt = time.Now().Add(time.Second)
	if err := e.recipeRepo.Update(ctx, frame); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	third, err := e.snapshots.GetOrCreateProductSnapshot(ctx, product.ID)
	if err != nil {
		t.Fatalf("third product snapshot failed: %v", err)
	}
	if third.Version != first.Version+1 {
		t.Errorf("expected version %d after recipe edit, got %d", first.Version+1, third.Version)
	}
}

func TestSnapshotRevalidatesDefensively(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	recipe := seedRecipe(t, e)

	// Corrupt the stored graph behind the service's back.
	recipe.Steps[0].DependsOn = []uuid.UUID{recipe.Steps[2].ID}

	_, err := e.snapshots.GetOrCreateRecipeSnapshot(ctx, recipe.ID)
	var cycleErr *domain.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError from defensive re-validation, got %v", err)
	}
}

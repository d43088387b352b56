package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
)

func TestSaveRecipeRejectsCycle(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	recipe := domain.NewRecipe("broken", "")
	a := recipe.AddStep("a", 1, uuid.New(), time.Minute, nil)
	b := recipe.AddStep("b", 2, uuid.New(), time.Minute, []uuid.UUID{a.ID})
	recipe.Steps[0].DependsOn = []uuid.UUID{b.ID}

	err := e.recipes.SaveRecipe(ctx, recipe)
	var cycle *domain.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}

	if stored, _ := e.recipeRepo.GetByID(ctx, recipe.ID); stored != nil {
		t.Error("a rejected recipe must not be persisted")
	}
}

func TestSaveRecipeRecomputesDuration(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	recipe := domain.NewRecipe("gearbox", "")
	recipe.AddStep("mill", 1, uuid.New(), 20*time.Minute, nil)
	recipe.AddStep("drill", 2, uuid.New(), 10*time.Minute, nil)
	recipe.EstimatedDuration = time.Hour // stale

	if err := e.recipes.SaveRecipe(ctx, recipe); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, _ := e.recipeRepo.GetByID(ctx, recipe.ID)
	if stored.EstimatedDuration != 30*time.Minute {
		t.Errorf("expected derived duration 30m, got %v", stored.EstimatedDuration)
	}
}

func TestSaveSurfacesRepositoryErrors(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	recipe := seedRecipe(t, e)

	// A failing existence check must abort the save, not route a frequently
	// updated recipe into the create path.
	e.recipeRepo.getErr = errors.New("connection reset")
	if err := e.recipes.SaveRecipe(ctx, recipe); !errors.Is(err, e.recipeRepo.getErr) {
		t.Fatalf("expected the repository error to surface, got %v", err)
	}
	e.recipeRepo.getErr = nil

	product := domain.NewProduct("cart", "")
	product.AddRecipe(recipe.ID, 1)
	e.productRepo.getErr = errors.New("connection reset")
	if err := e.recipes.SaveProduct(ctx, product); !errors.Is(err, e.productRepo.getErr) {
		t.Fatalf("expected the repository error to surface, got %v", err)
	}
	if stored, _ := e.productRepo.GetByID(ctx, product.ID); stored != nil {
		t.Error("a failed save must not persist the product")
	}
}

func TestSaveProductRejectsUnknownRecipe(t *testing.T) {
	e := newEnv()
	product := domain.NewProduct("cart", "")
	product.AddRecipe(uuid.New(), 2)

	err := e.recipes.SaveProduct(context.Background(), product)
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSaveProductRejectsZeroQuantity(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	recipe := seedRecipe(t, e)

	product := domain.NewProduct("cart", "")
	product.AddRecipe(recipe.ID, 0)

	if err := e.recipes.SaveProduct(ctx, product); err == nil {
		t.Fatal("expected rejection of zero quantity")
	}
}

func TestImportFromFile(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	millType := uuid.New()
	drillType := uuid.New()
	content := `
name: gearbox
description: two-step gearbox
steps:
  - order: 1
    name: mill
    device_type_id: ` + millType.String() + `
    estimated_duration: 20m
  - order: 2
    name: drill
    device_type_id: ` + drillType.String() + `
    estimated_duration: 10m
    depends_on: [1]
`
	path := filepath.Join(t.TempDir(), "gearbox.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	recipe, err := e.recipes.ImportFromFile(ctx, path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if len(recipe.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(recipe.Steps))
	}
	if recipe.EstimatedDuration != 30*time.Minute {
		t.Errorf("expected derived duration 30m, got %v", recipe.EstimatedDuration)
	}

	var mill, drill *domain.RecipeStep
	for i := range recipe.Steps {
		switch recipe.Steps[i].Order {
		case 1:
			mill = &recipe.Steps[i]
		case 2:
			drill = &recipe.Steps[i]
		}
	}
	if mill == nil || drill == nil {
		t.Fatal("expected steps at orders 1 and 2")
	}
	if len(drill.DependsOn) != 1 || drill.DependsOn[0] != mill.ID {
		t.Error("order-based dependency must resolve to the step ID")
	}
	if drill.DeviceTypeID != drillType {
		t.Error("device type must round-trip")
	}

	if stored, _ := e.recipeRepo.GetByID(ctx, recipe.ID); stored == nil {
		t.Error("imported recipe must be persisted")
	}
}

func TestImportFromFileRejectsUnknownDependency(t *testing.T) {
	e := newEnv()
	content := `
name: broken
steps:
  - order: 1
    name: mill
    device_type_id: ` + uuid.New().String() + `
    estimated_duration: 5m
    depends_on: [9]
`
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := e.recipes.ImportFromFile(context.Background(), path); err == nil {
		t.Fatal("expected rejection of unknown depends_on order")
	}
}

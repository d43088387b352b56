package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/plantline/plantline/internal/core/domain"
)

func TestExpandRecipeCardinality(t *testing.T) {
	e := newEnv()
	recipe := seedRecipe(t, e) // 3 steps
	snapshot := domain.SnapshotRecipe(recipe, 1)
	project := domain.NewRecipeProject("run", recipe.ID, 4)
	project.Priority = 2

	expansion, err := e.expander.ExpandRecipe(project, snapshot)
	if err != nil {
		t.Fatalf("expansion failed: %v", err)
	}

	if len(expansion.Tasks) != 12 {
		t.Fatalf("expected 3 steps x 4 executions = 12 tasks, got %d", len(expansion.Tasks))
	}

	byExecution := make(map[int][]*domain.Task)
	for _, task := range expansion.Tasks {
		byExecution[task.ExecutionNumber] = append(byExecution[task.ExecutionNumber], task)

		if task.Status != domain.TaskStatusPending {
			t.Errorf("new tasks must be PENDING, got %s", task.Status)
		}
		if task.TotalExecutions != 4 {
			t.Errorf("expected total executions 4, got %d", task.TotalExecutions)
		}
		if task.Priority != 2 {
			t.Errorf("priority must be inherited from the project, got %d", task.Priority)
		}
		if task.DeviceTypeID == uuid.Nil {
			t.Error("every task must carry the step's device type")
		}
	}

	for execution, chain := range byExecution {
		if len(chain) != 3 {
			t.Fatalf("execution %d: expected chain of 3, got %d", execution, len(chain))
		}
		// Tasks are generated in step order: first has no dependency, each
		// subsequent one depends on its predecessor.
		if chain[0].DependentTaskID != nil {
			t.Error("first step of an execution must have no dependent task")
		}
		for i := 1; i < len(chain); i++ {
			if chain[i].DependentTaskID == nil || *chain[i].DependentTaskID != chain[i-1].ID {
				t.Errorf("execution %d step %d must depend on the previous step's task", execution, i)
			}
		}
		if !chain[len(chain)-1].IsLastStepInRecipe {
			t.Error("highest-order step must be flagged as last in recipe")
		}
		if chain[0].IsLastStepInRecipe || chain[1].IsLastStepInRecipe {
			t.Error("only the terminal step may be flagged as last in recipe")
		}
	}
}

func TestExpandRecipeDuplicateOrderSingleTerminal(t *testing.T) {
	e := newEnv()

	// Two steps sharing the highest order number: the chain must still end
	// in exactly one terminal task, or completion accounting double-counts.
	recipe := domain.NewRecipe("plated", "")
	recipe.AddStep("cut", 1, uuid.New(), 0, nil)
	recipe.AddStep("plate left", 2, uuid.New(), 0, nil)
	recipe.AddStep("plate right", 2, uuid.New(), 0, nil)
	snapshot := domain.SnapshotRecipe(recipe, 1)
	project := domain.NewRecipeProject("run", recipe.ID, 2)

	expansion, err := e.expander.ExpandRecipe(project, snapshot)
	if err != nil {
		t.Fatalf("expansion failed: %v", err)
	}

	terminalsByExecution := make(map[int]int)
	for _, task := range expansion.Tasks {
		if task.IsLastStepInRecipe {
			terminalsByExecution[task.ExecutionNumber]++
			if task.Name != "plate right" {
				t.Errorf("the later of two tied steps must be terminal, got %q", task.Name)
			}
		}
	}
	for execution := 1; execution <= 2; execution++ {
		if terminalsByExecution[execution] != 1 {
			t.Errorf("execution %d: expected exactly one terminal task, got %d",
				execution, terminalsByExecution[execution])
		}
	}
}

func TestExpandRecipeMissingDeviceType(t *testing.T) {
	e := newEnv()
	recipe := seedRecipe(t, e)
	recipe.Steps[1].DeviceTypeID = uuid.Nil
	snapshot := domain.SnapshotRecipe(recipe, 1)
	project := domain.NewRecipeProject("run", recipe.ID, 2)

	_, err := e.expander.ExpandRecipe(project, snapshot)
	var missing *domain.MissingDeviceTypeError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingDeviceTypeError, got %v", err)
	}
	if missing.StepOrder != 2 {
		t.Errorf("error must name the offending step, got order %d", missing.StepOrder)
	}
}

func TestExpandProductMultipliers(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	frame := seedRecipe(t, e)
	wheel := seedRecipe(t, e)

	frameSnap := domain.SnapshotRecipe(frame, 1)
	wheelSnap := domain.SnapshotRecipe(wheel, 1)
	if err := e.recipeSnapRepo.Create(ctx, frameSnap); err != nil {
		t.Fatal(err)
	}
	if err := e.recipeSnapRepo.Create(ctx, wheelSnap); err != nil {
		t.Fatal(err)
	}

	product := domain.NewProduct("bike", "")
	product.AddRecipe(frame.ID, 1)
	product.AddRecipe(wheel.ID, 2)
	productSnap := domain.SnapshotProduct(product, 1, map[uuid.UUID]uuid.UUID{
		frame.ID: frameSnap.ID,
		wheel.ID: wheelSnap.ID,
	})

	project := domain.NewProductProject("bikes", product.ID, 5)

	expansions, err := e.expander.ExpandProduct(ctx, project, productSnap)
	if err != nil {
		t.Fatalf("product expansion failed: %v", err)
	}
	if len(expansions) != 2 {
		t.Fatalf("expected one expansion per recipe ref, got %d", len(expansions))
	}

	// frame: 5 * 1 executions * 3 steps; wheel: 5 * 2 executions * 3 steps.
	if got := len(expansions[0].Tasks); got != 15 {
		t.Errorf("frame family: expected 15 tasks, got %d", got)
	}
	if got := len(expansions[1].Tasks); got != 30 {
		t.Errorf("wheel family: expected 30 tasks, got %d", got)
	}

	for _, expansion := range expansions {
		for _, task := range expansion.Tasks {
			if task.ProductID == nil || *task.ProductID != product.ID {
				t.Fatal("product tasks must be tagged with the owning product")
			}
			if task.ProductSnapshotID == nil || *task.ProductSnapshotID != productSnap.ID {
				t.Fatal("product tasks must be tagged with the product snapshot")
			}
		}
	}
}

func TestExpandProductUnknownSnapshot(t *testing.T) {
	e := newEnv()
	product := domain.NewProduct("ghost", "")
	product.AddRecipe(uuid.New(), 1)
	productSnap := domain.SnapshotProduct(product, 1, map[uuid.UUID]uuid.UUID{
		product.Recipes[0].RecipeID: uuid.New(),
	})
	project := domain.NewProductProject("run", product.ID, 1)

	_, err := e.expander.ExpandProduct(context.Background(), project, productSnap)
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
}

func TestGroupByDeviceType(t *testing.T) {
	e := newEnv()
	recipe := seedRecipe(t, e)
	// Give two steps the same device type.
	recipe.Steps[1].DeviceTypeID = recipe.Steps[0].DeviceTypeID
	snapshot := domain.SnapshotRecipe(recipe, 1)
	project := domain.NewRecipeProject("run", recipe.ID, 3)

	expansion, err := e.expander.ExpandRecipe(project, snapshot)
	if err != nil {
		t.Fatalf("expansion failed: %v", err)
	}

	counts := GroupByDeviceType([]*RecipeExpansion{expansion})
	if len(counts) != 2 {
		t.Fatalf("expected 2 device types, got %d", len(counts))
	}
	if counts[recipe.Steps[0].DeviceTypeID] != 6 {
		t.Errorf("expected 6 tasks for the shared device type, got %d", counts[recipe.Steps[0].DeviceTypeID])
	}
	if counts[recipe.Steps[2].DeviceTypeID] != 3 {
		t.Errorf("expected 3 tasks for the terminal device type, got %d", counts[recipe.Steps[2].DeviceTypeID])
	}
}

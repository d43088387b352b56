package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// RecipeService manages live recipe and product definitions. Every save
// re-validates the step graph and re-derives the recipe's estimated
// duration; there are no implicit persistence hooks.
type RecipeService struct {
	recipeRepo  ports.RecipeRepository
	productRepo ports.ProductRepository
	logger      ports.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(recipeRepo ports.RecipeRepository, productRepo ports.ProductRepository, logger ports.Logger) *RecipeService {
	return &RecipeService{
		recipeRepo:  recipeRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// SaveRecipe validates and persists a recipe, creating it when it does not
// exist yet. Authoring errors (cycles, dangling references) block the save.
func (s *RecipeService) SaveRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return err
	}
	recipe.RecomputeDuration()
	recipe.UpdatedAt = time.Now()

	existing, err := s.recipeRepo.GetByID(ctx, recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}
	if existing == nil {
		if err := s.recipeRepo.Create(ctx, recipe); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		s.logger.Info("Recipe created", "id", recipe.ID, "name", recipe.Name, "steps", len(recipe.Steps))
		return nil
	}

	if err := s.recipeRepo.Update(ctx, recipe); err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	s.logger.Info("Recipe updated", "id", recipe.ID, "name", recipe.Name, "steps", len(recipe.Steps))
	return nil
}

// GetRecipe retrieves a recipe by ID.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, &domain.NotFoundError{Kind: "recipe", ID: id}
	}
	return recipe, nil
}

// ListRecipes lists all live recipes.
func (s *RecipeService) ListRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	return s.recipeRepo.List(ctx)
}

// GetProduct retrieves a product by ID.
func (s *RecipeService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Kind: "product", ID: id}
	}
	return product, nil
}

// ListProducts lists all live products.
func (s *RecipeService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}

// SaveProduct persists a product after checking that every referenced recipe
// exists.
func (s *RecipeService) SaveProduct(ctx context.Context, product *domain.Product) error {
	for _, ref := range product.Recipes {
		recipe, err := s.recipeRepo.GetByID(ctx, ref.RecipeID)
		if err != nil {
			return fmt.Errorf("failed to load recipe: %w", err)
		}
		if recipe == nil {
			return &domain.NotFoundError{Kind: "recipe", ID: ref.RecipeID}
		}
		if ref.Quantity < 1 {
			return fmt.Errorf("recipe %s has invalid quantity %d", ref.RecipeID, ref.Quantity)
		}
	}
	product.UpdatedAt = time.Now()

	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if existing == nil {
		if err := s.productRepo.Create(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		s.logger.Info("Product created", "id", product.ID, "name", product.Name)
		return nil
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.logger.Info("Product updated", "id", product.ID, "name", product.Name)
	return nil
}

// recipeFile is the YAML shape of an importable recipe definition. Step
// dependencies are expressed by order number and resolved to step IDs after
// parsing.
type recipeFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []struct {
		Order             int                   `yaml:"order"`
		Name              string                `yaml:"name"`
		DeviceTypeID      string                `yaml:"device_type_id"`
		EstimatedDuration yamlDuration          `yaml:"estimated_duration"`
		DependsOn         []int                 `yaml:"depends_on"`
		QualityChecks     []domain.QualityCheck `yaml:"quality_checks"`
	} `yaml:"steps"`
}

// yamlDuration accepts Go duration strings like "20m" or "1h30m".
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = yamlDuration(parsed)
	return nil
}

// ImportFromFile loads a recipe definition from a YAML file, validates it,
// and saves it.
func (s *RecipeService) ImportFromFile(ctx context.Context, path string) (*domain.Recipe, error) {
	recipe, err := ParseRecipeFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.SaveRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// ParseRecipeFile parses a YAML recipe definition without persisting it.
// Step dependencies in the file refer to step order numbers and are resolved
// to step IDs here.
func ParseRecipeFile(path string) (*domain.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var file recipeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recipe YAML: %w", err)
	}

	recipe := domain.NewRecipe(file.Name, file.Description)
	idByOrder := make(map[int]uuid.UUID, len(file.Steps))
	for _, fs := range file.Steps {
		deviceTypeID, err := uuid.Parse(fs.DeviceTypeID)
		if err != nil {
			return nil, fmt.Errorf("step %d has invalid device_type_id: %w", fs.Order, err)
		}
		step := recipe.AddStep(fs.Name, fs.Order, deviceTypeID, time.Duration(fs.EstimatedDuration), nil)
		step.QualityChecks = fs.QualityChecks
		idByOrder[fs.Order] = step.ID
	}

	for i, fs := range file.Steps {
		for _, depOrder := range fs.DependsOn {
			depID, ok := idByOrder[depOrder]
			if !ok {
				return nil, fmt.Errorf("step %d depends on unknown step order %d", fs.Order, depOrder)
			}
			recipe.Steps[i].DependsOn = append(recipe.Steps[i].DependsOn, depID)
		}
	}
	return recipe, nil
}

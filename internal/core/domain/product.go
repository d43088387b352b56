package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductRecipeRef binds a recipe to a product with a per-unit multiplier:
// Quantity is how many times the recipe must run for one unit of product.
type ProductRecipeRef struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	Quantity int       `json:"quantity"`
}

// Product bundles several recipes into one sellable unit.
type Product struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Recipes     []ProductRecipeRef `json:"recipes"`
	IsDeleted   bool               `json:"is_deleted"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewProduct creates an empty product.
func NewProduct(name, description string) *Product {
	now := time.Now()
	return &Product{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        name,
		Description: description,
		Recipes:     []ProductRecipeRef{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddRecipe appends a recipe reference with its per-unit quantity.
func (p *Product) AddRecipe(recipeID uuid.UUID, quantity int) {
	p.Recipes = append(p.Recipes, ProductRecipeRef{RecipeID: recipeID, Quantity: quantity})
	p.UpdatedAt = time.Now()
}

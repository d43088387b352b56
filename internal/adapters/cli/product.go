package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/core/domain"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage product definitions",
	Long:  `Create and inspect products, which bundle recipes with quantities.`,
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE:  runProductList,
}

var productShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a product with its recipe references",
	Args:  cobra.ExactArgs(1),
	RunE:  runProductShow,
}

var productCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a product",
	Long: `Create a product from recipe references.

Each --recipe flag takes the form <recipe-id>:<quantity>, for example:

  plantline product create "Cart" --recipe 018f...:1 --recipe 0190...:4`,
	Args: cobra.ExactArgs(1),
	RunE: runProductCreate,
}

var (
	productDescription string
	productRecipeRefs  []string
)

func init() {
	productCmd.AddCommand(productListCmd)
	productCmd.AddCommand(productShowCmd)
	productCmd.AddCommand(productCreateCmd)

	productCreateCmd.Flags().StringVar(&productDescription, "description", "", "Product description")
	productCreateCmd.Flags().StringArrayVar(&productRecipeRefs, "recipe", nil, "Recipe reference as <recipe-id>:<quantity> (repeatable)")
	_ = productCreateCmd.MarkFlagRequired("recipe")
}

func runProductList(cmd *cobra.Command, args []string) error {
	var products []*domain.Product
	if err := newAPIClient().get("/api/v1/products", &products); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRECIPES")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, p.Name, len(p.Recipes))
	}
	return w.Flush()
}

func runProductShow(cmd *cobra.Command, args []string) error {
	var product domain.Product
	if err := newAPIClient().get("/api/v1/products/"+args[0], &product); err != nil {
		return err
	}

	fmt.Printf("Product: %s\n", product.Name)
	fmt.Printf("  ID: %s\n", product.ID)
	if product.Description != "" {
		fmt.Printf("  Description: %s\n", product.Description)
	}
	fmt.Printf("  Recipes:\n")
	for _, ref := range product.Recipes {
		fmt.Printf("    %s x%d\n", ref.RecipeID, ref.Quantity)
	}
	return nil
}

func runProductCreate(cmd *cobra.Command, args []string) error {
	product := domain.NewProduct(args[0], productDescription)
	for _, raw := range productRecipeRefs {
		idPart, quantity, err := splitRecipeRef(raw)
		if err != nil {
			return err
		}
		recipeID, err := uuid.Parse(idPart)
		if err != nil {
			return fmt.Errorf("invalid recipe id %q: %w", idPart, err)
		}
		product.AddRecipe(recipeID, quantity)
	}

	var saved domain.Product
	if err := newAPIClient().post("/api/v1/products", product, &saved); err != nil {
		return err
	}

	fmt.Printf("Created product %q with %d recipes\n", saved.Name, len(saved.Recipes))
	fmt.Printf("  ID: %s\n", saved.ID)
	return nil
}

func splitRecipeRef(raw string) (string, int, error) {
	sep := strings.LastIndex(raw, ":")
	if sep < 0 {
		return "", 0, fmt.Errorf("recipe reference %q must be <recipe-id>:<quantity>", raw)
	}

	quantity, err := strconv.Atoi(raw[sep+1:])
	if err != nil {
		return "", 0, fmt.Errorf("recipe reference %q has invalid quantity: %w", raw, err)
	}
	return raw[:sep], quantity, nil
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/services"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipe definitions",
	Long:  `Import, validate, and inspect recipe definitions.`,
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes",
	RunE:  runRecipeList,
}

var recipeShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a recipe with its steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeShow,
}

var recipeImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a recipe from a YAML file",
	Long:  `Parse a YAML recipe definition and save it through the daemon.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeImport,
}

var recipeValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a recipe YAML file without saving it",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeValidate,
}

func init() {
	recipeCmd.AddCommand(recipeListCmd)
	recipeCmd.AddCommand(recipeShowCmd)
	recipeCmd.AddCommand(recipeImportCmd)
	recipeCmd.AddCommand(recipeValidateCmd)
}

func runRecipeList(cmd *cobra.Command, args []string) error {
	var recipes []*domain.Recipe
	if err := newAPIClient().get("/api/v1/recipes", &recipes); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTEPS\tEST. DURATION")
	for _, r := range recipes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Name, len(r.Steps), r.EstimatedDuration)
	}
	return w.Flush()
}

func runRecipeShow(cmd *cobra.Command, args []string) error {
	var recipe domain.Recipe
	if err := newAPIClient().get("/api/v1/recipes/"+args[0], &recipe); err != nil {
		return err
	}

	fmt.Printf("Recipe: %s\n", recipe.Name)
	fmt.Printf("  ID:          %s\n", recipe.ID)
	if recipe.Description != "" {
		fmt.Printf("  Description: %s\n", recipe.Description)
	}
	fmt.Printf("  Duration:    %s\n", recipe.EstimatedDuration)
	fmt.Printf("  Steps:\n")
	for _, step := range recipe.Steps {
		fmt.Printf("    %2d. %s (%s, device type %s", step.Order, step.Name, step.EstimatedDuration, step.DeviceTypeID)
		if len(step.DependsOn) > 0 {
			fmt.Printf(", %d dependencies", len(step.DependsOn))
		}
		fmt.Println(")")
	}
	return nil
}

func runRecipeImport(cmd *cobra.Command, args []string) error {
	recipe, err := services.ParseRecipeFile(args[0])
	if err != nil {
		return err
	}

	var saved domain.Recipe
	if err := newAPIClient().post("/api/v1/recipes", recipe, &saved); err != nil {
		return err
	}

	fmt.Printf("Imported recipe %q (%d steps)\n", saved.Name, len(saved.Steps))
	fmt.Printf("  ID: %s\n", saved.ID)
	return nil
}

func runRecipeValidate(cmd *cobra.Command, args []string) error {
	recipe, err := services.ParseRecipeFile(args[0])
	if err != nil {
		return err
	}
	if err := recipe.Validate(); err != nil {
		return err
	}

	fmt.Printf("Recipe %q is valid (%d steps)\n", recipe.Name, len(recipe.Steps))
	return nil
}

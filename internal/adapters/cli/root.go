// Package cli implements the Cobra-based command-line interface for Plantline.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	apiAddr string
	verbose bool
	v       *viper.Viper
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "plantline",
	Short: "Plantline - Manufacturing Execution Core",
	Long: `Plantline turns recipe and product definitions into executable
shop-floor work:

  • Recipes and products are versioned into immutable snapshots
  • Activating a project expands snapshots into per-unit task chains
  • Tasks move through a strict lifecycle with device and worker bindings
  • Emergency alerts interrupt running work and quarantine devices

The daemon exposes a REST API, a WebSocket event stream, and Prometheus
metrics; every other command talks to it over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.plantline/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "http://localhost:8080", "address of the plantline daemon")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(recipeCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(alertCmd)
	rootCmd.AddCommand(boardCmd)
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig(cmd *cobra.Command) error {
	v = viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".plantline"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PLANTLINE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	return bindFlags(cmd, v)
}

// bindFlags binds command flags to viper configuration.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		configName := f.Name
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
	return nil
}

// getPlantlineDir returns the Plantline configuration directory.
func getPlantlineDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plantline"), nil
}

// ensurePlantlineDir creates the Plantline directory if it doesn't exist.
func ensurePlantlineDir() (string, error) {
	dir, err := getPlantlineDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

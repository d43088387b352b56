package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the Plantline directory and configuration",
	Long:  `Create the $HOME/.plantline directory with a default configuration file.`,
	RunE:  runInit,
}

const defaultConfigYAML = `# Plantline configuration
core:
  # data_dir: ~/.plantline/data
  log_level: info
  log_json: false

database:
  journal_mode: WAL
  synchronous: NORMAL
  cache_size: -64000
  busy_timeout_ms: 5000

daemon:
  addr: ":8080"
  shutdown_timeout: 10s

# webhook:
#   url: https://hooks.example.com/plantline
#   token: secret
`

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := ensurePlantlineDir()
	if err != nil {
		return fmt.Errorf("failed to create plantline directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "data"), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Initialized %s\n", dir)
	fmt.Printf("  Config: %s\n", configPath)
	fmt.Println("Run 'plantline serve' to start the daemon.")
	return nil
}

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/plantline/plantline/internal/adapters/tui"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"ui", "tui"},
	Short:   "Open the interactive shop-floor board",
	Long: `Open the interactive terminal board.

The board shows:
  • Projects with live production progress
  • Tasks with lifecycle actions (start, pause, resume, complete, fail)
  • Devices and their availability
  • Active emergency alerts with acknowledge/resolve actions

Data refreshes automatically from the daemon.`,
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, args []string) error {
	model := tui.NewModel(newAPIClient().base)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run board: %w", err)
	}
	return nil
}

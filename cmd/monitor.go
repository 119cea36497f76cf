package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jayteealao/gitsync/internal/tui"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the TUI history dashboard",
	Long: `Launch an interactive terminal dashboard over the sync history.

The dashboard refreshes periodically, so syncs started from other terminals
show up while they run.

Navigation:
  ↑/↓     Navigate syncs
  Enter   View sync details and output
  Esc     Go back
  r       Refresh
  q       Quit`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorRefreshFlag time.Duration
	monitorAllFlag     bool
	monitorLimitFlag   int
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorRefreshFlag, "refresh", 5*time.Second, "refresh interval")
	monitorCmd.Flags().BoolVar(&monitorAllFlag, "all", false, "show syncs of every repository")
	monitorCmd.Flags().IntVarP(&monitorLimitFlag, "limit", "n", 100, "number of syncs to load")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var repoFilter string
	if !monitorAllFlag {
		repo, err := resolveRepo(ctx)
		if err != nil {
			return err
		}
		repoFilter = repo.Path()
	}

	store, err := initStore(ctx, newLogger(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	model := tui.NewModel(ctx, store, repoFilter, monitorLimitFlag, monitorRefreshFlag)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}

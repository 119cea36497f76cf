package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	apperrors "github.com/jayteealao/gitsync/internal/errors"
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/state"
	"github.com/jayteealao/gitsync/internal/tui"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [sync-id]",
	Short: "Show sync history",
	Long: `Show recorded pushes and pulls for the repository, newest first.

With a sync ID (or a unique prefix of one) the full record is shown,
including the captured git output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old history records",
	Long:  `Delete all but the newest --keep finished records for the repository.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

var (
	historyLimitFlag int
	historyAllFlag   bool
	historyJSONFlag  bool
	historyKeepFlag  int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "number of syncs to show")
	historyCmd.Flags().BoolVar(&historyAllFlag, "all", false, "show syncs of every repository")
	historyCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "output in JSON format")

	historyPruneCmd.Flags().IntVar(&historyKeepFlag, "keep", 50, "number of records to keep")
}

type historyEntry struct {
	ID         string  `json:"id"`
	Repo       string  `json:"repo"`
	Operation  string  `json:"operation"`
	Remote     string  `json:"remote,omitempty"`
	Branch     string  `json:"branch,omitempty"`
	Force      bool    `json:"force,omitempty"`
	Invocation string  `json:"invocation"`
	Status     string  `json:"status"`
	HeadBefore string  `json:"head_before,omitempty"`
	HeadAfter  string  `json:"head_after,omitempty"`
	ExitCode   *int    `json:"exit_code,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
	Error      string  `json:"error,omitempty"`
	Output     string  `json:"output,omitempty"`
}

func newHistoryEntry(s *state.Sync) historyEntry {
	entry := historyEntry{
		ID:         s.ID,
		Repo:       s.RepoPath,
		Operation:  s.Operation,
		Remote:     s.Remote,
		Branch:     s.Branch,
		Force:      s.Force,
		Invocation: s.Invocation,
		Status:     s.Status,
		HeadBefore: s.HeadBefore,
		HeadAfter:  s.HeadAfter,
		ExitCode:   s.ExitCode,
		StartedAt:  s.StartedAt.UTC().Format(time.RFC3339),
		Error:      s.ErrorMessage,
		Output:     s.Output,
	}
	if s.FinishedAt != nil {
		finished := s.FinishedAt.UTC().Format(time.RFC3339)
		entry.FinishedAt = &finished
	}
	return entry
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)

	var repoPath string
	if !historyAllFlag && len(args) == 0 {
		repo, err := resolveRepo(ctx)
		if err != nil {
			return err
		}
		repoPath = repo.Path()
	}

	store, err := initStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		rec, err := store.GetSync(ctx, args[0])
		if err != nil {
			if errors.Is(err, apperrors.ErrSyncNotFound) {
				return fmt.Errorf("sync %q not found", args[0])
			}
			return err
		}
		if historyJSONFlag {
			return writeJSON(out, newHistoryEntry(rec))
		}
		return outputSyncDetail(out, rec)
	}

	syncs, err := store.ListSyncs(ctx, repoPath, historyLimitFlag)
	if err != nil {
		return fmt.Errorf("failed to list syncs: %w", err)
	}

	if historyJSONFlag {
		entries := make([]historyEntry, 0, len(syncs))
		for _, s := range syncs {
			entries = append(entries, newHistoryEntry(s))
		}
		return writeJSON(out, entries)
	}

	if len(syncs) == 0 {
		fmt.Fprintln(out, "No syncs recorded.")
		return nil
	}

	return outputHistoryTable(out, repoPath, syncs)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := resolveRepo(ctx)
	if err != nil {
		return err
	}

	store, err := initStore(ctx, newLogger(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.PruneSyncs(ctx, repo.Path(), historyKeepFlag)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) for %s\n", deleted, repo.Path())
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputHistoryTable(out io.Writer, repoPath string, syncs []*state.Sync) error {
	if repoPath != "" {
		fmt.Fprintf(out, "Sync history for %s:\n\n", repoPath)
	} else {
		fmt.Fprint(out, "Sync history:\n\n")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tCOMMAND\tSTATUS\tHEAD\tSTARTED\tDURATION")
	fmt.Fprintln(w, "  --\t-------\t------\t----\t-------\t--------")

	for _, s := range syncs {
		duration := "-"
		if s.FinishedAt != nil {
			duration = tui.FormatDuration(s.Duration())
		}

		head := "-"
		if s.HeadBefore != "" || s.HeadAfter != "" {
			head = fmt.Sprintf("%s→%s", orDash(git.ShortSHA(s.HeadBefore)), orDash(git.ShortSHA(s.HeadAfter)))
		}

		fmt.Fprintf(w, "  %s\t%s\t%s %s\t%s\t%s\t%s\n",
			shortID(s.ID),
			s.Invocation,
			tui.GetStatusIcon(s.Status),
			s.Status,
			head,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			duration)
	}
	return w.Flush()
}

func outputSyncDetail(out io.Writer, s *state.Sync) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", s.ID)
	fmt.Fprintf(w, "Repository:\t%s\n", s.RepoPath)
	fmt.Fprintf(w, "Command:\t%s\n", s.Invocation)
	fmt.Fprintf(w, "Status:\t%s %s\n", tui.GetStatusIcon(s.Status), s.Status)
	fmt.Fprintf(w, "Started:\t%s\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if s.FinishedAt != nil {
		fmt.Fprintf(w, "Duration:\t%s\n", tui.FormatDuration(s.Duration()))
	}
	fmt.Fprintf(w, "Head:\t%s → %s\n", orDash(git.ShortSHA(s.HeadBefore)), orDash(git.ShortSHA(s.HeadAfter)))
	if s.ExitCode != nil {
		fmt.Fprintf(w, "Exit code:\t%d\n", *s.ExitCode)
	}
	if s.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\t%s\n", s.ErrorMessage)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if s.Output != "" {
		fmt.Fprintf(out, "\nOutput:\n%s", s.Output)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

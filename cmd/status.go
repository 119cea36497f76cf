package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	apperrors "github.com/jayteealao/gitsync/internal/errors"
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show repository and last sync status",
	Long: `Show the current branch, HEAD commit and remote of the repository,
whether another gitsync process holds its lock, and the outcome of the
last recorded sync.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusRemoteFlag string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusRemoteFlag, "remote", "r", "", `remote to describe (default "origin")`)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)

	repo, err := resolveRepo(ctx)
	if err != nil {
		return err
	}

	remote := statusRemoteFlag
	if remote == "" {
		remote = viper.GetString("remote")
	}
	if remote == "" {
		remote = git.DefaultRemote
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Repository:\t%s\n", repo.Path())

	branch, err := repo.CurrentBranch(ctx)
	switch {
	case errors.Is(err, apperrors.ErrDetachedHead):
		branch = "(detached HEAD)"
	case err != nil:
		return err
	}
	fmt.Fprintf(w, "Branch:\t%s\n", branch)

	head, err := repo.HeadCommit(ctx)
	if err != nil {
		head = "-"
	}
	fmt.Fprintf(w, "HEAD:\t%s\n", git.ShortSHA(head))

	url, err := repo.RemoteURL(ctx, remote)
	if err != nil {
		url = "(not configured)"
	}
	fmt.Fprintf(w, "Remote:\t%s %s\n", remote, url)

	lockMgr, err := initLockManager()
	if err != nil {
		return err
	}
	locked, pid, err := lockMgr.IsLocked(repo.Path())
	if err != nil {
		return err
	}
	if locked {
		fmt.Fprintf(w, "Lock:\theld by PID %d\n", pid)
	} else {
		fmt.Fprintf(w, "Lock:\tfree\n")
	}

	store, err := initStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	last, err := store.LatestSync(ctx, repo.Path())
	switch {
	case errors.Is(err, apperrors.ErrSyncNotFound):
		fmt.Fprintf(w, "Last sync:\tnone\n")
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "Last sync:\t%s %s (%s, %s)\n",
			tui.GetStatusIcon(last.Status),
			last.Invocation,
			last.Status,
			last.StartedAt.Local().Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

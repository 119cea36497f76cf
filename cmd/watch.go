package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/state"
	"github.com/jayteealao/gitsync/internal/tui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync the repository on an interval",
	Long: `Run "git pull" (or "git push" with --push) every --interval until
interrupted.

Every run is recorded in the history. Notifications are sent only when the
outcome changes, for example when a pull starts failing or recovers.

Examples:
  gitsync watch                                 # pull every minute
  gitsync watch --interval 10s --branch master
  gitsync watch --push --branch master --remote alt`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchFlags        syncFlags
	watchIntervalFlag time.Duration
	watchPushFlag     bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags.register(watchCmd, false)
	watchCmd.Flags().DurationVar(&watchIntervalFlag, "interval", time.Minute, "time between syncs")
	watchCmd.Flags().BoolVar(&watchPushFlag, "push", false, "push instead of pull")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchIntervalFlag <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	opts, err := watchFlags.options()
	if err != nil {
		return err
	}

	op := git.Pull
	if watchPushFlag {
		op = git.Push
	}

	session, err := openSyncSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s: %s every %s\n", session.repo.Path(), git.Invocation(op, opts), watchIntervalFlag)
	if session.notifier.Count() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Notifications enabled: %d backend(s)\n", session.notifier.Count())
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")

	w := &watcher{session: session, op: op, opts: opts}

	ticker := time.NewTicker(watchIntervalFlag)
	defer ticker.Stop()

	// Do initial sync immediately
	w.tick(ctx, cmd)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.tick(ctx, cmd)
		}
	}
}

// watcher runs one sync per tick and remembers the previous outcome.
type watcher struct {
	session    *syncSession
	op         git.Operation
	opts       git.Options
	lastStatus string
}

func (w *watcher) tick(ctx context.Context, cmd *cobra.Command) {
	if checkContext(ctx) != nil {
		return
	}

	release, err := w.lock()
	if err != nil {
		w.session.logger.Warn("skipping sync", "error", err)
		return
	}
	defer release()

	rec, err := w.session.sync(ctx, cmd, w.op, w.opts)
	if rec == nil {
		w.session.logger.Error("sync not recorded", "error", err)
		return
	}
	if ctx.Err() != nil {
		// Cancelled mid-run; not an outcome worth reporting.
		return
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s %s %s\n",
		time.Now().Format("15:04:05"), tui.GetStatusIcon(rec.Status), rec.Invocation, rec.Status)

	if statusChanged(w.lastStatus, rec.Status) {
		w.session.notify(ctx, rec)
	}
	w.lastStatus = rec.Status
}

// lock takes the repository lock for one sync when --exclusive is set.
func (w *watcher) lock() (func(), error) {
	if !isExclusive() {
		return func() {}, nil
	}

	lockMgr, err := initLockManager()
	if err != nil {
		return nil, err
	}
	l, err := lockMgr.TryAcquire(w.session.repo.Path())
	if err != nil {
		return nil, err
	}
	return func() { l.Release() }, nil
}

// statusChanged reports whether a new outcome should be announced. The first
// sync is announced only when it fails.
func statusChanged(prev, current string) bool {
	if prev == "" {
		return current == state.StatusFailed
	}
	return prev != current
}

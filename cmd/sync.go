package cmd

import (
	"context"
	"fmt"

	apperrors "github.com/jayteealao/gitsync/internal/errors"
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/logging"
	"github.com/jayteealao/gitsync/internal/notify"
	"github.com/jayteealao/gitsync/internal/prompt"
	"github.com/jayteealao/gitsync/internal/state"
	"github.com/jayteealao/gitsync/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// syncFlags are the flags shared by push, pull and watch.
type syncFlags struct {
	branch string
	remote string
	force  bool
	yes    bool
}

func (f *syncFlags) register(cmd *cobra.Command, withForce bool) {
	cmd.Flags().StringVarP(&f.branch, "branch", "b", "", "branch to sync (default: git's upstream configuration)")
	cmd.Flags().StringVarP(&f.remote, "remote", "r", "", `remote to sync with when --branch is set (default "origin")`)
	if withForce {
		cmd.Flags().BoolVarP(&f.force, "force", "f", false, "force push, overwriting remote history")
		cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "skip the force push confirmation")
	}
}

func (f *syncFlags) reset() {
	*f = syncFlags{}
}

// options validates the flags and turns them into runner options.
func (f *syncFlags) options() (git.Options, error) {
	opts := git.Options{
		Branch: f.branch,
		Remote: f.remote,
		Force:  f.force,
	}

	if opts.Remote == "" && opts.Branch != "" {
		opts.Remote = viper.GetString("remote")
	}

	if opts.Branch != "" {
		if err := validate.BranchName(opts.Branch); err != nil {
			return git.Options{}, err
		}
	}
	if opts.Remote != "" {
		if err := validate.RemoteName(opts.Remote); err != nil {
			return git.Options{}, err
		}
	}

	return opts, nil
}

// syncSession holds what one or more syncs against a repository share.
type syncSession struct {
	repo     *git.Repo
	runner   *git.Runner
	store    state.StateStore
	notifier *notify.Manager
	logger   logging.Logger
}

func openSyncSession(ctx context.Context, cmd *cobra.Command) (*syncSession, error) {
	logger := newLogger(cmd)

	repo, err := resolveRepo(ctx)
	if err != nil {
		return nil, err
	}

	s := &syncSession{
		repo: repo,
		runner: git.NewRunner(
			git.WithExecutor(newExecutor(cmd.ErrOrStderr())),
			git.WithDir(repo.Path()),
			git.WithLogger(logger),
		),
		notifier: newNotifyManager(logger),
		logger:   logger,
	}

	if historyEnabled() {
		store, err := initStore(ctx, logger)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	return s, nil
}

func (s *syncSession) Close() error {
	s.notifier.Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// sync runs one operation and records it. The returned error is the
// runner's error, untouched.
func (s *syncSession) sync(ctx context.Context, cmd *cobra.Command, op git.Operation, opts git.Options) (*state.Sync, error) {
	invocation := git.Invocation(op, opts)

	rec := &state.Sync{
		RepoPath:   s.repo.Path(),
		Operation:  op.String(),
		Remote:     opts.Remote,
		Branch:     opts.Branch,
		Force:      opts.Force && op == git.Push,
		Invocation: invocation,
	}
	rec.HeadBefore, _ = s.repo.HeadCommit(ctx)

	if s.store != nil {
		if err := s.store.CreateSync(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record sync: %w", err)
		}
	}

	printVerbose(cmd, "Running %s in %s", invocation, s.repo.Path())
	output, runErr := s.runner.Run(ctx, op, opts)
	fmt.Fprint(cmd.OutOrStdout(), output)

	// Record the outcome even when the sync was cancelled.
	finishCtx := context.WithoutCancel(ctx)

	rec.Output = output
	rec.HeadAfter, _ = s.repo.HeadCommit(finishCtx)
	if runErr != nil {
		rec.Status = state.StatusFailed
		rec.ErrorMessage = runErr.Error()
		if code := git.ExitCode(runErr); code >= 0 {
			rec.ExitCode = &code
		}
	} else {
		rec.Status = state.StatusSucceeded
		code := 0
		rec.ExitCode = &code
	}

	if s.store != nil {
		if err := s.store.FinishSync(finishCtx, rec); err != nil {
			s.logger.Warn("failed to record sync outcome", "sync", rec.ID, "error", err)
		}
	}

	return rec, runErr
}

func (s *syncSession) notify(ctx context.Context, rec *state.Sync) {
	if s.notifier.Count() == 0 {
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), syncEvent(rec)); err != nil {
		s.logger.Warn("notification failed", "error", err)
	}
}

// confirmForce asks before a force push on an interactive terminal.
func confirmForce(repo string, op git.Operation, opts git.Options, yes bool) error {
	if op != git.Push || !opts.Force || yes || !interactive() {
		return nil
	}

	title, description := prompt.ForcePushQuestion(repo, git.Invocation(op, opts))
	ok, err := confirmer.Confirm(title, description)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return apperrors.ErrForcePushDeclined
	}
	return nil
}

// runSync is the push and pull command flow.
func runSync(cmd *cobra.Command, op git.Operation, flags *syncFlags) error {
	ctx := cmd.Context()

	opts, err := flags.options()
	if err != nil {
		return err
	}

	session, err := openSyncSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := confirmForce(session.repo.Path(), op, opts, flags.yes); err != nil {
		return err
	}

	if isExclusive() {
		lockMgr, err := initLockManager()
		if err != nil {
			return err
		}

		printVerbose(cmd, "Acquiring lock for %s...", session.repo.Path())
		l, err := lockMgr.Acquire(ctx, session.repo.Path())
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		defer l.Release()
	}

	rec, err := session.sync(ctx, cmd, op, opts)
	if rec != nil {
		session.notify(ctx, rec)
	}
	return err
}

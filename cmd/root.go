// Package cmd provides CLI commands for gitsync.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jayteealao/gitsync/internal/git"
	"github.com/jayteealao/gitsync/internal/lock"
	"github.com/jayteealao/gitsync/internal/logging"
	"github.com/jayteealao/gitsync/internal/prompt"
	"github.com/jayteealao/gitsync/internal/state"
	"github.com/jayteealao/gitsync/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the current version of gitsync.
// Can be overridden at build time: go build -ldflags "-X github.com/jayteealao/gitsync/cmd.Version=v1.0.0"
var Version = "v0.1.0"

var (
	cfgFile   string
	dataDir   string
	repoDir   string
	verbose   bool
	exclusive bool
	noHistory bool
	logFormat string
)

// Seams replaced in tests.
var (
	newExecutor = func(stderr io.Writer) git.Executor {
		return &git.ShellExecutor{Stderr: stderr}
	}
	confirmer   prompt.Confirmer = prompt.FormConfirmer{}
	interactive                  = prompt.Interactive
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitsync",
	Short: "Push and pull git branches with a recorded history",
	Long: `gitsync wraps "git push" and "git pull" for a single working tree.

It assembles the git invocation from a branch, remote and force flag, runs it,
prints git's output untouched and records every sync in a local history
database that can be browsed with "gitsync history" or "gitsync monitor".`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gitsync/config.yaml)")
	pf.StringVar(&dataDir, "data-dir", "", "data directory (default is $HOME/.gitsync)")
	pf.StringVarP(&repoDir, "dir", "C", ".", "run as if gitsync was started in this directory")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&exclusive, "exclusive", false, "hold a per-repository lock while syncing")
	pf.BoolVar(&noHistory, "no-history", false, "do not record syncs in the history database")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")

	// Bind flags to viper
	viper.BindPFlag("data-dir", pf.Lookup("data-dir"))
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("exclusive", pf.Lookup("exclusive"))
	viper.BindPFlag("log-format", pf.Lookup("log-format"))

	viper.SetDefault("history", true)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".gitsync"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GITSYNC_NOTIFY_SLACK_WEBHOOK -> notify.slack-webhook
	viper.SetEnvPrefix("GITSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// getDataDir returns the data directory, defaulting to $HOME/.gitsync
func getDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if d := viper.GetString("data-dir"); d != "" {
		return d, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".gitsync"), nil
}

// initStore opens the history store and marks syncs left running by dead
// processes as interrupted.
func initStore(ctx context.Context, logger logging.Logger) (*state.Store, error) {
	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	store, err := state.New(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	n, err := store.MarkInterrupted(ctx, lock.IsProcessRunning)
	if err != nil {
		logger.Warn("failed to mark interrupted syncs", "error", err)
	} else if n > 0 {
		logger.Info("marked interrupted syncs", "count", n)
	}

	return store, nil
}

// initLockManager initializes and returns the lock manager.
func initLockManager() (*lock.Manager, error) {
	dir, err := getDataDir()
	if err != nil {
		return nil, err
	}

	manager, err := lock.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lock manager: %w", err)
	}

	return manager, nil
}

// newLogger builds the diagnostic logger for a command. Diagnostics go to
// stderr so stdout carries git's output only.
func newLogger(cmd *cobra.Command) logging.Logger {
	format := logFormat
	if f := viper.GetString("log-format"); f != "" {
		format = f
	}
	return logging.New(cmd.ErrOrStderr(), format, isVerbose())
}

// resolveRepo returns the working tree root for --dir.
func resolveRepo(ctx context.Context) (*git.Repo, error) {
	if err := git.LookGit(); err != nil {
		return nil, err
	}

	path, err := validate.RepoPath(repoDir)
	if err != nil {
		return nil, err
	}

	top, err := git.NewRepo(path).TopLevel(ctx)
	if err != nil {
		return nil, err
	}
	return git.NewRepo(top), nil
}

// isVerbose returns true if verbose output is enabled.
func isVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

func isExclusive() bool {
	return exclusive || viper.GetBool("exclusive")
}

func historyEnabled() bool {
	return !noHistory && viper.GetBool("history")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(cmd *cobra.Command, format string, args ...any) {
	if isVerbose() {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}

// checkContext returns an error if the context is cancelled.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

package cmd

import (
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch from a remote and merge into the local branch",
	Long: `Run "git pull" in the repository.

Without --branch, git pulls according to its upstream configuration and
--remote is ignored. With --branch the remote defaults to "origin".

Examples:
  gitsync pull
  gitsync pull --branch master --remote alt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, git.Pull, &pullFlags)
	},
}

var pullFlags syncFlags

func init() {
	rootCmd.AddCommand(pullCmd)
	pullFlags.register(pullCmd, false)
}

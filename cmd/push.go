package cmd

import (
	"github.com/jayteealao/gitsync/internal/git"
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the local branch to a remote",
	Long: `Run "git push" in the repository.

Without --branch, git decides what to push from its upstream configuration and
--remote is ignored. With --branch the remote defaults to "origin".
git's output is printed unchanged. On an interactive terminal --force asks for
confirmation unless --yes is given.

Examples:
  gitsync push
  gitsync push --branch master
  gitsync push --branch master --remote alt
  gitsync push --force --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, git.Push, &pushFlags)
	},
}

var pushFlags syncFlags

func init() {
	rootCmd.AddCommand(pushCmd)
	pushFlags.register(pushCmd, true)
}

// Package prompt provides interactive terminal prompts for gitsync.
package prompt

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(title, description string) (bool, error)
}

// FormConfirmer asks through a huh confirm form.
type FormConfirmer struct{}

// Confirm implements Confirmer.
func (FormConfirmer) Confirm(title, description string) (bool, error) {
	return ConfirmAction(title, description)
}

var _ Confirmer = FormConfirmer{}

// ConfirmAction prompts the user to confirm an action with yes/no.
// Returns true if the user confirmed, false otherwise.
func ConfirmAction(title, description string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed).
				Affirmative("Yes").
				Negative("No"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}

// ForcePushQuestion builds the title and description shown before a force push.
func ForcePushQuestion(repo, invocation string) (title, description string) {
	title = "Force push?"
	description = fmt.Sprintf("%s will run in %s and may overwrite remote history.", invocation, repo)
	return title, description
}

// Interactive reports whether stdin and stdout are both terminals.
func Interactive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

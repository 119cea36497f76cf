// Package validate provides input validation for gitsync commands.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jayteealao/gitsync/internal/errors"
)

// shellMeta lists characters the shell would interpret inside an invocation.
const shellMeta = ";&|$`<>(){}'\"\\*?!#~"

// gitRefMeta lists characters git forbids in ref names.
const gitRefMeta = "^:[ "

// BranchName validates a branch name given on the command line.
// Names are later joined into a shell command line, so anything the shell
// or git would reinterpret is rejected.
func BranchName(name string) error {
	if err := checkName(name, gitRefMeta); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidBranchName, err)
	}

	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: %q has an invalid suffix", errors.ErrInvalidBranchName, name)
	}
	if strings.Contains(name, "@{") || strings.Contains(name, "//") {
		return fmt.Errorf("%w: %q contains an invalid sequence", errors.ErrInvalidBranchName, name)
	}

	return nil
}

// RemoteName validates a remote name given on the command line.
func RemoteName(name string) error {
	if err := checkName(name, "/:"); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRemoteName, err)
	}
	return nil
}

func checkName(name, extra string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if strings.HasPrefix(name, "-") {
		return fmt.Errorf("%q cannot start with '-'", name)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("%q cannot contain '..'", name)
	}

	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%q contains whitespace or control characters", name)
		}
		if strings.ContainsRune(shellMeta, r) || strings.ContainsRune(extra, r) {
			return fmt.Errorf("%q contains invalid character %q", name, r)
		}
	}

	return nil
}

// RepoPath validates a local working-tree path and returns it with ~ expanded.
func RepoPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("repository path cannot be empty")
	}

	expandedPath, err := expandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	info, err := os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", path)
		}
		return "", fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}

	return expandedPath, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

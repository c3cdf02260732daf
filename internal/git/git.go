package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo provides git operations scoped to a repository.
type Repo struct {
	// Root is the absolute path to the git repository root.
	Root string
}

// DetectRepo finds the git repository root from the given directory (or cwd).
func DetectRepo(dir string) (*Repo, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}

	out, err := runGit(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository (or any parent): %w", err)
	}

	return &Repo{Root: strings.TrimSpace(out)}, nil
}

// CurrentBranch returns the current branch name.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := runGit(r.Root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Add stages files for commit. Paths are relative to the repo root.
func (r *Repo) Add(paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := runGit(r.Root, args...)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD for paths.
// Regenerating an unchanged fleet stages nothing.
func (r *Repo) HasStagedChanges(paths ...string) (bool, error) {
	args := append([]string{"diff", "--cached", "--name-only", "--"}, paths...)
	out, err := runGit(r.Root, args...)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Commit creates a commit of the staged paths with the given message.
func (r *Repo) Commit(message string, paths ...string) error {
	args := []string{"commit", "-m", message}
	if len(paths) > 0 {
		args = append(append(args, "--"), paths...)
	}
	_, err := runGit(r.Root, args...)
	return err
}

// Push pushes the current branch to the remote.
func (r *Repo) Push(remote string) error {
	if remote == "" {
		remote = "origin"
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	_, err = runGit(r.Root, "push", remote, branch)
	return err
}

// FormatCommitMessage creates a standardized fleetgen commit message.
func FormatCommitMessage(action, subject, details string) string {
	msg := fmt.Sprintf("fleetgen: %s %s", action, subject)
	if details != "" {
		msg += fmt.Sprintf(" (%s)", details)
	}
	return msg
}

// RelPaths converts artifact paths below outputDir into paths relative to
// the repo root.
func (r *Repo) RelPaths(outputDir string, paths []string) ([]string, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}
	// The repo root comes back symlink-resolved from git.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(r.Root, filepath.Join(abs, filepath.FromSlash(p)))
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("%s is outside repository %s", p, r.Root)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

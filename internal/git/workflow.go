package git

import (
	"fmt"

	"github.com/jamesatintegratnio/fleetgen/internal/tui"
)

// Result describes what happened after HandleGitWorkflow ran.
type Result int

const (
	// Committed means changes were committed and pushed.
	Committed Result = iota
	// CommittedLocal means changes were committed locally only (generate mode).
	CommittedLocal
	// Staged means files were staged but the user declined to commit.
	Staged
	// Skipped means git was skipped (mode off or an unknown mode).
	Skipped
	// NoChanges means regeneration produced no diff against HEAD.
	NoChanges
	// NoRepo means no git repository was detected.
	NoRepo
)

func (r Result) String() string {
	switch r {
	case Committed:
		return "committed"
	case CommittedLocal:
		return "committed-local"
	case Staged:
		return "staged"
	case Skipped:
		return "skipped"
	case NoChanges:
		return "no-changes"
	case NoRepo:
		return "no-repo"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// WorkflowOpts configures HandleGitWorkflow behavior.
type WorkflowOpts struct {
	// OutputDir is the directory artifacts were written below.
	OutputDir string
	// Paths are artifact paths relative to OutputDir.
	Paths []string
	// Action is the verb for the commit message (e.g. "generate").
	Action string
	// Subject names what was generated (e.g. "oai-functions").
	Subject string
	// Details is optional extra context for the commit message.
	Details string
	// GitMode is "auto", "generate", "prompt"; anything else skips git.
	GitMode string
	// Interactive controls whether prompts are shown.
	Interactive bool
}

// HandleGitWorkflow stages the generated artifacts and, depending on the
// git mode, commits and pushes them.
func HandleGitWorkflow(opts WorkflowOpts) (Result, error) {
	switch opts.GitMode {
	case "auto", "generate", "prompt":
	default:
		return Skipped, nil
	}

	repo, err := DetectRepo(opts.OutputDir)
	if err != nil {
		tui.Debug("git: %v", err)
		return NoRepo, nil // non-fatal: user can commit manually
	}
	paths, err := repo.RelPaths(opts.OutputDir, opts.Paths)
	if err != nil {
		return Skipped, err
	}
	if err := repo.Add(paths...); err != nil {
		return Skipped, fmt.Errorf("staging files: %w", err)
	}
	changed, err := repo.HasStagedChanges(paths...)
	if err != nil {
		return Staged, err
	}
	if !changed {
		tui.Info("%s Generated artifacts match HEAD, nothing to commit", tui.MutedStyle.Render(tui.IconBullet))
		return NoChanges, nil
	}

	msg := FormatCommitMessage(opts.Action, opts.Subject, opts.Details)

	switch opts.GitMode {
	case "generate":
		if err := repo.Commit(msg, paths...); err != nil {
			return Staged, fmt.Errorf("committing: %w", err)
		}
		tui.Info("%s Committed (push manually)", tui.SuccessStyle.Render(tui.IconCheck))
		return CommittedLocal, nil

	case "prompt":
		if !opts.Interactive {
			tui.Info("%s", tui.DimStyle.Render("  Staged generated artifacts. Commit and push when ready."))
			return Staged, nil
		}
		confirmed, _ := tui.Confirm("Commit and push generated artifacts?")
		if !confirmed {
			tui.Info("%s", tui.DimStyle.Render("  Skipped git commit. Run manually: git commit && git push"))
			return Staged, nil
		}
	}

	if err := repo.Commit(msg, paths...); err != nil {
		return Staged, fmt.Errorf("committing: %w", err)
	}
	if err := repo.Push(""); err != nil {
		return CommittedLocal, fmt.Errorf("pushing: %w", err)
	}
	tui.Info("%s Committed and pushed", tui.SuccessStyle.Render(tui.IconCheck))
	return Committed, nil
}

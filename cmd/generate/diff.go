package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

// Drift states.
const (
	stateNew       = "new"
	stateModified  = "modified"
	stateUnchanged = "unchanged"
)

type drift struct {
	Path  string   `json:"path" yaml:"path"`
	State string   `json:"state" yaml:"state"`
	Diff  []string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// NewDiffCmd returns the diff command.
func NewDiffCmd() *cobra.Command {
	var (
		flags     fleetFlags
		outputDir string
		exitCode  bool
	)
	cmd := &cobra.Command{
		Use:   "diff [all|services|manifests]",
		Short: "Show differences between generated and on-disk artifacts",
		Long: `Renders the fleet in memory and compares every artifact against the output
directory. Nothing is written.

Exit codes: 0 = no drift (or --exit-code not set), 1 = error,
2 = invalid registry or config, 5 = drift detected with --exit-code.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: pipelineArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelineArg(args)
			if err != nil {
				return err
			}
			s, err := flags.open(func(o *fleet.Options) { o.Pipelines = p })
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = s.cfg.OutputDir
			}

			drifts, err := diffFleet(cmd.Context(), s.gen, s.reg.Descriptors(), outputDir)
			if err != nil {
				return classify(err)
			}

			counts := map[string]int{}
			for _, d := range drifts {
				counts[d.State]++
			}
			if ok, err := tui.PrintStructured(drifts); !ok {
				for _, d := range drifts {
					fmt.Fprintf(tui.Stdout, "%s %s\n", tui.DiffBadge(d.State), d.Path)
					for _, line := range d.Diff {
						style := tui.SuccessStyle
						if strings.HasPrefix(line, "-") {
							style = tui.ErrorStyle
						}
						fmt.Fprintf(tui.Stdout, "    %s\n", style.Render(line))
					}
				}
				fmt.Fprintf(tui.Stdout, "\n%d new, %d modified, %d unchanged\n",
					counts[stateNew], counts[stateModified], counts[stateUnchanged])
			} else if err != nil {
				return err
			}

			if changed := counts[stateNew] + counts[stateModified]; exitCode && changed > 0 {
				return ferrors.NewDriftError("%d of %d artifacts out of date in %s", changed, len(drifts), outputDir)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory to compare against (default: config outputDir)")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit with status 5 when any artifact differs")
	return cmd
}

// diffFleet renders the fleet in memory and compares each artifact, in
// emission order, with the file below dir.
func diffFleet(ctx context.Context, gen *fleet.Generator, descs []registry.Descriptor, dir string) ([]drift, error) {
	mem := emit.NewMemory()
	summary, err := gen.Run(ctx, mem, descs)
	if err != nil {
		return nil, err
	}

	drifts := make([]drift, 0, len(summary.Emitted))
	for _, a := range summary.Emitted {
		existing, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(a.Path)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			drifts = append(drifts, drift{Path: a.Path, State: stateNew})
		case err != nil:
			return nil, ferrors.NewIOError("reading %s: %w", a.Path, err)
		case string(existing) == string(a.Data):
			drifts = append(drifts, drift{Path: a.Path, State: stateUnchanged})
		default:
			drifts = append(drifts, drift{Path: a.Path, State: stateModified, Diff: diffLines(string(existing), string(a.Data))})
		}
	}
	return drifts, nil
}

// diffLines returns the changed region between old and new: the lines of
// old that were removed prefixed with "- ", then the lines of new that
// replaced them prefixed with "+ ". Common leading and trailing lines are
// dropped.
func diffLines(old, new string) []string {
	oldLines := strings.Split(old, "\n")
	newLines := strings.Split(new, "\n")

	head := 0
	for head < len(oldLines) && head < len(newLines) && oldLines[head] == newLines[head] {
		head++
	}
	tail := 0
	for tail < len(oldLines)-head && tail < len(newLines)-head &&
		oldLines[len(oldLines)-1-tail] == newLines[len(newLines)-1-tail] {
		tail++
	}

	var out []string
	for _, l := range oldLines[head : len(oldLines)-tail] {
		out = append(out, "- "+l)
	}
	for _, l := range newLines[head : len(newLines)-tail] {
		out = append(out, "+ "+l)
	}
	return out
}

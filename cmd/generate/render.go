package generate

import (
	"fmt"

	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

type renderedFile struct {
	Kind    string `json:"kind" yaml:"kind"`
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// NewRenderCmd returns the render command.
func NewRenderCmd() *cobra.Command {
	var (
		flags    fleetFlags
		pipeline string
	)
	cmd := &cobra.Command{
		Use:   "render <function>",
		Short: "Print one function's artifacts",
		Long: `Renders the artifacts of a single function and prints them to stdout with a
path header each. No files are written and no git operations are performed.

Supports --output json/yaml for machine-readable output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelineArg([]string{pipeline})
			if err != nil {
				return err
			}
			s, err := flags.open(func(o *fleet.Options) { o.Pipelines = p })
			if err != nil {
				return err
			}
			d, ok := s.reg.Lookup(args[0])
			if !ok {
				return ferrors.NewUserError("function %q not in registry %s", args[0], s.source)
			}

			arts, warnings, err := s.gen.RenderOne(d)
			for _, w := range warnings {
				tui.Warn("%s", w)
			}
			if err != nil {
				return classify(err)
			}

			files := make([]renderedFile, len(arts))
			for i, a := range arts {
				files[i] = renderedFile{Kind: string(a.Kind), Path: a.Path, Content: string(a.Data)}
			}
			if ok, err := tui.PrintStructured(map[string]any{"function": d.Name, "files": files}); ok {
				return err
			}

			for _, f := range files {
				fmt.Fprintln(tui.Stdout, tui.TitleStyle.Render("# "+f.Path))
				fmt.Fprintln(tui.Stdout, f.Content)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&pipeline, "pipeline", "all", "artifacts to render: all, services, manifests")
	return cmd
}

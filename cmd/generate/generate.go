package generate

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/git"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

// NewCmd returns the generate command.
func NewCmd() *cobra.Command {
	var (
		flags       fleetFlags
		outputDir   string
		concurrency int
		dryRun      bool
		noCheck     bool
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "generate [all|services|manifests]",
		Short: "Generate the service fleet",
		Long: `Validates the registry, then writes every artifact of every function and the
fleet-wide manifests below the output directory.

Pipelines:
  services    app.py, Dockerfile and requirements.txt per function
  manifests   Deployment and Service per function, plus Namespace, ConfigMap
              and Ingress
  all         both (default)

Nothing is written when the registry is invalid. On the first failure the
remaining work is cancelled and the fleet-wide manifests are not written;
files already written are left in place and listed.

Exit codes: 0 = all artifacts written, 1 = error, 2 = invalid registry or
config, 3 = write failure.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: pipelineArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelineArg(args)
			if err != nil {
				return err
			}
			s, err := flags.open(func(o *fleet.Options) {
				o.Pipelines = p
				if cmd.Flags().Changed("concurrency") {
					o.Concurrency = concurrency
				}
				if noCheck {
					o.CheckManifests = false
				}
			})
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = s.cfg.OutputDir
			}

			descs := s.reg.Descriptors()
			for _, w := range registry.NameWarnings(descs) {
				tui.Warn("%s", w)
			}

			var target emit.Target = emit.Dir{Root: outputDir}
			if dryRun {
				target = emit.NewMemory()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			tui.Info("Generating %s for %d functions (%s) into %s", p, len(descs), s.source, outputDir)
			summary, runErr := s.gen.Run(ctx, target, descs)
			for _, w := range summary.Warnings {
				tui.Warn("%s", w)
			}
			if metricsFile != "" {
				if err := s.gen.Metrics().WriteTextfile(metricsFile); err != nil {
					tui.Warn("writing metrics to %s: %v", metricsFile, err)
				}
			}

			if ok, err := tui.PrintStructured(summary); ok {
				if err != nil {
					return err
				}
				return classify(runErr)
			}

			verb := "Generated"
			if dryRun {
				verb = "Would generate"
			}
			for _, a := range summary.Emitted {
				tui.Success("%s %s", verb, a.Path)
			}
			if runErr != nil {
				if summary.FailedAt != nil {
					tui.Info("%s", tui.DimStyle.Render(fmt.Sprintf("  stopped at %s (#%d); fleet-wide manifests not written", summary.FailedAt.Name, summary.FailedAt.Index)))
				}
				return classify(runErr)
			}
			if !s.cfg.Quiet {
				fmt.Fprintf(tui.Stdout, "%d artifacts for %d functions (%s)\n", len(summary.Emitted), summary.Descriptors, summary.Duration)
			}

			if dryRun {
				return nil
			}
			paths := make([]string, len(summary.Emitted))
			for i, a := range summary.Emitted {
				paths[i] = a.Path
			}
			_, err = git.HandleGitWorkflow(git.WorkflowOpts{
				OutputDir:   outputDir,
				Paths:       paths,
				Action:      "generate",
				Subject:     s.gen.Options().FleetName,
				Details:     fmt.Sprintf("%d functions", summary.Descriptors),
				GitMode:     s.cfg.GitMode,
				Interactive: s.cfg.Interactive && tui.IsInteractive(),
			})
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory artifacts are written below (default: config outputDir)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "functions rendered in parallel (default: config generator.concurrency)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render and list artifacts without writing")
	cmd.Flags().BoolVar(&noCheck, "no-check", false, "skip strict decoding of generated manifests")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in node-exporter textfile format")
	return cmd
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jamesatintegratnio/fleetgen/cmd/generate"
	"github.com/jamesatintegratnio/fleetgen/internal/config"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"
	// Commit is set at build time via ldflags.
	Commit = "none"

	cfgFile      string
	nonInteract  bool
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fleetgen",
	Short: "Service fleet generator",
	Long: `fleetgen turns a registry of native function descriptors into a deployable
service fleet.

For every function it writes an HTTP service scaffold, a container build recipe
and a dependency manifest under containers/services/<name>/, plus a Deployment
and a Service under kubernetes/. Once per fleet it writes the Namespace, the
shared ConfigMap and the Ingress that routes /<endpoint> to each function.

Output is deterministic: regenerating an unchanged registry rewrites identical
bytes, so the tree can be committed and diffed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		tui.Error("%v", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultPath+")")
	pf.BoolVar(&nonInteract, "non-interactive", false, "disable interactive prompts")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "only print errors and warnings")
	pf.StringVar(&outputFormat, "output", "", "output format: text, json, yaml")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.AddCommand(generate.NewCmd())
	rootCmd.AddCommand(generate.NewValidateCmd())
	rootCmd.AddCommand(generate.NewPlanCmd())
	rootCmd.AddCommand(generate.NewRenderCmd())
	rootCmd.AddCommand(generate.NewDiffCmd())
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		// A missing default config is normal before `fleetgen init`.
		if cfgFile != "" || !errors.Is(err, fs.ErrNotExist) {
			defer tui.Warn("config: %v (using defaults)", err)
		}
		cfg = config.Default()
	}
	if nonInteract {
		cfg.Interactive = false
	}
	if verbose {
		cfg.Verbose = true
	}
	if quiet {
		cfg.Quiet = true
	}
	if outputFormat != "" {
		cfg.Output = outputFormat
	}
	config.Set(cfg)
	tui.SetOutputFormat(cfg.Output)
}

// --- Inline simple commands ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print fleetgen version",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{"version": Version, "commit": Commit}
		return tui.RenderOutput(info, fmt.Sprintf("fleetgen %s (commit: %s)\n", Version, Commit))
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config and function registry",
	Long: `Writes fleetgen.yaml and functions.yaml into the current directory.

functions.yaml holds the built-in OAI function fleet so it can be edited;
fleetgen.yaml points at it and carries the generator defaults.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for fleetgen.

Examples:
  # Bash
  source <(fleetgen completion bash)

  # Zsh
  fleetgen completion zsh > "${fpath[1]}/_fleetgen"

  # Fish
  fleetgen completion fish | source`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

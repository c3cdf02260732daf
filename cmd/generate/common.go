package generate

import (
	"errors"
	"fmt"

	"github.com/jamesatintegratnio/fleetgen/internal/config"
	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/manifest"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/render"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

const builtinSource = "built-in"

// fleetFlags are the flags every fleet command shares.
type fleetFlags struct {
	registry string
}

func (f *fleetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.registry, "registry", "", "function registry (.yaml, .toml or .hcl; default: config, else the built-in fleet)")
}

// session is what a fleet command works with once flags and config are resolved.
type session struct {
	cfg    *config.Config
	source string
	reg    *registry.Registry
	gen    *fleet.Generator
}

// open resolves the config, loads the registry and builds a generator.
// mutate may adjust the generator options derived from the config.
func (f *fleetFlags) open(mutate func(*fleet.Options)) (*session, error) {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return nil, ferrors.NewUserError("config: %w", err)
	}

	source := f.registry
	if source == "" {
		source = cfg.Registry
	}
	var reg *registry.Registry
	if source == "" {
		source = builtinSource
		reg = registry.Builtin()
	} else {
		var err error
		if reg, err = registry.LoadFile(source); err != nil {
			return nil, ferrors.NewUserError("loading registry: %w", err)
		}
	}
	tui.Debug("registry %s: %d functions", source, reg.Len())

	opts := fleet.OptionsFromConfig(cfg.Generator)
	if mutate != nil {
		mutate(&opts)
	}
	gen, err := fleet.New(opts)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, source: source, reg: reg, gen: gen}, nil
}

// classify attaches the exit code matching the failure class of err.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		malformed *registry.MalformedDescriptorError
		duplicate *registry.DuplicateKeyError
		empty     *derive.EmptyEndpointError
		write     *emit.WriteError
		invalid   *manifest.InvalidManifestError
		missing   *render.MissingPlaceholderError
		coded     *ferrors.CodedError
	)
	switch {
	case errors.As(err, &coded):
		return err
	case errors.As(err, &malformed), errors.As(err, &duplicate), errors.As(err, &empty):
		return ferrors.WithCode(ferrors.ExitUserError, err)
	case errors.As(err, &write):
		return ferrors.WithCode(ferrors.ExitIOError, err)
	case errors.As(err, &invalid), errors.As(err, &missing):
		return ferrors.WithCode(ferrors.ExitError, fmt.Errorf("template bug: %w", err))
	default:
		return err
	}
}

func pipelineArg(args []string) (fleet.Pipeline, error) {
	name := "all"
	if len(args) > 0 {
		name = args[0]
	}
	p, err := fleet.ParsePipeline(name)
	if err != nil {
		return 0, ferrors.WithCode(ferrors.ExitUserError, err)
	}
	return p, nil
}

var pipelineArgs = []string{"all", "services", "manifests"}

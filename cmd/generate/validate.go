package generate

import (
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

type validation struct {
	Registry  string   `json:"registry" yaml:"registry"`
	Functions int      `json:"functions" yaml:"functions"`
	Valid     bool     `json:"valid" yaml:"valid"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewValidateCmd returns the validate command.
func NewValidateCmd() *cobra.Command {
	var flags fleetFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and function registry",
		Long: `Loads the config and the registry and runs every check generate performs
before writing: required fields, quantity shapes, unique names and ports,
non-empty endpoints and template placeholders. Nothing is rendered or written.

Warnings (unrecognized resource units, names Kubernetes will refuse) do not
fail validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(nil)
			if err != nil {
				return err
			}
			descs := s.reg.Descriptors()
			warnings, err := s.gen.Validate(descs)
			if err != nil {
				return classify(err)
			}
			warnings = append(warnings, registry.NameWarnings(descs)...)

			result := validation{Registry: s.source, Functions: len(descs), Valid: true, Warnings: warnings}
			if ok, err := tui.PrintStructured(result); ok {
				return err
			}
			for _, w := range warnings {
				tui.Warn("%s", w)
			}
			tui.Success("%s: %d functions valid", s.source, len(descs))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesatintegratnio/fleetgen/internal/config"
	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
	"github.com/spf13/cobra"
)

const registryFile = "functions.yaml"

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	return writeStarter(".", initForce, config.Get().Interactive && tui.IsInteractive())
}

// writeStarter writes the starter config and registry below dir.
func writeStarter(dir string, force, interactive bool) error {
	tui.Info("%s", tui.TitleStyle.Render("fleetgen init"))

	cfgPath := filepath.Join(dir, config.DefaultPath)
	var existing []string
	for _, p := range []string{cfgPath, filepath.Join(dir, registryFile)} {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) > 0 && !force {
		if !interactive {
			return ferrors.NewUserError("%v already exist (use --force to overwrite)", existing)
		}
		confirmed, _ := tui.Confirm(fmt.Sprintf("%v already exist. Overwrite?", existing))
		if !confirmed {
			return nil
		}
	}

	data, err := registry.Marshal(registry.Builtin().Descriptors())
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	w, err := emit.Dir{Root: dir}.Open()
	if err != nil {
		return ferrors.WithCode(ferrors.ExitIOError, err)
	}
	if err := w.Write(registryFile, data); err != nil {
		w.Close()
		return ferrors.WithCode(ferrors.ExitIOError, err)
	}
	if err := w.Close(); err != nil {
		return ferrors.WithCode(ferrors.ExitIOError, err)
	}
	tui.Success("Created %s (%d functions)", registryFile, registry.Builtin().Len())

	cfg := config.Default()
	cfg.Registry = registryFile
	if err := config.Save(cfg, cfgPath); err != nil {
		return ferrors.NewIOError("saving config: %w", err)
	}
	tui.Success("Created %s", config.DefaultPath)
	tui.Info("\n%s", tui.DimStyle.Render("Edit functions.yaml, then run: fleetgen generate"))
	return nil
}

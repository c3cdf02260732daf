package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jamesatintegratnio/fleetgen/internal/config"
	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/tui"
)

func TestWriteStarter(t *testing.T) {
	var out, errOut bytes.Buffer
	oldOut, oldErr := tui.Stdout, tui.Stderr
	tui.Stdout, tui.Stderr = &out, &errOut
	defer func() { tui.Stdout, tui.Stderr = oldOut, oldErr }()

	dir := t.TempDir()
	if err := writeStarter(dir, false, false); err != nil {
		t.Fatalf("writeStarter: %v", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.DefaultPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Registry != registryFile {
		t.Errorf("Registry = %q, want %q", cfg.Registry, registryFile)
	}
	if cfg.Generator.FleetName != "oai-functions" {
		t.Errorf("FleetName = %q", cfg.Generator.FleetName)
	}

	reg, err := registry.LoadFile(filepath.Join(dir, registryFile))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if reg.Len() != registry.Builtin().Len() {
		t.Errorf("Len = %d, want %d", reg.Len(), registry.Builtin().Len())
	}

	err = writeStarter(dir, false, false)
	if got := ferrors.ExitCode(err); got != ferrors.ExitUserError {
		t.Errorf("second writeStarter exit code = %d, want %d (err: %v)", got, ferrors.ExitUserError, err)
	}
	if err := writeStarter(dir, true, false); err != nil {
		t.Errorf("writeStarter --force: %v", err)
	}
}

package main

import (
	"os"

	"github.com/jamesatintegratnio/fleetgen/cmd"
	ferrors "github.com/jamesatintegratnio/fleetgen/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(ferrors.ExitCode(err))
	}
}

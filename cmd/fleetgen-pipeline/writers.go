package main

import (
	"github.com/jamesatintegratnio/fleetgen/internal/emit"
)

// outputWriter is the part of the Kratix SDK artifacts are written through.
type outputWriter interface {
	WriteOutput(path string, data []byte) error
}

// outputTarget emits artifacts into the Kratix output directory.
type outputTarget struct {
	out outputWriter
}

func (t outputTarget) Open() (emit.Writer, error) {
	return t, nil
}

func (t outputTarget) Write(path string, data []byte) error {
	if err := t.out.WriteOutput(path, data); err != nil {
		return &emit.WriteError{Path: path, Op: "write output", Err: err}
	}
	return nil
}

func (t outputTarget) Close() error {
	return nil
}

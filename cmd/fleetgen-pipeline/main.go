// Command fleetgen-pipeline is the Kratix promise workflow that turns a
// function fleet request into the fleet's Kubernetes manifests.
package main

import (
	"context"
	"fmt"
	"log"

	kratix "github.com/syntasso/kratix-go"

	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
)

func main() {
	sdk := kratix.New()

	log.Printf("=== Function Fleet Promise Pipeline ===")
	log.Printf("Action: %s", sdk.WorkflowAction())

	resource, err := sdk.ReadResourceInput()
	if err != nil {
		log.Fatalf("ERROR: Failed to read resource input: %v", err)
	}

	log.Printf("Processing resource: %s/%s",
		resource.GetNamespace(), resource.GetName())

	if sdk.WorkflowAction() == "configure" {
		if err := handleConfigure(sdk, resource); err != nil {
			log.Fatalf("ERROR: Configure failed: %v", err)
		}
	} else if sdk.WorkflowAction() == "delete" {
		if err := handleDelete(sdk, resource); err != nil {
			log.Fatalf("ERROR: Delete failed: %v", err)
		}
	} else {
		log.Fatalf("ERROR: Unknown workflow action: %s", sdk.WorkflowAction())
	}

	log.Println("=== Pipeline completed successfully ===")
}

func handleConfigure(sdk *kratix.KratixSDK, resource kratix.Resource) error {
	req, err := readRequest(resource, resource.GetName())
	if err != nil {
		return err
	}

	summary, err := configure(context.Background(), req, sdk)
	if summary != nil {
		for _, a := range summary.Emitted {
			log.Printf("✓ Rendered %s", a.Path)
		}
		for _, w := range summary.Warnings {
			log.Printf("WARN: %s", w)
		}
	}
	if err != nil {
		return err
	}

	status := kratix.NewStatus()
	for _, f := range configuredStatus(req, summary) {
		status.Set(f.key, f.value)
	}
	if err := sdk.WriteStatus(status); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

func handleDelete(sdk *kratix.KratixSDK, resource kratix.Resource) error {
	log.Printf("✓ Delete scheduled for fleet: %s", resource.GetName())

	status := kratix.NewStatus()
	status.Set("phase", "Deleting")
	status.Set("message", fmt.Sprintf("Function fleet %s scheduled for deletion", resource.GetName()))

	if err := sdk.WriteStatus(status); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

// configure runs the manifests pipeline for req into out.
func configure(ctx context.Context, req request, out outputWriter) (*fleet.Summary, error) {
	g, err := fleet.New(req.options())
	if err != nil {
		return nil, err
	}
	return g.Run(ctx, outputTarget{out: out}, req.functions)
}

type statusField struct {
	key   string
	value any
}

func configuredStatus(req request, s *fleet.Summary) []statusField {
	return []statusField{
		{"phase", "Configured"},
		{"message", fmt.Sprintf("Function fleet %s configured with %d functions", req.fleetName, s.Descriptors)},
		{"namespace", req.options().Namespace},
		{"functions", s.Descriptors},
		{"artifacts", len(s.Emitted)},
		{"routes", req.routes()},
	}
}

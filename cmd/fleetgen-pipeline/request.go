package main

import (
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/fleet"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
)

// valueReader is the part of kratix.Resource the request is read from.
type valueReader interface {
	GetValue(path string) (interface{}, error)
}

// request is a function fleet resource request.
type request struct {
	fleetName     string
	namespace     string
	prefix        string
	imageRegistry string
	imageTag      string
	ingressHost   string
	functions     []registry.Descriptor
}

func readRequest(resource valueReader, name string) (request, error) {
	req := request{fleetName: name}
	if v, _ := getStringValueWithDefault(resource, "spec.fleetName", ""); v != "" {
		req.fleetName = v
	}
	if req.fleetName == "" {
		return request{}, fmt.Errorf("spec.fleetName or metadata.name is required")
	}
	req.namespace, _ = getStringValueWithDefault(resource, "spec.namespace", "")
	req.prefix, _ = getStringValueWithDefault(resource, "spec.prefix", derive.DefaultPrefix)
	req.imageRegistry, _ = getStringValueWithDefault(resource, "spec.imageRegistry", "")
	req.imageTag, _ = getStringValueWithDefault(resource, "spec.imageTag", "")
	req.ingressHost, _ = getStringValueWithDefault(resource, "spec.ingressHost", "")

	val, err := resource.GetValue("spec.functions")
	if err != nil {
		return request{}, fmt.Errorf("spec.functions is required: %w", err)
	}
	list, ok := val.([]interface{})
	if !ok || len(list) == 0 {
		return request{}, fmt.Errorf("spec.functions must be a non-empty list")
	}

	// Round-trip through the registry file form so that field checks match
	// what `fleetgen validate` reports for the same functions.
	data, err := yaml.Marshal(map[string]interface{}{"functions": list})
	if err != nil {
		return request{}, fmt.Errorf("encode spec.functions: %w", err)
	}
	req.functions, err = registry.Parse("spec.functions.yaml", data)
	if err != nil {
		return request{}, err
	}
	return req, nil
}

// options derives generator options for the manifests pipeline.
func (r request) options() fleet.Options {
	opts := fleet.DefaultOptions()
	opts.Pipelines = fleet.PipelineManifests
	opts.FleetName = r.fleetName
	opts.Namespace = r.namespace
	if opts.Namespace == "" {
		opts.Namespace = r.fleetName
	}
	opts.IngressHost = r.ingressHost
	if opts.IngressHost == "" {
		opts.IngressHost = r.fleetName + ".local"
	}
	opts.Prefix = r.prefix
	if r.imageRegistry != "" {
		opts.ImageRegistry = r.imageRegistry
	}
	if r.imageTag != "" {
		opts.ImageTag = r.imageTag
	}
	return opts
}

// routes lists the ingress paths of the requested functions.
func (r request) routes() []string {
	routes, err := derive.Routes(r.functions, r.prefix)
	if err != nil {
		return nil
	}
	out := make([]string, len(routes))
	for i, rt := range routes {
		out[i] = rt.Path
	}
	return out
}

// Helper functions

func getStringValue(resource valueReader, path string) (string, error) {
	val, err := resource.GetValue(path)
	if err != nil {
		return "", err
	}
	if str, ok := val.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("%s is not a string", path)
}

func getStringValueWithDefault(resource valueReader, path, defaultValue string) (string, error) {
	val, err := getStringValue(resource, path)
	if err != nil || val == "" {
		return defaultValue, nil
	}
	return val, nil
}

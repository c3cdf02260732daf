package fleet

import (
	"fmt"
	"strings"

	"github.com/jamesatintegratnio/fleetgen/internal/config"
	"github.com/jamesatintegratnio/fleetgen/internal/derive"
)

// Pipeline selects which artifact groups a run produces.
type Pipeline int

const (
	// PipelineServices emits the service scaffold, build recipe and dependency manifest.
	PipelineServices Pipeline = 1 << iota
	// PipelineManifests emits workload and network manifests plus the fleet-wide manifests.
	PipelineManifests

	PipelineAll = PipelineServices | PipelineManifests
)

// ParsePipeline parses "all", "services" or "manifests".
func ParsePipeline(s string) (Pipeline, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return PipelineAll, nil
	case "services":
		return PipelineServices, nil
	case "manifests":
		return PipelineManifests, nil
	default:
		return 0, fmt.Errorf("unknown pipeline %q: must be all, services or manifests", s)
	}
}

func (p Pipeline) String() string {
	switch p {
	case PipelineAll:
		return "all"
	case PipelineServices:
		return "services"
	case PipelineManifests:
		return "manifests"
	default:
		return fmt.Sprintf("Pipeline(%d)", int(p))
	}
}

// Options configure a Generator.
type Options struct {
	Prefix             string
	FleetName          string
	Namespace          string
	Component          string
	NamespaceComponent string
	ImageRegistry      string
	ImageTag           string
	LibPath            string
	LogLevel           string
	IngressHost        string
	IngressClass       string
	IngressAnnotations map[string]string
	Units              derive.Units
	Concurrency        int
	CheckManifests     bool
	Pipelines          Pipeline
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Generator)
}

// OptionsFromConfig converts the generator section of the config file.
func OptionsFromConfig(g config.GeneratorConfig) Options {
	extra := make(derive.Units, len(g.Units))
	for suffix, u := range g.Units {
		extra[suffix] = derive.Unit{Family: u.Family, Scale: u.Scale}
	}
	annotations := make(map[string]string, len(g.IngressAnnotations))
	for k, v := range g.IngressAnnotations {
		annotations[k] = v
	}
	return Options{
		Prefix:             g.Prefix,
		FleetName:          g.FleetName,
		Namespace:          g.NamespaceName(),
		Component:          g.Component,
		NamespaceComponent: g.NamespaceComponent,
		ImageRegistry:      g.ImageRegistry,
		ImageTag:           g.ImageTag,
		LibPath:            g.LibPath,
		LogLevel:           g.LogLevel,
		IngressHost:        g.Host(),
		IngressClass:       g.IngressClass,
		IngressAnnotations: annotations,
		Units:              derive.DefaultUnits().With(extra),
		Concurrency:        g.Concurrency,
		CheckManifests:     g.CheckManifests,
		Pipelines:          PipelineAll,
	}
}

func (o *Options) setDefaults() {
	if o.FleetName == "" {
		o.FleetName = "oai-functions"
	}
	if o.Namespace == "" {
		o.Namespace = o.FleetName
	}
	if o.IngressHost == "" {
		o.IngressHost = o.FleetName + ".local"
	}
	if o.Units == nil {
		o.Units = derive.DefaultUnits()
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Pipelines == 0 {
		o.Pipelines = PipelineAll
	}
}

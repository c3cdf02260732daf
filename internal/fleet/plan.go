package fleet

import (
	"math"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
)

// PlanEntry is the derived view of one function.
type PlanEntry struct {
	Name          string `json:"name" yaml:"name"`
	Endpoint      string `json:"endpoint" yaml:"endpoint"`
	Route         string `json:"route" yaml:"route"`
	Port          int    `json:"port" yaml:"port"`
	Replicas      int    `json:"replicas" yaml:"replicas"`
	CPURequest    string `json:"cpuRequest" yaml:"cpuRequest"`
	CPULimit      string `json:"cpuLimit" yaml:"cpuLimit"`
	MemoryRequest string `json:"memoryRequest" yaml:"memoryRequest"`
	MemoryLimit   string `json:"memoryLimit" yaml:"memoryLimit"`
	Image         string `json:"image" yaml:"image"`
}

// PlanTotals sums requests and limits over every replica of the fleet.
// Values with unrecognized units are left out of the sums.
type PlanTotals struct {
	Functions      int    `json:"functions" yaml:"functions"`
	Replicas       int    `json:"replicas" yaml:"replicas"`
	CPURequests    string `json:"cpuRequests" yaml:"cpuRequests"`
	CPULimits      string `json:"cpuLimits" yaml:"cpuLimits"`
	MemoryRequests string `json:"memoryRequests" yaml:"memoryRequests"`
	MemoryLimits   string `json:"memoryLimits" yaml:"memoryLimits"`
	Artifacts      int    `json:"artifacts" yaml:"artifacts"`
}

// Plan describes what a run over the registry would produce.
type Plan struct {
	Namespace string      `json:"namespace" yaml:"namespace"`
	Host      string      `json:"host" yaml:"host"`
	Pipelines string      `json:"pipelines" yaml:"pipelines"`
	Functions []PlanEntry `json:"functions" yaml:"functions"`
	Totals    PlanTotals  `json:"totals" yaml:"totals"`
	Warnings  []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Validate runs every check Run performs before it opens the target and
// returns the non-fatal warnings.
func (g *Generator) Validate(descs []registry.Descriptor) ([]string, error) {
	reg, err := registry.New(descs...)
	if err != nil {
		return nil, err
	}
	var warnings []string
	for _, d := range reg.Descriptors() {
		s, err := g.subjectOf(d)
		if err != nil {
			return nil, err
		}
		for _, w := range s.warnings {
			warnings = append(warnings, d.Name+": "+w.Error())
		}
	}
	return warnings, nil
}

// Plan derives endpoints, routes, limits and images for descs without
// rendering anything.
func (g *Generator) Plan(descs []registry.Descriptor) (*Plan, error) {
	reg, err := registry.New(descs...)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		Namespace: g.opts.Namespace,
		Host:      g.opts.IngressHost,
		Pipelines: g.opts.Pipelines.String(),
		Functions: make([]PlanEntry, 0, reg.Len()),
	}

	var sums [4]float64 // cpu requests, cpu limits, memory requests, memory limits
	add := func(i int, x string, replicas int) {
		if _, v, ok := g.opts.Units.Base(x); ok {
			sums[i] += v * float64(replicas)
		}
	}
	for _, d := range reg.Descriptors() {
		s, err := g.subjectOf(d)
		if err != nil {
			return nil, err
		}
		for _, w := range s.warnings {
			p.Warnings = append(p.Warnings, d.Name+": "+w.Error())
		}
		p.Functions = append(p.Functions, PlanEntry{
			Name:          d.Name,
			Endpoint:      s.endpoint,
			Route:         "/" + s.endpoint,
			Port:          d.Port,
			Replicas:      d.Replicas,
			CPURequest:    d.CPU,
			CPULimit:      s.cpuLimit,
			MemoryRequest: d.Memory,
			MemoryLimit:   s.memLimit,
			Image:         derive.Image(g.opts.ImageRegistry, d.Name, g.opts.ImageTag),
		})
		add(0, d.CPU, d.Replicas)
		add(1, s.cpuLimit, d.Replicas)
		add(2, d.Memory, d.Replicas)
		add(3, s.memLimit, d.Replicas)
		p.Totals.Replicas += d.Replicas
	}

	p.Totals.Functions = reg.Len()
	p.Totals.CPURequests = formatCores(sums[0])
	p.Totals.CPULimits = formatCores(sums[1])
	p.Totals.MemoryRequests = formatBytes(sums[2])
	p.Totals.MemoryLimits = formatBytes(sums[3])
	p.Totals.Artifacts = g.artifactCount(reg.Len())
	return p, nil
}

func (g *Generator) artifactCount(n int) int {
	count := 0
	for _, a := range descriptorArtifacts {
		if g.opts.Pipelines&a.pipeline != 0 {
			count += n
		}
	}
	if g.opts.Pipelines&PipelineManifests != 0 {
		count += len(fleetArtifacts)
	}
	return count
}

func formatCores(v float64) string {
	return resource.NewMilliQuantity(int64(math.Round(v*1000)), resource.DecimalSI).String()
}

func formatBytes(v float64) string {
	return resource.NewQuantity(int64(math.Round(v)), resource.BinarySI).String()
}

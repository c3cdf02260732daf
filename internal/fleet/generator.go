// Package fleet orchestrates a generation run: validate the registry,
// render and emit every descriptor's artifacts on a bounded worker pool,
// then emit the fleet-wide manifests.
package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	"github.com/jamesatintegratnio/fleetgen/internal/manifest"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/render"
)

// State is the orchestrator state.
type State string

const (
	StateIdle                State = "Idle"
	StateValidating          State = "Validating"
	StateGenerating          State = "Generating"
	StateAggregateGenerating State = "AggregateGenerating"
	StateDone                State = "Done"
	StateFailed              State = "Failed"
)

// Failure identifies the descriptor a run failed on.
type Failure struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
}

// Summary reports the outcome of a run.
type Summary struct {
	State       State      `json:"state" yaml:"state"`
	Pipelines   string     `json:"pipelines" yaml:"pipelines"`
	Descriptors int        `json:"descriptors" yaml:"descriptors"`
	FailedAt    *Failure   `json:"failedAt,omitempty" yaml:"failedAt,omitempty"`
	Emitted     []Artifact `json:"emitted" yaml:"emitted"`
	Warnings    []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	Duration    string     `json:"duration" yaml:"duration"`

	elapsed time.Duration
}

// Generator renders and emits fleets. It is safe to reuse across runs but
// runs must not overlap.
type Generator struct {
	opts     Options
	renderer *render.Renderer
	metrics  *Metrics
}

// New builds a generator and verifies every template against the values
// the generator supplies for it.
func New(opts Options) (*Generator, error) {
	opts.setDefaults()
	r, err := render.New()
	if err != nil {
		return nil, err
	}
	g := &Generator{opts: opts, renderer: r, metrics: newMetrics()}
	g.metrics.setState(StateIdle)

	s := subject{desc: probe, endpoint: "probe", cpuLimit: "200m", memLimit: "256Mi"}
	for _, a := range descriptorArtifacts {
		if err := r.Check(a.kind, g.descriptorValues(a.kind, s)); err != nil {
			return nil, fmt.Errorf("template check: %w", err)
		}
	}
	for _, a := range fleetArtifacts {
		if err := r.Check(a.kind, g.fleetValues(a.kind, nil)); err != nil {
			return nil, fmt.Errorf("template check: %w", err)
		}
	}
	return g, nil
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Metrics returns the generator's run metrics.
func (g *Generator) Metrics() *Metrics {
	return g.metrics
}

// run is the mutable state of one Run.
type run struct {
	mu       sync.Mutex
	summary  *Summary
	emitted  [][]Artifact
	warnings [][]string
}

func (r *run) fail(i int, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary.FailedAt == nil {
		r.summary.FailedAt = &Failure{Index: i, Name: name}
	}
}

// Run validates descs, then renders and writes every artifact to target.
// An invalid registry fails before target is opened. The first failing
// descriptor cancels the remaining work and the fleet-wide pass is skipped.
// Artifacts already written are left in place.
func (g *Generator) Run(ctx context.Context, target emit.Target, descs []registry.Descriptor) (*Summary, error) {
	start := time.Now()
	g.metrics.runsTotal.Inc()
	g.metrics.descriptors.Set(float64(len(descs)))

	r := &run{
		summary: &Summary{
			State:       StateIdle,
			Pipelines:   g.opts.Pipelines.String(),
			Descriptors: len(descs),
			Emitted:     []Artifact{},
		},
		emitted:  make([][]Artifact, len(descs)+1),
		warnings: make([][]string, len(descs)+1),
	}

	err := g.run(ctx, target, descs, r)

	s := r.summary
	for i := range r.emitted {
		s.Emitted = append(s.Emitted, r.emitted[i]...)
		s.Warnings = append(s.Warnings, r.warnings[i]...)
	}
	if err != nil {
		s.State = StateFailed
		s.Error = err.Error()
	} else {
		s.State = StateDone
	}
	s.elapsed = time.Since(start)
	s.Duration = s.elapsed.Round(time.Millisecond).String()
	g.setState(s, s.State)
	g.metrics.finish(s)
	return s, err
}

func (g *Generator) setState(s *Summary, st State) {
	s.State = st
	g.metrics.setState(st)
}

func (g *Generator) run(ctx context.Context, target emit.Target, descs []registry.Descriptor, r *run) (err error) {
	g.setState(r.summary, StateValidating)
	reg, err := registry.New(descs...)
	if err != nil {
		return err
	}
	descs = reg.Descriptors()
	subjects := make([]subject, len(descs))
	for i, d := range descs {
		if subjects[i], err = g.subjectOf(d); err != nil {
			r.fail(i, d.Name)
			return err
		}
	}
	routes, err := derive.Routes(descs, g.opts.Prefix)
	if err != nil {
		return err
	}

	w, err := target.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	g.setState(r.summary, StateGenerating)
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, s := range subjects {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			for _, warn := range s.warnings {
				r.warnings[i] = append(r.warnings[i], warn.Error())
				g.countWarning(warn)
			}
			arts, warns, err := g.renderDescriptor(s)
			r.warnings[i] = append(r.warnings[i], warns...)
			if err != nil {
				r.fail(i, s.desc.Name)
				return fmt.Errorf("%s: %w", s.desc.Name, err)
			}
			for _, a := range arts {
				if err := egctx.Err(); err != nil {
					return err
				}
				if err := w.Write(a.Path, a.Data); err != nil {
					r.fail(i, s.desc.Name)
					return fmt.Errorf("%s: %w", s.desc.Name, err)
				}
				r.emitted[i] = append(r.emitted[i], a)
				g.metrics.artifactsEmitted.WithLabelValues(string(a.Kind)).Inc()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if g.opts.Pipelines&PipelineManifests == 0 {
		return nil
	}

	g.setState(r.summary, StateAggregateGenerating)
	last := len(descs)
	for _, spec := range fleetArtifacts {
		a, warns, err := g.renderArtifact(spec, spec.path(""), "", g.fleetValues(spec.kind, routes))
		r.warnings[last] = append(r.warnings[last], warns...)
		if err != nil {
			return err
		}
		if err := w.Write(a.Path, a.Data); err != nil {
			return err
		}
		r.emitted[last] = append(r.emitted[last], a)
		g.metrics.artifactsEmitted.WithLabelValues(string(a.Kind)).Inc()
	}
	return nil
}

// renderDescriptor renders every artifact of one descriptor the selected
// pipelines produce, in artifact order.
func (g *Generator) renderDescriptor(s subject) ([]Artifact, []string, error) {
	var (
		arts     []Artifact
		warnings []string
	)
	for _, spec := range descriptorArtifacts {
		if g.opts.Pipelines&spec.pipeline == 0 {
			continue
		}
		a, warns, err := g.renderArtifact(spec, spec.path(s.desc.Name), s.desc.Name, g.descriptorValues(spec.kind, s))
		warnings = append(warnings, warns...)
		if err != nil {
			return nil, warnings, err
		}
		arts = append(arts, a)
	}
	return arts, warnings, nil
}

func (g *Generator) renderArtifact(spec artifactSpec, path, function string, values render.Values) (Artifact, []string, error) {
	start := time.Now()
	data, warns, err := g.renderer.Render(spec.kind, values)
	g.metrics.renderDuration.WithLabelValues(string(spec.kind)).Observe(time.Since(start).Seconds())

	warnings := make([]string, 0, len(warns))
	for _, w := range warns {
		warnings = append(warnings, w.Error())
		g.countWarning(w)
	}
	if err != nil {
		return Artifact{}, warnings, err
	}
	if g.opts.CheckManifests && spec.manifest != "" {
		if err := manifest.Check(path, spec.manifest, data); err != nil {
			return Artifact{}, warnings, err
		}
	}
	return Artifact{Kind: spec.kind, Path: path, Function: function, Data: data}, warnings, nil
}

func (g *Generator) countWarning(w error) {
	switch w.(type) {
	case *render.UnusedValueWarning:
		g.metrics.warnings.WithLabelValues("unused_value").Inc()
	case *derive.UnrecognizedUnitWarning:
		g.metrics.warnings.WithLabelValues("unrecognized_unit").Inc()
	default:
		g.metrics.warnings.WithLabelValues("other").Inc()
	}
}

// RenderOne renders the artifacts of a single descriptor without writing
// them. The descriptor is validated on its own.
func (g *Generator) RenderOne(d registry.Descriptor) ([]Artifact, []string, error) {
	if _, err := registry.New(d); err != nil {
		return nil, nil, err
	}
	s, err := g.subjectOf(d)
	if err != nil {
		return nil, nil, err
	}
	arts, warns, err := g.renderDescriptor(s)
	for _, w := range s.warnings {
		warns = append(warns, w.Error())
	}
	return arts, warns, err
}

// Elapsed returns the wall time of the run.
func (s *Summary) Elapsed() time.Duration {
	return s.elapsed
}

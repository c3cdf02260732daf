package fleet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/emit"
	"github.com/jamesatintegratnio/fleetgen/internal/manifest"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/render"
)

func newGenerator(t *testing.T, mutate func(*Options)) *Generator {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	g, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func nrCRC() registry.Descriptor {
	return registry.Descriptor{
		Name:        "nr_crc",
		Port:        8002,
		Replicas:    2,
		CPU:         "100m",
		Memory:      "128Mi",
		Description: "CRC computation for NR transport channels",
	}
}

func runMemory(t *testing.T, g *Generator, descs []registry.Descriptor) (*emit.Memory, *Summary) {
	t.Helper()
	mem := emit.NewMemory()
	s, err := g.Run(context.Background(), mem, descs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return mem, s
}

func mustFile(t *testing.T, mem *emit.Memory, path string) []byte {
	t.Helper()
	data, ok := mem.File(path)
	if !ok {
		t.Fatalf("%s was not emitted; got %v", path, mem.Paths())
	}
	return data
}

func TestRunSingleFunctionEndToEnd(t *testing.T) {
	g := newGenerator(t, nil)
	mem, s := runMemory(t, g, []registry.Descriptor{nrCRC()})

	if s.State != StateDone {
		t.Errorf("State = %s, want %s", s.State, StateDone)
	}
	want := []string{
		"containers/services/nr_crc/Dockerfile",
		"containers/services/nr_crc/app.py",
		"containers/services/nr_crc/requirements.txt",
		"kubernetes/configmap.yaml",
		"kubernetes/deployments/nr_crc.yaml",
		"kubernetes/ingress.yaml",
		"kubernetes/namespace.yaml",
		"kubernetes/services/nr_crc.yaml",
	}
	if diff := cmp.Diff(want, mem.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	var dep appsv1.Deployment
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/deployments/nr_crc.yaml"), &dep); err != nil {
		t.Fatalf("decode deployment: %v", err)
	}
	if *dep.Spec.Replicas != 2 {
		t.Errorf("replicas = %d, want 2", *dep.Spec.Replicas)
	}
	if dep.Namespace != "oai-functions" {
		t.Errorf("namespace = %q", dep.Namespace)
	}
	c := dep.Spec.Template.Spec.Containers[0]
	res := map[string]string{
		"requests.cpu":    c.Resources.Requests.Cpu().String(),
		"requests.memory": c.Resources.Requests.Memory().String(),
		"limits.cpu":      c.Resources.Limits.Cpu().String(),
		"limits.memory":   c.Resources.Limits.Memory().String(),
	}
	wantRes := map[string]string{
		"requests.cpu":    "100m",
		"requests.memory": "128Mi",
		"limits.cpu":      "200m",
		"limits.memory":   "256Mi",
	}
	if diff := cmp.Diff(wantRes, res); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}
	if c.Image != "${DOCKER_REGISTRY:-docker.io/your-username}/nr_crc:latest" {
		t.Errorf("image = %q", c.Image)
	}
	if c.Ports[0].ContainerPort != 8002 {
		t.Errorf("containerPort = %d, want 8002", c.Ports[0].ContainerPort)
	}
	if c.LivenessProbe.HTTPGet.Path != HealthPath || c.ReadinessProbe.HTTPGet.Path != ReadyPath {
		t.Errorf("probe paths = %q, %q", c.LivenessProbe.HTTPGet.Path, c.ReadinessProbe.HTTPGet.Path)
	}
	if c.LivenessProbe.HTTPGet.Port.IntValue() != 8002 {
		t.Errorf("liveness port = %v", c.LivenessProbe.HTTPGet.Port)
	}

	var svc corev1.Service
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/services/nr_crc.yaml"), &svc); err != nil {
		t.Fatalf("decode service: %v", err)
	}
	p := svc.Spec.Ports[0]
	if p.Port != 80 || p.TargetPort.IntValue() != 8002 {
		t.Errorf("service port %d -> %v, want 80 -> 8002", p.Port, p.TargetPort)
	}
	if svc.Spec.Selector["app"] != "nr_crc" {
		t.Errorf("selector = %v", svc.Spec.Selector)
	}

	var ing networkingv1.Ingress
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/ingress.yaml"), &ing); err != nil {
		t.Fatalf("decode ingress: %v", err)
	}
	paths := ing.Spec.Rules[0].HTTP.Paths
	if len(paths) != 1 || paths[0].Path != "/crc" || paths[0].Backend.Service.Name != "nr_crc" {
		t.Errorf("ingress paths = %+v", paths)
	}
	if ing.Spec.Rules[0].Host != "oai-functions.local" {
		t.Errorf("host = %q", ing.Spec.Rules[0].Host)
	}
	if got := ing.Annotations["nginx.ingress.kubernetes.io/ssl-redirect"]; got != "false" {
		t.Errorf("ssl-redirect annotation = %q", got)
	}

	app := string(mustFile(t, mem, "containers/services/nr_crc/app.py"))
	for _, want := range []string{
		`FUNCTION = "nr_crc"`,
		`ENDPOINT = "crc"`,
		`@app.route("/" + ENDPOINT, methods=["POST"])`,
		`@app.route("/health", methods=["GET"])`,
		`os.environ.get("PORT", 8002)`,
		`OUTPUT_LIMIT = 500`,
		`"""NR CRC service.`,
	} {
		if !strings.Contains(app, want) {
			t.Errorf("app.py missing %q", want)
		}
	}

	docker := string(mustFile(t, mem, "containers/services/nr_crc/Dockerfile"))
	for _, want := range []string{
		"COPY containers/services/nr_crc/app.py /app/",
		"EXPOSE 8002",
		"ENV PORT=8002",
	} {
		if !strings.Contains(docker, want) {
			t.Errorf("Dockerfile missing %q", want)
		}
	}
	if got := string(mustFile(t, mem, "containers/services/nr_crc/requirements.txt")); got != "Flask==3.0.0\nWerkzeug==3.0.1\n" {
		t.Errorf("requirements.txt = %q", got)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	descs := registry.Builtin().Descriptors()
	a, _ := runMemory(t, newGenerator(t, nil), descs)
	b, _ := runMemory(t, newGenerator(t, func(o *Options) { o.Concurrency = 1 }), descs)
	if diff := cmp.Diff(a.Files(), b.Files()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestRunPathsAreUnique(t *testing.T) {
	descs := registry.Builtin().Descriptors()
	mem, s := runMemory(t, newGenerator(t, nil), descs)
	want := len(descs)*len(descriptorArtifacts) + len(fleetArtifacts)
	if got := len(mem.Paths()); got != want {
		t.Errorf("distinct paths = %d, want %d", got, want)
	}
	if len(s.Emitted) != want {
		t.Errorf("summary lists %d artifacts, want %d", len(s.Emitted), want)
	}
}

func TestRunSummaryOrder(t *testing.T) {
	descs := registry.Builtin().Descriptors()[:3]
	_, s := runMemory(t, newGenerator(t, nil), descs)

	var got []string
	for _, a := range s.Emitted {
		got = append(got, a.Path)
	}
	var want []string
	for _, d := range descs {
		for _, spec := range descriptorArtifacts {
			want = append(want, spec.path(d.Name))
		}
	}
	want = append(want, "kubernetes/namespace.yaml", "kubernetes/configmap.yaml", "kubernetes/ingress.yaml")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("emitted order mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRoutingCompleteness(t *testing.T) {
	descs := registry.Builtin().Descriptors()
	mem, _ := runMemory(t, newGenerator(t, nil), descs)

	var ing networkingv1.Ingress
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/ingress.yaml"), &ing); err != nil {
		t.Fatal(err)
	}
	paths := ing.Spec.Rules[0].HTTP.Paths
	if len(paths) != len(descs) {
		t.Fatalf("ingress has %d paths, want %d", len(paths), len(descs))
	}
	for i, d := range descs {
		ep, _ := derive.Endpoint(d.Name, derive.DefaultPrefix)
		if paths[i].Path != "/"+ep || paths[i].Backend.Service.Name != d.Name {
			t.Errorf("path %d = %s -> %s, want /%s -> %s", i, paths[i].Path, paths[i].Backend.Service.Name, ep, d.Name)
		}
		if paths[i].Backend.Service.Port.Number != ServicePort {
			t.Errorf("path %d port = %d", i, paths[i].Backend.Service.Port.Number)
		}
	}
}

func TestRunDuplicatePortWritesNothing(t *testing.T) {
	descs := []registry.Descriptor{
		nrCRC(),
		{Name: "nr_crc_check", Port: 8002, Replicas: 1, CPU: "150m", Memory: "192Mi"},
	}
	root := filepath.Join(t.TempDir(), "out")
	g := newGenerator(t, nil)

	s, err := g.Run(context.Background(), emit.Dir{Root: root}, descs)
	var dErr *registry.DuplicateKeyError
	if !errors.As(err, &dErr) || dErr.Key != "port" {
		t.Fatalf("Run error = %v, want duplicate port", err)
	}
	if s.State != StateFailed {
		t.Errorf("State = %s, want %s", s.State, StateFailed)
	}
	if len(s.Emitted) != 0 {
		t.Errorf("emitted %d artifacts, want 0", len(s.Emitted))
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("output root was created: %v", err)
	}
	if got := testutil.ToFloat64(g.Metrics().lastRunSuccess); got != 0 {
		t.Errorf("last_run_success = %v, want 0", got)
	}
}

func TestRunEmptyEndpointWritesNothing(t *testing.T) {
	other := nrCRC()
	other.Name, other.Port = "ldpc", 8007
	mem := emit.NewMemory()
	g := newGenerator(t, func(o *Options) { o.Prefix = "nr_crc" })
	s, err := g.Run(context.Background(), mem, []registry.Descriptor{other, nrCRC()})
	var eErr *derive.EmptyEndpointError
	if !errors.As(err, &eErr) {
		t.Fatalf("Run error = %v, want EmptyEndpointError", err)
	}
	if mem.Opened() {
		t.Error("target opened for an invalid registry")
	}
	if diff := cmp.Diff(&Failure{Index: 1, Name: "nr_crc"}, s.FailedAt); diff != "" {
		t.Errorf("FailedAt mismatch (-want +got):\n%s", diff)
	}
}

// failingTarget fails every write to one path.
type failingTarget struct {
	failPath string
	mu       sync.Mutex
	written  []string
}

func (f *failingTarget) Open() (emit.Writer, error) { return f, nil }
func (f *failingTarget) Close() error                { return nil }
func (f *failingTarget) Write(path string, _ []byte) error {
	if path == f.failPath {
		return &emit.WriteError{Path: path, Op: "write", Err: fmt.Errorf("disk full")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, path)
	return nil
}

func TestRunWriteFailureStopsBeforeAggregate(t *testing.T) {
	descs := registry.Builtin().Descriptors()
	target := &failingTarget{failPath: "kubernetes/deployments/nr_ldpc.yaml"}
	g := newGenerator(t, nil)

	s, err := g.Run(context.Background(), target, descs)
	var wErr *emit.WriteError
	if !errors.As(err, &wErr) || wErr.Path != target.failPath {
		t.Fatalf("Run error = %v, want WriteError for %s", err, target.failPath)
	}
	if s.State != StateFailed {
		t.Errorf("State = %s, want %s", s.State, StateFailed)
	}
	if s.FailedAt == nil || s.FailedAt.Name != "nr_ldpc" || s.FailedAt.Index != 6 {
		t.Errorf("FailedAt = %+v, want nr_ldpc at 6", s.FailedAt)
	}
	for _, p := range target.written {
		if strings.HasPrefix(p, "kubernetes/") && !strings.Contains(p, "/deployments/") && !strings.Contains(p, "/services/") {
			t.Errorf("fleet-wide artifact %s written after a failure", p)
		}
	}
	if len(s.Emitted) != len(target.written) {
		t.Errorf("summary lists %d artifacts, target saw %d", len(s.Emitted), len(target.written))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newGenerator(t, nil)
	mem := emit.NewMemory()
	s, err := g.Run(ctx, mem, registry.Builtin().Descriptors())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if s.State != StateFailed {
		t.Errorf("State = %s", s.State)
	}
	for _, p := range mem.Paths() {
		if p == "kubernetes/ingress.yaml" {
			t.Error("ingress written for a cancelled run")
		}
	}
}

func TestRunPipelines(t *testing.T) {
	tests := []struct {
		pipeline Pipeline
		want     int
		absent   string
	}{
		{PipelineServices, 3, "kubernetes/"},
		{PipelineManifests, 2 + 3, "containers/"},
	}
	for _, tt := range tests {
		t.Run(tt.pipeline.String(), func(t *testing.T) {
			g := newGenerator(t, func(o *Options) { o.Pipelines = tt.pipeline })
			mem, s := runMemory(t, g, []registry.Descriptor{nrCRC()})
			if len(s.Emitted) != tt.want {
				t.Errorf("emitted %d, want %d", len(s.Emitted), tt.want)
			}
			for _, p := range mem.Paths() {
				if strings.HasPrefix(p, tt.absent) {
					t.Errorf("unexpected artifact %s", p)
				}
			}
		})
	}
}

func TestRunUnrecognizedUnitWarns(t *testing.T) {
	d := nrCRC()
	d.Memory = "1Gi"
	g := newGenerator(t, nil)
	mem, s := runMemory(t, g, []registry.Descriptor{d})

	if len(s.Warnings) != 1 || !strings.Contains(s.Warnings[0], `"1Gi"`) {
		t.Errorf("warnings = %v, want one unit warning", s.Warnings)
	}
	var dep appsv1.Deployment
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/deployments/nr_crc.yaml"), &dep); err != nil {
		t.Fatal(err)
	}
	if got := dep.Spec.Template.Spec.Containers[0].Resources.Limits.Memory().String(); got != "1Gi" {
		t.Errorf("memory limit = %q, want 1Gi unchanged", got)
	}
	if got := testutil.ToFloat64(g.Metrics().warnings.WithLabelValues("unrecognized_unit")); got != 1 {
		t.Errorf("unrecognized_unit warnings = %v, want 1", got)
	}
}

func TestRunLargeQuantityDoubles(t *testing.T) {
	d := nrCRC()
	d.CPU = "9223372036854775807m"
	mem, s := runMemory(t, newGenerator(t, nil), []registry.Descriptor{d})
	if len(s.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", s.Warnings)
	}
	var dep appsv1.Deployment
	if err := manifest.Decode(mustFile(t, mem, "kubernetes/deployments/nr_crc.yaml"), &dep); err != nil {
		t.Fatal(err)
	}
	got := dep.Spec.Template.Spec.Containers[0].Resources.Limits.Cpu()
	if want := resource.MustParse("18446744073709551614m"); got.Cmp(want) != 0 {
		t.Errorf("cpu limit = %s, want %s", got.String(), want.String())
	}
}

func TestRunExtendedUnits(t *testing.T) {
	d := nrCRC()
	d.Memory = "1Gi"
	g := newGenerator(t, func(o *Options) {
		o.Units = derive.DefaultUnits().With(derive.Units{"Gi": {Family: "memory", Scale: 1 << 30}})
	})
	_, s := runMemory(t, g, []registry.Descriptor{d})
	if len(s.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", s.Warnings)
	}
}

func TestRunMetrics(t *testing.T) {
	descs := registry.Builtin().Descriptors()
	g := newGenerator(t, nil)
	runMemory(t, g, descs)

	m := g.Metrics()
	if got := testutil.ToFloat64(m.artifactsEmitted.WithLabelValues(string(render.KindDeployment))); got != float64(len(descs)) {
		t.Errorf("deployment artifacts = %v, want %d", got, len(descs))
	}
	if got := testutil.ToFloat64(m.artifactsEmitted.WithLabelValues(string(render.KindIngress))); got != 1 {
		t.Errorf("ingress artifacts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastRunSuccess); got != 1 {
		t.Errorf("last_run_success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.stateInfo.WithLabelValues(string(StateDone))); got != 1 {
		t.Errorf("state_info{Done} = %v, want 1", got)
	}

	path := filepath.Join(t.TempDir(), "fleetgen.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fleetgen_generator_artifacts_emitted_total") {
		t.Errorf("textfile missing artifact counter:\n%s", data)
	}
}

func TestRenderOne(t *testing.T) {
	g := newGenerator(t, nil)
	arts, warns, err := g.RenderOne(nrCRC())
	if err != nil {
		t.Fatalf("RenderOne: %v", err)
	}
	if len(warns) != 0 {
		t.Errorf("warnings = %v", warns)
	}
	if len(arts) != len(descriptorArtifacts) {
		t.Errorf("got %d artifacts, want %d", len(arts), len(descriptorArtifacts))
	}

	bad := nrCRC()
	bad.Replicas = 0
	if _, _, err := g.RenderOne(bad); err == nil {
		t.Error("RenderOne should validate the descriptor")
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		kind render.Kind
		want string
	}{
		{render.KindApp, "containers/services/nr_crc/app.py"},
		{render.KindDockerfile, "containers/services/nr_crc/Dockerfile"},
		{render.KindRequirements, "containers/services/nr_crc/requirements.txt"},
		{render.KindDeployment, "kubernetes/deployments/nr_crc.yaml"},
		{render.KindService, "kubernetes/services/nr_crc.yaml"},
		{render.KindNamespace, "kubernetes/namespace.yaml"},
		{render.KindConfigMap, "kubernetes/configmap.yaml"},
		{render.KindIngress, "kubernetes/ingress.yaml"},
	}
	for _, tt := range tests {
		if got := Path(tt.kind, "nr_crc"); got != tt.want {
			t.Errorf("Path(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestParsePipeline(t *testing.T) {
	tests := []struct {
		in      string
		want    Pipeline
		wantErr bool
	}{
		{"", PipelineAll, false},
		{"all", PipelineAll, false},
		{"Services", PipelineServices, false},
		{"manifests", PipelineManifests, false},
		{"charts", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePipeline(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePipeline(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	o := DefaultOptions()
	if o.Namespace != "oai-functions" || o.IngressHost != "oai-functions.local" {
		t.Errorf("options = %+v", o)
	}
	if _, ok := o.Units["Mi"]; !ok {
		t.Error("default units missing Mi")
	}
}

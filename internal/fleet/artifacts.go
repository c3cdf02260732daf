package fleet

import (
	"path"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/render"
)

// artifactSpec describes one artifact the generator emits.
type artifactSpec struct {
	kind     render.Kind
	pipeline Pipeline
	// manifest is the Kubernetes kind the artifact is checked as, if any.
	manifest string
	path     func(name string) string
}

// descriptorArtifacts are emitted once per descriptor, in this order.
var descriptorArtifacts = []artifactSpec{
	{render.KindApp, PipelineServices, "", func(n string) string { return path.Join(derive.ServiceDir(n), "app.py") }},
	{render.KindDockerfile, PipelineServices, "", func(n string) string { return path.Join(derive.ServiceDir(n), "Dockerfile") }},
	{render.KindRequirements, PipelineServices, "", func(n string) string { return path.Join(derive.ServiceDir(n), "requirements.txt") }},
	{render.KindDeployment, PipelineManifests, "Deployment", func(n string) string { return "kubernetes/deployments/" + n + ".yaml" }},
	{render.KindService, PipelineManifests, "Service", func(n string) string { return "kubernetes/services/" + n + ".yaml" }},
}

// fleetArtifacts are emitted once per run after every descriptor succeeded.
var fleetArtifacts = []artifactSpec{
	{render.KindNamespace, PipelineManifests, "Namespace", func(string) string { return "kubernetes/namespace.yaml" }},
	{render.KindConfigMap, PipelineManifests, "ConfigMap", func(string) string { return "kubernetes/configmap.yaml" }},
	{render.KindIngress, PipelineManifests, "Ingress", func(string) string { return "kubernetes/ingress.yaml" }},
}

// Path returns where the artifact of kind is written for the named
// function. Fleet-wide kinds ignore name.
func Path(kind render.Kind, name string) string {
	for _, specs := range [][]artifactSpec{descriptorArtifacts, fleetArtifacts} {
		for _, s := range specs {
			if s.kind == kind {
				return s.path(name)
			}
		}
	}
	return ""
}

// Artifact is one rendered file.
type Artifact struct {
	Kind     render.Kind `json:"kind" yaml:"kind"`
	Path     string      `json:"path" yaml:"path"`
	Function string      `json:"function,omitempty" yaml:"function,omitempty"`
	Data     []byte      `json:"-" yaml:"-"`
}

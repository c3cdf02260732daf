package fleet

import (
	"sort"

	"github.com/jamesatintegratnio/fleetgen/internal/derive"
	"github.com/jamesatintegratnio/fleetgen/internal/registry"
	"github.com/jamesatintegratnio/fleetgen/internal/render"
)

// subject is a descriptor together with every figure derived from it.
type subject struct {
	desc     registry.Descriptor
	endpoint string
	cpuLimit string
	memLimit string
	warnings []error
}

func (g *Generator) subjectOf(d registry.Descriptor) (subject, error) {
	ep, err := derive.Endpoint(d.Name, g.opts.Prefix)
	if err != nil {
		return subject{}, err
	}
	s := subject{desc: d, endpoint: ep}
	var w error
	if s.cpuLimit, w = g.opts.Units.Limit(d.CPU); w != nil {
		s.warnings = append(s.warnings, w)
	}
	if s.memLimit, w = g.opts.Units.Limit(d.Memory); w != nil {
		s.warnings = append(s.warnings, w)
	}
	return s, nil
}

// descriptorValues supplies exactly the placeholders the template of kind
// reads, so that any drift shows up as a missing or unused value.
func (g *Generator) descriptorValues(kind render.Kind, s subject) render.Values {
	d := s.desc
	switch kind {
	case render.KindApp:
		return render.Values{
			render.KeyName:        d.Name,
			render.KeyEndpoint:    s.endpoint,
			render.KeyTitle:       derive.DisplayTitle(d.Name),
			render.KeyDescription: d.Description,
			render.KeyVersion:     ScaffoldVersion,
			render.KeyPort:        d.Port,
			render.KeyPortEnv:     PortEnv,
			render.KeyLibPath:     g.opts.LibPath,
			render.KeyLibPathEnv:  LibPathEnv,
			render.KeyHealthPath:  HealthPath,
			render.KeyReadyPath:   ReadyPath,
			render.KeyInfoPath:    InfoPath,
			render.KeyOutputLimit: OutputLimit,
		}
	case render.KindDockerfile:
		return render.Values{
			render.KeyName:       d.Name,
			render.KeyServiceDir: derive.ServiceDir(d.Name),
			render.KeyPort:       d.Port,
			render.KeyPortEnv:    PortEnv,
			render.KeyLibPath:    g.opts.LibPath,
			render.KeyLibPathEnv: LibPathEnv,
		}
	case render.KindRequirements:
		return render.Values{}
	case render.KindDeployment:
		return render.Values{
			render.KeyName:          d.Name,
			render.KeyNamespace:     g.opts.Namespace,
			render.KeyComponent:     g.opts.Component,
			render.KeyReplicas:      d.Replicas,
			render.KeyImage:         derive.Image(g.opts.ImageRegistry, d.Name, g.opts.ImageTag),
			render.KeyPort:          d.Port,
			render.KeyPortEnv:       PortEnv,
			render.KeyLibPath:       g.opts.LibPath,
			render.KeyLibPathEnv:    LibPathEnv,
			render.KeyCPURequest:    d.CPU,
			render.KeyMemoryRequest: d.Memory,
			render.KeyCPULimit:      s.cpuLimit,
			render.KeyMemoryLimit:   s.memLimit,
			render.KeyHealthPath:    HealthPath,
			render.KeyReadyPath:     ReadyPath,
		}
	case render.KindService:
		return render.Values{
			render.KeyName:        d.Name,
			render.KeyNamespace:   g.opts.Namespace,
			render.KeyComponent:   g.opts.Component,
			render.KeyPort:        d.Port,
			render.KeyServicePort: ServicePort,
		}
	}
	return nil
}

func (g *Generator) fleetValues(kind render.Kind, routes []derive.Route) render.Values {
	switch kind {
	case render.KindNamespace:
		return render.Values{
			render.KeyNamespace:          g.opts.Namespace,
			render.KeyNamespaceComponent: g.opts.NamespaceComponent,
		}
	case render.KindConfigMap:
		return render.Values{
			render.KeyConfigMapName: g.opts.FleetName + "-config",
			render.KeyNamespace:     g.opts.Namespace,
			render.KeyLibPath:       g.opts.LibPath,
			render.KeyLibPathEnv:    LibPathEnv,
			render.KeyLogLevel:      g.opts.LogLevel,
		}
	case render.KindIngress:
		return render.Values{
			render.KeyIngressName:  g.opts.FleetName + "-ingress",
			render.KeyNamespace:    g.opts.Namespace,
			render.KeyIngressClass: g.opts.IngressClass,
			render.KeyIngressHost:  g.opts.IngressHost,
			render.KeyAnnotations:  sortedAnnotations(g.opts.IngressAnnotations),
			render.KeyRoutes:       routes,
			render.KeyServicePort:  ServicePort,
		}
	}
	return nil
}

func sortedAnnotations(m map[string]string) []render.Annotation {
	out := make([]render.Annotation, 0, len(m))
	for k, v := range m {
		out = append(out, render.Annotation{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// probe is used to verify the templates against the value builders
// before any descriptor is processed.
var probe = registry.Descriptor{
	Name:        "nr_probe",
	Port:        8000,
	Replicas:    1,
	CPU:         "100m",
	Memory:      "128Mi",
	Description: "probe",
}

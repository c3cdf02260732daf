// Package render fills the embedded artifact templates.
//
// Each template declares the placeholders it reads. A render fails when a
// declared placeholder has no value, and reports supplied values that no
// placeholder consumes as warnings.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"text/template"
	"text/template/parse"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Kind identifies one artifact template.
type Kind string

const (
	KindApp          Kind = "app.py"
	KindDockerfile   Kind = "Dockerfile"
	KindRequirements Kind = "requirements.txt"
	KindDeployment   Kind = "deployment"
	KindService      Kind = "service"
	KindNamespace    Kind = "namespace"
	KindConfigMap    Kind = "configmap"
	KindIngress      Kind = "ingress"
)

// Kinds lists every template kind in artifact order.
var Kinds = []Kind{
	KindApp, KindDockerfile, KindRequirements,
	KindDeployment, KindService,
	KindNamespace, KindConfigMap, KindIngress,
}

var templateFiles = map[Kind]string{
	KindApp:          "app.py.tmpl",
	KindDockerfile:   "Dockerfile.tmpl",
	KindRequirements: "requirements.txt.tmpl",
	KindDeployment:   "deployment.yaml.tmpl",
	KindService:      "service.yaml.tmpl",
	KindNamespace:    "namespace.yaml.tmpl",
	KindConfigMap:    "configmap.yaml.tmpl",
	KindIngress:      "ingress.yaml.tmpl",
}

// Key names a placeholder.
type Key string

const (
	KeyName               Key = "Name"
	KeyEndpoint           Key = "Endpoint"
	KeyTitle              Key = "Title"
	KeyDescription        Key = "Description"
	KeyVersion            Key = "Version"
	KeyPort               Key = "Port"
	KeyServicePort        Key = "ServicePort"
	KeyReplicas           Key = "Replicas"
	KeyImage              Key = "Image"
	KeyServiceDir         Key = "ServiceDir"
	KeyCPURequest         Key = "CPURequest"
	KeyMemoryRequest      Key = "MemoryRequest"
	KeyCPULimit           Key = "CPULimit"
	KeyMemoryLimit        Key = "MemoryLimit"
	KeyNamespace          Key = "Namespace"
	KeyComponent          Key = "Component"
	KeyNamespaceComponent Key = "NamespaceComponent"
	KeyLibPath            Key = "LibPath"
	KeyLibPathEnv         Key = "LibPathEnv"
	KeyPortEnv            Key = "PortEnv"
	KeyHealthPath         Key = "HealthPath"
	KeyReadyPath          Key = "ReadyPath"
	KeyInfoPath           Key = "InfoPath"
	KeyOutputLimit        Key = "OutputLimit"
	KeyLogLevel           Key = "LogLevel"
	KeyConfigMapName      Key = "ConfigMapName"
	KeyIngressName        Key = "IngressName"
	KeyIngressClass       Key = "IngressClass"
	KeyIngressHost        Key = "IngressHost"
	KeyAnnotations        Key = "Annotations"
	KeyRoutes             Key = "Routes"
)

// Values maps placeholders to their substitutions.
type Values map[Key]any

// Annotation is one metadata annotation, rendered in slice order.
type Annotation struct {
	Key   string
	Value string
}

// MissingPlaceholderError reports a declared placeholder with no value.
type MissingPlaceholderError struct {
	Kind Kind
	Key  Key
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %s: no value for placeholder %s", e.Kind, e.Key)
}

// UnusedValueWarning reports a supplied value no placeholder consumes.
type UnusedValueWarning struct {
	Kind Kind
	Key  Key
}

func (w *UnusedValueWarning) Error() string {
	return fmt.Sprintf("template %s: value %s is never used", w.Kind, w.Key)
}

// Renderer holds the parsed templates. It is safe for concurrent use.
type Renderer struct {
	templates map[Kind]*template.Template
	keys      map[Kind]map[Key]struct{}
}

var funcs = template.FuncMap{
	// quote renders s as a double-quoted literal that YAML and Python both accept.
	"quote": func(s string) string {
		return strconv.Quote(s)
	},
}

// New parses every embedded template.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[Kind]*template.Template, len(templateFiles)),
		keys:      make(map[Kind]map[Key]struct{}, len(templateFiles)),
	}
	for kind, file := range templateFiles {
		src, err := templatesFS.ReadFile("templates/" + file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		tmpl, err := template.New(file).Funcs(funcs).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
		keys := make(map[Key]struct{})
		collect(tmpl.Tree.Root, true, keys)
		r.templates[kind] = tmpl
		r.keys[kind] = keys
	}
	return r, nil
}

// Placeholders returns the keys a template declares, sorted.
func (r *Renderer) Placeholders(kind Kind) []Key {
	out := make([]Key, 0, len(r.keys[kind]))
	for k := range r.keys[kind] {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Check verifies values supply every placeholder the template declares.
func (r *Renderer) Check(kind Kind, values Values) error {
	if _, ok := r.templates[kind]; !ok {
		return fmt.Errorf("unknown template kind %q", kind)
	}
	for _, k := range r.Placeholders(kind) {
		if _, ok := values[k]; !ok {
			return &MissingPlaceholderError{Kind: kind, Key: k}
		}
	}
	return nil
}

// Render fills the template for kind. Warnings are *UnusedValueWarning.
func (r *Renderer) Render(kind Kind, values Values) ([]byte, []error, error) {
	if err := r.Check(kind, values); err != nil {
		return nil, nil, err
	}

	var warnings []error
	data := make(map[string]any, len(values))
	for k, v := range values {
		if _, ok := r.keys[kind][k]; !ok {
			warnings = append(warnings, &UnusedValueWarning{Kind: kind, Key: k})
		}
		data[string(k)] = v
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].(*UnusedValueWarning).Key < warnings[j].(*UnusedValueWarning).Key
	})

	var buf bytes.Buffer
	if err := r.templates[kind].Execute(&buf, data); err != nil {
		return nil, warnings, fmt.Errorf("execute template %s: %w", kind, err)
	}
	return buf.Bytes(), warnings, nil
}

// collect records the top-level fields a template reads. Inside range and
// with bodies the dot is rebound, so only $-rooted fields count there.
func collect(node parse.Node, rooted bool, keys map[Key]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collect(c, rooted, keys)
		}
	case *parse.ActionNode:
		collect(n.Pipe, rooted, keys)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collect(c, rooted, keys)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			collect(a, rooted, keys)
		}
	case *parse.ChainNode:
		collect(n.Node, rooted, keys)
	case *parse.FieldNode:
		if rooted {
			keys[Key(n.Ident[0])] = struct{}{}
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			keys[Key(n.Ident[1])] = struct{}{}
		}
	case *parse.IfNode:
		collect(n.Pipe, rooted, keys)
		collect(n.List, rooted, keys)
		collect(n.ElseList, rooted, keys)
	case *parse.RangeNode:
		collect(n.Pipe, rooted, keys)
		collect(n.List, false, keys)
		collect(n.ElseList, rooted, keys)
	case *parse.WithNode:
		collect(n.Pipe, rooted, keys)
		collect(n.List, false, keys)
		collect(n.ElseList, rooted, keys)
	case *parse.TemplateNode:
		collect(n.Pipe, rooted, keys)
	}
}

// Package registry holds the function descriptors a fleet is generated from.
//
// A Registry is only ever built through New, which validates every
// descriptor and rejects name or port collisions. There is no partially
// valid registry.
package registry

import (
	"fmt"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Descriptor is the declarative record for one generated service.
type Descriptor struct {
	Name        string `yaml:"name" json:"name" toml:"name"`
	Port        int    `yaml:"port" json:"port" toml:"port"`
	Replicas    int    `yaml:"replicas" json:"replicas" toml:"replicas"`
	CPU         string `yaml:"cpu" json:"cpu" toml:"cpu"`
	Memory      string `yaml:"memory" json:"memory" toml:"memory"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
}

var (
	namePattern     = regexp.MustCompile(`^[a-z][a-z0-9]*(?:[_-][a-z0-9]+)*$`)
	quantityPattern = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?[A-Za-z]*$`)
)

// MalformedDescriptorError reports a descriptor field that is missing or ill-shaped.
type MalformedDescriptorError struct {
	Index  int
	Name   string
	Field  string
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("descriptor #%d: %s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("descriptor #%d (%s): %s: %s", e.Index, e.Name, e.Field, e.Reason)
}

// DuplicateKeyError reports two descriptors sharing a name or a port.
type DuplicateKeyError struct {
	// Key is "name" or "port".
	Key    string
	Value  string
	First  int
	Second int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s %q: descriptors #%d and #%d", e.Key, e.Value, e.First, e.Second)
}

// Registry is an ordered, validated set of descriptors.
type Registry struct {
	descs  []Descriptor
	byName map[string]int
}

// New validates descs and returns a registry preserving their order.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descs:  make([]Descriptor, len(descs)),
		byName: make(map[string]int, len(descs)),
	}
	ports := make(map[int]int, len(descs))

	for i, d := range descs {
		if err := validate(i, d); err != nil {
			return nil, err
		}
		if first, ok := r.byName[d.Name]; ok {
			return nil, &DuplicateKeyError{Key: "name", Value: d.Name, First: first, Second: i}
		}
		if first, ok := ports[d.Port]; ok {
			return nil, &DuplicateKeyError{Key: "port", Value: fmt.Sprint(d.Port), First: first, Second: i}
		}
		r.byName[d.Name] = i
		ports[d.Port] = i
		r.descs[i] = d
	}
	return r, nil
}

func validate(i int, d Descriptor) error {
	bad := func(field, reason string) error {
		return &MalformedDescriptorError{Index: i, Name: d.Name, Field: field, Reason: reason}
	}

	switch {
	case d.Name == "":
		return bad("name", "required")
	case !namePattern.MatchString(d.Name):
		return bad("name", "must be lowercase words joined by '_' or '-'")
	case d.Port == 0:
		return bad("port", "required")
	case d.Port < 1 || d.Port > 65535:
		return bad("port", fmt.Sprintf("%d out of range 1-65535", d.Port))
	case d.Replicas < 1:
		return bad("replicas", "must be at least 1")
	}

	for _, q := range []struct{ field, value string }{{"cpu", d.CPU}, {"memory", d.Memory}} {
		if q.value == "" {
			return bad(q.field, "required")
		}
		if !quantityPattern.MatchString(q.value) {
			return bad(q.field, fmt.Sprintf("%q is not a magnitude followed by a unit", q.value))
		}
		if _, err := resource.ParseQuantity(q.value); err != nil {
			return bad(q.field, err.Error())
		}
	}
	return nil
}

// Descriptors returns the descriptors in registry order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.descs)
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descs[i], true
}

// NameWarnings reports names Kubernetes will refuse as object names.
// Underscored names are accepted by the registry but must be renamed
// before the manifests can be applied.
func NameWarnings(descs []Descriptor) []string {
	var warnings []string
	for _, d := range descs {
		if errs := validation.IsDNS1123Label(d.Name); len(errs) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: not a valid Kubernetes object name: %s", d.Name, strings.Join(errs, "; ")))
		}
	}
	return warnings
}

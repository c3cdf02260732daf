// Package derive computes every identifier and figure the generated
// artifacts share. All functions are pure.
package derive

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesatintegratnio/fleetgen/internal/registry"
)

// DefaultPrefix is stripped from function names to form endpoints.
const DefaultPrefix = "nr_"

// LimitFactor is the fleet-wide ratio between resource limits and requests.
const LimitFactor = 2

// EmptyEndpointError reports a name that is nothing but the prefix.
type EmptyEndpointError struct {
	Name   string
	Prefix string
}

func (e *EmptyEndpointError) Error() string {
	return fmt.Sprintf("%s: endpoint is empty after stripping prefix %q", e.Name, e.Prefix)
}

// UnrecognizedUnitWarning reports a resource value whose suffix is not in
// the unit table. The value is passed through unchanged.
type UnrecognizedUnitWarning struct {
	Value  string
	Suffix string
}

func (w *UnrecognizedUnitWarning) Error() string {
	return fmt.Sprintf("resource %q: unrecognized unit %q, limit left equal to request", w.Value, w.Suffix)
}

// Endpoint strips prefix once from the start of name.
func Endpoint(name, prefix string) (string, error) {
	ep := strings.TrimPrefix(name, prefix)
	if ep == "" {
		return "", &EmptyEndpointError{Name: name, Prefix: prefix}
	}
	return ep, nil
}

// DisplayTitle upper-cases name and turns separators into spaces.
func DisplayTitle(name string) string {
	return strings.ToUpper(strings.NewReplacer("_", " ", "-", " ").Replace(name))
}

// Route is one entry of the fleet routing table.
type Route struct {
	Name     string `json:"name" yaml:"name"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Port     int    `json:"port" yaml:"port"`
	Path     string `json:"path" yaml:"path"`
}

// Routes returns one route per descriptor, in registry order.
func Routes(descs []registry.Descriptor, prefix string) ([]Route, error) {
	routes := make([]Route, 0, len(descs))
	for _, d := range descs {
		ep, err := Endpoint(d.Name, prefix)
		if err != nil {
			return nil, err
		}
		routes = append(routes, Route{Name: d.Name, Endpoint: ep, Port: d.Port, Path: "/" + ep})
	}
	return routes, nil
}

// Unit is one entry of the resource unit table.
type Unit struct {
	// Family is "cpu" or "memory".
	Family string
	// Scale converts one unit into cores or bytes.
	Scale float64
}

// Units maps a unit suffix to its family.
type Units map[string]Unit

// DefaultUnits recognizes millicores and mebibytes.
func DefaultUnits() Units {
	return Units{
		"m":  {Family: "cpu", Scale: 0.001},
		"Mi": {Family: "memory", Scale: 1 << 20},
	}
}

// With returns a copy of u extended by extra.
func (u Units) With(extra Units) Units {
	out := make(Units, len(u)+len(extra))
	for k, v := range u {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Suffixes returns the recognized suffixes, sorted.
func (u Units) Suffixes() []string {
	out := make([]string, 0, len(u))
	for k := range u {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func split(x string) (magnitude, suffix string) {
	i := 0
	for i < len(x) && (x[i] == '.' || (x[i] >= '0' && x[i] <= '9')) {
		i++
	}
	return x[:i], x[i:]
}

// Limit returns x scaled by LimitFactor with its unit preserved. A value
// with an unrecognized suffix is returned unchanged together with an
// *UnrecognizedUnitWarning.
func (u Units) Limit(x string) (string, error) {
	mag, suffix := split(x)
	if _, ok := u[suffix]; !ok || mag == "" {
		return x, &UnrecognizedUnitWarning{Value: x, Suffix: suffix}
	}
	// Integer magnitudes are not bounded by int64; the registry accepts any
	// value resource.ParseQuantity does.
	if n, ok := new(big.Int).SetString(mag, 10); ok {
		return n.Mul(n, big.NewInt(LimitFactor)).String() + suffix, nil
	}
	f, err := strconv.ParseFloat(mag, 64)
	if err != nil {
		return x, &UnrecognizedUnitWarning{Value: x, Suffix: suffix}
	}
	return strconv.FormatFloat(f*LimitFactor, 'f', -1, 64) + suffix, nil
}

// Base converts x into cores or bytes. ok is false for unrecognized units.
func (u Units) Base(x string) (family string, value float64, ok bool) {
	mag, suffix := split(x)
	unit, known := u[suffix]
	if !known {
		return "", 0, false
	}
	f, err := strconv.ParseFloat(mag, 64)
	if err != nil {
		return "", 0, false
	}
	return unit.Family, f * unit.Scale, true
}

// ServiceDir is the directory holding one function's service sources.
func ServiceDir(name string) string {
	return "containers/services/" + name
}

// Image returns the container image reference for name.
func Image(registryPrefix, name, tag string) string {
	return fmt.Sprintf("%s/%s:%s", strings.TrimSuffix(registryPrefix, "/"), name, tag)
}

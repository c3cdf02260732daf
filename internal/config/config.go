package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "fleetgen.yaml"

// Config holds the fleetgen configuration.
type Config struct {
	// Registry is the path to the function registry (.yaml, .toml or .hcl).
	// Empty means the built-in OAI function fleet.
	Registry string `yaml:"registry,omitempty"`
	// OutputDir is the root every artifact path is resolved against.
	OutputDir string `yaml:"outputDir"`
	// GitMode controls git behavior after generate: "off", "auto", "generate" or "prompt".
	GitMode string `yaml:"gitMode"`
	// Interactive controls whether prompts are shown.
	Interactive bool `yaml:"interactive"`
	// Verbose enables debug output.
	Verbose bool `yaml:"verbose,omitempty"`
	// Quiet suppresses informational output.
	Quiet bool `yaml:"quiet,omitempty"`
	// Output is the output format: text, json or yaml.
	Output string `yaml:"output,omitempty"`
	// Generator holds the fleet-wide generation settings.
	Generator GeneratorConfig `yaml:"generator"`
}

// GeneratorConfig holds the values every generated artifact shares.
type GeneratorConfig struct {
	// Prefix is stripped once from a function name to form its endpoint.
	Prefix string `yaml:"prefix"`
	// FleetName names the namespace, config map and ingress.
	FleetName string `yaml:"fleetName"`
	// Namespace overrides the namespace the fleet is deployed into.
	Namespace string `yaml:"namespace,omitempty"`
	// Component is the component label on every workload.
	Component string `yaml:"component"`
	// NamespaceComponent is the component label on the namespace.
	NamespaceComponent string `yaml:"namespaceComponent"`
	// ImageRegistry prefixes every image reference.
	ImageRegistry string `yaml:"imageRegistry"`
	// ImageTag is the tag of every image reference.
	ImageTag string `yaml:"imageTag"`
	// LibPath is where the native library lives inside the image.
	LibPath string `yaml:"libPath"`
	// LogLevel is published through the shared config map.
	LogLevel string `yaml:"logLevel"`
	// IngressHost is the routing host. Defaults to <fleetName>.local.
	IngressHost string `yaml:"ingressHost,omitempty"`
	// IngressClass is the ingress class name.
	IngressClass string `yaml:"ingressClass"`
	// IngressAnnotations are copied onto the routing manifest.
	IngressAnnotations map[string]string `yaml:"ingressAnnotations,omitempty"`
	// Units extends the resource unit table used for limit derivation.
	Units map[string]UnitConfig `yaml:"units,omitempty"`
	// Concurrency bounds the per-function worker pool.
	Concurrency int `yaml:"concurrency"`
	// CheckManifests strictly decodes every manifest after rendering.
	CheckManifests bool `yaml:"checkManifests"`
}

// UnitConfig describes one resource unit suffix.
type UnitConfig struct {
	// Family is "cpu" or "memory".
	Family string `yaml:"family"`
	// Scale converts one unit into cores or bytes.
	Scale float64 `yaml:"scale"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutputDir:   ".",
		GitMode:     "off",
		Interactive: true,
		Output:      "text",
		Generator: GeneratorConfig{
			Prefix:             "nr_",
			FleetName:          "oai-functions",
			Component:          "oai-function",
			NamespaceComponent: "oai-phy-layer",
			ImageRegistry:      "${DOCKER_REGISTRY:-docker.io/your-username}",
			ImageTag:           "latest",
			LibPath:            "/usr/local/lib/liboai_functions.so",
			LogLevel:           "INFO",
			IngressClass:       "nginx",
			IngressAnnotations: map[string]string{
				"nginx.ingress.kubernetes.io/ssl-redirect": "false",
			},
			Concurrency:    4,
			CheckManifests: true,
		},
	}
}

// NamespaceName returns the namespace the fleet is deployed into.
func (g GeneratorConfig) NamespaceName() string {
	if g.Namespace != "" {
		return g.Namespace
	}
	return g.FleetName
}

// Host returns the ingress host.
func (g GeneratorConfig) Host() string {
	if g.IngressHost != "" {
		return g.IngressHost
	}
	return g.FleetName + ".local"
}

// Validate rejects settings the generator cannot honor.
func (c *Config) Validate() error {
	switch c.GitMode {
	case "", "off", "auto", "generate", "prompt":
	default:
		return fmt.Errorf("gitMode %q: must be one of off, auto, generate, prompt", c.GitMode)
	}
	switch c.Output {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("output %q: must be one of text, json, yaml", c.Output)
	}
	g := c.Generator
	if g.FleetName == "" {
		return fmt.Errorf("generator.fleetName must not be empty")
	}
	if g.Concurrency < 1 {
		return fmt.Errorf("generator.concurrency %d: must be at least 1", g.Concurrency)
	}
	for suffix, u := range g.Units {
		if suffix == "" {
			return fmt.Errorf("generator.units: empty suffix")
		}
		if u.Family != "cpu" && u.Family != "memory" {
			return fmt.Errorf("generator.units[%s].family %q: must be cpu or memory", suffix, u.Family)
		}
		if u.Scale <= 0 {
			return fmt.Errorf("generator.units[%s].scale must be positive", suffix)
		}
	}
	return nil
}

// Load reads the config from a file path. If path is empty, uses DefaultPath.
// Fields the file omits keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to path.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Set stores the active configuration.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Get returns the active configuration.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}

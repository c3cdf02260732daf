package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// file is the on-disk registry shape shared by the YAML and TOML forms.
type file struct {
	Functions []Descriptor `yaml:"functions" toml:"functions"`
}

// hclFile is the HCL registry shape: one labelled block per function.
//
//	function "nr_crc" {
//	  port     = 8002
//	  replicas = 2
//	  cpu      = "100m"
//	  memory   = "128Mi"
//	}
//
// Every attribute is optional so that missing fields are reported by New
// the same way for every format.
type hclFile struct {
	Functions []hclFunction `hcl:"function,block"`
}

type hclFunction struct {
	Name        string `hcl:"name,label"`
	Port        int    `hcl:"port,optional"`
	Replicas    int    `hcl:"replicas,optional"`
	CPU         string `hcl:"cpu,optional"`
	Memory      string `hcl:"memory,optional"`
	Description string `hcl:"description,optional"`
}

// LoadFile reads and validates a registry file. The format is picked by
// extension: .yaml/.yml, .toml or .hcl.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	descs, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	reg, err := New(descs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes registry data without validating it. name is used to
// select the format and in error messages.
func Parse(name string, data []byte) ([]Descriptor, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		return parseYAML(name, data)
	case ".toml":
		return parseTOML(name, data)
	case ".hcl":
		return parseHCL(name, data)
	default:
		return nil, fmt.Errorf("%s: unsupported registry format %q (want .yaml, .toml or .hcl)", name, ext)
	}
}

func parseYAML(name string, data []byte) ([]Descriptor, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		var raw struct {
			Functions []map[string]interface{} `yaml:"functions"`
		}
		if yaml.Unmarshal(data, &raw) == nil {
			if mErr := shapeError(raw.Functions, true); mErr != nil {
				err = mErr
			}
		}
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return f.Functions, nil
}

func parseTOML(name string, data []byte) ([]Descriptor, error) {
	var f file
	meta, err := toml.Decode(string(data), &f)
	if err != nil {
		var raw struct {
			Functions []map[string]interface{} `toml:"functions"`
		}
		if _, rerr := toml.Decode(string(data), &raw); rerr == nil {
			if mErr := shapeError(raw.Functions, false); mErr != nil {
				err = mErr
			}
		}
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("parse %s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	return f.Functions, nil
}

func parseHCL(name string, data []byte) ([]Descriptor, error) {
	parser := hclparse.NewParser()
	hf, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
	}

	var f hclFile
	diags = gohcl.DecodeBody(hf.Body, nil, &f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}

	descs := make([]Descriptor, 0, len(f.Functions))
	for _, fn := range f.Functions {
		descs = append(descs, Descriptor{
			Name:        fn.Name,
			Port:        fn.Port,
			Replicas:    fn.Replicas,
			CPU:         fn.CPU,
			Memory:      fn.Memory,
			Description: fn.Description,
		})
	}
	return descs, nil
}

// Marshal renders descs in the YAML registry form.
func Marshal(descs []Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file{Functions: descs}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fieldKinds is the value kind each descriptor field decodes from.
var fieldKinds = map[string]string{
	"name":        "string",
	"port":        "integer",
	"replicas":    "integer",
	"cpu":         "string",
	"memory":      "string",
	"description": "string",
}

// shapeError finds the first descriptor field whose decoded value has the
// wrong kind. YAML resolves any scalar into a string field, so
// scalarStrings relaxes string fields to "any scalar".
func shapeError(items []map[string]interface{}, scalarStrings bool) error {
	for i, item := range items {
		name, _ := item["name"].(string)
		fields := make([]string, 0, len(item))
		for k := range item {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			want, known := fieldKinds[field]
			if !known {
				continue
			}
			got := kindOf(item[field])
			if got == want || (want == "string" && scalarStrings && got != "other") {
				continue
			}
			reason := "must be a string"
			if want == "integer" {
				reason = "must be an integer"
			}
			return &MalformedDescriptorError{Index: i, Name: name, Field: field, Reason: reason}
		}
	}
	return nil
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case int, int64, uint64:
		return "integer"
	case float64, bool:
		return "scalar"
	default:
		return "other"
	}
}

package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetsFile is the on-disk shape of a persona presets file: named
// categories mapping to persona lists. Category names are organizational
// only; all personas land in one flat registry.
type presetsFile struct {
	Categories map[string][]Persona `yaml:"categories"`
}

// LoadPresets reads persona definitions from a YAML presets file and
// returns a registry holding every persona from every category. A name
// appearing in two categories is an error.
func LoadPresets(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	r := NewRegistry()
	for _, personas := range file.Categories {
		for _, p := range personas {
			if err := r.Register(p); err != nil {
				return nil, fmt.Errorf("invalid presets file %s: %w", path, err)
			}
		}
	}
	return r, nil
}

// DefaultRegistry returns the built-in roster used when no presets file is
// configured: the medical, code, and general panels.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Persona{
		{Name: "Oncologist", SystemPrompt: "You are an expert Oncologist.", Capabilities: []string{"oncologist"}},
		{Name: "Biostatistician", SystemPrompt: "You are an expert Biostatistician.", Capabilities: []string{"biostatistician"}},
		{Name: "Regulatory", SystemPrompt: "You are an expert Regulatory Affairs Specialist.", Capabilities: []string{"regulatory"}},
		{Name: "Architect", SystemPrompt: "You are a Senior Software Architect.", Capabilities: []string{"architect"}},
		{Name: "Security", SystemPrompt: "You are a Security Engineer.", Capabilities: []string{"security"}},
		{Name: "QA", SystemPrompt: "You are a QA Engineer.", Capabilities: []string{"qa"}},
		{Name: "Generalist", SystemPrompt: "You are a helpful assistant.", Capabilities: []string{"generalist"}},
		{Name: "Skeptic", SystemPrompt: "You are a critical thinker and skeptic.", Capabilities: []string{"skeptic"}},
		{Name: "Optimist", SystemPrompt: "You are an optimistic visionary.", Capabilities: []string{"optimist"}},
	} {
		// Names are unique above, Register cannot fail.
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

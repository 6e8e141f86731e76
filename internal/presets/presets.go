// Package presets maps a country to its default search engine domain and
// language.
package presets

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	errs "serp-comparator/pkg/errors"
)

//go:embed presets.yaml
var defaultPresets []byte

// Preset is the per-country default for fields the form may leave empty.
type Preset struct {
	SearchEngine string `yaml:"search_engine"`
	Language     string `yaml:"language"`
}

// Presets holds the country table plus the fallback entry.
type Presets struct {
	Default   Preset            `yaml:"default"`
	Countries map[string]Preset `yaml:"countries"`
}

// Load reads presets from path, or the embedded table when path is empty.
func Load(path string) (*Presets, error) {
	if path == "" {
		return Parse(defaultPresets)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewValidation("presets.Load", fmt.Sprintf("cannot read %s", path), err)
	}
	return Parse(b)
}

// Parse decodes a presets document. Country keys are upper-cased.
func Parse(b []byte) (*Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, errs.NewValidation("presets.Parse", "invalid presets YAML", err)
	}
	if p.Default.SearchEngine == "" || p.Default.Language == "" {
		return nil, errs.NewValidation("presets.Parse", "default entry needs search_engine and language", nil)
	}
	norm := make(map[string]Preset, len(p.Countries))
	for k, v := range p.Countries {
		if v.SearchEngine == "" {
			v.SearchEngine = p.Default.SearchEngine
		}
		if v.Language == "" {
			v.Language = p.Default.Language
		}
		norm[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	p.Countries = norm
	return &p, nil
}

// For returns the preset for country, or the default entry.
func (p *Presets) For(country string) Preset {
	if v, ok := p.Countries[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return v
	}
	return p.Default
}

// CountryCodes lists the known country codes, sorted. Used by the form.
func (p *Presets) CountryCodes() []string {
	out := make([]string, 0, len(p.Countries))
	for k := range p.Countries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

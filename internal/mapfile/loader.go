package mapfile

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML mapping file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Mappings {
		m := &f.Mappings[i]
		if m.Name == "" {
			m.Name = m.TypePair()
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping file: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}

// ExpandOneToOne returns the rules of m with the 121 shorthand expanded in
// front of the explicit rules, ordered by source field name.
func ExpandOneToOne(m *MappingDef) []RuleDef {
	if len(m.OneToOne) == 0 {
		return m.Rules
	}

	sources := make([]string, 0, len(m.OneToOne))
	for source := range m.OneToOne {
		sources = append(sources, source)
	}

	slices.Sort(sources)

	rules := make([]RuleDef, 0, len(sources)+len(m.Rules))
	for _, source := range sources {
		rules = append(rules, RuleDef{
			Source: StringOrArray{source},
			Target: StringOrArray{m.OneToOne[source]},
		})
	}

	return append(rules, m.Rules...)
}

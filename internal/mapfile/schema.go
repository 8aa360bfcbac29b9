package mapfile

import (
	"fmt"
	"strings"
)

// File represents the root of a YAML mapping file.
type File struct {
	// Version of the mapping file format.
	Version string `yaml:"version,omitempty"`

	// Schemas declares the record schemas mappings refer to.
	Schemas []SchemaDef `yaml:"schemas,omitempty"`

	// Mappings declares the mappings between schemas.
	Mappings []MappingDef `yaml:"mappings"`
}

// SchemaDef declares one record schema.
type SchemaDef struct {
	Name string `yaml:"name"`

	// Extends names the base schema, whose fields come first.
	Extends string `yaml:"extends,omitempty"`

	Fields []FieldDef `yaml:"fields,omitempty"`
}

// FieldDef declares one schema field.
// YAML formats supported:
//   - Scalar field: "street"
//   - Nested record: {name: home, of: Address}
//   - List of records: {name: past, list_of: Address}
type FieldDef struct {
	Name   string `yaml:"name"`
	Of     string `yaml:"of,omitempty"`
	ListOf string `yaml:"list_of,omitempty"`
}

// Element returns the referenced schema name, if any.
func (f FieldDef) Element() string {
	if f.ListOf != "" {
		return f.ListOf
	}

	return f.Of
}

// MappingDef declares a mapping from one schema to another.
type MappingDef struct {
	// Name identifies the mapping for Extends references.
	// Defaults to "Source->Target".
	Name string `yaml:"name,omitempty"`

	Source string `yaml:"source"`
	Target string `yaml:"target"`

	// Extends lists parent mappings by name. Their rules are inherited and
	// this mapping is dispatched to for instances of Source.
	Extends StringOrArray `yaml:"extends,omitempty"`

	// OneToOne is a shorthand where keys are source fields and values are
	// target fields. Expanded into Rules ahead of the explicit ones.
	OneToOne map[string]string `yaml:"121,omitempty"`

	// Rules are the explicit rules, applied in order.
	Rules []RuleDef `yaml:"rules,omitempty"`

	// Exclude lists fields never auto-mapped.
	Exclude []string `yaml:"exclude,omitempty"`
}

// TypePair returns the "Source->Target" form used in diagnostics.
func (m *MappingDef) TypePair() string {
	return fmt.Sprintf("%s->%s", m.Source, m.Target)
}

// RuleDef is one mapping rule.
// An empty Source makes the rule an assignment, which requires an Action.
// An empty Target writes the fields named by Source.
type RuleDef struct {
	Source     StringOrArray `yaml:"source,omitempty"`
	Target     StringOrArray `yaml:"target,omitempty"`
	Action     string        `yaml:"action,omitempty"`
	ToList     bool          `yaml:"to_list,omitempty"`
	Bind       bool          `yaml:"bind,omitempty"`
	SkipIfNone bool          `yaml:"skip_if_none,omitempty"`
}

func (r RuleDef) String() string {
	src := strings.Join(r.Source, ",")
	if src == "" {
		src = "<assign>"
	}

	s := src + " -> " + strings.Join(r.Target, ",")
	if r.Action != "" {
		s += " via " + r.Action
	}

	return s
}

// StringOrArray is a list of strings that can be written as a single string in YAML.
type StringOrArray []string

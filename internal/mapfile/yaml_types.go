package mapfile

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"schema-mapper/internal/common"
)

// --- StringOrArray YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for StringOrArray.
// Accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for StringOrArray.
// Outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if common.IsSingle(s) {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if v, ok := common.First(s); ok {
		return v
	}

	return ""
}

// IsEmpty returns true if the array is empty.
func (s StringOrArray) IsEmpty() bool {
	return common.IsEmpty(s)
}

// IsMultiple returns true if the array has more than one element.
func (s StringOrArray) IsMultiple() bool {
	return common.IsMultiple(s)
}

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// --- FieldDef YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for FieldDef.
// Accepts:
//   - Single string: "street"
//   - Map: {name: home, of: Address} or {name: past, list_of: Address}
func (f *FieldDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string

		err := node.Decode(&name)
		if err != nil {
			return err
		}

		*f = FieldDef{Name: name}

		return nil

	case yaml.MappingNode:
		// Decode through an alias type to avoid recursing into this method.
		type plain FieldDef

		var p plain

		err := node.Decode(&p)
		if err != nil {
			return err
		}

		if p.Name == "" {
			return errors.New("field definition requires a name")
		}

		if p.Of != "" && p.ListOf != "" {
			return fmt.Errorf("field %q: of and list_of are mutually exclusive", p.Name)
		}

		*f = FieldDef(p)

		return nil

	default:
		return fmt.Errorf("expected string or map for field, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for FieldDef.
// Scalar fields are written as plain strings.
func (f FieldDef) MarshalYAML() (any, error) {
	if f.Element() == "" {
		return f.Name, nil
	}

	type plain FieldDef

	return plain(f), nil
}

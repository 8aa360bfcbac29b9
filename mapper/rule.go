package mapper

import (
	"fmt"
	"slices"
	"strings"

	"schema-mapper/schema"
)

// Rule is a mapping rule as declared by a mapping author.
//
// From lists the source fields read; nil or empty makes the rule an
// assignment, which must supply an Action. Action is a function value, the
// name of an entry in Declaration.Actions, or nil for identity. To lists the
// destination fields written and defaults to From.
type Rule struct {
	From       []string
	Action     any
	To         []string
	ToList     bool
	Bind       bool
	SkipIfNone bool
}

// Define builds a rule from its full six-part form.
func Define(from []string, action any, to []string, toList, bind, skipIfNone bool) Rule {
	return Rule{From: from, Action: action, To: to, ToList: toList, Bind: bind, SkipIfNone: skipIfNone}
}

// Map builds a single-field rule from the short (from, action, to) form.
// An empty to maps onto the field named from.
func Map(from string, action any, to string) Rule {
	r := Rule{From: []string{from}, Action: action}
	if to != "" {
		r.To = []string{to}
	}

	return r
}

// Custom declares a custom action reading and writing the field called name.
// Use WithFrom/WithTo to read or write other fields.
func Custom(name string, action any) Rule {
	return Rule{From: []string{name}, Action: action, To: []string{name}}
}

// CustomList is Custom with the result collected into a list.
func CustomList(name string, action any) Rule {
	return Custom(name, action).List()
}

// Assign declares a rule computing a destination field without reading the source.
func Assign(to string, action any) Rule {
	return Rule{Action: action, To: []string{to}}
}

// WithFrom returns a copy of r reading the given source fields.
func (r Rule) WithFrom(fields ...string) Rule {
	r.From = fields
	return r
}

// WithTo returns a copy of r writing the given destination fields.
func (r Rule) WithTo(fields ...string) Rule {
	r.To = fields
	return r
}

// List returns a copy of r collecting the result into a single list value.
func (r Rule) List() Rule {
	r.ToList = true
	return r
}

// Bound returns a copy of r passing the *Mapping as the action's first argument.
func (r Rule) Bound() Rule {
	r.Bind = true
	return r
}

// SkipNone returns a copy of r that omits destination fields receiving no value.
func (r Rule) SkipNone() Rule {
	r.SkipIfNone = true
	return r
}

// CompiledRule is a normalized, validated rule. It is not modified after compilation.
type CompiledRule struct {
	From       []string
	Action     *Action
	To         []string
	ToList     bool
	Bind       bool
	SkipIfNone bool

	// Origin names the declaration the rule came from, used in errors.
	Origin string
}

// IsAssignment returns true if the rule reads no source fields.
func (r CompiledRule) IsAssignment() bool {
	return len(r.From) == 0
}

func (r CompiledRule) String() string {
	action := "identity"
	if r.Action != nil {
		action = r.Action.String()
	}

	from := "<assign>"
	if !r.IsAssignment() {
		from = strings.Join(r.From, ",")
	}

	var flags []string
	if r.ToList {
		flags = append(flags, "list")
	}

	if r.Bind {
		flags = append(flags, "bind")
	}

	if r.SkipIfNone {
		flags = append(flags, "skip-none")
	}

	s := fmt.Sprintf("%s (%s -> %s via %s)", r.Origin, from, strings.Join(r.To, ","), action)
	if len(flags) > 0 {
		s += " [" + strings.Join(flags, ",") + "]"
	}

	return s
}

func (r CompiledRule) clone() CompiledRule {
	r.From = slices.Clone(r.From)
	r.To = slices.Clone(r.To)

	if r.Action != nil {
		a := *r.Action
		r.Action = &a
	}

	return r
}

// Factory builds a destination instance from accumulated field values.
type Factory func(to schema.Type, values map[string]any) (any, error)

// Declaration is everything needed to compile one mapping.
type Declaration struct {
	From schema.Type
	To   schema.Type

	// Rules are the explicit rules, applied in order.
	Rules []Rule
	// Custom are custom-action rules, applied after Rules.
	Custom []Rule
	// Exclude names fields never auto-mapped.
	Exclude []string
	// Parents are compiled mappings this one inherits rules from.
	Parents []*Definition
	// Actions resolves string-named actions.
	Actions map[string]any
	// Factory overrides construction of destination instances.
	Factory Factory
}

package mapper

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"schema-mapper/internal/match"
	"schema-mapper/schema"
)

// compiler holds the working state of one Registry.Compile call.
type compiler struct {
	reg  *Registry
	decl Declaration
	pair string

	srcRes, dstRes schema.Resolver
	src, dst       schema.FieldMap

	rules    []CompiledRule
	excluded map[string]bool
	// pending is the auto-mapping working set: source field names not yet
	// claimed by any rule, in source order.
	pending []string
}

func (r *Registry) newCompiler(decl Declaration) (*compiler, error) {
	c := &compiler{
		reg:      r,
		decl:     decl,
		pair:     pairName(decl.From, decl.To),
		excluded: make(map[string]bool, len(decl.Exclude)),
	}

	var err error

	if c.srcRes, err = r.schemas.Resolver(decl.From); err != nil {
		return nil, c.fail("", "cannot resolve source schema", err)
	}

	if c.dstRes, err = r.schemas.Resolver(decl.To); err != nil {
		return nil, c.fail("", "cannot resolve destination schema", err)
	}

	if c.src, err = r.schemas.Source(decl.From); err != nil {
		return nil, c.fail("", "cannot resolve source fields", err)
	}

	if c.dst, err = r.schemas.Destination(decl.To); err != nil {
		return nil, c.fail("", "cannot resolve destination fields", err)
	}

	for _, name := range decl.Exclude {
		c.excluded[name] = true
	}

	for name := range c.src.All() {
		if !c.excluded[name] {
			c.pending = append(c.pending, name)
		}
	}

	return c, nil
}

// compile runs the compilation pipeline: parents, explicit rules, custom rules,
// then auto-mapping for whatever is still unclaimed.
// The definition is registered before auto-mapping so that recursive
// composites can find it; the caller removes it if compile fails.
func (c *compiler) compile() (*Definition, error) {
	for _, p := range c.decl.Parents {
		if err := c.inherit(p); err != nil {
			return nil, err
		}
	}

	for i, raw := range c.decl.Rules {
		rule, err := c.normalize(raw, fmt.Sprintf("rule #%d", i))
		if err != nil {
			return nil, err
		}

		c.add(rule)
	}

	for i, raw := range c.decl.Custom {
		rule, err := c.normalize(raw, fmt.Sprintf("custom rule #%d", i))
		if err != nil {
			return nil, err
		}

		c.add(rule)
	}

	def := &Definition{
		from:   c.decl.From,
		to:     c.decl.To,
		source: c.srcRes,
		dest:   c.dstRes,
	}

	def.factory = c.decl.Factory
	if def.factory == nil {
		def.factory = def.dest.Build
	}

	c.reg.defs[pairKey{c.decl.From, c.decl.To}] = def

	if err := c.automap(); err != nil {
		return nil, err
	}

	def.rules = c.rules
	def.unmapped = c.unmapped()

	if len(def.unmapped) > 0 {
		if c.reg.config.Strict {
			return nil, &SetupError{
				Pair: c.pair,
				Msg:  "destination fields without a rule: " + strings.Join(def.unmapped, ", "),
			}
		}

		c.reg.config.Logger.Warn("destination fields left unmapped",
			"pair", c.pair,
			"fields", def.unmapped)
	}

	return def, nil
}

func (c *compiler) inherit(p *Definition) error {
	if p == nil {
		return &SetupError{Pair: c.pair, Msg: "nil parent mapping"}
	}

	if !c.decl.From.Extends(p.From()) || !c.decl.To.Extends(p.To()) {
		return &SetupError{
			Pair: c.pair,
			Msg:  fmt.Sprintf("cannot inherit from %s: types are not sub-types of the parent's", p),
		}
	}

	for _, rule := range p.rules {
		c.add(rule.clone())
	}

	return nil
}

// add appends a rule and removes the names it writes from the working set.
func (c *compiler) add(rule CompiledRule) {
	c.rules = append(c.rules, rule)
	c.pending = slices.DeleteFunc(c.pending, func(name string) bool {
		return slices.Contains(rule.To, name)
	})
}

func (c *compiler) normalize(raw Rule, origin string) (CompiledRule, error) {
	rule := CompiledRule{
		From:       slices.Clone(raw.From),
		To:         slices.Clone(raw.To),
		ToList:     raw.ToList,
		Bind:       raw.Bind,
		SkipIfNone: raw.SkipIfNone,
		Origin:     origin,
	}

	for _, name := range rule.From {
		if !c.src.Has(name) {
			return rule, c.unknownField(origin, "source", name, c.src)
		}
	}

	action, err := c.resolveAction(raw.Action, origin)
	if err != nil {
		return rule, err
	}

	rule.Action = action

	if action == nil {
		if rule.IsAssignment() {
			return rule, c.fail(origin, "assignment rule requires an action", nil)
		}

		if rule.Bind {
			return rule, c.fail(origin, "bind requires an action", nil)
		}
	} else {
		argc := len(rule.From)
		if rule.Bind {
			if !action.Binds() {
				return rule, c.fail(origin,
					fmt.Sprintf("action %s cannot receive the mapping as its first argument", action), nil)
			}

			argc++
		}

		if !action.Accepts(argc) {
			return rule, c.fail(origin,
				fmt.Sprintf("action %s cannot be called with %d arguments", action, argc), ErrActionArity)
		}
	}

	if len(rule.To) == 0 {
		rule.To = slices.Clone(rule.From)
	}

	if len(rule.To) == 0 {
		return rule, c.fail(origin, "rule has no destination fields", nil)
	}

	if rule.ToList && len(rule.To) > 1 {
		return rule, c.fail(origin, "to_list rule must have exactly one destination field", nil)
	}

	for _, name := range rule.To {
		if !c.dst.Has(name) {
			return rule, c.unknownField(origin, "destination", name, c.dst)
		}
	}

	return rule, nil
}

func (c *compiler) resolveAction(action any, origin string) (*Action, error) {
	if action == nil {
		return nil, nil
	}

	if name, ok := action.(string); ok {
		fn, found := c.decl.Actions[name]
		if !found {
			known := slices.Sorted(maps.Keys(c.decl.Actions))

			return nil, &SetupError{
				Pair:        c.pair,
				Rule:        origin,
				Msg:         fmt.Sprintf("action %q is not defined", name),
				Suggestions: match.Suggest(name, known, c.reg.config.MaxSuggestions),
			}
		}

		a, err := ParseAction(fn)
		if err != nil {
			return nil, c.fail(origin, fmt.Sprintf("action %q is not callable", name), err)
		}

		if _, isAction := fn.(*Action); !isAction {
			a.name = name
		}

		return a, nil
	}

	a, err := ParseAction(action)
	if err != nil {
		return nil, c.fail(origin, "invalid action", err)
	}

	return a, nil
}

// automap generates rules for the fields left in the working set.
func (c *compiler) automap() error {
	for _, name := range slices.Clone(c.pending) {
		df, ok := c.dst.Get(name)
		if !ok {
			c.reg.config.Logger.Debug("source field has no destination counterpart",
				"pair", c.pair,
				"field", name)

			continue
		}

		sf, _ := c.src.Get(name)

		rule, err := c.autoRule(sf, df)
		if err != nil {
			return err
		}

		c.add(rule)
	}

	return nil
}

func (c *compiler) autoRule(sf, df schema.Field) (CompiledRule, error) {
	rule := CompiledRule{
		From:   []string{sf.Name},
		To:     []string{df.Name},
		Origin: "auto",
	}

	var (
		wrap func(Element) func(*Mapping, any) (any, error)
		kind string
		list bool
	)

	switch {
	case sf.IsList() && df.IsList():
		wrap, kind, list = MapListOf, "MapListOf", true
	case sf.IsNested() && df.IsNested():
		wrap, kind = MapNested, "MapNested"
	default:
		return rule, nil
	}

	el, label, err := c.element(sf.Of, df.Of)
	if err != nil {
		return rule, c.fail("auto rule for "+sf.Name, "cannot build element mapping", err)
	}

	if el == nil {
		return rule, nil
	}

	action, err := ParseAction(wrap(el))
	if err != nil {
		return rule, c.fail("auto rule for "+sf.Name, "invalid composite action", err)
	}

	action.name = kind + "(" + label + ")"
	rule.Action = action
	rule.ToList = list
	rule.Bind = true

	return rule, nil
}

// element returns the mapper for one composite element: a compiled mapping
// when one is registered, a clone when the element types are identical,
// or nil when neither applies.
func (c *compiler) element(from, to schema.Type) (Element, string, error) {
	if def, ok := c.reg.lookupLocked(from, to); ok {
		return def, def.String(), nil
	}

	if from != to {
		return nil, "", nil
	}

	cl, err := Clone(c.reg.schemas, from)
	if err != nil {
		return nil, "", err
	}

	return cl, "clone " + typeName(from), nil
}

// unmapped lists destination fields written by no rule and not excluded.
func (c *compiler) unmapped() []string {
	written := make(map[string]bool)
	for _, rule := range c.rules {
		for _, name := range rule.To {
			written[name] = true
		}
	}

	var out []string

	for name := range c.dst.All() {
		if !written[name] && !c.excluded[name] {
			out = append(out, name)
		}
	}

	return out
}

func (c *compiler) unknownField(origin, side, name string, fm schema.FieldMap) error {
	return &SetupError{
		Pair:        c.pair,
		Rule:        origin,
		Msg:         fmt.Sprintf("unknown %s field %q", side, name),
		Suggestions: match.Suggest(name, fm.Names(), c.reg.config.MaxSuggestions),
	}
}

func (c *compiler) fail(origin, msg string, err error) error {
	return &SetupError{Pair: c.pair, Rule: origin, Msg: msg, Err: err}
}

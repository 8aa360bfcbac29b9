package mapfile

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"schema-mapper/internal/diagnostic"
	"schema-mapper/internal/match"
	"schema-mapper/mapper"
	"schema-mapper/schema"
)

const maxSuggestions = 3

// Result holds the schemas and mappings compiled from a File.
type Result struct {
	Schemas  map[string]*schema.RecordSchema
	Mappings map[string]*mapper.Definition
	// Order lists the compiled mapping names in compilation order.
	Order []string
}

// Schema returns the record schema declared under name.
func (r *Result) Schema(name string) (*schema.RecordSchema, bool) {
	s, ok := r.Schemas[name]
	return s, ok
}

// Mapping returns the compiled mapping declared under name.
func (r *Result) Mapping(name string) (*mapper.Definition, bool) {
	d, ok := r.Mappings[name]
	return d, ok
}

// Compile declares the file's schemas and compiles its mappings into reg.
// Named actions resolve against Builtins overlaid with actions.
// Problems are collected into the returned diagnostics; mappings that
// compiled are usable even when others failed.
func Compile(f *File, reg *mapper.Registry, actions map[string]any) (*Result, *diagnostic.Diagnostics) {
	diags := &diagnostic.Diagnostics{}
	res := &Result{
		Schemas:  map[string]*schema.RecordSchema{},
		Mappings: map[string]*mapper.Definition{},
	}

	if f == nil {
		diags.AddError(diagnostic.CodeCompileFailed, "mapping file is nil", "", "")
		return res, diags
	}

	c := &fileCompiler{
		file:    f,
		reg:     reg,
		actions: Actions(actions),
		diags:   diags,
		res:     res,
	}

	c.declareSchemas()
	c.compileMappings()

	return res, diags
}

type fileCompiler struct {
	file    *File
	reg     *mapper.Registry
	actions map[string]any
	diags   *diagnostic.Diagnostics
	res     *Result
}

func (c *fileCompiler) declareSchemas() {
	var defs []*SchemaDef

	for i := range c.file.Schemas {
		sd := &c.file.Schemas[i]

		if sd.Name == "" {
			c.diags.AddError(diagnostic.CodeUnknownSchema, fmt.Sprintf("schema #%d has no name", i), "", "")
			continue
		}

		if _, dup := c.res.Schemas[sd.Name]; dup {
			c.diags.AddError(diagnostic.CodeDuplicateSchema, fmt.Sprintf("duplicate schema %q", sd.Name), "", sd.Name)
			continue
		}

		c.res.Schemas[sd.Name] = schema.NewRecordSchema(sd.Name)
		defs = append(defs, sd)
	}

	index := make(map[string]int, len(defs))
	for i, sd := range defs {
		index[sd.Name] = i
	}

	order, err := topoSort(len(defs), func(i int) []int {
		if j, ok := index[defs[i].Extends]; ok {
			return []int{j}
		}

		return nil
	})
	if err != nil {
		var ce *cycleError
		if errors.As(err, &ce) {
			for _, i := range ce.remaining {
				c.diags.AddError(diagnostic.CodeDependencyCycle,
					fmt.Sprintf("schema %q is part of an extends cycle", defs[i].Name), "", defs[i].Name)
			}
		}
	}

	for _, i := range order {
		sd := defs[i]
		s := c.res.Schemas[sd.Name]

		if sd.Extends != "" {
			if base, ok := c.schemaRef(sd.Extends, "", sd.Name); ok {
				s.WithBase(base)
			}
		}

		for _, fd := range sd.Fields {
			switch {
			case fd.ListOf != "":
				if of, ok := c.schemaRef(fd.ListOf, "", sd.Name+"."+fd.Name); ok {
					s.List(fd.Name, of)
				}
			case fd.Of != "":
				if of, ok := c.schemaRef(fd.Of, "", sd.Name+"."+fd.Name); ok {
					s.Nested(fd.Name, of)
				}
			default:
				s.Field(fd.Name)
			}
		}
	}
}

// schemaRef resolves a schema name, reporting unknown names.
func (c *fileCompiler) schemaRef(name, typePair, field string) (*schema.RecordSchema, bool) {
	if s, ok := c.res.Schemas[name]; ok {
		return s, true
	}

	known := slices.Sorted(maps.Keys(c.res.Schemas))

	c.diags.Add(diagnostic.Diagnostic{
		Severity:    diagnostic.SeverityError,
		Code:        diagnostic.CodeUnknownSchema,
		Message:     fmt.Sprintf("schema %q not found", name),
		TypePair:    typePair,
		Field:       field,
		Suggestions: match.Suggest(name, known, maxSuggestions),
	})

	return nil, false
}

// mappingNode is a mapping declaration with its resolved schemas.
type mappingNode struct {
	def      *MappingDef
	from, to *schema.RecordSchema
	parents  []int
	elements []int
	invalid  bool
	compiled *mapper.Definition
}

func (c *fileCompiler) compileMappings() {
	nodes := make([]*mappingNode, 0, len(c.file.Mappings))
	byName := map[string]int{}

	for i := range c.file.Mappings {
		md := &c.file.Mappings[i]
		if md.Name == "" {
			md.Name = md.TypePair()
		}

		if _, dup := byName[md.Name]; dup {
			c.diags.AddError(diagnostic.CodeDuplicateName, fmt.Sprintf("duplicate mapping %q", md.Name), md.TypePair(), "")
			continue
		}

		n := &mappingNode{def: md}

		var ok bool
		if n.from, ok = c.schemaRef(md.Source, md.TypePair(), "source"); !ok {
			n.invalid = true
		}

		if n.to, ok = c.schemaRef(md.Target, md.TypePair(), "target"); !ok {
			n.invalid = true
		}

		byName[md.Name] = len(nodes)
		nodes = append(nodes, n)
	}

	names := slices.Sorted(maps.Keys(byName))

	for _, n := range nodes {
		for _, parent := range n.def.Extends {
			j, ok := byName[parent]
			if !ok {
				c.diags.Add(diagnostic.Diagnostic{
					Severity:    diagnostic.SeverityError,
					Code:        diagnostic.CodeUnknownMapping,
					Message:     fmt.Sprintf("parent mapping %q not found", parent),
					TypePair:    n.def.TypePair(),
					Suggestions: match.Suggest(parent, names, maxSuggestions),
				})

				n.invalid = true

				continue
			}

			n.parents = append(n.parents, j)
		}
	}

	linkElements(nodes)

	order, err := topoSort(len(nodes), func(i int) []int {
		return append(slices.Clone(nodes[i].parents), nodes[i].elements...)
	})
	if err != nil {
		// Element mappings only improve auto-mapping; retry with parents alone.
		order, err = topoSort(len(nodes), func(i int) []int {
			return nodes[i].parents
		})
	}

	if err != nil {
		var ce *cycleError
		if errors.As(err, &ce) {
			for _, i := range ce.remaining {
				c.diags.AddError(diagnostic.CodeDependencyCycle,
					fmt.Sprintf("mapping %q is part of an extends cycle", nodes[i].def.Name),
					nodes[i].def.TypePair(), "")
			}
		}
	}

	for _, i := range order {
		nodes[i].compiled = c.compileMapping(nodes[i], nodes)
	}
}

// linkElements records, for every mapping, the mappings handling the element
// types of its nested and list fields, so that they compile first.
func linkElements(nodes []*mappingNode) {
	type pair struct{ from, to *schema.RecordSchema }

	byPair := map[pair]int{}

	for i, n := range nodes {
		if n.invalid {
			continue
		}

		if _, seen := byPair[pair{n.from, n.to}]; !seen {
			byPair[pair{n.from, n.to}] = i
		}
	}

	for i, n := range nodes {
		if n.invalid {
			continue
		}

		dst := n.to.Fields()

		for name, sf := range n.from.Fields().All() {
			df, ok := dst.Get(name)
			if !ok || sf.Of == nil || df.Of == nil {
				continue
			}

			from, _ := sf.Of.(*schema.RecordSchema)
			to, _ := df.Of.(*schema.RecordSchema)

			if j, found := byPair[pair{from, to}]; found && j != i && !slices.Contains(n.elements, j) {
				n.elements = append(n.elements, j)
			}
		}
	}
}

func (c *fileCompiler) compileMapping(n *mappingNode, nodes []*mappingNode) *mapper.Definition {
	md := n.def
	if n.invalid {
		return nil
	}

	decl := mapper.Declaration{
		From:    n.from,
		To:      n.to,
		Exclude: md.Exclude,
		Actions: c.actions,
	}

	for _, j := range n.parents {
		parent := nodes[j]
		if parent.compiled == nil {
			c.diags.AddError(diagnostic.CodeCompileFailed,
				fmt.Sprintf("parent mapping %q did not compile", parent.def.Name),
				md.TypePair(), "")

			return nil
		}

		decl.Parents = append(decl.Parents, parent.compiled)
	}

	for _, rd := range ExpandOneToOne(md) {
		rule := mapper.Rule{
			From:       rd.Source,
			To:         rd.Target,
			ToList:     rd.ToList,
			Bind:       rd.Bind,
			SkipIfNone: rd.SkipIfNone,
		}

		if rd.Action != "" {
			rule.Action = rd.Action
		}

		decl.Rules = append(decl.Rules, rule)
	}

	if existing, ok := c.reg.Lookup(n.from, n.to); ok {
		c.diags.AddWarning(diagnostic.CodeDuplicateName,
			fmt.Sprintf("mapping %q reuses the definition already compiled for %s; its rules are ignored", md.Name, existing),
			md.TypePair(), "")
	}

	def, err := c.reg.Compile(decl)
	if err != nil {
		c.diags.Add(compileDiagnostic(md, err))
		return nil
	}

	for _, field := range def.Unmapped() {
		c.diags.AddWarning(diagnostic.CodeUnmappedField,
			fmt.Sprintf("no rule writes %s.%s", md.Target, field), md.TypePair(), field)
	}

	c.res.Mappings[md.Name] = def
	c.res.Order = append(c.res.Order, md.Name)

	return def
}

func compileDiagnostic(md *MappingDef, err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.CodeCompileFailed,
		Message:  err.Error(),
		TypePair: md.TypePair(),
	}

	var se *mapper.SetupError
	if errors.As(err, &se) {
		d.Message = se.Msg
		if se.Err != nil {
			d.Message += ": " + se.Err.Error()
		}

		d.Field = se.Rule
		d.Suggestions = se.Suggestions
	}

	return d
}

package mapper

import (
	"slices"
	"strings"
	"sync"

	"schema-mapper/schema"
)

// Definition is a compiled mapping between one source and one destination type.
// Definitions are created by Registry.Compile and never change afterwards,
// except that mappings compiled later may register as specializations.
type Definition struct {
	from     schema.Type
	to       schema.Type
	rules    []CompiledRule
	unmapped []string
	factory  Factory

	source schema.Resolver
	dest   schema.Resolver

	mu   sync.RWMutex
	subs map[schema.Type]*Definition
}

// From returns the source type.
func (d *Definition) From() schema.Type {
	return d.from
}

// To returns the destination type.
func (d *Definition) To() schema.Type {
	return d.to
}

// Rules returns a copy of the compiled rules in application order.
func (d *Definition) Rules() []CompiledRule {
	out := make([]CompiledRule, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.clone()
	}

	return out
}

// Unmapped returns the destination fields no rule writes.
// The destination factory is responsible for their defaults.
func (d *Definition) Unmapped() []string {
	return slices.Clone(d.unmapped)
}

// Sub returns the specialization registered for the exact source type t.
func (d *Definition) Sub(t schema.Type) (*Definition, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sub, ok := d.subs[t]

	return sub, ok
}

// Subs returns the registered specializations.
func (d *Definition) Subs() []*Definition {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*Definition, 0, len(d.subs))
	for _, s := range d.subs {
		out = append(out, s)
	}

	slices.SortFunc(out, func(a, b *Definition) int {
		return strings.Compare(a.String(), b.String())
	})

	return out
}

func (d *Definition) addSub(sub *Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.subs == nil {
		d.subs = make(map[schema.Type]*Definition)
	}

	d.subs[sub.from] = sub
}

func (d *Definition) String() string {
	return pairName(d.from, d.to)
}

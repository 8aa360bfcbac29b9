package mapper

import (
	"log/slog"
	"sync"

	"schema-mapper/schema"
)

// Config holds configuration for mapping compilation.
type Config struct {
	// Strict fails compilation when a destination field is left without a rule.
	Strict bool
	// MaxSuggestions bounds the "did you mean" hints attached to unknown field errors.
	MaxSuggestions int
	// Logger receives compilation events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the default compilation configuration.
func DefaultConfig() Config {
	return Config{
		Strict:         false,
		MaxSuggestions: 3,
		Logger:         slog.New(slog.DiscardHandler),
	}
}

type pairKey struct {
	from, to schema.Type
}

// Registry holds compiled mappings keyed by (source type, destination type).
//
// Compilation normally happens during program initialization, but Registry
// is safe for concurrent use.
type Registry struct {
	schemas *schema.Registry
	config  Config

	mu    sync.RWMutex
	defs  map[pairKey]*Definition
	order []*Definition
}

// NewRegistry creates a registry resolving fields through schemas
// (schema.NewRegistry() when nil).
func NewRegistry(schemas *schema.Registry, config Config) *Registry {
	if schemas == nil {
		schemas = schema.NewRegistry()
	}

	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	return &Registry{
		schemas: schemas,
		config:  config,
		defs:    make(map[pairKey]*Definition),
	}
}

// Schemas returns the field resolver registry.
func (r *Registry) Schemas() *schema.Registry {
	return r.schemas
}

// Lookup returns the mapping compiled for (from, to).
func (r *Registry) Lookup(from, to schema.Type) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[pairKey{from, to}]

	return def, ok
}

// Definitions returns every compiled mapping in compilation order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, len(r.order))
	copy(out, r.order)

	return out
}

// Compile compiles decl, or returns the mapping already compiled for the same
// (From, To) pair. The first compilation of a pair wins; later declarations for
// it are ignored.
func (r *Registry) Compile(decl Declaration) (*Definition, error) {
	if decl.From == nil || decl.To == nil {
		return nil, &SetupError{Pair: pairName(decl.From, decl.To), Msg: "source and destination types are required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{decl.From, decl.To}
	if def, ok := r.defs[key]; ok {
		r.config.Logger.Debug("mapping already compiled", "pair", def.String())
		return def, nil
	}

	c, err := r.newCompiler(decl)
	if err != nil {
		return nil, err
	}

	def, err := c.compile()
	if err != nil {
		delete(r.defs, key)
		return nil, err
	}

	r.order = append(r.order, def)

	for _, p := range decl.Parents {
		p.addSub(def)
	}

	r.config.Logger.Debug("mapping compiled",
		"pair", def.String(),
		"rules", len(def.rules),
		"unmapped", len(def.unmapped))

	return def, nil
}

// MustCompile is like Compile but panics on error.
// It simplifies package-level mapping variables.
func (r *Registry) MustCompile(decl Declaration) *Definition {
	def, err := r.Compile(decl)
	if err != nil {
		panic(err)
	}

	return def
}

// lookupLocked is Lookup for callers holding r.mu.
func (r *Registry) lookupLocked(from, to schema.Type) (*Definition, bool) {
	def, ok := r.defs[pairKey{from, to}]
	return def, ok
}

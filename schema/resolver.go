package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoResolver is returned when no registered resolver accepts a schema type.
var ErrNoResolver = errors.New("no field resolver registered")

// Resolver is the capability a schema kind implements so that its types can be
// mapped from and to.
type Resolver interface {
	// Kind names the schema kind (e.g. "struct", "record").
	Kind() string
	// Accepts returns true if the resolver handles t.
	Accepts(t Type) bool
	// FieldsAsSource returns the fields readable from instances of t.
	FieldsAsSource(t Type) (FieldMap, error)
	// FieldsAsDestination returns the fields writable on instances of t.
	FieldsAsDestination(t Type) (FieldMap, error)
	// TypeOf returns the exact schema type of an instance.
	TypeOf(instance any) (Type, bool)
	// Get reads a field value from an instance.
	Get(instance any, field string) (any, error)
	// Build creates a new instance of t from field values.
	Build(t Type, values map[string]any) (any, error)
}

// ResolutionError reports a schema type without a usable resolver.
type ResolutionError struct {
	Type Type
	Mode string // "source" or "destination"
	Err  error
}

func (e *ResolutionError) Error() string {
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.Name()
	}

	if e.Mode == "" {
		return fmt.Sprintf("schema type %s: %v", name, e.Err)
	}

	return fmt.Sprintf("schema type %s (as %s): %v", name, e.Mode, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Registry dispatches schema types to resolvers and memoizes their field maps.
// The zero value is an empty registry.
type Registry struct {
	mu        sync.Mutex
	resolvers []Resolver
	source    map[Type]FieldMap
	dest      map[Type]FieldMap
}

// NewRegistry returns a registry with the record and struct kinds registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewRecordResolver())
	r.Register(NewStructResolver())

	return r
}

// Register adds a resolver. Resolvers are consulted in registration order.
func (r *Registry) Register(res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolvers = append(r.resolvers, res)
}

// Resolver returns the resolver accepting t.
func (r *Registry) Resolver(t Type) (Resolver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lookup(t)
}

func (r *Registry) lookup(t Type) (Resolver, error) {
	if t == nil {
		return nil, &ResolutionError{Err: ErrNoResolver}
	}

	for _, res := range r.resolvers {
		if res.Accepts(t) {
			return res, nil
		}
	}

	return nil, &ResolutionError{Type: t, Err: ErrNoResolver}
}

// Source returns the memoized source field map of t.
func (r *Registry) Source(t Type) (FieldMap, error) {
	return r.fields(t, "source")
}

// Destination returns the memoized destination field map of t.
func (r *Registry) Destination(t Type) (FieldMap, error) {
	return r.fields(t, "destination")
}

func (r *Registry) fields(t Type, mode string) (FieldMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache := &r.source
	if mode == "destination" {
		cache = &r.dest
	}

	if fm, ok := (*cache)[t]; ok {
		return fm, nil
	}

	res, err := r.lookup(t)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			re.Mode = mode
		}

		return FieldMap{}, err
	}

	var fm FieldMap
	if mode == "destination" {
		fm, err = res.FieldsAsDestination(t)
	} else {
		fm, err = res.FieldsAsSource(t)
	}

	if err != nil {
		return FieldMap{}, &ResolutionError{Type: t, Mode: mode, Err: err}
	}

	if *cache == nil {
		*cache = make(map[Type]FieldMap)
	}

	(*cache)[t] = fm

	return fm, nil
}

// Package schema provides the field resolution layer consumed by the mapper.
//
// A schema type is anything that owns a field map: a Go struct type
// ([StructType]) or a dynamically declared record ([RecordSchema]). The mapper
// never inspects schema types directly; it asks a [Resolver] registered for the
// type's kind for:
//
//   - the fields readable when the type is a mapping source,
//   - the fields writable when the type is a mapping destination,
//   - the schema type of a concrete instance (used for sub-type dispatch),
//   - attribute reads on an instance and construction of new instances.
//
// # Field descriptors
//
// A [Field] carries a name and a [Shape] classifying the field for automatic
// mapping:
//
//   - ShapeScalar - any value the mapper copies verbatim
//   - ShapeNested - a single instance of another schema type
//   - ShapeList   - a list of instances of another schema type
//
// # Memoization
//
// [Registry] caches field maps per schema type. Schema types are expected to be
// fully defined before the first mapping between them is compiled and to stay
// unchanged afterwards.
package schema

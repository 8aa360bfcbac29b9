// Package mapper compiles declarative field-mapping rules between two schema
// types and applies them to source instances.
//
// # Declaring
//
// A Declaration names the source and destination types and lists rules:
//
//	defs := mapper.NewRegistry(nil, mapper.DefaultConfig())
//	userToDto := defs.MustCompile(mapper.Declaration{
//	    From: schema.Struct[User](),
//	    To:   schema.Struct[UserDto](),
//	    Rules: []mapper.Rule{
//	        mapper.Map("Login", strings.ToLower, "Name"),
//	        mapper.Define([]string{"First", "Last"}, fullName, []string{"FullName"}, false, false, false),
//	    },
//	    Custom: []mapper.Rule{
//	        mapper.Assign("Position", position).Bound(),
//	    },
//	    Exclude: []string{"Password"},
//	})
//
// Fields not claimed by any rule are auto-mapped by name. Nested and list
// fields are mapped through the registered mapping for their element types,
// or cloned when both sides use the same element type.
//
// # Applying
//
//	dto, err := mapper.Convert[UserDto](userToDto, user, nil)
//	for dto, err := range userToDto.ApplyEach(users, nil) { ... }
//
// # Rule Application
//
//  1. Dispatch on the exact source type (specializations registered by
//     mappings inheriting through Declaration.Parents)
//  2. Read the rule's source fields
//  3. Call the action, prefixed with the *Mapping when bound
//  4. Collect into a list when ToList is set, expand a returned Values
//  5. Check the value count and write destination fields (skipping nil
//     values when SkipIfNone is set)
//  6. Build the destination with the factory
//
// Compilation fails with *SetupError; application fails with
// *ExecutionError or *DispatchError.
package mapper

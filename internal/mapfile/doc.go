// Package mapfile loads record schemas and mapping declarations from YAML and
// compiles them into a mapper.Registry.
//
// # Schema Overview
//
//	version: "1"
//	schemas:
//	  - name: Address
//	    fields: [street, city]
//	  - name: Person
//	    fields:
//	      - first
//	      - last
//	      - {name: home, of: Address}
//	      - {name: past, list_of: Address}
//	  - name: Employee
//	    extends: Person
//	    fields: [salary]
//	mappings:
//	  - source: Person
//	    target: Contact
//	    # Simplified 1:1 mappings, applied before rules
//	    121:
//	      first: given_name
//	    rules:
//	      - source: [first, last]
//	        target: full_name
//	        action: join
//	      - target: position
//	        action: loop_index
//	        bind: true
//	    exclude: [salary]
//	  - source: Employee
//	    target: StaffContact
//	    extends: Person->Contact
//
// Mappings are named "Source->Target" unless they set name. A mapping
// extending another inherits its rules and receives the parent's instances of
// its source schema. Mappings compile in dependency order: parents first, then
// the mappings used by nested and list fields.
//
// Actions are looked up by name among Builtins and the caller's actions.
//
// Problems are reported as diagnostics rather than failing on the first one.
package mapfile

package mapfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-mapper/internal/diagnostic"
	"schema-mapper/mapper"
	"schema-mapper/schema"
)

func compileYAML(t *testing.T, src string, actions map[string]any) (*Result, *diagnostic.Diagnostics) {
	t.Helper()

	f, err := Parse([]byte(src))
	require.NoError(t, err)

	return Compile(f, mapper.NewRegistry(nil, mapper.DefaultConfig()), actions)
}

func TestCompileFile(t *testing.T) {
	res, diags := compileYAML(t, peopleYAML, nil)
	require.True(t, diags.IsValid(), diags.Error())

	// Parents and element mappings compile first.
	assert.Equal(t, []string{"Address->AddressOut", "people", "Employee->StaffContact"}, res.Order)

	employee, ok := res.Schema("Employee")
	require.True(t, ok)
	assert.Equal(t, []string{"first", "last", "email", "home", "past", "salary"}, employee.Fields().Names())

	people, ok := res.Mapping("people")
	require.True(t, ok)

	staff, ok := res.Mapping("Employee->StaffContact")
	require.True(t, ok)

	sub, ok := people.Sub(employee)
	require.True(t, ok)
	assert.Same(t, staff, sub)

	unmapped := diags.WithCode(diagnostic.CodeUnmappedField)
	assert.Empty(t, unmapped)
}

func TestCompileFileApply(t *testing.T) {
	res, diags := compileYAML(t, peopleYAML, nil)
	require.True(t, diags.IsValid(), diags.Error())

	employee, _ := res.Schema("Employee")
	people, _ := res.Mapping("people")

	src, err := DecodeRecord(employee, map[string]any{
		"first":  "Ada",
		"last":   "Lovelace",
		"salary": 10.0,
		"home":   map[string]any{"street": "Main", "city": "London"},
		"past": []any{
			map[string]any{"street": "A", "city": "B"},
			map[string]any{"street": "C", "city": "D"},
		},
	})
	require.NoError(t, err)

	var out []any

	for v, err := range people.ApplyEach(func(yield func(any) bool) {
		_ = yield(src) && yield(src)
	}, nil) {
		require.NoError(t, err)

		out = append(out, EncodeValue(v))
	}

	require.Len(t, out, 2)

	assert.Equal(t, map[string]any{
		"given_name": "Ada",
		"full_name":  "Ada Lovelace",
		"salary":     10.0,
		"position":   1,
		"home":       map[string]any{"street": "Main", "city": "London"},
		"past": []any{
			map[string]any{"street": "A", "city": "B", "pos": 0},
			map[string]any{"street": "C", "city": "D", "pos": 1},
		},
	}, out[1])

	// email is absent and skipped.
	assert.NotContains(t, out[0], "email")
}

func TestCompileFileDiagnostics(t *testing.T) {
	tests := []struct {
		name            string
		yaml            string
		wantCode        string
		wantMsg         string
		wantSuggestion  string
		wantWarningOnly bool
	}{
		{
			name: "unknown schema",
			yaml: `
schemas:
  - name: Person
    fields: [name]
mappings:
  - source: Persn
    target: Person
`,
			wantCode:       diagnostic.CodeUnknownSchema,
			wantMsg:        `schema "Persn" not found`,
			wantSuggestion: "Person",
		},
		{
			name: "unknown element schema",
			yaml: `
schemas:
  - name: Person
    fields: [{name: home, of: Adress}]
  - name: Address
    fields: [street]
mappings: []
`,
			wantCode:       diagnostic.CodeUnknownSchema,
			wantSuggestion: "Address",
		},
		{
			name: "duplicate schema",
			yaml: `
schemas:
  - name: A
  - name: A
mappings: []
`,
			wantCode: diagnostic.CodeDuplicateSchema,
		},
		{
			name: "duplicate mapping",
			yaml: `
schemas:
  - name: A
    fields: [x]
mappings:
  - source: A
    target: A
  - source: A
    target: A
`,
			wantCode: diagnostic.CodeDuplicateName,
		},
		{
			name: "same type pair",
			yaml: `
schemas:
  - name: A
    fields: [x]
mappings:
  - name: one
    source: A
    target: A
  - name: two
    source: A
    target: A
`,
			wantCode:        diagnostic.CodeDuplicateName,
			wantMsg:         `mapping "two" reuses the definition already compiled for A -> A`,
			wantWarningOnly: true,
		},
		{
			name: "unknown parent",
			yaml: `
schemas:
  - name: A
    fields: [x]
mappings:
  - name: base
    source: A
    target: A
  - name: child
    source: A
    target: A
    extends: bse
`,
			wantCode:       diagnostic.CodeUnknownMapping,
			wantSuggestion: "base",
		},
		{
			name: "schema cycle",
			yaml: `
schemas:
  - name: A
    extends: B
  - name: B
    extends: A
mappings: []
`,
			wantCode: diagnostic.CodeDependencyCycle,
		},
		{
			name: "mapping cycle",
			yaml: `
schemas:
  - name: A
    fields: [x]
  - name: B
    fields: [x]
mappings:
  - name: one
    source: A
    target: B
    extends: two
  - name: two
    source: A
    target: A
    extends: one
`,
			wantCode: diagnostic.CodeDependencyCycle,
		},
		{
			name: "unknown field",
			yaml: `
schemas:
  - name: A
    fields: [name]
  - name: B
    fields: [title]
mappings:
  - source: A
    target: B
    rules:
      - source: name
        target: titel
`,
			wantCode:       diagnostic.CodeCompileFailed,
			wantMsg:        `unknown destination field "titel"`,
			wantSuggestion: "title",
		},
		{
			name: "unknown action",
			yaml: `
schemas:
  - name: A
    fields: [name]
mappings:
  - source: A
    target: A
    rules:
      - source: name
        action: uppr
`,
			wantCode:       diagnostic.CodeCompileFailed,
			wantMsg:        `action "uppr" is not defined`,
			wantSuggestion: "upper",
		},
		{
			name: "failed parent",
			yaml: `
schemas:
  - name: A
    fields: [name]
mappings:
  - name: base
    source: A
    target: A
    rules:
      - target: name
  - name: child
    source: A
    target: A
    extends: base
`,
			wantCode: diagnostic.CodeCompileFailed,
			wantMsg:  `parent mapping "base" did not compile`,
		},
		{
			name: "unmapped destination field",
			yaml: `
schemas:
  - name: A
    fields: [name]
  - name: B
    fields: [name, extra]
mappings:
  - source: A
    target: B
`,
			wantCode:        diagnostic.CodeUnmappedField,
			wantMsg:         "no rule writes B.extra",
			wantWarningOnly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := compileYAML(t, tt.yaml, nil)

			assert.Equal(t, tt.wantWarningOnly, diags.IsValid(), diags.Error())

			found := diags.WithCode(tt.wantCode)
			require.NotEmpty(t, found, "diagnostics: %+v", diags)

			var msgs []string

			var suggestions []string

			for _, d := range found {
				msgs = append(msgs, d.Message)
				suggestions = append(suggestions, d.Suggestions...)
			}

			if tt.wantMsg != "" {
				assert.Contains(t, strings.Join(msgs, "\n"), tt.wantMsg)
			}

			if tt.wantSuggestion != "" {
				assert.Contains(t, suggestions, tt.wantSuggestion)
			}
		})
	}
}

func TestCompileCustomActions(t *testing.T) {
	src := `
schemas:
  - name: A
    fields: [name]
mappings:
  - source: A
    target: A
    rules:
      - source: name
        action: upper
`
	res, diags := compileYAML(t, src, map[string]any{
		"upper": func(s string) string { return "<" + s + ">" },
	})
	require.True(t, diags.IsValid(), diags.Error())

	a, _ := res.Schema("A")
	def, _ := res.Mapping("A->A")

	out, err := def.Apply(schema.NewRecord(a, map[string]any{"name": "x"}), nil)
	require.NoError(t, err)
	assert.Equal(t, "<x>", out.(*schema.Record).Get("name"))
}

func TestCompileNilFile(t *testing.T) {
	_, diags := Compile(nil, mapper.NewRegistry(nil, mapper.DefaultConfig()), nil)
	assert.True(t, diags.HasErrors())
}

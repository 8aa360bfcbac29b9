package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactsYAML = `
schemas:
  - name: Address
    fields: [street, city]
  - name: Person
    fields: [first, last, {name: home, of: Address}]
  - name: Contact
    fields: [full_name, position, tag, {name: home, of: Address}]
mappings:
  - name: contacts
    source: Person
    target: Contact
    rules:
      - source: [first, last]
        target: full_name
        action: join
      - target: position
        action: loop_index
        bind: true
    exclude: [first, last]
`

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCheck(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)

	res := run(t, "", "check", path, "--rules")
	require.NoError(t, res.err, spew.Sdump(res))

	assert.Contains(t, res.stdout, "contacts (Person -> Contact)")
	assert.Contains(t, res.stdout, "rule #0 (first,last -> full_name via join)")
	assert.Contains(t, res.stdout, "1 mapping(s) compiled")

	// tag has no rule.
	assert.Contains(t, res.stderr, "warning: [Person->Contact] tag: [unmapped_field] no rule writes Contact.tag")
}

func TestCheckStrict(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)

	res := run(t, "", "--strict", "check", path)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "destination fields without a rule: tag")
}

func TestCheckVerbose(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)

	res := run(t, "", "check", "-v", path)
	require.NoError(t, res.err, spew.Sdump(res))
	assert.Contains(t, res.stderr, `msg="mapping compiled"`)
}

func TestCheckErrors(t *testing.T) {
	path := writeFile(t, "broken.yaml", `
schemas:
  - name: Person
    fields: [name]
mappings:
  - source: Person
    target: Persn
`)

	res := run(t, "", "check", path)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "1 error(s) in mapping file")
	assert.Contains(t, res.stderr, `schema "Persn" not found (did you mean Person?)`)

	res = run(t, "", "check", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to read mapping file")
}

func TestApply(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)
	input := writeFile(t, "person.json", `{"first": "Ada", "last": "Lovelace", "home": {"street": "Main", "city": "London"}}`)

	res := run(t, "", "apply", path, "--input", input)
	require.NoError(t, res.err, spew.Sdump(res))

	assert.JSONEq(t, `{
		"full_name": "Ada Lovelace",
		"position": 0,
		"home": {"street": "Main", "city": "London"}
	}`, res.stdout)
}

func TestApplySelect(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)
	stdin := `{"people": [{"first": "Ada"}, {"first": "Alan", "last": "Turing"}]}`

	res := run(t, stdin, "apply", path, "-m", "contacts", "--select", "$.people[*]", "--compact")
	require.NoError(t, res.err, spew.Sdump(res))

	assert.JSONEq(t, `[
		{"full_name": "Ada", "position": 0, "home": null},
		{"full_name": "Alan Turing", "position": 1, "home": null}
	]`, res.stdout)
	assert.Equal(t, 1, strings.Count(res.stdout, "\n"))
}

func TestApplyErrors(t *testing.T) {
	path := writeFile(t, "contacts.yaml", contactsYAML)

	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown mapping",
			stdin:   `{}`,
			args:    []string{"-m", "contact"},
			wantErr: `mapping "contact" not found (did you mean contacts?)`,
		},
		{
			name:    "invalid json",
			stdin:   `{`,
			wantErr: "failed to parse input JSON",
		},
		{
			name:    "invalid jsonpath",
			stdin:   `{}`,
			args:    []string{"--select", "$.people["},
			wantErr: "invalid jsonpath",
		},
		{
			name:    "not an object",
			stdin:   `[1]`,
			wantErr: "failed to decode input #0",
		},
		{
			name:    "missing input file",
			args:    []string{"--input", filepath.Join(t.TempDir(), "missing.json")},
			wantErr: "failed to read input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.stdin, append([]string{"apply", path}, tt.args...)...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestApplyRequiresMappingName(t *testing.T) {
	path := writeFile(t, "two.yaml", `
schemas:
  - name: A
    fields: [x]
  - name: B
    fields: [x]
mappings:
  - name: one
    source: A
    target: A
  - name: two
    source: A
    target: B
`)

	res := run(t, `{"x": 1}`, "apply", path)
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, errNoMapping)

	res = run(t, `{"x": 1}`, "apply", path, "--mapping", "two")
	require.NoError(t, res.err, spew.Sdump(res))
	assert.JSONEq(t, `{"x": 1}`, res.stdout)
}

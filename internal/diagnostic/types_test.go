package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsCollect(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	assert.NoError(t, d.Error())

	d.AddWarning(CodeUnmappedField, "no rule writes B.x", "A->B", "x")
	d.AddInfo(CodeUnmappedField, "note", "", "")
	assert.True(t, d.IsValid())

	d.Add(Diagnostic{
		Severity:    SeverityError,
		Code:        CodeUnknownSchema,
		Message:     `schema "Adress" not found`,
		TypePair:    "A->B",
		Field:       "source",
		Suggestions: []string{"Address"},
	})
	d.AddError(CodeCompileFailed, "boom", "", "")

	assert.True(t, d.HasErrors())
	require.Len(t, d.Errors, 2)
	require.Len(t, d.Warnings, 1)
	require.Len(t, d.Infos, 1)

	assert.Len(t, d.WithCode(CodeUnmappedField), 2)
	assert.Empty(t, d.WithCode(CodeDependencyCycle))

	assert.EqualError(t, d.Error(),
		`[A->B] source: [unknown_schema] schema "Adress" not found (did you mean Address?); [compile_failed] boom`)

	var other Diagnostics
	other.AddError(CodeDuplicateName, "dup", "", "")
	d.Merge(other)
	assert.Len(t, d.Errors, 3)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "unknown", Severity(42).String())
}

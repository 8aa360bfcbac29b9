package mapper

import (
	"errors"
	"fmt"
	"strings"

	"schema-mapper/schema"
)

var (
	// ErrSetup marks errors raised while compiling a mapping declaration.
	ErrSetup = errors.New("mapping setup error")
	// ErrExecution marks errors raised while applying a compiled mapping.
	ErrExecution = errors.New("mapping execution error")
	// ErrDispatch marks sources whose type is neither the mapping's source type
	// nor a registered specialization of it.
	ErrDispatch = errors.New("mapping dispatch error")
)

// SetupError describes an invalid mapping declaration.
type SetupError struct {
	Pair        string // "Source -> Destination"
	Rule        string // declaration site, empty for declaration-level problems
	Msg         string
	Suggestions []string
	Err         error
}

func (e *SetupError) Error() string {
	var b strings.Builder

	b.WriteString(ErrSetup.Error())

	if e.Pair != "" {
		b.WriteString(" [" + e.Pair + "]")
	}

	if e.Rule != "" {
		b.WriteString(" " + e.Rule)
	}

	b.WriteString(": " + e.Msg)

	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean " + strings.Join(e.Suggestions, ", ") + "?)")
	}

	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}

	return b.String()
}

func (e *SetupError) Is(target error) bool { return target == ErrSetup }

func (e *SetupError) Unwrap() error { return e.Err }

// ExecutionError describes a rule that failed while a mapping was applied.
type ExecutionError struct {
	Pair string
	Rule string
	Err  error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s [%s]", ErrExecution, e.Pair)
	if e.Rule != "" {
		msg += " applying " + e.Rule
	}

	return msg + ": " + e.Err.Error()
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func (e *ExecutionError) Unwrap() error { return e.Err }

// DispatchError reports a source instance that the mapping cannot accept.
type DispatchError struct {
	Want schema.Type
	Got  string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: source of type %s is not an instance of %s and has no registered specialization",
		ErrDispatch, e.Got, e.Want.Name())
}

func (e *DispatchError) Is(target error) bool { return target == ErrDispatch }

func pairName(from, to schema.Type) string {
	return typeName(from) + " -> " + typeName(to)
}

func typeName(t schema.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.Name()
}

// Package template expands ${var} placeholders in strings.
//
// tripflow builds LLM prompts by substituting request fields into prompt
// templates; this package provides the substitution without pulling in a
// full templating engine.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// bracePattern matches ${varname} - varname is alphanumeric plus underscore.
var bracePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// MissingAction controls how the expander handles undefined variables.
type MissingAction int

const (
	// MissingKeep leaves unknown placeholders in place.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces unknown placeholders with the empty string.
	MissingEmpty

	// MissingError collects unknown placeholders and returns an
	// UndefinedVariableError.
	MissingError
)

// Expander expands ${var} patterns in strings.
// Safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
}

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets the behavior for undefined variables.
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = action
	}
}

// NewExpander creates an Expander. The default keeps unknown placeholders
// as-is (MissingKeep).
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand substitutes ${var} patterns in s from vars.
//
// An error is returned only when the expander uses MissingError and one or
// more variables are undefined.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string

	result := bracePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := vars[name]; ok {
			return fmt.Sprintf("%v", val)
		}
		switch e.missingAction {
		case MissingEmpty:
			return ""
		case MissingError:
			missing = append(missing, name)
			return match
		default:
			return match
		}
	})

	if len(missing) > 0 {
		return result, &UndefinedVariableError{Names: missing}
	}
	return result, nil
}

// ExpandAll expands every string in ss. With MissingError, the first error
// aborts and is returned.
func (e *Expander) ExpandAll(ss []string, vars map[string]any) ([]string, error) {
	if ss == nil {
		return nil, nil
	}
	results := make([]string, len(ss))
	for i, s := range ss {
		expanded, err := e.Expand(s, vars)
		if err != nil {
			return nil, err
		}
		results[i] = expanded
	}
	return results, nil
}

// UndefinedVariableError is returned when MissingError is set and one or
// more variables are not found.
type UndefinedVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// defaultExpander backs the package-level Expand helper.
var defaultExpander = NewExpander()

// Expand substitutes ${var} patterns using MissingKeep behavior.
func Expand(s string, vars map[string]any) string {
	result, _ := defaultExpander.Expand(s, vars)
	return result
}

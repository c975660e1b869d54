// Package errors implements the taxonomy from spec.md §7: typed errors for
// each failure mode of the pipeline, plus a CheckErr-style lookup (grounded
// on the teacher's pkg/errors package) that maps a known error type to an
// operator-facing message template and a process exit code.
package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/template"
)

const (
	DefaultExitCode  = 1
	ResolutionExitCode = 2
	TimeoutExitCode  = 3
	ProviderExitCode = 4
)

// SpecParse signals malformed YAML/JSON. Fatal at compile (spec.md §7).
type SpecParse struct {
	Path string
	Err  error
}

func (e *SpecParse) Error() string { return fmt.Sprintf("spec parse error in %s: %v", e.Path, e.Err) }
func (e *SpecParse) Unwrap() error { return e.Err }

// SpecInvalid signals a missing required field with no synthesizable
// default. Fatal at compose (spec.md §7).
type SpecInvalid struct {
	Entity string
	Reason string
}

func (e *SpecInvalid) Error() string { return fmt.Sprintf("invalid spec for %s: %s", e.Entity, e.Reason) }

// ResolutionFailure signals a parameter/layer/role-file lookup that
// failed. Recoverable per-function (the function is skipped with a
// warning) unless Fatal is set, which is always true for role lookups
// (spec.md §7).
type ResolutionFailure struct {
	Entity string
	Reason string
	Fatal  bool
	Err    error
}

func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("resolution failure for %s: %s: %v", e.Entity, e.Reason, e.Err)
}
func (e *ResolutionFailure) Unwrap() error { return e.Err }

// ProviderError wraps a non-throttling cloud provider error. Fatal for the
// entity; siblings continue; aggregated at the stage boundary.
type ProviderError struct {
	Entity    string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s %s: %v", e.Operation, e.Entity, e.Err)
}
func (e *ProviderError) Unwrap() error { return e.Err }

// StateTimeout is returned by wait loops with no hard cap once the caller
// cancels; recovery is operator interruption (spec.md §7).
type StateTimeout struct {
	Entity    string
	Condition string
}

func (e *StateTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for %s to reach %s", e.Entity, e.Condition)
}

// notFounder is the duck type implemented by most AWS SDK v2 "NotFound"
// exceptions (e.g. lambda.ResourceNotFoundException).
type notFounder interface {
	error
	NotFound() bool
}

// IsNotFound reports whether err represents a "not found" provider
// response, used to make delete idempotent (spec.md §7,
// "NotFound-on-delete — swallowed").
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf notFounder
	if stderrors.As(err, &nf) {
		return nf.NotFound()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "resourcenotfoundexception") ||
		strings.Contains(msg, "nosuchentity") ||
		strings.Contains(msg, "nosuchentityexception")
}

var msgForType = map[reflect.Type]string{}
var exitCodeForType = map[reflect.Type]int{}

func init() {
	msgForType[reflect.TypeOf(StateTimeout{})] = `
Timed out waiting for {{.err.Entity}} to reach {{.err.Condition}}.
The deployment was left partially applied; re-run to reconcile.
`
	exitCodeForType[reflect.TypeOf(StateTimeout{})] = TimeoutExitCode

	msgForType[reflect.TypeOf(ResolutionFailure{})] = `
Failed to resolve {{.err.Entity}}: {{.err.Reason}}.
`
	exitCodeForType[reflect.TypeOf(ResolutionFailure{})] = ResolutionExitCode

	msgForType[reflect.TypeOf(ProviderError{})] = `
Provider rejected {{.err.Operation}} on {{.err.Entity}}: {{.err.Err}}.
`
	exitCodeForType[reflect.TypeOf(ProviderError{})] = ProviderExitCode
}

// CheckErr prints an operator-facing message for known error types and
// exits with the corresponding status code; otherwise it prints the raw
// error and exits with DefaultExitCode. Mirrors the teacher's
// pkg/errors.CheckErr, generalized beyond a single cmdutil dependency.
func CheckErr(w io.Writer, err error) {
	if err == nil {
		return
	}
	if text, ok := textForError(err); ok {
		fmt.Fprint(w, text)
		os.Exit(ExitCodeFor(err))
	}
	fmt.Fprintln(w, err.Error())
	os.Exit(DefaultExitCode)
}

// ExitCodeFor returns the process exit code appropriate for err.
func ExitCodeFor(err error) int {
	t, ok := errType(err)
	if !ok {
		return DefaultExitCode
	}
	if code, ok := exitCodeForType[t]; ok {
		return code
	}
	return DefaultExitCode
}

func textForError(err error) (string, bool) {
	t, ok := errType(err)
	if !ok {
		return "", false
	}
	tmplText, ok := msgForType[t]
	if !ok {
		return "", false
	}
	tpl, perr := template.New("errMsg").Parse(tmplText)
	if perr != nil {
		return "", false
	}
	var buf bytes.Buffer
	if eerr := tpl.Execute(&buf, map[string]any{"err": dereferenced(err)}); eerr != nil {
		return "", false
	}
	return strings.TrimSpace(buf.String()) + "\n", true
}

func errType(err error) (reflect.Type, bool) {
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Ptr:
		return v.Elem().Type(), true
	case reflect.Struct:
		return v.Type(), true
	default:
		return nil, false
	}
}

func dereferenced(err error) any {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Ptr {
		return v.Elem().Interface()
	}
	return err
}

// Package tmpl implements the placeholder-substitution and deferred-value
// machinery used throughout tc's spec tree. Most string fields in a
// TopologySpec carry "{{sandbox}}"-style placeholders that are not bound
// until resolve or deploy time; this package gives that idea a name instead
// of threading optional strings everywhere.
package tmpl

// Deferred represents a value that is either still a template string
// (Unbound) or has been substituted with a concrete value (Bound). It
// exists so a field's "not yet resolved" state is explicit in the type
// rather than encoded as a sentinel string.
type Deferred[T any] struct {
	raw   string
	bound bool
	value T
}

// Unbound wraps a template string that has not yet been resolved.
func Unbound[T any](raw string) Deferred[T] {
	return Deferred[T]{raw: raw}
}

// Bound wraps an already-concrete value.
func Bound[T any](v T) Deferred[T] {
	return Deferred[T]{bound: true, value: v}
}

// IsBound reports whether the value has been resolved.
func (d Deferred[T]) IsBound() bool {
	return d.bound
}

// Raw returns the unresolved template string. It is only meaningful when
// IsBound is false.
func (d Deferred[T]) Raw() string {
	return d.raw
}

// Value returns the bound value, or the zero value if still unbound.
func (d Deferred[T]) Value() T {
	return d.value
}

// Resolve binds the deferred value by running the template string through
// resolve, leaving already-bound values untouched.
func (d Deferred[T]) Resolve(resolve func(string) (T, error)) (Deferred[T], error) {
	if d.bound {
		return d, nil
	}
	v, err := resolve(d.raw)
	if err != nil {
		return d, err
	}
	return Bound(v), nil
}

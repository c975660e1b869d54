package tmpl

import (
	"fmt"
	"regexp"
)

// Vars is the set of placeholders substituted into every string field
// loaded off disk. Unbound placeholders (those with no entry in Vars, most
// commonly {{sandbox}} during compile) are preserved verbatim so a later
// stage can bind them.
type Vars struct {
	Sandbox string
	Version string
	Account string
	Region  string
	Root    string
	Env     string
	Repo    string
}

func (v Vars) asMap() map[string]string {
	return map[string]string{
		"sandbox": v.Sandbox,
		"version": v.Version,
		"account": v.Account,
		"region":  v.Region,
		"root":    v.Root,
		"env":     v.Env,
		"repo":    v.Repo,
	}
}

var placeholderRE = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Substitute replaces every {{key}} placeholder in s for which Vars holds a
// non-empty value. Placeholders with no bound value are left untouched so
// that resolver/deployer can bind them later.
func Substitute(s string, v Vars) string {
	vars := v.asMap()
	return placeholderRE.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholderRE.FindStringSubmatch(m)[1]
		if val, ok := vars[key]; ok && val != "" {
			return val
		}
		return m
	})
}

// SubstituteMap applies Substitute to every value of a string map in place
// and returns it for chaining.
func SubstituteMap(m map[string]string, v Vars) map[string]string {
	for k, val := range m {
		m[k] = Substitute(val, v)
	}
	return m
}

// HasUnbound reports whether s still contains an unresolved placeholder.
func HasUnbound(s string) bool {
	return placeholderRE.MatchString(s)
}

// RequireBound returns an error naming the first unresolved placeholder
// remaining in s, or nil if there is none. Used by stages (e.g. the
// resolver's environment-variable pass) that must not hand unbound strings
// downstream.
func RequireBound(field, s string) error {
	if m := placeholderRE.FindStringSubmatch(s); m != nil {
		return fmt.Errorf("field %s still contains unresolved placeholder {{%s}}", field, m[1])
	}
	return nil
}

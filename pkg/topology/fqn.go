package topology

import "strings"

// FQN computes a function's fully-qualified name following the rule set
// in spec.md §4.2: explicit fqn > "<parent>_<name>" > "<name>", with
// "_{{sandbox}}" always appended. explicitFQN is empty when none was set
// in the function descriptor.
func FQN(namespace, name, explicitFQN string) string {
	base := explicitFQN
	if base == "" {
		if namespace != "" {
			base = namespace + "_" + name
		} else {
			base = name
		}
	}
	return base + "_{{sandbox}}"
}

// Abbreviate collapses a name to at most maxLen characters by taking
// successive first letters of hyphen/underscore-separated segments,
// starting from the left, once the plain name would overflow. This
// implements the role-name abbreviation rule from spec.md §4.2/§8
// (e.g. "search-indexer-worker-long-name" -> "siwln" when maxLen forces
// contraction). Once a name overflows, every segment is contracted to its
// first letter; a name with a single segment is truncated to maxLen.
func Abbreviate(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	segments := splitNameSegments(name)
	if len(segments) <= 1 {
		if len(name) > maxLen {
			return name[:maxLen]
		}
		return name
	}
	// First-letter contraction of every segment.
	letters := make([]string, len(segments))
	for i, s := range segments {
		if s == "" {
			continue
		}
		letters[i] = string(s[0])
	}
	contracted := strings.Join(letters, "")
	if len(contracted) <= maxLen {
		return contracted
	}
	return contracted[:maxLen]
}

func splitNameSegments(name string) []string {
	name = strings.ReplaceAll(name, "_", "-")
	return strings.Split(name, "-")
}

// RoleName synthesizes a function's derived role name:
// "tc-<namespace>-{{sandbox}}-<abbr>-role", where abbr collapses the
// function name to at most 15 characters.
func RoleName(namespace, fnName string) string {
	return "tc-" + namespace + "-{{sandbox}}-" + Abbreviate(fnName, 15) + "-role"
}

// PolicyName mirrors RoleName with a "-policy" suffix, matching the
// synthesized role's matching IAM policy.
func PolicyName(namespace, fnName string) string {
	return "tc-" + namespace + "-{{sandbox}}-" + Abbreviate(fnName, 15) + "-policy"
}

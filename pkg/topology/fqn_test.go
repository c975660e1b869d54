package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFQNAlwaysCarriesSandboxPlaceholder(t *testing.T) {
	cases := []struct {
		namespace, name, explicit, want string
	}{
		{"demo", "worker", "", "demo_worker_{{sandbox}}"},
		{"demo", "worker", "custom-fqn", "custom-fqn_{{sandbox}}"},
		{"", "worker", "", "worker_{{sandbox}}"},
	}
	for _, c := range cases {
		got := FQN(c.namespace, c.name, c.explicit)
		assert.Equal(t, c.want, got)
		assert.True(t, strings.HasSuffix(got, "_{{sandbox}}"))
	}
}

func TestRoleNameAbbreviatesLongFunctionNames(t *testing.T) {
	name := RoleName("svc", "search-indexer-worker-long-name")
	require.Contains(t, name, "tc-svc-{{sandbox}}-")
	require.True(t, strings.HasSuffix(name, "-role"))

	abbr := strings.TrimSuffix(strings.TrimPrefix(name, "tc-svc-{{sandbox}}-"), "-role")
	assert.LessOrEqual(t, len(abbr), 15)
	assert.Equal(t, "siwln", abbr)
}

func TestRoleNameKeepsShortNamesLiteral(t *testing.T) {
	name := RoleName("svc", "worker")
	assert.Equal(t, "tc-svc-{{sandbox}}-worker-role", name)
}

func TestConsolidateLayersDedupesPreservingOrder(t *testing.T) {
	r := &RuntimeSpec{
		Layers:     []string{"util:5"},
		Extensions: []string{"otel"},
	}
	layers := r.ConsolidateLayers("hb-ruby")
	assert.Equal(t, []string{"otel", "util:5", "hb-ruby"}, layers)

	// An extension that is also listed as an explicit layer must not be
	// duplicated (no implicit layer here).
	r2 := &RuntimeSpec{Layers: []string{"otel", "util:5"}, Extensions: []string{"otel"}}
	layers2 := r2.ConsolidateLayers("")
	seen := map[string]int{}
	for _, l := range layers2 {
		seen[l]++
	}
	for l, n := range seen {
		assert.Equal(t, 1, n, "layer %s duplicated", l)
	}
}

package specfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tc-functors/tc/internal/tmpl"
	"github.com/tc-functors/tc/pkg/topology"
)

func TestLoadTopologySpecMissingFileYieldsDefault(t *testing.T) {
	dir := t.TempDir()
	spec, err := LoadTopologySpec(dir, tmpl.Vars{})
	require.NoError(t, err)
	assert.Equal(t, "tc", spec.Name)
	assert.Equal(t, topology.KindFunction, spec.Kind)
}

func TestLoadTopologySpecMalformedYAMLIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "topology.yml"), []byte("name: [unterminated"), 0o644))
	_, err := LoadTopologySpec(dir, tmpl.Vars{})
	require.Error(t, err)
	var parseErr *ErrSpecParse
	assert.ErrorAs(t, err, &parseErr)
}

func TestLoadFunctionSpecTriesJSONThenYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "function.yml"), []byte("name: worker\n"), 0o644))
	fn, err := LoadFunctionSpec(dir, tmpl.Vars{})
	require.NoError(t, err)
	assert.Equal(t, "worker", fn.Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "function.json"), []byte(`{"name":"worker-json"}`), 0o644))
	fn2, err := LoadFunctionSpec(dir, tmpl.Vars{})
	require.NoError(t, err)
	assert.Equal(t, "worker-json", fn2.Name)
}

func TestLoadFunctionSpecSynthesizesFromDirName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-fn")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	fn, err := LoadFunctionSpec(dir, tmpl.Vars{})
	require.NoError(t, err)
	assert.Equal(t, "my-fn", fn.Name)
}

func TestLoadInfraSpecDefaultsWhenAbsent(t *testing.T) {
	m, err := LoadInfraSpec("")
	require.NoError(t, err)
	require.Contains(t, m, "default")
	assert.Equal(t, 128, m["default"].MemorySize)
	assert.Equal(t, 300, m["default"].Timeout)
}

func TestLoadTagsWalksUpAtMostFourLevels(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "tags.json"), []byte(`{"team":"infra"}`), 0o644))
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	tags, err := LoadTags(deep)
	require.NoError(t, err)
	assert.Equal(t, "infra", tags["team"])

	tooDeep := filepath.Join(deep, "d", "e")
	require.NoError(t, os.MkdirAll(tooDeep, 0o755))
	tags2, err := LoadTags(tooDeep)
	require.NoError(t, err)
	assert.Empty(t, tags2)
}

package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tc-functors/tc/internal/tmpl"
	"github.com/tc-functors/tc/pkg/topology"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// scenario 1, spec.md §8: a directory with handler.py and no topology.yml
// compiles to a one-function standalone topology.
func TestCompileStandaloneFunctionDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "handler.py"), "def handler(event, ctx): pass\n")

	spec, err := Compile(dir, Options{Vars: tmpl.Vars{}})
	require.NoError(t, err)

	assert.Equal(t, topology.KindFunction, spec.Kind)
	require.Len(t, spec.Functions, 1)

	var fn *topology.FunctionSpec
	for _, f := range spec.Functions {
		fn = f
	}
	require.NotNil(t, fn)
	assert.Equal(t, topology.LangPython310, fn.Runtime.Lang)
	assert.Equal(t, topology.PackageZip, fn.Runtime.PackageType)
	assert.Equal(t, filepath.Join(dir, "lambda.zip"), fn.Runtime.URI)
	assert.Equal(t, "handler.handler", fn.Runtime.Handler)
}

// scenario 2, spec.md §8: topology.yml with only `name: demo` plus one
// subdir with function.json compiles to a namespaced function with the
// expected unbound fqn, and no events/routes/mutations.
func TestCompileTopologyDirWithSingleFunctionSubdir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "topology.yml"), "name: demo\n")
	writeFile(t, filepath.Join(dir, "worker", "function.json"), `{"name": "worker"}`)
	writeFile(t, filepath.Join(dir, "worker", "handler.py"), "def handler(event, ctx): pass\n")

	spec, err := Compile(dir, Options{Vars: tmpl.Vars{}, Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, "demo", spec.Name)
	require.Contains(t, spec.Functions, "worker")
	assert.Equal(t, "demo_worker_{{sandbox}}", spec.Functions["worker"].FQN)
	assert.Empty(t, spec.Events)
	assert.Empty(t, spec.Routes)
	assert.Nil(t, spec.Mutations)
}

func TestClassifyDirStandaloneVsTopology(t *testing.T) {
	standalone := t.TempDir()
	writeFile(t, filepath.Join(standalone, "handler.rb"), "")
	assert.Equal(t, KindStandaloneFunctionDir, ClassifyDir(standalone))

	topo := t.TempDir()
	writeFile(t, filepath.Join(topo, "topology.yml"), "name: demo\n")
	assert.Equal(t, KindTopologyDir, ClassifyDir(topo))

	singular := t.TempDir()
	writeFile(t, filepath.Join(singular, "topology.yml"), "name: demo\n")
	writeFile(t, filepath.Join(singular, "handler.py"), "")
	assert.Equal(t, KindSingularFunctionDir, ClassifyDir(singular))
}

// With no roles/<fn>.json, deriveRole falls back to the shared base role.
func TestDeriveRoleFallsBackToBaseRoleWhenNoExplicitFile(t *testing.T) {
	fn := &topology.FunctionSpec{Name: "worker"}
	deriveRole(fn, "demo", nil)
	require.NotNil(t, fn.Role)
	assert.Equal(t, topology.RoleBase, fn.Role.Kind)
	assert.Equal(t, "tc-base-lambda-role", fn.Role.Name)
}

// scenario 6, spec.md §8: role names for long function names are
// abbreviated via the compiler's role-derivation path.
func TestDeriveRoleSynthesizesNameFromExplicitFile(t *testing.T) {
	fn := &topology.FunctionSpec{Name: "search-indexer-worker-long-name"}
	explicit := &topology.RoleSpec{}
	deriveRole(fn, "demo", explicit)
	require.NotNil(t, fn.Role)
	assert.Equal(t, "tc-demo-{{sandbox}}-siwln-role", fn.Role.Name)
	assert.Equal(t, topology.RoleFunction, fn.Role.Kind)
}

// scenario 4, spec.md §8: implicit Ruby layer derivation only fires for
// zip-packaged, Code-built Ruby 3.2 functions with a Gemfile present.
func TestDeriveImplicitLayerOnlyForRubyZipWithGemfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Gemfile"), "source 'https://rubygems.org'\n")

	fn := &topology.FunctionSpec{
		Name: "worker",
		FQN:  "demo_worker_{{sandbox}}",
		Runtime: &topology.RuntimeSpec{
			Lang:        topology.LangRuby32,
			PackageType: topology.PackageZip,
		},
		Build: &topology.BuildSpec{Kind: "Code"},
	}
	deriveImplicitLayer(fn, dir, false, "demo")
	assert.Equal(t, "demo-worker-{{sandbox}}", fn.LayerName)

	pyFn := &topology.FunctionSpec{
		Name: "other",
		Runtime: &topology.RuntimeSpec{
			Lang:        topology.LangPython310,
			PackageType: topology.PackageZip,
		},
		Build: &topology.BuildSpec{Kind: "Code"},
	}
	deriveImplicitLayer(pyFn, dir, false, "demo")
	assert.Empty(t, pyFn.LayerName)
}

func TestInferKindPrefersStepFunctionOverRoutes(t *testing.T) {
	spec := &topology.TopologySpec{
		States: map[string]any{"start": "a"},
		Routes: map[string]*topology.RouteSpec{"get": {}},
	}
	inferKind(spec)
	assert.Equal(t, topology.KindStepFunction, spec.Kind)
}

func TestInferKindFallsBackToEvented(t *testing.T) {
	spec := &topology.TopologySpec{}
	inferKind(spec)
	assert.Equal(t, topology.KindEvented, spec.Kind)
}

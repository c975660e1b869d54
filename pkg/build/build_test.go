package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/topology"
)

func TestPackageZipWritesLambdaZipAndBindsURI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "handler.py"), []byte("def handler(e,c): return e"), 0o644))

	fn := &compose.Function{
		Name: "worker",
		Dir:  dir,
		Runtime: &topology.RuntimeSpec{
			PackageType: topology.PackageZip,
			URI:         filepath.Join(dir, "lambda.zip"),
		},
	}

	b := &Builder{}
	art, err := b.Package(context.Background(), fn)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lambda.zip"), art.URI)
	assert.FileExists(t, filepath.Join(dir, "lambda.zip"))
	assert.Equal(t, filepath.Join(dir, "lambda.zip"), fn.Runtime.URI)
}

func TestCodeVersionIsDeterministicForUnchangedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "handler.py"), []byte("print(1)"), 0o644))

	fn := &compose.Function{
		Dir: dir,
		Runtime: &topology.RuntimeSpec{
			PackageType: topology.PackageImage,
			URI:         "{{repo}}:svc_worker_{{code_hash}}",
		},
	}
	b := &Builder{Repo: "123.dkr.ecr.us-east-1.amazonaws.com/svc"}

	v1, err := b.codeVersion(fn)
	require.NoError(t, err)
	v2, err := b.codeVersion(fn)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "handler.py"), []byte("print(2)"), 0o644))
	v3, err := b.codeVersion(fn)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestPlanRendersImageURIWithRepoAndHash(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "handler.py"), []byte("print(1)"), 0o644))

	fn := &compose.Function{
		Name: "worker",
		Dir:  dir,
		Runtime: &topology.RuntimeSpec{
			PackageType: topology.PackageImage,
			URI:         "{{repo}}:svc_worker_{{code_hash}}",
		},
	}
	b := &Builder{Repo: "123.dkr.ecr.us-east-1.amazonaws.com/svc"}

	plan, err := b.Plan(fn)
	require.NoError(t, err)
	assert.Contains(t, plan.URI, "123.dkr.ecr.us-east-1.amazonaws.com/svc:svc_worker_")
	assert.NotContains(t, plan.URI, "{{repo}}")
	assert.NotContains(t, plan.URI, "{{code_hash}}")
}

func TestDiscoverLayersConsolidatesExtensionsLayersAndImplicit(t *testing.T) {
	fn := &compose.Function{
		LayerName: "svc-worker-layer",
		Runtime: &topology.RuntimeSpec{
			Extensions: []string{"ext-a"},
			Layers:     []string{"layer-b", "ext-a"},
		},
	}
	assert.Equal(t, []string{"ext-a", "layer-b", "svc-worker-layer"}, DiscoverLayers(fn))
}

func TestRenderManifestWritesHandlerAndManifestJSON(t *testing.T) {
	dir := t.TempDir()
	transducer := &compose.Transducer{
		Function: &compose.Function{Dir: dir},
		Targets: map[string]compose.TransducerTargets{
			"arn:aws:lambda:us-east-1:123456789012:function:svc_worker_{{sandbox}}": {Event: "order-placed"},
		},
	}

	path, err := RenderManifest(transducer)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "transducer.py"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var manifest TransducerManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "order-placed", manifest.Targets["arn:aws:lambda:us-east-1:123456789012:function:svc_worker_{{sandbox}}"].Event)
}

package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tc-functors/tc/internal/config"
	"github.com/tc-functors/tc/pkg/authctx"
	"github.com/tc-functors/tc/pkg/cache"
	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/topology"
)

func testResolver(t *testing.T, fake *cloud.Fake) *Resolver {
	t.Helper()
	ch, err := cache.New(t.TempDir())
	require.NoError(t, err)
	cfg := config.Default()
	cfg.AWS.Lambda.LayersProfile = ""
	return &Resolver{
		Auth:   &authctx.AuthContext{Region: "us-east-1", Account: "123456789012", Partition: "aws"},
		Config: cfg,
		Cloud:  fake,
		Cache:  ch,
		LayersFor: func(_ context.Context, _ *authctx.AuthContext) (cloud.LayerRegistry, error) {
			return fake, nil
		},
	}
}

func TestResolveExpandsSSMParameter(t *testing.T) {
	fake := cloud.NewFake()
	fake.Parameters["svc/db-password"] = "s3cr3t"
	r := testResolver(t, fake)

	topo := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{
				Environment: map[string]string{"DB_PASSWORD": "ssm:/svc/db-password"},
			}},
		},
	}

	_, err := r.Resolve(context.Background(), topo, Options{Namespace: "svc", Env: "dev", Profile: "dev"}, []byte("spec-v1"))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", topo.Functions["worker"].Runtime.Environment["DB_PASSWORD"])
}

func TestResolveAppliesHoneybadgerEnvironmentForStableSandbox(t *testing.T) {
	fake := cloud.NewFake()
	r := testResolver(t, fake)

	topo := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{Lang: topology.LangPython310}},
		},
	}

	sandbox, err := r.Resolve(context.Background(), topo, Options{Namespace: "svc", Env: "dev", Profile: "prod", SandboxOverride: "stable"}, []byte("spec-v1"))
	require.NoError(t, err)
	assert.Equal(t, "stable", sandbox)
	assert.Equal(t, "prod", topo.Functions["worker"].Runtime.Environment["HONEYBADGER_ENVIRONMENT"])
}

func TestResolveAppliesHoneybadgerEnvForRubyAndNonStableSandbox(t *testing.T) {
	fake := cloud.NewFake()
	r := testResolver(t, fake)

	topo := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{Lang: topology.LangRuby32}},
		},
	}

	_, err := r.Resolve(context.Background(), topo, Options{Namespace: "svc", Env: "dev", Profile: "prod", SandboxOverride: "canary"}, []byte("spec-v1"))
	require.NoError(t, err)
	assert.Equal(t, "prod-canary", topo.Functions["worker"].Runtime.Environment["HONEYBADGER_ENV"])
}

func TestResolveLayersPassesThroughFullyQualifiedARNsAndLooksUpBareNames(t *testing.T) {
	fake := cloud.NewFake()
	fake.Layers["common-utils"] = "arn:aws:lambda:us-east-1:123456789012:layer:common-utils:7"
	r := testResolver(t, fake)

	topo := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{
				Layers: []string{"arn:aws:lambda:us-east-1:999999999999:layer:pinned:3", "common-utils"},
			}},
		},
	}

	_, err := r.Resolve(context.Background(), topo, Options{Namespace: "svc", Env: "dev", Profile: "dev"}, []byte("spec-v1"))
	require.NoError(t, err)
	layers := topo.Functions["worker"].Runtime.Layers
	assert.Equal(t, []string{"arn:aws:lambda:us-east-1:999999999999:layer:pinned:3", "arn:aws:lambda:us-east-1:123456789012:layer:common-utils:7"}, layers)
}

func TestEffectiveInfraSpecMergesSandboxOverProfileOverDefault(t *testing.T) {
	m := map[string]*topology.InfraSpec{
		"default": {MemorySize: 128, Timeout: 60},
		"prod":    {MemorySize: 256},
		"canary":  {Timeout: 30},
	}
	merged := effectiveInfraSpec(m, "prod", "canary")
	assert.Equal(t, 256, merged.MemorySize)
	assert.Equal(t, 30, merged.Timeout)
}

func TestResolveSkipsCloudCallsOnCacheHit(t *testing.T) {
	fake := cloud.NewFake()
	fake.Parameters["svc/key"] = "first"
	r := testResolver(t, fake)

	topo := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{
				Environment: map[string]string{"KEY": "ssm:/svc/key"},
			}},
		},
	}
	_, err := r.Resolve(context.Background(), topo, Options{Namespace: "svc", Env: "dev", Profile: "dev"}, []byte("spec-v1"))
	require.NoError(t, err)

	fake.Parameters["svc/key"] = "changed"
	topo2 := &compose.Topology{
		Functions: map[string]*compose.Function{
			"worker": {Runtime: &topology.RuntimeSpec{
				Environment: map[string]string{"KEY": "ssm:/svc/key"},
			}},
		},
	}
	_, err = r.Resolve(context.Background(), topo2, Options{Namespace: "svc", Env: "dev", Profile: "dev"}, []byte("spec-v1"))
	require.NoError(t, err)
	assert.Equal(t, "first", topo2.Functions["worker"].Runtime.Environment["KEY"])
}

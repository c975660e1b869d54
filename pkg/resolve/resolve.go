// Package resolve implements the Resolver (spec.md §4.4): it binds every
// late-bound reference in a composed Topology against live cloud state —
// effective InfraSpec selection, `ssm:/<key>` environment expansion,
// layer-name-to-ARN lookups against a centralized account, and
// network/filesystem placement — short-circuited by a content-addressed
// cache. Grounded on the teacher's `pkg/apply/task` per-entity task shape
// generalized to a per-function resolve pass, and on
// AdamPippert-Lobstertank's environment-augmentation code for the
// Honeybadger env-var rule.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/tc-functors/tc/internal/config"
	"github.com/tc-functors/tc/pkg/authctx"
	"github.com/tc-functors/tc/pkg/cache"
	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/topology"
	"k8s.io/klog/v2"
)

// Resolver binds deferred references in a Topology against live cloud
// state. Cloud is the default-account client (parameter store + layer
// lookups that don't require role assumption); LayersFor builds a
// LayerRegistry scoped to the centralized layers account on demand.
type Resolver struct {
	Auth    *authctx.AuthContext
	Config  *config.ConfigSpec
	Cloud   interface {
		cloud.ParameterStore
		cloud.LayerRegistry
	}
	LayersFor func(ctx context.Context, auth *authctx.AuthContext) (cloud.LayerRegistry, error)
	Cache     *cache.Cache
}

// New wires a Resolver whose LayersFor assumes config.aws.lambda.layers_profile
// and builds a live cloud.AWS client scoped to that role, per spec.md §4.4
// step 3.
func New(auth *authctx.AuthContext, cfg *config.ConfigSpec, cl *cloud.AWS, ch *cache.Cache) *Resolver {
	return &Resolver{
		Auth:   auth,
		Config: cfg,
		Cloud:  cl,
		Cache:  ch,
		LayersFor: func(ctx context.Context, a *authctx.AuthContext) (cloud.LayerRegistry, error) {
			profile := cfg.AWS.Lambda.LayersProfile
			if profile == "" {
				return cl, nil
			}
			assumed, err := a.AssumeRole(ctx, profile)
			if err != nil {
				return nil, err
			}
			return cloud.New(assumed), nil
		},
	}
}

// Options carries the per-run knobs spec.md §4.4 names outside the
// Topology itself: namespace/env for the cache key, the deploy profile
// (credentials+region identity, spec.md Glossary), and the sandbox
// override (falls through to $SANDBOX/$TC_SANDBOX/"stable").
type Options struct {
	Namespace     string
	Env           string
	Profile       string
	SandboxOverride string
	EnableFS      bool
	SkipCache     bool
}

// Resolve mutates topo's functions in place, binding every deferred
// reference. specContents is the raw bytes the spec tree was loaded from,
// used only to build the cache key.
func (r *Resolver) Resolve(ctx context.Context, topo *compose.Topology, opts Options, specContents []byte) (string, error) {
	sandbox := r.Config.Env.ResolveSandbox(opts.SandboxOverride)

	key := cache.Key(opts.Namespace, opts.Env, sandbox, specContents)
	if r.Cache != nil && !opts.SkipCache {
		var cached compose.Topology
		hit, err := r.Cache.Get(key, &cached)
		if err != nil {
			return sandbox, fmt.Errorf("resolve: cache read: %w", err)
		}
		if hit {
			*topo = cached
			klog.V(2).Infof("resolve: cache hit for %s", key)
			return sandbox, nil
		}
	}

	for name, fn := range topo.Functions {
		if err := r.resolveFunction(ctx, fn, opts, sandbox); err != nil {
			return sandbox, fmt.Errorf("resolve function %s: %w", name, err)
		}
	}

	if r.Cache != nil && !opts.SkipCache {
		if err := r.Cache.Put(key, topo); err != nil {
			return sandbox, fmt.Errorf("resolve: cache write: %w", err)
		}
	}
	return sandbox, nil
}

// resolveFunction implements the four numbered steps of spec.md §4.4.
func (r *Resolver) resolveFunction(ctx context.Context, fn *compose.Function, opts Options, sandbox string) error {
	rt := fn.Runtime
	if rt == nil {
		return nil
	}

	infra := effectiveInfraSpec(rt.InfraSpec, opts.Profile, sandbox)

	if infra.MemorySize != 0 {
		rt.MemorySize = infra.MemorySize
	}
	if infra.Timeout != 0 {
		rt.Timeout = infra.Timeout
	}

	env, err := r.resolveEnvironment(ctx, rt.Environment, infra.Environment, rt.Lang, opts.Profile, sandbox)
	if err != nil {
		return err
	}
	rt.Environment = env

	layers, err := r.resolveLayers(ctx, rt.Layers)
	if err != nil {
		return err
	}
	rt.Layers = layers

	if opts.EnableFS {
		r.resolveNetworkAndFS(infra, opts.Profile, sandbox)
	}
	fn.Infra = infra
	return nil
}

// effectiveInfraSpec implements step 1: exact sandbox key wins, else
// profile key, else "default"; fields merge independently field-by-field.
func effectiveInfraSpec(m map[string]*topology.InfraSpec, profile, sandbox string) *topology.InfraSpec {
	base := m["default"]
	prof := m[profile]
	sb := m[sandbox]

	merged := &topology.InfraSpec{}
	mergeInfra(merged, base)
	mergeInfra(merged, prof)
	mergeInfra(merged, sb)
	return merged
}

func mergeInfra(dst, src *topology.InfraSpec) {
	if src == nil {
		return
	}
	if src.MemorySize != 0 {
		dst.MemorySize = src.MemorySize
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.ImageURI != "" {
		dst.ImageURI = src.ImageURI
	}
	if src.ProvisionedConcurrency != nil {
		dst.ProvisionedConcurrency = src.ProvisionedConcurrency
	}
	if src.ReservedConcurrency != nil {
		dst.ReservedConcurrency = src.ReservedConcurrency
	}
	if src.Network != nil {
		dst.Network = src.Network
	}
	if src.Filesystem != nil {
		dst.Filesystem = src.Filesystem
	}
	if len(src.Environment) > 0 {
		if dst.Environment == nil {
			dst.Environment = map[string]string{}
		}
		for k, v := range src.Environment {
			dst.Environment[k] = v
		}
	}
	if len(src.Tags) > 0 {
		if dst.Tags == nil {
			dst.Tags = map[string]string{}
		}
		for k, v := range src.Tags {
			dst.Tags[k] = v
		}
	}
}

// resolveEnvironment implements step 2: ssm:/ expansion plus the two
// Honeybadger augmentations, merging in the effective InfraSpec's
// environment overrides last (most specific wins).
func (r *Resolver) resolveEnvironment(ctx context.Context, base, infraOverrides map[string]string, lang topology.Lang, profile, sandbox string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range infraOverrides {
		out[k] = v
	}

	for k, v := range out {
		if !strings.HasPrefix(v, "ssm:/") {
			continue
		}
		key := strings.TrimPrefix(v, "ssm:/")
		resolved, err := r.Cloud.GetParameter(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("resolve ssm param %s: %w", key, err)
		}
		out[k] = resolved
	}

	honeybadgerValue := profile
	if sandbox != "stable" {
		honeybadgerValue = profile + "-" + sandbox
	}
	if lang == topology.LangRuby32 {
		out["HONEYBADGER_ENV"] = honeybadgerValue
	} else {
		out["HONEYBADGER_ENVIRONMENT"] = honeybadgerValue
	}
	return out, nil
}

// resolveLayers implements step 3: fully-qualified ARNs (containing ":")
// pass through verbatim; bare names are looked up against the
// centralized layers account.
func (r *Resolver) resolveLayers(ctx context.Context, layers []string) ([]string, error) {
	if len(layers) == 0 {
		return layers, nil
	}
	registry, err := r.LayersFor(ctx, r.Auth)
	if err != nil {
		return nil, fmt.Errorf("assume layers role: %w", err)
	}

	out := make([]string, 0, len(layers))
	for _, l := range layers {
		if strings.Contains(l, ":") {
			out = append(out, l)
			continue
		}
		arn, err := registry.LatestLayerVersionARN(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("resolve layer %s: %w", l, err)
		}
		out = append(out, arn)
	}
	return out, nil
}

// resolveNetworkAndFS implements step 4, only invoked when enable_fs=true.
func (r *Resolver) resolveNetworkAndFS(infra *topology.InfraSpec, profile, sandbox string) {
	efs := r.Config.AWS.EFS

	if infra.Filesystem == nil {
		ap := efs.DevAP
		if sandbox == r.Config.Resolver.StableSandbox {
			ap = efs.StableAP
		}
		if ap != "" {
			infra.Filesystem = &topology.FilesystemSpec{ARN: ap, MountPoint: r.Config.AWS.Lambda.FSMountPoint}
		}
	}

	if infra.Network == nil {
		if net, ok := efs.Network[profile]; ok {
			infra.Network = &topology.NetworkSpec{Subnets: net.Subnets, SecurityGroups: net.SecurityGroups}
		}
	}
}

// Package orchestrate implements the Orchestrator named in spec.md §2:
// the end-to-end driver that takes a directory through compile, compose,
// resolve, build, and deploy, wiring together every other package. It is
// the one place that owns the AuthContext and the default AWS client,
// mirroring the teacher's cmd/apply Runner holding a long-lived set of
// shared clients across an entire RunE invocation.
package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/tc-functors/tc/internal/config"
	"github.com/tc-functors/tc/internal/workpool"
	"github.com/tc-functors/tc/pkg/authctx"
	"github.com/tc-functors/tc/pkg/build"
	"github.com/tc-functors/tc/pkg/cache"
	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compiler"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/deploy/solver"
	"github.com/tc-functors/tc/pkg/deploy/task"
	"github.com/tc-functors/tc/pkg/deploy/taskrunner"
	"github.com/tc-functors/tc/pkg/resolve"
	"github.com/tc-functors/tc/pkg/specfile"
	"github.com/tc-functors/tc/pkg/topology"
)

// Orchestrator holds the shared, immutable-after-construction state
// every stage needs: config, credentials, the default-account cloud
// client, and the resolve cache.
type Orchestrator struct {
	Config *config.ConfigSpec
	Auth   *authctx.AuthContext
	Cloud  *cloud.AWS
	Cache  *cache.Cache

	Resolver *resolve.Resolver
	Builder  *build.Builder
}

// Options configures New: an explicit config path overrides discovery,
// and AssumeRoleARN/Profile are threaded into authctx.New per spec.md §6's
// TC_ASSUME_ROLE/TC_CENTRALIZED_ASSUME_ROLE variables.
type Options struct {
	ConfigPath    string
	AssumeRoleARN string
	Profile       string
	CacheDir      string
	RulePrefix    string
	Version       string
	Repo          string
	GitSHA        string
}

// New builds an Orchestrator: loads config, resolves credentials, and
// wires the Resolver/Builder that every pipeline stage shares.
func New(ctx context.Context, opts Options) (*Orchestrator, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	assumeRole := opts.AssumeRoleARN
	if assumeRole == "" {
		assumeRole = cfg.Env.AssumeRole
	}
	auth, err := authctx.New(ctx, authctx.Options{
		Region:        cfg.AWS.Lambda.DefaultRegion,
		AssumeRoleARN: assumeRole,
		Profile:       opts.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth context: %w", err)
	}

	cl := cloud.New(auth)

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = ".tc-cache"
	}
	ch, err := cache.New(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &Orchestrator{
		Config:   cfg,
		Auth:     auth,
		Cloud:    cl,
		Cache:    ch,
		Resolver: resolve.New(auth, cfg, cl, ch),
		Builder:  &build.Builder{Repo: opts.Repo, GitSHA: opts.GitSHA},
	}, nil
}

// Compile implements spec.md §4.2's `compile` operation.
func (o *Orchestrator) Compile(dir string, recursive bool) (*topology.TopologySpec, error) {
	spec, err := compiler.Compile(dir, compiler.Options{Recursive: recursive})
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", dir, err)
	}
	return spec, nil
}

// Compose implements spec.md §4.3's `compose` operation.
func (o *Orchestrator) Compose(spec *topology.TopologySpec) (*compose.Topology, error) {
	rulePrefix := o.Config.AWS.EventBridge.RulePrefix
	composer := compose.New(o.Auth, rulePrefix, specfile.GitRevision(spec.Dir))
	topo, err := composer.Compose(spec)
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", spec.Name, err)
	}
	return topo, nil
}

// ResolveOptions mirrors resolve.Options, threaded through Resolve so
// callers outside this package never need to import pkg/resolve directly.
type ResolveOptions = resolve.Options

// Resolve implements spec.md §4.4's `resolve` operation, returning the
// sandbox name it resolved against.
func (o *Orchestrator) Resolve(ctx context.Context, topo *compose.Topology, opts ResolveOptions, specContents []byte) (string, error) {
	sandbox, err := o.Resolver.Resolve(ctx, topo, opts, specContents)
	if err != nil {
		return sandbox, fmt.Errorf("resolve %s: %w", topo.Namespace, err)
	}
	return sandbox, nil
}

// Build packages every function in topo (and its transducer, if any,
// after writing the transducer's handler and manifest.json),
// implementing the Builder's share of spec.md §2's component table.
func (o *Orchestrator) Build(ctx context.Context, topo *compose.Topology) ([]build.Artifact, error) {
	var artifacts []build.Artifact
	for name, fn := range topo.Functions {
		a, err := o.Builder.Package(ctx, fn)
		if err != nil {
			return artifacts, fmt.Errorf("build function %s: %w", name, err)
		}
		artifacts = append(artifacts, a)
	}
	if topo.Transducer != nil && topo.Transducer.Function != nil {
		if _, err := build.RenderManifest(topo.Transducer); err != nil {
			return artifacts, fmt.Errorf("render transducer manifest: %w", err)
		}
		a, err := o.Builder.Package(ctx, topo.Transducer.Function)
		if err != nil {
			return artifacts, fmt.Errorf("build transducer: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// Deploy implements spec.md §4.5's `deploy`/`destroy` operations: it
// solves the dependency-ordered task queue for topo and every child
// topology, then runs each one's queue through a bounded taskrunner.
// Events flow out over the returned channel, closed once the run
// completes (successfully or not); the final error, if any, is sent as
// the last event's ErrorEvent before the channel closes.
func (o *Orchestrator) Deploy(ctx context.Context, topo *compose.Topology, act event.Action) <-chan event.Event {
	events := make(chan event.Event, 64)
	go func() {
		defer close(events)
		tc := task.NewContext(events)
		if err := o.deployOne(ctx, topo, act, tc); err != nil {
			tc.Emit(event.Event{Type: event.ErrorType, ErrorEvent: event.ErrorEvent{Err: err}})
		}
	}()
	return events
}

func (o *Orchestrator) deployOne(ctx context.Context, topo *compose.Topology, act event.Action, tc *task.Context) error {
	clouds := solver.Clouds{
		Function: o.Cloud,
		Role:     o.Cloud,
		State:    o.Cloud,
		Event:    o.Cloud,
		Queue:    o.Cloud,
		Channel:  o.Cloud,
		Route:    o.Cloud,
		GraphQL:  o.Cloud,
		Site:     o.Cloud,
	}

	waves, err := solver.Plan(topo, clouds, act)
	if err != nil {
		return fmt.Errorf("plan %s: %w", topo.Namespace, err)
	}

	pool := workpool.New(defaultConcurrency, o.Config.Env.SyncCreate)
	runner := taskrunner.New(pool)
	if err := runner.Run(ctx, waves, tc); err != nil {
		return fmt.Errorf("deploy %s: %w", topo.Namespace, err)
	}

	for name, child := range topo.Children {
		klog.V(2).Infof("deploying child topology %s", name)
		if err := o.deployOne(ctx, child, act, tc); err != nil {
			return err
		}
	}
	return nil
}

// defaultConcurrency bounds how many tasks within one dependency wave
// run at once when TC_SYNC_CREATE is unset.
const defaultConcurrency = 8

// Apply drives the full pipeline in one call: compile, compose, resolve,
// build, deploy. It is the implementation behind `tc apply`.
func (o *Orchestrator) Apply(ctx context.Context, dir string, recursive bool, resolveOpts ResolveOptions) (<-chan event.Event, error) {
	spec, err := o.Compile(dir, recursive)
	if err != nil {
		return nil, err
	}
	topo, err := o.Compose(spec)
	if err != nil {
		return nil, err
	}
	specContents, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal spec for cache key: %w", err)
	}
	if _, err := o.Resolve(ctx, topo, resolveOpts, specContents); err != nil {
		return nil, err
	}
	if _, err := o.Build(ctx, topo); err != nil {
		return nil, err
	}
	return o.Deploy(ctx, topo, event.CreateAction), nil
}

// Destroy tears down a previously-deployed topology (`tc destroy`):
// compile and compose are still required to know what to delete, but
// resolve/build are skipped since no new artifact needs producing.
func (o *Orchestrator) Destroy(ctx context.Context, dir string, recursive bool) (<-chan event.Event, error) {
	spec, err := o.Compile(dir, recursive)
	if err != nil {
		return nil, err
	}
	topo, err := o.Compose(spec)
	if err != nil {
		return nil, err
	}
	return o.Deploy(ctx, topo, event.DeleteAction), nil
}

// Package topology defines the in-memory spec tree produced by the
// compiler (TopologySpec), along with the value types it shares with the
// composed entity graph (pkg/compose's Topology).
package topology

// Kind is the topology flavor. When a topology.yml omits `kind`, the
// compiler infers one of these from the fields that are present.
type Kind string

const (
	KindStepFunction Kind = "StepFunction"
	KindFunction     Kind = "Function"
	KindEvented      Kind = "Evented"
	KindGraphql      Kind = "Graphql"
	KindRouted       Kind = "Routed"
)

// Lang is a supported function runtime language.
type Lang string

const (
	LangPython39  Lang = "python3.9"
	LangPython310 Lang = "python3.10"
	LangPython311 Lang = "python3.11"
	LangPython312 Lang = "python3.12"
	LangPython313 Lang = "python3.13"
	LangRuby32    Lang = "ruby3.2"
	LangJava21    Lang = "java21"
	LangRust      Lang = "rust"
	LangNode20    Lang = "node20"
	LangNode22    Lang = "node22"
)

// Provider is the compute substrate a function runs on.
type Provider string

const (
	ProviderLambda  Provider = "Lambda"
	ProviderFargate Provider = "Fargate"
)

// PackageType is how a function's code is shipped.
type PackageType string

const (
	PackageZip   PackageType = "zip"
	PackageImage PackageType = "image"
)

// NodesSpec controls directory discovery within a topology dir.
type NodesSpec struct {
	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	Dirs   []string `yaml:"dirs,omitempty" json:"dirs,omitempty"`
	Root   string   `yaml:"root,omitempty" json:"root,omitempty"`
}

// TopologySpec is the compiler's output: a hierarchical, serializable
// description of a directory tree of topology/function descriptors,
// before the composer has turned it into a deployable graph.
//
// Invariants: exactly one root TopologySpec per compile; `Name` is unique
// within the root's transitive closure; every FunctionSpec.Namespace
// equals the nearest enclosing spec's Name after interning.
type TopologySpec struct {
	Name             string                   `yaml:"name" json:"name"`
	Kind             Kind                     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Dir              string                   `yaml:"-" json:"dir"`
	InfraDir         string                   `yaml:"infra_dir,omitempty" json:"infra_dir,omitempty"`
	Version          string                   `yaml:"version,omitempty" json:"version,omitempty"`
	FQN              string                   `yaml:"-" json:"fqn"`
	HyphenatedNames  bool                     `yaml:"hyphenated_names,omitempty" json:"hyphenated_names,omitempty"`
	Config           map[string]string        `yaml:"config,omitempty" json:"config,omitempty"`
	Functions        map[string]*FunctionSpec `yaml:"functions,omitempty" json:"functions,omitempty"`
	Events           map[string]*EventSpec    `yaml:"events,omitempty" json:"events,omitempty"`
	Routes           map[string]*RouteSpec    `yaml:"routes,omitempty" json:"routes,omitempty"`
	Mutations        *MutationSpec            `yaml:"mutations,omitempty" json:"mutations,omitempty"`
	Queues           map[string]*QueueSpec    `yaml:"queues,omitempty" json:"queues,omitempty"`
	Channels         map[string]*ChannelSpec  `yaml:"channels,omitempty" json:"channels,omitempty"`
	Schedules        map[string]*ScheduleSpec `yaml:"schedules,omitempty" json:"schedules,omitempty"`
	Pages            map[string]*PageSpec     `yaml:"pages,omitempty" json:"pages,omitempty"`
	States           map[string]any           `yaml:"states,omitempty" json:"states,omitempty"`
	Flow             map[string]any           `yaml:"flow,omitempty" json:"flow,omitempty"`
	Nodes            NodesSpec                `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Children         map[string]*TopologySpec `yaml:"-" json:"children,omitempty"`
	Roles            map[string]*RoleSpec     `yaml:"roles,omitempty" json:"roles,omitempty"`
	Tests            map[string]*TestSpec     `yaml:"tests,omitempty" json:"tests,omitempty"`
	RulePrefix       string                   `yaml:"rule_prefix,omitempty" json:"rule_prefix,omitempty"`
	Tags             map[string]string        `yaml:"-" json:"tags,omitempty"`
}

// StateMachineDef returns whichever of `states` or `flow` was populated;
// the loader accepts either name for the step-function definition (open
// question in spec.md §9, decided in DESIGN.md: `states` wins if both are
// present, since it is the more specific/newer name).
func (t *TopologySpec) StateMachineDef() map[string]any {
	if len(t.States) > 0 {
		return t.States
	}
	return t.Flow
}

// FunctionSpec is a single function's descriptor, merged from
// function.{json,yml,yaml} plus vars/<fn>.json and roles/<fn>.json.
type FunctionSpec struct {
	Name       string       `yaml:"name" json:"name"`
	Dir        string       `yaml:"-" json:"dir"`
	Namespace  string       `yaml:"-" json:"namespace"`
	FQN        string       `yaml:"-" json:"fqn"`
	LayerName  string       `yaml:"layer_name,omitempty" json:"layer_name,omitempty"`
	Runtime    *RuntimeSpec `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Build      *BuildSpec   `yaml:"build,omitempty" json:"build,omitempty"`
	Assets     []string     `yaml:"assets,omitempty" json:"assets,omitempty"`
	InfraDir   string       `yaml:"infra_dir,omitempty" json:"infra_dir,omitempty"`
	Tasks      []string     `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	Test       *TestSpec    `yaml:"test,omitempty" json:"test,omitempty"`
	Targets    []TargetRef  `yaml:"targets,omitempty" json:"targets,omitempty"`
	Role       *RoleSpec    `yaml:"role,omitempty" json:"role,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
}

// TargetRef names a downstream entity a function's output should be
// fanned out to by the transducer.
type TargetRef struct {
	Event    string `yaml:"event,omitempty" json:"event,omitempty"`
	Mutation string `yaml:"mutation,omitempty" json:"mutation,omitempty"`
	Function string `yaml:"function,omitempty" json:"function,omitempty"`
	Channel  string `yaml:"channel,omitempty" json:"channel,omitempty"`
}

// BuildSpec describes how a function's code is packaged.
type BuildSpec struct {
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"` // Code | Image | Inline
	Cmds []string `yaml:"cmds,omitempty" json:"cmds,omitempty"`
}

// RuntimeSpec is the execution configuration of a function.
//
// Invariant: after consolidation, Layers is the deduplicated concatenation
// Extensions ++ Layers ++ [implicit layer, if any].
type RuntimeSpec struct {
	Lang                Lang                  `yaml:"lang,omitempty" json:"lang,omitempty"`
	Provider            Provider              `yaml:"provider,omitempty" json:"provider,omitempty"`
	Handler             string                `yaml:"handler,omitempty" json:"handler,omitempty"`
	PackageType         PackageType           `yaml:"package_type,omitempty" json:"package_type,omitempty"`
	URI                 string                `yaml:"uri,omitempty" json:"uri,omitempty"`
	Layers              []string              `yaml:"layers,omitempty" json:"layers,omitempty"`
	Extensions          []string              `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Environment         map[string]string     `yaml:"environment,omitempty" json:"environment,omitempty"`
	MemorySize          int                   `yaml:"memory_size,omitempty" json:"memory_size,omitempty"`
	Timeout             int                   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MountFS             bool                  `yaml:"mount_fs,omitempty" json:"mount_fs,omitempty"`
	SnapStart           bool                  `yaml:"snapstart,omitempty" json:"snapstart,omitempty"`
	RoleSpec            *RoleSpec             `yaml:"role_spec,omitempty" json:"role_spec,omitempty"`
	InfraSpec           map[string]*InfraSpec `yaml:"infra,omitempty" json:"infra,omitempty"`
}

// ConsolidateLayers implements RuntimeSpec's layer-ordering invariant:
// extensions first, then explicit layers, then the implicit layer (if any),
// deduplicated while preserving first-seen order.
func (r *RuntimeSpec) ConsolidateLayers(implicit string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(l string) {
		if l == "" || seen[l] {
			return
		}
		seen[l] = true
		out = append(out, l)
	}
	for _, l := range r.Extensions {
		add(l)
	}
	for _, l := range r.Layers {
		add(l)
	}
	add(implicit)
	return out
}

// InfraSpec is a per-deployment-target override of sizing, networking and
// environment. The map it lives in (RuntimeSpec.InfraSpec) is keyed by
// "default", a profile name, or a sandbox name; the resolver merges with
// precedence sandbox > profile > default, field by field.
type InfraSpec struct {
	MemorySize             int               `yaml:"memory_size,omitempty" json:"memory_size,omitempty"`
	Timeout                int               `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Environment            map[string]string `yaml:"environment,omitempty" json:"environment,omitempty"`
	ImageURI               string            `yaml:"image_uri,omitempty" json:"image_uri,omitempty"`
	ProvisionedConcurrency *int              `yaml:"provisioned_concurrency,omitempty" json:"provisioned_concurrency,omitempty"`
	ReservedConcurrency    *int              `yaml:"reserved_concurrency,omitempty" json:"reserved_concurrency,omitempty"`
	Network                *NetworkSpec      `yaml:"network,omitempty" json:"network,omitempty"`
	Filesystem             *FilesystemSpec   `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	Tags                   map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// NetworkSpec places a function's ENIs.
type NetworkSpec struct {
	Subnets        []string `yaml:"subnets,omitempty" json:"subnets,omitempty"`
	SecurityGroups []string `yaml:"security_groups,omitempty" json:"security_groups,omitempty"`
}

// FilesystemSpec mounts an EFS access point.
type FilesystemSpec struct {
	ARN        string `yaml:"arn,omitempty" json:"arn,omitempty"`
	MountPoint string `yaml:"mount_point,omitempty" json:"mount_point,omitempty"`
}

// DefaultInfraSpec is synthesized by the loader when no infra file is
// present (spec.md §4.1).
func DefaultInfraSpec() map[string]*InfraSpec {
	return map[string]*InfraSpec{
		"default": {MemorySize: 128, Timeout: 300},
	}
}

// RoleKind distinguishes the entity a role was synthesized for.
type RoleKind string

const (
	RoleFunction RoleKind = "Function"
	RoleState    RoleKind = "State"
	RoleRoute    RoleKind = "Route"
	RoleEvent    RoleKind = "Event"
	RoleMutation RoleKind = "Mutation"
	RoleBase     RoleKind = "base"
	RoleProvided RoleKind = "provided"
)

// RoleSpec is an IAM role descriptor, whether explicit (loaded from
// roles/<fn>.json), derived, or a reference to a pre-existing shared role.
//
// Invariant: roles with Kind == RoleProvided are pre-existing and are
// never created or deleted by the deployer.
type RoleSpec struct {
	Kind        RoleKind       `yaml:"kind,omitempty" json:"kind,omitempty"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty"`
	PolicyName  string         `yaml:"policy_name,omitempty" json:"policy_name,omitempty"`
	TrustPolicy map[string]any `yaml:"trust_policy,omitempty" json:"trust_policy,omitempty"`
	PolicyDoc   map[string]any `yaml:"policy_doc,omitempty" json:"policy_doc,omitempty"`
	ARN         string         `yaml:"arn,omitempty" json:"arn,omitempty"`
}

// TestSpec describes how a function's tests are invoked; tc only needs to
// know where they live and how to run them, not their content.
type TestSpec struct {
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Command []string `yaml:"command,omitempty" json:"command,omitempty"`
}

// EventSpec describes an EventBridge rule before composition.
type EventSpec struct {
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Producer   any         `yaml:"producer,omitempty" json:"producer,omitempty"` // string or []string
	DetailType string      `yaml:"detail_type,omitempty" json:"detail_type,omitempty"`
	Detail     map[string]any `yaml:"detail,omitempty" json:"detail,omitempty"`
	Function   string      `yaml:"function,omitempty" json:"function,omitempty"`
	Functions  []string    `yaml:"functions,omitempty" json:"functions,omitempty"`
	Mutation   string      `yaml:"mutation,omitempty" json:"mutation,omitempty"`
	StepFunction string    `yaml:"stepfunction,omitempty" json:"stepfunction,omitempty"`
	State      string      `yaml:"state,omitempty" json:"state,omitempty"`
	Channel    string      `yaml:"channel,omitempty" json:"channel,omitempty"`
	Sandboxes  []string    `yaml:"sandboxes,omitempty" json:"sandboxes,omitempty"`
	Skip       bool        `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// RouteMethod is an HTTP method supported by a Route.
type RouteMethod string

const (
	MethodGET    RouteMethod = "GET"
	MethodPOST   RouteMethod = "POST"
	MethodPUT    RouteMethod = "PUT"
	MethodDELETE RouteMethod = "DELETE"
	MethodPATCH  RouteMethod = "PATCH"
	MethodANY    RouteMethod = "ANY"
)

// AuthorizerKind distinguishes a Route's authorizer implementation.
type AuthorizerKind string

const (
	AuthorizerLambda  AuthorizerKind = "lambda"
	AuthorizerCognito AuthorizerKind = "cognito"
)

// AuthorizerSpec configures a route's authorizer.
type AuthorizerSpec struct {
	Create bool           `yaml:"create,omitempty" json:"create,omitempty"`
	Name   string         `yaml:"name,omitempty" json:"name,omitempty"`
	Kind   AuthorizerKind `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// CORSSpec configures the CORS policy applied at the API level.
type CORSSpec struct {
	Methods []string `yaml:"methods,omitempty" json:"methods,omitempty"`
	Origins []string `yaml:"origins,omitempty" json:"origins,omitempty"`
	Headers []string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// RouteSpec describes an HTTP route before composition.
type RouteSpec struct {
	Method          RouteMethod     `yaml:"method,omitempty" json:"method,omitempty"`
	Path            string          `yaml:"path,omitempty" json:"path,omitempty"`
	Gateway         string          `yaml:"gateway,omitempty" json:"gateway,omitempty"`
	Authorizer      *AuthorizerSpec `yaml:"authorizer,omitempty" json:"authorizer,omitempty"`
	Stage           string          `yaml:"stage,omitempty" json:"stage,omitempty"`
	IsAsync         bool            `yaml:"is_async,omitempty" json:"is_async,omitempty"`
	CORS            *CORSSpec       `yaml:"cors,omitempty" json:"cors,omitempty"`
	Function        string          `yaml:"function,omitempty" json:"function,omitempty"`
	Event           string          `yaml:"event,omitempty" json:"event,omitempty"`
	Queue           string          `yaml:"queue,omitempty" json:"queue,omitempty"`
	StepFunction    string          `yaml:"stepfunction,omitempty" json:"stepfunction,omitempty"`
	RequestTemplate string          `yaml:"request_template,omitempty" json:"request_template,omitempty"` // merged | detail | null
	Skip            bool            `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// ResolverSpec describes one GraphQL field resolver.
type ResolverSpec struct {
	Input      map[string]any `yaml:"input,omitempty" json:"input,omitempty"`
	Output     map[string]any `yaml:"output,omitempty" json:"output,omitempty"`
	Function   string         `yaml:"function,omitempty" json:"function,omitempty"`
	Event      string         `yaml:"event,omitempty" json:"event,omitempty"`
	Table      string         `yaml:"table,omitempty" json:"table,omitempty"`
	Subscribe  bool           `yaml:"subscribe,omitempty" json:"subscribe,omitempty"`
}

// MutationSpec describes a GraphQL API before composition.
type MutationSpec struct {
	TypesMap  map[string]map[string]string `yaml:"types_map,omitempty" json:"types_map,omitempty"`
	Resolvers map[string]*ResolverSpec     `yaml:"resolvers,omitempty" json:"resolvers,omitempty"`
}

// QueueSpec describes an SQS queue.
type QueueSpec struct {
	Name            string `yaml:"name,omitempty" json:"name,omitempty"`
	VisibilityTimeout int  `yaml:"visibility_timeout,omitempty" json:"visibility_timeout,omitempty"`
	DLQ             bool   `yaml:"dlq,omitempty" json:"dlq,omitempty"`
}

// ChannelSpec describes an EventBridge API destination.
type ChannelSpec struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// ScheduleSpec describes a scheduled (cron) EventBridge rule.
type ScheduleSpec struct {
	Name    string         `yaml:"name,omitempty" json:"name,omitempty"`
	Cron    string         `yaml:"cron,omitempty" json:"cron,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
	Function string        `yaml:"function,omitempty" json:"function,omitempty"`
}

// PageSpec describes a static page fronted by S3 + CloudFront.
type PageSpec struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Bucket string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Dir    string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

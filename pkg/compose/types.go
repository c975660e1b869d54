// Package compose implements the Composer (spec.md §4.3): it turns a
// TopologySpec tree into a deployable Topology graph of concrete
// entities (Function, Event, Route, Mutation, Queue, Channel, Schedule,
// Page, Role) plus an optional Transducer.
package compose

import "github.com/tc-functors/tc/pkg/topology"

// Topology is the composer's output: the same skeleton as a
// TopologySpec, with concrete entity values instead of spec values.
type Topology struct {
	Namespace  string
	FQN        string
	Kind       topology.Kind
	Functions  map[string]*Function
	Events     map[string]*Event
	Routes     map[string]*Route
	Mutation   *Mutation
	Queues     map[string]*Queue
	Channels   map[string]*Channel
	Schedules  map[string]*Schedule
	Pages      map[string]*Page
	Roles        map[string]*Role
	StateMachine *StateMachine
	Transducer   *Transducer
	Children     map[string]*Topology
}

// Function is a composed, deployable function.
type Function struct {
	Name        string
	ActualName  string
	FQN         string
	ARN         string
	Namespace   string
	Dir         string
	Description string
	Runtime     *topology.RuntimeSpec
	Build       *topology.BuildSpec
	LayerName   string
	Targets     []Target
	Test        *topology.TestSpec
	Role        *Role
	Infra       *topology.InfraSpec
}

// TargetEntity names the kind of thing a Target points at.
type TargetEntity string

const (
	TargetFunction TargetEntity = "Function"
	TargetState    TargetEntity = "State"
	TargetMutation TargetEntity = "Mutation"
	TargetChannel  TargetEntity = "Channel"
	TargetQueue    TargetEntity = "Queue"
	TargetTable    TargetEntity = "Table"
)

// Target is a fan-out destination shared by Events, Routes, and the
// Transducer manifest.
type Target struct {
	Entity         TargetEntity
	ID             string
	ARN            string
	RoleARN        string
	InputPathsMap  map[string]string
	InputTemplate  map[string]any
}

// EventPattern is an EventBridge-style matcher.
type EventPattern struct {
	DetailType []string
	Source     []string
	Detail     map[string]any
}

// Event is a composed event rule.
type Event struct {
	Name      string
	RuleName  string
	Bus       string
	BusARN    string
	Pattern   EventPattern
	Targets   []Target
	Sandboxes []string
	Skip      bool
}

// RouteTarget is a route's single dispatch target.
type RouteTarget struct {
	Entity         TargetEntity
	Name           string
	ARN            string
	RequestParams  map[string]string
}

// Route is a composed HTTP route.
type Route struct {
	Method     topology.RouteMethod
	Path       string
	Gateway    string
	Authorizer *topology.AuthorizerSpec
	Stage      string
	IsAsync    bool
	CORS       topology.CORSSpec
	RoleARN    string
	Target     RouteTarget
	Skip       bool
}

// Resolver is a composed GraphQL field resolver.
type Resolver struct {
	Entity     TargetEntity
	Input      map[string]any
	Output     map[string]any
	TargetName string
	TargetARN  string
	Subscribe  bool
}

// Mutation is a composed GraphQL API.
type Mutation struct {
	TypesMap  map[string]map[string]string
	Resolvers map[string]*Resolver
}

// Queue is a composed SQS queue.
type Queue struct {
	Name              string
	VisibilityTimeout int
	DLQ               bool
}

// Channel is a composed EventBridge API destination.
type Channel struct {
	Name     string
	Endpoint string
}

// Schedule is a composed cron rule.
type Schedule struct {
	Name     string
	Cron     string
	Payload  map[string]any
	Function string
}

// Page is a composed static site (S3 + CloudFront).
type Page struct {
	Name           string
	Bucket         string
	Dir            string
	BucketPolicy   map[string]any
}

// StateMachine is a composed Step Functions definition, built only for
// topologies of kind StepFunction.
type StateMachine struct {
	FQN         string
	Definition  map[string]any
	Role        *Role
	LogGroupARN string
	LogLevel    string
	Tags        map[string]string
}

// Role is a composed IAM role, possibly just a reference to a
// pre-existing one.
type Role struct {
	Kind        topology.RoleKind
	Name        string
	PolicyName  string
	TrustPolicy map[string]any
	PolicyDoc   map[string]any
	ARN         string
}

// TransducerTargets is the per-upstream-function entry in the
// transducer's manifest.json.
type TransducerTargets struct {
	Event    string `json:"event,omitempty"`
	Mutation string `json:"mutation,omitempty"`
	Function string `json:"function,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// Transducer is the auxiliary fan-out function, created only when at
// least one function declares targets.
type Transducer struct {
	Function *Function
	Targets  map[string]TransducerTargets // keyed by upstream function ARN
}

// Package solver orders a composed Topology's entities into dependency
// waves and builds the matching task.Task for each one (spec.md §5):
// roles before the entities that reference them, the transducer before
// functions whose event-invoke destination points at it, and functions
// before the routes, events, schedules, and mutation resolvers that
// target them. State-machine targets get no ordering edge.
//
// Grounded on the teacher's pkg/apply/solver.Solver, which turns a set
// of objects plus their dependsOn edges into an ordered TaskQueue;
// generalized here from Kubernetes ObjMetadata to tc's own entity Refs.
package solver

import (
	"fmt"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/deploy/task"
	"github.com/tc-functors/tc/pkg/graph"
)

// Clouds aggregates every provider surface a solved task queue needs,
// one small interface per concern, mirroring the teacher's single
// Provider handed down to every task constructor.
type Clouds struct {
	Function cloud.FunctionRegistry
	Role     cloud.RoleRegistry
	State    cloud.StateMachineRegistry
	Event    cloud.EventRegistry
	Queue    cloud.QueueRegistry
	Channel  cloud.ChannelRegistry
	Route    interface {
		cloud.RouteRegistry
		cloud.PoolRegistry
	}
	GraphQL cloud.GraphQLRegistry
	Site    cloud.SiteRegistry
}

const (
	kindRole       = "role"
	kindFunction   = "function"
	kindTransducer = "transducer"
	kindState      = "statemachine"
	kindMutation   = "mutation"
	kindQueue      = "queue"
	kindChannel    = "channel"
	kindEvent      = "event"
	kindRoute      = "route"
	kindSchedule   = "schedule"
	kindPage       = "page"
)

// defaultGraphQLAuth is used when a topology declares mutations without
// naming an explicit authorizer; API_KEY requires no further wiring and
// matches AppSync's own create-time default.
const defaultGraphQLAuth = "API_KEY"

// Plan builds the wave-ordered task queue for one topology (non-
// recursive; the orchestrator calls Plan once per topology in the
// composed tree, including children, since nested topologies deploy
// independently). Every task within a wave is independent of every
// other task in the same wave and may run concurrently; wave N+1 must
// wait for wave N to finish.
func Plan(topo *compose.Topology, c Clouds, act event.Action) ([][]task.Task, error) {
	g := graph.New()
	tasks := map[graph.Ref]task.Task{}

	roleRef := func(name string) graph.Ref { return graph.Ref{Kind: kindRole, Name: name} }
	for key, role := range topo.Roles {
		ref := roleRef(key)
		g.AddVertex(ref)
		tasks[ref] = task.NewRoleTask(role, c.Role, act)
	}

	var transducerRef graph.Ref
	var transducerARN string
	if topo.Transducer != nil && topo.Transducer.Function != nil {
		fn := topo.Transducer.Function
		transducerRef = graph.Ref{Kind: kindTransducer, Name: fn.Name}
		tasks[transducerRef] = task.NewTransducerTask(topo.Transducer, c.Function, act)
		if fn.Role != nil {
			g.AddEdge(transducerRef, roleRef(compose.RoleFunction(fn.Name)))
		}
		transducerARN = fn.ARN
	}

	for name, fn := range topo.Functions {
		ref := graph.Ref{Kind: kindFunction, Name: name}
		destARN := ""
		if len(fn.Targets) > 0 {
			destARN = transducerARN
		}
		tasks[ref] = task.NewFunctionTask(fn, c.Function, destARN, act)
		if fn.Role != nil {
			g.AddEdge(ref, roleRef(compose.RoleFunction(name)))
		}
		if destARN != "" {
			g.AddEdge(ref, transducerRef)
		}
	}

	if topo.StateMachine != nil {
		sm := topo.StateMachine
		ref := graph.Ref{Kind: kindState, Name: sm.FQN}
		roleARN := ""
		if sm.Role != nil {
			roleARN = sm.Role.ARN
		}
		tasks[ref] = task.NewStateMachineTask(sm.FQN, sm.Definition, roleARN, sm.LogGroupARN, sm.LogLevel, sm.Tags, c.State, act)
		if sm.Role != nil {
			g.AddEdge(ref, roleRef("flow"))
		}
	}

	if topo.Mutation != nil {
		ref := graph.Ref{Kind: kindMutation, Name: topo.FQN}
		dataSources := map[string]task.DataSource{}
		for field, resolver := range topo.Mutation.Resolvers {
			kind := dataSourceKind(resolver.Entity)
			dataSources[field] = task.DataSource{Name: dataSourceName(field), Kind: kind, Target: resolver.TargetARN}
			if resolver.Entity == compose.TargetFunction {
				g.AddEdge(ref, graph.Ref{Kind: kindFunction, Name: resolver.TargetName})
			}
		}
		tasks[ref] = task.NewMutationTask(topo.FQN, defaultGraphQLAuth, topo.Mutation, dataSources, c.GraphQL, act)
	}

	for name, q := range topo.Queues {
		ref := graph.Ref{Kind: kindQueue, Name: name}
		tasks[ref] = task.NewQueueTask(q, c.Queue, act)
	}

	for name, ch := range topo.Channels {
		ref := graph.Ref{Kind: kindChannel, Name: name}
		tasks[ref] = task.NewChannelTask(ch, c.Channel, act)
	}

	for name, ev := range topo.Events {
		ref := graph.Ref{Kind: kindEvent, Name: name}
		tasks[ref] = task.NewEventTask(ev, c.Event, act)
		for _, tgt := range ev.Targets {
			if dep, ok := depRefFor(tgt.Entity, tgt.ID); ok {
				g.AddEdge(ref, dep)
			}
		}
	}

	for name, rt := range topo.Routes {
		ref := graph.Ref{Kind: kindRoute, Name: name}
		tasks[ref] = task.NewRouteTask(rt, c.Route, c.Function, act)
		if dep, ok := depRefFor(rt.Target.Entity, rt.Target.Name); ok {
			g.AddEdge(ref, dep)
		}
	}

	for name, sc := range topo.Schedules {
		ref := graph.Ref{Kind: kindSchedule, Name: name}
		ruleName := "schedule-" + name
		targetARN := ""
		if sc.Function != "" {
			if fn, ok := topo.Functions[sc.Function]; ok {
				targetARN = fn.ARN
				g.AddEdge(ref, graph.Ref{Kind: kindFunction, Name: sc.Function})
			}
		}
		tasks[ref] = task.NewScheduleTask(sc, ruleName, targetARN, c.Event, act)
	}

	for name, pg := range topo.Pages {
		ref := graph.Ref{Kind: kindPage, Name: name}
		tasks[ref] = task.NewPageTask(pg, c.Site, act)
	}

	for ref := range tasks {
		g.AddVertex(ref)
	}

	waves, err := g.Sort()
	if err != nil {
		return nil, fmt.Errorf("solve deploy order: %w", err)
	}

	var ordered [][]task.Task
	for _, wave := range waves {
		var group []task.Task
		for _, ref := range wave {
			if t, ok := tasks[ref]; ok {
				group = append(group, t)
			}
		}
		if len(group) > 0 {
			ordered = append(ordered, group)
		}
	}
	return ordered, nil
}

// dataSourceKind maps a resolver's target entity to the AppSync
// datasource kind it backs (spec.md §4.3's GraphQL mapping).
func dataSourceKind(entity compose.TargetEntity) string {
	switch entity {
	case compose.TargetFunction:
		return "AWS_LAMBDA"
	case compose.TargetTable:
		return "AMAZON_DYNAMODB"
	default:
		return "HTTP"
	}
}

func dataSourceName(field string) string { return field + "DataSource" }

// depRefFor maps a Target/RouteTarget entity+id pair to the graph.Ref of
// the entity that must exist first, when that entity is one the solver
// itself deploys (functions only; state machines and channels are
// either already-existing or have no ordering requirement here).
func depRefFor(entity compose.TargetEntity, id string) (graph.Ref, bool) {
	if entity != compose.TargetFunction {
		return graph.Ref{}, false
	}
	name := id
	// Event targets key functions as "fn-<name>"; routes use the bare name.
	if len(name) > 3 && name[:3] == "fn-" {
		name = name[3:]
	}
	return graph.Ref{Kind: kindFunction, Name: name}, true
}

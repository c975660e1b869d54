package compose

import (
	"github.com/tc-functors/tc/pkg/authctx"
	"github.com/tc-functors/tc/pkg/topology"
)

// Composer holds the cross-cutting context every entity builder needs:
// the resolved AuthContext (for ARN formatting), the rule-name prefix,
// and a couple of feature toggles. It is analogous to spec.md §9's
// immutable Context struct.
type Composer struct {
	Auth         *authctx.AuthContext
	RulePrefix   string
	Version      string
	UseGitSHA    bool
	EventRoleName string
}

// New constructs a Composer. Auth may be nil when composing without live
// credentials (e.g. `tc compose --format json` for inspection only); in
// that case entity ARNs are left empty; Resolve does not fill them in.
func New(auth *authctx.AuthContext, rulePrefix, version string) *Composer {
	return &Composer{Auth: auth, RulePrefix: rulePrefix, Version: version, EventRoleName: "tc-event-role"}
}

// Compose implements spec.md §4.3: turns a TopologySpec into a Topology.
func (c *Composer) Compose(spec *topology.TopologySpec) (*Topology, error) {
	topo := &Topology{
		Namespace: spec.Name,
		FQN:       spec.FQN,
		Kind:      spec.Kind,
		Functions: map[string]*Function{},
		Roles:     map[string]*Role{},
	}

	for name, fspec := range spec.Functions {
		fn, err := c.buildFunction(fspec, spec.Name)
		if err != nil {
			return nil, err
		}
		role := c.buildRole(fspec.Role, spec.Name, fn.Name)
		fn.Role = role
		topo.Roles[RoleFunction(fn.Name)] = role
		topo.Functions[name] = fn
		if len(fn.Targets) > 0 {
			ensureTransducer(topo).Targets[fn.ARN] = transducerTargetsFor(fn.Targets)
		}
	}

	for name, rspec := range spec.Roles {
		topo.Roles[name] = c.buildRole(rspec, spec.Name, name)
	}

	if def := spec.StateMachineDef(); len(def) > 0 {
		role, ok := topo.Roles["flow"]
		if !ok {
			role = c.buildRole(nil, spec.Name, "flow")
			topo.Roles["flow"] = role
		}
		topo.StateMachine = &StateMachine{
			FQN:        spec.FQN,
			Definition: def,
			Role:       role,
			Tags:       spec.Tags,
		}
	}

	if len(spec.Events) > 0 {
		topo.Events = map[string]*Event{}
		for name, espec := range spec.Events {
			ev, err := c.buildEvent(espec, name, spec)
			if err != nil {
				return nil, err
			}
			topo.Events[name] = ev
		}
	}

	if len(spec.Routes) > 0 {
		topo.Routes = map[string]*Route{}
		for name, rspec := range spec.Routes {
			topo.Routes[name] = c.buildRoute(rspec, spec)
		}
	}

	if spec.Mutations != nil {
		topo.Mutation = c.buildMutation(spec.Mutations, spec)
	}

	if len(spec.Queues) > 0 {
		topo.Queues = map[string]*Queue{}
		for name, qspec := range spec.Queues {
			topo.Queues[name] = buildQueue(qspec, name)
		}
	}

	if len(spec.Channels) > 0 {
		topo.Channels = map[string]*Channel{}
		for name, chspec := range spec.Channels {
			topo.Channels[name] = buildChannel(chspec, name)
		}
	}

	if len(spec.Schedules) > 0 {
		topo.Schedules = map[string]*Schedule{}
		for name, sspec := range spec.Schedules {
			topo.Schedules[name] = buildSchedule(sspec, name)
		}
	}

	if len(spec.Pages) > 0 {
		topo.Pages = map[string]*Page{}
		for name, pspec := range spec.Pages {
			topo.Pages[name] = buildPage(pspec, name, spec.Name)
		}
	}

	if len(spec.Children) > 0 {
		topo.Children = map[string]*Topology{}
		for name, child := range spec.Children {
			childTopo, err := c.Compose(child)
			if err != nil {
				return nil, err
			}
			topo.Children[name] = childTopo
		}
	}

	if topo.Transducer != nil {
		c.finalizeTransducer(topo, spec.Name, spec.Dir)
	}

	return topo, nil
}

// RoleFunction names the aggregation key a function's role is stored
// under in Topology.Roles.
func RoleFunction(fnName string) string { return "function:" + fnName }

func ensureTransducer(topo *Topology) *Transducer {
	if topo.Transducer == nil {
		topo.Transducer = &Transducer{Targets: map[string]TransducerTargets{}}
	}
	return topo.Transducer
}

func transducerTargetsFor(targets []Target) TransducerTargets {
	var tt TransducerTargets
	for _, t := range targets {
		switch t.Entity {
		case TargetState:
			tt.Event = t.ID
		case TargetMutation:
			tt.Mutation = t.ID
		case TargetFunction:
			tt.Function = t.ID
		case TargetChannel:
			tt.Channel = t.ID
		}
	}
	return tt
}

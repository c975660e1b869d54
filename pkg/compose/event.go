package compose

import (
	"strings"

	"github.com/tc-functors/tc/pkg/topology"
)

// buildEvent implements spec.md §4.3's Event builder.
func (c *Composer) buildEvent(spec *topology.EventSpec, name string, parent *topology.TopologySpec) (*Event, error) {
	ruleName := spec.Name
	if ruleName == "" {
		ruleName = c.RulePrefix + parent.Name + "-" + name + "-{{sandbox}}"
	}

	source := eventSource(spec.Producer)

	ev := &Event{
		Name:     name,
		RuleName: ruleName,
		Bus:      "default",
		Sandboxes: spec.Sandboxes,
		Skip:     spec.Skip,
		Pattern: EventPattern{
			DetailType: detailTypes(spec),
			Source:     []string{source},
			Detail:     spec.Detail,
		},
	}
	if c.Auth != nil {
		ev.BusARN = c.Auth.EventBusARN(ev.Bus)
	}

	ev.Targets = c.eventTargets(spec, name, parent)
	if len(ev.Targets) == 0 {
		ev.Targets = []Target{c.defaultStateMachineTarget(parent)}
	}
	return ev, nil
}

func eventSource(producer any) string {
	var raw string
	switch v := producer.(type) {
	case string:
		raw = v
	case []string:
		if len(v) > 0 {
			raw = v[0]
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				raw = s
			}
		}
	}
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, "/", 2)
	return parts[0]
}

func detailTypes(spec *topology.EventSpec) []string {
	if spec.DetailType != "" {
		return []string{spec.DetailType}
	}
	return []string{spec.Name}
}

func (c *Composer) eventTargets(spec *topology.EventSpec, eventName string, parent *topology.TopologySpec) []Target {
	var targets []Target
	roleARN := c.eventRoleARN()

	addFunctionTarget := func(fnName string) {
		if fn, ok := parent.Functions[fnName]; ok {
			arn := ""
			if c.Auth != nil {
				arn = c.Auth.FunctionARN(fn.FQN)
			}
			targets = append(targets, c.abbreviateTarget(Target{
				Entity: TargetFunction, ID: "fn-" + fnName, ARN: arn, RoleARN: roleARN,
			}))
		}
	}

	if spec.Function != "" {
		addFunctionTarget(spec.Function)
	}
	for _, fn := range spec.Functions {
		addFunctionTarget(fn)
	}
	if spec.Mutation != "" {
		targets = append(targets, c.abbreviateTarget(Target{
			Entity:        TargetMutation,
			ID:            "mut-" + spec.Mutation,
			RoleARN:       roleARN,
			InputPathsMap: map[string]string{"detail": "$.detail"},
			InputTemplate: map[string]any{"detail": spec.Detail},
		}))
	}
	stateRef := spec.StepFunction
	if stateRef == "" {
		stateRef = spec.State
	}
	if stateRef != "" {
		arn := ""
		if c.Auth != nil {
			arn = c.Auth.StateMachineARN(parent.FQN)
		}
		targets = append(targets, c.abbreviateTarget(Target{
			Entity: TargetState, ID: "sfn-" + stateRef, ARN: arn, RoleARN: roleARN,
		}))
	}
	if spec.Channel != "" {
		targets = append(targets, c.abbreviateTarget(Target{
			Entity: TargetChannel, ID: "ch-" + spec.Channel, RoleARN: roleARN,
		}))
	}
	return targets
}

func (c *Composer) eventRoleARN() string {
	if c.Auth == nil || c.EventRoleName == "" {
		return ""
	}
	return c.Auth.RoleARN(c.EventRoleName)
}

// defaultStateMachineTarget is synthesized when an event declares no
// explicit target, pointing at the enclosing topology's own state
// machine (spec.md §4.3).
func (c *Composer) defaultStateMachineTarget(parent *topology.TopologySpec) Target {
	arn := ""
	if c.Auth != nil {
		arn = c.Auth.StateMachineARN(parent.FQN)
	}
	return Target{Entity: TargetState, ID: "sfn-" + parent.Name, ARN: arn, RoleARN: c.eventRoleARN()}
}

// abbreviateTarget implements spec.md §8 scenario/invariant: target ids
// >= 64 chars are abbreviated "<entity>-<abbrev>", at most 64 chars in all.
func (c *Composer) abbreviateTarget(t Target) Target {
	if len(t.ID) < 64 {
		return t
	}
	prefix := strings.ToLower(string(t.Entity)) + "-"
	t.ID = prefix + topology.Abbreviate(t.ID, 64-len(prefix))
	return t
}

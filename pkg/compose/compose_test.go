package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tc-functors/tc/pkg/authctx"
	"github.com/tc-functors/tc/pkg/topology"
)

func testAuth() *authctx.AuthContext {
	return &authctx.AuthContext{Region: "us-east-1", Account: "123456789012", Partition: "aws"}
}

// scenario 3, spec.md §8: an event with producer "svc/topic" and a
// function target "worker" composes to one Function target with the
// expected arn, role arn, and event pattern.
func TestBuildEventComposesFunctionTarget(t *testing.T) {
	c := New(testAuth(), "", "1")
	parent := &topology.TopologySpec{
		Name: "svc",
		FQN:  "svc_{{sandbox}}",
		Functions: map[string]*topology.FunctionSpec{
			"worker": {Name: "worker", FQN: "svc_worker_{{sandbox}}"},
		},
	}
	espec := &topology.EventSpec{Producer: "svc/topic", Function: "worker", Name: "order-placed"}

	ev, err := c.buildEvent(espec, "order-placed", parent)
	require.NoError(t, err)

	require.Len(t, ev.Targets, 1)
	target := ev.Targets[0]
	assert.Equal(t, TargetFunction, target.Entity)
	assert.Equal(t, "arn:aws:lambda:us-east-1:123456789012:function:svc_worker_{{sandbox}}", target.ARN)
	assert.Equal(t, "arn:aws:iam::123456789012:role/tc-event-role", target.RoleARN)
	assert.Equal(t, []string{"order-placed"}, ev.Pattern.DetailType)
	assert.Equal(t, []string{"svc"}, ev.Pattern.Source)
}

func TestBuildEventSynthesizesDefaultStateMachineTarget(t *testing.T) {
	c := New(testAuth(), "", "1")
	parent := &topology.TopologySpec{Name: "svc", FQN: "svc_{{sandbox}}"}
	espec := &topology.EventSpec{Producer: "svc/topic", Name: "tick"}

	ev, err := c.buildEvent(espec, "tick", parent)
	require.NoError(t, err)
	require.Len(t, ev.Targets, 1)
	assert.Equal(t, TargetState, ev.Targets[0].Entity)
}

func TestComposeBuildsTransducerWhenFunctionDeclaresTargets(t *testing.T) {
	c := New(testAuth(), "", "1")
	spec := &topology.TopologySpec{
		Name: "svc",
		FQN:  "svc_{{sandbox}}",
		Functions: map[string]*topology.FunctionSpec{
			"worker": {
				Name: "worker",
				FQN:  "svc_worker_{{sandbox}}",
				Runtime: &topology.RuntimeSpec{Lang: topology.LangPython310, PackageType: topology.PackageZip},
				Targets: []topology.TargetRef{{Function: "downstream"}},
			},
		},
	}
	topo, err := c.Compose(spec)
	require.NoError(t, err)
	require.NotNil(t, topo.Transducer)
	require.NotNil(t, topo.Transducer.Function)
	assert.Equal(t, topology.LangPython311, topo.Transducer.Function.Runtime.Lang)
}

func TestAbbreviateTargetShortensLongIDs(t *testing.T) {
	c := New(testAuth(), "", "1")
	long := Target{Entity: TargetFunction, ID: "fn-" + string(make([]byte, 70))}
	out := c.abbreviateTarget(long)
	assert.Less(t, len(out.ID), 70)
}

// spec.md §4.3/§4.5: the transducer's job is to fan an upstream
// function's output out to each configured downstream target, not to
// silently drop it. Every kind the composer can put in a manifest
// (event/function/mutation/channel) must have a real dispatch path in
// the embedded handler.
func TestTransducerHandlerSourceDispatchesEveryTargetKind(t *testing.T) {
	src := TransducerHandlerSource()

	assert.NotContains(t, src, "\ndef dispatch(kind, name, event):\n    pass\n",
		"dispatch must not be an unconditional no-op")

	assert.Contains(t, src, `kind == "event"`)
	assert.Contains(t, src, "_events.put_events(")
	assert.Contains(t, src, `kind == "function"`)
	assert.Contains(t, src, "_lambda.invoke(")
	assert.Contains(t, src, `kind == "mutation"`)
	assert.Contains(t, src, "_post_graphql(")
	assert.Contains(t, src, `kind == "channel"`)
	assert.Contains(t, src, "_post_channel(")
}

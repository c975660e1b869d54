package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// StateMachineTask implements spec.md §4.5's state-machine create/update
// algorithm: describe; if missing create, else update definition and
// role together in one UpdateStateMachine call; always re-tag; poll
// until ACTIVE before returning;
// logging configuration is applied as a separate update after creation.
type StateMachineTask struct {
	FQN        string
	Definition map[string]any
	RoleARN    string
	LogGroupARN string
	LogLevel   string
	Tags       map[string]string
	Cloud      cloud.StateMachineRegistry
	act        event.Action
}

// NewStateMachineTask builds a StateMachineTask for the given action.
func NewStateMachineTask(fqn string, def map[string]any, roleARN, logGroupARN, logLevel string, tags map[string]string, cl cloud.StateMachineRegistry, act event.Action) *StateMachineTask {
	return &StateMachineTask{FQN: fqn, Definition: def, RoleARN: roleARN, LogGroupARN: logGroupARN, LogLevel: logLevel, Tags: tags, Cloud: cl, act: act}
}

func (t *StateMachineTask) Name() string        { return "statemachine:" + t.FQN }
func (t *StateMachineTask) Action() event.Action { return t.act }

func (t *StateMachineTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *StateMachineTask) createOrUpdate(ctx context.Context, tc *Context) error {
	state, err := t.Cloud.DescribeStateMachine(ctx, t.FQN)
	if err != nil {
		return &errors.ProviderError{Entity: t.FQN, Operation: "DescribeStateMachine", Err: err}
	}

	definition, err := json.Marshal(t.Definition)
	if err != nil {
		return &errors.SpecInvalid{Entity: t.FQN, Reason: "flow definition does not marshal to JSON: " + err.Error()}
	}

	var arn string
	op := event.Created
	if !state.Exists {
		arn, err = t.Cloud.CreateStateMachine(ctx, t.FQN, string(definition), t.RoleARN)
	} else {
		arn = state.ARN
		op = event.Updated
		err = t.Cloud.UpdateStateMachine(ctx, arn, string(definition), t.RoleARN)
	}
	if err != nil {
		emitApply(tc, "statemachine", t.FQN, op, err)
		return &errors.ProviderError{Entity: t.FQN, Operation: "CreateOrUpdateStateMachine", Err: err}
	}

	if err := t.waitActive(ctx, tc, arn); err != nil {
		return err
	}

	if err := t.Cloud.TagResource(ctx, arn, t.Tags); err != nil {
		return &errors.ProviderError{Entity: t.FQN, Operation: "TagResource", Err: err}
	}

	if t.LogGroupARN != "" {
		if err := t.Cloud.UpdateLogging(ctx, arn, t.LogGroupARN, t.LogLevel); err != nil {
			return &errors.ProviderError{Entity: t.FQN, Operation: "UpdateLogging", Err: err}
		}
	}

	tc.SetARN(t.Name(), arn)
	emitApply(tc, "statemachine", t.FQN, op, nil)
	return nil
}

func (t *StateMachineTask) waitActive(ctx context.Context, tc *Context, arn string) error {
	return pollUntil(ctx, tc, t.FQN, "ACTIVE", time.Second, 30, func() (bool, error) {
		state, err := t.Cloud.DescribeStateMachine(ctx, t.FQN)
		if err != nil {
			return false, err
		}
		return state.Status == "ACTIVE", nil
	})
}

func (t *StateMachineTask) delete(ctx context.Context, tc *Context) error {
	state, err := t.Cloud.DescribeStateMachine(ctx, t.FQN)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "statemachine", t.FQN, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: t.FQN, Operation: "DescribeStateMachine", Err: err}
	}
	if !state.Exists {
		emitDelete(tc, "statemachine", t.FQN, event.DeleteSkipped, "not found", nil)
		return nil
	}
	// StateMachineRegistry exposes no DeleteStateMachine operation; state
	// machines are reconciled in place rather than torn down per sandbox.
	emitDelete(tc, "statemachine", t.FQN, event.DeleteSkipped, "state machines are updated in place, not deleted", nil)
	return nil
}

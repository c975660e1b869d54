package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// FunctionTask implements spec.md §4.5's function create/update/delete
// algorithm: describe, create-or-(delete-then-create on package-type
// change)-or-(update code + update config), publish a version when
// SnapStart is set, and point the event-invoke destination at the
// transducer when the function declares targets.
type FunctionTask struct {
	Function      *compose.Function
	Cloud         cloud.FunctionRegistry
	TransducerARN string
	act           event.Action
}

// NewFunctionTask builds a FunctionTask for the given action.
func NewFunctionTask(fn *compose.Function, cl cloud.FunctionRegistry, transducerARN string, act event.Action) *FunctionTask {
	return &FunctionTask{Function: fn, Cloud: cl, TransducerARN: transducerARN, act: act}
}

func (t *FunctionTask) Name() string        { return "function:" + t.Function.FQN }
func (t *FunctionTask) Action() event.Action { return t.act }

func (t *FunctionTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *FunctionTask) createOrUpdate(ctx context.Context, tc *Context) error {
	fn := t.Function
	state, err := t.Cloud.DescribeFunction(ctx, fn.FQN)
	if err != nil {
		emitApply(tc, "functions", fn.FQN, event.Unchanged, err)
		return &errors.ProviderError{Entity: fn.FQN, Operation: "DescribeFunction", Err: err}
	}

	input := t.buildInput()
	op := event.Created
	switch {
	case !state.Exists:
		err = t.Cloud.CreateFunction(ctx, input)
	case state.PackageType != string(fn.Runtime.PackageType):
		op = event.Updated
		if err = t.Cloud.DeleteFunction(ctx, fn.FQN); err == nil {
			err = t.Cloud.CreateFunction(ctx, input)
		}
	default:
		op = event.Updated
		if err = t.Cloud.UpdateFunctionCode(ctx, input); err == nil {
			err = t.Cloud.UpdateFunctionConfig(ctx, input)
		}
	}
	if err != nil {
		emitApply(tc, "functions", fn.FQN, op, err)
		return &errors.ProviderError{Entity: fn.FQN, Operation: "CreateOrUpdateFunction", Err: err}
	}

	if fn.Runtime.SnapStart {
		if _, err := t.Cloud.PublishVersion(ctx, fn.FQN); err != nil {
			emitApply(tc, "functions", fn.FQN, op, err)
			return &errors.ProviderError{Entity: fn.FQN, Operation: "PublishVersion", Err: err}
		}
	}

	if len(fn.Targets) > 0 && t.TransducerARN != "" {
		if err := t.Cloud.UpdateEventInvokeConfig(ctx, fn.FQN, t.TransducerARN); err != nil {
			emitApply(tc, "functions", fn.FQN, op, err)
			return &errors.ProviderError{Entity: fn.FQN, Operation: "UpdateEventInvokeConfig", Err: err}
		}
	}

	tc.SetARN(t.Name(), fn.ARN)
	emitApply(tc, "functions", fn.FQN, op, nil)
	return nil
}

func (t *FunctionTask) delete(ctx context.Context, tc *Context) error {
	fn := t.Function
	state, err := t.Cloud.DescribeFunction(ctx, fn.FQN)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "functions", fn.FQN, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: fn.FQN, Operation: "DescribeFunction", Err: err}
	}
	if !state.Exists {
		emitDelete(tc, "functions", fn.FQN, event.DeleteSkipped, "not found", nil)
		return nil
	}
	if err := t.Cloud.DeleteFunction(ctx, fn.FQN); err != nil && !errors.IsNotFound(err) {
		emitDelete(tc, "functions", fn.FQN, event.DeleteUnspecified, "", err)
		return &errors.ProviderError{Entity: fn.FQN, Operation: "DeleteFunction", Err: err}
	}
	emitDelete(tc, "functions", fn.FQN, event.Deleted, "", nil)
	return nil
}

func (t *FunctionTask) buildInput() cloud.FunctionInput {
	fn := t.Function
	rt := fn.Runtime
	in := cloud.FunctionInput{
		FQN:         fn.FQN,
		Handler:     rt.Handler,
		PackageType: string(rt.PackageType),
		CodeURI:     rt.URI,
		Runtime:     string(rt.Lang),
		MemorySize:  rt.MemorySize,
		Timeout:     rt.Timeout,
		Environment: rt.Environment,
		Layers:      rt.Layers,
		SnapStart:   rt.SnapStart,
	}
	if fn.Role != nil {
		in.RoleARN = fn.Role.ARN
	}
	if fn.Infra != nil {
		if fn.Infra.Network != nil {
			in.VPCSubnets = fn.Infra.Network.Subnets
			in.VPCSGs = fn.Infra.Network.SecurityGroups
		}
		if fn.Infra.Filesystem != nil {
			in.FSArn = fn.Infra.Filesystem.ARN
			in.FSMount = fn.Infra.Filesystem.MountPoint
		}
		in.Tags = fn.Infra.Tags
	}
	return in
}

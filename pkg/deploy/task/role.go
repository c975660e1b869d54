package task

import (
	"context"
	"time"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
	"github.com/tc-functors/tc/pkg/topology"
)

// RoleARNKey is the Context key a RoleTask publishes its resolved ARN
// under, looked up by FunctionTask/StateMachineTask/MutationTask.
func RoleARNKey(roleName string) string { return "role:" + roleName }

// RoleTask implements spec.md §4.5's role create/update/delete
// pipeline: find-or-create policy, poll attachable, find-or-create
// role, attach, poll attached, settle; update detaches and re-creates
// the policy in place rather than touching the role.
type RoleTask struct {
	Role   *compose.Role
	Cloud  cloud.RoleRegistry
	act    event.Action
}

// NewRoleTask builds a RoleTask for the given action.
func NewRoleTask(role *compose.Role, cl cloud.RoleRegistry, act event.Action) *RoleTask {
	return &RoleTask{Role: role, Cloud: cl, act: act}
}

func (t *RoleTask) Name() string        { return RoleARNKey(t.Role.Name) }
func (t *RoleTask) Action() event.Action { return t.act }

func (t *RoleTask) Run(ctx context.Context, tc *Context) error {
	if t.Role.Kind == topology.RoleProvided {
		tc.SetARN(t.Name(), t.Role.ARN)
		emitApply(tc, "roles", t.Role.Name, event.Unchanged, nil)
		return nil
	}
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *RoleTask) createOrUpdate(ctx context.Context, tc *Context) error {
	state, err := t.Cloud.DescribeRole(ctx, t.Role.Name)
	if err != nil {
		return &errors.ProviderError{Entity: t.Role.Name, Operation: "DescribeRole", Err: err}
	}

	var arn string
	op := event.Created
	if !state.Exists {
		arn, err = t.create(ctx, tc)
	} else {
		arn = state.ARN
		op = event.Updated
		err = t.update(ctx, tc)
	}
	if err != nil {
		emitApply(tc, "roles", t.Role.Name, op, err)
		return err
	}

	t.Role.ARN = arn
	tc.SetARN(t.Name(), arn)
	emitApply(tc, "roles", t.Role.Name, op, nil)
	return nil
}

func (t *RoleTask) create(ctx context.Context, tc *Context) (string, error) {
	policyARN, err := t.ensurePolicy(ctx)
	if err != nil {
		return "", err
	}
	if err := t.waitPolicyAttachable(ctx, tc); err != nil {
		return "", err
	}
	roleARN, err := t.Cloud.CreateRole(ctx, t.Role.Name, t.Role.TrustPolicy)
	if err != nil {
		return "", err
	}
	if err := t.Cloud.AttachPolicy(ctx, t.Role.Name, policyARN); err != nil {
		return "", err
	}
	if err := t.waitRoleAttached(ctx, tc); err != nil {
		return "", err
	}
	tc.sleep(4 * time.Second)
	return roleARN, nil
}

func (t *RoleTask) update(ctx context.Context, tc *Context) error {
	policyState, err := t.Cloud.DescribePolicy(ctx, t.Role.PolicyName)
	if err != nil {
		return err
	}
	if policyState.Exists {
		if err := t.Cloud.DetachPolicy(ctx, t.Role.Name, policyState.ARN); err != nil {
			return err
		}
		if err := t.waitRoleDetached(ctx, tc); err != nil {
			return err
		}
		if err := t.Cloud.DeletePolicy(ctx, policyState.ARN); err != nil {
			return err
		}
	}
	tc.sleep(2 * time.Second)
	newARN, err := t.Cloud.CreatePolicy(ctx, t.Role.PolicyName, t.Role.PolicyDoc)
	if err != nil {
		return err
	}
	if err := t.Cloud.AttachPolicy(ctx, t.Role.Name, newARN); err != nil {
		return err
	}
	return t.waitRoleAttached(ctx, tc)
}

// delete is best-effort: it detaches and deletes the managed policy
// but leaves the role itself in place, since RoleRegistry has no
// DeleteRole operation — roles outlive a single sandbox's lifecycle.
func (t *RoleTask) delete(ctx context.Context, tc *Context) error {
	state, err := t.Cloud.DescribeRole(ctx, t.Role.Name)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "roles", t.Role.Name, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: t.Role.Name, Operation: "DescribeRole", Err: err}
	}
	if !state.Exists {
		emitDelete(tc, "roles", t.Role.Name, event.DeleteSkipped, "not found", nil)
		return nil
	}
	policyState, err := t.Cloud.DescribePolicy(ctx, t.Role.PolicyName)
	if err == nil && policyState.Exists {
		_ = t.Cloud.DetachPolicy(ctx, t.Role.Name, policyState.ARN)
		_ = t.Cloud.DeletePolicy(ctx, policyState.ARN)
	}
	emitDelete(tc, "roles", t.Role.Name, event.Deleted, "", nil)
	return nil
}

func (t *RoleTask) ensurePolicy(ctx context.Context) (string, error) {
	state, err := t.Cloud.DescribePolicy(ctx, t.Role.PolicyName)
	if err != nil {
		return "", err
	}
	if state.Exists {
		return state.ARN, nil
	}
	return t.Cloud.CreatePolicy(ctx, t.Role.PolicyName, t.Role.PolicyDoc)
}

func (t *RoleTask) waitPolicyAttachable(ctx context.Context, tc *Context) error {
	return pollUntil(ctx, tc, t.Role.PolicyName, "attachable", time.Second, 10, func() (bool, error) {
		state, err := t.Cloud.DescribePolicy(ctx, t.Role.PolicyName)
		if err != nil {
			return false, err
		}
		return state.Attachable, nil
	})
}

func (t *RoleTask) waitRoleAttached(ctx context.Context, tc *Context) error {
	return pollUntil(ctx, tc, t.Role.Name, "attached", 2*time.Second, 10, func() (bool, error) {
		state, err := t.Cloud.DescribeRole(ctx, t.Role.Name)
		if err != nil {
			return false, err
		}
		return state.AttachmentCount > 0, nil
	})
}

func (t *RoleTask) waitRoleDetached(ctx context.Context, tc *Context) error {
	return pollUntil(ctx, tc, t.Role.Name, "detached", 2*time.Second, 10, func() (bool, error) {
		state, err := t.Cloud.DescribeRole(ctx, t.Role.Name)
		if err != nil {
			return false, err
		}
		return state.AttachmentCount == 0, nil
	})
}

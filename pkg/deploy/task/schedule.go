package task

import (
	"encoding/json"
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// ScheduleTask implements a Schedule's 1:1 build (spec.md §4.3) as an
// EventBridge cron rule: put_rule with a schedule expression instead of
// an event pattern, then a single target pointing at TargetARN. The
// schedule's payload is not attached to the target.
type ScheduleTask struct {
	Schedule    *compose.Schedule
	RuleName    string
	TargetARN   string
	Cloud       cloud.EventRegistry
	act         event.Action
}

// NewScheduleTask builds a ScheduleTask for the given action.
func NewScheduleTask(s *compose.Schedule, ruleName, targetARN string, cl cloud.EventRegistry, act event.Action) *ScheduleTask {
	return &ScheduleTask{Schedule: s, RuleName: ruleName, TargetARN: targetARN, Cloud: cl, act: act}
}

func (t *ScheduleTask) Name() string        { return "schedule:" + t.RuleName }
func (t *ScheduleTask) Action() event.Action { return t.act }

func (t *ScheduleTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *ScheduleTask) createOrUpdate(ctx context.Context, tc *Context) error {
	arn, err := t.Cloud.PutRule(ctx, t.RuleName, "rate-or-cron:"+t.Schedule.Cron)
	if err != nil {
		emitApply(tc, "schedules", t.RuleName, event.Updated, err)
		return &errors.ProviderError{Entity: t.RuleName, Operation: "PutRule", Err: err}
	}
	if t.TargetARN != "" {
		if err := t.Cloud.PutTargets(ctx, t.RuleName, map[string]string{"schedule-target": t.TargetARN}); err != nil {
			emitApply(tc, "schedules", t.RuleName, event.Updated, err)
			return &errors.ProviderError{Entity: t.RuleName, Operation: "PutTargets", Err: err}
		}
	}
	tc.SetARN(t.Name(), arn)
	emitApply(tc, "schedules", t.RuleName, event.Updated, nil)
	return nil
}

func (t *ScheduleTask) delete(ctx context.Context, tc *Context) error {
	ids, err := t.Cloud.ListTargetIDs(ctx, t.RuleName)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "schedules", t.RuleName, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: t.RuleName, Operation: "ListTargetIDs", Err: err}
	}
	if len(ids) > 0 {
		if err := t.Cloud.RemoveTargets(ctx, t.RuleName, ids); err != nil {
			return &errors.ProviderError{Entity: t.RuleName, Operation: "RemoveTargets", Err: err}
		}
	}
	if err := t.Cloud.DeleteRule(ctx, t.RuleName); err != nil && !errors.IsNotFound(err) {
		return &errors.ProviderError{Entity: t.RuleName, Operation: "DeleteRule", Err: err}
	}
	emitDelete(tc, "schedules", t.RuleName, event.Deleted, "", nil)
	return nil
}

// payloadJSON renders a Schedule's payload as JSON. It has no callers;
// createOrUpdate does not pass the payload to PutTargets.
func payloadJSON(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	data, err := json.Marshal(payload)
	return string(data), err
}

package task

import (
	"context"
	"encoding/json"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// EventTask implements spec.md §4.5's event create/update/delete
// algorithm: put_rule with the event pattern, then put_targets; on
// delete, enumerate targets, remove_targets, then delete_rule.
type EventTask struct {
	Event *compose.Event
	Cloud cloud.EventRegistry
	act   event.Action
}

// NewEventTask builds an EventTask for the given action.
func NewEventTask(ev *compose.Event, cl cloud.EventRegistry, act event.Action) *EventTask {
	return &EventTask{Event: ev, Cloud: cl, act: act}
}

func (t *EventTask) Name() string        { return "event:" + t.Event.RuleName }
func (t *EventTask) Action() event.Action { return t.act }

func (t *EventTask) Run(ctx context.Context, tc *Context) error {
	if t.Event.Skip {
		emitApply(tc, "events", t.Event.RuleName, event.Unchanged, nil)
		return nil
	}
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *EventTask) createOrUpdate(ctx context.Context, tc *Context) error {
	pattern, err := json.Marshal(map[string]any{
		"detail-type": t.Event.Pattern.DetailType,
		"source":      t.Event.Pattern.Source,
		"detail":      t.Event.Pattern.Detail,
	})
	if err != nil {
		return &errors.SpecInvalid{Entity: t.Event.RuleName, Reason: "event pattern does not marshal to JSON: " + err.Error()}
	}

	arn, err := t.Cloud.PutRule(ctx, t.Event.RuleName, string(pattern))
	if err != nil {
		emitApply(tc, "events", t.Event.RuleName, event.Updated, err)
		return &errors.ProviderError{Entity: t.Event.RuleName, Operation: "PutRule", Err: err}
	}

	targetARNs := map[string]string{}
	for _, tgt := range t.Event.Targets {
		targetARNs[tgt.ID] = tgt.ARN
	}
	if len(targetARNs) > 0 {
		if err := t.Cloud.PutTargets(ctx, t.Event.RuleName, targetARNs); err != nil {
			emitApply(tc, "events", t.Event.RuleName, event.Updated, err)
			return &errors.ProviderError{Entity: t.Event.RuleName, Operation: "PutTargets", Err: err}
		}
	}

	tc.SetARN(t.Name(), arn)
	emitApply(tc, "events", t.Event.RuleName, event.Updated, nil)
	return nil
}

func (t *EventTask) delete(ctx context.Context, tc *Context) error {
	ids, err := t.Cloud.ListTargetIDs(ctx, t.Event.RuleName)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "events", t.Event.RuleName, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: t.Event.RuleName, Operation: "ListTargetIDs", Err: err}
	}
	if len(ids) > 0 {
		if err := t.Cloud.RemoveTargets(ctx, t.Event.RuleName, ids); err != nil {
			return &errors.ProviderError{Entity: t.Event.RuleName, Operation: "RemoveTargets", Err: err}
		}
	}
	if err := t.Cloud.DeleteRule(ctx, t.Event.RuleName); err != nil && !errors.IsNotFound(err) {
		emitDelete(tc, "events", t.Event.RuleName, event.DeleteUnspecified, "", err)
		return &errors.ProviderError{Entity: t.Event.RuleName, Operation: "DeleteRule", Err: err}
	}
	emitDelete(tc, "events", t.Event.RuleName, event.Deleted, "", nil)
	return nil
}

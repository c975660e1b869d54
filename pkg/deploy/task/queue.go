package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// QueueTask implements a Queue's 1:1 build (spec.md §4.3): describe by
// name, create if absent, delete is idempotent.
type QueueTask struct {
	Queue *compose.Queue
	Cloud cloud.QueueRegistry
	act   event.Action
}

// NewQueueTask builds a QueueTask for the given action.
func NewQueueTask(q *compose.Queue, cl cloud.QueueRegistry, act event.Action) *QueueTask {
	return &QueueTask{Queue: q, Cloud: cl, act: act}
}

func (t *QueueTask) Name() string        { return "queue:" + t.Queue.Name }
func (t *QueueTask) Action() event.Action { return t.act }

func (t *QueueTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *QueueTask) createOrUpdate(ctx context.Context, tc *Context) error {
	_, exists, err := t.Cloud.DescribeQueue(ctx, t.Queue.Name)
	if err != nil {
		return &errors.ProviderError{Entity: t.Queue.Name, Operation: "DescribeQueue", Err: err}
	}
	op := event.Unchanged
	url := ""
	if !exists {
		url, err = t.Cloud.CreateQueue(ctx, t.Queue.Name, t.Queue.VisibilityTimeout)
		op = event.Created
		if err != nil {
			emitApply(tc, "queues", t.Queue.Name, op, err)
			return &errors.ProviderError{Entity: t.Queue.Name, Operation: "CreateQueue", Err: err}
		}
	} else {
		url, _, _ = t.Cloud.DescribeQueue(ctx, t.Queue.Name)
	}
	tc.SetARN(t.Name(), url)
	emitApply(tc, "queues", t.Queue.Name, op, nil)
	return nil
}

func (t *QueueTask) delete(ctx context.Context, tc *Context) error {
	url, exists, err := t.Cloud.DescribeQueue(ctx, t.Queue.Name)
	if err != nil {
		if errors.IsNotFound(err) {
			emitDelete(tc, "queues", t.Queue.Name, event.DeleteSkipped, "not found", nil)
			return nil
		}
		return &errors.ProviderError{Entity: t.Queue.Name, Operation: "DescribeQueue", Err: err}
	}
	if !exists {
		emitDelete(tc, "queues", t.Queue.Name, event.DeleteSkipped, "not found", nil)
		return nil
	}
	if err := t.Cloud.DeleteQueue(ctx, url); err != nil && !errors.IsNotFound(err) {
		return &errors.ProviderError{Entity: t.Queue.Name, Operation: "DeleteQueue", Err: err}
	}
	emitDelete(tc, "queues", t.Queue.Name, event.Deleted, "", nil)
	return nil
}

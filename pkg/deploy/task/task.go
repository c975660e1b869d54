// Package task implements the per-entity deploy steps (spec.md §4.5):
// one Task type per entity kind (Role, Function, StateMachine, Mutation,
// Queue, Channel, Event, Route, Schedule, Page, Transducer), each a
// thin wrapper around the matching pkg/cloud registry.
//
// Grounded on the teacher's pkg/apply/taskrunner.Task interface shape
// (Name/Action/Run), generalized from Kubernetes ObjMetadata-based
// resources to tc's own entity kinds. Unlike the teacher, tc has no
// live status watcher to poll arbitrary resources, so wait conditions
// here are synchronous: a Task blocks and polls its own cloud registry
// on a fixed interval (spec.md §4.5's literal 1s/2s/4s sleeps) instead
// of the teacher's channel-fed taskStatusRunner.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// Task is one unit of deploy work against a single entity.
type Task interface {
	Name() string
	Action() event.Action
	Run(ctx context.Context, tc *Context) error
}

// Context carries the event sink and the ARNs tasks hand off to their
// dependents (a function task needs its role's ARN; the transducer
// task needs every upstream function's ARN), mirroring the teacher's
// TaskContext without the Kubernetes-specific RESTMapper/graph plumbing.
type Context struct {
	Events chan<- event.Event
	Sleep  func(time.Duration)

	mu   sync.Mutex
	arns map[string]string
}

// NewContext builds a Context; a nil events channel is valid (events
// are simply dropped), matching the teacher's allowance for a no-op
// EventChannel in tests.
func NewContext(events chan<- event.Event) *Context {
	return &Context{Events: events, Sleep: time.Sleep, arns: map[string]string{}}
}

// Emit sends an event if a sink is attached.
func (c *Context) Emit(e event.Event) {
	if c.Events != nil {
		c.Events <- e
	}
}

// SetARN records an entity's resolved ARN/ID for dependent tasks.
func (c *Context) SetARN(key, arn string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arns[key] = arn
}

// ARN looks up a previously recorded ARN/ID.
func (c *Context) ARN(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.arns[key]
	return v, ok
}

func (c *Context) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
	}
}

// pollUntil calls cond on a fixed interval until it returns true, the
// context is cancelled, or attempts run out; it returns a
// *errors.StateTimeout on exhaustion.
func pollUntil(ctx context.Context, tc *Context, entity, condition string, interval time.Duration, attempts int, cond func() (bool, error)) error {
	for i := 0; i < attempts; i++ {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		tc.sleep(interval)
	}
	return &errors.StateTimeout{Entity: entity, Condition: condition}
}

// emitApply is a small helper shared by every create/update task.
func emitApply(tc *Context, group, entity string, op event.ApplyOperation, err error) {
	tc.Emit(event.Event{Type: event.ApplyType, ApplyEvent: event.ApplyEvent{
		GroupName: group, Entity: entity, Operation: op, Error: err,
	}})
}

// emitDelete is a small helper shared by every delete task.
func emitDelete(tc *Context, group, entity string, op event.DeleteOperation, reason string, err error) {
	tc.Emit(event.Event{Type: event.DeleteType, DeleteEvent: event.DeleteEvent{
		GroupName: group, Entity: entity, Operation: op, Reason: reason, Error: err,
	}})
}

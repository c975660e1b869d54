package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// ChannelTask implements a Channel's 1:1 build (spec.md §4.3): ensure
// the API-destination connection, then ensure the destination itself
// pointing at the channel's endpoint.
type ChannelTask struct {
	Channel *compose.Channel
	Cloud   cloud.ChannelRegistry
	act     event.Action
}

// NewChannelTask builds a ChannelTask for the given action.
func NewChannelTask(ch *compose.Channel, cl cloud.ChannelRegistry, act event.Action) *ChannelTask {
	return &ChannelTask{Channel: ch, Cloud: cl, act: act}
}

func (t *ChannelTask) Name() string        { return "channel:" + t.Channel.Name }
func (t *ChannelTask) Action() event.Action { return t.act }

func (t *ChannelTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		return t.delete(ctx, tc)
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *ChannelTask) createOrUpdate(ctx context.Context, tc *Context) error {
	connARN, err := t.Cloud.EnsureConnection(ctx, t.Channel.Name)
	if err != nil {
		emitApply(tc, "channels", t.Channel.Name, event.Updated, err)
		return &errors.ProviderError{Entity: t.Channel.Name, Operation: "EnsureConnection", Err: err}
	}
	destARN, err := t.Cloud.EnsureAPIDestination(ctx, t.Channel.Name, t.Channel.Endpoint, connARN)
	if err != nil {
		emitApply(tc, "channels", t.Channel.Name, event.Updated, err)
		return &errors.ProviderError{Entity: t.Channel.Name, Operation: "EnsureAPIDestination", Err: err}
	}
	tc.SetARN(t.Name(), destARN)
	emitApply(tc, "channels", t.Channel.Name, event.Updated, nil)
	return nil
}

func (t *ChannelTask) delete(ctx context.Context, tc *Context) error {
	if err := t.Cloud.DeleteAPIDestination(ctx, t.Channel.Name); err != nil && !errors.IsNotFound(err) {
		return &errors.ProviderError{Entity: t.Channel.Name, Operation: "DeleteAPIDestination", Err: err}
	}
	emitDelete(tc, "channels", t.Channel.Name, event.Deleted, "", nil)
	return nil
}

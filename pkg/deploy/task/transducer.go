package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/build"
	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// TransducerTask implements spec.md §4.5's Transducer algorithm: render
// manifest.json (and the embedded handler) next to the synthetic
// function's source, then deploy the function exactly like any other
// FunctionTask.
type TransducerTask struct {
	Transducer *compose.Transducer
	fn         *FunctionTask
}

// NewTransducerTask builds a TransducerTask for the given action.
func NewTransducerTask(t *compose.Transducer, cl cloud.FunctionRegistry, act event.Action) *TransducerTask {
	return &TransducerTask{
		Transducer: t,
		fn:         NewFunctionTask(t.Function, cl, "", act),
	}
}

func (t *TransducerTask) Name() string        { return "transducer:" + t.Transducer.Function.FQN }
func (t *TransducerTask) Action() event.Action { return t.fn.Action() }

func (t *TransducerTask) Run(ctx context.Context, tc *Context) error {
	if t.fn.Action() != event.DeleteAction {
		if _, err := build.RenderManifest(t.Transducer); err != nil {
			emitApply(tc, "transducer", t.Name(), event.Updated, err)
			return &errors.SpecInvalid{Entity: t.Name(), Reason: "manifest render failed: " + err.Error()}
		}
	}
	return t.fn.Run(ctx, tc)
}

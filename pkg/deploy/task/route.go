package task

import (
	"context"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
	"github.com/tc-functors/tc/pkg/topology"
)

// RouteTask implements spec.md §4.5's route algorithm: look up or
// create the gateway, optionally create an authorizer, create or
// update an integration for the route's target, create or update the
// route keyed by "<METHOD> <PATH>", then create the stage and
// deployment. Route.CORS is not applied: neither this task nor the
// solver configures CORS on the gateway.
type RouteTask struct {
	Route *compose.Route
	Cloud interface {
		cloud.RouteRegistry
		cloud.PoolRegistry
	}
	FunctionRegistry cloud.FunctionRegistry // held by the task; Run makes no call on it
	act              event.Action
}

// NewRouteTask builds a RouteTask for the given action.
func NewRouteTask(r *compose.Route, cl interface {
	cloud.RouteRegistry
	cloud.PoolRegistry
}, fnReg cloud.FunctionRegistry, act event.Action) *RouteTask {
	return &RouteTask{Route: r, Cloud: cl, FunctionRegistry: fnReg, act: act}
}

func (t *RouteTask) Name() string        { return "route:" + string(t.Route.Method) + " " + t.Route.Path }
func (t *RouteTask) Action() event.Action { return t.act }

func (t *RouteTask) Run(ctx context.Context, tc *Context) error {
	if t.Route.Skip {
		emitApply(tc, "routes", t.Name(), event.Unchanged, nil)
		return nil
	}
	if t.act == event.DeleteAction {
		// Routes have no DeleteRoute in RouteRegistry: the gateway is
		// shared across every route in a topology, so individual routes
		// are reconciled in place rather than torn down.
		emitDelete(tc, "routes", t.Name(), event.DeleteSkipped, "routes are reconciled in place, not deleted", nil)
		return nil
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *RouteTask) createOrUpdate(ctx context.Context, tc *Context) error {
	apiID, err := t.Cloud.EnsureAPI(ctx, t.Route.Gateway)
	if err != nil {
		emitApply(tc, "routes", t.Name(), event.Updated, err)
		return &errors.ProviderError{Entity: t.Name(), Operation: "EnsureAPI", Err: err}
	}

	if t.Route.Authorizer != nil && t.Route.Authorizer.Create {
		if err := t.ensureAuthorizer(ctx, apiID); err != nil {
			emitApply(tc, "routes", t.Name(), event.Updated, err)
			return err
		}
	}

	integrationID, err := t.Cloud.CreateOrUpdateIntegration(ctx, apiID, t.Route.Target.ARN)
	if err != nil {
		emitApply(tc, "routes", t.Name(), event.Updated, err)
		return &errors.ProviderError{Entity: t.Name(), Operation: "CreateOrUpdateIntegration", Err: err}
	}

	routeKey := string(t.Route.Method) + " " + t.Route.Path
	if err := t.Cloud.CreateOrUpdateRoute(ctx, apiID, routeKey, integrationID); err != nil {
		emitApply(tc, "routes", t.Name(), event.Updated, err)
		return &errors.ProviderError{Entity: t.Name(), Operation: "CreateOrUpdateRoute", Err: err}
	}

	stage := t.Route.Stage
	if stage == "" {
		stage = "$default"
	}
	if err := t.Cloud.CreateStageAndDeployment(ctx, apiID, stage); err != nil {
		emitApply(tc, "routes", t.Name(), event.Updated, err)
		return &errors.ProviderError{Entity: t.Name(), Operation: "CreateStageAndDeployment", Err: err}
	}

	tc.SetARN(t.Name(), apiID)
	emitApply(tc, "routes", t.Name(), event.Updated, nil)
	return nil
}

func (t *RouteTask) ensureAuthorizer(ctx context.Context, apiID string) error {
	auth := t.Route.Authorizer
	switch auth.Kind {
	case topology.AuthorizerCognito:
		poolID, err := t.Cloud.EnsureUserPool(ctx, auth.Name)
		if err != nil {
			return &errors.ProviderError{Entity: t.Name(), Operation: "EnsureUserPool", Err: err}
		}
		if _, err := t.Cloud.EnsureUserPoolClient(ctx, poolID, auth.Name); err != nil {
			return &errors.ProviderError{Entity: t.Name(), Operation: "EnsureUserPoolClient", Err: err}
		}
	case topology.AuthorizerLambda:
		// Implicit create: the authorizer resolves to a known function by
		// name (spec.md §4.3). No invoke permission is registered for
		// that function, and nothing further is done here.
	}
	return nil
}

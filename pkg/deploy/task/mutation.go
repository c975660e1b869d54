package task

import (
	"context"
	"encoding/json"

	"github.com/tc-functors/tc/pkg/cloud"
	"github.com/tc-functors/tc/pkg/compose"
	"github.com/tc-functors/tc/pkg/deploy/event"
	"github.com/tc-functors/tc/pkg/errors"
)

// MutationTask implements spec.md §4.5's mutation algorithm: ensure the
// GraphQL API exists (create or update with the given authorizer), for
// each type create-or-update, for each datasource class create-or-
// update, for each resolver field create if absent.
type MutationTask struct {
	APIName     string
	AuthType    string
	Mutation    *compose.Mutation
	DataSources map[string]DataSource // keyed by field name
	Cloud       cloud.GraphQLRegistry
	act         event.Action
}

// DataSource is the per-resolver datasource the solver wires from the
// resolver's target entity (Function -> lambda, Table -> table, Event ->
// http, via a channel).
type DataSource struct {
	Name   string
	Kind   string // AWS_LAMBDA | AMAZON_DYNAMODB | HTTP
	Target string
}

// NewMutationTask builds a MutationTask for the given action.
func NewMutationTask(apiName, authType string, m *compose.Mutation, dataSources map[string]DataSource, cl cloud.GraphQLRegistry, act event.Action) *MutationTask {
	return &MutationTask{APIName: apiName, AuthType: authType, Mutation: m, DataSources: dataSources, Cloud: cl, act: act}
}

func (t *MutationTask) Name() string        { return "mutation:" + t.APIName }
func (t *MutationTask) Action() event.Action { return t.act }

func (t *MutationTask) Run(ctx context.Context, tc *Context) error {
	if t.act == event.DeleteAction {
		emitDelete(tc, "mutations", t.Name(), event.DeleteSkipped, "graphql APIs are reconciled in place, not deleted", nil)
		return nil
	}
	return t.createOrUpdate(ctx, tc)
}

func (t *MutationTask) createOrUpdate(ctx context.Context, tc *Context) error {
	apiID, err := t.Cloud.EnsureGraphQLAPI(ctx, t.APIName, t.AuthType)
	if err != nil {
		emitApply(tc, "mutations", t.Name(), event.Updated, err)
		return &errors.ProviderError{Entity: t.Name(), Operation: "EnsureGraphQLAPI", Err: err}
	}

	for typeName, fields := range t.Mutation.TypesMap {
		schema, err := json.Marshal(fields)
		if err != nil {
			return &errors.SpecInvalid{Entity: typeName, Reason: "graphql type does not marshal to JSON: " + err.Error()}
		}
		if err := t.Cloud.CreateOrUpdateType(ctx, apiID, typeName, string(schema)); err != nil {
			emitApply(tc, "mutations", t.Name(), event.Updated, err)
			return &errors.ProviderError{Entity: typeName, Operation: "CreateOrUpdateType", Err: err}
		}
	}

	for field, resolver := range t.Mutation.Resolvers {
		ds, ok := t.DataSources[field]
		if !ok {
			continue
		}
		if err := t.Cloud.CreateOrUpdateDataSource(ctx, apiID, ds.Name, ds.Kind, ds.Target); err != nil {
			emitApply(tc, "mutations", t.Name(), event.Updated, err)
			return &errors.ProviderError{Entity: field, Operation: "CreateOrUpdateDataSource", Err: err}
		}
		typeName := "Mutation"
		if resolver.Subscribe {
			typeName = "Subscription"
		}
		if err := t.Cloud.CreateResolverIfAbsent(ctx, apiID, typeName, field, ds.Name); err != nil {
			emitApply(tc, "mutations", t.Name(), event.Updated, err)
			return &errors.ProviderError{Entity: field, Operation: "CreateResolverIfAbsent", Err: err}
		}
	}

	tc.SetARN(t.Name(), apiID)
	emitApply(tc, "mutations", t.Name(), event.Updated, nil)
	return nil
}

package cloud

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fake is an in-memory implementation of every cloud interface in this
// package, used by resolver/deployer tests without live AWS credentials.
// Grounded on the teacher's FakeProvider/FakeInventoryClient pattern: a
// single struct backing several interfaces, guarded by one mutex.
type Fake struct {
	mu sync.Mutex

	Parameters map[string]string
	Layers     map[string]string // name -> latest version arn

	Functions map[string]FunctionState
	Policies  map[string]PolicyState
	Roles     map[string]RoleState
	StateMachines map[string]StateMachineState
	Rules     map[string]map[string]string // rule -> targetID -> arn
	Queues    map[string]string            // name -> url

	APIs          map[string]string            // name -> apiId
	Routes        map[string][]string          // apiId -> routeKey
	GraphQLAPIs   map[string]string            // name -> apiId
	DataSources   map[string]string            // apiId/name -> targetARN
	Resolvers     map[string]string            // apiId/type/field -> dataSource
	Repositories  map[string]string            // name -> repo uri
	Buckets       map[string]bool
	BucketObjects map[string][]string // bucket -> keys synced
	Distributions map[string]string   // bucket -> distribution id
	UserPools     map[string]string   // name -> poolId
	PoolClients   map[string]string   // poolId/name -> clientId

	Connections      map[string]string // name -> connectionARN
	APIDestinations  map[string]string // name -> apiDestinationARN
}

var (
	_ ParameterStore       = &Fake{}
	_ LayerRegistry        = &Fake{}
	_ FunctionRegistry     = &Fake{}
	_ RoleRegistry         = &Fake{}
	_ StateMachineRegistry = &Fake{}
	_ EventRegistry        = &Fake{}
	_ QueueRegistry        = &Fake{}
	_ RouteRegistry        = &Fake{}
	_ GraphQLRegistry      = &Fake{}
	_ ImageRegistry        = &Fake{}
	_ SiteRegistry         = &Fake{}
	_ PoolRegistry         = &Fake{}
	_ ChannelRegistry      = &Fake{}
)

// NewFake returns an empty Fake with all maps initialized.
func NewFake() *Fake {
	return &Fake{
		Parameters:    map[string]string{},
		Layers:        map[string]string{},
		Functions:     map[string]FunctionState{},
		Policies:      map[string]PolicyState{},
		Roles:         map[string]RoleState{},
		StateMachines: map[string]StateMachineState{},
		Rules:         map[string]map[string]string{},
		Queues:        map[string]string{},
		APIs:          map[string]string{},
		Routes:        map[string][]string{},
		GraphQLAPIs:   map[string]string{},
		DataSources:   map[string]string{},
		Resolvers:     map[string]string{},
		Repositories:  map[string]string{},
		Buckets:       map[string]bool{},
		BucketObjects: map[string][]string{},
		Distributions: map[string]string{},
		UserPools:     map[string]string{},
		PoolClients:   map[string]string{},
		Connections:     map[string]string{},
		APIDestinations: map[string]string{},
	}
}

func (f *Fake) GetParameter(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Parameters[key]
	if !ok {
		return "", &NotFoundError{Resource: "parameter", Name: key}
	}
	return v, nil
}

func (f *Fake) LatestLayerVersionARN(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Layers[name]
	if !ok {
		return "", &NotFoundError{Resource: "layer", Name: name}
	}
	return v, nil
}

func (f *Fake) DescribeFunction(_ context.Context, fqn string) (FunctionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Functions[fqn], nil
}

func (f *Fake) CreateFunction(_ context.Context, fn FunctionInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Functions[fn.FQN] = FunctionState{Exists: true, PackageType: fn.PackageType, CodeSHA256: fn.CodeURI}
	return nil
}

func (f *Fake) UpdateFunctionCode(_ context.Context, fn FunctionInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.Functions[fn.FQN]
	state.CodeSHA256 = fn.CodeURI
	f.Functions[fn.FQN] = state
	return nil
}

func (f *Fake) UpdateFunctionConfig(_ context.Context, fn FunctionInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.Functions[fn.FQN]
	state.ConfigHash = fmt.Sprintf("%d:%d", fn.MemorySize, fn.Timeout)
	f.Functions[fn.FQN] = state
	return nil
}

func (f *Fake) DeleteFunction(_ context.Context, fqn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Functions, fqn)
	return nil
}

func (f *Fake) PublishVersion(_ context.Context, fqn string) (string, error) {
	return fqn + ":1", nil
}

func (f *Fake) UpdateEventInvokeConfig(_ context.Context, _, _ string) error { return nil }

func (f *Fake) DescribePolicy(_ context.Context, name string) (PolicyState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Policies[name], nil
}

func (f *Fake) CreatePolicy(_ context.Context, name string, _ map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := "arn:aws:iam::000000000000:policy/" + name
	f.Policies[name] = PolicyState{Exists: true, ARN: arn, Attachable: true}
	return arn, nil
}

func (f *Fake) DeletePolicy(_ context.Context, arn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, p := range f.Policies {
		if p.ARN == arn {
			delete(f.Policies, name)
		}
	}
	return nil
}

func (f *Fake) DescribeRole(_ context.Context, name string) (RoleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Roles[name], nil
}

func (f *Fake) CreateRole(_ context.Context, name string, _ map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := "arn:aws:iam::000000000000:role/" + name
	f.Roles[name] = RoleState{Exists: true, ARN: arn}
	return arn, nil
}

func (f *Fake) AttachPolicy(_ context.Context, roleName, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.Roles[roleName]
	r.AttachmentCount++
	f.Roles[roleName] = r
	return nil
}

func (f *Fake) DetachPolicy(_ context.Context, roleName, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.Roles[roleName]
	if r.AttachmentCount > 0 {
		r.AttachmentCount--
	}
	f.Roles[roleName] = r
	return nil
}

func (f *Fake) DescribeStateMachine(_ context.Context, fqn string) (StateMachineState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.StateMachines[fqn], nil
}

func (f *Fake) CreateStateMachine(_ context.Context, fqn, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := "arn:aws:states:us-east-1:000000000000:stateMachine:" + fqn
	f.StateMachines[fqn] = StateMachineState{Exists: true, ARN: arn, Status: "ACTIVE"}
	return arn, nil
}

func (f *Fake) UpdateStateMachine(_ context.Context, arn, _, _ string) error { return nil }
func (f *Fake) UpdateLogging(_ context.Context, _, _, _ string) error        { return nil }
func (f *Fake) TagResource(_ context.Context, _ string, _ map[string]string) error { return nil }

func (f *Fake) PutRule(_ context.Context, name, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Rules[name] == nil {
		f.Rules[name] = map[string]string{}
	}
	return "arn:aws:events:us-east-1:000000000000:rule/" + name, nil
}

func (f *Fake) PutTargets(_ context.Context, ruleName string, targetARNs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Rules[ruleName] == nil {
		f.Rules[ruleName] = map[string]string{}
	}
	for id, arn := range targetARNs {
		f.Rules[ruleName][id] = arn
	}
	return nil
}

func (f *Fake) ListTargetIDs(_ context.Context, ruleName string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.Rules[ruleName] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *Fake) RemoveTargets(_ context.Context, ruleName string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.Rules[ruleName], id)
	}
	return nil
}

func (f *Fake) DeleteRule(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Rules, name)
	return nil
}

func (f *Fake) DescribeQueue(_ context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url, ok := f.Queues[name]
	return url, ok, nil
}

func (f *Fake) CreateQueue(_ context.Context, name string, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://sqs.us-east-1.amazonaws.com/000000000000/" + name
	f.Queues[name] = url
	return url, nil
}

func (f *Fake) DeleteQueue(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, u := range f.Queues {
		if u == url {
			delete(f.Queues, name)
		}
	}
	return nil
}

func (f *Fake) EnsureAPI(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.APIs[name]; ok {
		return id, nil
	}
	id := "api-" + name
	f.APIs[name] = id
	return id, nil
}

func (f *Fake) CreateOrUpdateIntegration(_ context.Context, apiID, targetARN string) (string, error) {
	return apiID + ":" + targetARN, nil
}

func (f *Fake) CreateOrUpdateRoute(_ context.Context, apiID, routeKey, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Routes[apiID] = append(f.Routes[apiID], routeKey)
	return nil
}

func (f *Fake) CreateStageAndDeployment(_ context.Context, _, _ string) error { return nil }

func (f *Fake) EnsureGraphQLAPI(_ context.Context, name string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.GraphQLAPIs[name]; ok {
		return id, nil
	}
	id := "appsync-" + name
	f.GraphQLAPIs[name] = id
	return id, nil
}

func (f *Fake) CreateOrUpdateType(_ context.Context, _, _, _ string) error { return nil }

func (f *Fake) CreateOrUpdateDataSource(_ context.Context, apiID, name, _, targetARN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DataSources[apiID+"/"+name] = targetARN
	return nil
}

func (f *Fake) CreateResolverIfAbsent(_ context.Context, apiID, typeName, field, dataSource string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Resolvers[apiID+"/"+typeName+"/"+field] = dataSource
	return nil
}

func (f *Fake) EnsureRepository(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uri, ok := f.Repositories[name]; ok {
		return uri, nil
	}
	uri := "000000000000.dkr.ecr.us-east-1.amazonaws.com/" + name
	f.Repositories[name] = uri
	return uri, nil
}

func (f *Fake) AuthorizationToken(_ context.Context) (string, string, string, error) {
	return "AWS", "faketoken", "https://000000000000.dkr.ecr.us-east-1.amazonaws.com", nil
}

func (f *Fake) EnsureBucket(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Buckets[name] = true
	return nil
}

func (f *Fake) PutBucketPolicy(_ context.Context, _ string, _ map[string]any) error { return nil }

func (f *Fake) SyncDir(_ context.Context, bucket, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BucketObjects[bucket] = append(f.BucketObjects[bucket], dir)
	return nil
}

func (f *Fake) EnsureDistribution(_ context.Context, bucket string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.Distributions[bucket]; ok {
		return id, nil
	}
	id := "dist-" + bucket
	f.Distributions[bucket] = id
	return id, nil
}

func (f *Fake) EnsureUserPool(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.UserPools[name]; ok {
		return id, nil
	}
	id := "pool-" + name
	f.UserPools[name] = id
	return id, nil
}

func (f *Fake) EnsureUserPoolClient(_ context.Context, poolID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := poolID + "/" + name
	if id, ok := f.PoolClients[key]; ok {
		return id, nil
	}
	id := "client-" + name
	f.PoolClients[key] = id
	return id, nil
}

func (f *Fake) EnsureConnection(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arn, ok := f.Connections[name]; ok {
		return arn, nil
	}
	arn := "arn:aws:events:us-east-1:000000000000:connection/" + name
	f.Connections[name] = arn
	return arn, nil
}

func (f *Fake) EnsureAPIDestination(_ context.Context, name, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arn, ok := f.APIDestinations[name]; ok {
		return arn, nil
	}
	arn := "arn:aws:events:us-east-1:000000000000:api-destination/" + name
	f.APIDestinations[name] = arn
	return arn, nil
}

func (f *Fake) DeleteAPIDestination(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.APIDestinations, name)
	return nil
}

// NotFoundError is returned by Fake lookups that miss, and implements
// pkg/errors.IsNotFound's duck type.
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Name)
}

func (e *NotFoundError) NotFound() bool { return true }

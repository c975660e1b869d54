// Package cloud wraps the provider operations the Resolver and Deployer
// need behind small, per-concern interfaces, each with a real
// aws-sdk-go-v2-backed implementation and an in-memory Fake for tests
// (grounded on the teacher's pkg/provider.Provider / FakeProvider split).
package cloud

import "context"

// ParameterStore resolves `ssm:/<key>` environment references
// (spec.md §4.4).
type ParameterStore interface {
	GetParameter(ctx context.Context, key string) (string, error)
}

// LayerRegistry looks up the latest published version ARN for a layer
// name (spec.md §4.4).
type LayerRegistry interface {
	LatestLayerVersionARN(ctx context.Context, name string) (string, error)
}

// FunctionState is what Deployer's Function task needs from a describe
// call; a zero value with Exists=false signals NotFound.
type FunctionState struct {
	Exists      bool
	PackageType string
	CodeSHA256  string
	ConfigHash  string
}

// FunctionRegistry is the Lambda-equivalent CRUD surface (spec.md §4.5).
type FunctionRegistry interface {
	DescribeFunction(ctx context.Context, fqn string) (FunctionState, error)
	CreateFunction(ctx context.Context, fn FunctionInput) error
	UpdateFunctionCode(ctx context.Context, fn FunctionInput) error
	UpdateFunctionConfig(ctx context.Context, fn FunctionInput) error
	DeleteFunction(ctx context.Context, fqn string) error
	PublishVersion(ctx context.Context, fqn string) (string, error)
	UpdateEventInvokeConfig(ctx context.Context, fqn, destinationARN string) error
}

// FunctionInput is the resolved, deployable shape of a function.
type FunctionInput struct {
	FQN         string
	Handler     string
	PackageType string
	CodeURI     string
	Runtime     string
	MemorySize  int
	Timeout     int
	Environment map[string]string
	Layers      []string
	RoleARN     string
	VPCSubnets  []string
	VPCSGs      []string
	FSArn       string
	FSMount     string
	SnapStart   bool
	Tags        map[string]string
}

// PolicyState mirrors an IAM policy's attachability, polled during role
// creation (spec.md §4.5).
type PolicyState struct {
	Exists      bool
	ARN         string
	Attachable  bool
}

// RoleState mirrors an IAM role's existence and attached-policy count.
type RoleState struct {
	Exists           bool
	ARN              string
	AttachmentCount  int
}

// RoleRegistry is the IAM CRUD surface used by the six-step role
// create/update pipeline (spec.md §4.5).
type RoleRegistry interface {
	DescribePolicy(ctx context.Context, name string) (PolicyState, error)
	CreatePolicy(ctx context.Context, name string, doc map[string]any) (string, error)
	DeletePolicy(ctx context.Context, arn string) error
	DescribeRole(ctx context.Context, name string) (RoleState, error)
	CreateRole(ctx context.Context, name string, trustPolicy map[string]any) (string, error)
	AttachPolicy(ctx context.Context, roleName, policyARN string) error
	DetachPolicy(ctx context.Context, roleName, policyARN string) error
}

// StateMachineState mirrors a Step Functions state machine's status.
type StateMachineState struct {
	Exists bool
	ARN    string
	Status string // CREATING | ACTIVE | DELETING
}

// StateMachineRegistry is the Step Functions CRUD surface.
type StateMachineRegistry interface {
	DescribeStateMachine(ctx context.Context, fqn string) (StateMachineState, error)
	CreateStateMachine(ctx context.Context, fqn, definition, roleARN string) (string, error)
	UpdateStateMachine(ctx context.Context, arn, definition, roleARN string) error
	UpdateLogging(ctx context.Context, arn, logGroupARN, level string) error
	TagResource(ctx context.Context, arn string, tags map[string]string) error
}

// EventRegistry is the EventBridge CRUD surface.
type EventRegistry interface {
	PutRule(ctx context.Context, name, pattern string) (string, error)
	PutTargets(ctx context.Context, ruleName string, targetARNs map[string]string) error
	ListTargetIDs(ctx context.Context, ruleName string) ([]string, error)
	RemoveTargets(ctx context.Context, ruleName string, ids []string) error
	DeleteRule(ctx context.Context, name string) error
}

// QueueRegistry is the SQS CRUD surface.
type QueueRegistry interface {
	DescribeQueue(ctx context.Context, name string) (string, bool, error) // url, exists
	CreateQueue(ctx context.Context, name string, visibilityTimeout int) (string, error)
	DeleteQueue(ctx context.Context, url string) error
}

// RouteRegistry is the API Gateway v2 CRUD surface.
type RouteRegistry interface {
	EnsureAPI(ctx context.Context, name string) (string, error) // returns apiId
	CreateOrUpdateIntegration(ctx context.Context, apiID, targetARN string) (string, error)
	CreateOrUpdateRoute(ctx context.Context, apiID, routeKey, integrationID string) error
	CreateStageAndDeployment(ctx context.Context, apiID, stage string) error
}

// GraphQLRegistry is the AppSync CRUD surface.
type GraphQLRegistry interface {
	EnsureGraphQLAPI(ctx context.Context, name string, authType string) (string, error)
	CreateOrUpdateType(ctx context.Context, apiID, typeName, schema string) error
	CreateOrUpdateDataSource(ctx context.Context, apiID, name, kind, targetARN string) error
	CreateResolverIfAbsent(ctx context.Context, apiID, typeName, field, dataSource string) error
}

// ImageRegistry is the ECR push surface used by the Builder for
// image-packaged functions.
type ImageRegistry interface {
	EnsureRepository(ctx context.Context, name string) (string, error) // returns repo URI
	AuthorizationToken(ctx context.Context) (user, pass, endpoint string, err error)
}

// SiteRegistry is the S3 + CloudFront surface used by Page deploys.
type SiteRegistry interface {
	EnsureBucket(ctx context.Context, name string) error
	PutBucketPolicy(ctx context.Context, name string, policy map[string]any) error
	SyncDir(ctx context.Context, bucket, dir string) error
	EnsureDistribution(ctx context.Context, bucket string) (string, error) // returns distribution id
}

// PoolRegistry is the Cognito identity-provider surface used lazily by
// Cognito-authorized routes.
type PoolRegistry interface {
	EnsureUserPool(ctx context.Context, name string) (string, error)
	EnsureUserPoolClient(ctx context.Context, poolID, name string) (string, error)
}

// ChannelRegistry is the EventBridge API-destination surface backing
// Channel entities (spec.md §4.3's "1:1 build" for channels): a
// connection (credential holder) plus an API destination pointing at
// the channel's HTTP endpoint.
type ChannelRegistry interface {
	EnsureConnection(ctx context.Context, name string) (string, error) // returns connectionARN
	EnsureAPIDestination(ctx context.Context, name, endpoint, connectionARN string) (string, error)
	DeleteAPIDestination(ctx context.Context, name string) error
}

package cloud

import (
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/appsync"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/tc-functors/tc/pkg/authctx"
)

// AWS bundles one real SDK client per service behind this package's
// interfaces. A single struct implementing many small interfaces follows
// the teacher's FakeProvider shape, just with live clients instead of
// in-memory maps.
type AWS struct {
	Region string

	SSM         *ssm.Client
	Lambda      *lambda.Client
	IAM         *iam.Client
	SFN         *sfn.Client
	EventBridge *eventbridge.Client
	SQS         *sqs.Client
	APIGateway  *apigatewayv2.Client
	AppSync     *appsync.Client
	ECR         *ecr.Client
	S3          *s3.Client
	CloudFront  *cloudfront.Client
	Cognito     *cognitoidentityprovider.Client
}

var (
	_ ParameterStore       = &AWS{}
	_ LayerRegistry        = &AWS{}
	_ FunctionRegistry     = &AWS{}
	_ RoleRegistry         = &AWS{}
	_ StateMachineRegistry = &AWS{}
	_ EventRegistry        = &AWS{}
	_ QueueRegistry        = &AWS{}
	_ RouteRegistry        = &AWS{}
	_ GraphQLRegistry      = &AWS{}
	_ ImageRegistry        = &AWS{}
	_ SiteRegistry         = &AWS{}
	_ PoolRegistry         = &AWS{}
	_ ChannelRegistry      = &AWS{}
)

// New constructs an AWS client bundle from a resolved AuthContext.
func New(auth *authctx.AuthContext) *AWS {
	cfg := auth.Cfg
	return &AWS{
		Region:      auth.Region,
		SSM:         ssm.NewFromConfig(cfg),
		Lambda:      lambda.NewFromConfig(cfg),
		IAM:         iam.NewFromConfig(cfg),
		SFN:         sfn.NewFromConfig(cfg),
		EventBridge: eventbridge.NewFromConfig(cfg),
		SQS:         sqs.NewFromConfig(cfg),
		APIGateway:  apigatewayv2.NewFromConfig(cfg),
		AppSync:     appsync.NewFromConfig(cfg),
		ECR:         ecr.NewFromConfig(cfg),
		S3:          s3.NewFromConfig(cfg),
		CloudFront:  cloudfront.NewFromConfig(cfg),
		Cognito:     cognitoidentityprovider.NewFromConfig(cfg),
	}
}

func ptr(s string) *string { return awssdk.String(s) }

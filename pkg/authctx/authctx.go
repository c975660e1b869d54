// Package authctx implements the AuthContext component of spec.md §2:
// credential resolution, role assumption, and ARN formatting, shared by
// the Composer (which needs ARN shapes early) and the Resolver/Deployer
// (which need live credentials). The construction pattern — a small
// typed config in, a ready-to-use context out — follows
// AdamPippert-Lobstertank's auth.NewProvider.
package authctx

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AuthContext is immutable once constructed (spec.md §5, "The AuthContext
// is shared (immutable after construction)").
type AuthContext struct {
	Region    string
	Account   string
	Partition string
	Profile   string
	Cfg       awssdk.Config
}

// Options configures construction; AssumeRoleARN is optional.
type Options struct {
	Region        string
	AssumeRoleARN string
	Profile       string
}

// New resolves credentials (optionally assuming a role) and the caller's
// account id via STS, and returns a ready AuthContext.
func New(ctx context.Context, opts Options) (*AuthContext, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if opts.AssumeRoleARN != "" {
		stsClient := sts.NewFromConfig(cfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, opts.AssumeRoleARN)
		cfg.Credentials = awssdk.NewCredentialsCache(provider)
	}

	stsClient := sts.NewFromConfig(cfg)
	ident, err := stsClient.GetCallerIdentity(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sts get-caller-identity: %w", err)
	}

	return &AuthContext{
		Region:    cfg.Region,
		Account:   awssdk.ToString(ident.Account),
		Partition: "aws",
		Profile:   opts.Profile,
		Cfg:       cfg,
	}, nil
}

// AssumeRole returns a new AuthContext sharing the same region/account
// but with credentials switched to the given role, used by the resolver
// when looking up layers in a centralized account (spec.md §4.4).
func (a *AuthContext) AssumeRole(ctx context.Context, roleARN string) (*AuthContext, error) {
	stsClient := sts.NewFromConfig(a.Cfg)
	provider := stscreds.NewAssumeRoleProvider(stsClient, roleARN)
	cfg := a.Cfg.Copy()
	cfg.Credentials = awssdk.NewCredentialsCache(provider)
	return &AuthContext{Region: a.Region, Account: a.Account, Partition: a.Partition, Profile: a.Profile, Cfg: cfg}, nil
}

func (a *AuthContext) arn(service, resource string) string {
	return fmt.Sprintf("arn:%s:%s:%s:%s:%s", a.Partition, service, a.Region, a.Account, resource)
}

// FunctionARN formats a Lambda function ARN for the given fqn.
func (a *AuthContext) FunctionARN(fqn string) string {
	return a.arn("lambda", "function:"+fqn)
}

// StateMachineARN formats a Step Functions state machine ARN.
func (a *AuthContext) StateMachineARN(fqn string) string {
	return a.arn("states", "stateMachine:"+fqn)
}

// RoleARN formats an IAM role ARN. IAM ARNs carry no region segment.
func (a *AuthContext) RoleARN(name string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", a.Partition, a.Account, name)
}

// PolicyARN formats a customer-managed IAM policy ARN.
func (a *AuthContext) PolicyARN(name string) string {
	return fmt.Sprintf("arn:%s:iam::%s:policy/%s", a.Partition, a.Account, name)
}

// EventBusARN formats an EventBridge bus ARN.
func (a *AuthContext) EventBusARN(bus string) string {
	return a.arn("events", "event-bus/"+bus)
}

// QueueARN formats an SQS queue ARN.
func (a *AuthContext) QueueARN(name string) string {
	return a.arn("sqs", name)
}

// LayerARN formats a layer ARN from a name and version.
func (a *AuthContext) LayerARN(name string, version int) string {
	return a.arn("lambda", fmt.Sprintf("layer:%s:%d", name, version))
}

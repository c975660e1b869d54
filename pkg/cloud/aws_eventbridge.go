package cloud

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

func (a *AWS) PutRule(ctx context.Context, name, pattern string) (string, error) {
	in := &eventbridge.PutRuleInput{
		Name:  awssdk.String(name),
		State: types.RuleStateEnabled,
	}
	// ScheduleTask passes its cron/rate expression behind this prefix.
	if expr, ok := strings.CutPrefix(pattern, "rate-or-cron:"); ok {
		in.ScheduleExpression = awssdk.String(expr)
	} else {
		in.EventPattern = awssdk.String(pattern)
	}
	out, err := a.EventBridge.PutRule(ctx, in)
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.RuleArn), nil
}

func (a *AWS) PutTargets(ctx context.Context, ruleName string, targetARNs map[string]string) error {
	var targets []types.Target
	for id, arn := range targetARNs {
		targets = append(targets, types.Target{Id: awssdk.String(id), Arn: awssdk.String(arn)})
	}
	out, err := a.EventBridge.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule:    awssdk.String(ruleName),
		Targets: targets,
	})
	if err != nil {
		return err
	}
	if out.FailedEntryCount > 0 {
		return fmt.Errorf("put-targets failed for %d of %d targets on rule %s", out.FailedEntryCount, len(targets), ruleName)
	}
	return nil
}

func (a *AWS) ListTargetIDs(ctx context.Context, ruleName string) ([]string, error) {
	out, err := a.EventBridge.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{Rule: awssdk.String(ruleName)})
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range out.Targets {
		ids = append(ids, awssdk.ToString(t.Id))
	}
	return ids, nil
}

func (a *AWS) RemoveTargets(ctx context.Context, ruleName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := a.EventBridge.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{Rule: awssdk.String(ruleName), Ids: ids})
	return err
}

func (a *AWS) DeleteRule(ctx context.Context, name string) error {
	_, err := a.EventBridge.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: awssdk.String(name)})
	if _, ok := err.(*types.ResourceNotFoundException); ok {
		return nil
	}
	return err
}

// EnsureConnection implements ChannelRegistry: find-or-create the
// API-destination connection that holds a Channel's outbound
// credentials (spec.md §4.3's Channel builder).
func (a *AWS) EnsureConnection(ctx context.Context, name string) (string, error) {
	out, err := a.EventBridge.DescribeConnection(ctx, &eventbridge.DescribeConnectionInput{Name: awssdk.String(name)})
	if err == nil {
		return awssdk.ToString(out.ConnectionArn), nil
	}
	if _, ok := err.(*types.ResourceNotFoundException); !ok {
		return "", err
	}
	created, err := a.EventBridge.CreateConnection(ctx, &eventbridge.CreateConnectionInput{
		Name:               awssdk.String(name),
		AuthorizationType:  types.ConnectionAuthorizationTypeApiKey,
		AuthParameters: &types.CreateConnectionAuthRequestParameters{
			ApiKeyAuthParameters: &types.CreateConnectionApiKeyAuthRequestParameters{
				ApiKeyName:  awssdk.String("x-api-key"),
				ApiKeyValue: awssdk.String("{{api_key}}"),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(created.ConnectionArn), nil
}

// EnsureAPIDestination implements ChannelRegistry: find-or-create the
// API destination a Channel's targets invoke through.
func (a *AWS) EnsureAPIDestination(ctx context.Context, name, endpoint, connectionARN string) (string, error) {
	out, err := a.EventBridge.DescribeApiDestination(ctx, &eventbridge.DescribeApiDestinationInput{Name: awssdk.String(name)})
	if err == nil {
		return awssdk.ToString(out.ApiDestinationArn), nil
	}
	if _, ok := err.(*types.ResourceNotFoundException); !ok {
		return "", err
	}
	created, err := a.EventBridge.CreateApiDestination(ctx, &eventbridge.CreateApiDestinationInput{
		Name:              awssdk.String(name),
		ConnectionArn:     awssdk.String(connectionARN),
		InvocationEndpoint: awssdk.String(endpoint),
		HttpMethod:        types.ApiDestinationHttpMethodPost,
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(created.ApiDestinationArn), nil
}

// DeleteAPIDestination removes a channel's API destination; not-found is
// success (spec.md §7's "NotFound-on-delete").
func (a *AWS) DeleteAPIDestination(ctx context.Context, name string) error {
	_, err := a.EventBridge.DeleteApiDestination(ctx, &eventbridge.DeleteApiDestinationInput{Name: awssdk.String(name)})
	if _, ok := err.(*types.ResourceNotFoundException); ok {
		return nil
	}
	return err
}

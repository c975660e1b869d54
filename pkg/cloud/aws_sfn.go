package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

func (a *AWS) DescribeStateMachine(ctx context.Context, fqn string) (StateMachineState, error) {
	arn, err := a.stateMachineARNByName(ctx, fqn)
	if err != nil {
		return StateMachineState{}, err
	}
	if arn == "" {
		return StateMachineState{}, nil
	}
	out, err := a.SFN.DescribeStateMachine(ctx, &sfn.DescribeStateMachineInput{StateMachineArn: awssdk.String(arn)})
	if err != nil {
		if _, ok := err.(*types.StateMachineDoesNotExist); ok {
			return StateMachineState{}, nil
		}
		return StateMachineState{}, err
	}
	return StateMachineState{Exists: true, ARN: arn, Status: string(out.Status)}, nil
}

func (a *AWS) stateMachineARNByName(ctx context.Context, fqn string) (string, error) {
	paginator := sfn.NewListStateMachinesPaginator(a.SFN, &sfn.ListStateMachinesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, sm := range page.StateMachines {
			if awssdk.ToString(sm.Name) == fqn {
				return awssdk.ToString(sm.StateMachineArn), nil
			}
		}
	}
	return "", nil
}

func (a *AWS) CreateStateMachine(ctx context.Context, fqn, definition, roleARN string) (string, error) {
	out, err := a.SFN.CreateStateMachine(ctx, &sfn.CreateStateMachineInput{
		Name:       awssdk.String(fqn),
		Definition: awssdk.String(definition),
		RoleArn:    awssdk.String(roleARN),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.StateMachineArn), nil
}

func (a *AWS) UpdateStateMachine(ctx context.Context, arn, definition, roleARN string) error {
	_, err := a.SFN.UpdateStateMachine(ctx, &sfn.UpdateStateMachineInput{
		StateMachineArn: awssdk.String(arn),
		Definition:      awssdk.String(definition),
		RoleArn:         awssdk.String(roleARN),
	})
	return err
}

func (a *AWS) UpdateLogging(ctx context.Context, arn, logGroupARN, level string) error {
	_, err := a.SFN.UpdateStateMachine(ctx, &sfn.UpdateStateMachineInput{
		StateMachineArn: awssdk.String(arn),
		LoggingConfiguration: &types.LoggingConfiguration{
			Level: types.LogLevel(level),
			Destinations: []types.LogDestination{
				{CloudWatchLogsLogGroup: &types.CloudWatchLogsLogGroup{LogGroupArn: awssdk.String(logGroupARN)}},
			},
		},
	})
	return err
}

func (a *AWS) TagResource(ctx context.Context, arn string, tags map[string]string) error {
	var list []types.Tag
	for k, v := range tags {
		list = append(list, types.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	_, err := a.SFN.TagResource(ctx, &sfn.TagResourceInput{ResourceArn: awssdk.String(arn), Tags: list})
	return err
}

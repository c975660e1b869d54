package cloud

import (
	"context"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

func (a *AWS) DescribeQueue(ctx context.Context, name string) (string, bool, error) {
	out, err := a.SQS.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: awssdk.String(name)})
	if err != nil {
		if _, ok := err.(*types.QueueDoesNotExist); ok {
			return "", false, nil
		}
		return "", false, err
	}
	return awssdk.ToString(out.QueueUrl), true, nil
}

func (a *AWS) CreateQueue(ctx context.Context, name string, visibilityTimeout int) (string, error) {
	out, err := a.SQS.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: awssdk.String(name),
		Attributes: map[string]string{
			"VisibilityTimeout": strconv.Itoa(visibilityTimeout),
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.QueueUrl), nil
}

func (a *AWS) DeleteQueue(ctx context.Context, url string) error {
	_, err := a.SQS.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: awssdk.String(url)})
	if _, ok := err.(*types.QueueDoesNotExist); ok {
		return nil
	}
	return err
}

package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// GetParameter implements ParameterStore against SSM Parameter Store
// (spec.md §4.4's `ssm:/<key>` environment resolution).
func (a *AWS) GetParameter(ctx context.Context, key string) (string, error) {
	out, err := a.SSM.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           awssdk.String(key),
		WithDecryption: awssdk.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.Parameter.Value), nil
}

// LatestLayerVersionARN implements LayerRegistry against Lambda's
// ListLayerVersions, which returns versions newest-first.
func (a *AWS) LatestLayerVersionARN(ctx context.Context, name string) (string, error) {
	out, err := a.Lambda.ListLayerVersions(ctx, &lambda.ListLayerVersionsInput{
		LayerName: awssdk.String(name),
		MaxItems:  awssdk.Int32(1),
	})
	if err != nil {
		return "", err
	}
	if len(out.LayerVersions) == 0 {
		return "", &NotFoundError{Resource: "layer", Name: name}
	}
	return awssdk.ToString(out.LayerVersions[0].LayerVersionArn), nil
}

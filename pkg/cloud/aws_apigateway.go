package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"
)

// EnsureAPI implements RouteRegistry: find an HTTP API by name, or
// create one (spec.md §4.5 Route algorithm).
func (a *AWS) EnsureAPI(ctx context.Context, name string) (string, error) {
	paginator := apigatewayv2.NewGetApisPaginator(a.APIGateway, &apigatewayv2.GetApisInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, api := range page.Items {
			if awssdk.ToString(api.Name) == name {
				return awssdk.ToString(api.ApiId), nil
			}
		}
	}
	out, err := a.APIGateway.CreateApi(ctx, &apigatewayv2.CreateApiInput{
		Name:         awssdk.String(name),
		ProtocolType: types.ProtocolTypeHttp,
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.ApiId), nil
}

func (a *AWS) CreateOrUpdateIntegration(ctx context.Context, apiID, targetARN string) (string, error) {
	out, err := a.APIGateway.CreateIntegration(ctx, &apigatewayv2.CreateIntegrationInput{
		ApiId:                awssdk.String(apiID),
		IntegrationType:      types.IntegrationTypeAwsProxy,
		IntegrationUri:       awssdk.String(targetARN),
		PayloadFormatVersion: awssdk.String("2.0"),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.IntegrationId), nil
}

func (a *AWS) CreateOrUpdateRoute(ctx context.Context, apiID, routeKey, integrationID string) error {
	_, err := a.APIGateway.CreateRoute(ctx, &apigatewayv2.CreateRouteInput{
		ApiId:    awssdk.String(apiID),
		RouteKey: awssdk.String(routeKey),
		Target:   awssdk.String("integrations/" + integrationID),
	})
	return err
}

func (a *AWS) CreateStageAndDeployment(ctx context.Context, apiID, stage string) error {
	_, err := a.APIGateway.CreateStage(ctx, &apigatewayv2.CreateStageInput{
		ApiId:      awssdk.String(apiID),
		StageName:  awssdk.String(stage),
		AutoDeploy: awssdk.Bool(true),
	})
	return err
}

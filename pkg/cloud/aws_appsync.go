package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appsync"
	"github.com/aws/aws-sdk-go-v2/service/appsync/types"
)

func (a *AWS) EnsureGraphQLAPI(ctx context.Context, name string, authType string) (string, error) {
	list, err := a.AppSync.ListGraphqlApis(ctx, &appsync.ListGraphqlApisInput{})
	if err != nil {
		return "", err
	}
	for _, api := range list.GraphqlApis {
		if awssdk.ToString(api.Name) == name {
			return awssdk.ToString(api.ApiId), nil
		}
	}
	out, err := a.AppSync.CreateGraphqlApi(ctx, &appsync.CreateGraphqlApiInput{
		Name:               awssdk.String(name),
		AuthenticationType: types.AuthenticationType(authType),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.GraphqlApi.ApiId), nil
}

func (a *AWS) CreateOrUpdateType(ctx context.Context, apiID, typeName, schema string) error {
	_, err := a.AppSync.StartSchemaCreation(ctx, &appsync.StartSchemaCreationInput{
		ApiId:      awssdk.String(apiID),
		Definition: []byte(schema),
	})
	return err
}

func (a *AWS) CreateOrUpdateDataSource(ctx context.Context, apiID, name, kind, targetARN string) error {
	input := &appsync.CreateDataSourceInput{
		ApiId: awssdk.String(apiID),
		Name:  awssdk.String(name),
		Type:  types.DataSourceType(kind),
	}
	switch types.DataSourceType(kind) {
	case types.DataSourceTypeAwsLambda:
		input.LambdaConfig = &types.LambdaDataSourceConfig{LambdaFunctionArn: awssdk.String(targetARN)}
	case types.DataSourceTypeAmazonDynamodb:
		input.DynamodbConfig = &types.DynamodbDataSourceConfig{TableName: awssdk.String(targetARN)}
	}
	_, err := a.AppSync.CreateDataSource(ctx, input)
	return err
}

func (a *AWS) CreateResolverIfAbsent(ctx context.Context, apiID, typeName, field, dataSource string) error {
	_, err := a.AppSync.GetResolver(ctx, &appsync.GetResolverInput{
		ApiId:     awssdk.String(apiID),
		TypeName:  awssdk.String(typeName),
		FieldName: awssdk.String(field),
	})
	if err == nil {
		return nil
	}
	_, err = a.AppSync.CreateResolver(ctx, &appsync.CreateResolverInput{
		ApiId:          awssdk.String(apiID),
		TypeName:       awssdk.String(typeName),
		FieldName:      awssdk.String(field),
		DataSourceName: awssdk.String(dataSource),
	})
	return err
}

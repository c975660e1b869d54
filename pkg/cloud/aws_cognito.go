package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

func (a *AWS) EnsureUserPool(ctx context.Context, name string) (string, error) {
	paginator := cognitoidentityprovider.NewListUserPoolsPaginator(a.Cognito, &cognitoidentityprovider.ListUserPoolsInput{
		MaxResults: 60,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, p := range page.UserPools {
			if awssdk.ToString(p.Name) == name {
				return awssdk.ToString(p.Id), nil
			}
		}
	}
	out, err := a.Cognito.CreateUserPool(ctx, &cognitoidentityprovider.CreateUserPoolInput{
		PoolName: awssdk.String(name),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.UserPool.Id), nil
}

func (a *AWS) EnsureUserPoolClient(ctx context.Context, poolID, name string) (string, error) {
	list, err := a.Cognito.ListUserPoolClients(ctx, &cognitoidentityprovider.ListUserPoolClientsInput{
		UserPoolId: awssdk.String(poolID),
		MaxResults: 60,
	})
	if err != nil {
		return "", err
	}
	for _, c := range list.UserPoolClients {
		if awssdk.ToString(c.ClientName) == name {
			return awssdk.ToString(c.ClientId), nil
		}
	}
	out, err := a.Cognito.CreateUserPoolClient(ctx, &cognitoidentityprovider.CreateUserPoolClientInput{
		UserPoolId: awssdk.String(poolID),
		ClientName: awssdk.String(name),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.UserPoolClient.ClientId), nil
}

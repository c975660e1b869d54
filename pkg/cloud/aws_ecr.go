package cloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

func (a *AWS) EnsureRepository(ctx context.Context, name string) (string, error) {
	out, err := a.ECR.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{RepositoryNames: []string{name}})
	if err == nil && len(out.Repositories) > 0 {
		return awssdk.ToString(out.Repositories[0].RepositoryUri), nil
	}
	if err != nil {
		if _, ok := err.(*types.RepositoryNotFoundException); !ok {
			return "", err
		}
	}
	created, err := a.ECR.CreateRepository(ctx, &ecr.CreateRepositoryInput{RepositoryName: awssdk.String(name)})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(created.Repository.RepositoryUri), nil
}

func (a *AWS) AuthorizationToken(ctx context.Context) (string, string, string, error) {
	out, err := a.ECR.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", "", err
	}
	if len(out.AuthorizationData) == 0 {
		return "", "", "", fmt.Errorf("ecr: no authorization data returned")
	}
	data := out.AuthorizationData[0]
	decoded, err := base64.StdEncoding.DecodeString(awssdk.ToString(data.AuthorizationToken))
	if err != nil {
		return "", "", "", err
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("ecr: malformed authorization token")
	}
	return parts[0], parts[1], awssdk.ToString(data.ProxyEndpoint), nil
}

package cloud

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"k8s.io/klog/v2"
)

// DescribeFunction implements FunctionRegistry's describe step; a
// ResourceNotFoundException is translated into Exists=false rather than
// an error, matching the teacher's describe-then-create idiom.
func (a *AWS) DescribeFunction(ctx context.Context, fqn string) (FunctionState, error) {
	out, err := a.Lambda.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: awssdk.String(fqn)})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if isResourceNotFound(err, &nf) {
			return FunctionState{}, nil
		}
		return FunctionState{}, err
	}
	return FunctionState{
		Exists:      true,
		PackageType: string(out.Configuration.PackageType),
		CodeSHA256:  awssdk.ToString(out.Configuration.CodeSha256),
	}, nil
}

func isResourceNotFound(err error, target **types.ResourceNotFoundException) bool {
	if e, ok := err.(*types.ResourceNotFoundException); ok {
		*target = e
		return true
	}
	return false
}

func (a *AWS) CreateFunction(ctx context.Context, fn FunctionInput) error {
	code := &types.FunctionCode{}
	if fn.PackageType == "image" {
		code.ImageUri = awssdk.String(fn.CodeURI)
	} else {
		code.S3Bucket, code.S3Key = splitS3URI(fn.CodeURI)
	}
	in := &lambda.CreateFunctionInput{
		FunctionName: awssdk.String(fn.FQN),
		Role:         awssdk.String(fn.RoleARN),
		Code:         code,
		MemorySize:   awssdk.Int32(int32(fn.MemorySize)),
		Timeout:      awssdk.Int32(int32(fn.Timeout)),
		Environment:  &types.Environment{Variables: fn.Environment},
		Layers:       fn.Layers,
		Tags:         fn.Tags,
	}
	if fn.PackageType == "image" {
		in.PackageType = types.PackageTypeImage
	} else {
		in.PackageType = types.PackageTypeZip
		in.Runtime = types.Runtime(fn.Runtime)
		in.Handler = awssdk.String(fn.Handler)
	}
	if len(fn.VPCSubnets) > 0 {
		in.VpcConfig = &types.VpcConfig{SubnetIds: fn.VPCSubnets, SecurityGroupIds: fn.VPCSGs}
	}
	if fn.FSArn != "" {
		in.FileSystemConfigs = []types.FileSystemConfig{{Arn: awssdk.String(fn.FSArn), LocalMountPath: awssdk.String(fn.FSMount)}}
	}
	_, err := a.Lambda.CreateFunction(ctx, in)
	return err
}

func (a *AWS) UpdateFunctionCode(ctx context.Context, fn FunctionInput) error {
	in := &lambda.UpdateFunctionCodeInput{FunctionName: awssdk.String(fn.FQN)}
	if fn.PackageType == "image" {
		in.ImageUri = awssdk.String(fn.CodeURI)
	} else {
		in.S3Bucket, in.S3Key = splitS3URI(fn.CodeURI)
	}
	_, err := a.Lambda.UpdateFunctionCode(ctx, in)
	return err
}

func (a *AWS) UpdateFunctionConfig(ctx context.Context, fn FunctionInput) error {
	in := &lambda.UpdateFunctionConfigurationInput{
		FunctionName: awssdk.String(fn.FQN),
		MemorySize:   awssdk.Int32(int32(fn.MemorySize)),
		Timeout:      awssdk.Int32(int32(fn.Timeout)),
		Environment:  &types.Environment{Variables: fn.Environment},
		Layers:       fn.Layers,
		Role:         awssdk.String(fn.RoleARN),
	}
	if len(fn.VPCSubnets) > 0 {
		in.VpcConfig = &types.VpcConfig{SubnetIds: fn.VPCSubnets, SecurityGroupIds: fn.VPCSGs}
	}
	_, err := a.Lambda.UpdateFunctionConfiguration(ctx, in)
	return err
}

func (a *AWS) DeleteFunction(ctx context.Context, fqn string) error {
	_, err := a.Lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: awssdk.String(fqn)})
	var nf *types.ResourceNotFoundException
	if isResourceNotFound(err, &nf) {
		return nil
	}
	return err
}

func (a *AWS) PublishVersion(ctx context.Context, fqn string) (string, error) {
	out, err := a.Lambda.PublishVersion(ctx, &lambda.PublishVersionInput{FunctionName: awssdk.String(fqn)})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.Version), nil
}

func (a *AWS) UpdateEventInvokeConfig(ctx context.Context, fqn, destinationARN string) error {
	_, err := a.Lambda.UpdateFunctionEventInvokeConfig(ctx, &lambda.UpdateFunctionEventInvokeConfigInput{
		FunctionName: awssdk.String(fqn),
		DestinationConfig: &types.DestinationConfig{
			OnSuccess: &types.OnSuccess{Destination: awssdk.String(destinationARN)},
		},
	})
	return err
}

func splitS3URI(uri string) (*string, *string) {
	// uri is expected as "s3://bucket/key"; local zip paths are uploaded
	// by the Builder before this is called.
	if len(uri) < 5 || uri[:5] != "s3://" {
		klog.Warningf("function code uri %q is not an s3 uri; expected the builder to have uploaded it", uri)
		return nil, nil
	}
	rest := uri[5:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			bucket := rest[:i]
			key := rest[i+1:]
			return awssdk.String(bucket), awssdk.String(key)
		}
	}
	return awssdk.String(rest), nil
}

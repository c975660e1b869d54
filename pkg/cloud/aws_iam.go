package cloud

import (
	"context"
	"encoding/json"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// DescribePolicy implements RoleRegistry's policy-describe step, used
// both to check existence and to poll attachability (spec.md §4.5).
func (a *AWS) DescribePolicy(ctx context.Context, name string) (PolicyState, error) {
	arn, err := a.policyARNByName(ctx, name)
	if err != nil {
		return PolicyState{}, err
	}
	if arn == "" {
		return PolicyState{}, nil
	}
	out, err := a.IAM.GetPolicy(ctx, &iam.GetPolicyInput{PolicyArn: awssdk.String(arn)})
	if err != nil {
		var nf *types.NoSuchEntityException
		if isNoSuchEntity(err, &nf) {
			return PolicyState{}, nil
		}
		return PolicyState{}, err
	}
	return PolicyState{
		Exists:     true,
		ARN:        arn,
		Attachable: out.Policy.IsAttachable,
	}, nil
}

// policyARNByName lists customer-managed policies and matches by name,
// since GetPolicy requires the full ARN.
func (a *AWS) policyARNByName(ctx context.Context, name string) (string, error) {
	paginator := iam.NewListPoliciesPaginator(a.IAM, &iam.ListPoliciesInput{Scope: types.PolicyScopeTypeLocal})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, p := range page.Policies {
			if awssdk.ToString(p.PolicyName) == name {
				return awssdk.ToString(p.Arn), nil
			}
		}
	}
	return "", nil
}

func (a *AWS) CreatePolicy(ctx context.Context, name string, doc map[string]any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	out, err := a.IAM.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     awssdk.String(name),
		PolicyDocument: awssdk.String(string(data)),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.Policy.Arn), nil
}

func (a *AWS) DeletePolicy(ctx context.Context, arn string) error {
	_, err := a.IAM.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: awssdk.String(arn)})
	var nf *types.NoSuchEntityException
	if isNoSuchEntity(err, &nf) {
		return nil
	}
	return err
}

func (a *AWS) DescribeRole(ctx context.Context, name string) (RoleState, error) {
	out, err := a.IAM.GetRole(ctx, &iam.GetRoleInput{RoleName: awssdk.String(name)})
	if err != nil {
		var nf *types.NoSuchEntityException
		if isNoSuchEntity(err, &nf) {
			return RoleState{}, nil
		}
		return RoleState{}, err
	}
	attached, err := a.IAM.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{RoleName: awssdk.String(name)})
	if err != nil {
		return RoleState{}, err
	}
	return RoleState{
		Exists:          true,
		ARN:             awssdk.ToString(out.Role.Arn),
		AttachmentCount: len(attached.AttachedPolicies),
	}, nil
}

func (a *AWS) CreateRole(ctx context.Context, name string, trustPolicy map[string]any) (string, error) {
	data, err := json.Marshal(trustPolicy)
	if err != nil {
		return "", err
	}
	out, err := a.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 awssdk.String(name),
		AssumeRolePolicyDocument: awssdk.String(string(data)),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.Role.Arn), nil
}

func (a *AWS) AttachPolicy(ctx context.Context, roleName, policyARN string) error {
	_, err := a.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  awssdk.String(roleName),
		PolicyArn: awssdk.String(policyARN),
	})
	return err
}

func (a *AWS) DetachPolicy(ctx context.Context, roleName, policyARN string) error {
	_, err := a.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  awssdk.String(roleName),
		PolicyArn: awssdk.String(policyARN),
	})
	var nf *types.NoSuchEntityException
	if isNoSuchEntity(err, &nf) {
		return nil
	}
	return err
}

func isNoSuchEntity(err error, target **types.NoSuchEntityException) bool {
	if e, ok := err.(*types.NoSuchEntityException); ok {
		*target = e
		return true
	}
	return false
}

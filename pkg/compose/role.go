package compose

import "github.com/tc-functors/tc/pkg/topology"

// defaultTrustPolicy is the standard Lambda assume-role trust document.
var defaultTrustPolicy = map[string]any{
	"Version": "2012-10-17",
	"Statement": []any{
		map[string]any{
			"Effect":    "Allow",
			"Principal": map[string]any{"Service": "lambda.amazonaws.com"},
			"Action":    "sts:AssumeRole",
		},
	},
}

// buildRole lifts a compiler-derived RoleSpec into a composed Role,
// resolving its ARN when an AuthContext is available.
func (c *Composer) buildRole(spec *topology.RoleSpec, namespace, fnName string) *Role {
	if spec == nil {
		spec = &topology.RoleSpec{Kind: topology.RoleBase, Name: "tc-base-lambda-role"}
	}
	role := &Role{
		Kind:        spec.Kind,
		Name:        spec.Name,
		PolicyName:  spec.PolicyName,
		TrustPolicy: spec.TrustPolicy,
		PolicyDoc:   spec.PolicyDoc,
		ARN:         spec.ARN,
	}
	if role.TrustPolicy == nil {
		role.TrustPolicy = defaultTrustPolicy
	}
	if role.ARN == "" && c.Auth != nil {
		role.ARN = c.Auth.RoleARN(role.Name)
	}
	return role
}

package stack

import (
	"fmt"
	"maps"

	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
	"github.com/lex00/satellite-fetcher-aws-go/resources/iam"
	"github.com/lex00/satellite-fetcher-aws-go/resources/lambda"
)

// Architecture is the instruction set the function runs on.
type Architecture string

const (
	ArchX86_64 Architecture = "x86_64"
	ArchARM64  Architecture = "arm64"
)

// BasicExecutionPolicy is the managed policy attached to the execution role.
const BasicExecutionPolicy = "service-role/AWSLambdaBasicExecutionRole"

// DeployableUnitSpec describes the container image function.
type DeployableUnitSpec struct {
	// ImageReference locates the image, typically an Fn::Sub ECR URI.
	ImageReference      any
	MemoryLimitMB       int
	TimeoutSeconds      int
	Architecture        Architecture
	Environment         map[string]string
	ReservedConcurrency int
}

// DeployableUnit is the Lambda function and its execution role.
type DeployableUnit struct {
	id     string
	roleID string
	spec   DeployableUnitSpec
}

// NewDeployableUnit adds the execution role (id + "ServiceRole") and the
// function (id) to the stack.
func NewDeployableUnit(s *Stack, id string, spec DeployableUnitSpec) (*DeployableUnit, error) {
	if spec.ImageReference == nil {
		return nil, fmt.Errorf("%w: %s: image reference is required", ErrInvalidSpec, id)
	}
	if spec.MemoryLimitMB <= 0 || spec.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("%w: %s: memory and timeout must be positive", ErrInvalidSpec, id)
	}
	if spec.Architecture != ArchX86_64 && spec.Architecture != ArchARM64 {
		return nil, fmt.Errorf("%w: %s: unknown architecture %q", ErrInvalidSpec, id, spec.Architecture)
	}

	spec.Environment = maps.Clone(spec.Environment)
	u := &DeployableUnit{id: id, roleID: id + "ServiceRole", spec: spec}

	role := iam.Role{
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
			Effect:    "Allow",
			Principal: intrinsics.ServicePrincipal{"lambda.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}),
		ManagedPolicyArns: []any{intrinsics.ManagedPolicyArn(BasicExecutionPolicy)},
	}
	if err := s.Add(u.roleID, role); err != nil {
		return nil, err
	}

	fn := lambda.Function{
		PackageType:   "Image",
		Code:          &lambda.Function_Code{ImageUri: spec.ImageReference},
		MemorySize:    spec.MemoryLimitMB,
		Timeout:       spec.TimeoutSeconds,
		Architectures: []any{string(spec.Architecture)},
		Role:          u.RoleArn(),
	}
	if len(spec.Environment) > 0 {
		vars := make(map[string]any, len(spec.Environment))
		for k, v := range spec.Environment {
			vars[k] = v
		}
		fn.Environment = &lambda.Function_Environment{Variables: vars}
	}
	if spec.ReservedConcurrency > 0 {
		fn.ReservedConcurrentExecutions = spec.ReservedConcurrency
	}
	if err := s.Add(id, fn, u.roleID); err != nil {
		return nil, err
	}

	return u, nil
}

// ID returns the function's logical ID.
func (u *DeployableUnit) ID() string {
	return u.id
}

// RoleID returns the execution role's logical ID.
func (u *DeployableUnit) RoleID() string {
	return u.roleID
}

// Arn references the function ARN.
func (u *DeployableUnit) Arn() intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: u.id, Attribute: "Arn"}
}

// RoleArn references the execution role ARN.
func (u *DeployableUnit) RoleArn() intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: u.roleID, Attribute: "Arn"}
}

// Spec returns a copy of the unit's spec.
func (u *DeployableUnit) Spec() DeployableUnitSpec {
	spec := u.spec
	spec.Environment = maps.Clone(u.spec.Environment)
	return spec
}

package stack

import (
	"fmt"
	"slices"

	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
	"github.com/lex00/satellite-fetcher-aws-go/resources/lambda"
)

// AuthMode controls who may call the function URL.
type AuthMode string

const (
	// AuthNone allows unauthenticated callers.
	AuthNone AuthMode = "NONE"
	// AuthIAM requires SigV4-signed requests.
	AuthIAM AuthMode = "AWS_IAM"
)

// InvocationEndpointSpec describes the function URL.
type InvocationEndpointSpec struct {
	AuthMode       AuthMode
	AllowedMethods []string
	AllowedHeaders []string
	AllowedOrigins []string
}

// InvocationEndpoint is a direct HTTPS endpoint for a DeployableUnit.
type InvocationEndpoint struct {
	id           string
	permissionID string
	unit         *DeployableUnit
	spec         InvocationEndpointSpec
}

// NewInvocationEndpoint adds the function URL (id) for unit. With AuthNone it
// also adds the public lambda:InvokeFunctionUrl permission.
func NewInvocationEndpoint(s *Stack, id string, unit *DeployableUnit, spec InvocationEndpointSpec) (*InvocationEndpoint, error) {
	if spec.AuthMode != AuthNone && spec.AuthMode != AuthIAM {
		return nil, fmt.Errorf("%w: %s: unknown auth mode %q", ErrInvalidSpec, id, spec.AuthMode)
	}
	spec.AllowedMethods = slices.Clone(spec.AllowedMethods)
	spec.AllowedHeaders = slices.Clone(spec.AllowedHeaders)
	spec.AllowedOrigins = slices.Clone(spec.AllowedOrigins)

	e := &InvocationEndpoint{
		id:   id,
		unit: unit,
		spec: spec,
	}

	url := lambda.Url{
		AuthType:          string(spec.AuthMode),
		TargetFunctionArn: unit.Arn(),
	}
	if len(spec.AllowedMethods)+len(spec.AllowedHeaders)+len(spec.AllowedOrigins) > 0 {
		url.Cors = &lambda.Url_Cors{
			AllowMethods: toAny(spec.AllowedMethods),
			AllowHeaders: toAny(spec.AllowedHeaders),
			AllowOrigins: toAny(spec.AllowedOrigins),
		}
	}
	if err := s.Add(id, url); err != nil {
		return nil, err
	}

	if spec.AuthMode == AuthNone {
		e.permissionID = unit.ID() + "InvokeFunctionUrl"
		perm := lambda.Permission{
			Action:              "lambda:InvokeFunctionUrl",
			FunctionName:        unit.Arn(),
			Principal:           intrinsics.AllPrincipal,
			FunctionUrlAuthType: string(AuthNone),
		}
		if err := s.Add(e.permissionID, perm); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ID returns the function URL's logical ID.
func (e *InvocationEndpoint) ID() string {
	return e.id
}

// PermissionID returns the public invoke permission's logical ID, or "" for
// IAM-authenticated endpoints.
func (e *InvocationEndpoint) PermissionID() string {
	return e.permissionID
}

// URL references the endpoint's HTTPS URL.
func (e *InvocationEndpoint) URL() intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: e.id, Attribute: "FunctionUrl"}
}

// Unit returns the function the endpoint invokes.
func (e *InvocationEndpoint) Unit() *DeployableUnit {
	return e.unit
}

// Spec returns a copy of the endpoint's spec.
func (e *InvocationEndpoint) Spec() InvocationEndpointSpec {
	spec := e.spec
	spec.AllowedMethods = slices.Clone(e.spec.AllowedMethods)
	spec.AllowedHeaders = slices.Clone(e.spec.AllowedHeaders)
	spec.AllowedOrigins = slices.Clone(e.spec.AllowedOrigins)
	return spec
}

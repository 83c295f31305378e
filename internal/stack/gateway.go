package stack

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/lex00/satellite-fetcher-aws-go/internal/serialize"
	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
	"github.com/lex00/satellite-fetcher-aws-go/resources/apigateway"
	"github.com/lex00/satellite-fetcher-aws-go/resources/lambda"
)

// TestInvokeStage is the pseudo-stage the console's test button invokes through.
const TestInvokeStage = "test-invoke-stage"

// Route is one path segment beneath the gateway root, handled by the unit.
type Route struct {
	PathPart string
	Method   string
}

// GatewaySpec describes the REST API.
type GatewaySpec struct {
	Name        string
	Description string
	StageName   string
	Routes      []Route
	// Throttling applies to every method of the stage when either limit is set.
	ThrottlingRateLimit  float64
	ThrottlingBurstLimit int
}

// RouteIDs are the logical IDs generated for one route.
type RouteIDs struct {
	Resource       string
	Method         string
	Permission     string
	TestPermission string
}

// RoutedGateway is a REST API whose routes all proxy to one DeployableUnit.
type RoutedGateway struct {
	id           string
	deploymentID string
	stageID      string
	routes       []RouteIDs
	unit         *DeployableUnit
	spec         GatewaySpec
}

// NewRoutedGateway adds the REST API (id) and, per route, a resource, a GET
// (or other) method with an AWS_PROXY integration, and invoke permissions for
// the stage and for test invocations. A deployment depending on every method
// and a stage complete the gateway.
//
// Path parts must be unique; duplicates fail with ErrDuplicatePath.
func NewRoutedGateway(s *Stack, id string, unit *DeployableUnit, spec GatewaySpec) (*RoutedGateway, error) {
	if spec.StageName == "" {
		return nil, fmt.Errorf("%w: %s: stage name is required", ErrInvalidSpec, id)
	}
	if len(spec.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one route is required", ErrInvalidSpec, id)
	}
	seen := make(map[string]bool, len(spec.Routes))
	for _, r := range spec.Routes {
		if r.PathPart == "" || r.Method == "" {
			return nil, fmt.Errorf("%w: %s: route needs a path part and a method", ErrInvalidSpec, id)
		}
		if seen[r.PathPart] {
			return nil, fmt.Errorf("%w: %s: /%s", ErrDuplicatePath, id, r.PathPart)
		}
		seen[r.PathPart] = true
	}
	spec.Routes = slices.Clone(spec.Routes)

	g := &RoutedGateway{id: id, unit: unit, spec: spec}

	api := apigateway.RestApi{
		Name:        spec.Name,
		Description: spec.Description,
	}
	if err := s.Add(id, api); err != nil {
		return nil, err
	}

	apiRef := intrinsics.Ref{LogicalName: id}
	g.stageID = id + "DeploymentStage" + logicalID(spec.StageName)
	stageRef := intrinsics.Ref{LogicalName: g.stageID}

	var deploymentDeps []string
	fingerprint := sha256.New()

	for _, r := range spec.Routes {
		method := strings.ToUpper(r.Method)
		ids := RouteIDs{Resource: id + logicalID(r.PathPart)}
		ids.Method = ids.Resource + method
		ids.Permission = ids.Method + "ApiPermission"
		ids.TestPermission = ids.Method + "ApiPermissionTest"

		resource := apigateway.Resource{
			RestApiId: apiRef,
			ParentId:  intrinsics.GetAtt{LogicalName: id, Attribute: "RootResourceId"},
			PathPart:  r.PathPart,
		}
		if err := s.Add(ids.Resource, resource); err != nil {
			return nil, err
		}

		m := apigateway.Method{
			RestApiId:         apiRef,
			ResourceId:        intrinsics.Ref{LogicalName: ids.Resource},
			HttpMethod:        method,
			AuthorizationType: "NONE",
			Integration: &apigateway.Method_Integration{
				Type_:                 "AWS_PROXY",
				IntegrationHttpMethod: "POST",
				Uri:                   intrinsics.LambdaInvocationURI(unit.Arn()),
			},
		}
		if err := s.Add(ids.Method, m); err != nil {
			return nil, err
		}
		if err := writeFingerprint(fingerprint, ids.Resource, resource, ids.Method, m); err != nil {
			return nil, err
		}

		path := "/" + r.PathPart
		for permID, stage := range map[string]any{ids.Permission: stageRef, ids.TestPermission: TestInvokeStage} {
			perm := lambda.Permission{
				Action:       "lambda:InvokeFunction",
				FunctionName: unit.Arn(),
				Principal:    "apigateway.amazonaws.com",
				SourceArn:    intrinsics.ExecuteAPIArn(apiRef, stage, method, path),
			}
			if err := s.Add(permID, perm); err != nil {
				return nil, err
			}
		}

		g.routes = append(g.routes, ids)
		deploymentDeps = append(deploymentDeps, ids.Method, ids.Resource)
	}

	g.deploymentID = id + "Deployment" + hex.EncodeToString(fingerprint.Sum(nil))[:8]
	deployment := apigateway.Deployment{
		RestApiId:   apiRef,
		Description: spec.Description,
	}
	if err := s.Add(g.deploymentID, deployment, deploymentDeps...); err != nil {
		return nil, err
	}

	stage := apigateway.Stage{
		RestApiId:    apiRef,
		DeploymentId: intrinsics.Ref{LogicalName: g.deploymentID},
		StageName:    spec.StageName,
	}
	if spec.ThrottlingRateLimit > 0 || spec.ThrottlingBurstLimit > 0 {
		setting := apigateway.Stage_MethodSetting{
			HttpMethod:   "*",
			ResourcePath: "/*",
		}
		if spec.ThrottlingRateLimit > 0 {
			setting.ThrottlingRateLimit = spec.ThrottlingRateLimit
		}
		if spec.ThrottlingBurstLimit > 0 {
			setting.ThrottlingBurstLimit = spec.ThrottlingBurstLimit
		}
		stage.MethodSettings = []any{setting}
	}
	if err := s.Add(g.stageID, stage); err != nil {
		return nil, err
	}

	return g, nil
}

// writeFingerprint feeds the serialized route resources into h so that the
// deployment ID changes whenever a route or its integration changes.
func writeFingerprint(h io.Writer, kv ...any) error {
	for i := 0; i+1 < len(kv); i += 2 {
		props, err := serialize.Resource(kv[i+1])
		if err != nil {
			return err
		}
		data, err := json.Marshal(props)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s=%s\n", kv[i], data)
	}
	return nil
}

// ID returns the REST API's logical ID.
func (g *RoutedGateway) ID() string {
	return g.id
}

// DeploymentID returns the deployment's logical ID, which embeds the route fingerprint.
func (g *RoutedGateway) DeploymentID() string {
	return g.deploymentID
}

// StageID returns the stage's logical ID.
func (g *RoutedGateway) StageID() string {
	return g.stageID
}

// Routes returns the logical IDs generated for each route, in route order.
func (g *RoutedGateway) Routes() []RouteIDs {
	return slices.Clone(g.routes)
}

// Unit returns the function every route proxies to.
func (g *RoutedGateway) Unit() *DeployableUnit {
	return g.unit
}

// Spec returns a copy of the gateway's spec.
func (g *RoutedGateway) Spec() GatewaySpec {
	spec := g.spec
	spec.Routes = slices.Clone(g.spec.Routes)
	return spec
}

// URL builds https://{api}.execute-api.{region}.{suffix}/{stage}/.
func (g *RoutedGateway) URL() intrinsics.Join {
	return intrinsics.Join{
		Delimiter: "",
		Values: []any{
			"https://",
			intrinsics.Ref{LogicalName: g.id},
			".execute-api.",
			intrinsics.AWS_REGION,
			".",
			intrinsics.AWS_URL_SUFFIX,
			"/",
			intrinsics.Ref{LogicalName: g.stageID},
			"/",
		},
	}
}

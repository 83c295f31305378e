package apigateway

// RestApi represents an AWS::ApiGateway::RestApi resource.
//
// Attributes: RestApiId, RootResourceId.
type RestApi struct {
	Description           any                            `json:"Description,omitempty"`
	EndpointConfiguration *RestApi_EndpointConfiguration `json:"EndpointConfiguration,omitempty"`
	Name                  any                            `json:"Name,omitempty"`
	Tags                  []any                          `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r RestApi) ResourceType() string {
	return "AWS::ApiGateway::RestApi"
}

// RestApi_EndpointConfiguration selects EDGE, REGIONAL or PRIVATE endpoints.
type RestApi_EndpointConfiguration struct {
	Types []any `json:"Types,omitempty"`
}

package apigateway

// Method represents an AWS::ApiGateway::Method resource.
type Method struct {
	ApiKeyRequired    any                 `json:"ApiKeyRequired,omitempty"`
	AuthorizationType any                 `json:"AuthorizationType,omitempty"`
	HttpMethod        any                 `json:"HttpMethod,omitempty"`
	Integration       *Method_Integration `json:"Integration,omitempty"`
	ResourceId        any                 `json:"ResourceId,omitempty"`
	RestApiId         any                 `json:"RestApiId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Method) ResourceType() string {
	return "AWS::ApiGateway::Method"
}

// Method_Integration is the backend a method forwards to.
// For Lambda proxy integrations Type_ is AWS_PROXY and IntegrationHttpMethod is POST.
type Method_Integration struct {
	IntegrationHttpMethod any `json:"IntegrationHttpMethod,omitempty"`
	TimeoutInMillis       any `json:"TimeoutInMillis,omitempty"`
	Type_                 any `json:"Type,omitempty"`
	Uri                   any `json:"Uri,omitempty"`
}

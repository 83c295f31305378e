package apigateway

// Stage represents an AWS::ApiGateway::Stage resource.
type Stage struct {
	DeploymentId   any   `json:"DeploymentId,omitempty"`
	Description    any   `json:"Description,omitempty"`
	MethodSettings []any `json:"MethodSettings,omitempty"`
	RestApiId      any   `json:"RestApiId,omitempty"`
	StageName      any   `json:"StageName,omitempty"`
	TracingEnabled any   `json:"TracingEnabled,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Stage) ResourceType() string {
	return "AWS::ApiGateway::Stage"
}

// Stage_MethodSetting configures throttling and caching for matching methods.
// ResourcePath "/*" with HttpMethod "*" applies to every method.
type Stage_MethodSetting struct {
	HttpMethod           any `json:"HttpMethod,omitempty"`
	ResourcePath         any `json:"ResourcePath,omitempty"`
	ThrottlingBurstLimit any `json:"ThrottlingBurstLimit,omitempty"`
	ThrottlingRateLimit  any `json:"ThrottlingRateLimit,omitempty"`
}

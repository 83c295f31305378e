package apigateway

// Resource represents an AWS::ApiGateway::Resource resource, one path segment
// beneath ParentId.
type Resource struct {
	ParentId  any `json:"ParentId,omitempty"`
	PathPart  any `json:"PathPart,omitempty"`
	RestApiId any `json:"RestApiId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Resource) ResourceType() string {
	return "AWS::ApiGateway::Resource"
}

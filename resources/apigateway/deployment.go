package apigateway

// Deployment represents an AWS::ApiGateway::Deployment resource.
//
// A deployment is an immutable snapshot; a new logical ID is needed to publish
// changed routes.
type Deployment struct {
	Description any `json:"Description,omitempty"`
	RestApiId   any `json:"RestApiId,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Deployment) ResourceType() string {
	return "AWS::ApiGateway::Deployment"
}

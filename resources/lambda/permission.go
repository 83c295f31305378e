package lambda

// Permission represents an AWS::Lambda::Permission resource.
type Permission struct {
	Action              any `json:"Action,omitempty"`
	FunctionName        any `json:"FunctionName,omitempty"`
	FunctionUrlAuthType any `json:"FunctionUrlAuthType,omitempty"`
	Principal           any `json:"Principal,omitempty"`
	SourceAccount       any `json:"SourceAccount,omitempty"`
	SourceArn           any `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Permission) ResourceType() string {
	return "AWS::Lambda::Permission"
}

package lambda

// Url represents an AWS::Lambda::Url resource.
//
// Attributes: FunctionArn, FunctionUrl.
type Url struct {
	AuthType          any       `json:"AuthType,omitempty"`
	Cors              *Url_Cors `json:"Cors,omitempty"`
	InvokeMode        any       `json:"InvokeMode,omitempty"`
	Qualifier         any       `json:"Qualifier,omitempty"`
	TargetFunctionArn any       `json:"TargetFunctionArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Url) ResourceType() string {
	return "AWS::Lambda::Url"
}

// Url_Cors is the cross-origin configuration of a function URL.
type Url_Cors struct {
	AllowCredentials any   `json:"AllowCredentials,omitempty"`
	AllowHeaders     []any `json:"AllowHeaders,omitempty"`
	AllowMethods     []any `json:"AllowMethods,omitempty"`
	AllowOrigins     []any `json:"AllowOrigins,omitempty"`
	ExposeHeaders    []any `json:"ExposeHeaders,omitempty"`
	MaxAge           any   `json:"MaxAge,omitempty"`
}

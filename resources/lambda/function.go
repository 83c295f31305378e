package lambda

// Function represents an AWS::Lambda::Function resource.
//
// Only container image packaging is modeled; Code.ImageUri points at an ECR image.
type Function struct {
	// Architectures is "x86_64" or "arm64".
	Architectures                []any                 `json:"Architectures,omitempty"`
	Code                         *Function_Code        `json:"Code,omitempty"`
	Description                  any                   `json:"Description,omitempty"`
	Environment                  *Function_Environment `json:"Environment,omitempty"`
	FunctionName                 any                   `json:"FunctionName,omitempty"`
	MemorySize                   any                   `json:"MemorySize,omitempty"`
	PackageType                  any                   `json:"PackageType,omitempty"`
	ReservedConcurrentExecutions any                   `json:"ReservedConcurrentExecutions,omitempty"`
	Role                         any                   `json:"Role,omitempty"`
	Tags                         []any                 `json:"Tags,omitempty"`
	Timeout                      any                   `json:"Timeout,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Function) ResourceType() string {
	return "AWS::Lambda::Function"
}

// Function_Code is the deployment package of a function.
type Function_Code struct {
	ImageUri any `json:"ImageUri,omitempty"`
}

// Function_Environment holds environment variables visible to the function code.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

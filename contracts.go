// Package satfetch declares the satellite-fetcher serverless API as Go values and
// synthesizes it into an AWS CloudFormation template.
//
// The stack is a containerized Lambda function exposed two ways:
//
//	DockerFunc            AWS::Lambda::Function (PackageType Image)
//	DockerFuncFunctionUrl AWS::Lambda::Url      (direct, unauthenticated)
//	SatelliteFetcherAwsApi AWS::ApiGateway::RestApi with /fire, /lightning, /rain
//
// The satfetch CLI builds the resource graph from configuration and emits the
// template, asset manifest, dependency graph, lint and optimization reports.
package satfetch

// Resource represents a CloudFormation resource.
// All resource types (lambda.Function, apigateway.RestApi, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::Lambda::Function")
	ResourceType() string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// OutputExport names a cross-stack export. Outputs are exported when
// stack.export_prefix is configured.
type OutputExport struct {
	Name string `json:"Name" yaml:"Name"`
}

// BuildResult is the JSON output from `satfetch synth`.
type BuildResult struct {
	Success  bool     `json:"success"`
	Template Template `json:"template,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// LintResult is the JSON output from `satfetch lint`.
type LintResult struct {
	Success bool        `json:"success"`
	Issues  []LintIssue `json:"issues,omitempty"`
}

// LintIssue is a single linting issue.
type LintIssue struct {
	Resource string `json:"resource,omitempty"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Rule     string `json:"rule"`
}

// ValidateResult is the JSON output from `satfetch validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `satfetch list`.
type ListResult struct {
	Resources []ListResource `json:"resources"`
}

// ListResource is a single resource in the list output.
type ListResource struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// TemplateDiff groups resource-level changes between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
	Outputs  []string    `json:"outputs,omitempty"`
}

// DiffEntry describes one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts changes by kind.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// DiffResult is the JSON output from `satfetch diff`.
type DiffResult struct {
	Diff    TemplateDiff `json:"diff"`
	Summary DiffSummary  `json:"summary"`
}

// OptimizeSuggestion is a single optimization finding.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"` // "security", "cost", "performance", "reliability"
	Severity    string `json:"severity"` // "high", "medium", "low"
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary tallies suggestions by category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Performance int `json:"performance"`
	Reliability int `json:"reliability"`
	Total       int `json:"total"`
}

// OptimizeResult is the JSON output from `satfetch optimize`.
type OptimizeResult struct {
	Suggestions []OptimizeSuggestion `json:"suggestions"`
	Summary     OptimizeSummary      `json:"summary"`
}

// AssetManifest describes the container image assets a template depends on.
// The layout matches the cloud assembly asset manifest consumed by publishing tools.
type AssetManifest struct {
	Version      string                      `json:"version"`
	DockerImages map[string]DockerImageAsset `json:"dockerImages"`
}

// DockerImageAsset is one container image built from a local directory.
type DockerImageAsset struct {
	Source       DockerImageSource                      `json:"source"`
	Destinations map[string]DockerImageAssetDestination `json:"destinations"`
}

// DockerImageSource locates the build context.
type DockerImageSource struct {
	Directory  string `json:"directory"`
	DockerFile string `json:"dockerFile,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

// DockerImageAssetDestination is the repository an asset is published to.
type DockerImageAssetDestination struct {
	RepositoryName string `json:"repositoryName"`
	ImageTag       string `json:"imageTag"`
	AssumeRoleArn  string `json:"assumeRoleArn,omitempty"`
}

// OutputsResult is the JSON output from `satfetch outputs`.
type OutputsResult struct {
	Success bool          `json:"success"`
	Outputs []OutputCheck `json:"outputs"`
}

// OutputCheck reports on one deployed stack output.
type OutputCheck struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

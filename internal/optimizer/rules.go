package optimizer

import (
	"fmt"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

// functionURLRules contains optimization rules for Lambda function URLs.
var functionURLRules = []Rule{
	{
		ID:          "OPT-URL-001",
		Category:    "security",
		Title:       "Function URL allows unauthenticated access",
		Description: "AuthType NONE lets anyone on the internet invoke the function",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			if def.Properties["AuthType"] != "NONE" {
				return nil
			}
			return &satfetch.OptimizeSuggestion{
				Severity:    "high",
				Description: "The function URL uses AuthType NONE, so every request reaches the function without authentication.",
				Suggestion:  "Set endpoint.auth_mode to AWS_IAM, or keep NONE only if the endpoint is meant to be public.",
			}
		},
	},
	{
		ID:          "OPT-URL-002",
		Category:    "security",
		Title:       "Function URL CORS allows all origins",
		Description: "A wildcard origin lets any website call the endpoint from a browser",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			cors, _ := def.Properties["Cors"].(map[string]any)
			if !containsString(cors["AllowOrigins"], "*") {
				return nil
			}
			return &satfetch.OptimizeSuggestion{
				Severity:    "medium",
				Description: "Cors.AllowOrigins contains \"*\".",
				Suggestion:  "List the browser origins that need access in endpoint.allowed_origins.",
			}
		},
	},
}

// apiGatewayMethodRules contains optimization rules for REST API methods.
var apiGatewayMethodRules = []Rule{
	{
		ID:          "OPT-APIGW-001",
		Category:    "security",
		Title:       "REST method has no authorization",
		Description: "AuthorizationType NONE leaves the method open to anonymous callers",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			if def.Properties["AuthorizationType"] != "NONE" {
				return nil
			}
			method, _ := def.Properties["HttpMethod"].(string)
			return &satfetch.OptimizeSuggestion{
				Severity:    "medium",
				Description: fmt.Sprintf("The %s method accepts unauthenticated requests.", method),
				Suggestion:  "Attach an authorizer or require an API key, or keep NONE only for public data.",
			}
		},
	},
}

// apiGatewayStageRules contains optimization rules for REST API stages.
var apiGatewayStageRules = []Rule{
	{
		ID:          "OPT-APIGW-002",
		Category:    "performance",
		Title:       "Stage has no throttling",
		Description: "Without method throttling a burst of requests is limited only by account defaults",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			settings, _ := def.Properties["MethodSettings"].([]any)
			for _, s := range settings {
				m, _ := s.(map[string]any)
				if _, ok := m["ThrottlingRateLimit"]; ok {
					return nil
				}
				if _, ok := m["ThrottlingBurstLimit"]; ok {
					return nil
				}
			}
			return &satfetch.OptimizeSuggestion{
				Severity:    "low",
				Description: "The stage defines no MethodSettings throttling limits.",
				Suggestion:  "Set gateway.throttling_rate_limit and gateway.throttling_burst_limit.",
			}
		},
	},
}

// lambdaFunctionRules contains optimization rules for Lambda functions.
var lambdaFunctionRules = []Rule{
	{
		ID:          "OPT-LAMBDA-001",
		Category:    "cost",
		Title:       "Function runs on x86_64",
		Description: "arm64 (Graviton) functions cost less per GB-second",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			archs, ok := def.Properties["Architectures"]
			if ok && !containsString(archs, "x86_64") {
				return nil
			}
			return &satfetch.OptimizeSuggestion{
				Severity:    "low",
				Description: "The function runs on x86_64, the default when Architectures is unset.",
				Suggestion:  "Set function.architecture to arm64 and build the image for linux/arm64.",
			}
		},
	},
	{
		ID:          "OPT-LAMBDA-002",
		Category:    "reliability",
		Title:       "Public function has no reserved concurrency",
		Description: "A public endpoint without a concurrency cap can exhaust the account limit",
		Check: func(t *satfetch.Template, name string, def satfetch.ResourceDef) *satfetch.OptimizeSuggestion {
			if _, ok := def.Properties["ReservedConcurrentExecutions"]; ok {
				return nil
			}
			if !publiclyInvocable(t, name) {
				return nil
			}
			return &satfetch.OptimizeSuggestion{
				Severity:    "medium",
				Description: "An unauthenticated function URL targets this function and no ReservedConcurrentExecutions is set.",
				Suggestion:  "Set function.reserved_concurrency to bound concurrent executions.",
			}
		},
	},
}

// publiclyInvocable reports whether an AuthType NONE function URL targets fn.
func publiclyInvocable(t *satfetch.Template, fn string) bool {
	for _, def := range t.Resources {
		if def.Type != "AWS::Lambda::Url" || def.Properties["AuthType"] != "NONE" {
			continue
		}
		for _, ref := range template.ReferencesIn(def.Properties["TargetFunctionArn"]) {
			if ref.Target == fn {
				return true
			}
		}
	}
	return false
}

func containsString(v any, want string) bool {
	switch list := v.(type) {
	case []any:
		for _, elem := range list {
			if elem == want {
				return true
			}
		}
	case []string:
		for _, elem := range list {
			if elem == want {
				return true
			}
		}
	}
	return false
}

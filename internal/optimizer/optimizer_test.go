package optimizer

import (
	"testing"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/config"
	"github.com/lex00/satellite-fetcher-aws-go/internal/stack"
)

func synth(t *testing.T, cfg *config.Config) *satfetch.Template {
	t.Helper()
	sat, err := stack.NewSatellite(cfg, "123456789012.dkr.ecr.us-east-1.amazonaws.com/repo:tag")
	if err != nil {
		t.Fatalf("NewSatellite() error = %v", err)
	}
	tmpl, err := sat.Stack.Synth()
	if err != nil {
		t.Fatalf("Synth() error = %v", err)
	}
	return tmpl
}

func rulesFired(result *Result) map[string]int {
	fired := make(map[string]int)
	for _, s := range result.Suggestions {
		fired[s.Rule]++
	}
	return fired
}

func TestOptimize(t *testing.T) {
	result, err := Optimize(synth(t, config.Default()), Options{Category: "all"})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	fired := rulesFired(result)
	want := map[string]int{
		"OPT-URL-001":    1,
		"OPT-URL-002":    1,
		"OPT-APIGW-001":  3,
		"OPT-APIGW-002":  1,
		"OPT-LAMBDA-002": 1,
	}
	for rule, n := range want {
		if fired[rule] != n {
			t.Errorf("%s fired %d times, want %d", rule, fired[rule], n)
		}
	}
	// Default architecture is arm64
	if fired["OPT-LAMBDA-001"] != 0 {
		t.Error("did not expect OPT-LAMBDA-001 for arm64 function")
	}

	if result.Summary.Total != 7 {
		t.Errorf("Summary.Total = %d, want 7", result.Summary.Total)
	}
	if result.Summary.Security != 5 {
		t.Errorf("Summary.Security = %d, want 5", result.Summary.Security)
	}

	for _, s := range result.Suggestions {
		if s.Resource == "" || s.Title == "" || s.Severity == "" {
			t.Errorf("incomplete suggestion: %+v", s)
		}
	}
}

func TestOptimizeHardenedConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint.AuthMode = "AWS_IAM"
	cfg.Endpoint.AllowedOrigins = []string{"https://example.com"}
	cfg.Gateway.ThrottlingRateLimit = 10
	cfg.Gateway.ThrottlingBurstLimit = 20

	result, err := Optimize(synth(t, cfg), Options{})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	fired := rulesFired(result)
	for _, rule := range []string{"OPT-URL-001", "OPT-URL-002", "OPT-APIGW-002", "OPT-LAMBDA-002"} {
		if fired[rule] != 0 {
			t.Errorf("%s fired for hardened config", rule)
		}
	}
}

func TestOptimizeWithCategoryFilter(t *testing.T) {
	result, err := Optimize(synth(t, config.Default()), Options{Category: "reliability"})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	for _, s := range result.Suggestions {
		if s.Category != "reliability" {
			t.Errorf("expected only reliability suggestions, got %s", s.Category)
		}
	}
	if result.Summary.Reliability != 1 || result.Summary.Total != 1 {
		t.Errorf("Summary = %+v, want one reliability suggestion", result.Summary)
	}
}

func TestOptimizeEmpty(t *testing.T) {
	result, err := Optimize(&satfetch.Template{}, Options{Category: "all"})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if len(result.Suggestions) != 0 {
		t.Errorf("expected no suggestions, got %d", len(result.Suggestions))
	}
}

func TestLambdaArchitectureRule(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  bool
	}{
		{"x86_64", map[string]any{"Architectures": []any{"x86_64"}}, true},
		{"arm64", map[string]any{"Architectures": []any{"arm64"}}, false},
		{"unset defaults to x86_64", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
				"DockerFunc": {Type: "AWS::Lambda::Function", Properties: tt.props},
			}}
			result, err := Optimize(tmpl, Options{Category: "cost"})
			if err != nil {
				t.Fatalf("Optimize() error = %v", err)
			}
			got := rulesFired(result)["OPT-LAMBDA-001"] == 1
			if got != tt.want {
				t.Errorf("OPT-LAMBDA-001 fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateSummary(t *testing.T) {
	suggestions := []satfetch.OptimizeSuggestion{
		{Category: "security"},
		{Category: "security"},
		{Category: "cost"},
		{Category: "performance"},
		{Category: "reliability"},
	}

	summary := calculateSummary(suggestions)

	if summary.Security != 2 {
		t.Errorf("Security = %d, want 2", summary.Security)
	}
	if summary.Cost != 1 {
		t.Errorf("Cost = %d, want 1", summary.Cost)
	}
	if summary.Performance != 1 {
		t.Errorf("Performance = %d, want 1", summary.Performance)
	}
	if summary.Reliability != 1 {
		t.Errorf("Reliability = %d, want 1", summary.Reliability)
	}
	if summary.Total != 5 {
		t.Errorf("Total = %d, want 5", summary.Total)
	}
}

func TestAllRulesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range AllRules() {
		if seen[r.ID] {
			t.Errorf("duplicate rule ID %s", r.ID)
		}
		seen[r.ID] = true
	}
	if len(seen) != 6 {
		t.Errorf("got %d rules, want 6", len(seen))
	}
}

package differ

import (
	"os"
	"path/filepath"
	"testing"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
)

func TestCompare(t *testing.T) {
	t1 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"DockerFunc":                 {Type: "AWS::Lambda::Function", Properties: map[string]any{"MemorySize": 1024}},
			"SatelliteFetcherAwsApiRain": {Type: "AWS::ApiGateway::Resource", Properties: map[string]any{"PathPart": "rain"}},
		},
	}

	t2 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"DockerFunc":                  {Type: "AWS::Lambda::Function", Properties: map[string]any{"MemorySize": 2048}},
			"SatelliteFetcherAwsApiSmoke": {Type: "AWS::ApiGateway::Resource", Properties: map[string]any{"PathPart": "smoke"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "SatelliteFetcherAwsApiRain" {
		t.Errorf("Removed[0].Resource = %s, want SatelliteFetcherAwsApiRain", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Resource != "SatelliteFetcherAwsApiSmoke" {
		t.Errorf("Added[0].Resource = %s, want SatelliteFetcherAwsApiSmoke", result.Diff.Added[0].Resource)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if result.Diff.Modified[0].Resource != "DockerFunc" {
		t.Errorf("Modified[0].Resource = %s, want DockerFunc", result.Diff.Modified[0].Resource)
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"DockerFunc": {Type: "AWS::Lambda::Function", Properties: map[string]any{"PackageType": "Image"}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0 for identical templates", result.Summary.Total)
	}
}

func TestCompareEmpty(t *testing.T) {
	t1 := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{}}
	t2 := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}

	if _, err := Compare(nil, t2, Options{}); err == nil {
		t.Error("expected error for nil template")
	}
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"Permission": {Type: "AWS::Lambda::Permission"},
		},
	}

	t2 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"Permission": {Type: "AWS::Lambda::Url"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	found := false
	for _, change := range result.Diff.Modified[0].Changes {
		if change == "Type changed: AWS::Lambda::Permission → AWS::Lambda::Url" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected type change to be detected")
	}
}

func TestCompareProperties(t *testing.T) {
	tests := []struct {
		name    string
		props1  map[string]any
		props2  map[string]any
		opts    Options
		want    []string
	}{
		{
			name:   "identical",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{"Key": "value"},
		},
		{
			name:   "added property",
			props1: map[string]any{},
			props2: map[string]any{"Key": "value"},
			want:   []string{"Key added"},
		},
		{
			name:   "removed property",
			props1: map[string]any{"Key": "value"},
			props2: map[string]any{},
			want:   []string{"Key removed"},
		},
		{
			name:   "modified property",
			props1: map[string]any{"Key": "value1"},
			props2: map[string]any{"Key": "value2"},
			want:   []string{"Key modified"},
		},
		{
			name:   "nested path",
			props1: map[string]any{"Code": map[string]any{"ImageUri": map[string]any{"Fn::Sub": "repo:aaa"}}},
			props2: map[string]any{"Code": map[string]any{"ImageUri": map[string]any{"Fn::Sub": "repo:bbb"}}},
			want:   []string{"Code.ImageUri modified"},
		},
		{
			name:   "numbers compare by value",
			props1: map[string]any{"MemorySize": int64(1024), "Timeout": 30},
			props2: map[string]any{"MemorySize": float64(1024), "Timeout": float64(30)},
		},
		{
			name:   "order matters by default",
			props1: map[string]any{"AllowMethods": []any{"GET", "POST"}},
			props2: map[string]any{"AllowMethods": []any{"POST", "GET"}},
			want:   []string{"AllowMethods modified"},
		},
		{
			name:   "ignore order",
			props1: map[string]any{"AllowMethods": []any{"GET", "POST"}},
			props2: map[string]any{"AllowMethods": []any{"POST", "GET"}},
			opts:   Options{IgnoreOrder: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := compareProperties("", tt.props1, tt.props2, tt.opts)
			if len(changes) != len(tt.want) {
				t.Fatalf("compareProperties() = %v, want %v", changes, tt.want)
			}
			for i := range changes {
				if changes[i] != tt.want[i] {
					t.Errorf("change[%d] = %q, want %q", i, changes[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompareOutputs(t *testing.T) {
	t1 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{},
		Outputs: map[string]satfetch.Output{
			"FunctionUrl":   {Value: map[string]any{"Fn::GetAtt": []any{"DockerFuncFunctionUrl", "FunctionUrl"}}},
			"ApiGatewayUrl": {Value: "https://old"},
		},
	}
	t2 := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{},
		Outputs: map[string]satfetch.Output{
			"FunctionUrl":   {Value: map[string]any{"Fn::GetAtt": []any{"DockerFuncFunctionUrl", "FunctionUrl"}}},
			"ApiGatewayUrl": {Value: "https://new"},
			"ImageUri":      {Value: "repo:tag"},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	want := []string{"ApiGatewayUrl modified", "ImageUri added"}
	if len(result.Diff.Outputs) != len(want) {
		t.Fatalf("Outputs = %v, want %v", result.Diff.Outputs, want)
	}
	for i := range want {
		if result.Diff.Outputs[i] != want[i] {
			t.Errorf("Outputs[%d] = %q, want %q", i, result.Diff.Outputs[i], want[i])
		}
	}
}

func TestCompareDependsOnOrder(t *testing.T) {
	t1 := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
		"Deployment": {Type: "AWS::ApiGateway::Deployment", DependsOn: []string{"A", "B"}},
	}}
	t2 := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
		"Deployment": {Type: "AWS::ApiGateway::Deployment", DependsOn: []string{"B", "A"}},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("DependsOn order should not count as a change, got %+v", result.Diff.Modified)
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "a.json")
	yamlFile := filepath.Join(dir, "b.yaml")

	if err := os.WriteFile(jsonFile, []byte(`{"Resources": {"DockerFunc": {"Type": "AWS::Lambda::Function", "Properties": {"MemorySize": 1024}}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlFile, []byte("Resources:\n  DockerFunc:\n    Type: AWS::Lambda::Function\n    Properties:\n      MemorySize: 1024\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := CompareFiles(jsonFile, yamlFile, Options{})
	if err != nil {
		t.Fatalf("CompareFiles() error = %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("JSON and YAML forms of the same template differ: %+v", result.Diff)
	}

	if _, err := CompareFiles(jsonFile, filepath.Join(dir, "missing.json"), Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEqualStringSlices(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{[]string{}, []string{}, true},
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		got := equalStringSlices(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("equalStringSlices(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

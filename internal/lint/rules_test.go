package lint

import (
	"encoding/json"
	"testing"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) map[string]any { return map[string]any{"Ref": name} }

func getAtt(name, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{name, attr}}
}

func TestUndefinedReference(t *testing.T) {
	tests := []struct {
		name      string
		props     map[string]any
		outputs   map[string]satfetch.Output
		wantCount int
		wantOwner string
	}{
		{
			name:  "defined ref",
			props: map[string]any{"RestApiId": ref("Api")},
		},
		{
			name:  "pseudo parameter",
			props: map[string]any{"Region": ref("AWS::Region")},
		},
		{
			name:      "undefined ref",
			props:     map[string]any{"RestApiId": ref("MissingApi")},
			wantCount: 1,
			wantOwner: "Method",
		},
		{
			name:      "undefined getatt",
			props:     map[string]any{"Uri": getAtt("MissingFunc", "Arn")},
			wantCount: 1,
			wantOwner: "Method",
		},
		{
			name:      "undefined sub variable",
			props:     map[string]any{"Uri": map[string]any{"Fn::Sub": "arn:${AWS::Partition}:${MissingFunc.Arn}"}},
			wantCount: 1,
			wantOwner: "Method",
		},
		{
			name:      "repeated target reported once",
			props:     map[string]any{"A": ref("Gone"), "B": ref("Gone")},
			wantCount: 1,
			wantOwner: "Method",
		},
		{
			name:      "output reference",
			props:     map[string]any{},
			outputs:   map[string]satfetch.Output{"ApiGatewayUrl": {Value: ref("MissingStage")}},
			wantCount: 1,
			wantOwner: "Outputs.ApiGatewayUrl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &satfetch.Template{
				Resources: map[string]satfetch.ResourceDef{
					"Api":    {Type: "AWS::ApiGateway::RestApi"},
					"Method": {Type: "AWS::ApiGateway::Method", Properties: tt.props},
				},
				Outputs: tt.outputs,
			}
			issues := UndefinedReference{}.Check(tmpl)
			require.Len(t, issues, tt.wantCount)
			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantOwner, issues[0].Resource)
				assert.Equal(t, SeverityError, issues[0].Severity)
				assert.Equal(t, "SFL001", issues[0].Rule)
			}
		})
	}
}

func TestDuplicatePathPart(t *testing.T) {
	resource := func(part string, parent any) satfetch.ResourceDef {
		return satfetch.ResourceDef{
			Type: "AWS::ApiGateway::Resource",
			Properties: map[string]any{
				"PathPart":  part,
				"ParentId":  parent,
				"RestApiId": ref("Api"),
			},
		}
	}
	root := getAtt("Api", "RootResourceId")

	tmpl := &satfetch.Template{
		Resources: map[string]satfetch.ResourceDef{
			"Api":      {Type: "AWS::ApiGateway::RestApi"},
			"ApiFire":  resource("fire", root),
			"ApiFire2": resource("fire", root),
			"ApiRain":  resource("rain", root),
			"ApiNest":  resource("fire", ref("ApiRain")),
		},
	}

	issues := DuplicatePathPart{}.Check(tmpl)
	require.Len(t, issues, 1)
	assert.Equal(t, "ApiFire2", issues[0].Resource)
	assert.Contains(t, issues[0].Message, "ApiFire")
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestEmptyOutput(t *testing.T) {
	tmpl := &satfetch.Template{
		Outputs: map[string]satfetch.Output{
			"Nil":     {},
			"Blank":   {Value: "  "},
			"Literal": {Value: "https://example.com"},
			"Getatt":  {Value: getAtt("Url", "FunctionUrl")},
		},
	}

	issues := EmptyOutput{}.Check(tmpl)
	require.Len(t, issues, 2)
	assert.Equal(t, "Outputs.Blank", issues[0].Resource)
	assert.Equal(t, "Outputs.Nil", issues[1].Resource)
}

func TestIntegrationTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout any
		fronted bool
		want    int
	}{
		{"within limit", 29, true, 0},
		{"exceeds limit", 30, true, 1},
		{"exceeds limit float", float64(60), true, 1},
		{"exceeds limit uint64", uint64(30), true, 1},
		{"exceeds limit int32", int32(45), true, 1},
		{"within limit uint", uint(10), true, 0},
		{"not fronted", 900, false, 0},
		{"no timeout", nil, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fnProps := map[string]any{}
			if tt.timeout != nil {
				fnProps["Timeout"] = tt.timeout
			}
			resources := map[string]satfetch.ResourceDef{
				"DockerFunc": {Type: "AWS::Lambda::Function", Properties: fnProps},
			}
			if tt.fronted {
				resources["ApiFireGET"] = satfetch.ResourceDef{
					Type: "AWS::ApiGateway::Method",
					Properties: map[string]any{
						"Integration": map[string]any{
							"Type": "AWS_PROXY",
							"Uri": map[string]any{"Fn::Join": []any{"", []any{
								"arn:", ref("AWS::Partition"), ":apigateway:", ref("AWS::Region"),
								":lambda:path/2015-03-31/functions/", getAtt("DockerFunc", "Arn"), "/invocations",
							}}},
						},
					},
				}
			}

			issues := IntegrationTimeout{}.Check(&satfetch.Template{Resources: resources})
			require.Len(t, issues, tt.want)
			if tt.want > 0 {
				assert.Equal(t, "DockerFunc", issues[0].Resource)
				assert.Equal(t, SeverityWarning, issues[0].Severity)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{int(1), 1, true},
		{int8(2), 2, true},
		{int16(3), 3, true},
		{int32(4), 4, true},
		{int64(5), 5, true},
		{uint(6), 6, true},
		{uint8(7), 7, true},
		{uint16(8), 8, true},
		{uint32(9), 9, true},
		{uint64(900), 900, true},
		{float32(1.5), 1.5, true},
		{float64(2.5), 2.5, true},
		{json.Number("30"), 30, true},
		{json.Number("abc"), 0, false},
		{"30", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "toFloat(%#v)", tt.in)
		assert.Equal(t, tt.want, got, "toFloat(%#v)", tt.in)
	}
}

func TestInvalidEnumValue(t *testing.T) {
	stubEnums(t, map[string][]string{
		"lambda.PackageType":   {"Image", "Zip"},
		"lambda.Architectures": {"x86_64", "arm64"},
	})

	tests := []struct {
		name  string
		props map[string]any
		want  int
	}{
		{"valid scalar", map[string]any{"PackageType": "Image"}, 0},
		{"invalid scalar", map[string]any{"PackageType": "Container"}, 1},
		{"valid list", map[string]any{"Architectures": []any{"arm64"}}, 0},
		{"invalid list element", map[string]any{"Architectures": []any{"arm64", "riscv"}}, 1},
		{"intrinsic skipped", map[string]any{"PackageType": ref("Kind")}, 0},
		{"non-enum property", map[string]any{"Description": "anything"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
				"DockerFunc": {Type: "AWS::Lambda::Function", Properties: tt.props},
			}}
			issues := InvalidEnumValue{}.Check(tmpl)
			assert.Len(t, issues, tt.want)
		})
	}

	t.Run("unmapped service", func(t *testing.T) {
		tmpl := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
			"Bucket": {Type: "AWS::S3::Bucket", Properties: map[string]any{"PackageType": "nope"}},
		}}
		assert.Empty(t, InvalidEnumValue{}.Check(tmpl))
	})
}

func TestUndefinedDependsOn(t *testing.T) {
	tmpl := &satfetch.Template{Resources: map[string]satfetch.ResourceDef{
		"Role":       {Type: "AWS::IAM::Role"},
		"DockerFunc": {Type: "AWS::Lambda::Function", DependsOn: []string{"Role", "Ghost"}},
	}}

	issues := UndefinedDependsOn{}.Check(tmpl)
	require.Len(t, issues, 1)
	assert.Equal(t, "DockerFunc", issues[0].Resource)
	assert.Contains(t, issues[0].Message, "Ghost")
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

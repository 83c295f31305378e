package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFunction struct {
	FunctionName string            `json:"FunctionName,omitempty"`
	MemorySize   int               `json:"MemorySize,omitempty"`
	Tags         []testTag         `json:"Tags,omitempty"`
	ImageConfig  *testImageConfig  `json:"ImageConfig,omitempty"`
	Variables    map[string]string `json:"Variables,omitempty"`
}

type testTag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

type testImageConfig struct {
	WorkingDirectory string `json:"WorkingDirectory"`
}

func TestResource_SimpleStruct(t *testing.T) {
	props, err := Resource(testFunction{FunctionName: "satellite-fetcher"})
	require.NoError(t, err)

	assert.Equal(t, "satellite-fetcher", props["FunctionName"])
	assert.NotContains(t, props, "Tags")        // Empty slice should be omitted
	assert.NotContains(t, props, "ImageConfig") // Nil pointer should be omitted
	assert.NotContains(t, props, "MemorySize")  // Zero int should be omitted
}

func TestResource_WithNestedStruct(t *testing.T) {
	props, err := Resource(testFunction{
		MemorySize:  1024,
		ImageConfig: &testImageConfig{WorkingDirectory: "/var/task"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1024), props["MemorySize"])

	imageConfig := props["ImageConfig"].(map[string]any)
	assert.Equal(t, "/var/task", imageConfig["WorkingDirectory"])
}

func TestResource_WithSlice(t *testing.T) {
	props, err := Resource(testFunction{
		Tags: []testTag{
			{Key: "Environment", Value: "prod"},
			{Key: "Team", Value: "satellite"},
		},
	})
	require.NoError(t, err)

	tags := props["Tags"].([]any)
	assert.Len(t, tags, 2)

	tag0 := tags[0].(map[string]any)
	assert.Equal(t, "Environment", tag0["Key"])
	assert.Equal(t, "prod", tag0["Value"])
}

func TestResource_WithMap(t *testing.T) {
	props, err := Resource(testFunction{
		Variables: map[string]string{
			"NASA_API_KEY": "DEMO_KEY",
			"REGION":       "us-east-1",
		},
	})
	require.NoError(t, err)

	vars := props["Variables"].(map[string]any)
	assert.Equal(t, "DEMO_KEY", vars["NASA_API_KEY"])
	assert.Equal(t, "us-east-1", vars["REGION"])
}

func TestResource_OmitsZeroValues(t *testing.T) {
	props, err := Resource(testFunction{})
	require.NoError(t, err)

	assert.Empty(t, props)
}

func TestResource_WithPointer(t *testing.T) {
	props, err := Resource(&testFunction{FunctionName: "satellite-fetcher"})
	require.NoError(t, err)

	assert.Equal(t, "satellite-fetcher", props["FunctionName"])
}

type testPolicy struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

type testRef struct {
	name string
}

func (r testRef) MarshalJSON() ([]byte, error) {
	return []byte(`{"Ref":"` + r.name + `"}`), nil
}

type testIntegration struct {
	Type_ any `json:"Type,omitempty"`
	Uri   any `json:"Uri,omitempty"`
}

type testMethod struct {
	HttpMethod  any              `json:"HttpMethod,omitempty"`
	RestApiId   any              `json:"RestApiId,omitempty"`
	Integration *testIntegration `json:"Integration,omitempty"`
}

func TestResource_TrailingUnderscoreField(t *testing.T) {
	props, err := Resource(testMethod{
		HttpMethod:  "GET",
		Integration: &testIntegration{Type_: "AWS_PROXY"},
	})
	require.NoError(t, err)

	integration := props["Integration"].(map[string]any)
	assert.Equal(t, "AWS_PROXY", integration["Type"])
	assert.NotContains(t, integration, "Type_")
}

func TestResource_Marshaler(t *testing.T) {
	props, err := Resource(testMethod{RestApiId: testRef{name: "SatelliteFetcherAwsApi"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Ref": "SatelliteFetcherAwsApi"}, props["RestApiId"])
}

func TestResource_NonStruct(t *testing.T) {
	props, err := Resource("not a struct")
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"string", "https://", "https://"},
		{"int", 1024, int64(1024)},
		{"marshaler", testRef{name: "Stage"}, map[string]any{"Ref": "Stage"}},
		{"slice", []any{"a", testRef{name: "B"}}, []any{"a", map[string]any{"Ref": "B"}}},
		{
			"struct",
			testPolicy{Version: "2012-10-17", Statement: []any{"x"}},
			map[string]any{"Version": "2012-10-17", "Statement": []any{"x"}},
		},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_MarshalJSON(t *testing.T) {
	ref := Ref{LogicalName: "SatelliteFetcherAwsApi"}
	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "SatelliteFetcherAwsApi"}`, string(data))
}

func TestGetAtt_MarshalJSON(t *testing.T) {
	getAtt := GetAtt{LogicalName: "DockerFuncServiceRole", Attribute: "Arn"}
	data, err := json.Marshal(getAtt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["DockerFuncServiceRole", "Arn"]}`, string(data))
}

func TestSub_MarshalJSON(t *testing.T) {
	sub := Sub{String: "${AWS::AccountId}.dkr.ecr.${AWS::Region}.${AWS::URLSuffix}/repo:tag"}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Sub": "${AWS::AccountId}.dkr.ecr.${AWS::Region}.${AWS::URLSuffix}/repo:tag"}`, string(data))
}

func TestJoin_MarshalJSON(t *testing.T) {
	join := Join{Delimiter: ",", Values: []any{"a", "b", "c"}}
	data, err := json.Marshal(join)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": [",", ["a", "b", "c"]]}`, string(data))
}

func TestPseudoParameters(t *testing.T) {
	tests := []struct {
		name     string
		param    Ref
		expected string
	}{
		{"AWS_REGION", AWS_REGION, `{"Ref": "AWS::Region"}`},
		{"AWS_ACCOUNT_ID", AWS_ACCOUNT_ID, `{"Ref": "AWS::AccountId"}`},
		{"AWS_PARTITION", AWS_PARTITION, `{"Ref": "AWS::Partition"}`},
		{"AWS_URL_SUFFIX", AWS_URL_SUFFIX, `{"Ref": "AWS::URLSuffix"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.param)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestIsPseudo(t *testing.T) {
	assert.True(t, IsPseudo("AWS::Region"))
	assert.True(t, IsPseudo("AWS::URLSuffix"))
	assert.False(t, IsPseudo("DockerFunc"))
	assert.False(t, IsPseudo("AWS::"))
}

func TestExecuteAPIArn(t *testing.T) {
	arn := ExecuteAPIArn(Ref{LogicalName: "SatelliteFetcherAwsApi"}, Ref{LogicalName: "Stage"}, "GET", "/fire")
	data, err := json.Marshal(arn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", [
		"arn:", {"Ref": "AWS::Partition"},
		":execute-api:", {"Ref": "AWS::Region"},
		":", {"Ref": "AWS::AccountId"},
		":", {"Ref": "SatelliteFetcherAwsApi"},
		"/", {"Ref": "Stage"},
		"/GET/fire"
	]]}`, string(data))
}

func TestExecuteAPIArn_LiteralStage(t *testing.T) {
	arn := ExecuteAPIArn(Ref{LogicalName: "Api"}, "test-invoke-stage", "GET", "/rain")
	data, err := json.Marshal(arn)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"/","test-invoke-stage","/GET/rain"`)
}

func TestLambdaInvocationURI(t *testing.T) {
	uri := LambdaInvocationURI(GetAtt{LogicalName: "DockerFunc", Attribute: "Arn"})
	data, err := json.Marshal(uri)
	require.NoError(t, err)
	assert.Contains(t, string(data), `":apigateway:"`)
	assert.Contains(t, string(data), `":lambda:path/2015-03-31/functions/"`)
	assert.Contains(t, string(data), `{"Fn::GetAtt":["DockerFunc","Arn"]}`)
	assert.Contains(t, string(data), `"/invocations"`)
}

func TestPolicyDocument(t *testing.T) {
	doc := NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal{"lambda.amazonaws.com"},
		Action:    "sts:AssumeRole",
	})
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "lambda.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, string(data))
}

func TestServicePrincipal_Multiple(t *testing.T) {
	p := ServicePrincipal{"lambda.amazonaws.com", "apigateway.amazonaws.com"}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Service": ["lambda.amazonaws.com", "apigateway.amazonaws.com"]}`, string(data))
}

func TestManagedPolicyArn(t *testing.T) {
	arn := ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")
	data, err := json.Marshal(arn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::Join": ["", ["arn:", {"Ref": "AWS::Partition"}, ":iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"]]}`, string(data))
}

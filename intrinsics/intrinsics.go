// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds the IAM policy types used by the satellite fetcher stack.
//
// Core intrinsic functions:
//
//	Ref{"SatelliteFetcherAwsApi"} → {"Ref": "SatelliteFetcherAwsApi"}
//	Sub{"${AWS::AccountId}.dkr.ecr..."} → {"Fn::Sub": "${AWS::AccountId}.dkr.ecr..."}
//	Join{"", []any{"https://", ...}} → {"Fn::Join": ["", ["https://", ...]]}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_PARTITION, AWS_URL_SUFFIX
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// ExecuteAPIArn builds the execute-api ARN for a REST API method. restAPI and
// stage may be literals or intrinsics; method and path are appended verbatim,
// so "*" wildcards pass through.
//
//	ExecuteAPIArn(Ref{"Api"}, Ref{"Stage"}, "GET", "/fire")
//	→ arn:${Partition}:execute-api:${Region}:${AccountId}:${Api}/${Stage}/GET/fire
func ExecuteAPIArn(restAPI, stage any, method, path string) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":execute-api:",
			AWS_REGION,
			":",
			AWS_ACCOUNT_ID,
			":",
			restAPI,
			"/",
			stage,
			"/" + method + path,
		},
	}
}

// LambdaInvocationURI builds the API Gateway integration URI that proxies to a
// Lambda function ARN.
func LambdaInvocationURI(functionArn any) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"arn:",
			AWS_PARTITION,
			":apigateway:",
			AWS_REGION,
			":lambda:path/2015-03-31/functions/",
			functionArn,
			"/invocations",
		},
	}
}

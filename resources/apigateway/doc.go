// Package apigateway provides Amazon API Gateway (REST, v1) resource types.
//
// Resource types:
//   - RestApi: AWS::ApiGateway::RestApi
//   - Resource: AWS::ApiGateway::Resource
//   - Method: AWS::ApiGateway::Method
//   - Deployment: AWS::ApiGateway::Deployment
//   - Stage: AWS::ApiGateway::Stage
package apigateway

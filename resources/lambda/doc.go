// Package lambda provides AWS Lambda resource types.
//
// Resource types:
//   - Function: AWS::Lambda::Function
//   - Url: AWS::Lambda::Url
//   - Permission: AWS::Lambda::Permission
package lambda

// Package iam provides AWS Identity and Access Management resource types.
package iam

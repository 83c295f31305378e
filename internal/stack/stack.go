// Package stack assembles the satellite fetcher resources into a
// CloudFormation template.
//
// Three components make up the stack:
//
//	DeployableUnit      execution role + container image Lambda function
//	InvocationEndpoint  function URL + public invoke permission
//	RoutedGateway       REST API, one resource/method per route, deployment, stage
//
// The endpoint and the gateway both reference the same unit; neither owns it.
package stack

import (
	"errors"
	"strings"
	"unicode"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
)

var (
	// ErrDuplicatePath is returned when two gateway routes share a path part.
	ErrDuplicatePath = errors.New("duplicate path part")

	// ErrInvalidSpec is returned when a component spec is incomplete or out of range.
	ErrInvalidSpec = errors.New("invalid component spec")
)

// Stack collects the resources and outputs of one CloudFormation stack.
type Stack struct {
	name    string
	builder *template.Builder
}

// New creates an empty stack.
func New(name, description string) *Stack {
	return &Stack{
		name:    name,
		builder: template.NewBuilder(description),
	}
}

// Name returns the stack name.
func (s *Stack) Name() string {
	return s.name
}

// Add registers a resource. Logical IDs must be unique within the stack.
func (s *Stack) Add(id string, r satfetch.Resource, dependsOn ...string) error {
	return s.builder.Add(id, r, dependsOn...)
}

// AddOutput registers a stack output.
func (s *Stack) AddOutput(name string, out satfetch.Output) error {
	return s.builder.AddOutput(name, out)
}

// LogicalIDs returns the registered logical IDs in sorted order.
func (s *Stack) LogicalIDs() []string {
	return s.builder.Names()
}

// Synth serializes the stack into a template. Identical stacks produce
// identical templates.
func (s *Stack) Synth() (*satfetch.Template, error) {
	return s.builder.Build()
}

// logicalID turns an arbitrary name into an alphanumeric PascalCase fragment:
// "fire" → "Fire", "{proxy+}" → "Proxy", "satellite-data" → "SatelliteData".
func logicalID(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toAny(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

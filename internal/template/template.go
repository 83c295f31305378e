// Package template builds CloudFormation templates from named resource values.
//
// Resources are serialized with internal/serialize, their dependencies are
// collected from Ref, Fn::GetAtt, Fn::Sub and explicit DependsOn, and the
// result is checked for cycles before it is returned.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/serialize"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

var (
	// ErrCycle is returned when resources depend on each other in a loop.
	ErrCycle = errors.New("circular dependency detected")

	// ErrDuplicate is returned when a logical ID is registered twice.
	ErrDuplicate = errors.New("duplicate logical ID")
)

type entry struct {
	value     satfetch.Resource
	dependsOn []string
}

// Builder constructs CloudFormation templates from resource values.
type Builder struct {
	description string
	resources   map[string]entry
	outputs     map[string]satfetch.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		resources:   make(map[string]entry),
		outputs:     make(map[string]satfetch.Output),
	}
}

// Add registers a resource under a logical ID. dependsOn lists explicit
// dependencies in addition to those implied by intrinsic references.
func (b *Builder) Add(name string, r satfetch.Resource, dependsOn ...string) error {
	if name == "" {
		return errors.New("logical ID must not be empty")
	}
	if _, exists := b.resources[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	b.resources[name] = entry{value: r, dependsOn: dependsOn}
	return nil
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, out satfetch.Output) error {
	if _, exists := b.outputs[name]; exists {
		return fmt.Errorf("%w: output %s", ErrDuplicate, name)
	}
	b.outputs[name] = out
	return nil
}

// Names returns the registered logical IDs in sorted order.
func (b *Builder) Names() []string {
	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*satfetch.Template, error) {
	template := &satfetch.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]satfetch.ResourceDef, len(b.resources)),
	}

	for _, name := range b.Names() {
		e := b.resources[name]

		props, err := serialize.Resource(e.value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		var dependsOn []string
		if len(e.dependsOn) > 0 {
			dependsOn = append(dependsOn, e.dependsOn...)
			sort.Strings(dependsOn)
		}

		template.Resources[name] = satfetch.ResourceDef{
			Type:       e.value.ResourceType(),
			Properties: props,
			DependsOn:  dependsOn,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]satfetch.Output, len(b.outputs))
		for name, out := range b.outputs {
			value, err := serialize.Value(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			out.Value = value
			template.Outputs[name] = out
		}
	}

	if _, err := TopologicalOrder(template); err != nil {
		return nil, err
	}

	return template, nil
}

// TopologicalOrder returns the template's resources in dependency order.
// Ties are broken alphabetically so the order is stable.
func TopologicalOrder(t *satfetch.Template) ([]string, error) {
	deps := dependencyMap(t)

	// Build adjacency list
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range t.Resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, targets := range deps {
		for _, dep := range targets {
			if _, exists := t.Resources[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(t.Resources) {
		return nil, detectCycle(t, deps)
	}

	return result, nil
}

func dependencyMap(t *satfetch.Template) map[string][]string {
	deps := make(map[string][]string, len(t.Resources))
	for name, def := range t.Resources {
		deps[name] = Dependencies(def)
	}
	return deps
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(t *satfetch.Template, deps map[string][]string) error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range deps[node] {
			if _, exists := t.Resources[dep]; !exists {
				continue
			}
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " → "))
	}
	return ErrCycle
}

// ToJSON serializes the template to indented JSON.
func ToJSON(t *satfetch.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *satfetch.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

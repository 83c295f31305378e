// Package graph generates DOT and Mermaid format dependency graphs from a synthesized template.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"
	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/template"
	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from template resources.
type Generator struct {
	// IncludePseudo includes pseudo-parameter references (AWS::Region, ...) in the graph.
	IncludePseudo bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(t *satfetch.Template, w io.Writer) error {
	graph := g.buildGraph(t)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(t *satfetch.Template) (string, error) {
	var sb strings.Builder
	if err := g.Generate(t, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph structure from template resources.
// Resources are visited in sorted order so output is stable.
func (g *Generator) buildGraph(t *satfetch.Template) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	// Set default node style
	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	// Set default edge style
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(t.Resources)

	if g.ClusterByType {
		g.addClusteredNodes(graph, t, names)
	} else {
		for _, name := range names {
			addResourceNode(graph, name, t.Resources[name].Type)
		}
	}

	for _, name := range names {
		for _, edge := range edgesOf(t.Resources[name]) {
			_, isResource := t.Resources[edge.target]
			pseudo := intrinsics.IsPseudo(edge.target)
			switch {
			case isResource:
			case pseudo && g.IncludePseudo:
				n := graph.Node(edge.target)
				n.Attr("shape", "ellipse")
				n.Attr("style", "dashed")
				n.Label(edge.target)
			default:
				continue
			}

			e := graph.Edge(graph.Node(name), graph.Node(edge.target))

			// Style based on reference type
			switch {
			case edge.getAtt:
				e.Attr("color", "blue")
			case edge.explicit:
				e.Attr("style", "dashed")
			}
		}
	}

	return graph
}

type edge struct {
	target   string
	getAtt   bool
	explicit bool
}

// edgesOf collapses the references of one resource into one edge per target.
// A target reached through GetAtt anywhere is a GetAtt edge; a target named
// only in DependsOn is an explicit edge.
func edgesOf(def satfetch.ResourceDef) []edge {
	byTarget := make(map[string]*edge)
	var order []string
	for _, ref := range template.ReferencesOf(def) {
		e, ok := byTarget[ref.Target]
		if !ok {
			e = &edge{target: ref.Target, explicit: true}
			byTarget[ref.Target] = e
			order = append(order, ref.Target)
		}
		if ref.Kind == template.KindGetAtt {
			e.getAtt = true
		}
		if ref.Kind != template.KindDependsOn {
			e.explicit = false
		}
	}
	sort.Strings(order)
	edges := make([]edge, 0, len(order))
	for _, target := range order {
		edges = append(edges, *byTarget[target])
	}
	return edges
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, t *satfetch.Template, names []string) {
	// Group resources by service
	serviceResources := make(map[string][]string)
	var services []string

	for _, name := range names {
		service := extractService(t.Resources[name].Type)
		if _, ok := serviceResources[service]; !ok {
			services = append(services, service)
		}
		serviceResources[service] = append(serviceResources[service], name)
	}
	sort.Strings(services)

	// Create clusters for each service with multiple resources
	for _, service := range services {
		resNames := serviceResources[service]
		if len(resNames) > 1 {
			cluster := graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			cluster.Attr("label", service)
			cluster.Attr("style", "rounded")
			cluster.Attr("bgcolor", "lightyellow")

			for _, name := range resNames {
				addResourceNode(cluster, name, t.Resources[name].Type)
			}
		} else {
			// Single resource, no cluster needed
			for _, name := range resNames {
				addResourceNode(graph, name, t.Resources[name].Type)
			}
		}
	}
}

func addResourceNode(graph *dot.Graph, name, cfType string) {
	n := graph.Node(name)
	n.Label(name + "\\n[" + cfType + "]")
}

// extractService extracts the AWS service name from a CloudFormation type.
// e.g., "AWS::ApiGateway::Method" -> "ApiGateway"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames(resources map[string]satfetch.ResourceDef) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package template

import (
	"regexp"
	"sort"
	"strings"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
)

// RefKind classifies how one resource refers to another.
type RefKind string

const (
	KindRef       RefKind = "Ref"
	KindGetAtt    RefKind = "Fn::GetAtt"
	KindSub       RefKind = "Fn::Sub"
	KindDependsOn RefKind = "DependsOn"
)

// Reference is one edge from a resource or output to a logical ID.
type Reference struct {
	Target    string
	Kind      RefKind
	Attribute string
}

var subVarPattern = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// ReferencesOf returns every reference made by a resource definition,
// including pseudo-parameters, in the order they are encountered.
func ReferencesOf(def satfetch.ResourceDef) []Reference {
	var refs []Reference
	walkReferences(def.Properties, func(r Reference) {
		refs = append(refs, r)
	})
	for _, dep := range def.DependsOn {
		refs = append(refs, Reference{Target: dep, Kind: KindDependsOn})
	}
	return refs
}

// ReferencesIn returns the references found in an arbitrary serialized value,
// such as an output's Value.
func ReferencesIn(v any) []Reference {
	var refs []Reference
	walkReferences(v, func(r Reference) {
		refs = append(refs, r)
	})
	return refs
}

// Dependencies returns the sorted, de-duplicated logical IDs a resource
// depends on. Pseudo-parameters are excluded.
func Dependencies(def satfetch.ResourceDef) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, r := range ReferencesOf(def) {
		if intrinsics.IsPseudo(r.Target) || seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		deps = append(deps, r.Target)
	}
	sort.Strings(deps)
	return deps
}

func walkReferences(v any, fn func(Reference)) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
			fn(Reference{Target: ref, Kind: KindRef})
			return
		}
		if getAtt, ok := val["Fn::GetAtt"]; ok && len(val) == 1 {
			if target, attr := parseGetAtt(getAtt); target != "" {
				fn(Reference{Target: target, Kind: KindGetAtt, Attribute: attr})
			}
			return
		}
		if sub, ok := val["Fn::Sub"]; ok && len(val) == 1 {
			walkSub(sub, fn)
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkReferences(val[k], fn)
		}
	case []any:
		for _, elem := range val {
			walkReferences(elem, fn)
		}
	}
}

func parseGetAtt(v any) (string, string) {
	switch val := v.(type) {
	case []any:
		if len(val) == 2 {
			target, _ := val[0].(string)
			attr, _ := val[1].(string)
			return target, attr
		}
	case []string:
		if len(val) == 2 {
			return val[0], val[1]
		}
	case string:
		target, attr, _ := strings.Cut(val, ".")
		return target, attr
	}
	return "", ""
}

// walkSub reports the ${Name} and ${Name.Attr} variables of an Fn::Sub string.
// Names bound in the variable map and ${!Literal} escapes are skipped.
func walkSub(v any, fn func(Reference)) {
	var str string
	bound := map[string]bool{}

	switch val := v.(type) {
	case string:
		str = val
	case []any:
		if len(val) > 0 {
			str, _ = val[0].(string)
		}
		if len(val) > 1 {
			if vars, ok := val[1].(map[string]any); ok {
				for name, value := range vars {
					bound[name] = true
					walkReferences(value, fn)
				}
			}
		}
	}

	for _, match := range subVarPattern.FindAllStringSubmatch(str, -1) {
		name := match[1]
		if bound[name] {
			continue
		}
		if target, attr, ok := strings.Cut(name, "."); ok && !intrinsics.IsPseudo(name) {
			fn(Reference{Target: target, Kind: KindSub, Attribute: attr})
			continue
		}
		fn(Reference{Target: name, Kind: KindSub})
	}
}

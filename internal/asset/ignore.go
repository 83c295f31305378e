package asset

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/dockerignore"
)

type ignoreRule struct {
	segments []string
	negate   bool
}

// ignoreMatcher applies .dockerignore rules. The last matching rule wins,
// and a rule that matches a directory also matches everything beneath it.
// Paths in keep are sent to the builder regardless of the rules.
type ignoreMatcher struct {
	rules       []ignoreRule
	hasNegation bool
	keep        map[string]bool
}

// loadIgnore reads dir/.dockerignore. The Dockerfile and .dockerignore itself
// always reach the builder, so they are never excluded.
func loadIgnore(dir, dockerfile string) (*ignoreMatcher, error) {
	keep := []string{dockerfile, ".dockerignore"}

	f, err := os.Open(filepath.Join(dir, ".dockerignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return newIgnoreMatcher(nil, keep...), nil
		}
		return nil, err
	}
	defer f.Close()

	patterns, err := dockerignore.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading .dockerignore: %w", err)
	}
	return newIgnoreMatcher(patterns, keep...), nil
}

func newIgnoreMatcher(patterns []string, keep ...string) *ignoreMatcher {
	m := &ignoreMatcher{keep: make(map[string]bool, len(keep))}
	for _, k := range keep {
		if k = cleanPattern(k); k != "" {
			m.keep[k] = true
		}
	}
	for _, p := range patterns {
		negate := strings.HasPrefix(p, "!")
		if negate {
			p = p[1:]
			m.hasNegation = true
		}
		p = cleanPattern(p)
		if p == "" {
			continue
		}
		m.rules = append(m.rules, ignoreRule{segments: strings.Split(p, "/"), negate: negate})
	}
	return m
}

// cleanPattern normalizes a pattern or path to slash form relative to the
// build context. It returns "" for the context root.
func cleanPattern(p string) string {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if p == "." {
		return ""
	}
	return p
}

func (m *ignoreMatcher) excluded(rel string) bool {
	if m.keep[rel] {
		return false
	}
	parts := strings.Split(rel, "/")
	excluded := false
	for _, r := range m.rules {
		if r.matches(parts) {
			excluded = !r.negate
		}
	}
	return excluded
}

// skipDir reports whether a directory can be pruned from the walk. With
// negation rules present a file below an excluded directory may be
// re-included, so nothing is pruned.
func (m *ignoreMatcher) skipDir(rel string) bool {
	if m.hasNegation {
		return false
	}
	for k := range m.keep {
		if strings.HasPrefix(k, rel+"/") {
			return false
		}
	}
	return m.excluded(rel)
}

// prune reports whether the walk skips the directory name at rel.
func (m *ignoreMatcher) prune(name, rel string) bool {
	return name == ".git" || m.skipDir(rel)
}

// matches reports whether the rule matches the path or one of its parents.
func (r ignoreRule) matches(parts []string) bool {
	for n := len(parts); n > 0; n-- {
		if matchSegments(r.segments, parts[:n]) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

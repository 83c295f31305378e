package template

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
)

// LoadFile reads a CloudFormation template from a JSON or YAML file.
func LoadFile(path string) (*satfetch.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a template, trying JSON first and falling back to YAML.
// Short-form YAML tags such as !Ref are not supported.
func Parse(data []byte) (*satfetch.Template, error) {
	var t satfetch.Template
	if err := json.Unmarshal(data, &t); err != nil {
		t = satfetch.Template{}
		if yerr := yaml.Unmarshal(data, &t); yerr != nil {
			return nil, fmt.Errorf("not valid JSON or YAML: %w", yerr)
		}
	}
	if t.Resources == nil {
		t.Resources = make(map[string]satfetch.ResourceDef)
	}
	return &t, nil
}

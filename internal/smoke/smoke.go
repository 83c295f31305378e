// Package smoke checks the outputs of a deployed stack.
//
// Outputs are read from a file in one of three shapes:
//
//	{"FunctionUrl": "https://..."}                          flat
//	{"SatelliteFetcherAwsStack": {"FunctionUrl": "..."}}     per-stack (cdk --outputs-file)
//	{"Stacks": [{"Outputs": [{"OutputKey": ..., "OutputValue": ...}]}]}  aws cloudformation describe-stacks
package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
)

// DefaultTimeout bounds each probe request when the caller supplies no client.
const DefaultTimeout = 10 * time.Second

var (
	// ErrStackNotFound is returned when the requested stack is not in the file.
	ErrStackNotFound = errors.New("stack not found in outputs file")
	// ErrAmbiguousStack is returned when the file holds several stacks and none was named.
	ErrAmbiguousStack = errors.New("outputs file holds several stacks; name one")
)

// Outputs maps output keys to values.
type Outputs map[string]string

// hashSuffix matches the eight hex digits generated output keys may carry.
var hashSuffix = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// Lookup returns the value for name. An exact key wins; otherwise a key that
// is name followed by a hash suffix is accepted.
func (o Outputs) Lookup(name string) (string, bool) {
	if v, ok := o[name]; ok {
		return v, true
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if rest, ok := strings.CutPrefix(k, name); ok && hashSuffix.MatchString(rest) {
			return o[k], true
		}
	}
	return "", false
}

// LoadOutputs reads an outputs file. stackName selects a stack in per-stack
// and describe-stacks files and may be empty when the file holds one stack.
func LoadOutputs(path, stackName string) (Outputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}
	out, err := ParseOutputs(data, stackName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

type describeStacks struct {
	Stacks []struct {
		StackName string `json:"StackName"`
		Outputs   []struct {
			OutputKey   string `json:"OutputKey"`
			OutputValue string `json:"OutputValue"`
		} `json:"Outputs"`
	} `json:"Stacks"`
}

// ParseOutputs decodes outputs in any of the supported shapes.
func ParseOutputs(data []byte, stackName string) (Outputs, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing outputs: %w", err)
	}

	if _, ok := raw["Stacks"]; ok {
		return parseDescribeStacks(data, stackName)
	}

	flat := make(Outputs, len(raw))
	nested := make(map[string]Outputs)
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			flat[key] = s
			continue
		}
		var stack map[string]string
		if err := json.Unmarshal(value, &stack); err != nil {
			return nil, fmt.Errorf("parsing outputs: %q is neither a string nor a stack", key)
		}
		nested[key] = stack
	}

	if len(nested) == 0 {
		return flat, nil
	}
	if stackName != "" {
		stack, ok := nested[stackName]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
		}
		return stack, nil
	}
	if len(nested) > 1 {
		return nil, ErrAmbiguousStack
	}
	for _, stack := range nested {
		return stack, nil
	}
	return flat, nil
}

func parseDescribeStacks(data []byte, stackName string) (Outputs, error) {
	var ds describeStacks
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing describe-stacks output: %w", err)
	}

	var matched []int
	for i, s := range ds.Stacks {
		if stackName == "" || s.StackName == stackName {
			matched = append(matched, i)
		}
	}
	switch {
	case len(matched) == 0 && stackName != "":
		return nil, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
	case len(matched) == 0:
		return Outputs{}, nil
	case len(matched) > 1:
		return nil, ErrAmbiguousStack
	}

	out := make(Outputs)
	for _, o := range ds.Stacks[matched[0]].Outputs {
		out[o.OutputKey] = o.OutputValue
	}
	return out, nil
}

// Check verifies that each named output is present and holds an absolute
// http or https URL.
func Check(outputs Outputs, names ...string) []satfetch.OutputCheck {
	checks := make([]satfetch.OutputCheck, 0, len(names))
	for _, name := range names {
		check := satfetch.OutputCheck{Name: name}
		value, ok := outputs.Lookup(name)
		check.Value = value
		switch {
		case !ok:
			check.Error = "output missing"
		case strings.TrimSpace(value) == "":
			check.Error = "output is empty"
		default:
			if err := validateURL(value); err != nil {
				check.Error = err.Error()
			}
		}
		checks = append(checks, check)
	}
	return checks
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("not a URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("not an http(s) URL: %s", value)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", value)
	}
	return nil
}

// Probe issues a GET to every check that passed Check and records the
// status code. Responses below 500 count as reachable; the gateway base URL
// answers 403 because it has no root method.
func Probe(ctx context.Context, client *http.Client, checks []satfetch.OutputCheck) []satfetch.OutputCheck {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	out := make([]satfetch.OutputCheck, len(checks))
	copy(out, checks)
	for i := range out {
		if out[i].Error != "" {
			continue
		}
		status, err := get(ctx, client, out[i].Value)
		out[i].StatusCode = status
		switch {
		case err != nil:
			out[i].Error = err.Error()
		case status >= http.StatusInternalServerError:
			out[i].Error = fmt.Sprintf("server error: %d", status)
		}
	}
	return out
}

func get(ctx context.Context, client *http.Client, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Passed reports whether every check succeeded.
func Passed(checks []satfetch.OutputCheck) bool {
	for _, c := range checks {
		if c.Error != "" {
			return false
		}
	}
	return true
}

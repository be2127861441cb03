// Package config loads the YAML test configuration that maps workflows to
// their WDL files and named test cases.
//
// The file format is:
//
//	<workflow>:
//	  path: <wdl file>
//	  tests:
//	    <test>:
//	      test_inputs: <inputs json>
//	      expected_outputs: <outputs json, or null to expect failure>
//
// Workflows and tests keep the order in which they appear in the document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/schema"
)

// DefaultFileName is the config file used when none is given.
const DefaultFileName = "watt_config.yml"

// Config is a parsed test configuration.
type Config struct {
	Workflows []Workflow
}

// Workflow is one WDL workflow and its test cases.
type Workflow struct {
	Name  string
	Path  string
	Tests []Test
	Line  int
}

// Test is one named test case of a workflow.
type Test struct {
	Name       string
	TestInputs string
	// ExpectedOutputs is nil when the run is expected to fail.
	ExpectedOutputs *string
	Line            int
}

type workflowDoc struct {
	Path  string    `yaml:"path"`
	Tests yaml.Node `yaml:"tests"`
}

type testDoc struct {
	TestInputs      string  `yaml:"test_inputs"`
	ExpectedOutputs *string `yaml:"expected_outputs"`
}

// Load reads and parses a test configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Configf("cannot find configuration file at path: %s", path)
		}
		return nil, errors.WrapConfig(err, "failed to read config file")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WrapConfig(err, fmt.Sprintf("invalid config file %s", path))
	}
	return cfg, nil
}

// Parse parses a test configuration document.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("config is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: config must be a mapping of workflow names", root.Line)
	}

	if err := checkDuplicates(root); err != nil {
		return nil, err
	}

	raw, err := nodeValue(root)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := schema.ValidateValue(raw); err != nil {
		return nil, &errors.WattError{Kind: errors.KindValidation, Message: "schema check", Cause: err}
	}

	cfg := &Config{}
	for _, pair := range pairs(root) {
		var wd workflowDoc
		if err := pair.value.Decode(&wd); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", pair.key.Value, err)
		}
		wf := Workflow{Name: pair.key.Value, Path: wd.Path, Line: pair.key.Line}
		for _, tp := range pairs(&wd.Tests) {
			var td testDoc
			if err := tp.value.Decode(&td); err != nil {
				return nil, fmt.Errorf("test %s/%s: %w", wf.Name, tp.key.Value, err)
			}
			wf.Tests = append(wf.Tests, Test{
				Name:            tp.key.Value,
				TestInputs:      td.TestInputs,
				ExpectedOutputs: td.ExpectedOutputs,
				Line:            tp.key.Line,
			})
		}
		cfg.Workflows = append(cfg.Workflows, wf)
	}

	return cfg, nil
}

// TestCount returns the total number of tests across workflows.
func (c *Config) TestCount() int {
	n := 0
	for _, wf := range c.Workflows {
		n += len(wf.Tests)
	}
	return n
}

type nodePair struct {
	key   *yaml.Node
	value *yaml.Node
}

func pairs(n *yaml.Node) []nodePair {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]nodePair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, nodePair{key: n.Content[i], value: n.Content[i+1]})
	}
	return out
}

// nodeValue converts n into plain JSON-compatible values. Mapping keys are
// taken verbatim, so names like 1 or yes stay strings as they do in pairs.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for _, p := range pairs(n) {
			v, err := nodeValue(p.value)
			if err != nil {
				return nil, err
			}
			m[p.key.Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

// checkDuplicates rejects repeated workflow names and repeated test names
// within a workflow, so every (workflow, test) identity is unique.
func checkDuplicates(root *yaml.Node) error {
	seenWorkflows := make(map[string]int)
	for _, wp := range pairs(root) {
		name := wp.key.Value
		if line, ok := seenWorkflows[name]; ok {
			return fmt.Errorf("line %d: duplicate workflow %q (first defined at line %d)", wp.key.Line, name, line)
		}
		seenWorkflows[name] = wp.key.Line

		for _, field := range pairs(wp.value) {
			if field.key.Value != "tests" {
				continue
			}
			seenTests := make(map[string]int)
			for _, tp := range pairs(field.value) {
				if line, ok := seenTests[tp.key.Value]; ok {
					return errors.TestError(name, tp.key.Value,
						fmt.Sprintf("line %d: duplicate test (first defined at line %d)", tp.key.Line, line))
				}
				seenTests[tp.key.Value] = tp.key.Line
			}
		}
	}
	return nil
}

package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/project"
	"github.com/wattwdl/watt/internal/testcase"
)

// TestCases flattens the configuration into test cases in document order,
// with every path resolved through r. Cases with expected outputs carry a nil
// Expect until Prepare loads the outputs file.
func (c *Config) TestCases(r *project.Resolver) []testcase.TestCase {
	cases := make([]testcase.TestCase, 0, c.TestCount())
	for _, wf := range c.Workflows {
		for _, t := range wf.Tests {
			tc := testcase.TestCase{
				WorkflowName: wf.Name,
				TestName:     t.Name,
				WorkflowPath: r.Resolve(wf.Path),
				InputsPath:   r.Resolve(t.TestInputs),
			}
			if t.ExpectedOutputs == nil {
				tc.Expect = testcase.ExpectFailure{}
			} else {
				tc.ExpectedOutputsPath = r.Resolve(*t.ExpectedOutputs)
			}
			cases = append(cases, tc)
		}
	}
	return cases
}

// Prepare verifies that every file referenced by cases exists and loads the
// expected outputs. All problems are collected and reported together as a
// single configuration error so nothing runs against a broken config.
func Prepare(cases []testcase.TestCase) ([]testcase.TestCase, error) {
	var problems []error
	prepared := make([]testcase.TestCase, len(cases))

	for i, tc := range cases {
		prepared[i] = tc
		if !exists(tc.WorkflowPath) {
			problems = append(problems, fmt.Errorf("%s: cannot find WDL at path: %s", tc.ID(), tc.WorkflowPath))
		}
		if !exists(tc.InputsPath) {
			problems = append(problems, fmt.Errorf("%s: cannot find inputs at path: %s", tc.ID(), tc.InputsPath))
		}
		if testcase.ExpectsFailure(tc.Expect) {
			continue
		}
		if !exists(tc.ExpectedOutputsPath) {
			problems = append(problems, fmt.Errorf("%s: cannot find expected outputs at path: %s", tc.ID(), tc.ExpectedOutputsPath))
			continue
		}
		outputs, err := LoadExpectedOutputs(tc.ExpectedOutputsPath)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", tc.ID(), err))
			continue
		}
		prepared[i].Expect = testcase.ExpectOutputs{Outputs: outputs}
	}

	if len(problems) > 0 {
		return nil, &errors.WattError{
			Kind:    errors.KindConfig,
			Message: "test configuration references missing or invalid files",
			Cause:   stderrors.Join(problems...),
		}
	}
	return prepared, nil
}

// LoadExpectedOutputs reads an expected-outputs JSON object. Numbers are kept
// as json.Number so integer and decimal values compare exactly.
func LoadExpectedOutputs(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	outputs, err := DecodeOutputs(f)
	if err != nil {
		return nil, fmt.Errorf("expected outputs %s: %w", path, err)
	}
	return outputs, nil
}

// DecodeOutputs decodes a JSON object of output values from r.
func DecodeOutputs(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var outputs map[string]any
	if err := dec.Decode(&outputs); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if outputs == nil {
		return nil, fmt.Errorf("outputs must be a JSON object")
	}
	return outputs, nil
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

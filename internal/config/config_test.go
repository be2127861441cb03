package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/project"
	"github.com/wattwdl/watt/internal/testcase"
)

const sampleConfig = `
hello:
  path: workflows/hello.wdl
  tests:
    basic:
      test_inputs: tests/hello/inputs.json
      expected_outputs: tests/hello/outputs.json
    broken:
      test_inputs: tests/hello/bad_inputs.json
      expected_outputs: null
align:
  path: /workflows/align.wdl
  tests:
    small:
      test_inputs: tests/align/small.json
`

func TestParse_PreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Workflows, 2)
	assert.Equal(t, "hello", cfg.Workflows[0].Name)
	assert.Equal(t, "align", cfg.Workflows[1].Name)
	assert.Equal(t, 3, cfg.TestCount())

	hello := cfg.Workflows[0]
	assert.Equal(t, "workflows/hello.wdl", hello.Path)
	require.Len(t, hello.Tests, 2)
	assert.Equal(t, "basic", hello.Tests[0].Name)
	require.NotNil(t, hello.Tests[0].ExpectedOutputs)
	assert.Equal(t, "tests/hello/outputs.json", *hello.Tests[0].ExpectedOutputs)
	assert.Equal(t, "broken", hello.Tests[1].Name)
	assert.Nil(t, hello.Tests[1].ExpectedOutputs)

	align := cfg.Workflows[1]
	require.Len(t, align.Tests, 1)
	assert.Nil(t, align.Tests[0].ExpectedOutputs, "absent expected_outputs expects failure")
}

func TestParse_NonStringNames(t *testing.T) {
	t.Parallel()
	data := `
2024:
  path: release.wdl
  tests:
    1:
      test_inputs: one.json
      expected_outputs: one_out.json
    yes:
      test_inputs: yes.json
    3.5:
      test_inputs: half.json
`

	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, cfg.Workflows, 1)

	wf := cfg.Workflows[0]
	assert.Equal(t, "2024", wf.Name)
	require.Len(t, wf.Tests, 3)
	assert.Equal(t, "1", wf.Tests[0].Name)
	assert.Equal(t, "yes", wf.Tests[1].Name)
	assert.Equal(t, "3.5", wf.Tests[2].Name)
	assert.Equal(t, "one.json", wf.Tests[0].TestInputs)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"empty", "", "config is empty"},
		{"not a mapping", "- a\n- b\n", "must be a mapping"},
		{"malformed yaml", "a: [b\n", "failed to parse YAML"},
		{
			name: "duplicate workflow",
			data: `
a:
  path: a.wdl
  tests: {t: {test_inputs: i.json}}
a:
  path: b.wdl
  tests: {t: {test_inputs: i.json}}
`,
			wantErr: `duplicate workflow "a"`,
		},
		{
			name: "duplicate test",
			data: `
a:
  path: a.wdl
  tests:
    t:
      test_inputs: i.json
    t:
      test_inputs: j.json
`,
			wantErr: "[a/t] line 7: duplicate test (first defined at line 5)",
		},
		{"schema violation", "a:\n  tests: {t: {test_inputs: i.json}}\n", "config validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_SchemaViolationIsValidationError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("a:\n  tests: {t: {test_inputs: i.json}}\n"))
	var werr *errors.WattError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, errors.KindValidation, werr.Kind)
	assert.Equal(t, errors.ExitConfigError, werr.ExitCode())
}

func TestLoad_MissingFileIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot find configuration file")
}

func TestLoad_InvalidFileIsConfigError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))
}

// writeRepo lays out a repository matching sampleConfig.
func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		".git/HEAD":                   "ref: refs/heads/main\n",
		"workflows/hello.wdl":         "version 1.0\n",
		"workflows/align.wdl":         "version 1.0\n",
		"tests/hello/inputs.json":     `{"hello.name": "World"}`,
		"tests/hello/bad_inputs.json": `{}`,
		"tests/hello/outputs.json":    `{"hello.greeting": "Hello World", "hello.count": 3, "hello.pi": 3.14}`,
		"tests/align/small.json":      `{}`,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestTestCases_ResolvesAndFlattens(t *testing.T) {
	t.Parallel()
	root := writeRepo(t)
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	cases := cfg.TestCases(project.NewResolver(root))
	require.Len(t, cases, 3)

	assert.Equal(t, "hello/basic", cases[0].ID())
	assert.Equal(t, filepath.Join(root, "workflows", "hello.wdl"), cases[0].WorkflowPath)
	assert.Equal(t, filepath.Join(root, "tests", "hello", "inputs.json"), cases[0].InputsPath)
	assert.Equal(t, filepath.Join(root, "tests", "hello", "outputs.json"), cases[0].ExpectedOutputsPath)
	assert.Nil(t, cases[0].Expect)

	assert.Equal(t, "hello/broken", cases[1].ID())
	assert.Equal(t, testcase.ExpectFailure{}, cases[1].Expect)

	assert.Equal(t, "align/small", cases[2].ID())
	assert.Equal(t, filepath.Join(root, "workflows", "align.wdl"), cases[2].WorkflowPath)
}

func TestPrepare_LoadsExpectedOutputs(t *testing.T) {
	t.Parallel()
	root := writeRepo(t)
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	prepared, err := Prepare(cfg.TestCases(project.NewResolver(root)))
	require.NoError(t, err)
	require.Len(t, prepared, 3)

	exp, ok := prepared[0].Expect.(testcase.ExpectOutputs)
	require.True(t, ok)
	assert.Equal(t, "Hello World", exp.Outputs["hello.greeting"])
	assert.Equal(t, json.Number("3"), exp.Outputs["hello.count"])
	assert.Equal(t, json.Number("3.14"), exp.Outputs["hello.pi"])

	assert.True(t, testcase.ExpectsFailure(prepared[1].Expect))
}

func TestPrepare_CollectsAllMissingFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0755))
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	_, err = Prepare(cfg.TestCases(project.NewResolver(root)))
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfigError, errors.GetExitCode(err))

	msg := err.Error()
	assert.Contains(t, msg, "hello/basic: cannot find WDL at path")
	assert.Contains(t, msg, "hello/basic: cannot find inputs at path")
	assert.Contains(t, msg, "hello/basic: cannot find expected outputs at path")
	assert.Contains(t, msg, "hello/broken: cannot find inputs at path")
	assert.NotContains(t, msg, "hello/broken: cannot find expected outputs")
	assert.Contains(t, msg, "align/small: cannot find WDL at path")
}

func TestPrepare_InvalidExpectedOutputs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for name, content := range map[string]string{"w.wdl": "", "i.json": "{}", "o.json": "null"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	_, err := Prepare([]testcase.TestCase{{
		WorkflowName:        "w",
		TestName:            "t",
		WorkflowPath:        filepath.Join(dir, "w.wdl"),
		InputsPath:          filepath.Join(dir, "i.json"),
		ExpectedOutputsPath: filepath.Join(dir, "o.json"),
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputs must be a JSON object")
}

package compare

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattwdl/watt/internal/engine"
	"github.com/wattwdl/watt/internal/testcase"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// decode parses JSON the way expected outputs and metadata are parsed.
func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func expectOutputs(m map[string]any) testcase.Expectation {
	return testcase.ExpectOutputs{Outputs: m}
}

func TestCompare_IdenticalFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	want := writeFile(t, dir, "expected-hello.txt", []byte("hello\n"))
	got := writeFile(t, dir, "hello.txt", []byte("hello\n"))

	r := New(nil).Compare(
		expectOutputs(map[string]any{"hello.announcement": want}),
		engine.Succeeded{Outputs: map[string]any{"hello.announcement": got}},
	)

	assert.Equal(t, Evaluated, r.Kind)
	assert.Equal(t, 1, r.Matches)
	assert.Empty(t, r.Mismatches)
	assert.Empty(t, r.ArrayShapeMismatches)
	assert.Empty(t, r.FileTypeMismatches)
	assert.Empty(t, r.UniqueToExpected)
	assert.Empty(t, r.UniqueToActual)
	assert.True(t, r.Passed())
}

func TestCompare_ScalarMismatch(t *testing.T) {
	t.Parallel()
	r := New(nil).Compare(
		expectOutputs(decode(t, `{"wf.name": "Alice", "wf.stat": 3.14}`)),
		engine.Succeeded{Outputs: decode(t, `{"wf.name": "Bob", "wf.stat": 3.14}`)},
	)

	assert.Equal(t, 1, r.Matches)
	require.Len(t, r.Mismatches, 1)
	assert.Equal(t, "wf.name", r.Mismatches[0].Key)
	assert.Equal(t, `expected "Alice", got "Bob"`, r.Mismatches[0].Reason)
	assert.False(t, r.Passed())
}

func TestCompare_ArrayShapeMismatch(t *testing.T) {
	t.Parallel()
	r := New(nil).Compare(
		expectOutputs(decode(t, `{"wf.wdl_table": [["a","b"],["c","d"]]}`)),
		engine.Succeeded{Outputs: decode(t, `{"wf.wdl_table": ["a","b","c","d"]}`)},
	)

	assert.Equal(t, []string{"wf.wdl_table"}, r.ArrayShapeMismatches)
	assert.Zero(t, r.Matches)
	assert.Empty(t, r.Mismatches)
	assert.False(t, r.Passed())
}

func TestCompare_ExpectFailure(t *testing.T) {
	t.Parallel()
	c := New(nil)

	r := c.Compare(testcase.ExpectFailure{}, engine.Failed{Reason: "exit 1"})
	assert.Equal(t, ExpectedFailureSucceeded, r.Kind)
	assert.True(t, r.Passed())

	r = c.Compare(testcase.ExpectFailure{}, engine.Succeeded{Outputs: map[string]any{"wf.b": "x", "wf.a": "y"}})
	assert.Equal(t, Evaluated, r.Kind)
	assert.True(t, r.ExpectedFailure)
	assert.Equal(t, []string{"wf.a", "wf.b"}, r.UniqueToActual)
	assert.Zero(t, r.Matches)
	assert.False(t, r.Passed())
}

func TestCompare_ExpectFailureWithNoOutputsStillFails(t *testing.T) {
	t.Parallel()
	r := New(nil).Compare(testcase.ExpectFailure{}, engine.Succeeded{Outputs: map[string]any{}})

	assert.Empty(t, r.UniqueToActual)
	assert.False(t, r.Passed())
}

func TestCompare_UnexpectedFailure(t *testing.T) {
	t.Parallel()
	r := New(nil).Compare(expectOutputs(decode(t, `{"wf.x": 1}`)), engine.Failed{})

	assert.Equal(t, UnexpectedFailure, r.Kind)
	assert.False(t, r.Passed())
}

func TestCompare_NilExpectationIsEmpty(t *testing.T) {
	t.Parallel()
	c := New(nil)

	r := c.Compare(nil, engine.Succeeded{Outputs: map[string]any{"wf.x": "1"}})
	assert.Equal(t, []string{"wf.x"}, r.UniqueToActual)
	assert.False(t, r.ExpectedFailure)

	assert.Equal(t, UnexpectedFailure, c.Compare(nil, engine.Failed{}).Kind)
}

func TestCompare_GzipTransparent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	gz := writeFile(t, dir, "out.txt.gz", gzipBytes(t, "abc"))
	plain := writeFile(t, dir, "out.txt", []byte("abc"))

	c := New(nil)
	r := c.CompareOutputs(map[string]any{"wf.f": gz}, map[string]any{"wf.f": plain})
	assert.Equal(t, 1, r.Matches)

	r = c.CompareOutputs(map[string]any{"wf.f": plain}, map[string]any{"wf.f": gz})
	assert.Equal(t, 1, r.Matches)

	r = c.CompareOutputs(map[string]any{"wf.f": gz}, map[string]any{"wf.f": gz})
	assert.Equal(t, 1, r.Matches)
}

func TestCompare_FileContentMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("abc"))
	b := writeFile(t, dir, "b.txt.gz", gzipBytes(t, "abd"))

	r := New(nil).CompareOutputs(map[string]any{"wf.f": a}, map[string]any{"wf.f": b})

	require.Len(t, r.Mismatches, 1)
	assert.Contains(t, r.Mismatches[0].Reason, "file contents differ")
	assert.Contains(t, r.Mismatches[0].Reason, "xxh64")
}

func TestCompare_CorruptGzipComparesRawBytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	corrupt := []byte{0x1f, 0x8b, 'n', 'o', 't', ' ', 'g', 'z'}
	a := writeFile(t, dir, "a.gz", corrupt)
	b := writeFile(t, dir, "b.gz", corrupt)

	r := New(nil).CompareOutputs(map[string]any{"wf.f": a}, map[string]any{"wf.f": b})

	assert.Equal(t, 1, r.Matches)
}

func TestCompare_UnreadableFileIsMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("abc"))
	missing := filepath.Join(dir, "gone.txt")

	// Classify as File regardless of existence to reach the read path.
	c := New(ClassifierFunc(func(v any) Class {
		if _, ok := v.(string); ok {
			return File
		}
		return FSClassifier{}.Classify(v)
	}))
	r := c.CompareOutputs(map[string]any{"wf.f": a}, map[string]any{"wf.f": missing})

	require.Len(t, r.Mismatches, 1)
	assert.Contains(t, r.Mismatches[0].Reason, "reading actual file")
}

func TestCompare_ClassifierClassDisagreesWithValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		class Class
		check func(t *testing.T, r Result)
	}{
		{"file for non-strings", File, func(t *testing.T, r Result) {
			assert.Equal(t, []string{"wf.n"}, r.FileTypeMismatches)
		}},
		{"sequence for non-arrays", Sequence, func(t *testing.T, r Result) {
			assert.Equal(t, []string{"wf.n"}, r.ArrayShapeMismatches)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(ClassifierFunc(func(any) Class { return tt.class }))

			var r Result
			require.NotPanics(t, func() {
				r = c.CompareOutputs(map[string]any{"wf.n": 3}, map[string]any{"wf.n": 3})
			})
			assert.Zero(t, r.Matches)
			assert.False(t, r.Passed())
			tt.check(t, r)
		})
	}
}

func TestCompare_FileTypeMismatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", []byte("abc"))

	r := New(nil).CompareOutputs(
		map[string]any{"wf.f": file, "wf.g": "plain", "wf.h": []any{file}},
		map[string]any{"wf.f": "not-a-file", "wf.g": file, "wf.h": []any{"nope"}},
	)

	assert.Equal(t, []string{"wf.f", "wf.g", "wf.h"}, r.FileTypeMismatches)
	assert.Zero(t, r.Matches)
	assert.Empty(t, r.Mismatches)
}

func TestCompare_SequenceVersusScalar(t *testing.T) {
	t.Parallel()
	r := New(nil).CompareOutputs(
		decode(t, `{"wf.a": [1, 2], "wf.b": 1, "wf.c": [[1], [2]]}`),
		decode(t, `{"wf.a": 1, "wf.b": [1], "wf.c": [[1], 2]}`),
	)

	assert.Equal(t, []string{"wf.a", "wf.b", "wf.c"}, r.ArrayShapeMismatches)
}

func TestCompare_SequencePriority(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", []byte("abc"))

	tests := []struct {
		name     string
		expected []any
		actual   []any
		check    func(t *testing.T, r Result)
	}{
		{
			name:     "element mismatch escalates to key mismatch",
			expected: []any{"a", "b", "c"},
			actual:   []any{"a", "x", "c"},
			check: func(t *testing.T, r Result) {
				require.Len(t, r.Mismatches, 1)
				assert.Equal(t, `[1]: expected "b", got "x"`, r.Mismatches[0].Reason)
			},
		},
		{
			name:     "file type beats mismatch",
			expected: []any{"a", file},
			actual:   []any{"b", "c"},
			check: func(t *testing.T, r Result) {
				assert.Equal(t, []string{"wf.k"}, r.FileTypeMismatches)
				assert.Empty(t, r.Mismatches)
			},
		},
		{
			name:     "nested shape beats file type",
			expected: []any{"s", []any{file}, []any{"a", "b"}},
			actual:   []any{"s", []any{"x"}, []any{"a"}},
			check: func(t *testing.T, r Result) {
				assert.Equal(t, []string{"wf.k"}, r.ArrayShapeMismatches)
				assert.Empty(t, r.FileTypeMismatches)
			},
		},
		{
			name:     "all elements match",
			expected: []any{[]any{"a", json.Number("1")}, []any{file, true}},
			actual:   []any{[]any{"a", json.Number("1.0")}, []any{file, true}},
			check: func(t *testing.T, r Result) {
				assert.Equal(t, 1, r.Matches)
				assert.True(t, r.Passed())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := New(nil).CompareOutputs(map[string]any{"wf.k": tt.expected}, map[string]any{"wf.k": tt.actual})
			tt.check(t, r)
		})
	}
}

func TestCompare_UniqueKeys(t *testing.T) {
	t.Parallel()
	r := New(nil).CompareOutputs(
		decode(t, `{"wf.shared": 1, "wf.only_expected": 2, "wf.also_expected": 3}`),
		decode(t, `{"wf.shared": 1, "wf.only_actual": 4}`),
	)

	assert.Equal(t, 1, r.Matches)
	assert.Equal(t, []string{"wf.also_expected", "wf.only_expected"}, r.UniqueToExpected)
	assert.Equal(t, []string{"wf.only_actual"}, r.UniqueToActual)
	assert.False(t, r.Passed())
}

func TestCompare_NullExpectedValueIsSkipped(t *testing.T) {
	t.Parallel()
	r := New(nil).CompareOutputs(
		decode(t, `{"wf.any": null, "wf.x": "y"}`),
		decode(t, `{"wf.any": [1, 2, 3], "wf.x": "y"}`),
	)

	assert.Equal(t, 1, r.Matches)
	assert.Empty(t, r.Mismatches)
	assert.Empty(t, r.ArrayShapeMismatches)
	assert.True(t, r.Passed())
}

func TestCompare_ScalarEquality(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"equal ints", json.Number("3"), json.Number("3"), true},
		{"int vs float form", json.Number("3"), json.Number("3.0"), true},
		{"exponent form", json.Number("1e2"), json.Number("100"), true},
		{"different floats", json.Number("3.14"), json.Number("3.1400001"), false},
		{"large ints", json.Number("9007199254740993"), json.Number("9007199254740992"), false},
		{"go float and number", 2.5, json.Number("2.5"), true},
		{"number vs string", json.Number("1"), "1", false},
		{"bools", true, true, true},
		{"bool vs string", true, "true", false},
		{"nulls", nil, nil, true},
		{"null vs string", nil, "x", false},
		{"objects", map[string]any{"a": json.Number("1"), "b": []any{"x"}}, map[string]any{"b": []any{"x"}, "a": json.Number("1.0")}, true},
		{"objects differ", map[string]any{"a": json.Number("1")}, map[string]any{"a": json.Number("2")}, false},
		{"object key sets differ", map[string]any{"a": nil}, map[string]any{"b": nil}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.equal, scalarsEqual(tt.a, tt.b))
			assert.Equal(t, tt.equal, scalarsEqual(tt.b, tt.a))
		})
	}
}

func TestShape(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		value any
		want  []int
	}{
		{"scalar", "a", nil},
		{"empty", []any{}, []int{0}},
		{"flat", []any{"a", "b", "c", "d"}, []int{4}},
		{"matrix", []any{[]any{"a", "b"}, []any{"c", "d"}}, []int{2, 2}},
		{"ragged", []any{[]any{"a"}, []any{"c", "d"}}, []int{2}},
		{"mixed", []any{[]any{"a"}, "b"}, []int{2}},
		{"cube", []any{[]any{[]any{1}}, []any{[]any{2}}}, []int{2, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Shape(tt.value))
		})
	}
}

func TestCompare_Commutative(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", []byte("abc"))

	left := map[string]any{
		"wf.same":   json.Number("1"),
		"wf.diff":   "a",
		"wf.shape":  []any{[]any{"a", "b"}},
		"wf.file":   file,
		"wf.nested": []any{"x", []any{"y"}},
		"wf.left":   true,
	}
	right := map[string]any{
		"wf.same":   json.Number("1.0"),
		"wf.diff":   "b",
		"wf.shape":  []any{"a", "b"},
		"wf.file":   "plain",
		"wf.nested": []any{"x", []any{"z"}},
		"wf.right":  false,
	}

	c := New(nil)
	lr := c.CompareOutputs(left, right)
	rl := c.CompareOutputs(right, left)

	assert.Equal(t, lr.Matches, rl.Matches)
	assert.Equal(t, lr.MismatchKeys(), rl.MismatchKeys())
	assert.Equal(t, lr.ArrayShapeMismatches, rl.ArrayShapeMismatches)
	assert.Equal(t, lr.FileTypeMismatches, rl.FileTypeMismatches)
	assert.Equal(t, lr.UniqueToExpected, rl.UniqueToActual)
	assert.Equal(t, lr.UniqueToActual, rl.UniqueToExpected)

	assert.Equal(t, 1, lr.Matches)
	assert.Equal(t, []string{"wf.diff", "wf.nested"}, lr.MismatchKeys())
}

func TestCompare_Idempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt.gz", gzipBytes(t, "abc"))
	outputs := decode(t, `{
		"wf.s": "text",
		"wf.n": 42,
		"wf.f": 0.5,
		"wf.b": false,
		"wf.arr": [[1, 2], [3, 4]],
		"wf.ragged": [[1], [2, 3], []],
		"wf.obj": {"k": [1, "v"]}
	}`)
	outputs["wf.file"] = file
	outputs["wf.files"] = []any{file, file}

	r := New(nil).CompareOutputs(outputs, outputs)

	assert.Equal(t, len(outputs), r.Matches)
	assert.True(t, r.Passed())
}

func TestCompare_EveryKeyInOneBucket(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", []byte("abc"))
	expected := map[string]any{"wf.m": "a", "wf.x": "b", "wf.s": []any{"a"}, "wf.f": file}
	actual := map[string]any{"wf.m": "a", "wf.x": "c", "wf.s": "a", "wf.f": "a"}

	r := New(nil).CompareOutputs(expected, actual)

	total := r.Matches + len(r.Mismatches) + len(r.ArrayShapeMismatches) + len(r.FileTypeMismatches)
	assert.Equal(t, len(expected), total)
}

func TestClassifiers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "a.txt", []byte("abc"))

	fs := FSClassifier{}
	assert.Equal(t, File, fs.Classify(file))
	assert.Equal(t, Scalar, fs.Classify(dir), "directories are not files")
	assert.Equal(t, Scalar, fs.Classify(filepath.Join(dir, "missing")))
	assert.Equal(t, Scalar, fs.Classify(""))
	assert.Equal(t, Scalar, fs.Classify(json.Number("1")))
	assert.Equal(t, Sequence, fs.Classify([]any{}))

	shape := ShapeClassifier{}
	assert.Equal(t, Scalar, shape.Classify(file))
	assert.Equal(t, Sequence, shape.Classify([]any{file}))

	r := New(shape).CompareOutputs(map[string]any{"wf.f": file}, map[string]any{"wf.f": file})
	assert.Equal(t, 1, r.Matches)
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "evaluated", Evaluated.String())
	assert.Equal(t, "expected failure succeeded", ExpectedFailureSucceeded.String())
	assert.Equal(t, "unexpected failure", UnexpectedFailure.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

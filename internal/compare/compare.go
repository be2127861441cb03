// Package compare classifies a test run's outputs against its expectation.
//
// Each output key shared by both sides ends up in exactly one of four
// buckets: match, mismatch, array-shape mismatch or file-type mismatch.
// Keys present on one side only are reported separately and count as
// neither.
package compare

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/wattwdl/watt/internal/engine"
	"github.com/wattwdl/watt/internal/logging"
	"github.com/wattwdl/watt/internal/testcase"
)

// verdict is the classification of one value pair. Higher values win when
// element verdicts of a sequence are combined.
type verdict int

const (
	verdictMatch verdict = iota
	verdictMismatch
	verdictFileType
	verdictShape
)

func (v verdict) String() string {
	switch v {
	case verdictMatch:
		return "match"
	case verdictMismatch:
		return "mismatch"
	case verdictFileType:
		return "file type mismatch"
	default:
		return "array shape mismatch"
	}
}

// Comparator compares expectations with engine outcomes.
type Comparator struct {
	classifier Classifier
	logger     *log.Logger
}

// New creates a Comparator. A nil classifier means FSClassifier.
func New(classifier Classifier) *Comparator {
	if classifier == nil {
		classifier = FSClassifier{}
	}
	return &Comparator{classifier: classifier, logger: logging.New("compare")}
}

// Compare classifies actual against expect. A nil expectation is treated as
// an empty set of expected outputs.
func (c *Comparator) Compare(expect testcase.Expectation, actual engine.Outcome) Result {
	switch exp := expect.(type) {
	case testcase.ExpectFailure:
		switch act := actual.(type) {
		case engine.Succeeded:
			r := c.CompareOutputs(nil, act.Outputs)
			r.ExpectedFailure = true
			return r
		default:
			return Result{Kind: ExpectedFailureSucceeded}
		}
	case testcase.ExpectOutputs:
		return c.compareOutcome(exp.Outputs, actual)
	default:
		return c.compareOutcome(nil, actual)
	}
}

func (c *Comparator) compareOutcome(expected map[string]any, actual engine.Outcome) Result {
	act, ok := actual.(engine.Succeeded)
	if !ok {
		return Result{Kind: UnexpectedFailure}
	}
	return c.CompareOutputs(expected, act.Outputs)
}

// CompareOutputs compares two output mappings key by key. An expected value
// of null means the key is not checked.
func (c *Comparator) CompareOutputs(expected, actual map[string]any) Result {
	r := Result{Kind: Evaluated}

	for key := range actual {
		if _, ok := expected[key]; !ok {
			r.UniqueToActual = append(r.UniqueToActual, key)
		}
	}

	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			r.UniqueToExpected = append(r.UniqueToExpected, key)
			continue
		}
		if want == nil {
			c.logger.Debug("skipping key with null expected value", "key", key)
			continue
		}

		v, reason := c.compareValues(want, got)
		c.logger.Debug("compared key", "key", key, "verdict", v, "reason", reason)
		switch v {
		case verdictMatch:
			r.Matches++
		case verdictMismatch:
			r.Mismatches = append(r.Mismatches, KeyMismatch{Key: key, Reason: reason})
		case verdictFileType:
			r.FileTypeMismatches = append(r.FileTypeMismatches, key)
		case verdictShape:
			r.ArrayShapeMismatches = append(r.ArrayShapeMismatches, key)
		}
	}

	r.sortKeys()
	return r
}

func (c *Comparator) compareValues(want, got any) (verdict, string) {
	wantClass := c.classifier.Classify(want)
	gotClass := c.classifier.Classify(got)

	switch {
	case (wantClass == File) != (gotClass == File):
		return verdictFileType, fmt.Sprintf("expected %s, got %s", wantClass, gotClass)

	case wantClass == File:
		wantPath, ok1 := want.(string)
		gotPath, ok2 := got.(string)
		if !ok1 || !ok2 {
			return verdictFileType, fmt.Sprintf("file values must be paths, got %s and %s", render(want), render(got))
		}
		if ok, reason := compareFiles(wantPath, gotPath); !ok {
			return verdictMismatch, reason
		}
		return verdictMatch, ""

	case wantClass == Sequence && gotClass == Sequence:
		wantSeq, ok1 := want.([]any)
		gotSeq, ok2 := got.([]any)
		if !ok1 || !ok2 {
			return verdictShape, fmt.Sprintf("sequence values must be arrays, got %s and %s", render(want), render(got))
		}
		return c.compareSequences(wantSeq, gotSeq)

	case wantClass == Sequence || gotClass == Sequence:
		return verdictShape, fmt.Sprintf("expected %s, got %s", wantClass, gotClass)

	default:
		if scalarsEqual(want, got) {
			return verdictMatch, ""
		}
		return verdictMismatch, fmt.Sprintf("expected %s, got %s", render(want), render(got))
	}
}

func (c *Comparator) compareSequences(want, got []any) (verdict, string) {
	wantShape, gotShape := Shape(want), Shape(got)
	if !shapesEqual(wantShape, gotShape) {
		return verdictShape, fmt.Sprintf("expected shape %v, got %v", wantShape, gotShape)
	}

	result, reason := verdictMatch, ""
	for i := range want {
		v, r := c.compareValues(want[i], got[i])
		if v > result {
			result, reason = v, fmt.Sprintf("[%d]: %s", i, r)
		}
	}
	return result, reason
}

// Shape returns the nested-length profile of v: [2 2] for a 2x2 array, [4]
// for a flat array of four. Nesting stops at the first level whose elements
// are not all sequences of the same shape. Non-sequences have a nil shape.
func Shape(v any) []int {
	seq, ok := v.([]any)
	if !ok {
		return nil
	}
	shape := []int{len(seq)}
	if len(seq) == 0 {
		return shape
	}

	inner := Shape(seq[0])
	if inner == nil {
		return shape
	}
	for _, el := range seq[1:] {
		if !shapesEqual(inner, Shape(el)) {
			return shape
		}
	}
	return append(shape, inner...)
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// scalarsEqual compares two non-sequence values exactly. Numbers compare by
// value, so 3 and 3.0 are equal; objects compare member by member.
func scalarsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		return ok && numbersEqual(an, bn)
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !deepEqual(x, y) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func deepEqual(a, b any) bool {
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok || bok {
		if !aok || !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !deepEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return scalarsEqual(a, b)
}

// asNumber normalizes the numeric representations a decoder may produce.
func asNumber(v any) (json.Number, bool) {
	switch n := v.(type) {
	case json.Number:
		return n, true
	case float64:
		return json.Number(strconv.FormatFloat(n, 'g', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(n)), true
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true
	default:
		return "", false
	}
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ai, aerr := a.Int64()
	bi, berr := b.Int64()
	if aerr == nil && berr == nil {
		return ai == bi
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	if aerr != nil || berr != nil || math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}
	return af == bf
}

func render(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case nil:
		return "null"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("object with keys %v", keys)
	default:
		return fmt.Sprintf("%v", val)
	}
}

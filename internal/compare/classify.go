package compare

import "os"

// Class is the type class of an output value.
type Class int

const (
	Scalar Class = iota
	Sequence
	File
)

func (c Class) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// Classifier decides the type class of a value.
type Classifier interface {
	Classify(v any) Class
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(v any) Class

// Classify calls f(v).
func (f ClassifierFunc) Classify(v any) Class {
	return f(v)
}

// FSClassifier treats a string naming an existing non-directory path as a
// File. Relative paths are resolved against the working directory.
//
// The check runs at comparison time, so a string that happens to match an
// unrelated file is still classified as File.
type FSClassifier struct{}

// Classify implements Classifier.
func (FSClassifier) Classify(v any) Class {
	switch val := v.(type) {
	case []any:
		return Sequence
	case string:
		if val == "" {
			return Scalar
		}
		info, err := os.Stat(val)
		if err == nil && !info.IsDir() {
			return File
		}
	}
	return Scalar
}

// ShapeClassifier never reports files; strings are always compared as text.
type ShapeClassifier struct{}

// Classify implements Classifier.
func (ShapeClassifier) Classify(v any) Class {
	if _, ok := v.([]any); ok {
		return Sequence
	}
	return Scalar
}

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Metadata is the subset of Cromwell's run metadata that watt reads.
type Metadata struct {
	Status  string
	Outputs map[string]any
}

// ReadMetadata reads a Cromwell metadata file.
func ReadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseMetadata(f)
}

// ParseMetadata decodes Cromwell metadata JSON. The "outputs" field must be
// an object; numbers are decoded as json.Number.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw struct {
		Status  string          `json:"status"`
		Outputs json.RawMessage `json:"outputs"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON: %w", err)
	}
	if len(raw.Outputs) == 0 {
		return nil, fmt.Errorf("metadata has no outputs field")
	}

	outDec := json.NewDecoder(bytes.NewReader(raw.Outputs))
	outDec.UseNumber()
	var outputs map[string]any
	if err := outDec.Decode(&outputs); err != nil {
		return nil, fmt.Errorf("metadata outputs must be an object: %w", err)
	}
	if outputs == nil {
		return nil, fmt.Errorf("metadata outputs must be an object, got null")
	}

	return &Metadata{Status: raw.Status, Outputs: outputs}, nil
}

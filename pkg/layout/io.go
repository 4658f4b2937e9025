package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.mongodb.org/mongo-driver/bson"

	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
)

// Scenario formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// =============================================================================
// Scenario I/O
// =============================================================================

// FormatFromPath picks the scenario format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", lrerrors.New(lrerrors.ErrCodeInvalidFormat, "cannot tell the format of %s (want .json or .toml)", path)
}

// ReadScenarioFile reads and validates a .json or .toml scenario.
func ReadScenarioFile(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScenario(f, format)
}

// ReadScenario decodes and validates a scenario in the given format.
func ReadScenario(r io.Reader, format string) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "decode scenario")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&s)
		if err != nil {
			return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "decode scenario")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, lrerrors.New(lrerrors.ErrCodeInvalidFormat, "unknown scenario key %q", undecoded[0].String())
		}
	default:
		return nil, lrerrors.New(lrerrors.ErrCodeUnsupported, "scenario format %q", format)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalScenario encodes a scenario as indented JSON.
func MarshalScenario(s *Scenario) ([]byte, error) {
	return marshalJSON(s)
}

// =============================================================================
// Tree and Result I/O
// =============================================================================

// MarshalTree encodes a tree document as indented JSON.
func MarshalTree(d TreeDoc) ([]byte, error) {
	return marshalJSON(d)
}

// UnmarshalTree decodes a JSON tree document.
func UnmarshalTree(data []byte) (TreeDoc, error) {
	var d TreeDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return TreeDoc{}, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "decode tree")
	}
	return d, nil
}

// MarshalResult encodes a result as indented JSON.
func MarshalResult(r *Result) ([]byte, error) {
	return marshalJSON(r)
}

// UnmarshalResult decodes a JSON result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "decode result")
	}
	return &r, nil
}

// WriteResultFile writes a result as JSON.
// The file is created with 0644 permissions.
func WriteResultFile(r *Result, path string) error {
	data, err := MarshalResult(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadResultFile reads a JSON result.
func ReadResultFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalResult(data)
}

// MarshalResultBSON encodes a result as BSON, the snapshot store format.
func MarshalResultBSON(r *Result) ([]byte, error) {
	data, err := bson.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode bson: %w", err)
	}
	return data, nil
}

// UnmarshalResultBSON decodes a BSON result.
func UnmarshalResultBSON(data []byte) (*Result, error) {
	var r Result
	if err := bson.Unmarshal(data, &r); err != nil {
		return nil, lrerrors.Wrap(lrerrors.ErrCodeInvalidFormat, err, "decode bson result")
	}
	return &r, nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

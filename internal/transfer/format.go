package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/metalagman/tasks/internal/task"
	"gopkg.in/yaml.v3"
)

// Format names an export or import encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat normalizes a format name. Empty input yields json.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatJSON, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatCSV, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q (want json|csv|yaml|toml)", task.ErrValidation, value)
	}
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	default:
		return "application/json"
	}
}

type tomlDocument struct {
	Tasks []Record `toml:"tasks"`
}

type tomlInputDocument struct {
	Tasks []Input `toml:"tasks"`
}

// Export writes tasks to w in format f.
func Export(w io.Writer, f Format, tasks []task.Task) error {
	records := FromTasks(tasks)
	switch f {
	case FormatCSV:
		return WriteCSV(w, tasks)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(tomlDocument{Tasks: records}); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// Decode reads task inputs in format f. A payload that cannot be parsed at
// all is a validation error; per-row problems surface during Import.
func Decode(r io.Reader, f Format) ([]Input, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatYAML:
		var in []Input
		if err := yaml.NewDecoder(r).Decode(&in); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: decode yaml: %v", task.ErrValidation, err)
		}
		return in, nil
	case FormatTOML:
		var doc tomlInputDocument
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode toml: %v", task.ErrValidation, err)
		}
		return doc.Tasks, nil
	default:
		var in []Input
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", task.ErrValidation, err)
		}
		return in, nil
	}
}

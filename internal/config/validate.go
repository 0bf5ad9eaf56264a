package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// ValidateSettings checks nested settings, as read from a config file,
// against the embedded JSON schema. Every violation is reported.
func ValidateSettings(settings map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	sort.Strings(problems)
	return fmt.Errorf("config schema validation failed: %s", strings.Join(problems, "; "))
}

// Nest expands dotted keys into nested maps, the shape written to config files.
func Nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		Set(out, key, value)
	}
	return out
}

// Set stores value under a dotted key, creating intermediate maps and
// replacing any non-map value in the way.
func Set(settings map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	node := settings
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

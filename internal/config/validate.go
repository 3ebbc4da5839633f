package config

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// ValidateSettings checks merged settings (flags, env, file) against the
// embedded schema before they are decoded into Config.
func ValidateSettings(settings map[string]any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
	}
	slices.Sort(problems)
	return fmt.Errorf("config schema validation failed: %s", strings.Join(problems, "; "))
}

package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema is the JSON Schema the merged settings must satisfy before
// unmarshalling. Numeric and boolean fields also admit string forms because
// environment overrides always arrive as strings; their invariants are
// re-checked on the typed struct after unmarshalling.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["conversation", "llm", "output"],
	"properties": {
		"conversation": {
			"type": "object",
			"required": ["goal", "persona", "max_turns"],
			"properties": {
				"goal": {"type": "string", "minLength": 1},
				"persona": {"type": "string", "minLength": 1},
				"max_turns": {"type": ["integer", "string"]},
				"history_file": {"type": "string"},
				"questioner": {"$ref": "#/definitions/agent"},
				"responder": {"$ref": "#/definitions/agent"}
			}
		},
		"llm": {
			"type": "object",
			"required": ["model"],
			"properties": {
				"model": {"type": "string", "minLength": 1},
				"api_key": {"type": "string"},
				"base_url": {"type": "string"},
				"timeout": {"type": "string"}
			}
		},
		"dialogue": {
			"type": "object",
			"properties": {
				"rate_limit_enabled": {"type": ["boolean", "string"]},
				"rate_limit_capacity": {"type": ["integer", "string"]},
				"rate_limit_refill": {"type": "string"},
				"enable_tracing": {"type": ["boolean", "string"]}
			}
		},
		"output": {
			"type": "object",
			"required": ["dir"],
			"properties": {
				"dir": {"type": "string", "minLength": 1},
				"redact_secrets": {"type": ["boolean", "string"]},
				"blocked_patterns": {"type": "array", "items": {"type": "string"}}
			}
		}
	},
	"definitions": {
		"agent": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"description": {"type": "string"},
				"instructions": {"type": "string"}
			}
		}
	}
}`

// validateSettings checks the merged settings map against configSchema.
func validateSettings(settings map[string]any) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(configSchema))
	if err != nil {
		return fmt.Errorf("config: invalid schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("config: validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

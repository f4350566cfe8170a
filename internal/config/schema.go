package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// durationSchema accepts Go duration strings or non-negative milliseconds.
const durationSchema = `{
  "oneOf": [
    {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"},
    {"type": "integer", "minimum": 0}
  ]
}`

// documentSchema is the closed JSON schema every configuration document must satisfy.
// Conditional rules (e.g. command for local-process) are enforced by semantic validation
// so that violations name the exact missing field.
var documentSchema = fmt.Sprintf(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["version", "servers"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "servers": {
      "type": "object",
      "propertyNames": {"pattern": "^[A-Za-z0-9][A-Za-z0-9_.-]*$"},
      "additionalProperties": {"$ref": "#/definitions/server"}
    },
    "defaults": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "timeout": {"$ref": "#/definitions/duration"},
        "health_check": {"$ref": "#/definitions/healthCheck"},
        "retry": {"$ref": "#/definitions/retry"}
      }
    },
    "groups": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string", "minLength": 1}
      }
    }
  },
  "definitions": {
    "duration": %s,
    "stringMap": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "healthCheck": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "interval": {"$ref": "#/definitions/duration"},
        "timeout": {"$ref": "#/definitions/duration"},
        "cache_ttl": {"$ref": "#/definitions/duration"}
      }
    },
    "retry": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_retries": {"type": "integer", "minimum": 0},
        "base_delay": {"$ref": "#/definitions/duration"},
        "max_delay": {"$ref": "#/definitions/duration"},
        "backoff_multiplier": {"type": "number", "minimum": 1}
      }
    },
    "server": {
      "type": "object",
      "additionalProperties": false,
      "required": ["type"],
      "properties": {
        "type": {"enum": ["local-process", "http", "event-stream"]},
        "command": {"type": "string"},
        "args": {"type": "array", "items": {"type": "string"}},
        "env": {"$ref": "#/definitions/stringMap"},
        "url": {"type": "string"},
        "headers": {"$ref": "#/definitions/stringMap"},
        "timeout": {"$ref": "#/definitions/duration"},
        "health_check": {"$ref": "#/definitions/healthCheck"},
        "retry": {"$ref": "#/definitions/retry"},
        "tags": {"type": "array", "items": {"type": "string"}},
        "enabled": {"type": "boolean"},
        "description": {"type": "string"},
        "default": {"type": "boolean"}
      }
    }
  }
}`, durationSchema)

// rootField is the path gojsonschema reports for the document root.
const rootField = "(root)"

var documentSchemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateSchema checks a decoded (and interpolated) document against the closed schema.
func validateSchema(doc map[string]any) ([]Violation, error) {
	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to run schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, Violation{
			Field:   schemaField(re),
			Message: re.Description(),
		})
	}

	slices.SortStableFunc(violations, func(a, b Violation) int {
		return strings.Compare(a.Field, b.Field)
	})

	return violations, nil
}

// schemaField builds a dotted field path, appending the offending property for
// 'required' and 'additional property' errors which otherwise name only the parent object.
func schemaField(re gojsonschema.ResultError) string {
	field := re.Field()
	if field == rootField {
		field = ""
	}

	switch re.Type() {
	case "required", "additional_property_not_allowed":
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}

	return field
}

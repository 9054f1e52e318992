package documentai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaURL = "documentai-response.json"

// responseSchema is the subset of the processor response the pipeline relies on.
const responseSchema = `{
  "type": "object",
  "required": ["document"],
  "properties": {
    "document": {
      "type": "object",
      "properties": {
        "text": {"type": "string"},
        "pages": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "pageNumber": {"type": "integer"},
              "tables": {"type": "array"},
              "formFields": {"type": "array"},
              "paragraphs": {"type": "array"}
            }
          }
        },
        "entities": {
          "type": "array",
          "items": {"$ref": "#/$defs/entity"}
        }
      }
    }
  },
  "$defs": {
    "entity": {
      "type": "object",
      "properties": {
        "type": {"type": "string"},
        "mentionText": {"type": "string"},
        "confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "properties": {"type": "array", "items": {"$ref": "#/$defs/entity"}}
      }
    }
  }
}`

type responseValidator struct {
	schema *jsonschema.Schema
}

func newResponseValidator() (*responseValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(responseSchemaURL, strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("add documentai schema: %w", err)
	}
	schema, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile documentai schema: %w", err)
	}
	return &responseValidator{schema: schema}, nil
}

func (v *responseValidator) Validate(body []byte) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}

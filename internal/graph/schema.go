package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaDefs = `{
  "$id": "flowkeeper://graph/defs.json",
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "position", "data"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "type": {"enum": ["service", "database"]},
        "position": {
          "type": "object",
          "required": ["x", "y"],
          "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
        },
        "data": {
          "type": "object",
          "properties": {
            "label": {"type": "string"},
            "status": {"enum": ["healthy", "degraded", "down", ""]},
            "cpu": {"type": "number", "minimum": 0, "maximum": 100},
            "memory": {"type": "number", "minimum": 0}
          }
        }
      }
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "source": {"type": "string"},
        "target": {"type": "string"},
        "animated": {"type": "boolean"}
      }
    },
    "viewport": {
      "type": "object",
      "required": ["x", "y", "zoom"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"},
        "zoom": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  }
}`

const documentSchema = `{
  "$id": "flowkeeper://graph/document.json",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {"type": "array", "items": {"$ref": "defs.json#/$defs/node"}},
    "edges": {"type": "array", "items": {"$ref": "defs.json#/$defs/edge"}}
  }
}`

const snapshotSchema = `{
  "$id": "flowkeeper://graph/snapshot.json",
  "type": "object",
  "required": ["appId", "nodes", "edges"],
  "properties": {
    "appId": {"type": "string", "minLength": 1},
    "nodes": {"type": "array", "items": {"$ref": "defs.json#/$defs/node"}},
    "edges": {"type": "array", "items": {"$ref": "defs.json#/$defs/edge"}},
    "viewport": {"$ref": "defs.json#/$defs/viewport"}
  }
}`

var (
	schemaOnce    sync.Once
	documentShape *jsonschema.Schema
	snapshotShape *jsonschema.Schema
	schemaErr     error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	resources := map[string]string{
		"flowkeeper://graph/defs.json":     schemaDefs,
		"flowkeeper://graph/document.json": documentSchema,
		"flowkeeper://graph/snapshot.json": snapshotSchema,
	}
	for url, src := range resources {
		if err := c.AddResource(url, strings.NewReader(src)); err != nil {
			schemaErr = fmt.Errorf("add schema %s: %w", url, err)
			return
		}
	}
	if documentShape, schemaErr = c.Compile("flowkeeper://graph/document.json"); schemaErr != nil {
		return
	}
	snapshotShape, schemaErr = c.Compile("flowkeeper://graph/snapshot.json")
}

// ValidateDocumentJSON checks a raw remote graph document against its schema.
func ValidateDocumentJSON(raw []byte) error {
	return validate(raw, func() *jsonschema.Schema { return documentShape })
}

// ValidateSnapshotJSON checks a raw persisted snapshot against its schema.
func ValidateSnapshotJSON(raw []byte) error {
	return validate(raw, func() *jsonschema.Schema { return snapshotShape })
}

func validate(raw []byte, pick func() *jsonschema.Schema) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := pick().Validate(v); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}

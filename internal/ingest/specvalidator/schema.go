// internal/ingest/specvalidator/schema.go
package specvalidator

// itemSchema is the subset of the catalog item specification enforced at
// ingest time: required fields, field types, and asset shape. Geometry
// internals are validated separately because JSON Schema cannot express
// coordinate semantics.
const itemSchema = `{
  "type": "object",
  "required": ["id", "collection", "geometry", "properties", "assets"],
  "properties": {
    "id": {
      "type": "string",
      "minLength": 1
    },
    "collection": {
      "type": "string",
      "minLength": 1
    },
    "geometry": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {
          "type": "string"
        }
      }
    },
    "properties": {
      "type": "object",
      "required": ["datetime"]
    },
    "assets": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["href"],
        "properties": {
          "href": {
            "type": "string",
            "minLength": 1
          },
          "title": {
            "type": "string"
          },
          "type": {
            "type": "string"
          },
          "roles": {
            "type": "array",
            "items": {
              "type": "string"
            }
          }
        }
      }
    }
  }
}`

// declaredPropertyTypes lists the item properties with specified types.
// Unknown properties pass through untyped.
var declaredPropertyTypes = map[string]string{
	"datetime":       "string",
	"start_datetime": "string",
	"end_datetime":   "string",
	"title":          "string",
	"description":    "string",
	"created":        "string",
	"updated":        "string",
	"gsd":            "number",
	"platform":       "string",
	"instruments":    "array",
	"constellation":  "string",
	"mission":        "string",
}

package timeline

import "encoding/json"

// responseSchema is the JSON Schema handed to the generation backend. It is
// written for strict structured-output mode: every property is listed in
// "required" and optional values are expressed as nullable.
const responseSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["entity", "events"],
  "properties": {
    "entity": {
      "type": "string",
      "description": "Canonical name of the subject, e.g. \"Nokia\" for \"The rise and fall of Nokia\""
    },
    "events": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "year", "title", "description", "type", "sentiment", "impactScore", "marketValue", "tags"],
        "properties": {
          "id": {"type": "string", "description": "Short identifier, unique within this timeline"},
          "year": {"type": "integer"},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "type": {"type": "string", "enum": ["historical", "prediction"]},
          "sentiment": {"type": "string", "enum": ["positive", "neutral", "negative"]},
          "impactScore": {"type": "number", "minimum": 0, "maximum": 100},
          "marketValue": {"type": ["string", "null"], "description": "Market value or valuation at the time, if applicable"},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// JSONSchema returns the schema a timeline payload must conform to.
func JSONSchema() json.RawMessage {
	return json.RawMessage(responseSchema)
}

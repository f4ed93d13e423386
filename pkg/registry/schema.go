// pkg/registry/schema.go
package registry

// Seed is the on-disk form of the activity catalogue loaded at startup.
type Seed struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated,omitempty"`
	Activities  []ActivitySeed `json:"activities"`
}

type ActivitySeed struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// seedSchema is the JSON Schema every seed file must satisfy.
const seedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["activities"],
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "activities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "description", "schedule", "max_participants", "participants"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "schedule": {"type": "string"},
          "max_participants": {"type": "integer", "minimum": 1},
          "participants": {
            "type": "array",
            "uniqueItems": true,
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    }
  }
}`

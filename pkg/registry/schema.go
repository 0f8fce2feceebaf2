// pkg/registry/schema.go
package registry

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// activitySchema is the JSON Schema every registry entry must satisfy.
// Categories mirror the worker package layout under internal/workers.
const activitySchema = `{
	"type": "object",
	"required": ["id", "displayName", "description", "category", "taskType"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"displayName": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 1},
		"category": {"type": "string", "enum": ["application", "interview", "notification", "reporting"]},
		"version": {"type": "string"},
		"taskType": {"type": "string", "minLength": 1},
		"implementationStatus": {"type": "string", "enum": ["planned", "in-progress", "completed", "verified"]},
		"errorCodes": {"type": "array", "items": {"type": "string"}},
		"timeout": {"type": "string"},
		"retries": {"type": "integer", "minimum": 0},
		"workflows": {"type": "array", "items": {"type": "string"}},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

// ValidateActivity checks one registry entry against the activity schema.
func ValidateActivity(activity *Activity) error {
	schemaLoader := gojsonschema.NewStringLoader(activitySchema)
	documentLoader := gojsonschema.NewGoLoader(activity)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("activity %s invalid: %s", activity.ID, strings.Join(problems, "; "))
	}

	return nil
}

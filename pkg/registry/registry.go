// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType returns the activity registered for a Zeebe task type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, error) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], nil
		}
	}
	return nil, fmt.Errorf("activity not registered for task type %q", taskType)
}

// ValidateInput checks a job payload against the activity's input schema.
func (a *Activity) ValidateInput(payload map[string]interface{}) error {
	return validateAgainst(a.InputSchema, payload)
}

// ValidateOutput checks produced variables against the activity's output schema.
func (a *Activity) ValidateOutput(payload map[string]interface{}) error {
	return validateAgainst(a.OutputSchema, payload)
}

func validateAgainst(schema, payload map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msg := "payload validation failed:"
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf(" %s;", desc.String())
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

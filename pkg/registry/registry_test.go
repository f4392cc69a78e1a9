// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryJSON = `{
	"version": "1.0.0",
	"lastUpdated": "2025-03-01",
	"activities": [
		{
			"id": "route-ticket",
			"taskType": "route-ticket",
			"inputSchema": {
				"type": "object",
				"properties": {
					"ticketId": {"type": "string", "minLength": 1}
				},
				"required": ["ticketId"]
			},
			"outputSchema": {
				"type": "object",
				"properties": {
					"outcome": {"type": "string", "enum": ["ASSIGNED", "NO_ELIGIBLE_CANDIDATES", "SKIPPED"]}
				},
				"required": ["outcome"]
			},
			"errorCodes": ["TICKET_NOT_FOUND"],
			"timeout": "PT30S"
		},
		{
			"id": "sweep-tickets",
			"taskType": "sweep-tickets"
		}
	]
}`

func writeTestRegistry(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryJSON), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeTestRegistry(t))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Activities, 2)
	assert.Equal(t, "route-ticket", reg.Activities[0].TaskType)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRegistry_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestFindByTaskType(t *testing.T) {
	reg, err := LoadRegistry(writeTestRegistry(t))
	require.NoError(t, err)

	activity, err := reg.FindByTaskType("route-ticket")
	require.NoError(t, err)
	assert.Equal(t, "route-ticket", activity.ID)

	_, err = reg.FindByTaskType("unknown-task")
	assert.Error(t, err)
}

func TestActivity_ValidateInput(t *testing.T) {
	reg, err := LoadRegistry(writeTestRegistry(t))
	require.NoError(t, err)
	activity, err := reg.FindByTaskType("route-ticket")
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload map[string]interface{}
		wantErr bool
	}{
		{
			name:    "valid payload",
			payload: map[string]interface{}{"ticketId": "ticket-1"},
		},
		{
			name:    "missing ticket id",
			payload: map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "empty ticket id",
			payload: map[string]interface{}{"ticketId": ""},
			wantErr: true,
		},
		{
			name:    "wrong type",
			payload: map[string]interface{}{"ticketId": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := activity.ValidateInput(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActivity_ValidateOutput(t *testing.T) {
	reg, err := LoadRegistry(writeTestRegistry(t))
	require.NoError(t, err)
	activity, err := reg.FindByTaskType("route-ticket")
	require.NoError(t, err)

	assert.NoError(t, activity.ValidateOutput(map[string]interface{}{"outcome": "ASSIGNED"}))
	assert.Error(t, activity.ValidateOutput(map[string]interface{}{"outcome": "UNKNOWN"}))
}

func TestActivity_ValidateWithoutSchema(t *testing.T) {
	reg, err := LoadRegistry(writeTestRegistry(t))
	require.NoError(t, err)
	activity, err := reg.FindByTaskType("sweep-tickets")
	require.NoError(t, err)

	assert.NoError(t, activity.ValidateInput(map[string]interface{}{"anything": true}))
	assert.NoError(t, activity.ValidateOutput(nil))
}

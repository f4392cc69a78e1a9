// internal/workers/routing/sweep-tickets/models.go
package sweeptickets

// Input optionally overrides the sweep batch size.
type Input struct {
	BatchSize int `json:"batchSize,omitempty"`
}

// Output is the sweep summary completed back to the process.
type Output struct {
	Scanned    int            `json:"scanned"`
	Routed     int            `json:"routed"`
	Skipped    int            `json:"skipped"`
	Unassigned int            `json:"unassigned"`
	Failed     int            `json:"failed"`
	FailedBy   map[string]int `json:"failedBy,omitempty"`
}

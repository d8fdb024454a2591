// Package history records generator runs in a SQLite database so that
// successive builds of the entry point index can be compared.
package history

import "time"

// Status is the state of a recorded build.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Build is one generator run.
type Build struct {
	ID          string     `json:"id"`
	Generator   string     `json:"generator,omitempty"`
	Sources     []string   `json:"sources,omitempty"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`

	// Filled in by CompleteBuild.
	Entries     int    `json:"entries"`
	HashSize    int    `json:"hash_size"`
	MaxProbe    int    `json:"max_probe"`
	Collisions  []int  `json:"collisions,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Error string `json:"error,omitempty"`
}

// Summary is the outcome of a successful build.
type Summary struct {
	Entries     int
	HashSize    int
	MaxProbe    int
	Collisions  []int
	Fingerprint string
}

// Output is a file written by a build.
type Output struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

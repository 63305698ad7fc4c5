package deploy

import (
	"time"

	"github.com/google/uuid"
)

// Report records the outcome of one component deployment.
type Report struct {
	SessionID     string // shared by every report of one DeployAll run
	ComponentID   string
	ComponentName string
	Success       bool
	Output        string // combined output of the remote deploy command
	Err           error  // nil on success
	Checksum      string // sha256 of the uploaded artifact
	StartedAt     time.Time
	Duration      time.Duration
}

// newSessionID tags a deployment batch.
func newSessionID() string {
	return uuid.NewString()
}

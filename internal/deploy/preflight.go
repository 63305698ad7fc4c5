package deploy

import (
	"context"
	"fmt"

	"siteship/internal/ssh"
)

// RequiredTools are the remote commands deployments depend on.
var RequiredTools = []string{"unzip", "tar", "stat", "find"}

// CheckResult reports whether one remote tool is available.
type CheckResult struct {
	Tool    string
	Present bool
}

// Preflight verifies the target is reachable and carries the tools a
// deployment needs. A connection failure comes back as the error; tool
// gaps come back in the results.
func Preflight(ctx context.Context, runner ssh.Runner) ([]CheckResult, error) {
	if _, err := runner.Exec(ctx, "true"); err != nil {
		return nil, fmt.Errorf("target unreachable: %w", err)
	}

	results := make([]CheckResult, 0, len(RequiredTools))
	for _, tool := range RequiredTools {
		_, err := runner.Exec(ctx, "command -v "+ssh.Quote(tool))
		results = append(results, CheckResult{Tool: tool, Present: err == nil})
	}
	return results, nil
}

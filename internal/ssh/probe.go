package ssh

import (
	"context"
	"fmt"
	"strings"
)

// HostInfo holds basic facts about a target's environment.
type HostInfo struct {
	Home string // remote home directory
	OS   string // uname -s output, e.g. Linux or Darwin
}

// Probe queries the target's home directory and OS name. The result is
// cached for the client's lifetime.
func (c *Client) Probe(ctx context.Context) (HostInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info != nil {
		return *c.info, nil
	}

	res, err := c.Exec(ctx, `printf '%s\n' "$HOME" && uname -s`)
	if err != nil {
		return HostInfo{}, fmt.Errorf("probe %s: %w", c.target.UserHost(), err)
	}

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	if len(lines) < 2 {
		return HostInfo{}, fmt.Errorf("probe %s: unexpected output %q", c.target.UserHost(), res.Output)
	}

	info := HostInfo{
		Home: strings.TrimSpace(lines[0]),
		OS:   strings.TrimSpace(lines[len(lines)-1]),
	}
	c.info = &info
	return info, nil
}

package deploy

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"siteship/internal/ssh"
)

// DefaultVersionConcurrency caps how many remote version lookups run
// at once during a batch resolve.
const DefaultVersionConcurrency = 3

// VersionState says what ResolveVersion could determine about a
// deployed component.
type VersionState string

const (
	StateNotDeployed VersionState = "notDeployed"
	StateVersioned   VersionState = "versioned"
	StateTimestamped VersionState = "timestamped"
	StateParseFailed VersionState = "parseError"
)

// VersionInfo is the outcome of resolving one component's deployed
// version.
type VersionInfo struct {
	State   VersionState
	Version string    // set when State is StateVersioned
	ModTime time.Time // set when State is StateTimestamped
	Message string    // set when State is StateParseFailed
}

// String renders the info the way the CLI prints it.
func (v VersionInfo) String() string {
	switch v.State {
	case StateVersioned:
		return v.Version
	case StateTimestamped:
		return "deployed " + v.ModTime.Format("2006-01-02 15:04:05")
	case StateParseFailed:
		return "unknown (" + v.Message + ")"
	default:
		return "not deployed"
	}
}

func notDeployed() VersionInfo {
	return VersionInfo{State: StateNotDeployed}
}

func versioned(version string) VersionInfo {
	return VersionInfo{State: StateVersioned, Version: version}
}

func timestamped(t time.Time) VersionInfo {
	return VersionInfo{State: StateTimestamped, ModTime: t}
}

func parseFailed(msg string) VersionInfo {
	return VersionInfo{State: StateParseFailed, Message: msg}
}

// VersionResolver reads deployed versions off the remote host.
type VersionResolver struct {
	runner ssh.Runner
	paths  *PathResolver
	limit  int64
	log    *logrus.Entry
}

// NewVersionResolver builds a resolver with the default concurrency cap.
func NewVersionResolver(runner ssh.Runner, paths *PathResolver, log *logrus.Entry) *VersionResolver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &VersionResolver{
		runner: runner,
		paths:  paths,
		limit:  DefaultVersionConcurrency,
		log:    log,
	}
}

// Resolve determines the deployed version of a single component.
// Remote failures are folded into the returned VersionInfo; the error
// return is reserved for context cancellation.
func (r *VersionResolver) Resolve(ctx context.Context, c Component) (VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return VersionInfo{}, err
	}

	dir := r.paths.ComponentDir(c)
	if _, err := r.runner.Exec(ctx, "test -d "+ssh.Quote(dir)); err != nil {
		var cmdErr *ssh.CommandError
		if errors.As(err, &cmdErr) {
			return notDeployed(), nil
		}
		if ctx.Err() != nil {
			return VersionInfo{}, ctx.Err()
		}
		return parseFailed(err.Error()), nil
	}

	if c.VersionFile != "" {
		return r.resolveFromFile(ctx, c)
	}
	return r.resolveFromMtime(ctx, c)
}

func (r *VersionResolver) resolveFromFile(ctx context.Context, c Component) (VersionInfo, error) {
	file := r.paths.VersionFilePath(c)
	res, err := r.runner.Exec(ctx, "cat "+ssh.Quote(file))
	if err != nil {
		var cmdErr *ssh.CommandError
		if errors.As(err, &cmdErr) {
			// The directory exists but the version file does not.
			return notDeployed(), nil
		}
		if ctx.Err() != nil {
			return VersionInfo{}, ctx.Err()
		}
		return parseFailed(err.Error()), nil
	}

	re, err := regexp.Compile(c.VersionPattern)
	if err != nil {
		return parseFailed(fmt.Sprintf("bad version pattern %q: %v", c.VersionPattern, err)), nil
	}
	m := re.FindStringSubmatch(res.Output)
	if len(m) < 2 {
		return parseFailed(fmt.Sprintf("no match for %q in %s", c.VersionPattern, file)), nil
	}
	return versioned(strings.TrimSpace(m[1])), nil
}

func (r *VersionResolver) resolveFromMtime(ctx context.Context, c Component) (VersionInfo, error) {
	dir := ssh.Quote(r.paths.ComponentDir(c))
	// GNU stat first, BSD stat as fallback; one of the two prints an
	// epoch on any supported host.
	cmd := fmt.Sprintf("stat -c %%Y %s 2>/dev/null || stat -f %%m %s", dir, dir)
	res, err := r.runner.Exec(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return VersionInfo{}, ctx.Err()
		}
		return parseFailed(err.Error()), nil
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(res.Output), 10, 64)
	if err != nil {
		return parseFailed("unparseable mtime: " + strings.TrimSpace(res.Output)), nil
	}
	return timestamped(time.Unix(epoch, 0)), nil
}

// ResolveAll resolves every component concurrently, holding at most
// the configured number of in-flight remote calls. The result always
// has one entry per component keyed by ID.
func (r *VersionResolver) ResolveAll(ctx context.Context, components []Component) map[string]VersionInfo {
	sem := semaphore.NewWeighted(r.limit)
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]VersionInfo, len(components))
	)

	for _, c := range components {
		wg.Add(1)
		go func(c Component) {
			defer wg.Done()

			var info VersionInfo
			if err := sem.Acquire(ctx, 1); err != nil {
				info = parseFailed(err.Error())
			} else {
				var rerr error
				info, rerr = r.Resolve(ctx, c)
				sem.Release(1)
				if rerr != nil {
					info = parseFailed(rerr.Error())
				}
			}

			mu.Lock()
			out[c.ID] = info
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	r.log.WithField("components", len(components)).Debug("resolved deployed versions")
	return out
}

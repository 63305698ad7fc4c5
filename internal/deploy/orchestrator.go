package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"siteship/internal/ssh"
)

var (
	// ErrNotConfigured means the component declares no build artifact.
	ErrNotConfigured = errors.New("component has no build artifact configured")
	// ErrArtifactNotFound means the declared artifact is missing locally.
	ErrArtifactNotFound = errors.New("build artifact not found")
)

// UnsupportedTypeError reports an artifact format the deployer cannot
// extract remotely.
type UnsupportedTypeError struct {
	Type ArtifactType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported artifact type %q", string(e.Type))
}

// Status is a component's position in a deployment batch.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDeploying Status = "deploying"
	StatusDeployed  Status = "deployed"
	StatusFailed    Status = "failed"
)

// ProgressFunc receives per-component status transitions during a batch.
type ProgressFunc func(c Component, s Status)

// Deployer pushes artifacts to the remote host and swaps them live.
type Deployer struct {
	runner ssh.Runner
	paths  *PathResolver
	log    *logrus.Entry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDeployer creates a deployer over the given transport.
func NewDeployer(runner ssh.Runner, paths *PathResolver, log *logrus.Entry) *Deployer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Deployer{
		runner: runner,
		paths:  paths,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// componentLock serializes deployments of the same component.
func (d *Deployer) componentLock(id string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[id]
	if !ok {
		l = &sync.Mutex{}
		d.locks[id] = l
	}
	return l
}

// Deploy pushes one component's artifact to the remote host and swaps
// it into place. The report is filled in on failure too.
func (d *Deployer) Deploy(ctx context.Context, c Component) Report {
	return d.deploy(ctx, newSessionID(), c)
}

func (d *Deployer) deploy(ctx context.Context, session string, c Component) Report {
	lock := d.componentLock(c.ID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	out, sum, err := d.run(ctx, c)
	if err != nil {
		d.log.WithError(err).WithField("component", c.ID).Error("deploy failed")
	} else {
		d.log.WithFields(logrus.Fields{
			"component": c.ID,
			"checksum":  sum,
		}).Info("deployed")
	}
	return Report{
		SessionID:     session,
		ComponentID:   c.ID,
		ComponentName: c.Name,
		Success:       err == nil,
		Output:        out,
		Err:           err,
		Checksum:      sum,
		StartedAt:     start,
		Duration:      time.Since(start),
	}
}

// run validates locally, then uploads and swaps. Nothing touches the
// remote host until every local check has passed.
func (d *Deployer) run(ctx context.Context, c Component) (output, checksum string, err error) {
	if c.BuildArtifact == "" {
		return "", "", ErrNotConfigured
	}
	if c.ArtifactType == "" {
		t, ok := ArtifactTypeFromPath(c.BuildArtifact)
		if !ok {
			return "", "", &UnsupportedTypeError{Type: t}
		}
		c.ArtifactType = t
	}
	switch c.ArtifactType {
	case ArtifactZip, ArtifactGz, ArtifactTgz:
	default:
		return "", "", &UnsupportedTypeError{Type: c.ArtifactType}
	}
	if _, err := os.Stat(c.BuildArtifact); err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrArtifactNotFound, c.BuildArtifact)
	}

	sum, err := fileChecksum(c.BuildArtifact)
	if err != nil {
		return "", "", fmt.Errorf("checksum %s: %w", c.BuildArtifact, err)
	}

	if _, err := d.runner.Exec(ctx, "mkdir -p "+ssh.QuoteHome(stagingDir)); err != nil {
		return "", sum, fmt.Errorf("prepare staging dir: %w", err)
	}
	if err := d.runner.Upload(ctx, c.BuildArtifact, d.paths.StagingPath(c)); err != nil {
		return "", sum, err
	}

	res, err := d.runner.Exec(ctx, d.deployScript(c))
	return res.Output, sum, err
}

func extractCommand(t ArtifactType) string {
	if t == ArtifactZip {
		return `unzip -oq "$staged" -d "$tmp"`
	}
	return `tar -xzf "$staged" -C "$tmp"`
}

// deployScript extracts the staged artifact next to the live directory
// and swaps it in. The swap is not atomic: there is a brief window
// between removing the live directory and moving the new one in.
func (d *Deployer) deployScript(c Component) string {
	return fmt.Sprintf(`
		set -e
		staged=%s
		tmp=%s
		live=%s

		rm -rf "$tmp"
		mkdir -p %s "$tmp"
		%s
		find "$tmp" -type f -exec chmod 644 {} +
		find "$tmp" -type d -exec chmod 755 {} +

		# an archive with a single root directory deploys that directory
		src="$tmp"
		if [ "$(ls -1A "$tmp" | wc -l)" -eq 1 ]; then
			inner="$tmp/$(ls -1A "$tmp")"
			if [ -d "$inner" ]; then
				src="$inner"
			fi
		fi

		rm -rf "$live"
		mv "$src" "$live"
		rm -rf "$tmp"
		rm -f "$staged"
	`,
		ssh.QuoteHome(d.paths.StagingPath(c)),
		ssh.Quote(d.paths.TempDeployDir(c)),
		ssh.Quote(d.paths.ComponentDir(c)),
		ssh.Quote(d.paths.ComponentParent(c)),
		extractCommand(c.ArtifactType),
	)
}

// DeployAll deploys components in order, one at a time. Cancellation
// takes effect between components; a component already underway runs
// to completion. Every component gets exactly one report.
func (d *Deployer) DeployAll(ctx context.Context, components []Component, progress ProgressFunc) []Report {
	session := newSessionID()
	if progress != nil {
		for _, c := range components {
			progress(c, StatusPending)
		}
	}

	reports := make([]Report, 0, len(components))
	for _, c := range components {
		if err := ctx.Err(); err != nil {
			reports = append(reports, Report{
				SessionID:     session,
				ComponentID:   c.ID,
				ComponentName: c.Name,
				Err:           err,
				StartedAt:     time.Now(),
			})
			if progress != nil {
				progress(c, StatusFailed)
			}
			continue
		}

		if progress != nil {
			progress(c, StatusDeploying)
		}
		rep := d.deploy(context.WithoutCancel(ctx), session, c)
		reports = append(reports, rep)
		if progress != nil {
			if rep.Success {
				progress(c, StatusDeployed)
			} else {
				progress(c, StatusFailed)
			}
		}
	}
	return reports
}

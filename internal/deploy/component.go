// Package deploy pushes build artifacts onto deployment targets and
// interrogates what is already there: staging uploads, archive
// extraction, swap into place, and remote version resolution.
package deploy

import (
	"path/filepath"
	"strings"
)

// Kind classifies what a component is on the remote side.
type Kind string

const (
	KindTheme   Kind = "theme"
	KindPlugin  Kind = "plugin"
	KindPackage Kind = "package"
)

// ArtifactType is the declared archive format of a build artifact.
type ArtifactType string

const (
	ArtifactZip ArtifactType = "zip"
	ArtifactGz  ArtifactType = "gz"
	ArtifactTgz ArtifactType = "tgz"
)

// ArtifactTypeFromPath derives the artifact type from a file name.
// The second return is false for extensions the deployer cannot
// extract; the raw extension still comes back for error reporting.
func ArtifactTypeFromPath(p string) (ArtifactType, bool) {
	ext := ArtifactType(strings.TrimPrefix(filepath.Ext(p), "."))
	switch ext {
	case ArtifactZip, ArtifactGz, ArtifactTgz:
		return ext, true
	}
	return ext, false
}

// Component describes one deployable unit. Values come from
// configuration and are never mutated here.
type Component struct {
	ID         string // stable identifier, used in staging and temp paths
	Name       string // human-readable name
	Kind       Kind
	RemotePath string // live directory, relative to the project base path

	BuildArtifact string       // local artifact path; empty means the component is not deployable
	ArtifactType  ArtifactType // archive format; derived from BuildArtifact when config leaves it unset

	VersionFile    string // version-bearing file, relative to the live directory
	VersionPattern string // regex whose first capture group is the version

	SourceDir    string // local source directory, used by pack and build hooks
	BuildCommand string // optional local build command run before packing
}

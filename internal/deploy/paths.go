package deploy

import "path"

const (
	// stagingDir is relative to the remote user's home.
	stagingDir = "tmp"
	// tempDeployPrefix marks extraction scratch dirs next to the live one.
	tempDeployPrefix = "__temp_deploy__"
)

// PathResolver derives all remote locations from the project base path.
// It does pure string work and never touches the network or filesystem.
type PathResolver struct {
	base string
}

// NewPathResolver normalizes base. A relative base stays relative and
// resolves against the remote user's home at execution time.
func NewPathResolver(base string) *PathResolver {
	return &PathResolver{base: path.Clean(base)}
}

// Base returns the normalized project base path.
func (r *PathResolver) Base() string { return r.base }

// ComponentDir is the live directory of c on the remote host.
func (r *PathResolver) ComponentDir(c Component) string {
	return path.Join(r.base, c.RemotePath)
}

// ComponentParent is the directory that holds the live directory.
func (r *PathResolver) ComponentParent(c Component) string {
	return path.Dir(r.ComponentDir(c))
}

// StagingPath is where the artifact lands during upload, relative to
// the remote home.
func (r *PathResolver) StagingPath(c Component) string {
	return path.Join(stagingDir, c.ID+"."+string(c.ArtifactType))
}

// TempDeployDir is the scratch extraction dir, a sibling of the live
// directory so the final swap is a same-filesystem rename.
func (r *PathResolver) TempDeployDir(c Component) string {
	return path.Join(r.ComponentParent(c), tempDeployPrefix+"."+c.ID)
}

// VersionFilePath is the version-bearing file inside the live directory.
// It returns "" when the component declares no version file.
func (r *PathResolver) VersionFilePath(c Component) string {
	if c.VersionFile == "" {
		return ""
	}
	return path.Join(r.ComponentDir(c), c.VersionFile)
}

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"siteship/internal/deploy"
)

// ManifestName is the component manifest file, expected next to the
// project config.
const ManifestName = "components.yaml"

type componentSpec struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	Kind           string `yaml:"kind"`
	RemotePath     string `yaml:"remote_path"`
	Artifact       string `yaml:"artifact"`
	Type           string `yaml:"type"`
	VersionFile    string `yaml:"version_file"`
	VersionPattern string `yaml:"version_pattern"`
	Source         string `yaml:"source"`
	Build          string `yaml:"build"`
}

type manifest struct {
	Components []componentSpec `yaml:"components"`
}

// LoadManifest reads components.yaml and validates every entry.
func LoadManifest(path string) ([]deploy.Component, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	components, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return components, nil
}

func parseManifest(data []byte) ([]deploy.Component, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Components) == 0 {
		return nil, fmt.Errorf("no components defined")
	}

	seen := make(map[string]bool, len(m.Components))
	components := make([]deploy.Component, 0, len(m.Components))
	for i, spec := range m.Components {
		c, err := spec.component()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate component id %q", c.ID)
		}
		seen[c.ID] = true
		components = append(components, c)
	}
	return components, nil
}

func (s componentSpec) component() (deploy.Component, error) {
	if s.ID == "" {
		return deploy.Component{}, fmt.Errorf("missing id")
	}
	if s.RemotePath == "" {
		return deploy.Component{}, fmt.Errorf("%s: missing remote_path", s.ID)
	}

	kind := deploy.Kind(s.Kind)
	switch kind {
	case deploy.KindTheme, deploy.KindPlugin, deploy.KindPackage:
	case "":
		kind = deploy.KindPackage
	default:
		return deploy.Component{}, fmt.Errorf("%s: unknown kind %q", s.ID, s.Kind)
	}

	if s.VersionFile != "" && s.VersionPattern == "" {
		return deploy.Component{}, fmt.Errorf("%s: version_file needs a version_pattern", s.ID)
	}
	if s.VersionPattern != "" {
		re, err := regexp.Compile(s.VersionPattern)
		if err != nil {
			return deploy.Component{}, fmt.Errorf("%s: version_pattern: %w", s.ID, err)
		}
		if re.NumSubexp() < 1 {
			return deploy.Component{}, fmt.Errorf("%s: version_pattern has no capture group", s.ID)
		}
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}

	typ := deploy.ArtifactType(s.Type)
	if typ == "" && s.Artifact != "" {
		typ, _ = deploy.ArtifactTypeFromPath(s.Artifact)
	}

	return deploy.Component{
		ID:             s.ID,
		Name:           name,
		Kind:           kind,
		RemotePath:     s.RemotePath,
		BuildArtifact:  s.Artifact,
		ArtifactType:   typ,
		VersionFile:    s.VersionFile,
		VersionPattern: s.VersionPattern,
		SourceDir:      s.Source,
		BuildCommand:   s.Build,
	}, nil
}

package config

import (
	"path/filepath"
	"strings"
	"testing"

	"siteship/internal/deploy"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`
components:
  - id: shop-theme
    name: Shop Theme
    kind: theme
    remote_path: wp-content/themes/shop-theme
    artifact: dist/shop-theme.zip
    version_file: style.css
    version_pattern: 'Version:\s*([\d.]+)'
    source: theme
    build: npm run build
  - id: site-pkg
    remote_path: packages/site-pkg
    artifact: dist/site-pkg.tgz
`)
	components, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(components) != 2 {
		t.Fatalf("got %d components", len(components))
	}

	theme := components[0]
	if theme.ID != "shop-theme" || theme.Name != "Shop Theme" || theme.Kind != deploy.KindTheme {
		t.Errorf("theme = %+v", theme)
	}
	if theme.ArtifactType != deploy.ArtifactZip {
		t.Errorf("artifact type = %q, want derived zip", theme.ArtifactType)
	}
	if theme.BuildCommand != "npm run build" || theme.SourceDir != "theme" {
		t.Errorf("theme build = %+v", theme)
	}

	pkg := components[1]
	if pkg.Name != "site-pkg" {
		t.Errorf("name = %q, want the id as fallback", pkg.Name)
	}
	if pkg.Kind != deploy.KindPackage {
		t.Errorf("kind = %q, want the package default", pkg.Kind)
	}
	if pkg.ArtifactType != deploy.ArtifactTgz {
		t.Errorf("artifact type = %q", pkg.ArtifactType)
	}
}

func TestParseManifestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing id",
			yaml: "components:\n  - remote_path: x\n",
			want: "missing id",
		},
		{
			name: "missing remote path",
			yaml: "components:\n  - id: a\n",
			want: "missing remote_path",
		},
		{
			name: "duplicate id",
			yaml: "components:\n  - id: a\n    remote_path: x\n  - id: a\n    remote_path: y\n",
			want: "duplicate component id",
		},
		{
			name: "unknown kind",
			yaml: "components:\n  - id: a\n    remote_path: x\n    kind: gadget\n",
			want: "unknown kind",
		},
		{
			name: "uncompilable pattern",
			yaml: "components:\n  - id: a\n    remote_path: x\n    version_file: f\n    version_pattern: '(['\n",
			want: "version_pattern",
		},
		{
			name: "pattern without capture group",
			yaml: "components:\n  - id: a\n    remote_path: x\n    version_file: f\n    version_pattern: 'Version'\n",
			want: "capture group",
		},
		{
			name: "version file without pattern",
			yaml: "components:\n  - id: a\n    remote_path: x\n    version_file: f\n",
			want: "version_pattern",
		},
		{
			name: "empty manifest",
			yaml: "components: []\n",
			want: "no components",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseManifest([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), ManifestName)); err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
}

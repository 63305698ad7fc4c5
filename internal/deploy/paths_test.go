package deploy

import (
	"path"
	"testing"
)

func TestPathResolverLayout(t *testing.T) {
	r := NewPathResolver("web")
	c := Component{
		ID:           "my-plugin",
		RemotePath:   "wp-content/plugins/my-plugin",
		ArtifactType: ArtifactZip,
		VersionFile:  "my-plugin.php",
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"dir", r.ComponentDir(c), "web/wp-content/plugins/my-plugin"},
		{"parent", r.ComponentParent(c), "web/wp-content/plugins"},
		{"temp", r.TempDeployDir(c), "web/wp-content/plugins/__temp_deploy__.my-plugin"},
		{"staging", r.StagingPath(c), "tmp/my-plugin.zip"},
		{"version file", r.VersionFilePath(c), "web/wp-content/plugins/my-plugin/my-plugin.php"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestPathResolverNormalizesBase(t *testing.T) {
	tests := []struct{ base, want string }{
		{"web", "web"},
		{"web/", "web"},
		{"./web", "web"},
		{"/var/www/site/", "/var/www/site"},
	}
	for _, tt := range tests {
		if got := NewPathResolver(tt.base).Base(); got != tt.want {
			t.Errorf("Base(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestTempDeployDirIsSibling(t *testing.T) {
	r := NewPathResolver("/var/www/site")
	for _, c := range []Component{
		{ID: "shop-theme", RemotePath: "wp-content/themes/shop-theme"},
		{ID: "my-plugin", RemotePath: "wp-content/plugins/my-plugin"},
		{ID: "site-pkg", RemotePath: "packages/site-pkg"},
	} {
		if path.Dir(r.TempDeployDir(c)) != r.ComponentParent(c) {
			t.Errorf("%s: temp dir %q is not a sibling of %q",
				c.ID, r.TempDeployDir(c), r.ComponentDir(c))
		}
	}
}

func TestVersionFilePathEmptyWhenUnset(t *testing.T) {
	r := NewPathResolver("web")
	c := Component{ID: "site-pkg", RemotePath: "packages/site-pkg"}
	if got := r.VersionFilePath(c); got != "" {
		t.Errorf("VersionFilePath = %q, want empty", got)
	}
}

func TestStagingPathFollowsArtifactType(t *testing.T) {
	r := NewPathResolver("web")
	tests := []struct {
		typ  ArtifactType
		want string
	}{
		{ArtifactZip, "tmp/site-pkg.zip"},
		{ArtifactGz, "tmp/site-pkg.gz"},
		{ArtifactTgz, "tmp/site-pkg.tgz"},
	}
	for _, tt := range tests {
		c := Component{ID: "site-pkg", RemotePath: "packages/site-pkg", ArtifactType: tt.typ}
		if got := r.StagingPath(c); got != tt.want {
			t.Errorf("StagingPath(%s) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestArtifactTypeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ArtifactType
		ok   bool
	}{
		{"dist/shop-theme.zip", ArtifactZip, true},
		{"dist/site-pkg.tgz", ArtifactTgz, true},
		{"dist/bundle.gz", ArtifactGz, true},
		{"dist/archive.rar", "rar", false},
		{"dist/noext", "", false},
	}
	for _, tt := range tests {
		got, ok := ArtifactTypeFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ArtifactTypeFromPath(%q) = %q, %v, want %q, %v",
				tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

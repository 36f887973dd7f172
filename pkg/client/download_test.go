package client

import (
	"testing"

	"github.com/ubuntupunk/muizedroid/pkg/models"
)

func testIndex() *models.Index {
	return &models.Index{
		Repo: models.RepoDescriptor{Address: "https://repo.example.org/fdroid/repo"},
		Packages: map[string][]*models.PackageBuild{
			"org.example.app": {
				{PackageName: "org.example.app", VersionCode: 10, ApkName: "app-10.apk"},
				{PackageName: "org.example.app", VersionCode: 30, ApkName: "app-30.apk"},
				{PackageName: "org.example.app", VersionCode: 20, ApkName: "app-20.apk"},
			},
		},
	}
}

func TestSelectBuildHighest(t *testing.T) {
	build, err := SelectBuild(testIndex(), "org.example.app", 0)
	if err != nil {
		t.Fatalf("SelectBuild: %v", err)
	}
	if build.VersionCode != 30 {
		t.Errorf("version code = %d, want 30", build.VersionCode)
	}
}

func TestSelectBuildExplicit(t *testing.T) {
	build, err := SelectBuild(testIndex(), "org.example.app", 20)
	if err != nil {
		t.Fatalf("SelectBuild: %v", err)
	}
	if build.ApkName != "app-20.apk" {
		t.Errorf("apk = %q", build.ApkName)
	}
}

func TestSelectBuildMissing(t *testing.T) {
	if _, err := SelectBuild(testIndex(), "org.example.ghost", 0); err == nil {
		t.Error("expected error for unknown package")
	}
	if _, err := SelectBuild(testIndex(), "org.example.app", 99); err == nil {
		t.Error("expected error for unknown version code")
	}
}

func TestBuildDownloadURL(t *testing.T) {
	tests := []struct {
		address string
		apkName string
		want    string
	}{
		{"https://repo.example.org/fdroid/repo", "app.apk", "https://repo.example.org/fdroid/repo/app.apk"},
		{"https://repo.example.org/fdroid/repo/", "app.apk", "https://repo.example.org/fdroid/repo/app.apk"},
		{"https://repo.example.org/fdroid/repo", "sub\\app.apk", "https://repo.example.org/fdroid/repo/sub/app.apk"},
		{"", "app.apk", ""},
		{"https://repo.example.org", "", ""},
	}
	for _, tt := range tests {
		if got := buildDownloadURL(tt.address, tt.apkName); got != tt.want {
			t.Errorf("buildDownloadURL(%q, %q) = %q, want %q", tt.address, tt.apkName, got, tt.want)
		}
	}
}

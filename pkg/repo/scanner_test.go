package repo

import (
	"testing"

	"github.com/ubuntupunk/muizedroid/pkg/models"
)

func patternConfig(include, exclude []string) *models.Config {
	return &models.Config{
		Scanning: models.ScanningConfig{
			IncludePattern: include,
			ExcludePattern: exclude,
		},
	}
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"apk included", []string{"*.apk"}, nil, "repo/app.apk", true},
		{"other extension", []string{"*.apk"}, nil, "repo/app.zip", false},
		{"excluded wins", []string{"*.apk"}, []string{"tmp*"}, "repo/tmp-app.apk", false},
		{"index artifacts excluded", []string{"*.apk", "*.jar"}, []string{"index*"}, "repo/index-v1.jar", false},
		{"jar included", []string{"*.apk", "*.jar"}, []string{"index*"}, "repo/other.jar", true},
		{"no include patterns", nil, nil, "repo/app.apk", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(patternConfig(tt.include, tt.exclude), "repo")
			if got := s.matchesPattern(tt.path); got != tt.want {
				t.Errorf("matchesPattern(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFinalizeAppsTracksHighestVersion(t *testing.T) {
	s := NewScanner(patternConfig([]string{"*.apk"}, nil), "repo")
	result := &ScanResult{
		Apps: map[string]*models.App{
			"org.example.app": {PackageName: "org.example.app"},
		},
		Builds: []*models.PackageBuild{
			{PackageName: "org.example.app", VersionName: "1.0", VersionCode: 10, ApkName: "app-10.apk"},
			{PackageName: "org.example.app", VersionName: "1.2", VersionCode: 20, ApkName: "app-20.apk"},
		},
	}

	s.finalizeApps(t.TempDir(), result)

	app := result.Apps["org.example.app"]
	if app.CurrentVersion != "1.2" || app.CurrentVersionCode != 20 {
		t.Errorf("current version = %q/%d, want 1.2/20", app.CurrentVersion, app.CurrentVersionCode)
	}
}

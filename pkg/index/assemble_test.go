package index

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

var testTimestamp = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *models.Config {
	return &models.Config{
		Repo: models.RepoProfile{
			Name:        "Test Repo",
			Icon:        "fdroid-icon.png",
			Address:     "https://repo.example.org/fdroid/repo",
			Description: "A test repository",
		},
		Archive: models.RepoProfile{
			Name:        "Test Repo Archive",
			Icon:        "fdroid-icon.png",
			Address:     "https://repo.example.org/fdroid/archive",
			Description: "Older versions",
		},
		NoSign: true,
	}
}

func testAssembler(cfg *models.Config) *Assembler {
	a := NewAssembler(cfg, nil)
	a.now = func() time.Time { return testTimestamp }
	return a
}

func testApp(id string) *models.App {
	return &models.App{
		PackageName:        id,
		Name:               "Example App",
		Summary:            "Does example things",
		License:            "GPL-3.0-only",
		Categories:         []string{"System", "Internet"},
		CurrentVersion:     "1.2",
		CurrentVersionCode: 20,
		Added:              testTimestamp.AddDate(0, -2, 0),
		LastUpdated:        testTimestamp.AddDate(0, -1, 0),
	}
}

func testBuild(id string, code int64) *models.PackageBuild {
	return &models.PackageBuild{
		PackageName: id,
		VersionName: "1.2",
		VersionCode: code,
		ApkName:     "app-" + strconv.FormatInt(code, 10) + ".apk",
		Hash:        "deadbeef",
		HashType:    "sha256",
		Sig:         "0123456789abcdef",
		Size:        1024,
		Added:       testTimestamp.AddDate(0, -1, 0),
	}
}

func TestMakeWritesBothIndexes(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	a := testAssembler(cfg)

	apps := map[string]*models.App{"org.example.app": testApp("org.example.app")}
	builds := []*models.PackageBuild{
		testBuild("org.example.app", 10),
		testBuild("org.example.app", 20),
	}

	if err := a.Make(apps, builds, dir, false); err != nil {
		t.Fatalf("Make: %v", err)
	}

	for _, name := range []string{XMLName, V1JSONName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	// Without a key alias and with signing off, no jar is produced.
	for _, name := range []string{JarName, UnsignedJarName, V1JarName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			t.Errorf("unexpected %s", name)
		}
	}
}

func TestMakeDuplicateVersionCodeIsFatal(t *testing.T) {
	dir := t.TempDir()
	a := testAssembler(testConfig())

	apps := map[string]*models.App{"org.example.app": testApp("org.example.app")}
	dupA := testBuild("org.example.app", 20)
	dupA.ApkName = "app-20-first.apk"
	dupB := testBuild("org.example.app", 20)
	dupB.ApkName = "app-20-second.apk"
	builds := []*models.PackageBuild{testBuild("org.example.app", 10), dupA, dupB}

	err := a.Make(apps, builds, dir, false)
	if err == nil {
		t.Fatal("expected duplicate version error")
	}
	if !muerrors.IsType(err, muerrors.ErrorTypeCatalog) {
		t.Errorf("error type = %v, want catalog", err)
	}
	msg := err.Error()
	for _, name := range []string{"app-20-first.apk", "app-20-second.apk"} {
		if !strings.Contains(msg, name) {
			t.Errorf("error does not name %s: %s", name, msg)
		}
	}

	// A fatal condition must not leave partial artifacts behind.
	for _, name := range []string{XMLName, V1JSONName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			t.Errorf("%s written despite fatal error", name)
		}
	}
}

func TestEligibleApps(t *testing.T) {
	disabled := testApp("org.example.disabled")
	disabled.Disabled = "builds broken"
	apps := map[string]*models.App{
		"org.example.zzz":      testApp("org.example.zzz"),
		"org.example.app":      testApp("org.example.app"),
		"org.example.disabled": disabled,
		"org.example.nobuilds": testApp("org.example.nobuilds"),
	}
	builds := []*models.PackageBuild{
		testBuild("org.example.zzz", 1),
		testBuild("org.example.app", 1),
		testBuild("org.example.disabled", 1),
	}

	eligible, grouped, err := eligibleApps(apps, builds)
	if err != nil {
		t.Fatalf("eligibleApps: %v", err)
	}

	var ids []string
	for _, app := range eligible {
		ids = append(ids, app.PackageName)
	}
	want := []string{"org.example.app", "org.example.zzz"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("eligible ids = %v, want %v", ids, want)
	}
	// Disabled apps keep their builds in the grouping; only the app record
	// is withheld.
	if len(grouped["org.example.disabled"]) != 1 {
		t.Errorf("disabled app builds = %d, want 1", len(grouped["org.example.disabled"]))
	}
}

func TestEligibleAppsRendersDescriptions(t *testing.T) {
	app := testApp("org.example.app")
	app.Description = "First line.\n\n* a\n* b"
	apps := map[string]*models.App{"org.example.app": app}
	builds := []*models.PackageBuild{testBuild("org.example.app", 1)}

	eligible, _, err := eligibleApps(apps, builds)
	if err != nil {
		t.Fatalf("eligibleApps: %v", err)
	}
	want := "<p>First line.</p><ul><li>a</li><li>b</li></ul>"
	if eligible[0].Description != want {
		t.Errorf("description = %q, want %q", eligible[0].Description, want)
	}
	// The catalog copy stays untouched.
	if app.Description == want {
		t.Error("catalog app mutated by rendering")
	}
}

func TestCoercePackageList(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    []string
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"empty string", "", nil, false},
		{"single string", "org.example.app", []string{"org.example.app"}, false},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}, false},
		{"interface slice", []interface{}{"a", "b"}, []string{"a", "b"}, false},
		{"interface slice with non-string", []interface{}{"a", 7}, nil, true},
		{"number", 7, nil, true},
		{"map", map[string]string{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coercePackageList(tt.in, "install_list")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !muerrors.IsType(err, muerrors.ErrorTypeConfiguration) {
					t.Errorf("error type = %v, want configuration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("coercePackageList: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

package index

import (
	"reflect"
	"strings"
	"testing"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

func TestNormalizeMirrors(t *testing.T) {
	cfg := &models.Config{
		Mirrors: []string{
			"https://b.example.org/fdroid",
			"https://a.example.org/fdroid/",
		},
	}

	mirrors, err := normalizeMirrors(cfg, "https://repo.example.org/fdroid/repo")
	if err != nil {
		t.Fatalf("normalizeMirrors: %v", err)
	}

	// Sorted, trailing slash normalized, repo basename appended.
	want := []string{
		"https://a.example.org/fdroid/repo",
		"https://b.example.org/fdroid/repo",
	}
	if !reflect.DeepEqual(mirrors, want) {
		t.Errorf("mirrors = %v, want %v", mirrors, want)
	}
}

func TestNormalizeMirrorsRejectsBadWebroot(t *testing.T) {
	cfg := &models.Config{
		Mirrors: []string{
			"https://good.example.org/fdroid",
			"https://bad1.example.org/files",
			"https://bad2.example.org/mirror",
		},
	}

	_, err := normalizeMirrors(cfg, "https://repo.example.org/fdroid/repo")
	if err == nil {
		t.Fatal("expected webroot error")
	}
	if !muerrors.IsType(err, muerrors.ErrorTypeConfiguration) {
		t.Errorf("error type = %v, want configuration", err)
	}
	// All offenders reported in one run.
	msg := err.Error()
	if !strings.Contains(msg, "bad1.example.org") || !strings.Contains(msg, "bad2.example.org") {
		t.Errorf("error does not name all bad mirrors: %s", msg)
	}
}

func TestNormalizeMirrorsNonStandardWebroot(t *testing.T) {
	cfg := &models.Config{
		Mirrors:            []string{"https://cdn.example.org/files"},
		NonStandardWebroot: true,
	}

	mirrors, err := normalizeMirrors(cfg, "https://repo.example.org/fdroid/repo")
	if err != nil {
		t.Fatalf("normalizeMirrors: %v", err)
	}
	want := []string{"https://cdn.example.org/files/repo"}
	if !reflect.DeepEqual(mirrors, want) {
		t.Errorf("mirrors = %v, want %v", mirrors, want)
	}
}

func TestNormalizeMirrorsGitShorthands(t *testing.T) {
	cfg := &models.Config{
		ServerGitMirrors: []string{
			"https://github.com/user/repo",
			"https://gitlab.com/user/repo.git",
			"git@github.com:user/repo",
			"https://example.org/user/repo", // unknown host, dropped
		},
	}

	mirrors, err := normalizeMirrors(cfg, "https://repo.example.org/fdroid/repo")
	if err != nil {
		t.Fatalf("normalizeMirrors: %v", err)
	}
	want := []string{
		"https://raw.githubusercontent.com/user/repo/master/fdroid/",
		"https://user.gitlab.io/repo/fdroid/",
		"https://raw.githubusercontent.com/user/repo/master/fdroid/",
	}
	if !reflect.DeepEqual(mirrors, want) {
		t.Errorf("mirrors = %v, want %v", mirrors, want)
	}
}

func TestMirrorServiceURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/user/repo", "https://raw.githubusercontent.com/user/repo/master/fdroid"},
		{"https://github.com/user/repo.git", "https://raw.githubusercontent.com/user/repo/master/fdroid"},
		{"https://gitlab.com/user/repo", "https://user.gitlab.io/repo/fdroid"},
		{"git@gitlab.com:user/repo.git", "https://user.gitlab.io/repo/fdroid"},
		{"https://bitbucket.org/user/repo", ""},
		{"https://github.com/short", ""},
	}
	for _, tt := range tests {
		if got := mirrorServiceURL(tt.in); got != tt.want {
			t.Errorf("mirrorServiceURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

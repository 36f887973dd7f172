package index

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// unsafeNameChars are stripped from alias filenames so external links stay
// valid regardless of how the app is named.
var unsafeNameChars = regexp.MustCompile(`[ '"&%?+=/]`)

// detachedSigExtensions are the detached-signature files mirrored alongside
// a current-version alias.
var detachedSigExtensions = []string{".asc", ".sig"}

// makeCurrentVersionAlias exposes the app's current package under a stable
// sanitized filename next to the repository directory, so external links to
// "the current APK" survive version bumps. Replacement is remove-then-create
// to stay idempotent across repeated runs.
func (a *Assembler) makeCurrentVersionAlias(repoDir string, app *models.App, currentVersionFile string) error {
	var source string
	switch a.cfg.CurrentVersionNameSource {
	case "", "Name":
		source = app.DisplayName()
	case "AutoName":
		source = app.AutoName
	default:
		source = app.PackageName
	}
	sanitized := unsafeNameChars.ReplaceAllString(source, "")
	if sanitized == "" {
		sanitized = app.PackageName
	}

	baseDir := filepath.Dir(repoDir)
	target := filepath.Join(filepath.Base(repoDir), currentVersionFile)
	linkPath := filepath.Join(baseDir, sanitized+".apk")
	if err := replaceSymlink(target, linkPath); err != nil {
		return muerrors.NewFileSystemError("ALIAS_LINK",
			fmt.Sprintf("cannot create current version alias for %s", app.PackageName)).WithCause(err)
	}

	// also alias detached signatures, if they exist
	for _, ext := range detachedSigExtensions {
		if _, err := os.Stat(filepath.Join(repoDir, currentVersionFile+ext)); err != nil {
			continue
		}
		if err := replaceSymlink(target+ext, linkPath+ext); err != nil {
			return muerrors.NewFileSystemError("ALIAS_LINK",
				fmt.Sprintf("cannot create signature alias for %s", app.PackageName)).WithCause(err)
		}
	}
	return nil
}

func replaceSymlink(target, linkPath string) error {
	if _, err := os.Lstat(linkPath); err == nil {
		if err := os.Remove(linkPath); err != nil {
			return err
		}
	}
	return os.Symlink(target, linkPath)
}

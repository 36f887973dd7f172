package apk

import (
	"archive/zip"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shogo82148/androidbinary/apk"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/jar"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// Parser reads package facts out of APK files.
type Parser struct {
	repoDir string
}

// NewParser creates a parser rooted at the repository directory; apk names
// recorded in builds are relative to it.
func NewParser(repoDir string) *Parser {
	return &Parser{repoDir: repoDir}
}

// ParseResult is one parsed APK: the package build plus the display facts
// that live at the application level.
type ParseResult struct {
	Build *models.PackageBuild
	Label string
}

// Parse reads a single APK and produces its package build.
func (p *Parser) Parse(apkPath string) (*ParseResult, error) {
	pkg, err := apk.OpenFile(apkPath)
	if err != nil {
		return nil, muerrors.NewParsingError("BAD_APK",
			fmt.Sprintf("cannot parse %s", apkPath)).WithCause(err)
	}
	defer pkg.Close()

	fileInfo, err := os.Stat(apkPath)
	if err != nil {
		return nil, muerrors.NewFileSystemError("STAT_FAILED",
			fmt.Sprintf("cannot stat %s", apkPath)).WithCause(err)
	}

	manifest := pkg.Manifest()

	hash, err := sha256File(apkPath)
	if err != nil {
		return nil, err
	}

	build := &models.PackageBuild{
		PackageName: manifest.Package.MustString(),
		VersionName: manifest.VersionName.MustString(),
		VersionCode: int64(manifest.VersionCode.MustInt32()),
		ApkName:     p.apkName(apkPath),
		Hash:        hash,
		HashType:    "sha256",
		Size:        fileInfo.Size(),
		Added:       fileInfo.ModTime().UTC(),
	}

	if min, err := manifest.SDK.Min.Int32(); err == nil {
		build.MinSdkVersion = int(min)
	}
	if target, err := manifest.SDK.Target.Int32(); err == nil {
		build.TargetSdkVersion = int(target)
	}
	if max, err := manifest.SDK.Max.Int32(); err == nil {
		build.MaxSdkVersion = int(max)
	}

	for _, perm := range manifest.UsesPermissions {
		name, err := perm.Name.String()
		if err != nil || name == "" {
			continue
		}
		permission := models.Permission{Name: name}
		if max, err := perm.Max.Int32(); err == nil && max > 0 {
			value := int(max)
			permission.MaxSdkVersion = &value
		}
		build.UsesPermission = append(build.UsesPermission, permission)
	}

	build.NativeCode = nativeCode(apkPath)
	build.Sig = signatureHash(apkPath)

	label := ""
	if text, err := manifest.App.Label.String(); err == nil {
		label = text
	}

	return &ParseResult{Build: build, Label: label}, nil
}

func (p *Parser) apkName(apkPath string) string {
	rel, err := filepath.Rel(p.repoDir, apkPath)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return filepath.Base(apkPath)
}

func sha256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", muerrors.NewFileSystemError("READ_FAILED",
			fmt.Sprintf("cannot open %s", path)).WithCause(err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", muerrors.NewFileSystemError("READ_FAILED",
			fmt.Sprintf("cannot hash %s", path)).WithCause(err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// nativeCode lists the ABI directories packed under lib/, sorted.
func nativeCode(apkPath string) []string {
	reader, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil
	}
	defer reader.Close()

	seen := make(map[string]bool)
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, "lib/") {
			continue
		}
		parts := strings.Split(file.Name, "/")
		if len(parts) >= 3 {
			seen[parts[1]] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	abis := make([]string, 0, len(seen))
	for abi := range seen {
		abis = append(abis, abi)
	}
	sort.Strings(abis)
	return abis
}

// signatureHash derives the historical signer identifier: the MD5 digest of
// the hex-encoded signing certificate. Unsigned or unreadable APKs yield an
// empty string.
func signatureHash(apkPath string) string {
	reader, err := zip.OpenReader(apkPath)
	if err != nil {
		return ""
	}
	defer reader.Close()

	signers, err := jar.ListEmbeddedSigners(&reader.Reader)
	if err != nil || len(signers) != 1 {
		return ""
	}

	hexCert := hex.EncodeToString(signers[0])
	digest := md5.Sum([]byte(hexCert))
	return hex.EncodeToString(digest[:])
}

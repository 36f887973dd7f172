package index

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/jar"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

const dateFormat = "2006-01-02"

// noDescription is the placeholder legacy clients receive for apps without
// a description.
const noDescription = "<p>No description available</p>"

// androidPermissionPrefix is stripped from permission names in the legacy
// comma-joined permissions element.
const androidPermissionPrefix = "android.permission."

// docWriter builds the legacy tree document through an xml token encoder.
// Errors stick: after the first failure every call is a no-op.
type docWriter struct {
	enc *xml.Encoder
	err error
}

func (w *docWriter) start(name string, attrs ...xml.Attr) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *docWriter) end(name string) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *docWriter) element(name, value string) {
	w.start(name)
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.CharData(value))
	}
	w.end(name)
}

func (w *docWriter) elementNonEmpty(name, value string) {
	if value == "" {
		return
	}
	w.element(name, value)
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// makeV0 renders the hierarchical index.xml and, when signing is
// configured, wraps it in a (signed) jar.
func (a *Assembler) makeV0(repoDir string, descriptor *models.RepoDescriptor, requests models.Requests, apps []*models.App, grouped map[string][]*models.PackageBuild, pubkey []byte, archive bool) error {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if a.cfg.Pretty {
		enc.Indent("", "    ")
	}
	w := &docWriter{enc: enc}

	w.start("fdroid")

	repoAttrs := []xml.Attr{attr("name", descriptor.Name)}
	if descriptor.MaxAge != 0 {
		repoAttrs = append(repoAttrs, attr("maxage", strconv.Itoa(descriptor.MaxAge)))
	}
	repoAttrs = append(repoAttrs,
		attr("icon", descriptor.Icon),
		attr("url", descriptor.Address),
		attr("version", strconv.Itoa(descriptor.Version)),
		attr("timestamp", strconv.FormatInt(descriptor.Timestamp.Unix(), 10)),
	)
	if len(pubkey) > 0 {
		repoAttrs = append(repoAttrs, attr("pubkey", fmt.Sprintf("%x", pubkey)))
	}
	w.start("repo", repoAttrs...)
	w.element("description", descriptor.Description)
	for _, mirror := range descriptor.Mirrors {
		w.element("mirror", mirror)
	}
	w.end("repo")

	for _, pkg := range requests.Install {
		w.start("install", attr("packageName", pkg))
		w.end("install")
	}
	for _, pkg := range requests.Uninstall {
		w.start("uninstall", attr("packageName", pkg))
		w.end("uninstall")
	}

	for _, app := range apps {
		builds := append([]*models.PackageBuild(nil), grouped[app.PackageName]...)
		if len(builds) == 0 {
			continue
		}

		w.start("application", attr("id", app.PackageName))
		w.element("id", app.PackageName)
		if !app.Added.IsZero() {
			w.element("added", app.Added.Format(dateFormat))
		}
		if !app.LastUpdated.IsZero() {
			w.element("lastupdated", app.LastUpdated.Format(dateFormat))
		}
		w.element("name", app.DisplayName())
		w.element("summary", app.Summary)
		w.elementNonEmpty("icon", app.Icon)
		if app.Description != "" {
			w.element("desc", app.Description)
		} else {
			w.element("desc", noDescription)
		}
		w.element("license", app.License)
		if len(app.Categories) > 0 {
			w.element("categories", strings.Join(app.Categories, ","))
			// Clients that only understand one category get the primary one.
			w.element("category", app.Categories[0])
		}
		w.element("web", app.WebSite)
		w.element("source", app.SourceCode)
		w.element("tracker", app.IssueTracker)
		w.elementNonEmpty("changelog", app.Changelog)
		w.elementNonEmpty("author", app.AuthorName)
		w.elementNonEmpty("email", app.AuthorEmail)
		w.elementNonEmpty("donate", app.Donate)
		w.elementNonEmpty("bitcoin", app.Bitcoin)
		w.elementNonEmpty("litecoin", app.Litecoin)
		w.elementNonEmpty("flattr", app.FlattrID)

		// These elements refer to the current version (the one that is
		// recommended). They are historically mis-named, and stay like
		// this to support existing clients.
		w.element("marketversion", app.CurrentVersion)
		w.element("marketvercode", strconv.FormatInt(app.CurrentVersionCode, 10))

		w.elementNonEmpty("provides", app.Provides)
		if app.RequiresRoot {
			w.element("requirements", "root")
		}

		// Sort builds into version order so clients get latest first.
		sort.SliceStable(builds, func(i, j int) bool {
			return builds[i].VersionCode > builds[j].VersionCode
		})

		antiFeatures := append([]string(nil), app.AntiFeatures...)
		antiFeatures = append(antiFeatures, builds[0].AntiFeatures...)
		w.elementNonEmpty("antifeatures", strings.Join(antiFeatures, ","))

		// Duplicates would make the client unhappy.
		for i := 0; i < len(builds)-1; i++ {
			if builds[i].VersionCode == builds[i+1].VersionCode {
				return muerrors.NewCatalogError("DUPLICATE_VERSION",
					fmt.Sprintf("duplicate versions: '%s' - '%s'",
						builds[i].ApkName, builds[i+1].ApkName)).
					WithContext("app", app.PackageName)
			}
		}

		var currentVersionCode int64
		currentVersionFile := ""
		for _, b := range builds {
			// find the package for the "current version"
			if currentVersionCode < b.VersionCode {
				currentVersionCode = b.VersionCode
			}
			if currentVersionCode < app.CurrentVersionCode {
				currentVersionFile = b.ApkName
			}

			writePackage(w, b)
		}
		w.end("application")

		if currentVersionFile != "" && a.cfg.MakeCurrentVersionLink && !archive {
			if err := a.makeCurrentVersionAlias(repoDir, app, currentVersionFile); err != nil {
				return err
			}
		}
	}

	w.end("fdroid")
	if w.err == nil {
		w.err = enc.Flush()
	}
	if w.err != nil {
		return muerrors.NewParsingError("XML_ENCODE", "failed to encode index.xml").WithCause(w.err)
	}

	payload := append([]byte(xml.Header), buf.Bytes()...)
	xmlPath := filepath.Join(repoDir, XMLName)
	if err := os.WriteFile(xmlPath, payload, 0644); err != nil {
		return muerrors.NewFileSystemError("XML_WRITE",
			fmt.Sprintf("cannot write %s", xmlPath)).WithCause(err)
	}

	if a.cfg.RepoKeyAlias == "" {
		return nil
	}

	jarName := JarName
	if a.cfg.NoSign {
		jarName = UnsignedJarName
		// Remove a stale signed index so nobody trusts it by accident.
		os.Remove(filepath.Join(repoDir, JarName))
	}
	jarPath := filepath.Join(repoDir, jarName)
	if err := jar.Write(jarPath, XMLName, payload); err != nil {
		return err
	}
	if !a.cfg.NoSign {
		if _, err := a.gateway.Sign(jarPath); err != nil {
			return err
		}
	}
	return nil
}

func writePackage(w *docWriter, b *models.PackageBuild) {
	w.start("package")
	w.element("version", b.VersionName)
	w.element("versioncode", strconv.FormatInt(b.VersionCode, 10))
	w.element("apkname", b.ApkName)
	w.elementNonEmpty("srcname", b.SrcName)

	hashType := b.HashType
	if hashType == "" {
		hashType = "sha256"
	}
	w.start("hash", attr("type", hashType))
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.CharData(b.Hash))
	}
	w.end("hash")

	w.element("size", strconv.FormatInt(b.Size, 10))
	if b.MinSdkVersion > 0 {
		w.element("sdkver", strconv.Itoa(b.MinSdkVersion))
	}
	if b.TargetSdkVersion > 0 {
		w.element("targetSdkVersion", strconv.Itoa(b.TargetSdkVersion))
	}
	if b.MaxSdkVersion > 0 {
		w.element("maxsdkver", strconv.Itoa(b.MaxSdkVersion))
	}
	w.elementNonEmpty("obbMainFile", b.ObbMainFile)
	w.elementNonEmpty("obbMainFileSha256", b.ObbMainFileSha256)
	w.elementNonEmpty("obbPatchFile", b.ObbPatchFile)
	w.elementNonEmpty("obbPatchFileSha256", b.ObbPatchFileSha256)
	if !b.Added.IsZero() {
		w.element("added", b.Added.Format(dateFormat))
	}

	// sig is required for APKs, but only APKs; source packages carry none
	// of the binary-only metadata.
	if strings.EqualFold(filepath.Ext(b.ApkName), ".apk") {
		w.element("sig", b.Sig)

		stripped := make([]string, 0, len(b.UsesPermission))
		seen := make(map[string]bool)
		for _, perm := range b.UsesPermission {
			name := strings.TrimPrefix(perm.Name, androidPermissionPrefix)
			if !seen[name] {
				seen[name] = true
				stripped = append(stripped, name)
			}
		}
		sort.Strings(stripped)
		w.elementNonEmpty("permissions", strings.Join(stripped, ","))

		writePermissionElements(w, "uses-permission", b.UsesPermission)
		writePermissionElements(w, "uses-permission-sdk-23", b.UsesPermissionSdk23)

		if len(b.NativeCode) > 0 {
			native := append([]string(nil), b.NativeCode...)
			sort.Strings(native)
			w.element("nativecode", strings.Join(native, ","))
		}
		if len(b.Features) > 0 {
			features := append([]string(nil), b.Features...)
			sort.Strings(features)
			w.element("features", strings.Join(features, ","))
		}
	}
	w.end("package")
}

// writePermissionElements emits one element per permission carrying a
// maximum-SDK qualifier, matching what legacy clients were shipped with;
// unqualified permissions are only carried by the comma-joined list.
func writePermissionElements(w *docWriter, name string, perms []models.Permission) {
	sorted := append([]models.Permission(nil), perms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, perm := range sorted {
		if perm.MaxSdkVersion == nil {
			continue
		}
		w.start(name,
			attr("name", perm.Name),
			attr("maxSdkVersion", strconv.Itoa(*perm.MaxSdkVersion)))
		w.end(name)
	}
}

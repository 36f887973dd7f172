package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/jar"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// record is one flat-format object. Fields are added through explicit
// emptiness predicates: the format is strictly sparse-on-empty, and the
// predicates keep "zero" distinguishable from "absent" per field type
// instead of relying on ad hoc truthiness.
type record map[string]interface{}

func (r record) putString(key, value string) {
	if value != "" {
		r[key] = value
	}
}

func (r record) putInt(key string, value int64) {
	if value != 0 {
		r[key] = value
	}
}

func (r record) putStrings(key string, value []string) {
	if len(value) > 0 {
		r[key] = value
	}
}

// putTime stores a timestamp as epoch milliseconds, the unit flat-format
// consumers expect.
func (r record) putTime(key string, value time.Time) {
	if !value.IsZero() {
		r[key] = value.UnixMilli()
	}
}

// makeV1 renders the flat index-v1.json and its signed jar. Package records
// carry no imposed ordering; consumers sort if they need to.
func (a *Assembler) makeV1(repoDir string, descriptor *models.RepoDescriptor, requests models.Requests, apps []*models.App, grouped map[string][]*models.PackageBuild) error {
	repo := record{}
	repo.putString("name", descriptor.Name)
	repo.putString("icon", descriptor.Icon)
	repo.putString("address", descriptor.Address)
	repo.putString("description", descriptor.Description)
	repo.putInt("version", int64(descriptor.Version))
	repo.putInt("maxage", int64(descriptor.MaxAge))
	repo.putTime("timestamp", descriptor.Timestamp)
	repo.putStrings("mirrors", descriptor.Mirrors)

	// The request lists are always present, even when empty.
	install := requests.Install
	if install == nil {
		install = []string{}
	}
	uninstall := requests.Uninstall
	if uninstall == nil {
		uninstall = []string{}
	}

	appRecords := make([]record, 0, len(apps))
	for _, app := range apps {
		appRecords = append(appRecords, v1AppRecord(app))
	}

	packages := make(map[string][]record, len(grouped))
	for pkgName, builds := range grouped {
		records := make([]record, 0, len(builds))
		for _, b := range builds {
			records = append(records, v1PackageRecord(b))
		}
		packages[pkgName] = records
	}

	output := map[string]interface{}{
		"repo": repo,
		"requests": map[string]interface{}{
			"install":   install,
			"uninstall": uninstall,
		},
		"apps":     appRecords,
		"packages": packages,
	}

	var data []byte
	var err error
	if a.cfg.Pretty {
		data, err = json.MarshalIndent(output, "", "  ")
	} else {
		data, err = json.Marshal(output)
	}
	if err != nil {
		return muerrors.NewParsingError("JSON_ENCODE", "failed to encode index-v1.json").WithCause(err)
	}

	jsonPath := filepath.Join(repoDir, V1JSONName)
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return muerrors.NewFileSystemError("JSON_WRITE",
			fmt.Sprintf("cannot write %s", jsonPath)).WithCause(err)
	}

	if a.cfg.NoSign {
		return nil
	}
	jarPath := filepath.Join(repoDir, V1JarName)
	if err := jar.Write(jarPath, V1JSONName, data); err != nil {
		return err
	}
	_, err = a.gateway.Sign(jarPath)
	return err
}

// v1AppRecord converts an application to its external flat-format naming
// contract: lower-camel-case keys, the historical "current version" fields
// renamed to suggested version fields, internal bookkeeping excluded.
func v1AppRecord(app *models.App) record {
	r := record{}
	r.putString("packageName", app.PackageName)
	name := app.Name
	if name == "" {
		name = app.AutoName
	}
	r.putString("name", name)
	r.putString("summary", app.Summary)
	r.putString("description", app.Description)
	r.putString("license", app.License)
	r.putStrings("categories", app.Categories)
	r.putString("icon", app.Icon)
	r.putString("webSite", app.WebSite)
	r.putString("sourceCode", app.SourceCode)
	r.putString("issueTracker", app.IssueTracker)
	r.putString("changelog", app.Changelog)
	r.putString("authorName", app.AuthorName)
	r.putString("authorEmail", app.AuthorEmail)
	r.putString("donate", app.Donate)
	r.putString("bitcoin", app.Bitcoin)
	r.putString("litecoin", app.Litecoin)
	r.putString("flattrID", app.FlattrID)
	r.putString("suggestedVersionName", app.CurrentVersion)
	if app.CurrentVersionCode != 0 {
		r["suggestedVersionCode"] = strconv.FormatInt(app.CurrentVersionCode, 10)
	}
	r.putStrings("antiFeatures", app.AntiFeatures)
	r.putTime("added", app.Added)
	r.putTime("lastUpdated", app.LastUpdated)
	return r
}

// v1PackageRecord converts one package build. Display-only fields already
// present at the application level (icon, name) are stripped.
func v1PackageRecord(b *models.PackageBuild) record {
	r := record{}
	r.putString("apkName", b.ApkName)
	r.putString("srcname", b.SrcName)
	r.putString("hash", b.Hash)
	r.putString("hashType", b.HashType)
	r.putString("sig", b.Sig)
	r.putInt("size", b.Size)
	r.putInt("minSdkVersion", int64(b.MinSdkVersion))
	r.putInt("targetSdkVersion", int64(b.TargetSdkVersion))
	r.putInt("maxSdkVersion", int64(b.MaxSdkVersion))
	r.putString("obbMainFile", b.ObbMainFile)
	r.putString("obbMainFileSha256", b.ObbMainFileSha256)
	r.putString("obbPatchFile", b.ObbPatchFile)
	r.putString("obbPatchFileSha256", b.ObbPatchFileSha256)
	r.putString("packageName", b.PackageName)
	r.putString("versionName", b.VersionName)
	r.putInt("versionCode", b.VersionCode)
	r.putStrings("nativecode", b.NativeCode)
	r.putStrings("features", b.Features)
	r.putStrings("antiFeatures", b.AntiFeatures)
	if pairs := permissionPairs(b.UsesPermission); len(pairs) > 0 {
		r["uses-permission"] = pairs
	}
	if pairs := permissionPairs(b.UsesPermissionSdk23); len(pairs) > 0 {
		r["uses-permission-sdk-23"] = pairs
	}
	r.putTime("added", b.Added)
	return r
}

// permissionPairs encodes permissions as [name, maxSdkVersion] pairs, with
// a null second element when no qualifier applies.
func permissionPairs(perms []models.Permission) []interface{} {
	if len(perms) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, len(perms))
	for _, perm := range perms {
		var max interface{}
		if perm.MaxSdkVersion != nil {
			max = *perm.MaxSdkVersion
		}
		pairs = append(pairs, []interface{}{perm.Name, max})
	}
	return pairs
}

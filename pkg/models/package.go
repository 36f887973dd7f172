package models

import "time"

// Permission is a manifest permission request with its optional
// maximum-SDK applicability.
type Permission struct {
	Name          string
	MaxSdkVersion *int
}

// PackageBuild is one installable build of an application. An application
// may have many builds; version codes must be unique within one application
// (enforced at index construction, not here).
type PackageBuild struct {
	PackageName string

	VersionName string
	VersionCode int64

	ApkName  string // file name within the repository
	SrcName  string // source tarball file name, if published
	Hash     string // hex-encoded content digest
	HashType string // digest algorithm, normally sha256
	Sig      string // signing certificate hash
	Size     int64

	MinSdkVersion    int
	TargetSdkVersion int
	MaxSdkVersion    int

	UsesPermission      []Permission
	UsesPermissionSdk23 []Permission
	NativeCode          []string
	Features            []string
	AntiFeatures        []string

	ObbMainFile        string
	ObbMainFileSha256  string
	ObbPatchFile       string
	ObbPatchFileSha256 string

	Added time.Time
}

// GroupBuilds groups package builds under their owning application
// identifier, preserving input order within each group.
func GroupBuilds(builds []*PackageBuild) map[string][]*PackageBuild {
	grouped := make(map[string][]*PackageBuild)
	for _, b := range builds {
		grouped[b.PackageName] = append(grouped[b.PackageName], b)
	}
	return grouped
}

package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// Wire types mirror the flat index format byte for byte. They stay private
// so the rest of the code only ever sees the domain models.

type wireIndex struct {
	Repo     wireRepo                 `json:"repo"`
	Requests wireRequests             `json:"requests"`
	Apps     []wireApp                `json:"apps"`
	Packages map[string][]wirePackage `json:"packages"`
}

type wireRepo struct {
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Version     int      `json:"version"`
	MaxAge      int      `json:"maxage"`
	Timestamp   int64    `json:"timestamp"`
	Mirrors     []string `json:"mirrors"`
}

type wireRequests struct {
	Install   []string `json:"install"`
	Uninstall []string `json:"uninstall"`
}

type wireApp struct {
	PackageName          string   `json:"packageName"`
	Name                 string   `json:"name"`
	Summary              string   `json:"summary"`
	Description          string   `json:"description"`
	License              string   `json:"license"`
	Categories           []string `json:"categories"`
	Icon                 string   `json:"icon"`
	WebSite              string   `json:"webSite"`
	SourceCode           string   `json:"sourceCode"`
	IssueTracker         string   `json:"issueTracker"`
	Changelog            string   `json:"changelog"`
	AuthorName           string   `json:"authorName"`
	AuthorEmail          string   `json:"authorEmail"`
	Donate               string   `json:"donate"`
	Bitcoin              string   `json:"bitcoin"`
	Litecoin             string   `json:"litecoin"`
	FlattrID             string   `json:"flattrID"`
	SuggestedVersionName string   `json:"suggestedVersionName"`
	SuggestedVersionCode string   `json:"suggestedVersionCode"`
	AntiFeatures         []string `json:"antiFeatures"`
	Added                int64    `json:"added"`
	LastUpdated          int64    `json:"lastUpdated"`
}

type wirePackage struct {
	ApkName             string           `json:"apkName"`
	SrcName             string           `json:"srcname"`
	Hash                string           `json:"hash"`
	HashType            string           `json:"hashType"`
	Sig                 string           `json:"sig"`
	Size                int64            `json:"size"`
	MinSdkVersion       int              `json:"minSdkVersion"`
	TargetSdkVersion    int              `json:"targetSdkVersion"`
	MaxSdkVersion       int              `json:"maxSdkVersion"`
	ObbMainFile         string           `json:"obbMainFile"`
	ObbMainFileSha256   string           `json:"obbMainFileSha256"`
	ObbPatchFile        string           `json:"obbPatchFile"`
	ObbPatchFileSha256  string           `json:"obbPatchFileSha256"`
	PackageName         string           `json:"packageName"`
	VersionName         string           `json:"versionName"`
	VersionCode         int64            `json:"versionCode"`
	NativeCode          []string         `json:"nativecode"`
	Features            []string         `json:"features"`
	AntiFeatures        []string         `json:"antiFeatures"`
	UsesPermission      []wirePermission `json:"uses-permission"`
	UsesPermissionSdk23 []wirePermission `json:"uses-permission-sdk-23"`
	Added               int64            `json:"added"`
}

// wirePermission decodes the [name, maxSdkVersion] pair encoding, where the
// second element is null when no qualifier applies.
type wirePermission struct {
	Name          string
	MaxSdkVersion *int
}

func (p *wirePermission) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) == 0 {
		return fmt.Errorf("permission pair is empty")
	}
	if err := json.Unmarshal(pair[0], &p.Name); err != nil {
		return fmt.Errorf("permission name: %w", err)
	}
	p.MaxSdkVersion = nil
	if len(pair) > 1 && string(pair[1]) != "null" {
		var max int
		if err := json.Unmarshal(pair[1], &max); err != nil {
			return fmt.Errorf("permission max sdk: %w", err)
		}
		p.MaxSdkVersion = &max
	}
	return nil
}

// LoadVerified parses the payload of a verified fetch and attaches the
// signer identity to the repo descriptor, so consumers can tell which
// certificate vouched for the catalog they hold.
func LoadVerified(result *FetchResult) (*models.Index, error) {
	index, err := Load(result.Data)
	if err != nil {
		return nil, err
	}
	index.Repo.PubKey = result.PubKey
	index.Repo.Fingerprint = result.Fingerprint
	return index, nil
}

// Load parses a flat index payload into domain models.
func Load(data []byte) (*models.Index, error) {
	var wire wireIndex
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, muerrors.NewParsingError("BAD_INDEX",
			"cannot parse repository index").WithCause(err)
	}

	index := &models.Index{
		Repo: models.RepoDescriptor{
			Name:        wire.Repo.Name,
			Icon:        wire.Repo.Icon,
			Address:     wire.Repo.Address,
			Description: wire.Repo.Description,
			Version:     wire.Repo.Version,
			MaxAge:      wire.Repo.MaxAge,
			Timestamp:   millisToTime(wire.Repo.Timestamp),
			Mirrors:     wire.Repo.Mirrors,
		},
		Requests: models.Requests{
			Install:   wire.Requests.Install,
			Uninstall: wire.Requests.Uninstall,
		},
		Packages: make(map[string][]*models.PackageBuild, len(wire.Packages)),
	}

	for _, wa := range wire.Apps {
		app, err := loadApp(wa)
		if err != nil {
			return nil, err
		}
		index.Apps = append(index.Apps, app)
	}

	for pkgName, wirePkgs := range wire.Packages {
		builds := make([]*models.PackageBuild, 0, len(wirePkgs))
		for _, wp := range wirePkgs {
			builds = append(builds, loadPackage(wp))
		}
		index.Packages[pkgName] = builds
	}

	return index, nil
}

func loadApp(wa wireApp) (*models.App, error) {
	app := &models.App{
		PackageName:    wa.PackageName,
		Name:           wa.Name,
		Summary:        wa.Summary,
		Description:    wa.Description,
		License:        wa.License,
		Categories:     wa.Categories,
		Icon:           wa.Icon,
		WebSite:        wa.WebSite,
		SourceCode:     wa.SourceCode,
		IssueTracker:   wa.IssueTracker,
		Changelog:      wa.Changelog,
		AuthorName:     wa.AuthorName,
		AuthorEmail:    wa.AuthorEmail,
		Donate:         wa.Donate,
		Bitcoin:        wa.Bitcoin,
		Litecoin:       wa.Litecoin,
		FlattrID:       wa.FlattrID,
		CurrentVersion: wa.SuggestedVersionName,
		AntiFeatures:   wa.AntiFeatures,
		Added:          millisToTime(wa.Added),
		LastUpdated:    millisToTime(wa.LastUpdated),
	}
	if wa.SuggestedVersionCode != "" {
		code, err := strconv.ParseInt(wa.SuggestedVersionCode, 10, 64)
		if err != nil {
			return nil, muerrors.NewParsingError("BAD_VERSION_CODE",
				fmt.Sprintf("app %s carries suggested version code %q", wa.PackageName, wa.SuggestedVersionCode)).WithCause(err)
		}
		app.CurrentVersionCode = code
	}
	return app, nil
}

func loadPackage(wp wirePackage) *models.PackageBuild {
	return &models.PackageBuild{
		PackageName:         wp.PackageName,
		VersionName:         wp.VersionName,
		VersionCode:         wp.VersionCode,
		ApkName:             wp.ApkName,
		SrcName:             wp.SrcName,
		Hash:                wp.Hash,
		HashType:            wp.HashType,
		Sig:                 wp.Sig,
		Size:                wp.Size,
		MinSdkVersion:       wp.MinSdkVersion,
		TargetSdkVersion:    wp.TargetSdkVersion,
		MaxSdkVersion:       wp.MaxSdkVersion,
		ObbMainFile:         wp.ObbMainFile,
		ObbMainFileSha256:   wp.ObbMainFileSha256,
		ObbPatchFile:        wp.ObbPatchFile,
		ObbPatchFileSha256:  wp.ObbPatchFileSha256,
		NativeCode:          wp.NativeCode,
		Features:            wp.Features,
		AntiFeatures:        wp.AntiFeatures,
		UsesPermission:      loadPermissions(wp.UsesPermission),
		UsesPermissionSdk23: loadPermissions(wp.UsesPermissionSdk23),
		Added:               millisToTime(wp.Added),
	}
}

func loadPermissions(wire []wirePermission) []models.Permission {
	if len(wire) == 0 {
		return nil
	}
	perms := make([]models.Permission, 0, len(wire))
	for _, wp := range wire {
		perms = append(perms, models.Permission{Name: wp.Name, MaxSdkVersion: wp.MaxSdkVersion})
	}
	return perms
}

func millisToTime(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

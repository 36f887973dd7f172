package models

import "time"

// App is one application in the catalog. The catalog is assembled by a
// collaborator (metadata files, APK scanning) before index generation runs
// and is treated as read-only by the index builders.
type App struct {
	PackageName string
	Name        string
	AutoName    string // name derived from the APK label, used when Name is unset
	Summary     string
	Description string // raw description text, rendered to HTML at build time
	License     string
	Categories  []string // first entry is the primary category
	Icon        string

	WebSite      string
	SourceCode   string
	IssueTracker string
	Changelog    string
	AuthorName   string
	AuthorEmail  string
	Donate       string
	Bitcoin      string
	Litecoin     string
	FlattrID     string

	// CurrentVersion points at the version clients should be offered.
	// Historically emitted as marketversion/marketvercode in the legacy index.
	CurrentVersion     string
	CurrentVersionCode int64

	Provides     string // comma-separated provided component list
	RequiresRoot bool
	AntiFeatures []string
	Disabled     string // non-empty = reason the app is excluded from indexes

	Added       time.Time
	LastUpdated time.Time
}

// DisplayName returns the name clients should show, falling back to the
// APK-derived name and finally the package name.
func (a *App) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.AutoName != "" {
		return a.AutoName
	}
	return a.PackageName
}

// RepoDescriptor carries repository-level metadata shared by both index
// representations. PubKey and Fingerprint are only populated on the
// verification side after a successful fetch.
type RepoDescriptor struct {
	Name        string
	Icon        string
	Address     string
	Description string
	Timestamp   time.Time
	Version     int // index format version
	MaxAge      int // days before clients should consider the index stale, 0 = never
	Mirrors     []string
	PubKey      string // hex-encoded signing certificate
	Fingerprint string
}

// Requests are the repository-policy install/uninstall lists.
type Requests struct {
	Install   []string
	Uninstall []string
}

// Index is the typed form of a flat index document, as produced by the
// loader after verification.
type Index struct {
	Repo     RepoDescriptor
	Requests Requests
	Apps     []*App
	Packages map[string][]*PackageBuild
}

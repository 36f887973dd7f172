// Package index builds the two parallel index representations of an APK
// repository from an in-memory catalog: the legacy hierarchical index.xml
// and the flat index-v1.json. Both are projections from the same catalog
// snapshot; neither is derived from the other.
package index

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// FormatVersion is the index schema version both representations carry.
const FormatVersion = 18

// Well-known artifact names within a repository directory.
const (
	XMLName         = "index.xml"
	UnsignedJarName = "index_unsigned.jar"
	JarName         = "index.jar"
	V1JSONName      = "index-v1.json"
	V1JarName       = "index-v1.jar"
)

// Assembler builds both index representations for one repository instance.
// Construction is single-pass over one catalog snapshot; generating the
// primary and archival repositories in parallel requires two assemblers.
type Assembler struct {
	cfg     *models.Config
	gateway Gateway
	now     func() time.Time
}

// NewAssembler creates an assembler. gateway may be nil when cfg.NoSign is
// set.
func NewAssembler(cfg *models.Config, gateway Gateway) *Assembler {
	return &Assembler{cfg: cfg, gateway: gateway, now: time.Now}
}

// Make reads the catalog once and writes index.xml and index-v1.json (plus
// their signed archives) into repoDir. archive selects the archival profile
// descriptor. Any error means no trusted artifact was produced; fatal
// conditions halt the run rather than skip an application.
func (a *Assembler) Make(apps map[string]*models.App, builds []*models.PackageBuild, repoDir string, archive bool) error {
	cfg := a.cfg
	if !cfg.NoSign {
		if err := checkSigningConfig(cfg); err != nil {
			return err
		}
	}

	profile := cfg.Repo
	if archive {
		profile = cfg.Archive
	}
	descriptor := &models.RepoDescriptor{
		Name:        profile.Name,
		Icon:        path.Base(profile.Icon),
		Address:     profile.Address,
		Description: profile.Description,
		Timestamp:   a.now().UTC(),
		Version:     FormatVersion,
		MaxAge:      cfg.MaxAge,
	}

	mirrors, err := normalizeMirrors(cfg, profile.Address)
	if err != nil {
		return err
	}
	descriptor.Mirrors = mirrors

	requests, err := buildRequests(cfg)
	if err != nil {
		return err
	}

	eligible, grouped, err := eligibleApps(apps, builds)
	if err != nil {
		return err
	}

	pubkey, _, err := a.pubkey()
	if err != nil {
		return err
	}

	if err := a.makeV0(repoDir, descriptor, requests, eligible, grouped, pubkey, archive); err != nil {
		return err
	}
	if err := a.makeV1(repoDir, descriptor, requests, eligible, grouped); err != nil {
		return err
	}

	return a.copyRepoIcon(repoDir, profile)
}

// eligibleApps filters the catalog down to enabled applications with at
// least one package build, in sorted identifier order, with descriptions
// rendered to HTML. The returned apps are copies; the catalog stays
// untouched.
func eligibleApps(apps map[string]*models.App, builds []*models.PackageBuild) ([]*models.App, map[string][]*models.PackageBuild, error) {
	grouped := models.GroupBuilds(builds)
	resolve := catalogResolver(apps)

	ids := make([]string, 0, len(apps))
	for id := range apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var eligible []*models.App
	for _, id := range ids {
		app := apps[id]
		if app.Disabled != "" {
			continue
		}
		if len(grouped[id]) == 0 {
			continue
		}
		rendered, err := renderDescription(app.Description, resolve)
		if err != nil {
			return nil, nil, err
		}
		cp := *app
		cp.Description = rendered
		eligible = append(eligible, &cp)
	}
	return eligible, grouped, nil
}

// buildRequests coerces the configured install/uninstall lists. Each
// accepts a single package name or a list of them; anything else is a
// configuration error.
func buildRequests(cfg *models.Config) (models.Requests, error) {
	install, err := coercePackageList(cfg.InstallList, "install_list")
	if err != nil {
		return models.Requests{}, err
	}
	uninstall, err := coercePackageList(cfg.UninstallList, "uninstall_list")
	if err != nil {
		return models.Requests{}, err
	}
	return models.Requests{Install: install, Uninstall: uninstall}, nil
}

func coercePackageList(value interface{}, field string) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, muerrors.NewConfigurationError("BAD_REQUEST_LIST",
					fmt.Sprintf("%s only accepts strings and lists of strings", field))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, muerrors.NewConfigurationError("BAD_REQUEST_LIST",
			fmt.Sprintf("%s only accepts strings and lists of strings", field))
	}
}

func (a *Assembler) pubkey() ([]byte, string, error) {
	if a.cfg.NoSign && a.cfg.RepoPubKey == "" {
		return nil, "", nil
	}
	return extractPubKey(a.cfg)
}

// copyRepoIcon places the configured repository icon into the repository's
// icons directory so clients can fetch it next to the index.
func (a *Assembler) copyRepoIcon(repoDir string, profile models.RepoProfile) error {
	src, err := os.Open(profile.Icon)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return muerrors.NewFileSystemError("ICON_COPY",
			fmt.Sprintf("cannot read repo icon %s", profile.Icon)).WithCause(err)
	}
	defer src.Close()

	iconDir := filepath.Join(repoDir, "icons")
	if err := os.MkdirAll(iconDir, 0755); err != nil {
		return muerrors.NewFileSystemError("ICON_COPY", "cannot create icons directory").WithCause(err)
	}
	dst, err := os.Create(filepath.Join(iconDir, filepath.Base(profile.Icon)))
	if err != nil {
		return muerrors.NewFileSystemError("ICON_COPY", "cannot write repo icon").WithCause(err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return muerrors.NewFileSystemError("ICON_COPY", "cannot write repo icon").WithCause(err)
	}
	return nil
}

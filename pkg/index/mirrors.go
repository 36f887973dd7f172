package index

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// standardWebroot is the directory name a repository is expected to be
// served from; mirrors not ending in it are rejected unless the
// configuration explicitly permits nonstandard webroots.
const standardWebroot = "fdroid"

var gitSSHPattern = regexp.MustCompile(`^git@(.*?):(.*)$`)

// normalizeMirrors builds the mirror list for the index: every configured
// mirror is normalized to share the repository address's final path segment,
// and git-hosting shorthands are expanded to raw-content URLs. Malformed
// mirrors are collected and reported together so one run surfaces them all.
func normalizeMirrors(cfg *models.Config, address string) ([]string, error) {
	addrURL, err := url.Parse(address)
	if err != nil {
		return nil, muerrors.NewConfigurationError("BAD_ADDRESS",
			fmt.Sprintf("repository address %q is not a valid URL", address)).WithCause(err)
	}
	urlBasePath := path.Base(addrURL.Path)

	sorted := append([]string(nil), cfg.Mirrors...)
	sort.Strings(sorted)

	var mirrors []string
	var bad []string
	for _, mirror := range sorted {
		u, err := url.Parse(mirror)
		if err != nil {
			bad = append(bad, mirror)
			continue
		}
		base := path.Base(strings.TrimRight(u.Path, "/"))
		if !cfg.NonStandardWebroot && base != standardWebroot {
			bad = append(bad, mirror)
			continue
		}
		// must end with / or resolving would strip a whole path segment
		if !strings.HasSuffix(mirror, "/") {
			mirror += "/"
		}
		resolved, err := url.Parse(mirror)
		if err != nil {
			bad = append(bad, mirror)
			continue
		}
		ref := &url.URL{Path: urlBasePath}
		mirrors = append(mirrors, resolved.ResolveReference(ref).String())
	}
	if len(bad) > 0 {
		return nil, muerrors.NewConfigurationError("MIRROR_WEBROOT",
			fmt.Sprintf("mirrors do not end with '%s': %s",
				standardWebroot, strings.Join(bad, ", ")))
	}

	for _, mirror := range cfg.ServerGitMirrors {
		if resolved := mirrorServiceURL(mirror); resolved != "" {
			mirrors = append(mirrors, resolved+"/")
		}
	}

	return mirrors, nil
}

// mirrorServiceURL resolves a git-hosting mirror shorthand into the raw
// content URL clients can fetch from. Only github.com and gitlab.com are
// understood; unknown hosts yield "".
func mirrorServiceURL(raw string) string {
	if m := gitSSHPattern.FindStringSubmatch(raw); m != nil {
		raw = "https://" + m[1] + "/" + m[2]
	}

	segments := strings.Split(raw, "/")
	if len(segments) < 5 {
		return ""
	}
	segments[4] = strings.TrimSuffix(segments[4], ".git")

	hostname := segments[2]
	user := segments[3]
	repo := segments[4]
	const branch = "master"

	switch hostname {
	case "github.com":
		return "https://raw.githubusercontent.com/" + user + "/" + repo + "/" + branch + "/" + standardWebroot
	case "gitlab.com":
		return "https://" + user + ".gitlab.io/" + repo + "/" + standardWebroot
	default:
		return ""
	}
}

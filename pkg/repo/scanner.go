package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ubuntupunk/muizedroid/pkg/apk"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// Scanner walks a repository directory and builds the catalog the index
// assembler consumes.
type Scanner struct {
	config *models.Config
	parser *apk.Parser
	icons  *apk.IconExtractor
}

// NewScanner creates a new scanner instance
func NewScanner(config *models.Config, repoDir string) *Scanner {
	return &Scanner{
		config: config,
		parser: apk.NewParser(repoDir),
		icons:  apk.NewIconExtractor(),
	}
}

// ScanResult represents the result of scanning
type ScanResult struct {
	Apps       map[string]*models.App
	Builds     []*models.PackageBuild
	TotalFiles int
	ParsedAPKs int
	Errors     []error
}

// Scan walks the repository directory for APK files. Per-file parse
// failures are collected, not fatal; the walk itself failing is.
func (s *Scanner) Scan(directory string) (*ScanResult, error) {
	result := &ScanResult{
		Apps:   make(map[string]*models.App),
		Errors: []error{},
	}

	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // Continue scanning
		}

		if info.IsDir() {
			if !s.config.Scanning.Recursive && path != directory {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !s.config.Scanning.FollowSymlinks {
			return nil
		}

		if !s.matchesPattern(path) {
			return nil
		}

		result.TotalFiles++

		if err := s.processAPK(directory, path, result); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error processing %s: %w", path, err))
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	s.finalizeApps(directory, result)

	return result, nil
}

// matchesPattern checks if file matches include/exclude patterns
func (s *Scanner) matchesPattern(path string) bool {
	filename := filepath.Base(path)

	for _, pattern := range s.config.Scanning.ExcludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return false
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return false
		}
	}

	for _, pattern := range s.config.Scanning.IncludePattern {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return true
		}
	}

	return false
}

// processAPK processes a single APK file
func (s *Scanner) processAPK(directory, apkPath string, result *ScanResult) error {
	parsed, err := s.parser.Parse(apkPath)
	if err != nil {
		return err
	}

	result.ParsedAPKs++
	result.Builds = append(result.Builds, parsed.Build)

	pkgName := parsed.Build.PackageName
	app, exists := result.Apps[pkgName]
	if !exists {
		app = &models.App{PackageName: pkgName}
		result.Apps[pkgName] = app
	}
	if app.AutoName == "" && parsed.Label != "" {
		app.AutoName = parsed.Label
	}
	if app.Added.IsZero() || parsed.Build.Added.Before(app.Added) {
		app.Added = parsed.Build.Added
	}
	if parsed.Build.Added.After(app.LastUpdated) {
		app.LastUpdated = parsed.Build.Added
	}

	return nil
}

// finalizeApps fills per-app facts that depend on the full set of builds:
// the current version fields track the highest version code seen, and that
// build's icon is extracted into the icons directory.
func (s *Scanner) finalizeApps(directory string, result *ScanResult) {
	newest := make(map[string]*models.PackageBuild)
	for _, build := range result.Builds {
		best, ok := newest[build.PackageName]
		if !ok || build.VersionCode > best.VersionCode {
			newest[build.PackageName] = build
		}
	}

	for pkgName, app := range result.Apps {
		build, ok := newest[pkgName]
		if !ok {
			continue
		}
		app.CurrentVersion = build.VersionName
		app.CurrentVersionCode = build.VersionCode

		iconName, err := s.extractIcon(directory, build)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("icon for %s: %w", pkgName, err))
			continue
		}
		app.Icon = iconName
	}
}

// extractIcon writes the build's launcher icon into <repo>/icons/ and
// returns the icon file name the index refers to.
func (s *Scanner) extractIcon(directory string, build *models.PackageBuild) (string, error) {
	apkPath := filepath.Join(directory, filepath.FromSlash(build.ApkName))
	data, err := s.icons.ExtractIcon(apkPath)
	if err != nil {
		return "", err
	}

	iconsDir := filepath.Join(directory, "icons")
	if err := os.MkdirAll(iconsDir, 0755); err != nil {
		return "", err
	}

	iconName := fmt.Sprintf("%s.%d.png", build.PackageName, build.VersionCode)
	if err := os.WriteFile(filepath.Join(iconsDir, iconName), data, 0644); err != nil {
		return "", err
	}
	return iconName, nil
}

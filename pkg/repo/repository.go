package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ubuntupunk/muizedroid/pkg/index"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// Repository ties the scanner and the index assembler together for one
// repository root. The root holds the repo/ directory (and archive/ when
// used).
type Repository struct {
	config  *models.Config
	rootDir string
}

// NewRepository creates a new repository instance
func NewRepository(rootDir string, config *models.Config) (*Repository, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	return &Repository{
		config:  config,
		rootDir: absRoot,
	}, nil
}

// RootDir returns the resolved repository root.
func (r *Repository) RootDir() string {
	return r.rootDir
}

// SectionDir returns the directory holding one repository section.
func (r *Repository) SectionDir(archive bool) string {
	if archive {
		return filepath.Join(r.rootDir, "archive")
	}
	return filepath.Join(r.rootDir, "repo")
}

// Initialize creates the repository directory structure
func (r *Repository) Initialize() error {
	dirs := []string{
		r.rootDir,
		r.SectionDir(false),
		filepath.Join(r.SectionDir(false), "icons"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Update scans one section and rebuilds its indexes. The scan result is
// returned so the caller can report file counts and per-file errors.
func (r *Repository) Update(gateway index.Gateway, archive bool) (*ScanResult, error) {
	sectionDir := r.SectionDir(archive)
	if _, err := os.Stat(sectionDir); err != nil {
		return nil, fmt.Errorf("repository section %s: %w", sectionDir, err)
	}

	scanner := NewScanner(r.config, sectionDir)
	result, err := scanner.Scan(sectionDir)
	if err != nil {
		return nil, err
	}

	assembler := index.NewAssembler(r.config, gateway)
	if err := assembler.Make(result.Apps, result.Builds, sectionDir, archive); err != nil {
		return result, err
	}

	return result, nil
}

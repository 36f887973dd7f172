package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

var defaultConfig = models.Config{
	Repo: models.RepoProfile{
		Name:        "My First F-Droid Repo Demo",
		Icon:        "fdroid-icon.png",
		Address:     "https://MyFirstFDroidRepo.org/fdroid/repo",
		Description: "A local FDroid repo generated from apps in the repo directory.",
	},
	Archive: models.RepoProfile{
		Name:        "My First F-Droid Archive Demo",
		Icon:        "fdroid-icon.png",
		Address:     "https://MyFirstFDroidRepo.org/fdroid/archive",
		Description: "Builds that have been archived from the main repo.",
	},
	Keytool:                  "keytool",
	Jarsigner:                "jarsigner",
	CurrentVersionNameSource: "Name",
	Scanning: models.ScanningConfig{
		Recursive:      true,
		FollowSymlinks: false,
		IncludePattern: []string{"*.apk"},
		ExcludePattern: []string{},
	},
}

// Load loads configuration from file and environment.
func Load(configPath string) (*models.Config, error) {
	viper.SetConfigType("yaml")

	viper.SetDefault("repo.name", defaultConfig.Repo.Name)
	viper.SetDefault("repo.icon", defaultConfig.Repo.Icon)
	viper.SetDefault("repo.address", defaultConfig.Repo.Address)
	viper.SetDefault("repo.description", defaultConfig.Repo.Description)
	viper.SetDefault("archive.name", defaultConfig.Archive.Name)
	viper.SetDefault("archive.icon", defaultConfig.Archive.Icon)
	viper.SetDefault("archive.address", defaultConfig.Archive.Address)
	viper.SetDefault("archive.description", defaultConfig.Archive.Description)
	viper.SetDefault("repo_maxage", 0)
	viper.SetDefault("keytool", defaultConfig.Keytool)
	viper.SetDefault("jarsigner", defaultConfig.Jarsigner)
	viper.SetDefault("make_current_version_link", false)
	viper.SetDefault("current_version_name_source", defaultConfig.CurrentVersionNameSource)
	viper.SetDefault("scanning.recursive", defaultConfig.Scanning.Recursive)
	viper.SetDefault("scanning.follow_symlinks", defaultConfig.Scanning.FollowSymlinks)
	viper.SetDefault("scanning.include_pattern", defaultConfig.Scanning.IncludePattern)
	viper.SetDefault("scanning.exclude_pattern", defaultConfig.Scanning.ExcludePattern)

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("muizedroid")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "muizedroid"))
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is not an error, we'll use defaults
	}

	viper.SetEnvPrefix("MUIZEDROID")
	viper.AutomaticEnv()

	var config models.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// SaveTemplate saves a commented configuration template.
func SaveTemplate(path string) error {
	templateContent := `# muizedroid configuration file

repo:
  name: "My First F-Droid Repo Demo"
  icon: "fdroid-icon.png"
  address: "https://MyFirstFDroidRepo.org/fdroid/repo"
  description: "A local FDroid repo generated from apps in the repo directory."

archive:
  name: "My First F-Droid Archive Demo"
  icon: "fdroid-icon.png"
  address: "https://MyFirstFDroidRepo.org/fdroid/archive"
  description: "Builds that have been archived from the main repo."

# Days before clients should consider the index stale (0 = never)
repo_maxage: 0

# Mirror URLs. Each must end in the standard webroot segment unless
# nonstandard_webroot is set.
mirrors: []
nonstandard_webroot: false

# Git-hosting mirror shorthands, resolved to raw-content URLs
# (github.com and gitlab.com are supported).
servergitmirrors: []

# Repository policy requests. Each accepts a single package name or a list.
install_list: []
uninstall_list: []

# Signing. The keystore credentials are required unless nosign is set.
keystore: ""
keystorepass: ""
keypass: ""
repo_keyalias: ""
# Hex-encoded signing certificate; when set, keytool is not invoked.
repo_pubkey: ""
keytool: "keytool"
jarsigner: "jarsigner"
nosign: false

# Pretty-print the generated index documents
pretty: false

# Maintain a stable "current version" filename alias for each app
make_current_version_link: false
# App field the alias filename is derived from: Name, AutoName or packageName
current_version_name_source: "Name"

scanning:
  recursive: true
  follow_symlinks: false
  include_pattern:
    - "*.apk"
  exclude_pattern: []
`

	return os.WriteFile(path, []byte(templateContent), 0644)
}

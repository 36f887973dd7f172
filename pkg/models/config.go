package models

// RepoProfile holds the descriptor fields for one repository instance.
// Two profiles are configured: the primary repo and the archive.
type RepoProfile struct {
	Name        string `mapstructure:"name" json:"name"`
	Icon        string `mapstructure:"icon" json:"icon"`
	Address     string `mapstructure:"address" json:"address"`
	Description string `mapstructure:"description" json:"description"`
}

// Config is the process-wide index generation configuration. It is loaded
// once and passed explicitly into the assembler; nothing reads it from
// ambient state.
type Config struct {
	Repo    RepoProfile `mapstructure:"repo" json:"repo"`
	Archive RepoProfile `mapstructure:"archive" json:"archive"`

	MaxAge int `mapstructure:"repo_maxage" json:"repo_maxage"`

	Mirrors            []string `mapstructure:"mirrors" json:"mirrors"`
	ServerGitMirrors   []string `mapstructure:"servergitmirrors" json:"servergitmirrors"`
	NonStandardWebroot bool     `mapstructure:"nonstandard_webroot" json:"nonstandard_webroot"`

	// InstallList and UninstallList accept a single string or a list of
	// strings; any other shape is a configuration error.
	InstallList   interface{} `mapstructure:"install_list" json:"install_list"`
	UninstallList interface{} `mapstructure:"uninstall_list" json:"uninstall_list"`

	Keystore     string `mapstructure:"keystore" json:"keystore"`
	KeystorePass string `mapstructure:"keystorepass" json:"-"`
	KeyPass      string `mapstructure:"keypass" json:"-"`
	RepoKeyAlias string `mapstructure:"repo_keyalias" json:"repo_keyalias"`
	RepoPubKey   string `mapstructure:"repo_pubkey" json:"repo_pubkey"` // hex DER, skips keytool
	Keytool      string `mapstructure:"keytool" json:"keytool"`
	Jarsigner    string `mapstructure:"jarsigner" json:"jarsigner"`

	NoSign bool `mapstructure:"nosign" json:"nosign"`
	Pretty bool `mapstructure:"pretty" json:"pretty"`

	MakeCurrentVersionLink   bool   `mapstructure:"make_current_version_link" json:"make_current_version_link"`
	CurrentVersionNameSource string `mapstructure:"current_version_name_source" json:"current_version_name_source"`

	Scanning ScanningConfig `mapstructure:"scanning" json:"scanning"`
}

// ScanningConfig controls how the catalog scanner walks the repository
// directory for package files.
type ScanningConfig struct {
	Recursive      bool     `mapstructure:"recursive" json:"recursive"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" json:"follow_symlinks"`
	IncludePattern []string `mapstructure:"include_pattern" json:"include_pattern"`
	ExcludePattern []string `mapstructure:"exclude_pattern" json:"exclude_pattern"`
}

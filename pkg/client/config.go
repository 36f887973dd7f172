package client

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the client configuration
type Config struct {
	DefaultBucket string             `yaml:"default_bucket"`
	Buckets       map[string]*Bucket `yaml:"buckets"`
	Client        ClientSettings     `yaml:"client"`
}

// Bucket represents one remote repository the client pulls from. The
// fingerprint, when set, pins the signer certificate the repository index
// must be signed with. The etag caches the last seen HTTP entity tag so an
// unchanged index is not downloaded twice.
type Bucket struct {
	Name        string    `yaml:"name"`
	URL         string    `yaml:"url"`
	Fingerprint string    `yaml:"fingerprint,omitempty"`
	ETag        string    `yaml:"etag,omitempty"`
	Enabled     bool      `yaml:"enabled"`
	LastUpdated time.Time `yaml:"last_updated,omitempty"`
}

// ClientSettings contains client-specific settings
type ClientSettings struct {
	DownloadDir string `yaml:"download_dir"`
	CacheDir    string `yaml:"cache_dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".muizedroid")

	return &Config{
		DefaultBucket: "main",
		Buckets:       make(map[string]*Bucket),
		Client: ClientSettings{
			DownloadDir: filepath.Join(baseDir, "downloads"),
			CacheDir:    filepath.Join(baseDir, "cache"),
		},
	}
}

// ConfigPath returns the default config file path
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".muizedroid", "config.yaml")
}

// LoadConfig loads the client configuration, writing a default one on
// first use.
func LoadConfig() (*Config, error) {
	configPath := ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.expandPaths()

	return config, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configPath := ConfigPath()

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// expandPaths expands ~ in paths
func (c *Config) expandPaths() {
	homeDir, _ := os.UserHomeDir()

	if c.Client.DownloadDir != "" && c.Client.DownloadDir[0] == '~' {
		c.Client.DownloadDir = filepath.Join(homeDir, c.Client.DownloadDir[1:])
	}
	if c.Client.CacheDir != "" && c.Client.CacheDir[0] == '~' {
		c.Client.CacheDir = filepath.Join(homeDir, c.Client.CacheDir[1:])
	}
}

// EnsureDirectories creates necessary directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Client.DownloadDir,
		c.Client.CacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// AddBucket adds a new bucket to configuration. A fingerprint embedded in
// the URL query survives into the bucket pin.
func (c *Config) AddBucket(name, url, displayName string) error {
	if c.Buckets == nil {
		c.Buckets = make(map[string]*Bucket)
	}

	if _, exists := c.Buckets[name]; exists {
		return fmt.Errorf("bucket %s already exists", name)
	}

	address, pin, err := splitFingerprint(url)
	if err != nil {
		return err
	}

	c.Buckets[name] = &Bucket{
		Name:        displayName,
		URL:         address,
		Fingerprint: pin,
		Enabled:     true,
	}

	return c.Save()
}

// RemoveBucket removes a bucket from configuration
func (c *Config) RemoveBucket(name string) error {
	if _, exists := c.Buckets[name]; !exists {
		return fmt.Errorf("bucket %s not found", name)
	}

	delete(c.Buckets, name)

	// Update default bucket if necessary
	if c.DefaultBucket == name {
		c.DefaultBucket = ""
		for k := range c.Buckets {
			c.DefaultBucket = k
			break
		}
	}

	return c.Save()
}

// GetEnabledBuckets returns all enabled buckets
func (c *Config) GetEnabledBuckets() map[string]*Bucket {
	enabled := make(map[string]*Bucket)
	for name, bucket := range c.Buckets {
		if bucket.Enabled {
			enabled[name] = bucket
		}
	}
	return enabled
}

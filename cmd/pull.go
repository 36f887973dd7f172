package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/pkg/client"
)

var pullNoFingerprint bool

// pullCmd downloads and verifies a remote repository index
var pullCmd = &cobra.Command{
	Use:   "pull <url|bucket>",
	Short: i18n.T("cmd.pull.short"),
	Long:  i18n.T("cmd.pull.long"),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}

		// The argument is either a configured bucket name or a bare URL.
		target := args[0]
		bucket := cfg.Buckets[target]
		url := target
		etag := ""
		if bucket != nil {
			url = bucket.URL
			etag = bucket.ETag
			if bucket.Fingerprint != "" {
				url = url + "?fingerprint=" + bucket.Fingerprint
			}
		}

		fmt.Println(i18n.T("cmd.pull.fetching", map[string]interface{}{"URL": url}))

		fetcher := client.NewFetcher()
		result, newETag, err := fetcher.Fetch(cmd.Context(), url, etag, !pullNoFingerprint)
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println(i18n.T("cmd.pull.unchanged"))
			return nil
		}

		fmt.Println(i18n.T("cmd.pull.verified", map[string]interface{}{
			"Fingerprint": result.Fingerprint,
		}))

		indexData, err := client.LoadVerified(result)
		if err != nil {
			return err
		}
		fmt.Println(i18n.T("cmd.pull.summary", map[string]interface{}{
			"Name":     indexData.Repo.Name,
			"Apps":     len(indexData.Apps),
			"Packages": len(indexData.Packages),
		}))

		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		cachePath := filepath.Join(cfg.Client.CacheDir, "index-v1.json")
		if bucket != nil {
			cachePath = filepath.Join(cfg.Client.CacheDir, target+".index-v1.json")
		}
		if err := os.WriteFile(cachePath, result.Data, 0644); err != nil {
			return err
		}

		if bucket != nil {
			bucket.ETag = newETag
			bucket.LastUpdated = indexData.Repo.Timestamp
			if bucket.Fingerprint == "" {
				bucket.Fingerprint = result.Fingerprint
			}
			return cfg.Save()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().BoolVar(&pullNoFingerprint, "no-fingerprint", false, i18n.T("cmd.pull.flag.noFingerprint"))
}

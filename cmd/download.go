package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/pkg/client"
)

var (
	downloadBucket      string
	downloadVersionCode int64
	downloadForce       bool
)

// downloadCmd fetches a package build listed in a pulled index
var downloadCmd = &cobra.Command{
	Use:   "download <package>",
	Short: i18n.T("cmd.download.short"),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		indexes, err := loadCachedIndexes(cfg)
		if err != nil {
			return err
		}

		packageName := args[0]
		manager := client.NewDownloadManager(cfg)
		options := client.DownloadOptions{
			VersionCode:  downloadVersionCode,
			Force:        downloadForce,
			ShowProgress: true,
		}

		for name, index := range indexes {
			if downloadBucket != "" && name != downloadBucket {
				continue
			}
			if _, ok := index.Packages[packageName]; !ok {
				continue
			}
			path, err := manager.Download(index, packageName, options)
			if err != nil {
				return err
			}
			fmt.Println(i18n.T("cmd.download.saved", map[string]interface{}{"Path": path}))
			return nil
		}

		return fmt.Errorf("package '%s' not found in any pulled index", packageName)
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadBucket, "bucket", "", i18n.T("cmd.download.flag.bucket"))
	downloadCmd.Flags().Int64Var(&downloadVersionCode, "vercode", 0, i18n.T("cmd.download.flag.vercode"))
	downloadCmd.Flags().BoolVar(&downloadForce, "force", false, i18n.T("cmd.download.flag.force"))
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/pkg/client"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: i18n.T("cmd.bucket.short"),
}

var bucketAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: i18n.T("cmd.bucket.add.short"),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}
		if err := cfg.AddBucket(args[0], args[1], args[0]); err != nil {
			return err
		}
		fmt.Println(i18n.T("cmd.bucket.add.done", map[string]interface{}{"Name": args[0]}))
		return nil
	},
}

var bucketRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: i18n.T("cmd.bucket.remove.short"),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}
		if err := cfg.RemoveBucket(args[0]); err != nil {
			return err
		}
		fmt.Println(i18n.T("cmd.bucket.remove.done", map[string]interface{}{"Name": args[0]}))
		return nil
	},
}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: i18n.T("cmd.bucket.list.short"),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}
		for name, bucket := range cfg.Buckets {
			state := " "
			if bucket.Enabled {
				state = "*"
			}
			fmt.Printf("%s %-20s %s\n", state, name, bucket.URL)
			if bucket.Fingerprint != "" {
				fmt.Printf("  %s\n", bucket.Fingerprint)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(bucketAddCmd)
	bucketCmd.AddCommand(bucketRemoveCmd)
	bucketCmd.AddCommand(bucketListCmd)
}

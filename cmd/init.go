package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/config"
	"github.com/ubuntupunk/muizedroid/internal/i18n"
)

// initCmd writes a commented configuration template
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: i18n.T("cmd.init.short"),
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "muizedroid.yml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Println(i18n.T("cmd.init.exists", map[string]interface{}{"Path": path}))
			return nil
		}

		if err := config.SaveTemplate(path); err != nil {
			return err
		}
		fmt.Println(i18n.T("cmd.init.written", map[string]interface{}{"Path": path}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

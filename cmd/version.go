package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/internal/version"
)

// versionCmd prints detailed build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: i18n.T("cmd.version.short"),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

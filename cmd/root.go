package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/internal/version"
)

var (
	configPath string
	langFlag   string
)

var rootCmd = &cobra.Command{
	Use:     "muizedroid",
	Short:   i18n.T("cmd.root.short"),
	Long:    i18n.T("cmd.root.long"),
	Version: version.Short(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if langFlag != "" {
			return i18n.Init(langFlag)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	_ = i18n.Init("")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "interface language")
}

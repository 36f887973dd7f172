package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/config"
	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/pkg/index"
	"github.com/ubuntupunk/muizedroid/pkg/repo"
)

var (
	updateArchive bool
	updatePretty  bool
	updateNoSign  bool
)

// updateCmd rebuilds and signs the repository indexes
var updateCmd = &cobra.Command{
	Use:   "update [dir]",
	Short: i18n.T("cmd.update.short"),
	Long:  i18n.T("cmd.update.long"),
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if updatePretty {
			cfg.Pretty = true
		}
		if updateNoSign {
			cfg.NoSign = true
		}

		rootDir := "."
		if len(args) > 0 {
			rootDir = args[0]
		}

		repository, err := repo.NewRepository(rootDir, cfg)
		if err != nil {
			return err
		}

		gateway := index.NewJarsignerGateway(cfg)

		sections := []bool{false}
		if updateArchive {
			sections = append(sections, true)
		}
		for _, archive := range sections {
			dir := repository.SectionDir(archive)
			fmt.Println(i18n.T("cmd.update.scanning", map[string]interface{}{"Dir": dir}))

			result, err := repository.Update(gateway, archive)
			if result != nil {
				fmt.Println(i18n.T("cmd.update.scanned", map[string]interface{}{
					"Apps":   len(result.Apps),
					"Builds": len(result.Builds),
				}))
				if len(result.Errors) > 0 {
					fmt.Println(i18n.T("cmd.update.scanErrors", map[string]interface{}{
						"Count": len(result.Errors),
					}))
					for _, scanErr := range result.Errors {
						fmt.Printf("  %v\n", scanErr)
					}
				}
			}
			if err != nil {
				return err
			}
			fmt.Println(i18n.T("cmd.update.done", map[string]interface{}{"Dir": dir}))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateArchive, "archive", false, i18n.T("cmd.update.flag.archive"))
	updateCmd.Flags().BoolVar(&updatePretty, "pretty", false, i18n.T("cmd.update.flag.pretty"))
	updateCmd.Flags().BoolVar(&updateNoSign, "nosign", false, i18n.T("cmd.update.flag.nosign"))
}

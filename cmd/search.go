package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ubuntupunk/muizedroid/internal/i18n"
	"github.com/ubuntupunk/muizedroid/pkg/client"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

var (
	searchBucket string
	searchLimit  int
	searchExact  bool
)

// searchCmd looks up applications in previously pulled indexes
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: i18n.T("cmd.search.short"),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.LoadConfig()
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.T("cmd.pull.errLoadConfig"), err)
		}

		indexes, err := loadCachedIndexes(cfg)
		if err != nil {
			return err
		}
		if len(indexes) == 0 {
			fmt.Println(i18n.T("cmd.search.noIndexes"))
			return nil
		}

		engine := client.NewSearchEngine(indexes)
		results, err := engine.Search(args[0], client.SearchOptions{
			Bucket: searchBucket,
			Limit:  searchLimit,
			Exact:  searchExact,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println(i18n.T("cmd.search.noResults"))
			return nil
		}
		for _, r := range results {
			fmt.Printf("%-40s %-24s %s\n", r.PackageName, r.AppName, r.Version)
		}
		return nil
	},
}

// loadCachedIndexes reads every pulled index from the cache directory,
// keyed by bucket name.
func loadCachedIndexes(cfg *client.Config) (map[string]*models.Index, error) {
	indexes := make(map[string]*models.Index)
	for name := range cfg.GetEnabledBuckets() {
		data, err := os.ReadFile(filepath.Join(cfg.Client.CacheDir, name+".index-v1.json"))
		if err != nil {
			continue // not pulled yet
		}
		index, err := client.Load(data)
		if err != nil {
			return nil, err
		}
		indexes[name] = index
	}
	return indexes, nil
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchBucket, "bucket", "", i18n.T("cmd.search.flag.bucket"))
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, i18n.T("cmd.search.flag.limit"))
	searchCmd.Flags().BoolVar(&searchExact, "exact", false, i18n.T("cmd.search.flag.exact"))
}

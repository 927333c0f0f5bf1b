package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/video-stream/signreel/internal/config"
	"github.com/video-stream/signreel/internal/storage"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "List the sign vocabulary in a media directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalog,
}

var (
	catalogMedia string
	catalogLimit int
	catalogJSON  bool
)

func init() {
	catalogCmd.Flags().StringVarP(&catalogMedia, "media", "m", "", "sign asset directory (default: $MEDIA_PATH)")
	catalogCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 0, "maximum number of entries (0 = all)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	if catalogMedia == "" {
		catalogMedia = config.Load().MediaPath
	}
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	cat, err := storage.BuildCatalog(catalogMedia)
	if err != nil {
		return err
	}
	assets := cat.Search(query, catalogLimit)
	_, hasFallback := cat.Fallback()

	if catalogJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"assets":       assets,
			"has_fallback": hasFallback,
		})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tKIND\tFILE")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Key, a.Kind, a.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !quiet {
		if !hasFallback {
			fmt.Fprintf(os.Stderr, "note: no %s in %s, unmatched words will be skipped\n", storage.FallbackName, cat.Dir())
		}
		fmt.Fprintf(os.Stderr, "%d entries (%d files scanned)\n", len(assets), cat.Len())
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector collection from the lesson corpus",
	Long: `Chunks every lesson, embeds the chunks and upserts them into the
vector collection. Safe to re-run: chunk IDs are deterministic, so a
repeat run fully replaces prior content.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	indexer, err := ensureIndexer()
	if err != nil {
		return err
	}

	report, err := indexer.Reindex(cmd.Context())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	if indexJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Indexed %d chunks from %d lessons into %q\n",
		report.ChunksIndexed, report.LessonsProcessed, report.Collection)
	return nil
}

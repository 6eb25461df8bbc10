package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the sample HNSW index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the sample index from the database and save it to HNSW_INDEX_PATH",
	Args:  cobra.NoArgs,
	RunE:  runIndexRebuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.svc.RebuildIndex(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d samples\n", n)
	if a.cfg.Database.HNSWIndexPath == "" {
		fmt.Println("HNSW_INDEX_PATH is not set, the index was not saved")
		return nil
	}
	a.saveSampleIndex()
	return nil
}

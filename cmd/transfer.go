package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/recall"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export people, samples and the attempt log as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON export",
	Long: `Import a JSON export into the database.
People whose ID already exists are skipped with their samples and attempts.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	importCmd.Flags().Bool("json", false, "Output the result as JSON")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	data, err := a.svc.Export(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}

	fmt.Printf("Exported %d people, %d unassigned samples and %d attempts to %s\n",
		len(data.People), len(data.Unassigned), len(data.Attempts), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading export file: %w", err)
	}
	var data database.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing export file: %w", err)
	}

	ctx := context.Background()
	a, err := setupApp(ctx, indexOnDemand)
	if err != nil {
		return err
	}
	defer a.close()

	jsonOutput := mustGetBool(cmd, "json")
	var (
		bar   *progressbar.ProgressBar
		phase string
	)
	onProgress := func(info recall.ProgressInfo) {
		if jsonOutput {
			return
		}
		if info.Phase != phase {
			if bar != nil {
				bar.Finish()
				fmt.Println()
			}
			phase = info.Phase
			bar = progressbar.NewOptions(info.Total,
				progressbar.OptionSetDescription("Importing "+info.Phase),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		bar.Set(info.Current)
	}

	result, err := a.svc.Import(ctx, &data, onProgress)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}
	a.saveSampleIndex()

	if jsonOutput {
		return outputJSON(result)
	}
	fmt.Printf("Imported %d people (%d skipped), %d samples and %d attempts\n",
		result.People, result.Skipped, result.Samples, result.Attempts)
	return nil
}

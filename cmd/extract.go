package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/cleaner"
	"github.com/sntry/leadgen-cli/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract business records from a directory listing page",
	Long: `Extract raw business records from saved HTML using the configured CSS
selectors. The output feeds into 'leadgen clean', or pass --clean to run the
cleaning stage directly.

Examples:
  # Extract raw records from a saved page
  leadgen extract --input page.html --url https://directory.example.com/kingston

  # Extract and clean in one pass
  leadgen extract --input page.html --url https://directory.example.com/kingston --clean`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("input", "", "HTML file to extract from (default: stdin)")
	f.String("url", "", "source URL recorded on each extracted record")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("clean", false, "clean the extracted records before output")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	sourceURL, _ := cmd.Flags().GetString("url")
	outputPath, _ := cmd.Flags().GetString("output")
	clean, _ := cmd.Flags().GetBool("clean")

	if sourceURL == "" {
		return eris.New("extract: --url is required")
	}

	r, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeIn() //nolint:errcheck

	extractor := extract.NewExtractor(extract.WithSelectors(cfg.Extract))
	records, err := extractor.Extract(r, sourceURL)
	if err != nil {
		return err
	}

	zap.L().Info("records extracted",
		zap.String("source_url", sourceURL),
		zap.Int("count", len(records)),
	)

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if !clean {
		return writeJSON(w, records)
	}

	cleaned, err := cleaner.CleanBatch(ctx, records)
	if err != nil {
		return err
	}
	return writeJSON(w, cleaned)
}

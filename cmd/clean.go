package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/cleaner"
	"github.com/sntry/leadgen-cli/internal/dedup"
	"github.com/sntry/leadgen-cli/internal/model"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean and normalize scraped business records",
	Long: `Clean raw business records: standardize names, format
phone numbers, normalize emails and websites, parse addresses, and compute a
completeness score per record. Records with neither a name nor an address are
dropped.

Examples:
  # Clean scraped records and write the result
  leadgen clean --input raw.json --output cleaned.json

  # Clean and persist to the configured store
  leadgen clean --input raw.json --save`,
	RunE: runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.String("input", "", "JSON (or .csv) file of raw business records (default: stdin JSON)")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "save cleaned records to the configured store")
	f.Bool("dedupe", false, "merge duplicate records after cleaning")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	dedupe, _ := cmd.Flags().GetBool("dedupe")

	r, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	var raws []model.BusinessRecord
	if strings.EqualFold(filepath.Ext(inputPath), ".csv") {
		raws, err = readRawCSV(r)
	} else {
		err = decodeJSON(r, &raws)
	}
	closeIn() //nolint:errcheck
	if err != nil {
		return err
	}

	cleaned, err := cleaner.CleanBatch(ctx, raws)
	if err != nil {
		return err
	}

	zap.L().Info("records cleaned",
		zap.Int("input", len(raws)),
		zap.Int("kept", len(cleaned)),
		zap.Int("dropped", len(raws)-len(cleaned)),
	)

	if dedupe {
		var merged int
		cleaned, merged = dedup.NewEngine().Dedupe(cleaned)
		fmt.Printf("Merged %d duplicate records, %d remaining\n", merged, len(cleaned))
	}

	if save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		saved, err := st.SaveBusinesses(ctx, cleaned)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %d records to %s store\n", saved, cfg.Store.Driver)
	}

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	return writeJSON(w, cleaned)
}

// readRawCSV reads raw business records from a header-keyed CSV export.
// Unrecognized columns are ignored.
func readRawCSV(r io.Reader) ([]model.BusinessRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "clean: read CSV header")
	}
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(col))
	}

	var raws []model.BusinessRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "clean: read CSV row")
		}

		var rec model.BusinessRecord
		for i, value := range row {
			if i >= len(header) {
				break
			}
			switch header[i] {
			case "name", "business_name":
				rec.Name = value
			case "category":
				rec.Category = value
			case "address", "raw_address":
				rec.RawAddress = value
			case "phone", "phone_number":
				rec.PhoneNumber = value
			case "email":
				rec.Email = value
			case "website":
				rec.Website = value
			case "description":
				rec.Description = value
			case "hours", "operating_hours":
				rec.OperatingHours = value
			case "rating":
				if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					rec.Rating = f
				}
			case "source_url":
				rec.SourceURL = value
			}
		}
		raws = append(raws, rec)
	}
	return raws, nil
}

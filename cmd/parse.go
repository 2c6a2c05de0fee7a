package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/addr"
)

var parseCmd = &cobra.Command{
	Use:   "parse [address ...]",
	Short: "Parse free-text Jamaican addresses into structured components",
	Long: `Parse free-text addresses into house number, street, PO box, city,
postal zone, parish, and country. Addresses are given as arguments or read
one per line from --input.

Examples:
  # Parse a single address
  leadgen parse "123 Main Street, Kingston 10, Jamaica"

  # Parse a file of addresses with validation and geocoding candidates
  leadgen parse --input addresses.txt --validate --geocode`,
	RunE: runParse,
}

func init() {
	f := parseCmd.Flags()
	f.String("input", "", "file of addresses, one per line (default: arguments)")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("validate", false, "include validation issues and completeness score")
	f.Bool("geocode", false, "include geocoding candidate strings")

	rootCmd.AddCommand(parseCmd)
}

// parseResult is the per-address output row.
type parseResult struct {
	Input      string             `json:"input"`
	Address    addr.ParsedAddress `json:"address"`
	Valid      *bool              `json:"valid,omitempty"`
	Issues     []string           `json:"issues,omitempty"`
	Score      *float64           `json:"completeness_score,omitempty"`
	Candidates []string           `json:"geocoding_candidates,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	validate, _ := cmd.Flags().GetBool("validate")
	geocode, _ := cmd.Flags().GetBool("geocode")

	texts := args
	if inputPath != "" {
		r, closeIn, err := openInput(inputPath)
		if err != nil {
			return err
		}
		texts, err = readLines(r)
		closeIn() //nolint:errcheck
		if err != nil {
			return err
		}
	}

	parsed, err := addr.StandardizeBatch(ctx, texts)
	if err != nil {
		return err
	}

	results := make([]parseResult, len(parsed))
	for i, pa := range parsed {
		res := parseResult{Input: texts[i], Address: pa}
		if validate {
			ok, issues := addr.Validate(pa)
			score := addr.CompletenessScore(pa)
			res.Valid = &ok
			res.Issues = issues
			res.Score = &score
		}
		if geocode {
			res.Candidates = addr.GeocodingCandidates(pa)
		}
		results[i] = res
	}

	zap.L().Info("addresses parsed", zap.Int("count", len(results)))

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	return writeJSON(w, results)
}

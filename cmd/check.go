package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/compliance"
)

var checkCmd = &cobra.Command{
	Use:   "check [url ...]",
	Short: "Check URLs against robots.txt and crawl policy",
	Long: `Check whether URLs may be scraped. A single URL yields one decision;
multiple URLs yield a session report with per-domain counts and
recommendations. robots.txt fetch failures deny scraping.

Examples:
  # Check one URL
  leadgen check https://www.example.com/businesses

  # Check a session of URLs from a file
  leadgen check --input urls.txt --output report.json`,
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.String("input", "", "file of URLs, one per line (default: arguments)")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(checkCmd)
}

func newGate() *compliance.Gate {
	fetcher := compliance.NewHTTPRobotsFetcher(
		compliance.WithFetchTimeout(time.Duration(cfg.Compliance.FetchTimeoutSecs)*time.Second),
		compliance.WithFetcherUserAgent(cfg.Compliance.UserAgent),
	)
	return compliance.NewGate(fetcher,
		compliance.WithTTL(time.Duration(cfg.Compliance.CacheTTLHours)*time.Hour),
		compliance.WithMinCrawlDelay(cfg.Compliance.MinCrawlDelaySecs),
		compliance.WithUserAgent(cfg.Compliance.UserAgent),
	)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")

	urls := args
	if inputPath != "" {
		r, closeIn, err := openInput(inputPath)
		if err != nil {
			return err
		}
		urls, err = readLines(r)
		closeIn() //nolint:errcheck
		if err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		return eris.New("check: no URLs given")
	}

	gate := newGate()

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	if len(urls) == 1 {
		decision := gate.CheckURL(ctx, urls[0])
		zap.L().Info("compliance check",
			zap.String("url", decision.URL),
			zap.Bool("allowed", decision.Allowed),
			zap.String("risk", string(decision.RiskLevel)),
		)
		return writeJSON(w, decision)
	}

	report := gate.CheckSession(ctx, urls)
	zap.L().Info("compliance session",
		zap.Int("total", report.TotalURLs),
		zap.Int("compliant", report.CompliantURLs),
		zap.Int("high_risk", report.HighRiskURLs),
		zap.Bool("overall_compliant", report.OverallCompliant),
	)
	return writeJSON(w, report)
}

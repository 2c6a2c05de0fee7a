package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/fusion"
	"github.com/sntry/leadgen-cli/internal/model"
	"github.com/sntry/leadgen-cli/internal/store"
	"github.com/sntry/leadgen-cli/pkg/crm"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Score cleaned records against CRM history and export ranked leads",
	Long: `Score cleaned business records into ranked sales leads. Relationship
history comes from a customer CSV export (--customers) or live Salesforce
lookups (--crm); without either, records are scored as unmatched prospects.

Examples:
  # Score a cleaned file and export CSV
  leadgen leads --input cleaned.json --customers customers.csv --format csv --output leads.csv

  # Score records already in the store, matched against Salesforce
  leadgen leads --from-store --city KINGSTON --crm --format xlsx --output leads.xlsx

  # Persist a scored run and push the top 20 leads to Salesforce
  leadgen leads --input cleaned.json --crm --save --push 20`,
	RunE: runLeads,
}

func init() {
	f := leadsCmd.Flags()
	f.String("input", "", "JSON file of cleaned records (default: stdin)")
	f.Bool("from-store", false, "load cleaned records from the configured store")
	f.String("city", "", "store filter: city")
	f.String("category", "", "store filter: category")
	f.Float64("min-completeness", 0, "store filter: minimum completeness score")
	f.Int("limit", 0, "store filter: maximum records")
	f.String("customers", "", "customer history CSV for offline matching")
	f.Bool("crm", false, "match against Salesforce contacts")
	f.String("format", "json", "output format: json, csv, or xlsx")
	f.String("output", "", "output file path (default: stdout)")
	f.Bool("save", false, "save the scored run to the configured store")
	f.String("run-id", "", "run identifier for --save (default: random UUID)")
	f.Int("push", 0, "push the top N leads to Salesforce (requires --crm)")

	rootCmd.AddCommand(leadsCmd)
}

func runLeads(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fromStore, _ := cmd.Flags().GetBool("from-store")
	customersPath, _ := cmd.Flags().GetString("customers")
	useCRM, _ := cmd.Flags().GetBool("crm")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	pushTop, _ := cmd.Flags().GetInt("push")

	if pushTop > 0 && !useCRM {
		return eris.New("leads: --push requires --crm")
	}

	var st store.Store
	if fromStore || save {
		var err error
		st, err = initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	records, err := loadLeadInput(ctx, cmd, st)
	if err != nil {
		return err
	}

	source, client, err := leadSource(customersPath, useCRM)
	if err != nil {
		return err
	}

	scorer, err := newLeadScorer(source)
	if err != nil {
		return err
	}

	leads, err := scorer.Score(ctx, records)
	if err != nil {
		return err
	}

	zap.L().Info("leads scored",
		zap.Int("records", len(records)),
		zap.Int("leads", len(leads)),
	)

	if save {
		runID, _ := cmd.Flags().GetString("run-id")
		if runID == "" {
			runID = uuid.New().String()
		}
		if err := st.SaveLeads(ctx, runID, leads); err != nil {
			return err
		}
		fmt.Printf("Saved run %s (%d leads)\n", runID, len(leads))
	}

	if pushTop > 0 {
		pushed, err := pushLeads(ctx, client, leads, pushTop)
		if err != nil {
			return err
		}
		fmt.Printf("Pushed %d leads to Salesforce\n", pushed)
	}

	w, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	return fusion.Export(w, leads, fusion.Format(format))
}

func loadLeadInput(ctx context.Context, cmd *cobra.Command, st store.Store) ([]model.CleanedBusinessRecord, error) {
	fromStore, _ := cmd.Flags().GetBool("from-store")
	if fromStore {
		city, _ := cmd.Flags().GetString("city")
		category, _ := cmd.Flags().GetString("category")
		minCompleteness, _ := cmd.Flags().GetFloat64("min-completeness")
		limit, _ := cmd.Flags().GetInt("limit")
		return st.ListBusinesses(ctx, store.BusinessFilter{
			City:            city,
			Category:        category,
			MinCompleteness: minCompleteness,
			Limit:           limit,
		})
	}

	inputPath, _ := cmd.Flags().GetString("input")
	r, closeIn, err := openInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer closeIn() //nolint:errcheck

	var records []model.CleanedBusinessRecord
	if err := decodeJSON(r, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// leadSource resolves the relationship source. The CRM client is non-nil only
// when --crm is set.
func leadSource(customersPath string, useCRM bool) (fusion.RelationshipSource, crm.Client, error) {
	if useCRM {
		client, err := initSalesforce()
		if err != nil {
			return nil, nil, err
		}
		return crm.NewSalesforceSource(client), client, nil
	}
	if customersPath != "" {
		source, err := crm.LoadMemorySource(customersPath)
		if err != nil {
			return nil, nil, err
		}
		return source, nil, nil
	}
	return nil, nil, nil
}

func newLeadScorer(source fusion.RelationshipSource) (*fusion.Scorer, error) {
	opts := []fusion.ScorerOption{
		fusion.WithWeights(cfg.Fusion.Weights),
		fusion.WithHalfLife(cfg.Fusion.HalfLifeDays),
	}
	if cfg.Fusion.CategoryWeightsFile != "" {
		weights, err := fusion.LoadCategoryWeights(cfg.Fusion.CategoryWeightsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fusion.WithCategoryWeights(weights))
	}
	return fusion.NewScorer(source, opts...), nil
}

// pushLeads inserts the top n unmatched leads as Salesforce Lead records.
// Matched leads already exist in the CRM and are skipped.
func pushLeads(ctx context.Context, client crm.Client, leads []model.LeadRecord, n int) (int, error) {
	pushed := 0
	for _, lead := range leads {
		if pushed >= n {
			break
		}
		if lead.MatchedCustomerID != "" {
			continue
		}
		b := lead.Business
		id, err := crm.PushLead(ctx, client, b.Name, b.Email, b.PhoneNumber, lead.LeadScore)
		if err != nil {
			return pushed, eris.Wrapf(err, "leads: push %q", b.Name)
		}
		zap.L().Info("lead pushed",
			zap.String("name", b.Name),
			zap.String("salesforce_id", id),
			zap.Float64("score", lead.LeadScore),
		)
		pushed++
	}
	return pushed, nil
}

package cleaner

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sntry/leadgen-cli/internal/model"
)

const batchConcurrency = 8

// CleanBatch cleans records in parallel, preserving input order in the
// output. Unsalvageable records are dropped with a debug log rather than
// failing the batch. On cancellation the already-cleaned records are
// returned with the context error.
func CleanBatch(ctx context.Context, raws []model.BusinessRecord) ([]model.CleanedBusinessRecord, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	results := make([]*model.CleanedBusinessRecord, len(raws))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(batchConcurrency)

	for i, raw := range raws {
		eg.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			cleaned := Clean(raw)
			if cleaned == nil {
				zap.L().Debug("cleaner: dropped unsalvageable record",
					zap.Int("index", i),
					zap.String("source_url", raw.SourceURL),
				)
				return nil
			}
			results[i] = cleaned
			return nil
		})
	}

	_ = eg.Wait()

	out := make([]model.CleanedBusinessRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

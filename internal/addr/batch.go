package addr

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds parallel parses in StandardizeBatch. Parsing is
// CPU-cheap; the limit mainly keeps goroutine churn down on huge batches.
const batchConcurrency = 8

// StandardizeBatch parses a batch of address strings in parallel, preserving
// input order. Unparsable entries (including empty ones) become best-effort
// UNKNOWN-city records instead of failing the batch, so the output is 1:1
// with the input. On cancellation the already-parsed prefix is returned with
// the context error; no partially constructed element is ever emitted.
func StandardizeBatch(ctx context.Context, texts []string) ([]ParsedAddress, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]ParsedAddress, len(texts))
	produced := make([]bool, len(texts))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(batchConcurrency)

	for i, text := range texts {
		eg.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			pa, err := Parse(text)
			if err != nil {
				zap.L().Debug("addr: batch element fell back to UNKNOWN",
					zap.Int("index", i),
					zap.Error(err),
				)
				pa = fallbackAddress()
			}
			results[i] = pa
			produced[i] = true
			return nil
		})
	}

	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		// Keep the contiguous produced prefix only.
		n := 0
		for n < len(produced) && produced[n] {
			n++
		}
		return results[:n], err
	}

	return results, nil
}

// fallbackAddress is the minimal valid record for unparsable input.
func fallbackAddress() ParsedAddress {
	pa := ParsedAddress{
		City:    UnknownCity,
		Country: DefaultCountry,
	}
	pa.FormattedAddress = Format(pa)
	return pa
}

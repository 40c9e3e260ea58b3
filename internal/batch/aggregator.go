// Package batch gathers the cases of a multi-case document.
package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/casedocs/internal/casefile"
	"github.com/a3tai/casedocs/internal/errors"
	"github.com/a3tai/casedocs/internal/logging"
)

// Fetcher loads one case with its child collections. A missing case is
// reported as an InputNotFound error.
type Fetcher interface {
	Get(ctx context.Context, id string) (casefile.Case, error)
}

// Batch is the input of a multi-case document
type Batch struct {
	Cases    []casefile.Case
	ListOnly bool
}

// Aggregator fetches cases concurrently and returns them in request order
type Aggregator struct {
	fetcher     Fetcher
	concurrency int
	logger      *zap.Logger
}

// NewAggregator creates an aggregator running at most concurrency fetches
// at a time.
func NewAggregator(fetcher Fetcher, concurrency int, logger *zap.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{fetcher: fetcher, concurrency: concurrency, logger: logging.OrNop(logger)}
}

// Collect fetches ids. Unknown ids are dropped; any other failure aborts the
// whole batch.
func (a *Aggregator) Collect(ctx context.Context, ids []string) ([]casefile.Case, error) {
	slots := make([]*casefile.Case, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			c, err := a.fetcher.Get(gctx, id)
			if err != nil {
				if errors.IsType(err, errors.ErrorTypeInputNotFound) {
					a.logger.Info("case not found, leaving it out of the batch", zap.String("case_id", id))
					return nil
				}
				return fmt.Errorf("fetch case %s: %w", id, err)
			}
			slots[i] = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cases := make([]casefile.Case, 0, len(ids))
	for _, c := range slots {
		if c != nil {
			cases = append(cases, *c)
		}
	}
	return cases, nil
}

// FromPayloads decodes already materialized case payloads in order
func FromPayloads(payloads []casefile.Record) []casefile.Case {
	cases := make([]casefile.Case, 0, len(payloads))
	for _, p := range payloads {
		cases = append(cases, casefile.DecodeCase(p))
	}
	return cases
}

// Items normalizes every case of the batch
func (b Batch) Items(n *casefile.Normalizer) []casefile.Item {
	items := make([]casefile.Item, 0, len(b.Cases))
	for _, c := range b.Cases {
		items = append(items, casefile.NewItem(n, c))
	}
	return items
}

package commits

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Fetcher performs one GET against a commit API endpoint and returns the
// raw JSON document.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (json.RawMessage, error)
}

type Aggregator struct {
	fetcher     Fetcher
	concurrency int
	logger      *logger.Logger
}

// NewAggregator creates an aggregator. concurrency <= 0 means one
// goroutine per endpoint.
func NewAggregator(fetcher Fetcher, concurrency int, logger *logger.Logger) *Aggregator {
	return &Aggregator{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logger.Component("commits/aggregator"),
	}
}

// Aggregate fetches commit history for every supported repository.
//
// ok is false when there is nothing to aggregate: repos is empty or none
// of its entries is a supported URL. Records follow the order of repos.
// Any single failed fetch fails the whole call with ErrUpstream.
func (a *Aggregator) Aggregate(ctx context.Context, repos []string) (records []domain.CommitRecord, ok bool, err error) {
	if len(repos) == 0 {
		return nil, false, nil
	}

	endpoints := Endpoints(repos)
	if len(endpoints) == 0 {
		a.logger.Debug("no supported repositories", "repos_count", len(repos))
		return nil, false, nil
	}

	records = make([]domain.CommitRecord, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}

	for i, endpoint := range endpoints {
		g.Go(func() error {
			payload, err := a.fetcher.Fetch(gctx, endpoint)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, endpoint, err)
			}
			records[i] = domain.CommitRecord{Endpoint: endpoint, Payload: payload}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Warn("commit aggregation failed",
			"endpoints_count", len(endpoints),
			"error", err,
		)
		return nil, false, err
	}

	a.logger.Debug("commit aggregation completed",
		"repos_count", len(repos),
		"endpoints_count", len(endpoints),
	)

	return records, true, nil
}

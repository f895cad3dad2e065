package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
)

// Source reads every row of the product table once.
type Source interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// FetchResult is either a row set or a failure. A nil Err with zero
// Products is a successful read of an empty table.
type FetchResult struct {
	Products []model.Product
	Err      error
}

// Failed reports whether the read failed.
func (r FetchResult) Failed() bool {
	return r.Err != nil
}

// Fetcher turns a Source into a FetchResult and never lets a failure escape.
type Fetcher struct {
	source  Source
	timeout time.Duration
}

func NewFetcher(source Source, timeout time.Duration) *Fetcher {
	return &Fetcher{source: source, timeout: timeout}
}

// Fetch reads the catalog once. The timeout bounds the whole read, also for
// sources whose client ignores ctx; a source still running past the deadline
// is abandoned and its result dropped.
func (f *Fetcher) Fetch(ctx context.Context) FetchResult {
	if f == nil || f.source == nil {
		return FetchResult{Err: errx.WrapCatalog(fmt.Errorf("no catalog source configured"))}
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan FetchResult, 1)
	go func() {
		done <- f.read(ctx)
	}()

	select {
	case res := <-done:
		if res.Failed() {
			logx.Error().Err(res.Err).Dur("elapsed", time.Since(start)).Msg("failed to fetch product catalog")
			return res
		}
		logx.Info().Int("products", len(res.Products)).Dur("elapsed", time.Since(start)).Msg("product catalog fetched")
		return res
	case <-ctx.Done():
		logx.Error().Err(ctx.Err()).Dur("elapsed", time.Since(start)).Msg("product catalog read timed out")
		return FetchResult{Err: errx.WrapCatalog(fmt.Errorf("catalog read: %w", ctx.Err()))}
	}
}

func (f *Fetcher) read(ctx context.Context) (result FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("catalog source panicked")
			result = FetchResult{Err: errx.WrapCatalog(fmt.Errorf("catalog source panic: %v", r))}
		}
	}()

	products, err := f.source.Products(ctx)
	if err != nil {
		return FetchResult{Err: errx.WrapCatalog(err)}
	}
	if products == nil {
		products = []model.Product{}
	}
	return FetchResult{Products: products}
}

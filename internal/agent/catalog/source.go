package catalog

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	pkgpostgrest "github.com/toko-tani/assistant/pkg/postgrest"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewSource builds the configured catalog source. Any error is an
// initialization failure; the returned Closer releases its connections.
func NewSource(ctx context.Context, cfg model.CatalogConfig) (Source, io.Closer, error) {
	if !tableName.MatchString(cfg.Table) {
		return nil, nil, errx.WrapInit(fmt.Errorf("invalid CATALOG_TABLE %q", cfg.Table))
	}

	switch cfg.Driver {
	case DriverPostgREST, "":
		pc := pkgpostgrest.Config{URL: cfg.SupabaseURL, Key: cfg.SupabaseKey}
		client, err := pc.New()
		if err != nil {
			return nil, nil, errx.WrapInit(fmt.Errorf("catalog: %w", err))
		}
		return NewPostgRESTSource(client, cfg.Table), nopCloser{}, nil
	case DriverPostgres:
		db, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errx.WrapInit(fmt.Errorf("catalog: %w", err))
		}
		return NewSQLSource(db, cfg.Table), db, nil
	default:
		return nil, nil, errx.WrapInit(fmt.Errorf("unknown CATALOG_DRIVER %q", cfg.Driver))
	}
}

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/toko-tani/assistant/internal/agent/model"
)

const productColumns = "nama_produk, kategori_produk, jenis_produk, harga, satuan_jual, stok, " +
	"deskripsi, fungsi_produk, peruntukan_produk, bahan_aktif, cara_aplikasi"

// SQLSource reads the product table straight from Postgres.
type SQLSource struct {
	db    *sql.DB
	table string
}

// OpenPostgres opens (and pings) a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("CATALOG_DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func NewSQLSource(db *sql.DB, table string) *SQLSource {
	if table == "" {
		table = "products"
	}
	return &SQLSource{db: db, table: table}
}

func (s *SQLSource) Products(ctx context.Context) ([]model.Product, error) {
	// table comes from configuration, never from a request
	query := fmt.Sprintf("SELECT %s FROM %s", productColumns, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var (
			p        model.Product
			price    decimal.Decimal
			optional [5]sql.NullString
		)
		if err := rows.Scan(&p.Name, &p.Category, &p.Subtype, &price, &p.Unit, &p.Stock,
			&optional[0], &optional[1], &optional[2], &optional[3], &optional[4]); err != nil {
			return nil, fmt.Errorf("scan %s row %d: %w", s.table, len(products)+1, err)
		}
		p.Price = price
		p.Description = optional[0].String
		p.Function = optional[1].String
		p.IntendedUse = optional[2].String
		p.ActiveIngredient = optional[3].String
		p.ApplicationHow = optional[4].String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", s.table, err)
	}
	return products, nil
}

var _ Source = (*SQLSource)(nil)

package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"github.com/toko-tani/assistant/internal/agent/model"
)

// PostgRESTSource reads the product table through Supabase's REST API.
type PostgRESTSource struct {
	client *postgrest.Client
	table  string
}

func NewPostgRESTSource(client *postgrest.Client, table string) *PostgRESTSource {
	if table == "" {
		table = "products"
	}
	return &PostgRESTSource{client: client, table: table}
}

// Products issues a single `select=*`. The postgrest client takes no
// context; the deadline is enforced by Fetcher.
func (s *PostgRESTSource) Products(ctx context.Context) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, _, err := s.client.From(s.table).Select("*", "", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.table, err)
	}

	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", s.table, err)
	}
	return products, nil
}

var _ Source = (*PostgRESTSource)(nil)

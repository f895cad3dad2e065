package postgrest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/supabase-community/postgrest-go"
)

// Config addresses a Supabase project's REST endpoint.
type Config struct {
	URL    string
	Key    string
	Schema string
}

// RestURL is the PostgREST root of a Supabase project URL.
func (c *Config) RestURL() (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if raw == "" {
		return "", fmt.Errorf("SUPABASE_URL is not set")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("SUPABASE_URL %q is not an absolute URL", c.URL)
	}
	if !strings.HasSuffix(u.Path, "/rest/v1") {
		u.Path += "/rest/v1"
	}
	return u.String(), nil
}

// New builds a client that authenticates with the project key.
func (c *Config) New() (*postgrest.Client, error) {
	if strings.TrimSpace(c.Key) == "" {
		return nil, fmt.Errorf("SUPABASE_KEY is not set")
	}
	restURL, err := c.RestURL()
	if err != nil {
		return nil, err
	}
	schema := c.Schema
	if schema == "" {
		schema = "public"
	}

	client := postgrest.NewClient(restURL, schema, map[string]string{
		"apikey":        c.Key,
		"Authorization": "Bearer " + c.Key,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("create postgrest client: %w", client.ClientError)
	}
	return client, nil
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// ================ Config ================
type ConversationConfig struct {
	Store string `envconfig:"CONVERSATION_STORE" default:"memory"`
	TTL   string `envconfig:"CONVERSATION_TTL" default:"30m"`
}

// ParseTTL returns the session lifetime. Zero disables expiry.
func (c ConversationConfig) ParseTTL() (time.Duration, error) {
	if strings.TrimSpace(c.TTL) == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", c.TTL, err)
	}
	return ttl, nil
}

type ResponseModelConfig struct {
	Model          string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2048"`
	Temperature    float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
	ThinkingBudget int32   `envconfig:"RESPONSE_THINKING_BUDGET" default:"0"`
}

// ExchangeMode selects whether prior turns are replayed to the model.
type ExchangeMode string

const (
	Stateless ExchangeMode = "stateless"
	Stateful  ExchangeMode = "stateful"
)

func ParseExchangeMode(v string) (ExchangeMode, error) {
	switch m := ExchangeMode(strings.ToLower(strings.TrimSpace(v))); m {
	case Stateless, Stateful:
		return m, nil
	case "":
		return Stateful, nil
	default:
		return "", fmt.Errorf("unknown exchange mode %q (want %q or %q)", v, Stateless, Stateful)
	}
}

type ExchangeConfig struct {
	Mode string `envconfig:"EXCHANGE_MODE" default:"stateful"`
	// Timeout bounds a single model call. Zero leaves the call unbounded.
	Timeout time.Duration `envconfig:"EXCHANGE_TIMEOUT" default:"0s"`
}

type CatalogConfig struct {
	Driver      string        `envconfig:"CATALOG_DRIVER" default:"postgrest"`
	SupabaseURL string        `envconfig:"SUPABASE_URL"`
	SupabaseKey string        `envconfig:"SUPABASE_KEY"`
	Table       string        `envconfig:"CATALOG_TABLE" default:"products"`
	DatabaseURL string        `envconfig:"CATALOG_DATABASE_URL"`
	Timeout     time.Duration `envconfig:"CATALOG_TIMEOUT" default:"15s"`
}

type ShopProfileConfig struct {
	Name    string `envconfig:"SHOP_NAME" default:"Toko Tani Suka Maju"`
	Address string `envconfig:"SHOP_ADDRESS" default:"Jl. Raya Pertanian No. 123, Desa Subur"`
	Hours   string `envconfig:"SHOP_HOURS" default:"Senin - Sabtu, 08:00 - 17:00 WIB"`
	Contact string `envconfig:"SHOP_CONTACT" default:"0812-3456-7890"`
}

func (c ShopProfileConfig) Profile() ShopProfile {
	return ShopProfile{Name: c.Name, Address: c.Address, Hours: c.Hours, Contact: c.Contact}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/toko-tani/assistant/internal/agent/catalog"
	"github.com/toko-tani/assistant/internal/agent/graph"
	"github.com/toko-tani/assistant/internal/agent/graph/prompts"
	"github.com/toko-tani/assistant/internal/agent/model"
	"github.com/toko-tani/assistant/internal/agent/repo"
	"github.com/toko-tani/assistant/internal/core"
	errx "github.com/toko-tani/assistant/internal/core/error"
	"github.com/toko-tani/assistant/internal/server"
	"github.com/toko-tani/assistant/internal/session"
	logx "github.com/toko-tani/assistant/pkg/logger"
	pkgredis "github.com/toko-tani/assistant/pkg/redis"
)

// AppConfig defines all configurable parameters of the shop assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	Response     model.ResponseModelConfig
	Exchange     model.ExchangeConfig
	Catalog      model.CatalogConfig
	Shop         model.ShopProfileConfig
	Conversation model.ConversationConfig
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", errx.WrapInit(err))
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("shop assistant stopped")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	ttl, err := cfg.Conversation.ParseTTL()
	if err != nil {
		return errx.WrapInit(err)
	}

	conversations, closeStore, err := newConversationRepo(ctx, cfg, ttl)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	source, closeCatalog, err := catalog.NewSource(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	defer closeCatalog.Close()

	// The shop context is built once; later catalog changes are not picked up.
	profile := cfg.Shop.Profile()
	fetched := catalog.NewFetcher(source, cfg.Catalog.Timeout).Fetch(ctx)
	if fetched.Failed() {
		logx.Warn().Err(fetched.Err).Msg("catalog unavailable, serving shop profile only")
	}
	shopContext := prompts.Synthesize(profile, fetched)

	runner, err := graph.BuildExchangeGraph(ctx, graph.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		ResponseModel:    cfg.Response,
		Exchange:         cfg.Exchange,
		ShopContext:      shopContext,
		ConversationRepo: conversations,
	})
	if err != nil {
		return errx.WrapInit(err)
	}

	sessions := session.NewManager(runner, conversations, profile, ttl)
	handler := server.NewHandler(sessions, profile, server.ShopStatus{
		CatalogAvailable: !fetched.Failed(),
		Products:         len(fetched.Products),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().
			Str("addr", srv.Addr).
			Str("mode", string(runner.Mode())).
			Str("store", cfg.Conversation.Store).
			Int("products", len(fetched.Products)).
			Msg("shop assistant listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newConversationRepo(ctx context.Context, cfg AppConfig, ttl time.Duration) (model.ConversationRepository, io.Closer, error) {
	switch cfg.Conversation.Store {
	case "memory", "":
		return repo.NewMemoryConversationRepository(), closerFunc(func() error { return nil }), nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, errx.WrapInit(fmt.Errorf("conversation store: %w", err))
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisConversationRepository(rdb, ttl), rdb, nil
	default:
		return nil, nil, errx.WrapInit(fmt.Errorf("unknown CONVERSATION_STORE %q", cfg.Conversation.Store))
	}
}

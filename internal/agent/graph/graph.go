package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/toko-tani/assistant/internal/agent/graph/conversations"
	"github.com/toko-tani/assistant/internal/agent/graph/nodes"
	"github.com/toko-tani/assistant/internal/agent/graph/observers"
	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

// Runner executes one exchange: the user turn goes in, the assistant text comes out.
type Runner interface {
	Invoke(ctx context.Context, in model.ExchangeInput) (string, error)
	Mode() model.ExchangeMode
}

// Config holds everything needed to compose the exchange graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// Gemini chat model and the MessagesManager.
type Config struct {
	APIKey           string
	BaseURL          string
	ResponseModel    model.ResponseModelConfig
	Exchange         model.ExchangeConfig
	ShopContext      string
	ConversationRepo model.ConversationRepository
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel       einomodel.BaseChatModel
	ModelName       string
	MessagesManager *conversations.MessagesManager
	// ShopContext is bound once as the system instruction of every call.
	ShopContext string
}

type graphRunner struct {
	runnable compose.Runnable[model.ExchangeInput, *schema.Message]
	mode     model.ExchangeMode
	timeout  time.Duration
}

func (r *graphRunner) Mode() model.ExchangeMode {
	return r.mode
}

func (r *graphRunner) Invoke(ctx context.Context, in model.ExchangeInput) (string, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return "", errx.BadRequest("session id is required")
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", errx.BadRequest("message text is required")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", errx.WrapModel(err)
	}
	if out == nil {
		return "", errx.WrapModel(nodes.ErrEmptyReply)
	}
	return out.Content, nil
}

// BuildExchangeGraph creates the chat model and MessagesManager, builds the graph, and returns a Runner.
func BuildExchangeGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	mode, err := model.ParseExchangeMode(cfg.Exchange.Mode)
	if err != nil {
		return nil, err
	}

	chatModel, err := nodes.NewResponseChatModel(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		RespConfig: &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	return NewRunner(ctx, &GraphConfig{
		ChatModel:       chatModel,
		ModelName:       cfg.ResponseModel.Model,
		MessagesManager: conversations.NewMessagesManager(cfg.ConversationRepo, mode),
		ShopContext:     cfg.ShopContext,
	}, cfg.Exchange.Timeout)
}

// NewRunner compiles the graph around an already built chat model.
func NewRunner(ctx context.Context, config *GraphConfig, timeout time.Duration) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	logx.Debug().Str("mode", string(config.MessagesManager.Mode())).Msg("Exchange graph built successfully")
	return &graphRunner{runnable: runnable, mode: config.MessagesManager.Mode(), timeout: timeout}, nil
}

// BuildGraph constructs and returns the compiled exchange graph:
// START -> InputConverter -> ResponseChatModel -> END.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.ExchangeInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if strings.TrimSpace(config.ShopContext) == "" {
		return nil, fmt.Errorf("shop context is empty")
	}

	g := compose.NewGraph[model.ExchangeInput, *schema.Message](
		compose.WithGenLocalState(func(ctx context.Context) *model.ExchangeState {
			return &model.ExchangeState{}
		}),
	)

	if err := g.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(config.MessagesManager, config.ShopContext),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	); err != nil {
		return nil, fmt.Errorf("add input converter node: %w", err)
	}

	if err := g.AddChatModelNode(nodes.NodeResponseChatModel,
		config.ChatModel,
		compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(config.MessagesManager, config.ModelName)),
	); err != nil {
		return nil, fmt.Errorf("add response chat model node: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeResponseChatModel},
		{nodes.NodeResponseChatModel, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	return runnable, nil
}

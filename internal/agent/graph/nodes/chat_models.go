package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/toko-tani/assistant/internal/agent/model"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	RespConfig *model.ResponseModelConfig
}

// NewResponseChatModel creates the Gemini chat model that answers customers.
func NewResponseChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if config.RespConfig == nil || config.RespConfig.Model == "" {
		return nil, fmt.Errorf("response model is not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	geminiCfg := &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
	}
	if config.RespConfig.MaxTokens > 0 {
		geminiCfg.MaxTokens = &config.RespConfig.MaxTokens
	}
	if config.RespConfig.ThinkingBudget > 0 {
		geminiCfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.RespConfig.ThinkingBudget),
		}
	}

	chatModel, err := gemini.NewChatModel(ctx, geminiCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Response model")
		return nil, fmt.Errorf("error creating Response model: %w", err)
	}

	logx.Debug().Str("model", config.RespConfig.Model).Msg("Response chat model ready")
	return chatModel, nil
}

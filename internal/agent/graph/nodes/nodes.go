package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/toko-tani/assistant/internal/agent/graph/conversations"
	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

const (
	NodeInputConverter    = "InputConverter"
	NodeResponseChatModel = "ResponseChatModel"
)

// ErrEmptyReply is returned when the completion endpoint answers without text.
var ErrEmptyReply = errors.New("completion endpoint returned no text")

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.ExchangeInput, *model.ExchangeState) (model.ExchangeInput, error) {
	return func(ctx context.Context, in model.ExchangeInput, s *model.ExchangeState) (model.ExchangeInput, error) {
		s.SessionID = in.SessionID
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode records the user turn and builds the model input
// around the shop context fixed at build time.
func NewInputConverterNode(mm *conversations.MessagesManager, systemContext string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.ExchangeInput) ([]*schema.Message, error) {
		messages, err := mm.ProcessUserMessage(ctx, input.SessionID, input.Query, systemContext)
		if err != nil {
			return nil, fmt.Errorf("error building exchange input: %w", err)
		}
		logx.Debug().
			Str("session_id", input.SessionID).
			Str("mode", string(mm.Mode())).
			Int("messages", len(messages)).
			Msg("Exchange input assembled")
		return messages, nil
	})
}

// NewResponseChatModelPostHandler logs usage cost and records the assistant
// turn. Nothing is recorded when the reply is empty.
func NewResponseChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.ExchangeState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ExchangeState) (*schema.Message, error) {
		if out == nil || strings.TrimSpace(out.Content) == "" {
			logx.Warn().Str("session_id", state.SessionID).Msg("Empty reply from completion endpoint")
			return nil, errx.WrapModel(ErrEmptyReply)
		}

		if out.ResponseMeta != nil {
			if cost, ok := model.ComputeCost(modelName, out.ResponseMeta.Usage); ok {
				state.TotalCostUSD += cost.TotalCost
				if out.Extra == nil {
					out.Extra = map[string]any{}
				}
				out.Extra["usage_cost"] = cost
				logx.Debug().
					Str("session_id", state.SessionID).
					Str("node", NodeResponseChatModel).
					Str("model", modelName).
					Int("prompt_tokens", cost.PromptTokens).
					Int("completion_tokens", cost.CompletionTokens).
					Int("total_tokens", cost.TotalTokens).
					Float64("total_cost_usd", cost.TotalCost).
					Msg("LLM usage")
			}
		}

		if err := mm.SaveResponse(ctx, state.SessionID, out.Content); err != nil {
			logx.Error().
				Str("session_id", state.SessionID).
				Err(err).
				Msg("Error saving assistant response")
			return nil, fmt.Errorf("save assistant turn: %w", err)
		}
		return out, nil
	}
}

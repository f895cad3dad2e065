package observers

import (
	"context"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/toko-tani/assistant/pkg/logger"
)

type startKey struct{}

// newModelHandler logs each completion call: the shape of the input
// (system context size, replayed turns) on start, the reply on end.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", info.Name).Str("type", info.Type)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).
					Int("system_chars", systemChars(input.Messages)).
					Int("replayed_turns", replayedTurns(input.Messages)).
					Str("user", lastUserContent(input.Messages))
			}
			ev.Msg("model call start")
			return context.WithValue(ctx, startKey{}, time.Now())
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			ev := logx.Debug().Str("component", info.Name)
			if start, ok := ctx.Value(startKey{}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(start))
			}
			if output != nil && output.Message != nil {
				ev = ev.Int("reply_chars", len(strings.TrimSpace(output.Message.Content)))
			}
			if output != nil && output.TokenUsage != nil {
				ev = ev.Int("total_tokens", output.TokenUsage.TotalTokens)
			}
			ev.Msg("model call end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", info.Name).Msg("model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func systemChars(msgs []*schema.Message) int {
	n := 0
	for _, m := range msgs {
		if m != nil && m.Role == schema.System {
			n += len(m.Content)
		}
	}
	return n
}

// replayedTurns counts the history sent ahead of the live user message.
func replayedTurns(msgs []*schema.Message) int {
	n := 0
	for _, m := range msgs {
		if m != nil && (m.Role == schema.User || m.Role == schema.Assistant) {
			n++
		}
	}
	if n > 0 {
		n--
	}
	return n
}

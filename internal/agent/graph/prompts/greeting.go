package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/toko-tani/assistant/internal/agent/model"
)

//go:embed template/greeting.txt
var greetingTemplate string

//go:embed template/shop_info_prompt.txt
var shopInfoPrompt string

// ShopInfoPrompt is the canned question behind the "shop info" shortcut.
func ShopInfoPrompt() string {
	return shopInfoPrompt
}

// RenderGreeting renders the assistant greeting shown when a session opens.
// It goes through an Eino prompt component so prompt callbacks fire.
func RenderGreeting(ctx context.Context, profile model.ShopProfile) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.AssistantMessage(greetingTemplate, nil),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"ShopName": profile.Name,
	})
	if err != nil {
		return "", fmt.Errorf("greeting render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("greeting render: empty result")
	}
	return msgs[0].Content, nil
}

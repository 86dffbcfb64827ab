package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
)

var errNoChoices = errors.New("no choices in completion response")

// Complete implements llm.ChatClient. Text requests ask for a JSON object and
// carry the schema as an extra system message; vision requests send the prompt
// and the image as one multi-part user message.
func (c *Client) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	messages := make([]map[string]any, 0, len(req.System)+2)
	for _, s := range req.System {
		messages = append(messages, map[string]any{"role": "system", "content": s})
	}
	if req.ImageDataURL != "" {
		messages = append(messages, map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": req.User},
				{"type": "image_url", "image_url": map[string]any{"url": req.ImageDataURL}},
			},
		})
	} else {
		messages = append(messages, map[string]any{"role": "user", "content": req.User})
	}
	if req.Schema != nil && req.ImageDataURL == "" {
		messages = append(messages, map[string]any{"role": "system", "content": "JSON Schema:\n" + mustJSON(req.Schema)})
	}

	body := map[string]any{
		"model":       model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	if req.JSONObject {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.complete.decode_error", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices", "raw", string(raw))
		return "", errNoChoices
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

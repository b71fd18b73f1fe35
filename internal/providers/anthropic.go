package providers

import (
	"context"

	"github.com/abdul-mstfa/projectgen/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// jsonModeInstruction is appended to the system prompt when a caller asks for
// JSON mode, since the Messages API has no response_format switch.
const jsonModeInstruction = "Respond with a single JSON object and nothing else. Do not wrap it in a code fence."

// AnthropicClient implements engine.LLMClient on top of the Anthropic SDK.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// Chat implements engine.LLMClient.Chat.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}

	systemParts, anthropicMsgs := toAnthropicMessages(messages)
	if opts.JSONMode {
		systemParts = append(systemParts, anthropic.MessageSystemPart{Type: "text", Text: jsonModeInstruction})
	}

	maxTokens := engine.DefaultMaxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}
	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(modelName),
		Messages:    anthropicMsgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}

	finishReason := "stop"
	if resp.StopReason == anthropic.MessagesStopReasonMaxTokens {
		finishReason = "length"
	}

	return engine.LLMResponse{
		Assistant: engine.AssistantMessage(text),
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: finishReason,
	}, nil
}

// toAnthropicMessages splits history into system blocks and turns. System
// turns become system blocks in order. The Messages API wants the first turn
// to come from the user, so assistant turns before it (the greeting) are
// folded into the system blocks as well.
func toAnthropicMessages(messages []engine.ChatMessage) ([]anthropic.MessageSystemPart, []anthropic.Message) {
	var systemParts []anthropic.MessageSystemPart
	var msgs []anthropic.Message
	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{Type: "text", Text: msg.Content})
		case engine.RoleUser:
			msgs = append(msgs, anthropic.NewUserTextMessage(msg.Content))
		case engine.RoleAssistant:
			if msg.Content == "" {
				continue
			}
			if len(msgs) == 0 {
				systemParts = append(systemParts, anthropic.MessageSystemPart{Type: "text", Text: "You opened the conversation with: " + msg.Content})
				continue
			}
			msgs = append(msgs, anthropic.NewAssistantTextMessage(msg.Content))
		}
	}
	return systemParts, msgs
}

// Package tools provides the chat-completions client that drives the agent
// loop, plus registration helpers for the per-venue tool packages.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/k-dang/finny/core"
)

// ChatConfig configures the OpenAI-compatible chat backend.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ChatClient talks to an OpenAI-compatible chat-completions endpoint and
// runs the tool-call loop against a core.ToolRegistry.
type ChatClient struct {
	cfg        ChatConfig
	httpClient *http.Client
}

// NewChatClient creates a chat client. Zero config fields take defaults.
func NewChatClient(cfg ChatConfig) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ChatClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ChatMessage is one turn in a conversation, wire-compatible with the
// chat-completions API.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolDefinition struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []ChatMessage    `json:"messages"`
	Tools       []toolDefinition `json:"tools,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// maxToolRounds bounds how many tool-call rounds one Chat call may take
// before the loop is cut off.
const maxToolRounds = 8

// Chat sends the conversation to the model, resolves any tool calls through
// the registry, and returns the final assistant message plus the full updated
// history.
func (c *ChatClient) Chat(ctx context.Context, registry *core.ToolRegistry, history []ChatMessage) (string, []ChatMessage, error) {
	defs := toolDefinitions(registry)

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.complete(ctx, history, defs)
		if err != nil {
			return "", history, err
		}

		msg := resp.Choices[0].Message
		history = append(history, msg)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, history, nil
		}

		for _, call := range msg.ToolCalls {
			result := registry.Invoke(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
			history = append(history, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    renderResult(result),
			})
		}
	}

	return "", history, fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func (c *ChatClient) complete(ctx context.Context, messages []ChatMessage, defs []toolDefinition) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Tools:       defs,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("llm api error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}
	return &parsed, nil
}

// toolDefinitions converts registered tools to the wire tool format.
func toolDefinitions(registry *core.ToolRegistry) []toolDefinition {
	tools := registry.List()
	defs := make([]toolDefinition, 0, len(tools))
	for _, t := range tools {
		var def toolDefinition
		def.Type = "function"
		def.Function.Name = t.Name()
		def.Function.Description = t.Description()
		def.Function.Parameters = t.InputSchema()
		defs = append(defs, def)
	}
	return defs
}

// renderResult flattens a tool result into the text content the model sees.
func renderResult(result *core.ToolExecResult) string {
	if result.Status != core.ToolComplete {
		return fmt.Sprintf("error: %s", result.Error)
	}
	data, err := json.Marshal(result.Output)
	if err != nil {
		return fmt.Sprintf("error: marshal output: %v", err)
	}
	return string(data)
}

// Package core provides minimal framework types for agent tool execution:
// a Tool interface, execution context and results, and a policy-aware
// registry.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tool execution status constants.
const (
	ToolComplete = "complete"
	ToolFailed   = "failed"
	ToolCanceled = "canceled"
)

// Tool is a callable capability exposed to the chat loop. Tools must be safe
// for concurrent use.
type Tool interface {
	Name() string
	Description() string
	InputSchema() []byte
	Execute(tc *ToolContext) *ToolExecResult
}

// ToolContext carries context for tool execution.
type ToolContext struct {
	Ctx     context.Context
	Request *Message
}

// ToolExecResult is the result of a tool execution.
type ToolExecResult struct {
	Status   string         `json:"status"`
	Output   interface{}    `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Message represents a message in the agent loop.
type Message struct {
	Role    string              `json:"role,omitempty"`
	Content string              `json:"content,omitempty"`
	ToolReq *ToolRequestPayload `json:"tool_req,omitempty"`
}

// ToolRequestPayload holds tool invocation data.
type ToolRequestPayload struct {
	Name     string          `json:"name,omitempty"`
	Input    any             `json:"input,omitempty"`
	InputRaw json.RawMessage `json:"input_raw,omitempty"`
}

// ToolPolicy defines timeout and rate limiting for a tool.
type ToolPolicy struct {
	DefaultTimeout  time.Duration `json:"default_timeout"`
	RateLimitPerSec float64       `json:"rate_limit_per_sec"`
	Burst           int           `json:"burst"`
	LimitKey        string        `json:"limit_key"`
}

// ReadOnlyPolicy is the shared policy for unauthenticated market-data tools.
func ReadOnlyPolicy(limitKey string) ToolPolicy {
	return ToolPolicy{
		DefaultTimeout:  30 * time.Second,
		RateLimitPerSec: 5.0,
		Burst:           10,
		LimitKey:        limitKey,
	}
}

// ToolRegistry indexes tools by name along with their policies.
type ToolRegistry struct {
	order []string
	tools map[string]registeredTool
}

type registeredTool struct {
	tool   Tool
	policy ToolPolicy
}

// NewToolRegistry creates a new tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]registeredTool)}
}

// Register adds a tool with its policy. Re-registering a name replaces the
// earlier entry.
func (r *ToolRegistry) Register(tool Tool, policy ToolPolicy) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = registeredTool{tool: tool, policy: policy}
}

// Get returns the tool registered under name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.tool, true
}

// List returns all registered tools in registration order.
func (r *ToolRegistry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].tool)
	}
	return out
}

// Invoke runs a named tool with its policy timeout applied. Each invocation
// gets a unique ID recorded in the result metadata.
func (r *ToolRegistry) Invoke(ctx context.Context, name string, inputRaw json.RawMessage) *ToolExecResult {
	rt, ok := r.tools[name]
	if !ok {
		return &ToolExecResult{
			Status: ToolFailed,
			Error:  fmt.Sprintf("unknown tool: %s", name),
		}
	}

	if rt.policy.DefaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.policy.DefaultTimeout)
		defer cancel()
	}

	invocationID := uuid.NewString()
	result := rt.tool.Execute(&ToolContext{
		Ctx: ctx,
		Request: &Message{
			Role:    "tool",
			ToolReq: &ToolRequestPayload{Name: name, InputRaw: inputRaw},
		},
	})
	if result == nil {
		result = &ToolExecResult{Status: ToolFailed, Error: "tool returned no result"}
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["invocation_id"] = invocationID
	return result
}

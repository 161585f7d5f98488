package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/adriansikora/voxa-core/core/realtime"
)

// Tool is a named callable exposed to the model. Parameters carry the JSON
// schema advertised in the session configuration; execute receives the raw
// argument JSON the model produced.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema

	execute func(ctx context.Context, arguments string) (string, error)
}

// NewTool builds a tool whose parameter schema is reflected from T. The
// handler's return value is marshalled as the tool output; a nil result maps
// to {"success": true} so the model always sees a well-formed outcome.
func NewTool[T any](name, description string, handler func(ctx context.Context, params T) (any, error)) Tool {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(new(T))
	schema.Version = ""

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		execute: func(ctx context.Context, arguments string) (string, error) {
			var params T
			if err := json.Unmarshal([]byte(arguments), &params); err != nil {
				return "", fmt.Errorf("unmarshalling tool arguments: %w", err)
			}

			result, err := handler(ctx, params)
			if err != nil {
				return "", err
			}
			if result == nil {
				result = map[string]any{"success": true}
			}

			out, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("marshalling tool result: %w", err)
			}
			return string(out), nil
		},
	}
}

// toolRegistry holds the tools the model may call, keyed by name.
type toolRegistry struct {
	mu    sync.Mutex
	tools map[string]Tool
}

func newToolRegistry() *toolRegistry {
	return &toolRegistry{tools: map[string]Tool{}}
}

func (r *toolRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[tool.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Definitions returns the wire-format tool declarations for the session
// configuration, in no particular order.
func (r *toolRegistry) Definitions() []realtime.ToolDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]realtime.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, realtime.ToolDefinition{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return defs
}

// Dispatch runs the named tool and always returns a JSON output string: the
// handler's result on success, or a structured failure describing what went
// wrong. The conversation never stalls on a broken tool call.
func (r *toolRegistry) Dispatch(ctx context.Context, name, arguments string) string {
	r.mu.Lock()
	tool, ok := r.tools[name]
	r.mu.Unlock()

	if !ok {
		logger.WarnContext(ctx, "model called a tool that is not registered",
			"tool", name)
		return failureOutput(fmt.Errorf("%w: %q", ErrUnknownTool, name))
	}

	out, err := tool.execute(ctx, arguments)
	if err != nil {
		logger.WarnContext(ctx, "tool call failed",
			"tool", name, "err", err)
		return failureOutput(err)
	}
	return out
}

func failureOutput(err error) string {
	out, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"tool call failed"}`
	}
	return string(out)
}

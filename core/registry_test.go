package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type echoParams struct {
	Message string `json:"message"`
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := newToolRegistry()

	tool := NewTool("echo", "echoes the message back",
		func(ctx context.Context, params echoParams) (any, error) {
			return map[string]string{"message": params.Message}, nil
		})

	if err := registry.Register(tool); err != nil {
		t.Fatalf("expected first registration to succeed, got %v", err)
	}
	err := registry.Register(tool)
	if !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected duplicate registration to fail with ErrDuplicateTool, got %v", err)
	}
}

func TestRegistryDispatchRunsHandler(t *testing.T) {
	registry := newToolRegistry()
	registry.Register(NewTool("echo", "echoes the message back",
		func(ctx context.Context, params echoParams) (any, error) {
			return map[string]string{"message": params.Message}, nil
		}))

	out := registry.Dispatch(context.Background(), "echo", `{"message":"hi"}`)

	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result["message"] != "hi" {
		t.Fatalf("expected echoed message, got %q", out)
	}
}

func TestRegistryDispatchNilResultReportsSuccess(t *testing.T) {
	registry := newToolRegistry()
	registry.Register(NewTool("noop", "does nothing",
		func(ctx context.Context, params struct{}) (any, error) {
			return nil, nil
		}))

	out := registry.Dispatch(context.Background(), "noop", `{}`)

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result["success"] != true {
		t.Fatalf("expected success marker for nil result, got %q", out)
	}
}

func TestRegistryDispatchUnknownToolProducesFailureOutput(t *testing.T) {
	registry := newToolRegistry()

	out := registry.Dispatch(context.Background(), "missing", `{}`)

	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result["error"] == "" {
		t.Fatalf("expected structured failure for unknown tool, got %q", out)
	}
}

func TestRegistryDispatchHandlerErrorProducesFailureOutput(t *testing.T) {
	registry := newToolRegistry()
	registry.Register(NewTool("broken", "always fails",
		func(ctx context.Context, params struct{}) (any, error) {
			return nil, errors.New("downstream unavailable")
		}))

	out := registry.Dispatch(context.Background(), "broken", `{}`)

	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result["error"] != "downstream unavailable" {
		t.Fatalf("expected handler error in failure output, got %q", out)
	}
}

func TestRegistryDispatchMalformedArgumentsProducesFailureOutput(t *testing.T) {
	registry := newToolRegistry()
	registry.Register(NewTool("echo", "echoes the message back",
		func(ctx context.Context, params echoParams) (any, error) {
			return map[string]string{"message": params.Message}, nil
		}))

	out := registry.Dispatch(context.Background(), "echo", `{not json`)

	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if result["error"] == "" {
		t.Fatalf("expected structured failure for malformed arguments, got %q", out)
	}
}

func TestRegistryDefinitionsCarrySchema(t *testing.T) {
	registry := newToolRegistry()
	registry.Register(NewTool("echo", "echoes the message back",
		func(ctx context.Context, params echoParams) (any, error) {
			return nil, nil
		}))

	defs := registry.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected one definition, got %d", len(defs))
	}
	def := defs[0]
	if def.Type != "function" || def.Name != "echo" {
		t.Fatalf("unexpected definition header: %+v", def)
	}
	if def.Parameters == nil {
		t.Fatalf("expected a reflected parameter schema")
	}

	raw, err := json.Marshal(def.Parameters)
	if err != nil {
		t.Fatalf("expected schema to marshal, got %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("expected schema JSON, got %v", err)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected reflected properties, got %v", schema)
	}
	if _, ok := props["message"]; !ok {
		t.Fatalf("expected message property in schema, got %v", props)
	}
}

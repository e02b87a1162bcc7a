package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/modelprobe/modelprobe/internal/config"
	"github.com/tidwall/gjson"
)

// mockTransport is a fixed in-memory Transport. It classifies chat completion
// payloads by their feature markers so each probe can be scripted
// independently.
type mockTransport struct {
	mu    sync.Mutex
	calls []string

	chatData []byte
	chatErr  error

	functionsData []byte
	functionsErr  error

	structuredJSON string
	structuredErr  error

	visionData []byte
	visionErr  error

	models  []string
	listErr error
}

func (m *mockTransport) classify(payload []byte) string {
	switch {
	case gjson.GetBytes(payload, "tools").Exists():
		return "functions"
	case gjson.GetBytes(payload, "response_format").Exists():
		return "structured"
	case gjson.GetBytes(payload, "messages.0.content").IsArray():
		return "vision"
	default:
		return "chat"
	}
}

func (m *mockTransport) record(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, kind)
}

func (m *mockTransport) ChatCompletion(_ context.Context, payload []byte) ([]byte, error) {
	kind := m.classify(payload)
	m.record(kind)
	switch kind {
	case "functions":
		return m.functionsData, m.functionsErr
	case "vision":
		return m.visionData, m.visionErr
	default:
		return m.chatData, m.chatErr
	}
}

func (m *mockTransport) ChatCompletionParse(_ context.Context, payload []byte, target any) ([]byte, error) {
	m.record("structured")
	if m.structuredErr != nil {
		return nil, m.structuredErr
	}
	if err := json.Unmarshal([]byte(m.structuredJSON), target); err != nil {
		return nil, err
	}
	return nil, nil
}

func (m *mockTransport) ListModels(context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.models, nil
}

func (m *mockTransport) APIBase() string { return "https://mock.internal/v1" }

func message(content string) []byte {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return data
}

func fullSupportTransport() *mockTransport {
	return &mockTransport{
		chatData: message("Hello!"),
		functionsData: []byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[` +
			`{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"Paris\"}"}}]}}]}`),
		structuredJSON: `{"name":"Science Fair","date":"Friday","participants":["Alice","Bob"]}`,
		visionData:     message("A white square."),
	}
}

func TestProbeModelFullSupportExceptVision(t *testing.T) {
	transport := fullSupportTransport()
	transport.visionData = nil
	transport.visionErr = errors.New("Vision not supported")

	engine := NewEngine(transport, config.Default())
	result := engine.ProbeModel(context.Background(), "gpt-4")

	caps := result.Capabilities
	if !caps.SupportsChat || !caps.SupportsFunctionCalling || !caps.SupportsStructuredOutput {
		t.Fatalf("capabilities = %+v, want chat/functions/structured supported", caps)
	}
	if caps.SupportsVision {
		t.Fatal("vision should not be supported")
	}
	if len(caps.Details) != 4 {
		t.Fatalf("details blocks = %d, want 4", len(caps.Details))
	}

	joined := strings.Join(caps.Details, "\n")
	for _, want := range []string{"content='Hello!'", "get_weather", "Science Fair", "Vision not supported"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("details missing %q:\n%s", want, joined)
		}
	}

	// Blocks are assembled in fixed probe order regardless of completion order.
	for i, prefix := range []string{"Chat: ", "Functions: ", "Structured Output: ", "Vision: "} {
		if !strings.HasPrefix(caps.Details[i], prefix) {
			t.Fatalf("details[%d] = %q, want prefix %q", i, caps.Details[i], prefix)
		}
	}

	if result.ModelID != "gpt-4" {
		t.Fatalf("model id = %q", result.ModelID)
	}
	if result.APIBase != "https://mock.internal/v1" {
		t.Fatalf("api base = %q", result.APIBase)
	}
}

func TestProbeModelChatFailureShortCircuits(t *testing.T) {
	transport := fullSupportTransport()
	transport.chatData = nil
	transport.chatErr = errors.New("Chat not supported")

	engine := NewEngine(transport, config.Default())
	result := engine.ProbeModel(context.Background(), "broken-model")

	caps := result.Capabilities
	if caps.SupportsChat || caps.SupportsFunctionCalling || caps.SupportsStructuredOutput || caps.SupportsVision {
		t.Fatalf("all flags should be false, got %+v", caps)
	}
	if len(caps.Details) != 1 {
		t.Fatalf("details blocks = %d, want exactly 1", len(caps.Details))
	}
	if !strings.Contains(caps.Details[0], "Chat not supported") {
		t.Fatalf("details[0] = %q, should carry the chat error", caps.Details[0])
	}

	// Dependent probes must never have been attempted.
	for _, call := range transport.calls {
		if call != "chat" {
			t.Fatalf("unexpected probe call %q after chat failure", call)
		}
	}
}

func TestProbeModelIndependentFailures(t *testing.T) {
	transport := fullSupportTransport()
	transport.functionsData = nil
	transport.functionsErr = errors.New("tools are not supported on this endpoint")

	engine := NewEngine(transport, config.Default())
	caps := engine.ProbeModel(context.Background(), "gpt-4o-mini").Capabilities

	if caps.SupportsFunctionCalling {
		t.Fatal("function calling should not be supported")
	}
	if !caps.SupportsStructuredOutput || !caps.SupportsVision {
		t.Fatalf("structured output and vision should be unaffected, got %+v", caps)
	}
	if len(caps.Details) != 4 {
		t.Fatalf("details blocks = %d, want 4", len(caps.Details))
	}
	if !strings.Contains(caps.Details[1], "tools are not supported") {
		t.Fatalf("details[1] = %q", caps.Details[1])
	}
}

func TestProbeModelDeterministicAgainstFixedTransport(t *testing.T) {
	engine := NewEngine(fullSupportTransport(), config.Default())

	first, err := json.Marshal(engine.ProbeModel(context.Background(), "gpt-4"))
	if err != nil {
		t.Fatalf("marshal first run: %v", err)
	}
	second, err := json.Marshal(engine.ProbeModel(context.Background(), "gpt-4"))
	if err != nil {
		t.Fatalf("marshal second run: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("probe runs are not byte-identical:\n%s\n%s", first, second)
	}
}

func TestProbeModelStructuredOutputParseRejection(t *testing.T) {
	transport := fullSupportTransport()
	transport.structuredJSON = `"not an object"`

	engine := NewEngine(transport, config.Default())
	caps := engine.ProbeModel(context.Background(), "gpt-4").Capabilities

	if caps.SupportsStructuredOutput {
		t.Fatal("structured output flag should be false when the parse path rejects")
	}
	if len(caps.Details) != 4 {
		t.Fatalf("details blocks = %d, want 4", len(caps.Details))
	}
}

func TestListModelsPreservesOrder(t *testing.T) {
	transport := &mockTransport{models: []string{"gpt-4", "gpt-3.5-turbo"}}
	engine := NewEngine(transport, config.Default())

	models, err := engine.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 2 || models[0] != "gpt-4" || models[1] != "gpt-3.5-turbo" {
		t.Fatalf("models = %v, want [gpt-4 gpt-3.5-turbo]", models)
	}
}

func TestListModelsPropagatesError(t *testing.T) {
	transport := &mockTransport{listErr: errors.New("upstream status 500")}
	engine := NewEngine(transport, config.Default())

	if _, err := engine.ListModels(context.Background()); err == nil {
		t.Fatal("enumeration errors must propagate")
	}
}

func TestProbeModelsKeepsInputOrder(t *testing.T) {
	transport := fullSupportTransport()
	cfg := config.Default()
	cfg.MaxConcurrency = 2
	engine := NewEngine(transport, cfg)

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("model-%d", i)
	}
	results := engine.ProbeModels(context.Background(), ids)
	if len(results) != len(ids) {
		t.Fatalf("results = %d, want %d", len(results), len(ids))
	}
	for i, r := range results {
		if r == nil || r.ModelID != ids[i] {
			t.Fatalf("results[%d] = %+v, want model %q", i, r, ids[i])
		}
	}
}

package probe

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestChatPayload(t *testing.T) {
	payload := chatPayload("gpt-4", 64)
	if got := gjson.GetBytes(payload, "model").String(); got != "gpt-4" {
		t.Fatalf("model = %q", got)
	}
	if got := gjson.GetBytes(payload, "max_tokens").Int(); got != 64 {
		t.Fatalf("max_tokens = %d", got)
	}
	if got := gjson.GetBytes(payload, "messages.0.role").String(); got != "user" {
		t.Fatalf("role = %q", got)
	}
	if gjson.GetBytes(payload, "tools").Exists() {
		t.Fatal("baseline chat payload must not carry tools")
	}
	if gjson.GetBytes(payload, "response_format").Exists() {
		t.Fatal("baseline chat payload must not carry a response format")
	}
}

func TestFunctionCallPayload(t *testing.T) {
	payload := functionCallPayload("gpt-4", 64)
	if got := gjson.GetBytes(payload, "tools.0.function.name").String(); got != "get_weather" {
		t.Fatalf("tool name = %q, want get_weather", got)
	}
	if got := gjson.GetBytes(payload, "tools.0.type").String(); got != "function" {
		t.Fatalf("tool type = %q", got)
	}
	params := gjson.GetBytes(payload, "tools.0.function.parameters")
	if got := params.Get("properties.location.type").String(); got != "string" {
		t.Fatalf("location parameter type = %q", got)
	}
}

func TestStructuredOutputPayload(t *testing.T) {
	payload := structuredOutputPayload("gpt-4", 64)
	if got := gjson.GetBytes(payload, "response_format.type").String(); got != "json_schema" {
		t.Fatalf("response_format type = %q", got)
	}
	schema := gjson.GetBytes(payload, "response_format.json_schema.schema")
	for _, field := range []string{"name", "date", "participants"} {
		if !schema.Get("properties." + field).Exists() {
			t.Fatalf("schema missing property %q", field)
		}
	}
	if got := schema.Get("required").String(); !strings.Contains(got, "participants") {
		t.Fatalf("schema required = %q", got)
	}
}

func TestVisionPayload(t *testing.T) {
	payload, err := visionPayload("gpt-4o", 64)
	if err != nil {
		t.Fatalf("visionPayload returned error: %v", err)
	}
	if got := gjson.GetBytes(payload, "messages.0.content.0.type").String(); got != "text" {
		t.Fatalf("first content part type = %q", got)
	}
	if got := gjson.GetBytes(payload, "messages.0.content.1.type").String(); got != "image_url" {
		t.Fatalf("second content part type = %q", got)
	}
	url := gjson.GetBytes(payload, "messages.0.content.1.image_url.url").String()
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("image url should be an inline PNG data URL, got %q", url[:min(len(url), 40)])
	}
}

func TestRenderMessage(t *testing.T) {
	data := []byte(`{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`)
	if got := renderMessage(data); got != "content='Hello!'" {
		t.Fatalf("renderMessage = %q", got)
	}
}

func TestRenderMessageWithToolCalls(t *testing.T) {
	data := []byte(`{"choices":[{"message":{"content":"","tool_calls":[` +
		`{"function":{"name":"get_weather","arguments":"{\"location\":\"Paris\"}"}}]}}]}`)
	got := renderMessage(data)
	if !strings.Contains(got, "tool_calls=[get_weather({\"location\":\"Paris\"})]") {
		t.Fatalf("renderMessage = %q", got)
	}
}

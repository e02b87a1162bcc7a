package probe

import (
	"fmt"
	"strings"

	"github.com/modelprobe/modelprobe/internal/util"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// weatherToolJSON is the illustrative tool definition sent with the function
// calling probe. The probe only checks that the endpoint accepts a tools
// array; whether the model actually invokes the tool is not verified.
const weatherToolJSON = `{
	"type": "function",
	"function": {
		"name": "get_weather",
		"description": "Get the current weather in a location",
		"parameters": {
			"type": "object",
			"properties": {
				"location": {"type": "string", "description": "City name"},
				"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]}
			},
			"required": ["location"]
		}
	}
}`

// eventSchemaJSON is the response_format sent with the structured output
// probe: an event object with a name, a date, and a list of participants.
const eventSchemaJSON = `{
	"type": "json_schema",
	"json_schema": {
		"name": "event",
		"strict": true,
		"schema": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"date": {"type": "string"},
				"participants": {"type": "array", "items": {"type": "string"}}
			},
			"required": ["name", "date", "participants"],
			"additionalProperties": false
		}
	}
}`

// basePayload assembles the fields shared by every probe request.
func basePayload(model string, maxTokens int) []byte {
	payload := []byte(`{}`)
	payload, _ = sjson.SetBytes(payload, "model", model)
	payload, _ = sjson.SetBytes(payload, "max_tokens", maxTokens)
	return payload
}

// chatPayload builds the minimal single-turn request for the baseline chat
// probe: no tools, no schema, no image content.
func chatPayload(model string, maxTokens int) []byte {
	payload := basePayload(model, maxTokens)
	payload, _ = sjson.SetBytes(payload, "messages.0.role", "user")
	payload, _ = sjson.SetBytes(payload, "messages.0.content", "Hello")
	return payload
}

// functionCallPayload builds a request carrying one tool definition and a
// prompt designed to elicit its use.
func functionCallPayload(model string, maxTokens int) []byte {
	payload := basePayload(model, maxTokens)
	payload, _ = sjson.SetBytes(payload, "messages.0.role", "user")
	payload, _ = sjson.SetBytes(payload, "messages.0.content", "What's the weather in Paris?")
	payload, _ = sjson.SetRawBytes(payload, "tools.0", []byte(weatherToolJSON))
	return payload
}

// structuredOutputPayload builds a schema-constrained extraction request.
func structuredOutputPayload(model string, maxTokens int) []byte {
	payload := basePayload(model, maxTokens)
	payload, _ = sjson.SetBytes(payload, "messages.0.role", "user")
	payload, _ = sjson.SetBytes(payload, "messages.0.content", "Alice and Bob are going to a science fair on Friday. Extract the event.")
	payload, _ = sjson.SetRawBytes(payload, "response_format", []byte(eventSchemaJSON))
	return payload
}

// visionPayload builds a mixed text-plus-image request. The image is a small
// inline white PNG; only its acceptance matters, not its content.
func visionPayload(model string, maxTokens int) ([]byte, error) {
	imageBase64, err := util.CreateProbeImageBase64(16, 16)
	if err != nil {
		return nil, fmt.Errorf("probe: build vision image: %w", err)
	}
	payload := basePayload(model, maxTokens)
	payload, _ = sjson.SetBytes(payload, "messages.0.role", "user")
	payload, _ = sjson.SetBytes(payload, "messages.0.content.0.type", "text")
	payload, _ = sjson.SetBytes(payload, "messages.0.content.0.text", "What's in this image?")
	payload, _ = sjson.SetBytes(payload, "messages.0.content.1.type", "image_url")
	payload, _ = sjson.SetBytes(payload, "messages.0.content.1.image_url.url", "data:image/png;base64,"+imageBase64)
	return payload, nil
}

// renderMessage produces the diagnostic rendering of a chat completion
// response message: the text content plus any tool invocation payloads.
func renderMessage(data []byte) string {
	msg := gjson.GetBytes(data, "choices.0.message")

	var b strings.Builder
	fmt.Fprintf(&b, "content='%s'", msg.Get("content").String())

	if toolCalls := msg.Get("tool_calls"); toolCalls.Exists() && toolCalls.IsArray() {
		var rendered []string
		toolCalls.ForEach(func(_, call gjson.Result) bool {
			name := call.Get("function.name").String()
			args := call.Get("function.arguments").String()
			rendered = append(rendered, fmt.Sprintf("%s(%s)", name, args))
			return true
		})
		if len(rendered) > 0 {
			fmt.Fprintf(&b, " tool_calls=[%s]", strings.Join(rendered, ", "))
		}
	}
	return b.String()
}

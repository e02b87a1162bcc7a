package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const chatCompletionsPath = "/chat/completions"

// ChatCompletion posts a chat completion payload and returns the raw response
// JSON. The payload is passed through untouched; the probe engine is
// responsible for constructing feature-specific request bodies.
func (c *Client) ChatCompletion(ctx context.Context, payload []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, chatCompletionsPath, payload)
}

// ChatCompletionParse is the schema-constrained variant of ChatCompletion.
// It posts the payload, extracts the first choice's message content, and
// strictly decodes it into target. A response whose content is missing, is
// not valid JSON, or does not fit target's shape is reported as an error;
// callers treat that the same as any transport failure.
func (c *Client) ChatCompletionParse(ctx context.Context, payload []byte, target any) ([]byte, error) {
	data, err := c.ChatCompletion(ctx, payload)
	if err != nil {
		return nil, err
	}

	content := gjson.GetBytes(data, "choices.0.message.content")
	if !content.Exists() || content.String() == "" {
		return nil, fmt.Errorf("client: response carries no message content to parse")
	}

	dec := json.NewDecoder(strings.NewReader(content.String()))
	dec.DisallowUnknownFields()
	if err = dec.Decode(target); err != nil {
		return nil, fmt.Errorf("client: response content does not match schema: %w", err)
	}
	return data, nil
}

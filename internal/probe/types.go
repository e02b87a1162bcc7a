// Package probe implements the capability probing protocol: a fixed sequence
// of feature-specific chat completion requests whose pass/fail outcomes are
// folded into a per-model capability record. Chat support is probed first and
// gates the remaining probes; function calling, structured output, and vision
// are then probed independently of each other.
package probe

import "context"

// ModelCapabilities is the aggregated outcome of probing one model. The
// boolean flags mirror the individual probes; Details keeps one human-readable
// diagnostic block per attempted probe, in probe order, regardless of outcome.
type ModelCapabilities struct {
	SupportsChat             bool `json:"supports_chat"`
	SupportsFunctionCalling  bool `json:"supports_function_calling"`
	SupportsStructuredOutput bool `json:"supports_structured_output"`
	SupportsVision           bool `json:"supports_vision"`

	// Details is append-only for the lifetime of one probe run and never
	// mutated afterwards. When the chat probe fails it holds exactly one
	// block; otherwise exactly four.
	Details []string `json:"details"`
}

// Result is the top-level outcome of probing one model. A fresh Result is
// produced per run and is immutable once returned; there is no caching or
// update path.
type Result struct {
	ModelID      string            `json:"model_id"`
	APIBase      string            `json:"api_base"`
	Capabilities ModelCapabilities `json:"capabilities"`
}

// Event is the illustrative extraction target for the structured output
// probe: a calendar event with a name, a date, and participant names.
type Event struct {
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
}

// Transport is the OpenAI-compatible collaborator the engine drives. It is
// deliberately narrow so tests can run the engine against a fixed in-memory
// transport. *client.Client satisfies it.
type Transport interface {
	// ChatCompletion posts a chat completion payload and returns the raw
	// response JSON, or an error for any transport/protocol failure.
	ChatCompletion(ctx context.Context, payload []byte) ([]byte, error)

	// ChatCompletionParse posts a schema-constrained payload and strictly
	// decodes the response message content into target.
	ChatCompletionParse(ctx context.Context, payload []byte, target any) ([]byte, error)

	// ListModels returns the endpoint's model identifiers in listing order.
	ListModels(ctx context.Context) ([]string, error)

	// APIBase reports the endpoint URL, carried into results for provenance.
	APIBase() string
}

// outcome is the tagged result of a single probe: pass with a rendered
// response payload, or fail with the captured error text. Probes never
// propagate errors; the engine consumes these tags to decide flag values
// and short-circuiting.
type outcome struct {
	ok     bool
	detail string
}

func pass(detail string) outcome { return outcome{ok: true, detail: detail} }

func fail(err error) outcome { return outcome{ok: false, detail: err.Error()} }

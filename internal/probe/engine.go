package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelprobe/modelprobe/internal/config"
	"github.com/modelprobe/modelprobe/internal/logging"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Engine orchestrates the ordered probe sequence for one model and aggregates
// the outcomes into a Result. ProbeModel never fails outward; every
// transport, protocol, or schema error is captured as a diagnostic instead.
type Engine struct {
	transport Transport
	cfg       *config.Config
}

// NewEngine binds the engine to a transport and configuration.
func NewEngine(transport Transport, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{transport: transport, cfg: cfg}
}

// ProbeModel runs the full probe sequence against one model. The chat probe
// runs first; on failure the dependent probes are skipped entirely and the
// result carries a single diagnostic block. On success the three dependent
// probes run concurrently and their diagnostics are assembled in the fixed
// order {functions, structured output, vision} regardless of completion order.
func (e *Engine) ProbeModel(ctx context.Context, modelID string) *Result {
	caps := ModelCapabilities{}

	chat := e.probeChat(ctx, modelID)
	caps.SupportsChat = chat.ok
	caps.Details = append(caps.Details, "Chat: "+chat.detail)

	if chat.ok {
		var functions, structured, vision outcome
		var group errgroup.Group
		group.Go(func() error {
			functions = e.probeFunctionCalling(ctx, modelID)
			return nil
		})
		group.Go(func() error {
			structured = e.probeStructuredOutput(ctx, modelID)
			return nil
		})
		group.Go(func() error {
			vision = e.probeVision(ctx, modelID)
			return nil
		})
		_ = group.Wait()

		caps.SupportsFunctionCalling = functions.ok
		caps.SupportsStructuredOutput = structured.ok
		caps.SupportsVision = vision.ok
		caps.Details = append(caps.Details,
			"Functions: "+functions.detail,
			"Structured Output: "+structured.detail,
			"Vision: "+vision.detail,
		)
	}

	log.WithFields(log.Fields{
		"model":  modelID,
		"status": fmt.Sprintf("chat=%t functions=%t structured=%t vision=%t", caps.SupportsChat, caps.SupportsFunctionCalling, caps.SupportsStructuredOutput, caps.SupportsVision),
	}).Info("probe run completed")

	return &Result{
		ModelID:      modelID,
		APIBase:      e.transport.APIBase(),
		Capabilities: caps,
	}
}

// ProbeModels probes several models, at most cfg.MaxConcurrency at a time.
// Model runs share nothing but the transport, so they parallelize freely;
// results are returned in input order.
func (e *Engine) ProbeModels(ctx context.Context, modelIDs []string) []*Result {
	results := make([]*Result, len(modelIDs))
	var group errgroup.Group
	group.SetLimit(e.cfg.MaxConcurrency)
	for i, id := range modelIDs {
		group.Go(func() error {
			results[i] = e.ProbeModel(ctx, id)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// ListModels enumerates the endpoint's model identifiers in listing order.
// Unlike probing, enumeration failures propagate to the caller; there is no
// partial result to preserve.
func (e *Engine) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	return e.transport.ListModels(ctx)
}

// callContext tags each probe call with its own request ID and applies the
// configured per-call timeout. A timed-out probe reads as an ordinary probe
// failure.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = logging.WithRequestID(ctx, logging.GenerateRequestID())
	if e.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, time.Duration(e.cfg.RequestTimeout)*time.Second)
	}
	return context.WithCancel(ctx)
}

// probeChat issues the minimal single-turn baseline request.
func (e *Engine) probeChat(ctx context.Context, modelID string) outcome {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	data, err := e.transport.ChatCompletion(ctx, chatPayload(modelID, e.cfg.MaxTokens))
	if err != nil {
		e.logProbe(ctx, modelID, "chat", err)
		return fail(fmt.Errorf("chat completion failed: %w", err))
	}
	e.logProbe(ctx, modelID, "chat", nil)
	return pass("chat completion successful, response: " + renderMessage(data))
}

// probeFunctionCalling issues a request with one tool definition. Any
// non-erroring response counts as support, even a plain text reply that never
// invokes the tool; this lenient reading avoids over-fitting to tool-call
// syntax differences across heterogeneous endpoints.
func (e *Engine) probeFunctionCalling(ctx context.Context, modelID string) outcome {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	data, err := e.transport.ChatCompletion(ctx, functionCallPayload(modelID, e.cfg.MaxTokens))
	if err != nil {
		e.logProbe(ctx, modelID, "functions", err)
		return fail(fmt.Errorf("function calling failed: %w", err))
	}
	e.logProbe(ctx, modelID, "functions", nil)
	return pass("function calling successful, response: " + renderMessage(data))
}

// probeStructuredOutput issues a schema-constrained extraction request and
// requires the response content to parse into the event shape.
func (e *Engine) probeStructuredOutput(ctx context.Context, modelID string) outcome {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	var event Event
	if _, err := e.transport.ChatCompletionParse(ctx, structuredOutputPayload(modelID, e.cfg.MaxTokens), &event); err != nil {
		e.logProbe(ctx, modelID, "structured-output", err)
		return fail(fmt.Errorf("structured output failed: %w", err))
	}
	rendered, err := json.Marshal(event)
	if err != nil {
		e.logProbe(ctx, modelID, "structured-output", err)
		return fail(fmt.Errorf("structured output failed: %w", err))
	}
	e.logProbe(ctx, modelID, "structured-output", nil)
	return pass("structured output successful, parsed: " + string(rendered))
}

// probeVision issues a mixed text-plus-image request.
func (e *Engine) probeVision(ctx context.Context, modelID string) outcome {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	payload, err := visionPayload(modelID, e.cfg.MaxTokens)
	if err != nil {
		e.logProbe(ctx, modelID, "vision", err)
		return fail(fmt.Errorf("vision failed: %w", err))
	}
	data, err := e.transport.ChatCompletion(ctx, payload)
	if err != nil {
		e.logProbe(ctx, modelID, "vision", err)
		return fail(fmt.Errorf("vision failed: %w", err))
	}
	e.logProbe(ctx, modelID, "vision", nil)
	return pass("vision successful, response: " + renderMessage(data))
}

func (e *Engine) logProbe(ctx context.Context, modelID, name string, err error) {
	entry := logging.WithRequestIDField(ctx).WithFields(log.Fields{"model": modelID, "probe": name})
	if err != nil {
		entry.WithField("error", err).Warn("probe failed")
		return
	}
	entry.Debug("probe passed")
}

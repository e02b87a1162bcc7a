package client

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// StatusError represents a non-2xx response from the endpoint. The body is
// retained verbatim because probe diagnostics record the raw upstream text.
type StatusError struct {
	Code int
	Body string
}

// Error renders the status and, when the body carries a structured OpenAI
// error object, its message; otherwise the raw body is included.
func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if m := gjson.Get(e.Body, "error.message"); m.Exists() && m.String() != "" {
		msg = m.String()
	}
	if msg == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, msg)
}

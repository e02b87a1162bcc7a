package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelprobe/modelprobe/internal/buildinfo"
	"github.com/modelprobe/modelprobe/internal/logging"
	log "github.com/sirupsen/logrus"
)

// traceLogger appends each probe request/response exchange to a per-run
// trace file. It exists for diagnosing endpoint quirks after the fact; the
// capability verdicts never depend on it. A nil traceLogger is a no-op so
// the client can call record unconditionally.
type traceLogger struct {
	mu   sync.Mutex
	path string
}

// newTraceLogger creates the logs directory and picks a unique trace file
// name for this run.
func newTraceLogger(logDir string) *traceLogger {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Warnf("trace: failed to create log directory %s: %v", logDir, err)
		return nil
	}
	name := fmt.Sprintf("probe-%s-%s.log", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	return &traceLogger{path: filepath.Join(logDir, name)}
}

// record appends one exchange to the trace file.
func (t *traceLogger) record(ctx context.Context, method, url string, reqBody []byte, status int, respBody []byte, callErr error) {
	if t == nil {
		return
	}

	var content strings.Builder
	content.WriteString("=== REQUEST ===\n")
	content.WriteString(fmt.Sprintf("Version: %s\n", buildinfo.Version))
	content.WriteString(fmt.Sprintf("RequestID: %s\n", logging.GetRequestID(ctx)))
	content.WriteString(fmt.Sprintf("URL: %s\n", url))
	content.WriteString(fmt.Sprintf("Method: %s\n", method))
	content.WriteString(fmt.Sprintf("Timestamp: %s\n", time.Now().Format(time.RFC3339Nano)))
	if len(reqBody) > 0 {
		content.WriteString("\n=== REQUEST BODY ===\n")
		content.Write(reqBody)
		content.WriteString("\n")
	}
	content.WriteString("\n=== RESPONSE ===\n")
	if callErr != nil {
		content.WriteString(fmt.Sprintf("Error: %v\n", callErr))
	}
	if status != 0 {
		content.WriteString(fmt.Sprintf("Status: %d\n", status))
	}
	if len(respBody) > 0 {
		content.WriteString("\n=== RESPONSE BODY ===\n")
		content.Write(respBody)
		content.WriteString("\n")
	}
	content.WriteString("\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Warnf("trace: failed to open trace file %s: %v", t.path, err)
		return
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Warnf("trace: failed to close trace file: %v", errClose)
		}
	}()
	if _, err = f.WriteString(content.String()); err != nil {
		log.Warnf("trace: failed to write trace file: %v", err)
	}
}

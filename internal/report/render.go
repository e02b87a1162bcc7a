// Package report renders probe results for terminal and JSON consumers.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/modelprobe/modelprobe/internal/probe"
)

const detailWidth = 72

// Color palette, matching the interactive UI.
var (
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#CDD6F4")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			MarginBottom(1)

	featureStyle = lipgloss.NewStyle().
			Width(20).
			Foreground(colorText)

	supportedStyle   = lipgloss.NewStyle().Width(4).Foreground(colorSuccess)
	unsupportedStyle = lipgloss.NewStyle().Width(4).Foreground(colorError)
	detailStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// RenderTable produces the human-readable capability table for one result.
// Dependent feature rows are omitted when the baseline chat probe failed,
// mirroring the fact that those probes were never attempted.
func RenderTable(result *probe.Result) string {
	caps := result.Capabilities

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Capability report - %s (%s)", result.ModelID, result.APIBase)))
	b.WriteString("\n")

	writeRow(&b, "Chat", caps.SupportsChat, detailFor(caps.Details, "Chat: "))
	if caps.SupportsChat {
		writeRow(&b, "Functions", caps.SupportsFunctionCalling, detailFor(caps.Details, "Functions: "))
		writeRow(&b, "Structured Output", caps.SupportsStructuredOutput, detailFor(caps.Details, "Structured Output: "))
		writeRow(&b, "Vision", caps.SupportsVision, detailFor(caps.Details, "Vision: "))
	}
	return b.String()
}

// RenderJSON produces the indented JSON rendering of one result.
func RenderJSON(result *probe.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal result: %w", err)
	}
	return string(data), nil
}

func writeRow(b *strings.Builder, feature string, supported bool, detail string) {
	mark := supportedStyle.Render("✓")
	if !supported {
		mark = unsupportedStyle.Render("✗")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		featureStyle.Render(feature),
		mark,
		detailStyle.Render(truncate(detail, detailWidth)),
	))
	b.WriteString("\n")
}

// detailFor returns the diagnostic block for one probe, without its name
// prefix. Blocks are keyed by prefix rather than position so the table stays
// correct for short-circuited runs.
func detailFor(details []string, prefix string) string {
	for _, block := range details {
		if strings.HasPrefix(block, prefix) {
			return strings.TrimPrefix(block, prefix)
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

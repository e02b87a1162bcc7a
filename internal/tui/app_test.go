package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/modelprobe/modelprobe/internal/probe"
)

type stubEngine struct {
	models  []string
	listErr error
}

func (s *stubEngine) ProbeModel(_ context.Context, modelID string) *probe.Result {
	return &probe.Result{ModelID: modelID, Capabilities: probe.ModelCapabilities{
		SupportsChat: true,
		Details:      []string{"Chat: chat completion successful, response: content='Hello!'"},
	}}
}

func (s *stubEngine) ProbeModels(ctx context.Context, ids []string) []*probe.Result {
	results := make([]*probe.Result, len(ids))
	for i, id := range ids {
		results[i] = s.ProbeModel(ctx, id)
	}
	return results
}

func (s *stubEngine) ListModels(context.Context) ([]string, error) {
	return s.models, s.listErr
}

func TestAppLoadsModels(t *testing.T) {
	app := NewApp(&stubEngine{models: []string{"gpt-4", "gpt-3.5-turbo"}})

	updated, _ := app.Update(modelsLoadedMsg{models: []string{"gpt-4", "gpt-3.5-turbo"}})
	a := updated.(App)
	if a.state != statePicking {
		t.Fatalf("state = %d, want picking", a.state)
	}
	view := a.View()
	if !strings.Contains(view, "gpt-4") || !strings.Contains(view, "gpt-3.5-turbo") {
		t.Fatalf("view missing models:\n%s", view)
	}
}

func TestAppListFailure(t *testing.T) {
	app := NewApp(&stubEngine{})
	updated, _ := app.Update(modelsLoadedMsg{err: errors.New("upstream status 401")})
	a := updated.(App)
	if a.state != stateFailed {
		t.Fatalf("state = %d, want failed", a.state)
	}
	if !strings.Contains(a.View(), "upstream status 401") {
		t.Fatalf("view missing error:\n%s", a.View())
	}
}

func TestAppProbeFlow(t *testing.T) {
	app := NewApp(&stubEngine{})
	updated, _ := app.Update(modelsLoadedMsg{models: []string{"gpt-4"}})
	a := updated.(App)

	updated, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = updated.(App)
	if a.state != stateProbing {
		t.Fatalf("state = %d, want probing", a.state)
	}
	if cmd == nil {
		t.Fatal("enter should schedule a probe command")
	}

	results := []*probe.Result{{ModelID: "gpt-4", Capabilities: probe.ModelCapabilities{
		SupportsChat: true,
		Details:      []string{"Chat: chat completion successful, response: content='Hello!'"},
	}}}
	updated, _ = a.Update(probeDoneMsg{results: results})
	a = updated.(App)
	if a.state != stateResults {
		t.Fatalf("state = %d, want results", a.state)
	}
	if !strings.Contains(a.View(), "content='Hello!'") {
		t.Fatalf("view missing result detail:\n%s", a.View())
	}

	updated, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	a = updated.(App)
	if a.state != statePicking {
		t.Fatalf("state = %d, want picking after q", a.state)
	}
}

func TestAppFilterNarrowsList(t *testing.T) {
	app := NewApp(&stubEngine{})
	updated, _ := app.Update(modelsLoadedMsg{models: []string{"gpt-4", "claude-3-opus"}})
	a := updated.(App)

	for _, r := range "claude" {
		updated, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		a = updated.(App)
	}
	view := a.View()
	if strings.Contains(view, "gpt-4") {
		t.Fatalf("filter should hide gpt-4:\n%s", view)
	}
	if !strings.Contains(view, "claude-3-opus") {
		t.Fatalf("filter should keep claude-3-opus:\n%s", view)
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/modelprobe/modelprobe/internal/probe"
	"github.com/modelprobe/modelprobe/internal/report"
)

// View states
const (
	stateLoading = iota
	statePicking
	stateProbing
	stateResults
	stateFailed
)

// prober abstracts the probe engine so the app can be driven in tests.
type prober interface {
	ProbeModel(ctx context.Context, modelID string) *probe.Result
	ProbeModels(ctx context.Context, modelIDs []string) []*probe.Result
	ListModels(ctx context.Context) ([]string, error)
}

// App is the root bubbletea model for the interactive prober.
type App struct {
	engine prober

	state   int
	loadErr error

	models  []string
	cursor  int
	filter  textinput.Model
	spin    spinner.Model
	results []*probe.Result

	width  int
	height int
}

type modelsLoadedMsg struct {
	models []string
	err    error
}

type probeDoneMsg struct {
	results []*probe.Result
}

// NewApp creates the interactive application bound to a probe engine.
func NewApp(engine prober) App {
	ti := textinput.New()
	ti.Placeholder = "filter models"
	ti.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	return App{
		engine: engine,
		state:  stateLoading,
		filter: ti,
		spin:   sp,
	}
}

// Init fetches the model listing and starts the spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.loadModels())
}

func (a App) loadModels() tea.Cmd {
	return func() tea.Msg {
		models, err := a.engine.ListModels(context.Background())
		return modelsLoadedMsg{models: models, err: err}
	}
}

func (a App) probeCmd(ids []string) tea.Cmd {
	return func() tea.Msg {
		return probeDoneMsg{results: a.engine.ProbeModels(context.Background(), ids)}
	}
}

// visibleModels applies the filter input to the full listing.
func (a App) visibleModels() []string {
	return probe.FilterModels(a.models, a.filter.Value())
}

// Update handles messages and key input.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case modelsLoadedMsg:
		if msg.err != nil {
			a.state = stateFailed
			a.loadErr = msg.err
			return a, nil
		}
		a.models = msg.models
		a.state = statePicking
		a.filter.Focus()
		return a, textinput.Blink

	case probeDoneMsg:
		a.results = msg.results
		a.state = stateResults
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	switch a.state {
	case stateResults:
		switch msg.String() {
		case "q", "esc":
			a.state = statePicking
			a.results = nil
			return a, nil
		}
		return a, nil

	case stateFailed:
		return a, tea.Quit

	case statePicking:
		visible := a.visibleModels()
		switch msg.Type {
		case tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyUp:
			if a.cursor > 0 {
				a.cursor--
			}
			return a, nil
		case tea.KeyDown:
			if a.cursor < len(visible)-1 {
				a.cursor++
			}
			return a, nil
		case tea.KeyEnter:
			if len(visible) == 0 {
				return a, nil
			}
			if a.cursor >= len(visible) {
				a.cursor = len(visible) - 1
			}
			a.state = stateProbing
			return a, tea.Batch(a.spin.Tick, a.probeCmd([]string{visible[a.cursor]}))
		case tea.KeyCtrlA:
			if len(visible) == 0 {
				return a, nil
			}
			a.state = stateProbing
			return a, tea.Batch(a.spin.Tick, a.probeCmd(visible))
		}
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(msg)
		if a.cursor >= len(a.visibleModels()) {
			a.cursor = 0
		}
		return a, cmd
	}
	return a, nil
}

// View renders the current state.
func (a App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("modelprobe - capability prober"))
	b.WriteString("\n")

	switch a.state {
	case stateLoading:
		b.WriteString(fmt.Sprintf("%s fetching model listing...\n", a.spin.View()))

	case stateFailed:
		b.WriteString(errorStyle.Render(fmt.Sprintf("failed to list models: %v", a.loadErr)))
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("press any key to exit"))

	case statePicking:
		b.WriteString(a.filter.View())
		b.WriteString("\n\n")
		visible := a.visibleModels()
		if len(visible) == 0 {
			b.WriteString(statusStyle.Render("no models match"))
			b.WriteString("\n")
		}
		for i, model := range visible {
			if i == a.cursor {
				b.WriteString(cursorStyle.Render("> "))
				b.WriteString(selectedItemStyle.Render(model))
			} else {
				b.WriteString(itemStyle.Render(model))
			}
			b.WriteString("\n")
		}
		b.WriteString(statusStyle.Render(fmt.Sprintf("%d models | enter: probe selected | ctrl+a: probe all shown | esc: quit", len(visible))))

	case stateProbing:
		b.WriteString(fmt.Sprintf("%s probing...\n", a.spin.View()))

	case stateResults:
		for _, result := range a.results {
			b.WriteString(report.RenderTable(result))
			b.WriteString("\n")
		}
		supported := 0
		for _, result := range a.results {
			if result.Capabilities.SupportsChat {
				supported++
			}
		}
		b.WriteString(okStyle.Render(fmt.Sprintf("%d/%d models answered the chat probe", supported, len(a.results))))
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("q/esc: back to model list"))
	}
	return b.String()
}

// Run starts the interactive program and blocks until the user exits.
func Run(engine prober) error {
	_, err := tea.NewProgram(NewApp(engine), tea.WithAltScreen()).Run()
	return err
}

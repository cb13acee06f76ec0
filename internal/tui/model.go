// Package tui draws transfer progress for one workflow operation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/nexus-library/internal/library"
)

// Operation is the workflow call the model runs.
type Operation func(ctx context.Context) library.Result

// AbortFunc stops the running transfer for an id.
type AbortFunc func(id string) error

// ResultMsg carries the operation's return value.
type ResultMsg struct {
	Result library.Result
}

type partState struct {
	part     library.Part
	label    string
	fraction float64
	speed    string
	status   string
	failed   bool
}

// Model shows one bar per transferred part, recent activity and the final
// result. The first ctrl+c aborts the transfer; the second quits.
type Model struct {
	title  string
	id     string
	bridge *EventBridge
	run    Operation
	abort  AbortFunc
	ctx    context.Context //nolint:containedctx // the operation runs from Init
	cancel context.CancelFunc

	spinner  spinner.Model
	bar      progress.Model
	parts    []*partState
	activity []string
	result   *library.Result
	aborting bool
	width    int
}

// NewModel creates a model for one operation on title id.
func NewModel(ctx context.Context, title, id string, bridge *EventBridge, abort AbortFunc, run Operation) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(color(primaryColorCode))

	ctx, cancel := context.WithCancel(ctx)

	return Model{
		title:   title,
		id:      id,
		bridge:  bridge,
		run:     run,
		abort:   abort,
		ctx:     ctx,
		cancel:  cancel,
		spinner: spin,
		bar:     NewProgressModel(ProgressBarWidth),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.ListenCmd(), m.start())
}

func (m Model) start() tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{Result: m.run(m.ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4*DefaultPadding, 10), MaxProgressBarWidth) //nolint:mnd // margins

		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case EventMsg:
		m.apply(msg.Event)
		return m, m.bridge.ListenCmd()
	case ResultMsg:
		m.result = &msg.Result
		m.cancel()

		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.result != nil || m.aborting {
			m.cancel()
			return m, tea.Quit
		}

		m.aborting = true
		m.log(WarningStyle().Render("aborting, press ctrl+c again to quit"))

		if m.abort != nil {
			if err := m.abort(m.id); err != nil {
				m.log(ErrorStyle().Render(err.Error()))
			}
		}

		m.cancel()
	}

	return m, nil
}

// Result returns the operation's result once it has finished.
func (m Model) Result() (library.Result, bool) {
	if m.result == nil {
		return library.Result{}, false
	}

	return *m.result, true
}

func (m *Model) apply(event library.Event) {
	switch e := event.(type) {
	case library.TransferStarted:
		p := m.partFor(e.Part)
		p.label = fmt.Sprintf("%s %s", e.Direction, e.Part)
		p.status = e.Remote
		p.fraction = 0
		p.failed = false
		m.log(fmt.Sprintf("%s %s: %s ⇄ %s", e.Direction, e.Part, e.Local, e.Remote))
	case library.TransferProgress:
		p := m.partFor(e.Part)
		if fraction, ok := e.Progress.Fraction(); ok {
			p.fraction = fraction
		}

		if e.Progress.Speed != nil {
			p.speed = *e.Progress.Speed
		}
	case library.TransferFinished:
		p := m.partFor(e.Part)
		if e.Err != nil {
			p.failed = true
			p.status = e.Err.Error()
			m.log(ErrorStyle().Render(fmt.Sprintf("%s transfer failed: %v", e.Part, e.Err)))

			return
		}

		p.fraction = 1
		p.status = "transferred"
	case library.VerifyStarted:
		m.partFor(e.Part).status = "verifying"
	case library.VerifyFinished:
		p := m.partFor(e.Part)
		if e.Match {
			p.status = fmt.Sprintf("verified %s (%d bytes)", e.Remote.Hash, e.Remote.SizeInBytes)
			return
		}

		p.failed = true
		p.status = "fingerprints differ"
	case library.ShortcutSynced:
		m.log(SuccessStyle().Render("shortcut: " + e.Title))
	}
}

func (m *Model) partFor(part library.Part) *partState {
	for _, p := range m.parts {
		if p.part == part {
			return p
		}
	}

	p := &partState{part: part, label: string(part)}
	m.parts = append(m.parts, p)

	return p
}

func (m *Model) log(line string) {
	m.activity = append(m.activity, line)
	if len(m.activity) > LogLines {
		m.activity = m.activity[len(m.activity)-LogLines:]
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	heading := m.title
	if m.result == nil {
		heading = m.spinner.View() + " " + heading
	}

	b.WriteString(TitleStyle().Render(heading))
	b.WriteString("\n")

	for _, p := range m.parts {
		b.WriteString(LabelStyle().Render(p.label))
		b.WriteString("\n")
		b.WriteString(RenderProgress(m.bar, p.fraction))

		if !colorsDisabled {
			fmt.Fprintf(&b, " %3.0f%%", p.fraction*100) //nolint:mnd // percent
		}

		if p.speed != "" {
			b.WriteString(" " + DimStyle().Render(p.speed))
		}

		b.WriteString("\n")

		status := DimStyle().Render(p.status)
		if p.failed {
			status = ErrorStyle().Render(p.status)
		}

		b.WriteString(status)
		b.WriteString("\n\n")
	}

	for _, line := range m.activity {
		b.WriteString("  " + line + "\n")
	}

	if m.result != nil {
		b.WriteString("\n")
		b.WriteString(renderResult(*m.result))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(0, DefaultPadding).Render(b.String())
}

func renderResult(res library.Result) string {
	if !res.OK() {
		return ErrorStyle().Render("✗ " + res.Message)
	}

	lines := []string{SuccessStyle().Render("✓ done")}
	for _, problem := range res.Errors {
		lines = append(lines, WarningStyle().Render("! "+problem))
	}

	return strings.Join(lines, "\n")
}

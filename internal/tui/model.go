// Package tui is the terminal front-end over the pipeline coordinator. It
// mirrors the browser UI: a URL prompt, one action per stage with an
// in-flight spinner, and an upgrade prompt when the paywall is raised.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidbrief/vidbrief/internal/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	paywallStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("208")).
			Padding(1, 2)
)

// stageDoneMsg reports a finished stage invocation.
type stageDoneMsg struct {
	stage pipeline.Stage
	err   error
}

// Model drives the whole terminal session.
type Model struct {
	coord *pipeline.Coordinator
	keys  keyMap

	urlInput   textinput.Model
	tokenInput textinput.Model
	spinner    spinner.Model

	snap   pipeline.Snapshot
	status string
}

// New creates the TUI model over an existing coordinator.
func New(coord *pipeline.Coordinator) *Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "YouTube URL"
	urlInput.Focus()

	tokenInput := textinput.New()
	tokenInput.Placeholder = "access token"

	return &Model{
		coord:      coord,
		keys:       defaultKeyMap(),
		urlInput:   urlInput,
		tokenInput: tokenInput,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		snap:       coord.Snapshot(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stageDoneMsg:
		m.snap = m.coord.Snapshot()
		if msg.err != nil {
			m.status = errorStyle.Render(detailLine(msg.err))
		} else {
			m.status = string(msg.stage) + " complete"
		}

		if m.snap.Paywall {
			m.urlInput.Blur()
			m.tokenInput.Focus()
		}

		return m, nil

	case spinner.TickMsg:
		// The coordinator flips loading flags on its own goroutine while a
		// stage call is in flight; resync on every tick so the panes track it.
		m.snap = m.coord.Snapshot()

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The upgrade prompt captures input while the paywall is up.
	if m.snap.Paywall {
		if msg.Type == tea.KeyEnter {
			token := m.tokenInput.Value()
			if token != "" {
				m.coord.GrantEntitlement(token)
				m.snap = m.coord.Snapshot()
				m.status = "entitlement granted; retry your last action"
				m.tokenInput.Reset()
				m.urlInput.Focus()
			}

			return m, nil
		}

		var cmd tea.Cmd
		m.tokenInput, cmd = m.tokenInput.Update(msg)

		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Transcribe):
		if !m.snap.Loading[pipeline.StageTranscribe] {
			return m, m.runStage(pipeline.StageTranscribe)
		}

		return m, nil

	case key.Matches(msg, m.keys.Summarize):
		if !m.snap.Loading[pipeline.StageSummarize] {
			return m, m.runStage(pipeline.StageSummarize)
		}

		return m, nil

	case key.Matches(msg, m.keys.Enrich):
		if !m.snap.Loading[pipeline.StageEnrich] {
			return m, m.runStage(pipeline.StageEnrich)
		}

		return m, nil
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)

	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	cmds = append(cmds, cmd)

	m.tokenInput, cmd = m.tokenInput.Update(msg)
	cmds = append(cmds, cmd)

	return tea.Batch(cmds...)
}

// runStage kicks off one stage invocation and refreshes the snapshot so the
// loading indicator shows immediately.
func (m *Model) runStage(stage pipeline.Stage) tea.Cmd {
	url := m.urlInput.Value()
	coord := m.coord

	return func() tea.Msg {
		var err error
		switch stage {
		case pipeline.StageTranscribe:
			_, err = coord.Transcribe(context.Background(), url)
		case pipeline.StageSummarize:
			_, err = coord.Summarize(context.Background())
		case pipeline.StageEnrich:
			_, err = coord.Enrich(context.Background())
		}

		return stageDoneMsg{stage: stage, err: err}
	}
}

func (m *Model) View() string {
	view := titleStyle.Render("vidbrief") + "\n\n"
	view += "URL: " + m.urlInput.View() + "\n"
	view += faintStyle.Render("enter transcribe · ctrl+s summarize · ctrl+e enrich · esc quit") + "\n\n"

	view += m.pane("Transcript", pipeline.StageTranscribe, m.snap.Transcript)
	view += m.pane("Summary", pipeline.StageSummarize, m.snap.Summary)
	view += m.pane("Enriched", pipeline.StageEnrich, m.snap.Enrichment)

	if m.status != "" {
		view += m.status + "\n"
	}

	if m.snap.Paywall {
		view += "\n" + paywallStyle.Render(
			"Free tier limit reached.\n"+
				"Enter an access token to continue:\n\n"+
				m.tokenInput.View(),
		) + "\n"
	}

	return view
}

func (m *Model) pane(title string, stage pipeline.Stage, body string) string {
	view := headingStyle.Render(title) + "\n"

	switch {
	case m.snap.Loading[stage]:
		view += m.spinner.View() + " working...\n"
	case body == "":
		view += faintStyle.Render("(empty)") + "\n"
	default:
		view += body + "\n"
	}

	return view + "\n"
}

func detailLine(err error) string {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Detail
	}

	return err.Error()
}

package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
)

// Model renders an Engine session in the terminal. The engine owns all
// session state; the model only keeps view concerns.
type Model struct {
	engine  *app.Engine
	quizID  string
	events  <-chan domain.Event
	cancel  func()
	keys    keyMap
	help    help.Model
	noColor bool

	option     int
	confirming bool
	busy       bool
	notice     string
	done       bool
}

// Options configures the terminal view.
type Options struct {
	// QuizID is started when there is no interrupted session to resume.
	QuizID  string
	NoColor bool
}

func NewModel(engine *app.Engine, opts Options) Model {
	events, cancel := engine.Subscribe()
	return Model{
		engine:  engine,
		quizID:  opts.QuizID,
		events:  events,
		cancel:  cancel,
		keys:    defaultKeys(),
		help:    help.New(),
		noColor: opts.NoColor,
	}
}

// EventMsg wraps an engine event for Bubble Tea.
type EventMsg struct {
	Event domain.Event
}

// opMsg reports the outcome of an engine call run off the update loop.
type opMsg struct {
	op  string
	err error
}

// Init resumes an interrupted session, or starts the configured quiz.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), openSession(m.engine, m.quizID))
}

func openSession(engine *app.Engine, quizID string) tea.Cmd {
	return func() tea.Msg {
		err := engine.Resume(context.Background())
		if err == nil {
			return opMsg{op: "resume"}
		}
		if !errors.Is(err, domain.ErrNothingToResume) || quizID == "" {
			return opMsg{op: "resume", err: err}
		}
		return opMsg{op: "start", err: engine.Start(context.Background(), quizID)}
	}
}

func submit(engine *app.Engine, force bool) tea.Cmd {
	return func() tea.Msg {
		_, err := engine.Submit(context.Background(), force)
		return opMsg{op: "submit", err: err}
	}
}

// waitForEvent blocks until an engine event is available.
func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: evt}
	}
}

// Update consumes key presses, engine events and finished engine calls.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = typed.Width
		return m, nil
	case EventMsg:
		if typed.Event.Kind == domain.EventCursor || typed.Event.Kind == domain.EventPhase {
			m.option = m.selectedOption()
		}
		return m, waitForEvent(m.events)
	case opMsg:
		m.busy = false
		m.notice = domain.Notice(typed.err)
		if typed.err != nil && typed.op == "submit" && errors.Is(typed.err, domain.ErrConfirmationRequired) {
			m.confirming = true
		}
		if typed.err == nil {
			m.option = m.selectedOption()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	if key.Matches(msg, m.keys.Quit) {
		m.engine.Suspend()
		return m.quit()
	}
	if m.busy {
		return m, nil
	}
	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = false
			m.busy = true
			m.notice = ""
			return m, submit(m.engine, true)
		case key.Matches(msg, m.keys.Cancel):
			m.confirming = false
			m.notice = ""
		}
		return m, nil
	}

	phase := m.engine.Phase()
	if key.Matches(msg, m.keys.Exit) {
		if err := m.engine.Exit(ctx); err != nil {
			m.notice = domain.Notice(err)
			return m, nil
		}
		return m.quit()
	}
	if phase != domain.PhaseActive {
		return m, nil
	}

	var err error
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.option > 0 {
			m.option--
		}
	case key.Matches(msg, m.keys.Down):
		if m.option < len(m.choices())-1 {
			m.option++
		}
	case key.Matches(msg, m.keys.Choose):
		choices := m.choices()
		if q, ok := m.engine.CurrentQuestion(); ok && m.option < len(choices) {
			err = m.engine.SelectAnswer(ctx, q.ID, choices[m.option])
		}
	case key.Matches(msg, m.keys.Next):
		_, err = m.engine.Next(ctx)
		m.option = m.selectedOption()
	case key.Matches(msg, m.keys.Previous):
		_, err = m.engine.Previous(ctx)
		m.option = m.selectedOption()
	case key.Matches(msg, m.keys.Submit):
		m.busy = true
		m.notice = ""
		return m, submit(m.engine, false)
	}
	m.notice = domain.Notice(err)
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.done = true
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// choices lists the options of the question under the cursor.
func (m Model) choices() []string {
	quiz, ok := m.engine.Quiz()
	if !ok {
		return nil
	}
	q, ok := m.engine.CurrentQuestion()
	if !ok {
		return nil
	}
	return q.Choices(quiz.ChoiceType)
}

// selectedOption places the option cursor on the recorded answer, if any.
func (m Model) selectedOption() int {
	q, ok := m.engine.CurrentQuestion()
	if !ok {
		return 0
	}
	answer, ok := m.engine.Answers()[q.ID]
	if !ok {
		return 0
	}
	for i, choice := range m.choices() {
		if choice == answer {
			return i
		}
	}
	return 0
}

// View renders the session.
func (m Model) View() string {
	if m.done {
		return ""
	}
	var body string
	switch m.engine.Phase() {
	case domain.PhaseIdle:
		body = renderIdle(m.noColor)
	case domain.PhaseLoading:
		body = stylize("Loading quiz...", m.noColor, lipgloss.Color("242"))
	case domain.PhaseSubmitting:
		body = stylize("Submitting answers...", m.noColor, lipgloss.Color("242"))
	case domain.PhaseActive:
		body = m.renderActive()
	case domain.PhaseReviewing:
		result, _ := m.engine.Result()
		quiz, _ := m.engine.Quiz()
		body = renderResult(quiz, result, m.noColor)
	}
	parts := []string{body}
	if m.notice != "" {
		parts = append(parts, stylize(m.notice, m.noColor, lipgloss.Color("203")))
	}
	if m.confirming {
		parts = append(parts, "Press y to submit anyway, esc to keep answering.")
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderActive() string {
	quiz, _ := m.engine.Quiz()
	q, _ := m.engine.CurrentQuestion()
	answer, answered := m.engine.Answers()[q.ID]
	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(quiz, m.engine.Progress(), m.noColor),
		renderTimer(quiz, m.engine.TimeRemaining(), m.engine.WarningActive(), m.noColor),
		"",
		stylize(q.Text, m.noColor, lipgloss.Color("15")),
		renderChoices(m.choices(), m.option, answer, answered, m.noColor),
	)
}

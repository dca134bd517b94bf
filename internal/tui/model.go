// Package tui hosts one phase's quiz in a Bubble Tea program, wiring
// keyboard input to the quiz session and the progress tracker.
package tui

import (
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/quiz"
	"github.com/nikhilv/trailz/internal/tracker"
)

// feedbackDelay is how long the Transitioning pause shows feedback
// before the next question.
const feedbackDelay = 900 * time.Millisecond

// timerTickMsg is sent every second to advance the elapsed counter.
type timerTickMsg time.Time

// feedbackDoneMsg ends the Transitioning delay.
type feedbackDoneMsg struct{}

// Model drives one phase run.
type Model struct {
	trailTitle string
	phase      catalog.Phase
	session    *quiz.Session
	trk        *tracker.Tracker

	// choice-question selection state
	selected map[int]bool

	// matching state: which left entry is being matched, and the
	// matches built so far
	matchPos int
	matches  map[string]string

	input textinput.Model

	width  int
	height int
}

// New builds the model for one phase. The tracker is the session's
// event sink, so every answer lands in the progress record as it is
// graded. The host starts the phase on the tracker before handing it
// over.
func New(trailTitle string, phase catalog.Phase, trk *tracker.Tracker) *Model {
	m := &Model{
		trailTitle: trailTitle,
		phase:      phase,
		trk:        trk,
		selected:   make(map[int]bool),
		matches:    make(map[string]string),
	}
	ti := textinput.New()
	ti.Placeholder = "sequence, e.g. 312"
	ti.CharLimit = 12
	m.input = ti

	m.session = quiz.New(phase.ID, phase.FlatQuestions(), trk)
	m.session.Begin()
	m.resetInputFor(m.session.Current())
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.input.Focus())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case timerTickMsg:
		if m.session.State() == quiz.StateComplete {
			return m, nil
		}
		m.session.Tick()
		return m, tickCmd()

	case feedbackDoneMsg:
		m.session.Advance()
		if m.session.State() == quiz.StateComplete {
			return m, nil
		}
		m.resetInputFor(m.session.Current())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.session.Abandon()
		return m, tea.Quit
	}

	switch m.session.State() {
	case quiz.StateComplete:
		if key == "q" || key == "enter" || key == "esc" {
			return m, tea.Quit
		}
		return m, nil

	case quiz.StateFeedback:
		m.session.AcknowledgeFeedback()
		return m, tea.Tick(feedbackDelay, func(time.Time) tea.Msg {
			return feedbackDoneMsg{}
		})

	case quiz.StateTransitioning:
		return m, nil
	}

	if key == "esc" {
		m.session.Abandon()
		return m, tea.Quit
	}

	q := m.session.Current()
	if q == nil {
		return m, nil
	}

	switch q.Type {
	case catalog.TypeBoolean:
		return m.handleBooleanKey(key)
	case catalog.TypeChoice:
		return m.handleChoiceKey(key, q)
	case catalog.TypeOrdering:
		return m.handleOrderingKey(msg, q)
	case catalog.TypeMatching:
		return m.handleMatchingKey(key, q)
	}
	return m, nil
}

func (m *Model) handleBooleanKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "t", "y", "1":
		m.session.Submit(catalog.Answer{Bool: true})
	case "f", "n", "2":
		m.session.Submit(catalog.Answer{Bool: false})
	}
	return m, nil
}

func (m *Model) handleChoiceKey(key string, q *catalog.Question) (tea.Model, tea.Cmd) {
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(q.Options) {
		m.selected[n-1] = !m.selected[n-1]
		return m, nil
	}
	if key == "enter" {
		var picks []int
		for i := 0; i < len(q.Options); i++ {
			if m.selected[i] {
				picks = append(picks, i)
			}
		}
		if len(picks) > 0 {
			m.session.Submit(catalog.Answer{Selected: picks})
		}
	}
	return m, nil
}

func (m *Model) handleOrderingKey(msg tea.KeyMsg, q *catalog.Question) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		order := parseOrder(m.input.Value(), len(q.Items))
		if order != nil {
			m.session.Submit(catalog.Answer{Order: order})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMatchingKey(key string, q *catalog.Question) (tea.Model, tea.Cmd) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 1 || n > len(q.Pairs) {
		return m, nil
	}
	right := m.shuffledRights(q)
	if m.matchPos < len(q.Pairs) {
		m.matches[q.Pairs[m.matchPos].Left] = right[n-1]
		m.matchPos++
	}
	if m.matchPos >= len(q.Pairs) {
		m.session.Submit(catalog.Answer{Matches: m.matches})
	}
	return m, nil
}

// shuffledRights presents the right column in a stable scrambled order
// so the correct pairing isn't just "same row".
func (m *Model) shuffledRights(q *catalog.Question) []string {
	rights := make([]string, len(q.Pairs))
	for i, p := range q.Pairs {
		rights[(i+len(q.Pairs)/2)%len(q.Pairs)] = p.Right
	}
	return rights
}

// parseOrder turns a typed digit sequence like "312" into zero-based
// item indexes. Returns nil if the sequence isn't a permutation.
func parseOrder(s string, n int) []int {
	s = strings.TrimSpace(s)
	if len(s) != n {
		return nil
	}
	seen := make(map[int]bool, n)
	order := make([]int, 0, n)
	for _, r := range s {
		d := int(r - '1')
		if d < 0 || d >= n || seen[d] {
			return nil
		}
		seen[d] = true
		order = append(order, d)
	}
	return order
}

// resetInputFor clears per-question input state.
func (m *Model) resetInputFor(q *catalog.Question) {
	m.selected = make(map[int]bool)
	m.matchPos = 0
	m.matches = make(map[string]string)
	m.input.SetValue("")
	if q != nil && q.Type == catalog.TypeOrdering {
		m.input.Placeholder = "sequence, e.g. 312"
	}
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

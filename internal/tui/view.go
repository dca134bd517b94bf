package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/quiz"
)

// Palette for the app's bright-but-dark look.
var (
	colPrimary = lipgloss.Color("#8B5CF6")
	colSuccess = lipgloss.Color("#22C55E")
	colError   = lipgloss.Color("#F43F5E")
	colText    = lipgloss.Color("#F8FAFC")
	colDim     = lipgloss.Color("#94A3B8")
	colBorder  = lipgloss.Color("#334155")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colPrimary)
	promptStyle = lipgloss.NewStyle().Foreground(colText).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colDim)
	rightStyle  = lipgloss.NewStyle().Foreground(colSuccess).Bold(true)
	wrongStyle  = lipgloss.NewStyle().Foreground(colError).Bold(true)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colBorder).
			Padding(1, 2)
)

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}

	var body string
	switch m.session.State() {
	case quiz.StateComplete:
		body = m.renderComplete()
	case quiz.StateFeedback, quiz.StateTransitioning:
		body = m.renderFeedback()
	default:
		body = m.renderQuestion()
	}

	header := titleStyle.Render(m.trailTitle) + dimStyle.Render("  ·  "+m.phase.Title)
	timer := dimStyle.Render(fmt.Sprintf("%ds elapsed  ·  %d%% done",
		m.session.Elapsed(), m.trk.GetPhaseCompletionPercentage(m.phase.ID)))

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", timer)
	v.SetContent(lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content))
	return v
}

func (m *Model) renderQuestion() string {
	q := m.session.Current()
	if q == nil {
		return dimStyle.Render("Nothing to present.")
	}

	var b strings.Builder
	if m.session.State() == quiz.StateReviewPresenting {
		b.WriteString(wrongStyle.Render("Review") + dimStyle.Render(" — answer until correct") + "\n\n")
	}
	b.WriteString(promptStyle.Render(q.Prompt) + "\n\n")

	switch q.Type {
	case catalog.TypeBoolean:
		b.WriteString(dimStyle.Render("[t]rue / [f]alse"))

	case catalog.TypeChoice:
		for i, opt := range q.Options {
			marker := "  "
			if m.selected[i] {
				marker = rightStyle.Render("✓ ")
			}
			b.WriteString(fmt.Sprintf("%s%d. %s\n", marker, i+1, opt))
		}
		b.WriteString("\n" + dimStyle.Render("numbers toggle · enter submits"))

	case catalog.TypeOrdering:
		for i, item := range q.Items {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, item))
		}
		b.WriteString("\n" + m.input.View())
		b.WriteString("\n" + dimStyle.Render("type the correct sequence · enter submits"))

	case catalog.TypeMatching:
		rights := m.shuffledRights(q)
		for i, p := range q.Pairs {
			left := p.Left
			if i == m.matchPos {
				left = promptStyle.Render("▸ " + left)
			} else if got, ok := m.matches[p.Left]; ok {
				left = dimStyle.Render(left + " → " + got)
			}
			b.WriteString("  " + left + "\n")
		}
		b.WriteString("\n")
		for i, r := range rights {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, r))
		}
		b.WriteString("\n" + dimStyle.Render("pick the match for the highlighted entry"))
	}

	return cardStyle.Render(b.String())
}

func (m *Model) renderFeedback() string {
	if m.session.LastCorrect() {
		return cardStyle.Render(rightStyle.Render("Correct!") + "\n\n" + dimStyle.Render("press any key"))
	}
	return cardStyle.Render(wrongStyle.Render("Not quite.") + "\n\n" + dimStyle.Render("you'll see this one again · press any key"))
}

func (m *Model) renderComplete() string {
	if m.session.Abandoned() {
		return cardStyle.Render(dimStyle.Render("Session ended. Progress saved.") + "\n\n" + dimStyle.Render("press q to exit"))
	}
	var b strings.Builder
	b.WriteString(rightStyle.Render("Phase complete!") + "\n\n")
	b.WriteString(fmt.Sprintf("Time: %ds\n", m.session.Elapsed()))
	b.WriteString(fmt.Sprintf("Questions missed on first pass: %d\n", m.session.WrongCount()))
	b.WriteString("\n" + dimStyle.Render("press q to exit"))
	return cardStyle.Render(b.String())
}

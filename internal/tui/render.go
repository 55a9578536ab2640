package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quiztaker/internal/domain"
)

const barWidth = 30

// renderHeader renders the quiz title and progress bar.
func renderHeader(quiz domain.Quiz, progress domain.Progress, noColor bool) string {
	line := quiz.Title
	if quiz.Difficulty != "" {
		line += " | " + quiz.Difficulty
	}
	line += fmt.Sprintf(" | Question %d of %d", progress.Index+1, progress.Total)
	return lipgloss.JoinVertical(lipgloss.Left,
		stylize(line, noColor, lipgloss.Color("33")),
		renderBar(progress.Percent(), noColor),
	)
}

func renderBar(percent float64, noColor bool) string {
	filled := int(percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return stylize(fmt.Sprintf("%s %3.0f%%", bar, percent), noColor, lipgloss.Color("36"))
}

// renderTimer renders the countdown; untimed quizzes show nothing.
func renderTimer(quiz domain.Quiz, remaining int, warning, noColor bool) string {
	if !quiz.Timed() {
		return ""
	}
	line := "Time left " + domain.FormatRemaining(remaining)
	if warning {
		return stylize(line+"  hurry up!", noColor, lipgloss.Color("196"))
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

func renderChoices(choices []string, cursor int, answer string, answered, noColor bool) string {
	lines := make([]string, 0, len(choices))
	for i, choice := range choices {
		pointer := "  "
		if i == cursor {
			pointer = "> "
		}
		mark := "( ) "
		if answered && choice == answer {
			mark = "(x) "
		}
		line := pointer + mark + choice
		if answered && choice == answer {
			line = stylize(line, noColor, lipgloss.Color("42"))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderResult renders the graded outcome of a submission.
func renderResult(quiz domain.Quiz, result domain.Result, noColor bool) string {
	title := fmt.Sprintf("Score %d / %d", result.Score, result.Total)
	if result.Approximate {
		title += " (approximate)"
	}
	lines := []string{stylize(title, noColor, lipgloss.Color("33"))}
	for i, o := range result.Outcomes {
		text := o.QuestionID
		if q, ok := quiz.Question(o.QuestionID); ok && q.Text != "" {
			text = q.Text
		}
		verdict := "✗"
		color := lipgloss.Color("203")
		switch {
		case o.Source == domain.Ungraded:
			verdict = "?"
			color = lipgloss.Color("242")
		case o.IsCorrect:
			verdict = "✓"
			color = lipgloss.Color("42")
		}
		line := fmt.Sprintf("%s %d. %s: %s", verdict, i+1, text, answerText(o.UserAnswer))
		if !o.IsCorrect && o.CorrectAnswer != "" {
			line += " (correct: " + o.CorrectAnswer + ")"
		}
		lines = append(lines, stylize(line, noColor, color))
	}
	return strings.Join(lines, "\n")
}

func answerText(answer string) string {
	if answer == "" {
		return "no answer"
	}
	return answer
}

func renderIdle(noColor bool) string {
	return stylize("No quiz in progress.", noColor, lipgloss.Color("242"))
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrAborted is returned by Ask when the user cancels with Esc or Ctrl+C.
var ErrAborted = errors.New("prompt aborted")

// Question configures a one-line prompt.
type Question struct {
	Title       string
	Detail      string
	Placeholder string
	// Secret masks the typed value.
	Secret bool
}

type promptModel struct {
	q       Question
	value   []rune
	done    bool
	aborted bool
}

func newPromptModel(q Question) promptModel {
	return promptModel{q: q}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "backspace":
		if len(m.value) > 0 {
			m.value = m.value[:len(m.value)-1]
		}
	case "ctrl+u":
		m.value = nil
	default:
		switch key.Type {
		case tea.KeyRunes:
			m.value = append(m.value, key.Runes...)
		case tea.KeySpace:
			m.value = append(m.value, ' ')
		}
	}
	return m, nil
}

func (m promptModel) View() string {
	var b strings.Builder
	if m.q.Title != "" {
		b.WriteString(TitleStyle.Render(m.q.Title))
		b.WriteString("\n")
	}
	if m.q.Detail != "" {
		b.WriteString(DetailStyle.Render(m.q.Detail))
		b.WriteString("\n")
	}

	b.WriteString("> ")
	switch {
	case len(m.value) == 0 && !m.done:
		b.WriteString(PlaceholderStyle.Render(m.q.Placeholder))
	case m.q.Secret:
		b.WriteString(InputStyle.Render(strings.Repeat("*", len(m.value))))
	default:
		b.WriteString(InputStyle.Render(string(m.value)))
	}
	b.WriteString("\n")

	if !m.done && !m.aborted {
		b.WriteString(HelpStyle.Render("enter confirm • esc cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

// Ask runs the prompt and returns what was typed, surrounding spaces removed.
func Ask(q Question, opts ...tea.ProgramOption) (string, error) {
	final, err := tea.NewProgram(newPromptModel(q), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}
	m, ok := final.(promptModel)
	if !ok || m.aborted || !m.done {
		return "", ErrAborted
	}
	return strings.TrimSpace(string(m.value)), nil
}

// ReadAuthCode shows the Google consent URL and asks for the code it returns.
func ReadAuthCode(authURL string) (string, error) {
	return Ask(Question{
		Title:       "Gmail authorization",
		Detail:      "Open this link in your browser, approve access, then paste the code:\n" + authURL,
		Placeholder: "authorization code",
	})
}

// ReadPassword asks for a mailbox password without echoing it.
func ReadPassword(account string) (string, error) {
	return Ask(Question{
		Title:       "IMAP password",
		Detail:      "Password for " + account + " (stored in the system keyring)",
		Placeholder: "password",
		Secret:      true,
	})
}

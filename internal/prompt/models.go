// internal/prompt/models.go
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// outcome is shared by every prompt model.
type outcome struct {
	done     bool
	canceled bool
}

func (o *outcome) cancel() tea.Cmd {
	o.canceled = true
	return tea.Quit
}

func (o *outcome) finish() tea.Cmd {
	o.done = true
	return tea.Quit
}

// -- Confirm --

type confirmModel struct {
	outcome
	message string
	def     bool
	value   bool
}

func newConfirmModel(message string, def bool) confirmModel {
	return confirmModel{message: message, def: def}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		cmd := m.cancel()
		return m, cmd
	case "y", "Y":
		m.value = true
		cmd := m.finish()
		return m, cmd
	case "n", "N":
		m.value = false
		cmd := m.finish()
		return m, cmd
	case "enter":
		m.value = m.def
		cmd := m.finish()
		return m, cmd
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "No"
		if m.value {
			answer = "Yes"
		}
		return header(m.message) + " " + answerStyle.Render(answer) + "\n"
	}
	hint := "(y/N)"
	if m.def {
		hint = "(Y/n)"
	}
	return header(m.message) + " " + hintStyle.Render(hint) + " "
}

// -- ChooseOne --

type chooseModel struct {
	outcome
	message string
	options []string
	cursor  int
}

func newChooseModel(message string, options []string) chooseModel {
	return chooseModel{message: message, options: options}
}

func (m chooseModel) Init() tea.Cmd { return nil }

func (m chooseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		cmd := m.cancel()
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		cmd := m.finish()
		return m, cmd
	}
	return m, nil
}

func (m chooseModel) choice() string {
	return m.options[m.cursor]
}

func (m chooseModel) View() string {
	if m.done {
		return header(m.message) + " " + answerStyle.Render(m.choice()) + "\n"
	}
	var b strings.Builder
	b.WriteString(header(m.message) + " " + hintStyle.Render("(use arrow keys)") + "\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+opt) + "\n")
			continue
		}
		b.WriteString("  " + opt + "\n")
	}
	return b.String()
}

// -- NumberInput / TextInput --

type inputModel struct {
	outcome
	message string
	input   textinput.Model
	numeric bool
	def     int
	number  int
	errMsg  string
}

func newInputModel(message string, numeric bool, def int) inputModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	if numeric {
		ti.Placeholder = strconv.Itoa(def)
		ti.Validate = func(s string) error {
			if s == "" || s == "-" {
				return nil
			}
			_, err := strconv.Atoi(s)
			return err
		}
	}
	return inputModel{message: message, input: ti, numeric: numeric, def: def}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			cmd := m.cancel()
			return m, cmd
		case "enter":
			if !m.numeric {
				cmd := m.finish()
				return m, cmd
			}
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				m.number = m.def
				cmd := m.finish()
				return m, cmd
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				m.errMsg = fmt.Sprintf("%q is not a number", raw)
				return m, nil
			}
			m.number = n
			cmd := m.finish()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m inputModel) text() string {
	return m.input.Value()
}

func (m inputModel) View() string {
	if m.done {
		answer := m.text()
		if m.numeric {
			answer = strconv.Itoa(m.number)
		}
		return header(m.message) + " " + answerStyle.Render(answer) + "\n"
	}
	view := header(m.message) + " " + m.input.View()
	if m.errMsg != "" {
		view += "\n" + errorStyle.Render(m.errMsg)
	}
	return view
}

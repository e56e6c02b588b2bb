// internal/prompt/models_test.go
package prompt

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		done     bool
		canceled bool
		value    bool
	}{
		{"yes", keyRunes("y"), true, false, true},
		{"upper yes", keyRunes("Y"), true, false, true},
		{"no", keyRunes("n"), true, false, false},
		{"enter takes default", tea.KeyMsg{Type: tea.KeyEnter}, true, false, true},
		{"ctrl+c cancels", tea.KeyMsg{Type: tea.KeyCtrlC}, false, true, false},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, false, true, false},
		{"other keys ignored", keyRunes("x"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, cmd := newConfirmModel("Continue?", true).Update(tt.msg)
			m := model.(confirmModel)

			assert.Equal(t, tt.done, m.done)
			assert.Equal(t, tt.canceled, m.canceled)
			assert.Equal(t, tt.value, m.value)
			if tt.done || tt.canceled {
				require.NotNil(t, cmd)
				assert.IsType(t, tea.QuitMsg{}, cmd())
			} else {
				assert.Nil(t, cmd)
			}
		})
	}

	t.Run("view shows default hint", func(t *testing.T) {
		assert.Contains(t, newConfirmModel("Go?", true).View(), "(Y/n)")
		assert.Contains(t, newConfirmModel("Go?", false).View(), "(y/N)")
	})
}

func TestChooseModel(t *testing.T) {
	options := []string{"Register accounts from file", "Get tokens from registered accounts"}

	t.Run("enter picks the highlighted option", func(t *testing.T) {
		var model tea.Model = newChooseModel("Mode?", options)
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
		model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

		m := model.(chooseModel)
		assert.True(t, m.done)
		assert.Equal(t, options[1], m.choice())
		assert.NotNil(t, cmd)
	})

	t.Run("cursor is clamped", func(t *testing.T) {
		var model tea.Model = newChooseModel("Mode?", options)
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyUp})
		assert.Equal(t, 0, model.(chooseModel).cursor)

		for i := 0; i < 5; i++ {
			model, _ = model.Update(keyRunes("j"))
		}
		assert.Equal(t, 1, model.(chooseModel).cursor)
	})

	t.Run("ctrl+c cancels and quits", func(t *testing.T) {
		model, cmd := newChooseModel("Mode?", options).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		m := model.(chooseModel)
		assert.True(t, m.canceled)
		assert.False(t, m.done)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("view marks the cursor", func(t *testing.T) {
		view := newChooseModel("Mode?", options).View()
		assert.Contains(t, view, "> "+options[0])
	})
}

func TestInputModel(t *testing.T) {
	t.Run("number falls back to default on empty input", func(t *testing.T) {
		model, _ := newInputModel("How many?", true, 7).Update(tea.KeyMsg{Type: tea.KeyEnter})
		m := model.(inputModel)
		assert.True(t, m.done)
		assert.Equal(t, 7, m.number)
	})

	t.Run("number parses typed digits", func(t *testing.T) {
		var model tea.Model = newInputModel("How many?", true, 7)
		model, _ = model.Update(keyRunes("42"))
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m := model.(inputModel)
		assert.True(t, m.done)
		assert.Equal(t, 42, m.number)
	})

	t.Run("text returns what was typed", func(t *testing.T) {
		var model tea.Model = newInputModel("Name?", false, 0)
		model, _ = model.Update(keyRunes("alice"))
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m := model.(inputModel)
		assert.True(t, m.done)
		assert.Equal(t, "alice", m.text())
	})

	t.Run("esc cancels", func(t *testing.T) {
		model, _ := newInputModel("Name?", false, 0).Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.True(t, model.(inputModel).canceled)
	})
}

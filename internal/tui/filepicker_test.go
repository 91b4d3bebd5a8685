package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pickerDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x\n"), 0644))
	return dir
}

// loaded feeds the directory listing into the app, as tea.Program would.
func loaded(t *testing.T, app *FilePickerApp) {
	t.Helper()
	cmd := app.Init()
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestFilePicker_SelectsAllowedFile(t *testing.T) {
	dir := pickerDir(t)
	app := NewFilePickerApp(dir, []string{".csv"})
	loaded(t, app)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	result := app.GetResult()
	require.NotNil(t, result)
	assert.False(t, result.Canceled)
	assert.Equal(t, filepath.Join(dir, "a.csv"), result.Path)
}

func TestFilePicker_RejectsOtherTypes(t *testing.T) {
	app := NewFilePickerApp(pickerDir(t), []string{".csv"})
	loaded(t, app)

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, app.GetResult())
	assert.Contains(t, app.View(), "b.txt is not a .csv file")
}

func TestFilePicker_ViewHelp(t *testing.T) {
	app := NewFilePickerApp(pickerDir(t), []string{".csv"})
	loaded(t, app)

	view := app.View()
	assert.Contains(t, view, "Select the schedule table")
	assert.Contains(t, view, "a.csv")
	assert.Contains(t, view, "Enter: select, h/left: up, Esc: cancel")
}

func TestFilePicker_Cancel(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		t.Run(k.String(), func(t *testing.T) {
			app := NewFilePickerApp(pickerDir(t), []string{".csv"})
			loaded(t, app)

			_, cmd := app.Update(k)
			require.NotNil(t, cmd)
			assert.Equal(t, &FilePickerResult{Canceled: true}, app.GetResult())
		})
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/monitoria/schedconv/internal/table"
)

const filePickerHeight = 15

type filePickerModel struct {
	picker   filepicker.Model
	selected string
	notice   string
	done     bool
	canceled bool
}

// FilePickerResult holds the file the user picked.
type FilePickerResult struct {
	Path     string
	Canceled bool
}

// FilePickerApp wraps filePickerModel for standalone use with tea.NewProgram.
type FilePickerApp struct {
	picker filePickerModel
	result *FilePickerResult
}

func NewFilePickerApp(startDir string, allowedTypes []string) *FilePickerApp {
	return &FilePickerApp{
		picker: newFilePicker(startDir, allowedTypes),
	}
}

func (a *FilePickerApp) Init() tea.Cmd {
	return a.picker.Init()
}

func (a *FilePickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.picker.Update(msg)
	a.picker = m.(filePickerModel)

	if a.picker.done || a.picker.canceled {
		a.result = a.picker.Result()
		return a, tea.Quit
	}

	return a, cmd
}

func (a *FilePickerApp) View() string {
	return a.picker.View()
}

func (a *FilePickerApp) GetResult() *FilePickerResult {
	return a.result
}

func newFilePicker(startDir string, allowedTypes []string) filePickerModel {
	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	fp.AllowedTypes = allowedTypes
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.Height = filePickerHeight
	// Esc cancels the whole picker instead of walking up a directory.
	fp.KeyMap.Back = key.NewBinding(
		key.WithKeys("h", "backspace", "left"),
		key.WithHelp("h", "back"),
	)

	return filePickerModel{picker: fp}
}

func (m filePickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m filePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.canceled = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.selected = path
		m.done = true
		return m, cmd
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = fmt.Sprintf("%s is not a %s file", path, strings.Join(m.picker.AllowedTypes, "/"))
	}

	return m, cmd
}

func (m filePickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select the schedule table"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.picker.CurrentDirectory))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.notice))
	}

	b.WriteString(helpStyle.Render("\nEnter: select, h/left: up, Esc: cancel"))

	return b.String()
}

func (m filePickerModel) Result() *FilePickerResult {
	if m.canceled {
		return &FilePickerResult{Canceled: true}
	}
	return &FilePickerResult{Path: m.selected}
}

// PickerSource asks the user for the table interactively.
type PickerSource struct {
	StartDir     string
	AllowedTypes []string
	// Options are passed to tea.NewProgram, e.g. tea.WithOutput(os.Stderr)
	// so the picker does not mix with the JSON on stdout.
	Options []tea.ProgramOption
}

var _ table.Source = PickerSource{}

func (s PickerSource) Select(ctx context.Context) (string, error) {
	dir := s.StartDir
	if dir == "" {
		dir = "."
	}
	types := s.AllowedTypes
	if len(types) == 0 {
		types = []string{".csv"}
	}

	app := NewFilePickerApp(dir, types)
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, s.Options...)
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		return "", fmt.Errorf("running file picker: %w", err)
	}

	result := app.GetResult()
	if result == nil || result.Canceled || result.Path == "" {
		return "", table.ErrNoSelection
	}
	return result.Path, nil
}

package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickerEntry is one row in the file picker listing.
type pickerEntry struct {
	name  string
	isDir bool
}

// FilePickerModel is a single-select filesystem browser. Enter on a
// directory descends into it, Enter on a file chooses it, Esc cancels.
type FilePickerModel struct {
	dir     string
	prompt  string
	entries []pickerEntry
	err     error

	cursor    int
	chosen    string
	cancelled bool
	done      bool

	width  int
	height int
	ready  bool
}

// NewFilePickerModel creates a picker rooted at dir. An empty dir starts
// in the current working directory.
func NewFilePickerModel(dir, prompt string) FilePickerModel {
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	m := FilePickerModel{dir: dir, prompt: prompt}
	m.loadDir()
	return m
}

// loadDir refreshes the entry list for the current directory. Hidden
// entries are skipped; directories sort before files.
func (m *FilePickerModel) loadDir() {
	m.entries = nil
	m.cursor = 0
	m.err = nil

	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		m.err = err
		return
	}

	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m.entries = append(m.entries, pickerEntry{name: e.Name(), isDir: e.IsDir()})
	}
	sort.Slice(m.entries, func(i, j int) bool {
		if m.entries[i].isDir != m.entries[j].isDir {
			return m.entries[i].isDir
		}
		return m.entries[i].name < m.entries[j].name
	})
}

// Init initializes the model
func (m FilePickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m FilePickerModel) Update(msg tea.Msg) (FilePickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.done = true
			return m, nil

		case "up", "k":
			if len(m.entries) > 0 {
				m.cursor--
				if m.cursor < 0 {
					m.cursor = len(m.entries) - 1
				}
			}

		case "down", "j":
			if len(m.entries) > 0 {
				m.cursor++
				if m.cursor >= len(m.entries) {
					m.cursor = 0
				}
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			if len(m.entries) > 0 {
				m.cursor = len(m.entries) - 1
			}

		case "backspace", "left", "h":
			parent := filepath.Dir(m.dir)
			if parent != m.dir {
				m.dir = parent
				m.loadDir()
			}

		case "enter", "right", "l":
			if m.cursor >= 0 && m.cursor < len(m.entries) {
				entry := m.entries[m.cursor]
				path := filepath.Join(m.dir, entry.name)
				if entry.isDir {
					m.dir = path
					m.loadDir()
				} else {
					m.chosen = path
					m.done = true
					return m, nil
				}
			}
		}
	}

	return m, nil
}

// View renders the TUI
func (m FilePickerModel) View() string {
	if !m.ready {
		return "  Initializing..."
	}

	var b strings.Builder

	pickerHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		MarginBottom(1)

	prompt := m.prompt
	if prompt == "" {
		prompt = "Select a file"
	}
	b.WriteString(pickerHeaderStyle.Render(prompt))
	b.WriteString("\n")

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	b.WriteString(dimStyle.Render("  " + m.dir))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  cannot read directory: %v", m.err)))
		b.WriteString("\n")
	} else if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("  (empty directory)"))
		b.WriteString("\n")
	} else {
		maxVisible := m.height - 8
		if maxVisible < 3 {
			maxVisible = 3
		}

		startIdx := 0
		if m.cursor >= maxVisible {
			startIdx = m.cursor - maxVisible + 1
		}
		endIdx := startIdx + maxVisible
		if endIdx > len(m.entries) {
			endIdx = len(m.entries)
		}

		cursorStyle := lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
		dirStyle := lipgloss.NewStyle().
			Foreground(colorPrimary)

		for i := startIdx; i < endIdx; i++ {
			entry := m.entries[i]

			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}

			name := entry.name
			if entry.isDir {
				name += "/"
			}
			maxNameLen := m.width - 6
			if maxNameLen < 20 {
				maxNameLen = 20
			}
			if len(name) > maxNameLen {
				name = name[:maxNameLen-3] + "..."
			}

			switch {
			case i == m.cursor:
				b.WriteString(cursor + cursorStyle.Render(name) + "\n")
			case entry.isDir:
				b.WriteString(cursor + dirStyle.Render(name) + "\n")
			default:
				b.WriteString(cursor + name + "\n")
			}
		}

		if endIdx < len(m.entries) {
			b.WriteString(dimStyle.Render("  ↓ more below"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := "  Enter: select  Backspace: up  Esc: cancel"
	b.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render(help))

	return b.String()
}

// IsDone reports whether the picker finished, by choice or cancellation.
func (m FilePickerModel) IsDone() bool {
	return m.done
}

// IsCancelled reports whether the user cancelled.
func (m FilePickerModel) IsCancelled() bool {
	return m.cancelled
}

// Chosen returns the selected file path, or "" when cancelled.
func (m FilePickerModel) Chosen() string {
	return m.chosen
}

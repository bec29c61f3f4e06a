package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"filechat/internal/models"
	"filechat/internal/orchestrator"
	"filechat/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// chatDoneMsg is sent when a chat exchange finishes. A non-nil
	// directive means the server wants a file and the picker must open.
	chatDoneMsg struct {
		directive orchestrator.Directive
	}
	// uploadDoneMsg is sent when a picked file finished uploading.
	uploadDoneMsg struct{}
	// copiedMsg is sent after a clipboard copy attempt.
	copiedMsg struct {
		err error
	}
)

// pickerPurpose says what happens with the file the picker returns.
type pickerPurpose int

const (
	pickerAttach    pickerPurpose = iota // stash locally, no upload
	pickerDirective                      // upload per the pending directive
)

// Model represents the chat TUI state
type Model struct {
	orch       *orchestrator.Orchestrator
	serviceURL string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading        bool
	ready          bool
	err            error
	statusNote     string
	animationFrame int

	// File picker state
	picking       bool
	picker        FilePickerModel
	pickerGoal    pickerPurpose
	pendingUpload orchestrator.Directive

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(orch *orchestrator.Orchestrator, serviceURL string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		orch:       orch,
		serviceURL: serviceURL,
		textarea:   ta,
		spinner:    s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.picking {
		return m.updatePicker(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// Operations cannot be cancelled; input stays disabled until
			// the orchestrator reports back.
			if !m.loading {
				return m, tea.Quit
			}

		case "ctrl+a":
			if !m.loading {
				m.picking = true
				m.pickerGoal = pickerAttach
				m.picker = NewFilePickerModel("", "Attach a file")
				m.picker.width = m.width
				m.picker.height = m.height
				m.picker.ready = m.ready
				return m, nil
			}

		case "ctrl+r":
			if !m.loading {
				m.orch.RemoveAttachedFile()
				m.statusNote = "attachment removed"
			}

		case "ctrl+y":
			if text := m.lastAssistantText(); text != "" {
				return m, copyToClipboard(text)
			}

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if !m.loading && input != "" {
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				m.loading = true
				m.err = nil
				m.statusNote = ""
				m.animationFrame = 0
				m.textarea.Reset()

				return m, tea.Batch(
					m.sendChat(input),
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case chatDoneMsg:
		m.loading = false
		m.updateViewport()
		m.viewport.GotoBottom()
		if msg.directive != nil {
			m.picking = true
			m.pickerGoal = pickerDirective
			m.pendingUpload = msg.directive
			m.picker = NewFilePickerModel("", msg.directive.Prompt())
			m.picker.width = m.width
			m.picker.height = m.height
			m.picker.ready = m.ready
		}

	case uploadDoneMsg:
		m.loading = false
		m.pendingUpload = nil
		m.updateViewport()
		m.viewport.GotoBottom()

	case copiedMsg:
		if msg.err != nil {
			m.statusNote = "copy failed: " + msg.err.Error()
		} else {
			m.statusNote = "copied to clipboard"
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// updatePicker handles updates while the file picker is open.
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = sizeMsg.Width
		m.height = sizeMsg.Height
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if !m.picker.IsDone() {
		return m, cmd
	}

	m.picking = false

	if m.picker.IsCancelled() {
		m.pendingUpload = nil
		m.statusNote = "cancelled"
		return m, cmd
	}

	path := m.picker.Chosen()
	switch m.pickerGoal {
	case pickerAttach:
		m.orch.AttachFile(path)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, cmd

	case pickerDirective:
		directive := m.pendingUpload
		m.loading = true
		m.animationFrame = 0
		return m, tea.Batch(
			m.uploadFile(path, directive),
			m.spinner.Tick,
			animationTick(),
		)
	}

	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.picking {
		return m.picker.View()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ File Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.serviceURL),
	}
	if attached := m.orch.Attached(); attached != nil {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			attachmentStyle.Render("📎 "+attached.Name),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages area
	var messagesContent string
	if len(m.orch.Messages()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input area
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Status bar
	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to File Chat")
	subtitle := welcomeStyle.Width(width).Render("Ask about a file, or press Ctrl+A to attach one first")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	label := "Assistant is thinking"
	if m.pendingUpload != nil {
		label = "Uploading file"
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + label + " ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+A", "Attach"},
		{"Ctrl+R", "Detach"},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := strings.Join(items, "  │  ")
	if m.statusNote != "" {
		bar += "  │  " + hintStyle.Render(m.statusNote)
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// sendChat creates a command that runs one chat exchange.
func (m Model) sendChat(text string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		directive := orch.SendMessage(context.Background(), text)
		return chatDoneMsg{directive: directive}
	}
}

// uploadFile creates a command that uploads a picked file.
func (m Model) uploadFile(path string, directive orchestrator.Directive) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		orch.HandleFileSelect(context.Background(), path, directive)
		return uploadDoneMsg{}
	}
}

// copyToClipboard creates a command that copies text to the clipboard.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

// lastAssistantText returns the most recent assistant message, or "".
func (m Model) lastAssistantText() string {
	msgs := m.orch.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == models.KindAssistant {
			return msgs[i].Text
		}
	}
	return ""
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.orch.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.Kind {
		case models.KindUser:
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)

		case models.KindAssistant:
			label := assistantLabelStyle.Render("✦ Assistant")
			rendered, err := render.MarkdownWithWidth(msg.Text, bubbleWidth-4)
			if err != nil {
				rendered = msg.Text
			}
			rendered = strings.TrimRight(rendered, "\n")
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)

		case models.KindSystem:
			content.WriteString(systemStyle.Render("· " + msg.Text))

		case models.KindError:
			content.WriteString(errorBubbleStyle.Render("⚠ " + msg.Text))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI.
func RunChat(orch *orchestrator.Orchestrator, serviceURL string) error {
	m := NewChatModel(orch, serviceURL)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}

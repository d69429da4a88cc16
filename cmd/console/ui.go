package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/cabin-escape/pkg/engine"
	"github.com/jwebster45206/cabin-escape/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// It only renders views and forwards intents; all game logic runs on the server.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *APIClient
	view         *engine.View
	roomViewport viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string

	updates chan engine.View
	cancel  context.CancelFunc

	showResetModal bool
	showQuitModal  bool
}

type viewMsg struct {
	view *engine.View
	err  error
}

type liveUpdateMsg struct {
	view engine.View
}

type statusMsg string

var (
	roomPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(1)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	objectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	exitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	equippedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(api *APIClient) ConsoleUI {
	ctx, cancel := context.WithCancel(context.Background())
	m := ConsoleUI{
		api:          api,
		roomViewport: viewport.New(50, 20),
		metaViewport: viewport.New(20, 20),
		updates:      make(chan engine.View, 8),
		cancel:       cancel,
	}
	go func() {
		if err := api.listenForUpdates(ctx, m.updates); err != nil {
			m.updates <- engine.View{}
		}
	}()
	return m
}

// Close stops the live update stream.
func (m ConsoleUI) Close() {
	m.cancel()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.fetchView(), m.waitForUpdate())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showResetModal {
		return m.updateResetModal(msg)
	}

	var (
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		roomWidth := int(float64(m.width)*0.65) - 4
		metaWidth := m.width - roomWidth - 6

		m.roomViewport.Width = roomWidth - 2
		m.roomViewport.Height = m.height - 4
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case viewMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.setView(msg.view)
			if msg.view.Outcome != nil {
				m.status = outcomeText(msg.view)
			}
		}
		m.refresh()

	case liveUpdateMsg:
		if msg.view.State.Scene == "" {
			m.status = "Live updates disconnected."
			m.refresh()
			return m, nil
		}
		v := msg.view
		m.setView(&v)
		m.refresh()
		return m, m.waitForUpdate()

	case statusMsg:
		m.status = string(msg)
		m.refresh()
	}

	m.roomViewport, vpCmd = m.roomViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m *ConsoleUI) setView(v *engine.View) {
	if m.view != nil && m.view.State.Scene != v.State.Scene {
		m.status = ""
	}
	m.view = v
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.showQuitModal = true
		return m, nil
	case tea.KeyLeft:
		return m, m.send(engine.Intent{Type: engine.IntentNavigate, Direction: state.Left})
	case tea.KeyRight:
		return m, m.send(engine.Intent{Type: engine.IntentNavigate, Direction: state.Right})
	}

	switch key := msg.String(); key {
	case "1", "2", "3", "4":
		catalog := state.Catalog()
		idx := int(key[0] - '1')
		if idx < len(catalog) {
			return m, m.send(engine.Intent{Type: engine.IntentEquip, Item: catalog[idx].ID})
		}
	case "u", " ":
		return m, m.send(engine.Intent{Type: engine.IntentUse})
	case "h":
		return m, m.send(engine.Intent{Type: engine.IntentHome})
	case "n":
		return m, m.send(engine.Intent{Type: engine.IntentNew})
	case "c":
		return m, m.send(engine.Intent{Type: engine.IntentContinue})
	case "r":
		m.showResetModal = true
		return m, nil
	case "y":
		return m, m.copySave()
	case "q":
		m.showQuitModal = true
		return m, nil
	}
	return m, nil
}

func (m ConsoleUI) send(in engine.Intent) tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.sendIntent(in)
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) fetchView() tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.getView()
		return viewMsg{view: view, err: err}
	}
}

func (m ConsoleUI) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return liveUpdateMsg{view: <-m.updates}
	}
}

func (m ConsoleUI) copySave() tea.Cmd {
	if m.view == nil {
		return nil
	}
	gs := m.view.State
	return func() tea.Msg {
		data, err := json.MarshalIndent(gs, "", "  ")
		if err != nil {
			return statusMsg("Could not encode save: " + err.Error())
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return statusMsg("Clipboard unavailable: " + err.Error())
		}
		return statusMsg("Save copied to clipboard.")
	}
}

func outcomeText(v *engine.View) string {
	out := v.Outcome
	switch {
	case out.Escape:
		return "CRACK! The boards give way..."
	case out.Applied && out.Granted != state.ItemNone:
		return fmt.Sprintf("You found the %s!", out.Granted.Label())
	case out.Applied:
		return "It worked."
	case v.EscapePending:
		return ""
	}
	return "Nothing happens."
}

func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	m.roomViewport.SetContent(writeRoom(m.view, m.status, m.err, m.roomViewport.Width))
	m.metaViewport.SetContent(writeMetadata(m.view))
}

func writeRoom(v *engine.View, status string, err error, width int) string {
	var content strings.Builder
	if v == nil {
		content.WriteString(loadingStyle.Render("Loading..."))
		return content.String()
	}
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}

	content.WriteString(titleStyle.Render(strings.ToUpper(v.Title)) + "\n\n")
	content.WriteString(wordwrap.String(v.Description, wrap) + "\n\n")

	if v.Object != "" {
		content.WriteString(objectStyle.Render("You see: "+v.Object) + "\n\n")
	}

	var exits []string
	if v.Exits.Left != "" {
		exits = append(exits, "← "+v.Exits.Left.Title())
	}
	if v.Exits.Right != "" {
		exits = append(exits, v.Exits.Right.Title()+" →")
	}
	if len(exits) > 0 {
		content.WriteString(exitStyle.Render(strings.Join(exits, "    ")) + "\n\n")
	}

	content.WriteString(separatorStyle.Render(strings.Repeat("─", wrap)) + "\n\n")
	content.WriteString(promptStyle.Render(wordwrap.String(v.Hint, wrap)) + "\n")

	if v.EscapePending {
		content.WriteString("\n" + loadingStyle.Render("Escaping...") + "\n")
	}
	if status != "" {
		content.WriteString("\n" + wordwrap.String(status, wrap) + "\n")
	}
	if err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+err.Error()) + "\n")
	}
	return content.String()
}

func writeMetadata(v *engine.View) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("INVENTORY") + "\n\n")

	if v != nil {
		for i, info := range state.Catalog() {
			if !v.State.Has(info.ID) {
				content.WriteString(promptStyle.Render(fmt.Sprintf("%d  ---", i+1)) + "\n")
				continue
			}
			line := fmt.Sprintf("%d  %s %s", i+1, info.Icon, info.Label)
			if v.State.Equipped == info.ID {
				line = equippedStyle.Render(line)
			}
			content.WriteString(line + "\n")
		}
		content.WriteString(fmt.Sprintf("\nProgress: %d/%d\n", v.State.Flags.Len(), len(state.Flags)))
	}

	content.WriteString("\n")
	content.WriteString("Keys:\n")
	content.WriteString("• ←/→: Move\n")
	content.WriteString("• 1-4: Equip\n")
	content.WriteString("• u: Use\n")
	content.WriteString("• h: Home\n")
	content.WriteString("• n: New game\n")
	content.WriteString("• c: Continue\n")
	content.WriteString("• r: Reset\n")
	content.WriteString("• y: Copy save\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

func (m ConsoleUI) updateResetModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y", "enter":
			m.showResetModal = false
			api := m.api
			return m, func() tea.Msg {
				view, err := api.resetGame()
				return viewMsg{view: view, err: err}
			}
		case "n", "N", "esc":
			m.showResetModal = false
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderModal(title, body, prompt string) string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(body)
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render(prompt))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderModal("Quit Game?", "Your progress is saved automatically.", "Press Y to quit, N to keep playing")
	}
	if m.showResetModal {
		return m.renderModal("Reset Game?", "This erases your save and every item you found.", "Press Y to reset, N to cancel")
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	roomWidth := int(float64(m.width)*0.65) - 4
	metaWidth := m.width - roomWidth - 6

	roomPanel := roomPanelStyle.Width(roomWidth).Height(m.height - 2).Render(m.roomViewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, roomPanel, metaPanel)
}

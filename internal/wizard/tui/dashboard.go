package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/controller"
	"github.com/kdarrow/blescribe/internal/payload"
)

// Messages for async dashboard operations
type sendResultMsg struct {
	receipt controller.WriteReceipt
	err     error
}

type disconnectedMsg struct {
	err error
}

// dashboardKeyMap defines key bindings for the connected-device screen
type dashboardKeyMap struct {
	Send       key.Binding
	Disconnect key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Disconnect, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Disconnect, k.Quit},
	}
}

// DashboardModel represents the connected-device screen state
type DashboardModel struct {
	Session *controller.Session
	Device  ble.Device

	// Send state
	Sending     bool
	LastReceipt controller.WriteReceipt
	LastSendOK  bool
	SendErr     error

	// Input state
	PayloadInput textinput.Model

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    dashboardKeyMap
}

// NewDashboardModel creates a new dashboard model for a connected device
func NewDashboardModel(session *controller.Session, device ble.Device) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	// Initialize payload input
	payloadInput := textinput.New()
	payloadInput.Placeholder = "text to send"
	payloadInput.CharLimit = 256
	payloadInput.Width = 40
	payloadInput.SetValue(session.Payload())
	payloadInput.Focus()

	// Initialize help
	h := help.New()

	keys := dashboardKeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "disconnect"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}

	return DashboardModel{
		Session:      session,
		Device:       device,
		PayloadInput: payloadInput,
		Spinner:      s,
		Help:         h,
		Keys:         keys,
	}
}

// Init initializes the dashboard model
func (m DashboardModel) Init() tea.Cmd {
	return textinput.Blink
}

// sendPayloadCmd writes the staged payload over the active connection
func sendPayloadCmd(s *controller.Session) tea.Cmd {
	return func() tea.Msg {
		receipt, err := s.SendPayload()
		return sendResultMsg{receipt: receipt, err: err}
	}
}

// disconnectCmd tears down the active connection
func disconnectCmd(s *controller.Session) tea.Cmd {
	return func() tea.Msg {
		return disconnectedMsg{err: s.Disconnect()}
	}
}

// Update handles messages and updates the model
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Sending {
			// Input is ignored while a write is in flight.
			return m, nil
		}

		switch msg.String() {
		case "enter":
			m.Session.SetPayload(m.PayloadInput.Value())
			m.Sending = true
			m.LastSendOK = false
			m.SendErr = nil
			return m, tea.Batch(sendPayloadCmd(m.Session), m.Spinner.Tick)

		case "esc":
			return m, disconnectCmd(m.Session)
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case sendResultMsg:
		m.Sending = false
		if msg.err != nil {
			m.SendErr = msg.err
			return m, nil
		}
		m.LastReceipt = msg.receipt
		m.LastSendOK = true
		return m, nil

	case spinner.TickMsg:
		if m.Sending {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Update the text input
	m.PayloadInput, cmd = m.PayloadInput.Update(msg)
	return m, cmd
}

// View renders the dashboard screen
func (m DashboardModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(RenderTitle("CONNECTED: " + m.Device.DisplayName()))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("  " + m.Device.ID))
	b.WriteString("\n\n")

	b.WriteString(m.renderServiceTable())
	b.WriteString("\n")
	b.WriteString(m.renderSendPanel())

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

// renderServiceTable renders the discovered services and characteristics
func (m DashboardModel) renderServiceTable() string {
	services := m.Session.Services()
	if len(services) == 0 {
		return InfoBoxStyle.Render("No services discovered")
	}

	var b strings.Builder
	uuidStyle := lipgloss.NewStyle().Foreground(SubtleColor)
	flagStyle := lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)

	for _, svc := range services {
		b.WriteString(fmt.Sprintf("Service %s\n", svc.UUID()))
		chars := svc.Characteristics()
		if len(chars) == 0 {
			b.WriteString(uuidStyle.Render("  (no characteristics)"))
			b.WriteString("\n")
			continue
		}
		for _, ch := range chars {
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				uuidStyle.Render(ch.UUID()),
				flagStyle.Render("["+ch.Properties().String()+"]")))
		}
	}

	return InfoBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderSendPanel renders the payload input and the last send outcome
func (m DashboardModel) renderSendPanel() string {
	var b strings.Builder

	b.WriteString("  Payload: ")
	b.WriteString(m.PayloadInput.View())
	b.WriteString("\n")
	encoded := payload.EncodedLen(m.PayloadInput.Value())
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  %d bytes base64-encoded", encoded)))
	b.WriteString("\n\n")

	switch {
	case m.Sending:
		b.WriteString(fmt.Sprintf("  %s Writing...", m.Spinner.View()))
		b.WriteString("\n")

	case m.SendErr != nil:
		b.WriteString(ErrorBoxStyle.Render(fmt.Sprintf("✗ Send failed: %v", m.SendErr)))
		b.WriteString("\n")

	case m.LastSendOK:
		detail := fmt.Sprintf("✓ Sent %d bytes\n  service        %s\n  characteristic %s",
			m.LastReceipt.EncodedLen,
			m.LastReceipt.ServiceUUID,
			m.LastReceipt.CharacteristicUUID)
		b.WriteString(SuccessBoxStyle.Render(detail))
		b.WriteString("\n")
	}

	return b.String()
}

package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/config"
	"github.com/kdarrow/blescribe/internal/controller"
)

// Messages for async scan operations
type scanStartedMsg struct {
	err error
}

type deviceFoundMsg struct {
	device ble.Device
}

type scanEndedMsg struct{}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Stop   key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Stop, k.Manual, k.Quit},
	}
}

// manualModeKeyMap defines key bindings for manual identifier entry mode
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.Confirm, m.Cancel},
	}
}

// scanningKeyMap defines key bindings while a scan is running
type scanningKeyMap struct {
	Stop key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (s scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{s.Stop, s.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (s scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{s.Stop, s.Quit},
	}
}

// deviceItem wraps a discovered peripheral for use with bubbles/list
type deviceItem struct {
	device   ble.Device
	nickname string
}

// FilterValue implements list.Item; filter by identifier, name, or nickname
func (d deviceItem) FilterValue() string {
	return d.device.ID + " " + d.device.Name + " " + d.nickname
}

// Title returns the device name for list display
func (d deviceItem) Title() string {
	if d.nickname != "" {
		return d.nickname
	}
	return d.device.DisplayName()
}

// Description returns device details for list display
func (d deviceItem) Description() string {
	return fmt.Sprintf("%s • %ddBm", d.device.ID, d.device.RSSI)
}

// deviceDelegate is a custom list delegate for rendering device cards
type deviceDelegate struct {
	width int
}

func (d deviceDelegate) Height() int { return 7 } // Card height including borders

func (d deviceDelegate) Spacing() int { return 1 } // Spacing between cards

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deviceItem)
	if !ok {
		return
	}

	selected := index == m.Index()

	var content strings.Builder

	// Add selection indicator to device name
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + di.Title()))
	} else {
		content.WriteString("  " + di.Title())
	}
	content.WriteString("\n\n")

	// Device details
	content.WriteString(fmt.Sprintf("  ID:     %s\n", di.device.ID))
	name := di.device.Name
	if name == "" {
		name = "(not advertised)"
	}
	content.WriteString(fmt.Sprintf("  Name:   %s\n", name))

	signalStyle := lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	content.WriteString(fmt.Sprintf("  Signal: %s", signalStyle.Render(fmt.Sprintf("%ddBm", di.device.RSSI))))

	// Create responsive card style
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2).
		MarginLeft(2)

	// Calculate card width (leave room for margins and borders)
	cardWidth := d.width - 6
	if cardWidth < MinTerminalWidth-6 {
		cardWidth = MinTerminalWidth - 6
	}
	if cardWidth > MaxContentWidth-6 {
		cardWidth = MaxContentWidth - 6
	}

	cardStyle = cardStyle.Width(cardWidth)

	// Highlight selected card
	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// DiscoveryModel represents the peripheral discovery screen state
type DiscoveryModel struct {
	Session  *controller.Session
	Registry *config.Registry

	// Discovery state
	Scanning   bool
	Connecting bool
	DeviceList list.Model
	Selected   bool
	Err        error

	// Manual identifier entry state
	ManualMode bool
	IDInput    textinput.Model

	// UI state
	Width         int
	Height        int
	Spinner       spinner.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          discoveryKeyMap
	ManualKeys    manualModeKeyMap
	ScanningKeys  scanningKeyMap
}

// NewDiscoveryModel creates a new discovery screen model
func NewDiscoveryModel(session *controller.Session, registry *config.Registry) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	// Initialize identifier input
	idInput := textinput.New()
	idInput.Placeholder = "D4:3A:1B:00:12:9F"
	idInput.CharLimit = 40
	idInput.Width = 40

	// Initialize device list with custom delegate
	delegate := deviceDelegate{width: MinTerminalWidth}
	deviceList := list.New([]list.Item{}, delegate, 0, 0)
	deviceList.Title = "Discovered Peripherals"
	deviceList.SetShowStatusBar(false)
	deviceList.SetFilteringEnabled(true)
	deviceList.Styles.Title = TitleStyle

	// Initialize help
	h := help.New()

	// Initialize key bindings for normal mode
	keys := discoveryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "connect"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop scan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual ID"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	// Initialize key bindings for manual entry mode
	manualKeys := manualModeKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	// Initialize key bindings for scanning mode
	scanningKeys := scanningKeyMap{
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop scan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return DiscoveryModel{
		Session:      session,
		Registry:     registry,
		Scanning:     false,
		DeviceList:   deviceList,
		Selected:     false,
		ManualMode:   false,
		IDInput:      idInput,
		Spinner:      s,
		Help:         h,
		Keys:         keys,
		ManualKeys:   manualKeys,
		ScanningKeys: scanningKeys,
	}
}

// Init initializes the discovery model
func (m DiscoveryModel) Init() tea.Cmd {
	// Start scanning immediately
	return tea.Batch(
		startScanCmd(m.Session),
		m.Spinner.Tick,
	)
}

// startScanCmd begins a scan on the controller session
func startScanCmd(s *controller.Session) tea.Cmd {
	return func() tea.Msg {
		return scanStartedMsg{err: s.StartScan(context.Background())}
	}
}

// waitForDiscoveryCmd waits for the next discovery event or the end of
// the scan
func waitForDiscoveryCmd(s *controller.Session) tea.Cmd {
	events := s.DiscoveryEvents()
	done := s.ScanDone()
	return func() tea.Msg {
		if events == nil {
			return scanEndedMsg{}
		}
		select {
		case dev, ok := <-events:
			if !ok {
				return scanEndedMsg{}
			}
			return deviceFoundMsg{device: dev}
		case <-done:
			return scanEndedMsg{}
		}
	}
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Connecting {
			// Input is ignored while a connection attempt is in flight.
			return m, nil
		}
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Update list size
		m.DeviceList.SetWidth(msg.Width - 4)
		m.DeviceList.SetHeight(msg.Height - 10) // Leave room for header/footer

	case scanStartedMsg:
		if msg.err != nil {
			m.Scanning = false
			m.Err = msg.err
			return m, nil
		}
		m.Scanning = true
		m.Err = nil
		m.ScanStartTime = time.Now()
		m.DeviceList.SetItems([]list.Item{})
		return m, tea.Batch(waitForDiscoveryCmd(m.Session), m.Spinner.Tick)

	case deviceFoundMsg:
		m.appendDevice(msg.device)
		return m, waitForDiscoveryCmd(m.Session)

	case scanEndedMsg:
		m.Scanning = false
		// Rebuild from the session snapshot so buffered events that raced
		// the end of the scan still appear.
		m.setDevices(m.Session.Devices())
		return m, nil

	case spinner.TickMsg:
		if m.Scanning || m.Connecting {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Update list if not in manual mode
	if !m.ManualMode {
		m.DeviceList, cmd = m.DeviceList.Update(msg)
	}

	return m, cmd
}

// appendDevice adds one newly discovered device to the list
func (m *DiscoveryModel) appendDevice(dev ble.Device) {
	item := deviceItem{device: dev, nickname: m.nicknameFor(dev.ID)}
	m.DeviceList.SetItems(append(m.DeviceList.Items(), item))
}

// setDevices replaces the list contents with the given snapshot
func (m *DiscoveryModel) setDevices(devices []ble.Device) {
	items := make([]list.Item, len(devices))
	for i, dev := range devices {
		items[i] = deviceItem{device: dev, nickname: m.nicknameFor(dev.ID)}
	}
	m.DeviceList.SetItems(items)
}

func (m *DiscoveryModel) nicknameFor(id string) string {
	if m.Registry == nil {
		return ""
	}
	return m.Registry.Nickname(id)
}

// updateNormalMode handles keyboard input in normal device list mode
func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list filter is active, all keys belong to the filter input.
	if m.DeviceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.DeviceList, cmd = m.DeviceList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter", " ":
		// Get selected device from list; the app model performs the
		// connection.
		if m.DeviceList.SelectedItem() != nil {
			m.Selected = true
			return m, nil
		}

	case "r":
		// Rescan
		m.DeviceList.SetItems([]list.Item{})
		m.Err = nil
		return m, tea.Batch(
			startScanCmd(m.Session),
			m.Spinner.Tick,
		)

	case "s":
		if m.Scanning {
			m.Session.StopScan()
		}

	case "m":
		// Switch to manual identifier entry mode
		m.ManualMode = true
		m.IDInput.SetValue("")
		m.IDInput.Focus()
		return m, nil
	}

	// Let the list handle up/down navigation and filtering
	var cmd tea.Cmd
	m.DeviceList, cmd = m.DeviceList.Update(msg)
	return m, cmd
}

// updateManualMode handles keyboard input in manual identifier entry mode
func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "ctrl+c", "esc":
		// Cancel manual entry
		m.ManualMode = false
		m.IDInput.SetValue("")
		m.IDInput.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.IDInput.Value())
		if value != "" {
			// Create device from manual identifier
			device := ble.Device{
				ID:           value,
				DiscoveredAt: time.Now(),
			}
			newItem := deviceItem{device: device, nickname: m.nicknameFor(value)}
			items := append([]list.Item{newItem}, m.DeviceList.Items()...)
			m.DeviceList.SetItems(items)
			m.DeviceList.Select(0) // Select the newly added item
			m.ManualMode = false
			m.IDInput.SetValue("")
			m.IDInput.Blur()
			return m, nil
		}
	}

	// Update the text input
	m.IDInput, cmd = m.IDInput.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	// Use default width if not set
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	// Build main content area
	var content string
	switch {
	case m.Connecting:
		content = m.renderCentered(width, "CONNECTING", "Connecting and discovering services...")
	case m.ManualMode:
		content = m.renderManualEntry()
	case m.Scanning:
		content = m.renderScanning(width)
	default:
		content = m.renderDeviceResults()
	}

	// Determine context-sensitive help text using bubbles/help
	var helpText string
	switch {
	case m.Connecting:
		helpText = ""
	case m.ManualMode:
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		helpText = m.Help.View(m.ScanningKeys)
	default:
		helpText = m.Help.View(m.Keys)
	}

	// Wrap with application container (full-screen layout with height)
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// renderScanning renders the live scan display with the running device list
func (m DiscoveryModel) renderScanning(width int) string {
	elapsed := int(time.Since(m.ScanStartTime).Seconds())

	title := fmt.Sprintf("%s SCANNING FOR PERIPHERALS", m.Spinner.View())
	subtitle := fmt.Sprintf("Listening for advertisements... %d found, %ds elapsed",
		len(m.DeviceList.Items()), elapsed)

	head := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(title),
		SubtitleStyle.Render(subtitle),
		"",
	)
	head = lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, head)

	if len(m.DeviceList.Items()) == 0 {
		return head
	}
	return head + "\n" + m.DeviceList.View()
}

// renderCentered renders a single centered title/subtitle pair
func (m DiscoveryModel) renderCentered(width int, title string, subtitle string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(fmt.Sprintf("%s %s", m.Spinner.View(), title)),
		"",
		SubtitleStyle.Render(subtitle),
		"",
	)
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderDeviceResults renders the device list or an error/empty state
func (m DiscoveryModel) renderDeviceResults() string {
	var b strings.Builder

	b.WriteString("\n")

	if m.Err != nil {
		// Error state: permission denied or adapter unavailable
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")

		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that the machine has a Bluetooth adapter\n")
		b.WriteString("    • Check that Bluetooth is powered on\n")
		b.WriteString("    • On Linux, ensure your user may access the adapter (bluetooth group)\n")
		b.WriteString("    • Press 'r' to try again\n")

	} else if len(m.DeviceList.Items()) == 0 {
		// No devices found
		b.WriteString("  ")
		warningStyle := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
		b.WriteString(warningStyle.Render("⚠ No peripherals found"))
		b.WriteString("\n\n")

		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Ensure the peripheral is powered on and advertising\n")
		b.WriteString("    • Move closer to the peripheral\n")
		b.WriteString("    • Press 'r' to rescan, or 'm' to enter an identifier manually\n")
		b.WriteString("\n")

	} else {
		// Devices found - render the list
		b.WriteString(m.DeviceList.View())
	}

	return b.String()
}

// renderManualEntry renders the manual identifier entry dialog
func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString(RenderSubtitle("Enter peripheral identifier"))
	b.WriteString("\n\n")

	b.WriteString("  Device ID: ")
	b.WriteString(m.IDInput.View())
	b.WriteString("\n\n")

	return b.String()
}

// GetSelectedDevice returns the selected device (if any)
func (m DiscoveryModel) GetSelectedDevice() (ble.Device, bool) {
	if !m.Selected {
		return ble.Device{}, false
	}
	if item, ok := m.DeviceList.SelectedItem().(deviceItem); ok {
		return item.device, true
	}
	return ble.Device{}, false
}

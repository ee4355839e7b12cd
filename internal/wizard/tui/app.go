package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/config"
	"github.com/kdarrow/blescribe/internal/controller"
	"github.com/kdarrow/blescribe/internal/logging"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenDashboard Screen = "dashboard"
)

// connectTimeout bounds a single connection attempt from the wizard.
const connectTimeout = 30 * time.Second

// connectResultMsg reports the outcome of an async connection attempt
type connectResultMsg struct {
	device ble.Device
	err    error
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	// Current screen state
	CurrentScreen  Screen
	PreviousScreen Screen

	// Screen models
	DiscoveryModel DiscoveryModel
	DashboardModel DashboardModel

	// Shared application state
	Session  *controller.Session
	Registry *config.Registry

	// UI state
	Width  int
	Height int
}

// NewAppModel creates a new application model starting on the discovery screen
func NewAppModel(session *controller.Session, registry *config.Registry) AppModel {
	model := AppModel{
		CurrentScreen:  ScreenDiscovery,
		PreviousScreen: "",
		Session:        session,
		Registry:       registry,
	}

	model.DiscoveryModel = NewDiscoveryModel(session, registry)

	return model
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return m.DiscoveryModel.Init()
}

// connectToDeviceCmd connects to the device and discovers its services
func connectToDeviceCmd(s *controller.Session, dev ble.Device) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return connectResultMsg{device: dev, err: s.Connect(ctx, dev)}
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Propagate to all screens
		m.DiscoveryModel.Width = msg.Width
		m.DiscoveryModel.Height = msg.Height
		m.DashboardModel.Width = msg.Width
		m.DashboardModel.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case connectResultMsg:
		m.DiscoveryModel.Connecting = false
		m.DiscoveryModel.Selected = false
		if msg.err != nil {
			m.DiscoveryModel.Err = msg.err
			return m, nil
		}
		m.rememberDevice(msg.device)
		return m.transitionTo(ScreenDashboard, msg.device)

	case disconnectedMsg:
		// Dashboard tore down the connection; return to discovery
		return m.transitionTo(ScreenDiscovery, ble.Device{})
	}

	// Route to current screen
	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenDiscovery:
		updated, c := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		cmd = c

		// Check if user selected a device
		if m.DiscoveryModel.Selected && !m.DiscoveryModel.Connecting {
			if dev, ok := m.DiscoveryModel.GetSelectedDevice(); ok {
				m.DiscoveryModel.Connecting = true
				return m, tea.Batch(
					connectToDeviceCmd(m.Session, dev),
					m.DiscoveryModel.Spinner.Tick,
				)
			}
			m.DiscoveryModel.Selected = false
		}

		// Check for quit (normal mode only, not during scan)
		if !m.DiscoveryModel.Scanning && !m.DiscoveryModel.ManualMode && !m.DiscoveryModel.Connecting {
			if keyMsg, ok := msg.(tea.KeyMsg); ok {
				if keyMsg.String() == "q" || keyMsg.String() == "esc" {
					return m, tea.Quit
				}
			}
		}

	case ScreenDashboard:
		updated, c := m.DashboardModel.Update(msg)
		m.DashboardModel = updated.(DashboardModel)
		cmd = c
	}

	return m, cmd
}

// rememberDevice records the connected device in the registry
func (m AppModel) rememberDevice(dev ble.Device) {
	if m.Registry == nil {
		return
	}
	m.Registry.Remember(dev.ID, dev.Name, time.Now())
	if err := m.Registry.Save(); err != nil {
		logging.Warn("failed to save device registry", zap.Error(err))
	}
}

// transitionTo transitions to a new screen
func (m AppModel) transitionTo(screen Screen, device ble.Device) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen

	var cmd tea.Cmd

	switch screen {
	case ScreenDiscovery:
		m.DiscoveryModel = NewDiscoveryModel(m.Session, m.Registry)
		m.DiscoveryModel.Width = m.Width
		m.DiscoveryModel.Height = m.Height
		cmd = m.DiscoveryModel.Init()

	case ScreenDashboard:
		m.DashboardModel = NewDashboardModel(m.Session, device)
		m.DashboardModel.Width = m.Width
		m.DashboardModel.Height = m.Height
		cmd = m.DashboardModel.Init()
	}

	return m, cmd
}

// View renders the current screen
// Each screen handles its own container using RenderApplicationContainer()
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenDashboard:
		return m.DashboardModel.View()
	default:
		return "Unknown screen"
	}
}

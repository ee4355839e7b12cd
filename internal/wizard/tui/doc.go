// Package tui implements the terminal user interface for the blescribe wizard.
//
// This package provides an interactive, full-screen TUI for discovering BLE
// peripherals and writing text payloads to them. Built using the Bubble Tea
// framework, it follows the Elm architecture with immutable state updates and
// a clean Model-Update-View pattern.
//
// # Architecture
//
// The TUI is organized into two main screens:
//   - Discovery: Scan for nearby peripherals or enter an identifier manually
//   - Dashboard: View the connected peripheral's GATT layout and send payloads
//
// All screens use a unified container pattern (RenderApplicationContainer)
// for consistent layout with header, content area, and a context-sensitive
// footer.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: Scanning, connecting, and writing indicators
//   - bubbles/textinput: Manual identifier entry and payload entry
//   - bubbles/list: Peripheral lists with filtering
//   - bubbles/help: Context-aware help system
//   - lipgloss: Styling and layout
//
// # Screen Flow
//
// The typical user flow through the wizard:
//
//  1. Discovery Screen:
//     - Automatically scans for BLE advertisements
//     - Displays found peripherals as cards with identifier, name, and signal
//     - Each peripheral appears once, regardless of how often it advertises
//     - Allows manual identifier entry if the peripheral is not advertising
//     - User selects a peripheral to connect
//
//  2. Dashboard Screen:
//     - Shows the discovered services and characteristics with property flags
//     - Payload text entry with a live base64-encoded size readout
//     - Enter writes the payload to the first writable characteristic
//     - Success and failure results render inline below the input
//     - ESC disconnects and returns to discovery
//
// # Key Bindings
//
// Each screen has context-aware key bindings:
//   - Discovery: ↑/↓ navigate, Enter connect, r rescan, s stop, m manual ID, q quit
//   - Dashboard: Enter send, ESC disconnect, ctrl+c quit
//
// Help text automatically updates based on screen state (e.g., during
// scanning or manual entry).
//
// # State Management
//
// The TUI maintains immutable state with explicit updates:
//   - Models contain all state (no global variables)
//   - Update() returns new model + commands
//   - View() is pure function of model state
//   - Commands represent async scan, connect, and write operations
//
// # Thread Safety
//
// The Bubble Tea framework ensures thread safety through message passing.
// All model updates occur in a single goroutine; blocking BLE operations run
// inside commands and report back as messages.
package tui

package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/config"
	"github.com/kdarrow/blescribe/internal/controller"
	"github.com/kdarrow/blescribe/internal/payload"
	"github.com/kdarrow/blescribe/internal/ui"
	"github.com/kdarrow/blescribe/internal/wizard/tui"
)

// Command flags
var (
	deviceID    string
	scanTimeout int
	payloadText string
	skipConfirm bool
)

// connectAttemptTimeout bounds a single connection attempt from the CLI.
const connectAttemptTimeout = 30 * time.Second

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceID, "device", "", "Peripheral identifier (skips discovery)")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(wizardCmd)
}

// scanCmd discovers nearby BLE peripherals
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE peripherals",
	Long: `Scan for nearby Bluetooth Low Energy peripherals.

This command listens for BLE advertisements and displays all discovered
peripherals with their identifiers, advertised names, and signal strength.
Each peripheral is listed once, regardless of how often it advertises.`,
	Example: `  # Scan for 10 seconds (default)
  blescribe scan

  # Quick 3-second scan
  blescribe scan --timeout 3

  # Longer scan for quiet peripherals
  blescribe scan --timeout 30`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", config.DefaultScanTimeout, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	registry := loadRegistry()

	// The preference applies only when the flag was not given explicitly
	if !cmd.Flags().Changed("timeout") && registry.Preferences != nil && registry.Preferences.ScanTimeout > 0 {
		scanTimeout = registry.Preferences.ScanTimeout
	}

	session, err := newSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Scanning for BLE peripherals (timeout: %ds)...\n\n", scanTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(scanTimeout)*time.Second)
	defer cancel()

	if err := session.StartScan(ctx); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	// Print peripherals live as they are discovered
	count := 0
	events := session.DiscoveryEvents()
	done := session.ScanDone()
	for done != nil {
		select {
		case dev, ok := <-events:
			if !ok {
				done = nil
				continue
			}
			count++
			printDevice(count, dev, registry)
		case <-done:
			done = nil
		}
	}

	// Pick up anything buffered after the scan ended
	for _, dev := range session.Devices()[count:] {
		count++
		printDevice(count, dev, registry)
	}

	if count == 0 {
		fmt.Println("No peripherals found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the peripheral is powered on and advertising")
		fmt.Println("  - Move closer to the peripheral")
		fmt.Println("  - Try increasing --timeout")
		fmt.Println("  - Use --device flag to specify an identifier manually")
		return nil
	}

	fmt.Printf("Found %d peripheral(s).\n\n", count)
	fmt.Println("Use 'blescribe explore --device <id>' to view services and characteristics")
	fmt.Println("Use 'blescribe send --device <id> --text <payload>' to write a payload")

	return nil
}

func printDevice(index int, dev ble.Device, registry *config.Registry) {
	fmt.Printf("%d. %s\n", index, dev.DisplayName())
	fmt.Printf("   ID:     %s\n", dev.ID)
	fmt.Printf("   Signal: %ddBm\n", dev.RSSI)
	if registry != nil {
		if nick := registry.Nickname(dev.ID); nick != "" {
			fmt.Printf("   Known as: %s\n", nick)
		}
	}
	fmt.Println()
}

// sendCmd writes a text payload to a peripheral
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Write a text payload to a peripheral",
	Long: `Connect to a BLE peripheral and write a base64-encoded text payload.

The payload is written to the first writable characteristic found while
walking the peripheral's services in discovery order. The write goes to
exactly one characteristic; later services are never considered.`,
	Example: `  # Send to a specific peripheral
  blescribe send --device D4:3A:1B:00:12:9F --text "hello"

  # Send without the unknown-device confirmation prompt
  blescribe send --device D4:3A:1B:00:12:9F --text "hello" --yes`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&payloadText, "text", "", "Text payload to send (base64-encoded before writing)")
	sendCmd.Flags().BoolVar(&skipConfirm, "yes", false, "Skip confirmation prompts")
	sendCmd.MarkFlagRequired("text")
}

func runSend(cmd *cobra.Command, args []string) error {
	registry := loadRegistry()

	session, err := newSession()
	if err != nil {
		return err
	}
	defer session.Close()

	dev, err := resolveDevice(session, registry)
	if err != nil {
		return err
	}

	// Confirm before writing to a peripheral we have never seen before
	if !skipConfirm && registry != nil && registry.Preferences.ConfirmWrites && !registry.Known(dev.ID) {
		if !ui.ConfirmWriteToUnknownDevice(dev.ID) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if !payload.FitsMTU(payloadText, payload.DefaultATTMTU) {
		fmt.Printf("Note: encoded payload is %d bytes and may exceed the peripheral's ATT MTU\n\n",
			payload.EncodedLen(payloadText))
	}

	fmt.Printf("Connecting to %s...\n", dev.ID)

	ctx, cancel := context.WithTimeout(context.Background(), connectAttemptTimeout)
	defer cancel()

	if err := session.Connect(ctx, dev); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", dev.ID, err)
	}

	session.SetPayload(payloadText)
	receipt, err := session.SendPayload()
	if err != nil {
		fmt.Println(ui.RenderFailure(fmt.Sprintf("Send failed: %v", err)))
		return err
	}

	fmt.Println(ui.RenderSuccess(fmt.Sprintf("Sent %d bytes", receipt.EncodedLen)))
	fmt.Println(ui.RenderDetail("Service", receipt.ServiceUUID))
	fmt.Println(ui.RenderDetail("Characteristic", receipt.CharacteristicUUID))

	rememberDevice(registry, dev)

	return nil
}

// exploreCmd inspects a peripheral's services and characteristics
var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "List a peripheral's services and characteristics",
	Long: `Connect to a BLE peripheral and display its full GATT layout.

Services are listed in discovery order with their characteristics and
property flags (R=read, W=write, w=write-without-response, N=notify).`,
	Example: `  # Explore a specific peripheral
  blescribe explore --device D4:3A:1B:00:12:9F

  # Explore with auto-discovery (single peripheral nearby)
  blescribe explore`,
	RunE: runExplore,
}

func runExplore(cmd *cobra.Command, args []string) error {
	registry := loadRegistry()

	session, err := newSession()
	if err != nil {
		return err
	}
	defer session.Close()

	dev, err := resolveDevice(session, registry)
	if err != nil {
		return err
	}

	fmt.Printf("Connecting to %s...\n\n", dev.ID)

	ctx, cancel := context.WithTimeout(context.Background(), connectAttemptTimeout)
	defer cancel()

	if err := session.Connect(ctx, dev); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", dev.ID, err)
	}

	services := session.Services()
	if len(services) == 0 {
		fmt.Println("No services discovered.")
		return nil
	}

	for _, svc := range services {
		fmt.Printf("Service %s\n", svc.UUID())
		chars := svc.Characteristics()
		if len(chars) == 0 {
			fmt.Println("  (no characteristics)")
			continue
		}
		for _, ch := range chars {
			fmt.Printf("  %s  [%s]\n", ch.UUID(), ch.Properties().String())
		}
		fmt.Println()
	}

	rememberDevice(registry, dev)

	return nil
}

// wizardCmd launches the interactive TUI wizard
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch interactive wizard",
	Long: `Launch an interactive TUI wizard.

The wizard provides a user-friendly interface for:
- Discovering nearby BLE peripherals
- Connecting to a peripheral
- Viewing its services and characteristics
- Writing a text payload to its first writable characteristic

This is the recommended way to use blescribe for most users.`,
	Example: `  # Launch the wizard
  blescribe wizard
  # Or simply (wizard is default):
  blescribe`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	registry := loadRegistry()

	session, err := newSession()
	if err != nil {
		return err
	}
	defer session.Close()

	// Pre-fill the payload input from preferences
	if registry.Preferences != nil && registry.Preferences.DefaultPayload != "" {
		session.SetPayload(registry.Preferences.DefaultPayload)
	}

	model := tui.NewAppModel(session, registry)

	p := tea.NewProgram(model)
	_, err = p.Run()
	if err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}

	return nil
}

// newSession opens the host adapter and wraps it in a controller session
func newSession() (*controller.Session, error) {
	adapter, err := ble.Open()
	if err != nil {
		return nil, fmt.Errorf("bluetooth unavailable: %w", err)
	}
	return controller.NewSession(adapter, nil), nil
}

// loadRegistry loads the device registry, tolerating a missing config
func loadRegistry() *config.Registry {
	registry, err := config.LoadRegistry()
	if err != nil {
		fmt.Printf("Warning: failed to load device registry: %v\n\n", err)
		return config.NewRegistry()
	}
	return registry
}

// rememberDevice records the device in the registry for future runs
func rememberDevice(registry *config.Registry, dev ble.Device) {
	if registry == nil {
		return
	}
	registry.Remember(dev.ID, dev.Name, time.Now())
	if err := registry.Save(); err != nil {
		fmt.Printf("Warning: failed to save device registry: %v\n", err)
	}
}

// resolveDevice returns the target peripheral, via flag or a short scan
func resolveDevice(session *controller.Session, registry *config.Registry) (ble.Device, error) {
	if deviceID != "" {
		return ble.Device{ID: deviceID, DiscoveredAt: time.Now()}, nil
	}

	// Try discovery
	fmt.Println("No device specified, scanning...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := session.StartScan(ctx); err != nil {
		return ble.Device{}, fmt.Errorf("discovery failed: %w", err)
	}
	<-session.ScanDone()

	devices := session.Devices()

	if len(devices) == 0 {
		return ble.Device{}, fmt.Errorf("no peripherals found. Use --device flag to specify an identifier manually")
	}

	if len(devices) > 1 {
		fmt.Printf("Found %d peripherals:\n", len(devices))
		for i, dev := range devices {
			printDevice(i+1, dev, registry)
		}
		return ble.Device{}, fmt.Errorf("multiple peripherals found. Use --device flag to specify which one")
	}

	// Exactly one peripheral found
	dev := devices[0]
	fmt.Printf("Found peripheral: %s (%s)\n\n", dev.DisplayName(), dev.ID)
	return dev, nil
}

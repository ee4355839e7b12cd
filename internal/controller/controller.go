package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/discovery"
	"github.com/kdarrow/blescribe/internal/logging"
	"github.com/kdarrow/blescribe/internal/payload"
)

var (
	// ErrPermissionDenied indicates the user or OS denied every
	// scan-relevant Bluetooth permission.
	ErrPermissionDenied = errors.New("controller: bluetooth permission denied")

	// ErrNotConnected indicates an operation that requires an active
	// connection was invoked without one.
	ErrNotConnected = errors.New("controller: no device connected")

	// ErrNoWritableCharacteristic indicates the connected peripheral
	// exposes no characteristic that accepts writes in either mode.
	ErrNoWritableCharacteristic = errors.New("controller: no writable characteristic found")
)

// WriteReceipt describes a completed payload write.
type WriteReceipt struct {
	ServiceUUID        string
	CharacteristicUUID string
	EncodedLen         int
}

// Session is the scan/connect/write controller. The zero adapter case
// (nil handle) is valid: every dependent operation fails with
// ble.ErrUnavailable instead of faulting.
type Session struct {
	adapter ble.Adapter
	perms   Permissions
	scan    *discovery.Session

	mu          sync.Mutex
	conn        ble.Connection
	connected   *ble.Device
	services    []ble.Service
	payloadText string
}

// NewSession creates a controller session over the given adapter, which
// may be nil when the host has no usable Bluetooth stack. A nil perms
// defaults to adapter-backed permission answers.
func NewSession(adapter ble.Adapter, perms Permissions) *Session {
	if perms == nil {
		perms = AdapterPermissions{Adapter: adapter}
	}
	s := &Session{
		adapter: adapter,
		perms:   perms,
	}
	if adapter != nil {
		s.scan = discovery.NewSession(adapter)
	}
	return s
}

// Available reports whether the session has a usable adapter.
func (s *Session) Available() bool {
	return s.adapter != nil
}

// RequestPermissions requests the scan-relevant Bluetooth permissions.
// It succeeds when at least one of them is granted.
func (s *Session) RequestPermissions(ctx context.Context) error {
	grants, err := s.perms.Request(ctx, []string{PermissionScan, PermissionConnect})
	if err != nil {
		return fmt.Errorf("controller: request permissions: %w", err)
	}
	for _, g := range grants {
		if g == Granted {
			return nil
		}
	}
	return ErrPermissionDenied
}

// StartScan clears the device list and begins a new scan. The scan runs
// until StopScan, Connect, or an adapter error.
func (s *Session) StartScan(ctx context.Context) error {
	if s.adapter == nil {
		return ble.ErrUnavailable
	}
	if err := s.RequestPermissions(ctx); err != nil {
		return err
	}
	return s.scan.Start(ctx)
}

// StopScan cancels the active scan. A no-op when no scan is running or
// the adapter is absent.
func (s *Session) StopScan() {
	if s.scan == nil {
		return
	}
	s.scan.Stop()
}

// Scanning reports whether a scan is active.
func (s *Session) Scanning() bool {
	return s.scan != nil && s.scan.Scanning()
}

// Devices returns the devices discovered by the current scan session, in
// arrival order.
func (s *Session) Devices() []ble.Device {
	if s.scan == nil {
		return nil
	}
	return s.scan.Devices()
}

// DiscoveryEvents returns the live discovery event channel of the current
// scan, or nil when the adapter is absent.
func (s *Session) DiscoveryEvents() <-chan ble.Device {
	if s.scan == nil {
		return nil
	}
	return s.scan.Events()
}

// ScanDone returns a channel that closes when the current scan ends, or
// nil when the adapter is absent.
func (s *Session) ScanDone() <-chan struct{} {
	if s.scan == nil {
		return nil
	}
	return s.scan.Done()
}

// Connect stops any active scan, connects to the device, and discovers
// all of its services and characteristics. On success the device becomes
// the session's connected device.
func (s *Session) Connect(ctx context.Context, dev ble.Device) error {
	if s.adapter == nil {
		return ble.ErrUnavailable
	}

	// Scanning and connecting compete for the radio.
	s.StopScan()

	conn, err := s.adapter.Connect(ctx, dev.ID)
	if err != nil {
		return fmt.Errorf("controller: connect %s: %w", dev.ID, err)
	}

	services, err := conn.DiscoverServices()
	if err != nil {
		conn.Disconnect()
		return fmt.Errorf("controller: discover %s: %w", dev.ID, err)
	}

	s.mu.Lock()
	// Replacing an existing connection is not modeled; drop the old one.
	if s.conn != nil {
		s.conn.Disconnect()
	}
	s.conn = conn
	s.connected = &dev
	s.services = services
	s.mu.Unlock()

	logging.LogConnection(dev.ID, "connected")
	return nil
}

// Disconnect cancels the tracked connection and clears connected state.
// A no-op when nothing is connected.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	dev := s.connected
	s.conn = nil
	s.connected = nil
	s.services = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	if dev != nil {
		logging.LogConnection(dev.ID, "disconnected")
	}
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("controller: disconnect: %w", err)
	}
	return nil
}

// Connected returns the connected device, if any.
func (s *Session) Connected() (ble.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected == nil {
		return ble.Device{}, false
	}
	return *s.connected, true
}

// Services returns the services discovered on the connected device, in
// discovery order. Empty when disconnected.
func (s *Session) Services() []ble.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.services
}

// SetPayload replaces the payload text buffer.
func (s *Session) SetPayload(text string) {
	s.mu.Lock()
	s.payloadText = text
	s.mu.Unlock()
}

// Payload returns the current payload text buffer.
func (s *Session) Payload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadText
}

// SendPayload writes the base64-encoded payload text to the first
// writable characteristic of the connected device, walking services and
// their characteristics in discovery order. Exactly one write is
// performed; services after the matching one are not examined.
func (s *Session) SendPayload() (WriteReceipt, error) {
	s.mu.Lock()
	conn := s.conn
	dev := s.connected
	services := s.services
	text := s.payloadText
	s.mu.Unlock()

	if conn == nil {
		return WriteReceipt{}, ErrNotConnected
	}

	data := payload.Encode(text)
	for _, svc := range services {
		for _, char := range svc.Characteristics() {
			if !char.Properties().Writable() {
				continue
			}
			if err := char.Write(data); err != nil {
				return WriteReceipt{}, fmt.Errorf("controller: write %s: %w", char.UUID(), err)
			}
			logging.LogWrite(dev.ID, svc.UUID(), char.UUID(), len(data))
			return WriteReceipt{
				ServiceUUID:        svc.UUID(),
				CharacteristicUUID: char.UUID(),
				EncodedLen:         len(data),
			}, nil
		}
	}
	return WriteReceipt{}, ErrNoWritableCharacteristic
}

// Close tears the session down: the scan subscription is removed and any
// connection cancelled. Safe to call with an absent adapter and safe to
// call more than once.
func (s *Session) Close() error {
	s.StopScan()
	return s.Disconnect()
}

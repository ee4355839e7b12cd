package ble

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable indicates that no usable Bluetooth adapter is present in
// the current runtime environment. All operations that depend on the
// adapter fail with this error instead of faulting on a nil handle.
var ErrUnavailable = errors.New("ble: bluetooth adapter unavailable")

// Device represents a discovered BLE peripheral.
type Device struct {
	// ID is the platform device identifier (MAC address or CoreBluetooth
	// UUID). Unique within a scan session.
	ID string

	// Name is the advertised local name. May be empty; many peripherals
	// advertise without one.
	Name string

	// RSSI is the received signal strength in dBm at discovery time.
	RSSI int

	// DiscoveredAt is when the advertisement was first seen.
	DiscoveredAt time.Time
}

// DisplayName returns the advertised name, or a placeholder derived from
// the identifier when the peripheral advertises anonymously.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("(unnamed %s)", d.ID)
}

// String returns a human-readable representation of the device.
func (d Device) String() string {
	return fmt.Sprintf("%s [%s] %ddBm", d.DisplayName(), d.ID, d.RSSI)
}

// Properties describes the declared GATT properties of a characteristic
// that blescribe cares about.
type Properties struct {
	Read                 bool
	Write                bool
	WriteWithoutResponse bool
	Notify               bool
}

// Writable reports whether the characteristic accepts writes in either
// mode.
func (p Properties) Writable() bool {
	return p.Write || p.WriteWithoutResponse
}

// String renders the property flags in the compact "RWwN" form used by
// the explore output.
func (p Properties) String() string {
	buf := make([]byte, 0, 4)
	if p.Read {
		buf = append(buf, 'R')
	}
	if p.Write {
		buf = append(buf, 'W')
	}
	if p.WriteWithoutResponse {
		buf = append(buf, 'w')
	}
	if p.Notify {
		buf = append(buf, 'N')
	}
	if len(buf) == 0 {
		return "-"
	}
	return string(buf)
}

// Characteristic is a single GATT characteristic on a connected peripheral.
type Characteristic interface {
	// UUID returns the characteristic UUID string.
	UUID() string

	// Properties returns the declared GATT property flags.
	Properties() Properties

	// Write sends data to the characteristic. The implementation picks
	// the write mode the characteristic supports.
	Write(data []byte) error
}

// Service is a GATT service and its discovered characteristics, in
// discovery order.
type Service interface {
	// UUID returns the service UUID string.
	UUID() string

	// Characteristics returns the service's characteristics in the order
	// the peripheral reported them.
	Characteristics() []Characteristic
}

// Connection is an active connection to a single peripheral.
type Connection interface {
	// Device returns the peripheral this connection belongs to.
	Device() Device

	// DiscoverServices enumerates all services and their characteristics.
	// The result is in the order the peripheral reported them.
	DiscoverServices() ([]Service, error)

	// Disconnect cancels the connection. Safe to call more than once.
	Disconnect() error
}

// Adapter abstracts the BLE central adapter for testing.
type Adapter interface {
	// Enable powers on the adapter. Must be called before any other
	// operation.
	Enable() error

	// Scan listens for advertisements, invoking found for every one
	// received, until ctx is cancelled or StopScan is called. Duplicate
	// advertisements from the same peripheral are reported as received;
	// deduplication is the consumer's concern.
	Scan(ctx context.Context, found func(Device)) error

	// StopScan cancels an in-progress Scan. Calling it with no scan
	// active is a no-op.
	StopScan() error

	// Connect opens a connection to the peripheral with the given
	// identifier.
	Connect(ctx context.Context, id string) (Connection, error)
}

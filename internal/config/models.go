package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for peripherals and application
// preferences; nothing in it is required for the tool to work.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device identifier
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single peripheral.
// This is keyed by the platform device identifier (MAC address or
// CoreBluetooth UUID) in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastName string    `yaml:"last_name,omitempty"` // Last advertised local name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	ScanTimeout    int    `yaml:"scan_timeout"`              // Scan duration in seconds for the scripted scan command
	DefaultPayload string `yaml:"default_payload,omitempty"` // Pre-filled payload text
	ConfirmWrites  bool   `yaml:"confirm_writes"`            // Prompt before writing to a device not in the registry
}

// DefaultScanTimeout is the scan duration used when no preference or flag
// overrides it.
const DefaultScanTimeout = 10

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			ScanTimeout:   DefaultScanTimeout,
			ConfirmWrites: true,
		},
	}
}

// Remember records that a device was seen, creating its entry when absent.
func (r *Registry) Remember(id string, name string, seen time.Time) {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	dev, ok := r.Devices[id]
	if !ok {
		dev = &Device{}
		r.Devices[id] = dev
	}
	if name != "" {
		dev.LastName = name
	}
	dev.LastSeen = seen
}

// Nickname returns the user-assigned nickname for a device identifier, or
// empty string when none is recorded.
func (r *Registry) Nickname(id string) string {
	if r.Devices == nil {
		return ""
	}
	if dev, ok := r.Devices[id]; ok {
		return dev.Nickname
	}
	return ""
}

// Known reports whether the device identifier has an entry in the registry.
func (r *Registry) Known(id string) bool {
	if r.Devices == nil {
		return false
	}
	_, ok := r.Devices[id]
	return ok
}

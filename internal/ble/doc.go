// Package ble abstracts the Bluetooth Low Energy central role behind small
// interfaces so the rest of the application can be tested without radio
// hardware.
//
// The real implementation wraps tinygo.org/x/bluetooth (BlueZ on Linux,
// CoreBluetooth on macOS, WinRT on Windows). The abstraction covers exactly
// the capability set blescribe needs:
//
//   - enable the adapter
//   - scan for peripherals with a per-discovery callback
//   - connect to a peripheral by identifier
//   - discover all services and their characteristics
//   - write a characteristic (with or without response)
//   - cancel a connection
//
// # Adapter availability
//
// Opening the adapter can fail on hosts without a usable Bluetooth stack
// (no controller, missing D-Bus, denied access). Callers hold the Adapter
// as an optional handle and treat a nil handle as ErrUnavailable rather
// than constructing it eagerly at startup.
//
// # Device identifiers
//
// Device.ID is the platform identifier string: a MAC address on Linux and
// Windows, a CoreBluetooth UUID on macOS. It is opaque to the rest of the
// application and only needs to be stable within a process.
package ble

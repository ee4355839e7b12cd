// Package controller sequences the scan / connect / write workflow shared
// by the CLI commands and the interactive wizard.
//
// A Session holds the screen-level state: the optional adapter handle, the
// discovery session, at most one connected device with its discovered
// services, and the payload text buffer. Operations delegate all radio
// work to internal/ble and internal/discovery and only update state on
// completion.
//
// # Operation contract
//
//   - StartScan requests Bluetooth permissions, clears the device list,
//     and begins a scan. At least one scan-relevant grant is required.
//   - StopScan is idempotent.
//   - Connect stops any active scan, connects, and discovers all services
//     and characteristics before reporting success.
//   - Disconnect cancels the tracked connection and clears connected state.
//   - SendPayload walks the discovered services in order and writes the
//     base64-encoded payload text to the first writable characteristic,
//     exactly once.
//
// Failures are sentinel errors where the distinction matters to the user
// (unavailable, permission denied, not connected, no writable
// characteristic) and wrapped errors otherwise. Nothing is retried; the
// user re-triggers the action.
package controller

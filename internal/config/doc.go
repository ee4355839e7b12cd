// Package config provides user configuration management for blescribe.
//
// This package manages a YAML-based configuration file that stores
// user-defined metadata for known BLE peripherals (nicknames, last-seen
// times) and application preferences. The configuration follows
// OS-specific conventions for storage location.
//
// Discovered device lists are deliberately not persisted; discovery state
// lives only for the duration of a scan session.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/blescribe/config.yaml or $HOME/.config/blescribe/config.yaml
//   - macOS: $HOME/.config/blescribe/config.yaml
//   - Windows: %LOCALAPPDATA%\blescribe\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.Remember("D4:3A:1B:00:12:9F", "thermo-7", time.Now())
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// Save performs an atomic write (temp file plus rename) so a crash cannot
// leave a truncated config behind.
package config

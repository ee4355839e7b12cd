package controller

import (
	"context"

	"github.com/kdarrow/blescribe/internal/ble"
)

// Bluetooth permission names. On desktop platforms these map onto a single
// capability (adapter access), but the request surface keeps the per-name
// grant mapping so platform implementations can answer them independently.
const (
	PermissionScan    = "bluetooth.scan"
	PermissionConnect = "bluetooth.connect"
)

// Grant is the outcome of a single permission request.
type Grant string

const (
	Granted Grant = "granted"
	Denied  Grant = "denied"
)

// Permissions requests a set of named permissions and reports the grant
// result per name.
type Permissions interface {
	Request(ctx context.Context, names []string) (map[string]Grant, error)
}

// AdapterPermissions answers permission requests from adapter state:
// an adapter that can be enabled grants everything, anything else denies
// everything. This is the desktop analogue of the mobile runtime prompt,
// where the OS gate is whether the process can reach the Bluetooth stack
// at all.
type AdapterPermissions struct {
	Adapter ble.Adapter
}

// Request implements Permissions.
func (p AdapterPermissions) Request(_ context.Context, names []string) (map[string]Grant, error) {
	grant := Denied
	if p.Adapter != nil && p.Adapter.Enable() == nil {
		grant = Granted
	}
	result := make(map[string]Grant, len(names))
	for _, name := range names {
		result[name] = grant
	}
	return result, nil
}

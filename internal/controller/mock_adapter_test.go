package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/kdarrow/blescribe/internal/ble"
)

// mockCharacteristic records writes and reports configured properties.
type mockCharacteristic struct {
	uuid  string
	props ble.Properties

	mu       sync.Mutex
	writes   [][]byte
	writeErr error
}

func (c *mockCharacteristic) UUID() string { return c.uuid }

func (c *mockCharacteristic) Properties() ble.Properties { return c.props }

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *mockCharacteristic) lastWrite() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		return nil
	}
	return c.writes[len(c.writes)-1]
}

// mockService counts how often its characteristics are enumerated.
type mockService struct {
	uuid  string
	chars []ble.Characteristic

	mu           sync.Mutex
	enumerations int
}

func (s *mockService) UUID() string { return s.uuid }

func (s *mockService) Characteristics() []ble.Characteristic {
	s.mu.Lock()
	s.enumerations++
	s.mu.Unlock()
	return s.chars
}

func (s *mockService) enumerationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enumerations
}

// mockConnection serves a fixed service table.
type mockConnection struct {
	dev         ble.Device
	services    []ble.Service
	discoverErr error

	mu           sync.Mutex
	disconnected bool
}

func (c *mockConnection) Device() ble.Device { return c.dev }

func (c *mockConnection) DiscoverServices() ([]ble.Service, error) {
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	return c.services, nil
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *mockConnection) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// mockAdapter delivers a fixed advertisement sequence per scan, then
// blocks like the real adapter until the scan is cancelled.
type mockAdapter struct {
	mu         sync.Mutex
	adverts    []ble.Device
	connection *mockConnection
	connectErr error
	stop       chan struct{}
	stopCalls  int
}

func newMockAdapter(adverts []ble.Device) *mockAdapter {
	return &mockAdapter{adverts: adverts}
}

func (a *mockAdapter) Enable() error { return nil }

func (a *mockAdapter) Scan(ctx context.Context, found func(ble.Device)) error {
	a.mu.Lock()
	stop := make(chan struct{})
	a.stop = stop
	adverts := a.adverts
	a.mu.Unlock()

	for _, dev := range adverts {
		found(dev)
	}

	select {
	case <-ctx.Done():
	case <-stop:
	}
	return nil
}

func (a *mockAdapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopCalls++
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	return nil
}

func (a *mockAdapter) stopCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCalls
}

func (a *mockAdapter) Connect(_ context.Context, id string) (ble.Connection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connectErr != nil {
		return nil, a.connectErr
	}
	if a.connection == nil {
		return nil, fmt.Errorf("mock: no connection configured for %s", id)
	}
	return a.connection, nil
}

// denyAllPermissions refuses every request.
type denyAllPermissions struct{}

func (denyAllPermissions) Request(_ context.Context, names []string) (map[string]Grant, error) {
	result := make(map[string]Grant, len(names))
	for _, name := range names {
		result[name] = Denied
	}
	return result, nil
}

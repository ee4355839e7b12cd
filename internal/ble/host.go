package ble

import (
	"context"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/kdarrow/blescribe/internal/logging"
	"go.uber.org/zap"
)

// hostAdapter wraps tinygo.org/x/bluetooth's default adapter.
type hostAdapter struct {
	adapter *bluetooth.Adapter
}

// Open enables the host's default Bluetooth adapter and returns a handle
// to it. It fails on machines without a usable Bluetooth stack; callers
// keep the returned Adapter as an optional capability and surface
// ErrUnavailable from dependent operations instead of failing at startup.
func Open() (Adapter, error) {
	a := bluetooth.DefaultAdapter
	if err := a.Enable(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &hostAdapter{adapter: a}, nil
}

func (a *hostAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}
	return nil
}

func (a *hostAdapter) Scan(ctx context.Context, found func(Device)) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()

	// Scan blocks the calling goroutine until StopScan or an adapter
	// error. Each advertisement is forwarded as-is; the discovery session
	// deduplicates by identifier.
	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		found(Device{
			ID:           result.Address.String(),
			Name:         result.LocalName(),
			RSSI:         int(result.RSSI),
			DiscoveredAt: time.Now(),
		})
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ble: scan: %w", err)
	}
	return nil
}

func (a *hostAdapter) StopScan() error {
	// tinygo/bluetooth reports an error when no scan is running; the
	// contract here is that stopping an idle adapter is a no-op.
	if err := a.adapter.StopScan(); err != nil {
		logging.Debug("stop scan on idle adapter", zap.Error(err))
	}
	return nil
}

func (a *hostAdapter) Connect(ctx context.Context, id string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(id)

	// The binding's Connect blocks with its own internal timeout. Run it
	// in a goroutine so ctx cancellation returns control to the caller;
	// the underlying attempt cannot be aborted from here.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ble: connect to %s: %w", id, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", id, result.err)
		}
		return &hostConnection{
			dev:    Device{ID: id},
			device: result.device,
		}, nil
	}
}

// Compile-time check that hostAdapter implements Adapter.
var _ Adapter = (*hostAdapter)(nil)

type hostConnection struct {
	dev    Device
	device bluetooth.Device
}

func (c *hostConnection) Device() Device {
	return c.dev
}

func (c *hostConnection) DiscoverServices() ([]Service, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}

	services := make([]Service, 0, len(svcs))
	for _, svc := range svcs {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("ble: discover characteristics of %s: %w", svc.UUID().String(), err)
		}
		hs := &hostService{uuid: svc.UUID().String()}
		for _, char := range chars {
			hs.chars = append(hs.chars, &hostCharacteristic{char: char})
		}
		services = append(services, hs)
	}
	return services, nil
}

func (c *hostConnection) Disconnect() error {
	if err := c.device.Disconnect(); err != nil {
		return fmt.Errorf("ble: disconnect: %w", err)
	}
	return nil
}

type hostService struct {
	uuid  string
	chars []Characteristic
}

func (s *hostService) UUID() string { return s.uuid }

func (s *hostService) Characteristics() []Characteristic { return s.chars }

type hostCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *hostCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *hostCharacteristic) Properties() Properties {
	// The binding does not expose the characteristic declaration flags to
	// centrals, so every discovered characteristic is reported as a write
	// candidate. The peripheral rejects writes to characteristics that do
	// not permit them.
	return Properties{Write: true, WriteWithoutResponse: true}
}

func (c *hostCharacteristic) Write(data []byte) error {
	if _, err := c.char.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("ble: write %s: %w", c.UUID(), err)
	}
	return nil
}

package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/logging"
)

// eventBuffer is the capacity of the per-session event channel. A consumer
// that falls behind misses live events but still sees every device in the
// Devices snapshot.
const eventBuffer = 32

// Session is a restartable BLE scan session. It owns the subscription to
// the adapter's advertisement stream, deduplicates devices by identifier,
// and keeps them in arrival order.
type Session struct {
	adapter ble.Adapter

	mu      sync.Mutex
	gen     int
	active  bool
	cancel  context.CancelFunc
	seen    map[string]struct{}
	devices []ble.Device
	events  chan ble.Device
	done    chan struct{}
}

// NewSession creates a scan session over the given adapter.
func NewSession(adapter ble.Adapter) *Session {
	return &Session{
		adapter: adapter,
		seen:    make(map[string]struct{}),
		done:    closedChan(),
	}
}

// Start begins scanning. Any previous scan is stopped first and the device
// list is cleared, so restarting never accumulates duplicates across
// sessions.
func (s *Session) Start(ctx context.Context) error {
	prev := s.Done()
	s.Stop()
	// The adapter supports a single scan at a time; wait for the previous
	// scan goroutine to release it.
	<-prev

	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.active = true
	s.cancel = cancel
	s.seen = make(map[string]struct{})
	s.devices = nil
	s.events = make(chan ble.Device, eventBuffer)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	logging.LogScanEvent("started")

	go func() {
		err := s.adapter.Scan(ctx, func(dev ble.Device) {
			s.record(gen, dev)
		})

		s.mu.Lock()
		if s.gen == gen {
			s.active = false
		}
		s.mu.Unlock()

		if err != nil {
			// A scan error stops the session; it is diagnostic only and
			// not surfaced to consumers.
			logging.Warn("Scan stopped on error", zap.Error(err))
		} else {
			logging.LogScanEvent("stopped")
		}
		close(done)
	}()

	return nil
}

// record handles one advertisement from the adapter. The first report of
// each identifier is recorded; later ones are ignored, as are stragglers
// from a superseded scan.
func (s *Session) record(gen int, dev ble.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || !s.active {
		return
	}
	if _, ok := s.seen[dev.ID]; ok {
		return
	}
	s.seen[dev.ID] = struct{}{}
	s.devices = append(s.devices, dev)

	logging.LogDiscovery(dev.ID, dev.Name, dev.RSSI)

	select {
	case s.events <- dev:
	default:
		// Consumer is behind; the device remains in the snapshot.
		logging.Debug("Discovery event dropped", zap.String("device_id", dev.ID))
	}
}

// Stop cancels the active scan. Calling Stop when no scan is active is a
// no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Unblocks the adapter's blocking scan loop.
	if err := s.adapter.StopScan(); err != nil {
		logging.Debug("Stop scan", zap.Error(err))
	}
}

// Scanning reports whether a scan is currently active.
func (s *Session) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Devices returns a snapshot of the devices discovered so far, in arrival
// order.
func (s *Session) Devices() []ble.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ble.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Events returns the channel of newly discovered devices for the current
// scan. The channel is replaced on every Start.
func (s *Session) Events() <-chan ble.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Done returns a channel that closes when the current scan goroutine
// exits, whether by Stop, context cancellation, or an adapter error.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

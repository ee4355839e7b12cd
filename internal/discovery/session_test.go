package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kdarrow/blescribe/internal/ble"
)

// stubAdapter replays a canned advertisement sequence and then blocks
// until the scan is cancelled, like a real adapter.
type stubAdapter struct {
	adverts []ble.Device

	mu   sync.Mutex
	stop chan struct{}
}

func (a *stubAdapter) Enable() error { return nil }

func (a *stubAdapter) Scan(ctx context.Context, found func(ble.Device)) error {
	a.mu.Lock()
	stop := make(chan struct{})
	a.stop = stop
	a.mu.Unlock()

	for _, dev := range a.adverts {
		found(dev)
	}
	select {
	case <-ctx.Done():
	case <-stop:
	}
	return nil
}

func (a *stubAdapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	return nil
}

func (a *stubAdapter) Connect(_ context.Context, _ string) (ble.Connection, error) {
	return nil, nil
}

func waitForDevices(t *testing.T, s *Session, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.Devices()) == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got %d devices before deadline, want %d", len(s.Devices()), n)
}

func TestSessionDeduplicatesByIdentifier(t *testing.T) {
	adapter := &stubAdapter{adverts: []ble.Device{
		{ID: "AA", Name: "one", RSSI: -40},
		{ID: "BB", Name: "two", RSSI: -60},
		{ID: "AA", Name: "one", RSSI: -42},
		{ID: "CC", Name: "", RSSI: -80},
		{ID: "BB", Name: "two", RSSI: -61},
	}}
	s := NewSession(adapter)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitForDevices(t, s, 3)

	got := s.Devices()
	wantOrder := []string{"AA", "BB", "CC"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("Devices()[%d].ID = %s, want %s (arrival order)", i, got[i].ID, id)
		}
	}
}

func TestSessionEventsCarryOnlyUnseenDevices(t *testing.T) {
	adapter := &stubAdapter{adverts: []ble.Device{
		{ID: "AA"}, {ID: "AA"}, {ID: "BB"},
	}}
	s := NewSession(adapter)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	events := s.Events()
	var got []string
	for i := 0; i < 2; i++ {
		select {
		case dev := <-events:
			got = append(got, dev.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for discovery event")
		}
	}
	if got[0] != "AA" || got[1] != "BB" {
		t.Errorf("events = %v, want [AA BB]", got)
	}

	select {
	case dev := <-events:
		t.Errorf("unexpected extra event for %s", dev.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionRestartClearsDeviceList(t *testing.T) {
	adapter := &stubAdapter{adverts: []ble.Device{{ID: "AA"}, {ID: "BB"}}}
	s := NewSession(adapter)
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	waitForDevices(t, s, 2)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	waitForDevices(t, s, 2)

	if n := len(s.Devices()); n != 2 {
		t.Errorf("len(Devices()) = %d after restart, want 2", n)
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	adapter := &stubAdapter{}
	s := NewSession(adapter)

	// Stopping with no scan active is a no-op.
	s.Stop()
	s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
	s.Stop()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scan goroutine did not exit after Stop")
	}
	if s.Scanning() {
		t.Error("Scanning() = true after Stop")
	}
}

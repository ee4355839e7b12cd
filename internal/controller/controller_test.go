package controller

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/kdarrow/blescribe/internal/ble"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func testAdverts() []ble.Device {
	// The same peripheral advertises more than once per scan.
	return []ble.Device{
		{ID: "AA:00", Name: "thermo"},
		{ID: "BB:11", Name: ""},
		{ID: "AA:00", Name: "thermo"},
	}
}

func TestStartScanDeduplicatesDevices(t *testing.T) {
	adapter := newMockAdapter(testAdverts())
	s := NewSession(adapter, nil)
	defer s.Close()

	if err := s.StartScan(context.Background()); err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	waitFor(t, func() bool { return len(s.Devices()) == 2 })

	devices := s.Devices()
	if devices[0].ID != "AA:00" || devices[1].ID != "BB:11" {
		t.Errorf("Devices() = %v, want arrival order AA:00, BB:11", devices)
	}
}

func TestRestartScanDoesNotAccumulateDuplicates(t *testing.T) {
	adapter := newMockAdapter(testAdverts())
	s := NewSession(adapter, nil)
	defer s.Close()

	if err := s.StartScan(context.Background()); err != nil {
		t.Fatalf("first StartScan() error = %v", err)
	}
	waitFor(t, func() bool { return len(s.Devices()) == 2 })

	// Second start without an explicit stop.
	if err := s.StartScan(context.Background()); err != nil {
		t.Fatalf("second StartScan() error = %v", err)
	}
	waitFor(t, func() bool { return len(s.Devices()) == 2 })

	seen := make(map[string]int)
	for _, dev := range s.Devices() {
		seen[dev.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("device %s appears %d times, want 1", id, n)
		}
	}
}

func TestStopScanWhenIdleIsNoOp(t *testing.T) {
	s := NewSession(newMockAdapter(nil), nil)
	s.StopScan()
	s.StopScan()
	if s.Scanning() {
		t.Error("Scanning() = true after StopScan on idle session")
	}
}

func TestStartScanWithPermissionDenied(t *testing.T) {
	s := NewSession(newMockAdapter(nil), denyAllPermissions{})
	err := s.StartScan(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("StartScan() error = %v, want ErrPermissionDenied", err)
	}
	if s.Scanning() {
		t.Error("Scanning() = true after denied permission")
	}
}

func TestConnectStopsActiveScan(t *testing.T) {
	adapter := newMockAdapter(testAdverts())
	adapter.connection = &mockConnection{}
	s := NewSession(adapter, nil)
	defer s.Close()

	if err := s.StartScan(context.Background()); err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	waitFor(t, func() bool { return s.Scanning() })

	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00", Name: "thermo"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if s.Scanning() {
		t.Error("Scanning() = true after Connect")
	}
	if adapter.stopCount() == 0 {
		t.Error("Connect did not stop the adapter scan")
	}
	if dev, ok := s.Connected(); !ok || dev.ID != "AA:00" {
		t.Errorf("Connected() = %v, %v; want AA:00, true", dev, ok)
	}
}

func TestConnectDiscoveryFailureDisconnects(t *testing.T) {
	conn := &mockConnection{discoverErr: errors.New("gatt timeout")}
	adapter := newMockAdapter(nil)
	adapter.connection = conn
	s := NewSession(adapter, nil)

	err := s.Connect(context.Background(), ble.Device{ID: "AA:00"})
	if err == nil {
		t.Fatal("Connect() error = nil, want discovery failure")
	}
	if !conn.isDisconnected() {
		t.Error("connection left open after discovery failure")
	}
	if _, ok := s.Connected(); ok {
		t.Error("Connected() reports a device after failed connect")
	}
}

func TestSendPayloadWithoutConnection(t *testing.T) {
	char := &mockCharacteristic{uuid: "2a00", props: ble.Properties{Write: true}}
	adapter := newMockAdapter(nil)
	adapter.connection = &mockConnection{
		services: []ble.Service{&mockService{uuid: "1800", chars: []ble.Characteristic{char}}},
	}
	s := NewSession(adapter, nil)
	s.SetPayload("hello")

	_, err := s.SendPayload()
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("SendPayload() error = %v, want ErrNotConnected", err)
	}
	if char.writeCount() != 0 {
		t.Errorf("write path invoked %d times without a connection", char.writeCount())
	}
}

func TestSendPayloadWritesFirstWritableCharacteristic(t *testing.T) {
	ro := func(uuid string) *mockCharacteristic {
		return &mockCharacteristic{uuid: uuid, props: ble.Properties{Read: true}}
	}
	target := &mockCharacteristic{uuid: "ffe1", props: ble.Properties{WriteWithoutResponse: true}}
	later := &mockCharacteristic{uuid: "ffe9", props: ble.Properties{Write: true}}

	svc1 := &mockService{uuid: "1800", chars: []ble.Characteristic{ro("2a00"), ro("2a01")}}
	svc2 := &mockService{uuid: "ffe0", chars: []ble.Characteristic{ro("ffe2"), ro("ffe3"), target}}
	svc3 := &mockService{uuid: "ffe8", chars: []ble.Characteristic{later}}

	adapter := newMockAdapter(nil)
	adapter.connection = &mockConnection{services: []ble.Service{svc1, svc2, svc3}}
	s := NewSession(adapter, nil)

	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	s.SetPayload("hello")

	receipt, err := s.SendPayload()
	if err != nil {
		t.Fatalf("SendPayload() error = %v", err)
	}
	if receipt.ServiceUUID != "ffe0" || receipt.CharacteristicUUID != "ffe1" {
		t.Errorf("receipt = %+v, want service ffe0 characteristic ffe1", receipt)
	}

	if target.writeCount() != 1 {
		t.Errorf("target written %d times, want exactly 1", target.writeCount())
	}
	want := base64.StdEncoding.EncodeToString([]byte("hello"))
	if got := string(target.lastWrite()); got != want {
		t.Errorf("written payload = %q, want base64 %q", got, want)
	}

	// The matching service ends the walk; later services are not examined.
	if svc3.enumerationCount() != 0 {
		t.Errorf("service after the match enumerated %d times, want 0", svc3.enumerationCount())
	}
	if later.writeCount() != 0 {
		t.Errorf("characteristic after the match written %d times, want 0", later.writeCount())
	}
}

func TestSendPayloadNoWritableCharacteristic(t *testing.T) {
	chars := []*mockCharacteristic{
		{uuid: "2a00", props: ble.Properties{Read: true}},
		{uuid: "2a05", props: ble.Properties{Notify: true}},
	}
	svc := &mockService{uuid: "1800", chars: []ble.Characteristic{chars[0], chars[1]}}

	adapter := newMockAdapter(nil)
	adapter.connection = &mockConnection{services: []ble.Service{svc}}
	s := NewSession(adapter, nil)

	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	s.SetPayload("hello")

	_, err := s.SendPayload()
	if !errors.Is(err, ErrNoWritableCharacteristic) {
		t.Errorf("SendPayload() error = %v, want ErrNoWritableCharacteristic", err)
	}
	for _, char := range chars {
		if char.writeCount() != 0 {
			t.Errorf("characteristic %s written %d times, want 0", char.uuid, char.writeCount())
		}
	}
}

func TestSendPayloadWriteFailure(t *testing.T) {
	char := &mockCharacteristic{
		uuid:     "ffe1",
		props:    ble.Properties{Write: true},
		writeErr: errors.New("att error 0x03"),
	}
	svc := &mockService{uuid: "ffe0", chars: []ble.Characteristic{char}}

	adapter := newMockAdapter(nil)
	adapter.connection = &mockConnection{services: []ble.Service{svc}}
	s := NewSession(adapter, nil)

	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	_, err := s.SendPayload()
	if err == nil {
		t.Fatal("SendPayload() error = nil, want write failure")
	}
	if errors.Is(err, ErrNoWritableCharacteristic) {
		t.Error("write failure reported as no-writable-characteristic")
	}
}

func TestDisconnectClearsTrackedState(t *testing.T) {
	conn := &mockConnection{}
	adapter := newMockAdapter(nil)
	adapter.connection = conn
	s := NewSession(adapter, nil)

	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	if !conn.isDisconnected() {
		t.Error("tracked connection was not cancelled")
	}
	if _, ok := s.Connected(); ok {
		t.Error("Connected() reports a device after Disconnect")
	}
	// Disconnecting again is a no-op.
	if err := s.Disconnect(); err != nil {
		t.Errorf("second Disconnect() error = %v", err)
	}
}

func TestUnavailableAdapter(t *testing.T) {
	s := NewSession(nil, nil)

	if s.Available() {
		t.Error("Available() = true with nil adapter")
	}
	if err := s.StartScan(context.Background()); !errors.Is(err, ble.ErrUnavailable) {
		t.Errorf("StartScan() error = %v, want ErrUnavailable", err)
	}
	if err := s.Connect(context.Background(), ble.Device{ID: "AA:00"}); !errors.Is(err, ble.ErrUnavailable) {
		t.Errorf("Connect() error = %v, want ErrUnavailable", err)
	}
	// Teardown with an absent adapter must not fault.
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCloseDuringActiveScan(t *testing.T) {
	adapter := newMockAdapter(testAdverts())
	s := NewSession(adapter, nil)

	if err := s.StartScan(context.Background()); err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	waitFor(t, func() bool { return s.Scanning() })

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-s.ScanDone():
	case <-time.After(2 * time.Second):
		t.Fatal("scan subscription not removed by Close")
	}
}

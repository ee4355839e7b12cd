package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/kdarrow/blescribe/internal/ble"
	"github.com/kdarrow/blescribe/internal/config"
	"github.com/kdarrow/blescribe/internal/controller"
)

// newTestSession returns a session with no adapter. Model transition tests
// drive the screens with messages directly, so no radio is needed.
func newTestSession() *controller.Session {
	return controller.NewSession(nil, nil)
}

func TestDiscoveryScanStartFailureShowsError(t *testing.T) {
	m := NewDiscoveryModel(newTestSession(), config.NewRegistry())

	scanErr := errors.New("adapter powered off")
	updated, _ := m.Update(scanStartedMsg{err: scanErr})
	m = updated.(DiscoveryModel)

	if m.Scanning {
		t.Error("expected Scanning=false after failed scan start")
	}
	if m.Err == nil {
		t.Fatal("expected error to be recorded")
	}
	if !errors.Is(m.Err, scanErr) {
		t.Errorf("expected recorded error %v, got %v", scanErr, m.Err)
	}
}

func TestDiscoveryDeviceFoundAppendsToList(t *testing.T) {
	m := NewDiscoveryModel(newTestSession(), config.NewRegistry())

	updated, _ := m.Update(scanStartedMsg{})
	m = updated.(DiscoveryModel)
	if !m.Scanning {
		t.Fatal("expected Scanning=true after successful scan start")
	}

	devices := []ble.Device{
		{ID: "AA:BB:CC:DD:EE:01", Name: "Sensor", RSSI: -42},
		{ID: "AA:BB:CC:DD:EE:02", RSSI: -71},
	}
	for _, dev := range devices {
		updated, _ = m.Update(deviceFoundMsg{device: dev})
		m = updated.(DiscoveryModel)
	}

	items := m.DeviceList.Items()
	if len(items) != len(devices) {
		t.Fatalf("expected %d list items, got %d", len(devices), len(items))
	}
	for i, item := range items {
		di := item.(deviceItem)
		if di.device.ID != devices[i].ID {
			t.Errorf("item %d: expected ID %s, got %s", i, devices[i].ID, di.device.ID)
		}
	}
}

func TestDiscoveryScanEndClearsScanningState(t *testing.T) {
	m := NewDiscoveryModel(newTestSession(), config.NewRegistry())

	updated, _ := m.Update(scanStartedMsg{})
	m = updated.(DiscoveryModel)

	updated, _ = m.Update(scanEndedMsg{})
	m = updated.(DiscoveryModel)

	if m.Scanning {
		t.Error("expected Scanning=false after scan ended")
	}
}

func TestDiscoveryNicknameFromRegistry(t *testing.T) {
	registry := config.NewRegistry()
	registry.Remember("AA:BB:CC:DD:EE:01", "Sensor", time.Now())
	registry.Devices["AA:BB:CC:DD:EE:01"].Nickname = "garage door"

	m := NewDiscoveryModel(newTestSession(), registry)

	updated, _ := m.Update(scanStartedMsg{})
	m = updated.(DiscoveryModel)
	updated, _ = m.Update(deviceFoundMsg{device: ble.Device{ID: "AA:BB:CC:DD:EE:01", Name: "Sensor"}})
	m = updated.(DiscoveryModel)

	di := m.DeviceList.Items()[0].(deviceItem)
	if di.Title() != "garage door" {
		t.Errorf("expected nickname title, got %q", di.Title())
	}
}

func TestDashboardSendResultSuccess(t *testing.T) {
	m := NewDashboardModel(newTestSession(), ble.Device{ID: "AA:BB:CC:DD:EE:01"})
	m.Sending = true

	receipt := controller.WriteReceipt{
		ServiceUUID:        "1800",
		CharacteristicUUID: "2a00",
		EncodedLen:         8,
	}
	updated, _ := m.Update(sendResultMsg{receipt: receipt})
	m = updated.(DashboardModel)

	if m.Sending {
		t.Error("expected Sending=false after result")
	}
	if !m.LastSendOK {
		t.Error("expected LastSendOK=true")
	}
	if m.LastReceipt != receipt {
		t.Errorf("expected receipt %+v, got %+v", receipt, m.LastReceipt)
	}
}

func TestDashboardSendResultFailure(t *testing.T) {
	m := NewDashboardModel(newTestSession(), ble.Device{ID: "AA:BB:CC:DD:EE:01"})
	m.Sending = true

	sendErr := errors.New("write rejected")
	updated, _ := m.Update(sendResultMsg{err: sendErr})
	m = updated.(DashboardModel)

	if m.Sending {
		t.Error("expected Sending=false after result")
	}
	if m.LastSendOK {
		t.Error("expected LastSendOK=false after failure")
	}
	if !errors.Is(m.SendErr, sendErr) {
		t.Errorf("expected recorded error %v, got %v", sendErr, m.SendErr)
	}
}

func TestAppConnectFailureStaysOnDiscovery(t *testing.T) {
	app := NewAppModel(newTestSession(), config.NewRegistry())

	connErr := errors.New("peripheral out of range")
	updated, _ := app.Update(connectResultMsg{device: ble.Device{ID: "AA:BB:CC:DD:EE:01"}, err: connErr})
	app = updated.(AppModel)

	if app.CurrentScreen != ScreenDiscovery {
		t.Errorf("expected discovery screen, got %s", app.CurrentScreen)
	}
	if app.DiscoveryModel.Connecting {
		t.Error("expected Connecting=false after failed connect")
	}
	if !errors.Is(app.DiscoveryModel.Err, connErr) {
		t.Errorf("expected recorded error %v, got %v", connErr, app.DiscoveryModel.Err)
	}
}

func TestAppDisconnectReturnsToDiscovery(t *testing.T) {
	app := NewAppModel(newTestSession(), config.NewRegistry())
	app.CurrentScreen = ScreenDashboard

	updated, _ := app.Update(disconnectedMsg{})
	app = updated.(AppModel)

	if app.CurrentScreen != ScreenDiscovery {
		t.Errorf("expected discovery screen after disconnect, got %s", app.CurrentScreen)
	}
}

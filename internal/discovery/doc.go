// Package discovery provides BLE peripheral discovery for blescribe.
//
// Discovery is a scan session over the BLE adapter: advertisements are
// received as a stream of callback events, deduplicated by device
// identifier, and collected in arrival order. A session is restartable;
// every start clears the previous device list.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. The adapter begins listening for advertisements
//  2. Every advertisement is reported to the session
//  3. The first advertisement from each identifier is appended to the
//     device list; duplicates are ignored
//  4. New devices are also published on an event channel for live UIs
//  5. Stopping the session cancels the adapter scan
//
// # Usage Example
//
//	session := discovery.NewSession(adapter)
//	if err := session.Start(ctx); err != nil {
//	    return err
//	}
//	for dev := range session.Events() {
//	    fmt.Println("found:", dev)
//	}
//
// # Scan Errors
//
// An adapter error during an active scan stops the session and is logged;
// it is not surfaced to consumers. The Done channel closes when the scan
// goroutine exits for any reason.
//
// # Thread Safety
//
// Sessions are safe for concurrent use. All mutation is guarded by a
// single mutex; the event channel is never closed while a scan is active.
package discovery

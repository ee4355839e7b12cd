// Package payload implements the outgoing wire encoding for characteristic
// writes.
//
// The peripheral-facing contract is simple: the user's free-text payload is
// base64 encoded (standard alphabet, padded) and the encoded bytes are
// written to the target characteristic in a single write. The package also
// reports how the encoded size relates to the ATT payload budget so UIs can
// warn about writes a peripheral may truncate.
package payload

import "encoding/base64"

const (
	// DefaultATTMTU is the ATT MTU every BLE connection starts with before
	// any MTU exchange.
	DefaultATTMTU = 23

	// attWriteHeaderLen is the ATT header overhead of a write request,
	// leaving MTU-3 bytes for the attribute value.
	attWriteHeaderLen = 3
)

// Encode returns the wire form of the payload text: its base64 encoding.
func Encode(text string) []byte {
	return []byte(base64.StdEncoding.EncodeToString([]byte(text)))
}

// EncodedLen returns the wire length of the payload text without encoding
// it.
func EncodedLen(text string) int {
	return base64.StdEncoding.EncodedLen(len(text))
}

// FitsMTU reports whether the encoded payload fits in a single ATT write
// at the given MTU. With mtu <= 0 the default ATT MTU is assumed.
//
// This is advisory: the write is attempted regardless, since most stacks
// negotiate a larger MTU or fragment long writes themselves.
func FitsMTU(text string, mtu int) bool {
	if mtu <= 0 {
		mtu = DefaultATTMTU
	}
	return EncodedLen(text) <= mtu-attWriteHeaderLen
}

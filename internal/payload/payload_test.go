package payload

import (
	"encoding/base64"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "plain text",
			text:     "hello",
			expected: "aGVsbG8=",
		},
		{
			name:     "empty payload",
			text:     "",
			expected: "",
		},
		{
			name:     "utf-8 text",
			text:     "héllo",
			expected: base64.StdEncoding.EncodeToString([]byte("héllo")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.text)); got != tt.expected {
				t.Errorf("Encode(%q) = %q, want %q", tt.text, got, tt.expected)
			}
		})
	}
}

func TestEncodedLen(t *testing.T) {
	texts := []string{"", "a", "ab", "abc", "abcd", "a longer payload string"}
	for _, text := range texts {
		if got, want := EncodedLen(text), len(Encode(text)); got != want {
			t.Errorf("EncodedLen(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestFitsMTU(t *testing.T) {
	tests := []struct {
		name string
		text string
		mtu  int
		want bool
	}{
		{
			name: "short payload fits default MTU",
			text: "hi",
			mtu:  0,
			want: true,
		},
		{
			// 15 raw bytes encode to 20 bytes, exactly the 23-3 budget.
			name: "boundary payload fits default MTU",
			text: "123456789012345",
			mtu:  0,
			want: true,
		},
		{
			// 16 raw bytes encode to 24 bytes, one over the budget.
			name: "boundary payload overflows default MTU",
			text: "1234567890123456",
			mtu:  0,
			want: false,
		},
		{
			name: "long payload fits negotiated MTU",
			text: "1234567890123456",
			mtu:  185,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FitsMTU(tt.text, tt.mtu); got != tt.want {
				t.Errorf("FitsMTU(%q, %d) = %v, want %v", tt.text, tt.mtu, got, tt.want)
			}
		})
	}
}

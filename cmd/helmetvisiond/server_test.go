package main

import (
	"encoding/base64"
	"testing"
)

func TestDecodeBase64Image(t *testing.T) {

	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		input string
		valid bool
	}{
		{encoded, true},
		{"data:image/jpeg;base64," + encoded, true},
		{"not base64 at all!!!", false},
	}

	for _, tc := range tests {
		data, err := decodeBase64Image(tc.input)

		if tc.valid && err != nil {
			t.Errorf("decode of %q failed: %v", tc.input, err)
		}
		if tc.valid && string(data) != string(payload) {
			t.Errorf("decode of %q returned wrong bytes", tc.input)
		}
		if !tc.valid && err == nil {
			t.Errorf("decode of %q should have failed", tc.input)
		}
	}
}

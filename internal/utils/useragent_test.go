package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceLabel(t *testing.T) {
	cases := []struct {
		name  string
		ua    string
		label string
		class string
	}{
		{
			name:  "desktop chrome",
			ua:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			label: "Chrome on Windows",
			class: "desktop",
		},
		{
			name:  "iphone safari",
			ua:    "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			label: "Safari on iOS",
			class: "mobile",
		},
		{
			name:  "android firefox",
			ua:    "Mozilla/5.0 (Android 14; Mobile; rv:120.0) Gecko/120.0 Firefox/120.0",
			label: "Firefox on Android",
			class: "mobile",
		},
		{
			name:  "empty",
			ua:    "",
			label: "Unknown Device",
			class: "desktop",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			label, class := DeviceLabel(tc.ua)
			assert.Equal(t, tc.label, label)
			assert.Equal(t, tc.class, class)
		})
	}
}

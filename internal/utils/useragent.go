package utils

import "strings"

// DeviceLabel derives the human-readable session label and a rough device
// class from a User-Agent header. Best effort only; it feeds the session
// list so users can recognize their own logins.
func DeviceLabel(userAgent string) (string, string) {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device", "desktop"
	}

	browser := browserName(userAgent)
	os := osName(userAgent)

	label := "Unknown Device"
	if browser != "" && os != "" {
		label = browser + " on " + os
	} else if browser != "" {
		label = browser
	}
	return label, deviceClass(userAgent)
}

func browserName(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	}
	return ""
}

func osName(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return ""
}

func deviceClass(ua string) string {
	switch {
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		return "tablet"
	case strings.Contains(ua, "Mobile") || strings.Contains(ua, "iPhone") || strings.Contains(ua, "Android"):
		return "mobile"
	}
	return "desktop"
}

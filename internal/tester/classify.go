package tester

import (
	"net/netip"
	"strings"
	"unicode/utf8"
)

const (
	msgNoResponse = "No response from IP check service"
	msgHTML       = "Received HTML response instead of IP"
	msgInvalidIP  = "Invalid IP: "
)

// Classify inspects a probe body. It returns the observed address when the
// body is exactly an IPv4 or IPv6 literal, otherwise the failure reason.
func Classify(body string) (addr string, reason string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", msgNoResponse
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		// captive portal or blocked egress
		return "", msgHTML
	}

	ip, err := netip.ParseAddr(body)
	if err != nil || ip.Zone() != "" {
		return "", msgInvalidIP + truncate(body, 64)
	}
	return body, ""
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

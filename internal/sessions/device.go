package sessions

import "strings"

// devicePatterns maps user-agent substrings to coarse device labels. The
// slice order is the matching priority: user agents routinely contain
// several of these tokens (every Edge UA also says "Chrome", every Chrome UA
// also says "Safari"), so the first hit wins and the order is part of the
// observable behavior.
var devicePatterns = []struct {
	pattern string
	label   string
}{
	{"iPhone", "iPhone"},
	{"iPad", "iPad"},
	{"Android", "Android Device"},
	{"Chrome", "Chrome Browser"},
	{"Firefox", "Firefox Browser"},
	{"Safari", "Safari Browser"},
	{"Edge", "Edge Browser"},
}

const unknownDevice = "Unknown Device"

// DeviceName derives a coarse device label from a user-agent string.
func DeviceName(userAgent string) string {
	for _, entry := range devicePatterns {
		if strings.Contains(userAgent, entry.pattern) {
			return entry.label
		}
	}
	return unknownDevice
}

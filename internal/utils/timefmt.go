package utils

import "fmt"

// FormatClock renders seconds as HH:MM:SS, zero-padded. Used for
// transcript artifact timestamps.
func FormatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatTimestamp renders seconds as M:SS, or H:MM:SS once the hour
// mark is crossed. Used for chunk metadata shown to users.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

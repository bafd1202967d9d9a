// Package format holds small display helpers for durations and sizes.
package format

import "fmt"

// Clock formats a millisecond count as HH:MM:SS or MM:SS.
// Sub-second precision is dropped; negative values render as zero.
func Clock(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Span formats a millisecond range as "MM:SS-MM:SS" (or the HH:MM:SS
// variant once either endpoint reaches an hour).
func Span(startMS, endMS int) string {
	return Clock(startMS) + "-" + Clock(endMS)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

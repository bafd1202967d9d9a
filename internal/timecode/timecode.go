// Package timecode converts subtitle-style timestamps (HH:MM:SS,mmm)
// to and from integer millisecond offsets.
package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed indicates a timestamp that does not match HH:MM:SS,mmm.
var ErrMalformed = errors.New("malformed timecode")

// MaxMS is the largest offset Format can represent (99:59:59,999).
const MaxMS = 99*3600000 + 59*60000 + 59*1000 + 999

// pattern matches HH:MM:SS,mmm with fixed field widths.
var pattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})$`)

// Parse converts a HH:MM:SS,mmm timestamp to milliseconds.
func Parse(s string) (int, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	// Fields are guaranteed numeric by the pattern.
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])

	return h*3600000 + mi*60000 + sec*1000 + ms, nil
}

// Format converts a millisecond offset to HH:MM:SS,mmm.
// It is the exact inverse of Parse for all ms in [0, MaxMS].
func Format(ms int) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	mi := ms / 60000 % 60
	sec := ms / 1000 % 60
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, mi, sec, frac)
}

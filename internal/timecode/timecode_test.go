package timecode_test

import (
	"errors"
	"testing"

	"clipsift/internal/timecode"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{
			name: "zero",
			in:   "00:00:00,000",
			want: 0,
		},
		{
			name: "one second",
			in:   "00:00:01,000",
			want: 1000,
		},
		{
			name: "mixed fields",
			in:   "01:02:03,456",
			want: 3723456,
		},
		{
			name: "maximum",
			in:   "99:59:59,999",
			want: timecode.MaxMS,
		},
		{
			name:    "missing millis",
			in:      "00:00:01",
			wantErr: true,
		},
		{
			name:    "dot separator",
			in:      "00:00:01.000",
			wantErr: true,
		},
		{
			name:    "short field",
			in:      "0:00:01,000",
			wantErr: true,
		},
		{
			name:    "non numeric",
			in:      "00:0a:01,000",
			wantErr: true,
		},
		{
			name:    "trailing garbage",
			in:      "00:00:01,000x",
			wantErr: true,
		},
		{
			name:    "empty",
			in:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := timecode.Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, timecode.ErrMalformed) {
					t.Fatalf("Parse(%q) error = %v, want ErrMalformed", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero", ms: 0, want: "00:00:00,000"},
		{name: "millis only", ms: 7, want: "00:00:00,007"},
		{name: "mixed", ms: 3723456, want: "01:02:03,456"},
		{name: "maximum", ms: timecode.MaxMS, want: "99:59:59,999"},
		{name: "negative clamps to zero", ms: -5, want: "00:00:00,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := timecode.Format(tt.ms); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

// TestRoundTrip verifies parse(format(ms)) == ms across the valid range.
// Steps by a prime to hit varied field combinations without an exhaustive sweep.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for ms := 0; ms <= timecode.MaxMS; ms += 104729 {
		got, err := timecode.Parse(timecode.Format(ms))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) error: %v", ms, err)
		}
		if got != ms {
			t.Fatalf("round trip %d -> %q -> %d", ms, timecode.Format(ms), got)
		}
	}

	// Edge values the stride may skip.
	for _, ms := range []int{0, 1, 999, 1000, 59999, 60000, 3599999, 3600000, timecode.MaxMS} {
		got, err := timecode.Parse(timecode.Format(ms))
		if err != nil || got != ms {
			t.Fatalf("round trip %d = %d, err %v", ms, got, err)
		}
	}
}

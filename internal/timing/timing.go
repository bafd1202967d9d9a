// Package timing parses subtitle-style timing files into ordered cues.
//
// A timing file is UTF-8 text made of blocks separated by blank lines.
// A well-formed block carries an integer index line, a range line
// ("HH:MM:SS,mmm --> HH:MM:SS,mmm"), and zero or more free-text lines.
// Malformed or incomplete blocks are dropped rather than failing the file;
// a file that yields no cues is valid and simply contributes nothing.
package timing

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"clipsift/internal/timecode"
)

// ErrNotText indicates the file could not be decoded as UTF-8 text.
var ErrNotText = errors.New("timing file is not valid UTF-8 text")

// rangeSeparator splits the start and end timecodes on a range line.
const rangeSeparator = "-->"

// Cue is one retained timing block: a millisecond interval plus the text
// that accompanied it. Index is the block's own numbering, carried through
// for diagnostics only; gaps and duplicates are accepted.
type Cue struct {
	Index   int
	StartMS int
	EndMS   int
	Text    string
}

// Range renders the cue's interval in timing-file notation.
func (c Cue) Range() string {
	return timecode.Format(c.StartMS) + " " + rangeSeparator + " " + timecode.Format(c.EndMS)
}

// Parse reads one timing file's raw bytes and returns its cues in file
// order. The only failure is ErrNotText; everything block-level is
// recovered by dropping the block.
func Parse(data []byte) ([]Cue, error) {
	if !utf8.Valid(data) {
		return nil, ErrNotText
	}

	// Strip a UTF-8 BOM if present.
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))

	var (
		cues  []Cue
		block []string
	)

	flush := func() {
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
		block = block[:0]
	}

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		// Scanner errors here mean a pathological line length, which is
		// indistinguishable from non-text input for our purposes.
		return nil, fmt.Errorf("%w: %v", ErrNotText, err)
	}
	flush()

	return cues, nil
}

// parseBlock validates one block's lines. A block is kept only when it has
// an index line, a range line with two valid timecodes, and end > start.
func parseBlock(lines []string) (Cue, bool) {
	if len(lines) < 2 {
		return Cue{}, false
	}

	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, false
	}

	start, end, ok := parseRange(lines[1])
	if !ok || end <= start {
		return Cue{}, false
	}

	return Cue{
		Index:   index,
		StartMS: start,
		EndMS:   end,
		Text:    strings.Join(lines[2:], " "),
	}, true
}

// parseRange splits "start --> end" and parses both timecodes.
func parseRange(line string) (start, end int, ok bool) {
	left, right, found := strings.Cut(line, rangeSeparator)
	if !found {
		return 0, 0, false
	}

	start, err := timecode.Parse(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	end, err = timecode.Parse(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}

	return start, end, true
}

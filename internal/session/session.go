// Package session holds the review workflow state: the ordered segment
// list, the cursor, the insertion-ordered selection, and the action
// history that makes undo a strict structural inverse.
package session

import (
	"errors"

	"clipsift/internal/extract"
)

// ErrEndOfSession reports a decision attempted past the last segment.
// It is a workflow condition, not a failure: callers surface it and move on.
var ErrEndOfSession = errors.New("no more segments")

// ErrEmptyHistory reports an undo with nothing to undo. Also a reported
// no-op, not a failure.
var ErrEmptyHistory = errors.New("nothing to undo")

// ErrNoSegments indicates a session cannot start because nothing was
// extracted.
var ErrNoSegments = errors.New("session has no segments")

// ActionKind tags a forward decision in the history.
type ActionKind int

const (
	ActionSkip ActionKind = iota
	ActionAccept
)

func (k ActionKind) String() string {
	if k == ActionAccept {
		return "accept"
	}
	return "skip"
}

// Action records one forward decision and the cursor position it was made
// at. Undo applies the exact inverse of the recorded action.
type Action struct {
	Kind ActionKind
	At   int
}

// Session is the authoritative review state. It owns its segments once
// created; segments are immutable here apart from bookkeeping.
//
// Invariants: cursor is in [0, len(segments)]; selected holds segment
// ordinals in the order they were accepted; every entry popped off the
// history restores exactly the state from before it was pushed.
type Session struct {
	segments []extract.Segment
	cursor   int
	selected []int        // acceptance order
	chosen   map[int]bool // membership mirror of selected
	history  []Action
}

// New creates a Session over extracted segments in their batch order.
func New(segments []extract.Segment) *Session {
	return &Session{
		segments: segments,
		chosen:   make(map[int]bool),
	}
}

// Len returns the number of segments under review.
func (s *Session) Len() int { return len(s.segments) }

// Cursor returns the current position, which equals Len when every
// segment has been decided.
func (s *Session) Cursor() int { return s.cursor }

// Current returns the segment under the cursor, or false past the end.
func (s *Session) Current() (extract.Segment, bool) {
	if s.cursor >= len(s.segments) {
		return extract.Segment{}, false
	}
	return s.segments[s.cursor], true
}

// HistoryLen returns how many decisions can still be undone.
func (s *Session) HistoryLen() int { return len(s.history) }

// IsSelected reports whether the segment with the given ordinal was
// accepted.
func (s *Session) IsSelected(ordinal int) bool { return s.chosen[ordinal] }

// Selected returns the accepted segments in acceptance order, which is
// the concatenation order and deliberately not the segment order.
func (s *Session) Selected() []extract.Segment {
	byOrdinal := make(map[int]extract.Segment, len(s.segments))
	for _, seg := range s.segments {
		byOrdinal[seg.Ordinal] = seg
	}
	out := make([]extract.Segment, 0, len(s.selected))
	for _, ord := range s.selected {
		out = append(out, byOrdinal[ord])
	}
	return out
}

// skip records a skip decision and advances. Valid only when a further
// segment exists to advance to.
func (s *Session) skip() error {
	if s.cursor+1 >= len(s.segments) {
		return ErrEndOfSession
	}
	s.history = append(s.history, Action{Kind: ActionSkip, At: s.cursor})
	s.cursor++
	return nil
}

// accept selects the current segment and advances. Valid whenever the
// cursor still points at a segment; accepting the last one moves the
// cursor to Len, the completed position.
func (s *Session) accept() error {
	if s.cursor >= len(s.segments) {
		return ErrEndOfSession
	}
	ord := s.segments[s.cursor].Ordinal
	s.selected = append(s.selected, ord)
	s.chosen[ord] = true
	s.history = append(s.history, Action{Kind: ActionAccept, At: s.cursor})
	s.cursor++
	return nil
}

// undo pops one decision and applies its structural inverse: the cursor
// returns to the recorded position and, for an accept, the ordinal leaves
// the selection. Repeated calls walk the stack one entry at a time.
func (s *Session) undo() (Action, error) {
	if len(s.history) == 0 {
		return Action{}, ErrEmptyHistory
	}
	act := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.cursor = act.At

	if act.Kind == ActionAccept {
		ord := s.segments[act.At].Ordinal
		delete(s.chosen, ord)
		// The undone accept is necessarily the most recent selection.
		if n := len(s.selected); n > 0 && s.selected[n-1] == ord {
			s.selected = s.selected[:n-1]
		}
	}
	return act, nil
}

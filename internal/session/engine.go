package session

import (
	"fmt"
	"io"
	"log/slog"
)

// Player is the playback collaborator the engine drives. Implementations
// must support looped playback of one file at a time; the engine never
// plays two segments concurrently.
type Player interface {
	Load(path string) error
	Play(loop bool) error
	Pause() error
	Resume() error
	IsPlaying() bool
	Stop() error
}

// State is the engine's playback state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateComplete
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	default:
		return "idle"
	}
}

// Event is a review decision delivered to the engine. Modeling decisions
// as an enum keeps the engine independent of whatever surface (terminal,
// test script) produced them.
type Event int

const (
	EventStart Event = iota
	EventToggle
	EventSkip
	EventAccept
	EventUndo
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventToggle:
		return "toggle"
	case EventSkip:
		return "skip"
	case EventAccept:
		return "accept"
	case EventUndo:
		return "undo"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Engine interprets review decisions against a Session and drives the
// player. All operations are synchronous and must run on one goroutine;
// the engine holds no locks.
type Engine struct {
	session *Session
	player  Player
	state   State
	log     *slog.Logger
}

// NewEngine creates an Engine over a session and player.
func NewEngine(s *Session, player Player, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{session: s, player: player, log: log}
}

// Session exposes the underlying state for summaries.
func (e *Engine) Session() *Session { return e.session }

// State returns the current engine state.
func (e *Engine) State() State { return e.state }

// Handle dispatches one review event.
func (e *Engine) Handle(ev Event) error {
	switch ev {
	case EventStart:
		return e.Start()
	case EventToggle:
		return e.Toggle()
	case EventSkip:
		return e.Skip()
	case EventAccept:
		return e.Accept()
	case EventUndo:
		return e.Undo()
	default:
		return fmt.Errorf("unknown event %v", ev)
	}
}

// Start begins the review: loads the current segment and plays it on a
// loop until a decision arrives.
func (e *Engine) Start() error {
	if e.state != StateIdle {
		return nil
	}
	if e.session.Len() == 0 {
		return ErrNoSegments
	}
	return e.playCurrent()
}

// Toggle pauses or resumes playback without moving the cursor.
func (e *Engine) Toggle() error {
	switch e.state {
	case StatePlaying:
		if err := e.player.Pause(); err != nil {
			return err
		}
		e.state = StatePaused
	case StatePaused:
		if err := e.player.Resume(); err != nil {
			return err
		}
		e.state = StatePlaying
	}
	return nil
}

// Skip moves past the current segment without accepting it and plays the
// next one. At the last segment it reports ErrEndOfSession and changes
// nothing.
func (e *Engine) Skip() error {
	if e.state == StateComplete {
		return ErrEndOfSession
	}
	if err := e.session.skip(); err != nil {
		return err
	}
	e.log.Debug("skipped", "cursor", e.session.Cursor())
	return e.playCurrent()
}

// Accept selects the current segment and advances. Accepting the last
// segment completes the session and stops playback; this is the trigger
// point for concatenation.
func (e *Engine) Accept() error {
	if e.state == StateComplete {
		return ErrEndOfSession
	}
	if err := e.session.accept(); err != nil {
		return err
	}
	e.log.Debug("accepted", "cursor", e.session.Cursor(), "selected", len(e.session.selected))

	if e.session.Cursor() >= e.session.Len() {
		e.state = StateComplete
		return e.player.Stop()
	}
	return e.playCurrent()
}

// Undo reverses the most recent decision and restarts playback of the
// segment the cursor lands on. With an empty history it reports
// ErrEmptyHistory and changes nothing. Each call walks exactly one entry;
// the stack depth is unbounded within a session.
func (e *Engine) Undo() error {
	act, err := e.session.undo()
	if err != nil {
		return err
	}
	e.log.Debug("undone", "action", act.Kind.String(), "cursor", e.session.Cursor())
	return e.playCurrent()
}

// playCurrent loads and loop-plays the segment under the cursor.
func (e *Engine) playCurrent() error {
	seg, ok := e.session.Current()
	if !ok {
		return ErrEndOfSession
	}
	if err := e.player.Load(seg.Path); err != nil {
		return err
	}
	if err := e.player.Play(true); err != nil {
		return err
	}
	e.state = StatePlaying
	return nil
}

// Finish stops playback regardless of state; used when the user quits
// mid-session.
func (e *Engine) Finish() error {
	if e.state == StatePlaying || e.state == StatePaused {
		if err := e.player.Stop(); err != nil {
			return err
		}
	}
	if e.state != StateComplete {
		e.state = StateIdle
	}
	return nil
}

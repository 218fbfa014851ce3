/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTick is how far apart playback steps are.
const DefaultTick = time.Second

type Mode int

const (
	Live Mode = iota
	Viewing
	Playing
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Viewing:
		return "viewing"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Frame is what a viewer should currently display.
type Frame struct {
	Mode  Mode
	Index int
	Grid  State
}

type TimelineOption func(*Timeline)

// WithTick overrides the playback interval.
func WithTick(d time.Duration) TimelineOption {
	return func(t *Timeline) {
		if d > 0 {
			t.tick = d
		}
	}
}

// WithHistoryRequester sets the hook Reset uses to ask the server for a
// fresh history-snapshot.
func WithHistoryRequester(fn func()) TimelineOption {
	return func(t *Timeline) {
		t.requestHistory = fn
	}
}

// WithFrameHandler is called with every new frame. It runs while the
// timeline is locked and must not call back into it.
func WithFrameHandler(fn func(Frame)) TimelineOption {
	return func(t *Timeline) {
		t.onFrame = fn
	}
}

// Timeline is a participant's local copy of the grid and its history, with
// a scrubber that can show any past state without touching the live grid.
// While the timeline is not Live, the participant may not edit.
type Timeline struct {
	mu sync.Mutex

	tick           time.Duration
	requestHistory func()
	onFrame        func(Frame)

	history      []Event
	live         State
	view         State
	mode         Mode
	index        int
	participants int

	stop chan struct{}
	done chan struct{}
}

func NewTimeline(opts ...TimelineOption) *Timeline {
	t := &Timeline{
		tick:  DefaultTick,
		index: -1,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Receive folds a server message into the local state.
func (t *Timeline) Receive(m ServerMessage) {
	switch m.Type {
	case TypeFullGrid:
		if m.Grid != nil {
			t.SetLiveGrid(*m.Grid)
		}
	case TypeCellChanged:
		if m.Event != nil {
			t.ApplyLive(*m.Event)
		}
	case TypeHistorySnapshot:
		t.SetHistory(m.History)
	case TypeParticipantCount:
		t.mu.Lock()
		t.participants = m.Count
		t.mu.Unlock()
	}
}

func (t *Timeline) SetLiveGrid(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.live = s
	if t.mode == Live {
		t.emitLocked()
	}
}

func (t *Timeline) ApplyLive(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !inBounds(e.Row, e.Col) {
		return
	}

	t.live[e.Row][e.Col] = e.Character
	if t.mode == Live {
		t.emitLocked()
	}
}

// SetHistory replaces the cached history. A Live timeline follows the end of
// the log; Viewing and Playing keep their position.
func (t *Timeline) SetHistory(h []Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history[:0:0], h...)
	last := len(t.history) - 1

	if t.mode == Live {
		t.index = last
		return
	}

	if t.index > last {
		t.index = last
		t.view, _ = Reconstruct(t.history, t.index)
		t.emitLocked()
	}
}

// Scrub jumps to index i, stopping any playback.
func (t *Timeline) Scrub(i int) error {
	t.mu.Lock()

	if i < 0 || i >= len(t.history) {
		n := len(t.history)
		t.mu.Unlock()
		return fmt.Errorf("%w: %d (history has %d events)", ErrIndexOutOfRange, i, n)
	}

	done := t.haltLocked()
	t.mode = Viewing
	t.index = i
	t.view, _ = Reconstruct(t.history, i)
	t.emitLocked()
	t.mu.Unlock()

	wait(done)

	return nil
}

// Play starts advancing one event per tick from the current index. It
// reports false if there is nothing left to play.
func (t *Timeline) Play() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == Playing || t.index >= len(t.history)-1 {
		return false
	}

	if t.index >= 0 {
		t.view, _ = Reconstruct(t.history, t.index)
	} else {
		t.view = State{}
	}

	t.mode = Playing
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.emitLocked()

	go t.loop(t.stop, t.done)

	return true
}

// Pause freezes playback at the current index.
func (t *Timeline) Pause() {
	t.mu.Lock()
	done := t.haltLocked()
	if t.mode == Playing {
		t.mode = Viewing
	}
	t.mu.Unlock()

	wait(done)
}

// Reset returns to the live grid and asks the server for fresh history.
func (t *Timeline) Reset() {
	t.mu.Lock()
	done := t.haltLocked()
	t.mode = Live
	t.index = len(t.history) - 1
	t.emitLocked()
	request := t.requestHistory
	t.mu.Unlock()

	wait(done)

	if request != nil {
		request()
	}
}

// Stop cancels playback. Call it when the viewer goes away.
func (t *Timeline) Stop() {
	t.Pause()
}

func (t *Timeline) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.advance(stop) {
				return
			}
		}
	}
}

func (t *Timeline) advance(stop <-chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	// halted while this tick was waiting for the lock
	select {
	case <-stop:
		return false
	default:
	}

	last := len(t.history) - 1
	next := t.index + 1
	if next > last {
		next = last
	}

	t.index = next
	t.view, _ = Reconstruct(t.history, next)

	if next >= last {
		t.mode = Viewing
		close(t.stop)
		t.stop, t.done = nil, nil
		t.emitLocked()

		return false
	}

	t.emitLocked()

	return true
}

// haltLocked signals the playback goroutine, if any, and returns a channel
// that closes once it has exited.
func (t *Timeline) haltLocked() chan struct{} {
	if t.stop == nil {
		return nil
	}

	close(t.stop)
	done := t.done
	t.stop, t.done = nil, nil

	return done
}

func wait(done chan struct{}) {
	if done != nil {
		<-done
	}
}

func (t *Timeline) emitLocked() {
	if t.onFrame != nil {
		t.onFrame(t.frameLocked())
	}
}

func (t *Timeline) frameLocked() Frame {
	f := Frame{Mode: t.mode, Index: t.index, Grid: t.view}
	if t.mode == Live {
		f.Grid = t.live
	}

	return f
}

func (t *Timeline) Frame() Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.frameLocked()
}

// Grid is the grid the viewer should currently display.
func (t *Timeline) Grid() State {
	return t.Frame().Grid
}

func (t *Timeline) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.mode
}

func (t *Timeline) Index() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.index
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.history)
}

func (t *Timeline) Participants() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.participants
}

// CanEdit reports whether the participant may select and submit cells.
func (t *Timeline) CanEdit() bool {
	return t.Mode() == Live
}

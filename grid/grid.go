/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package grid holds the shared character grid, its append-only edit log,
// and the replay logic used to rebuild the grid at any point in that log.
package grid

import (
	"strings"
)

// Size is the width and height of the grid.
const Size = 10

// Event is a single accepted edit. Events are never modified once appended.
type Event struct {
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	Character     string `json:"character"`
	Timestamp     int64  `json:"timestamp"` // client supplied, display only
	ParticipantID string `json:"participantId"`
}

// State is a full copy of the grid. Empty cells hold "".
type State [Size][Size]string

// String renders the grid one row per line, with empty cells shown as '.'.
func (s State) String() string {
	var b strings.Builder

	for row := range s {
		for col, cell := range s[row] {
			if col > 0 {
				b.WriteByte(' ')
			}
			if cell == "" {
				b.WriteByte('.')
				continue
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Store owns the mutable grid. It performs no validation.
type Store struct {
	cells State
}

func (s *Store) Apply(e Event) {
	s.cells[e.Row][e.Col] = e.Character
}

// Snapshot returns a copy of the current grid.
func (s *Store) Snapshot() State {
	return s.cells
}

// History is the ordered log of accepted events. There is no way to remove
// or rewrite an entry.
type History struct {
	events []Event
}

func (h *History) Append(e Event) {
	h.events = append(h.events, e)
}

// All returns a copy of the log in acceptance order.
func (h *History) All() []Event {
	out := make([]Event, len(h.events))
	copy(out, h.events)

	return out
}

func (h *History) Len() int {
	return len(h.events)
}

// Board is the single authoritative grid plus its history. The only way to
// change the grid is Accept, so the grid always equals a replay of the log.
//
// Board is not safe for concurrent use; callers serialize access.
type Board struct {
	store   Store
	history History
}

func NewBoard() *Board {
	return &Board{}
}

// Accept applies a validated event to the grid and appends it to the log.
func (b *Board) Accept(e Event) {
	b.store.Apply(e)
	b.history.Append(e)
}

func (b *Board) Snapshot() State {
	return b.store.Snapshot()
}

func (b *Board) History() []Event {
	return b.history.All()
}

func (b *Board) Len() int {
	return b.history.Len()
}

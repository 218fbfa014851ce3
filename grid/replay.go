/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

import (
	"errors"
	"fmt"
)

var ErrIndexOutOfRange = errors.New("history index out of range")

// Reconstruct folds history[0..upto] (inclusive) over an empty grid.
// An upto of -1 yields the empty grid. The result depends only on the
// arguments.
func Reconstruct(history []Event, upto int) (State, error) {
	var s State

	if upto < -1 || upto >= len(history) {
		return s, fmt.Errorf("%w: %d (history has %d events)", ErrIndexOutOfRange, upto, len(history))
	}

	for _, e := range history[:upto+1] {
		// history received over the wire is not trusted to be in bounds
		if !inBounds(e.Row, e.Col) {
			continue
		}
		s[e.Row][e.Col] = e.Character
	}

	return s, nil
}

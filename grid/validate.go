/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrOutOfBounds      = errors.New("cell is outside the grid")
	ErrCharacterTooLong = errors.New("character must be at most one symbol")
)

// Candidate is an edit as submitted by a participant, before validation.
type Candidate struct {
	Row       int
	Col       int
	Character string
	Timestamp int64
}

// Validate checks a candidate against the grid bounds and the one-symbol
// limit. An empty character is a valid clear. The returned event carries the
// transport-assigned participant id and the client's own timestamp.
func Validate(c Candidate, participantID string) (Event, error) {
	if !inBounds(c.Row, c.Col) {
		return Event{}, fmt.Errorf("%w: [%d, %d]", ErrOutOfBounds, c.Row, c.Col)
	}

	if utf8.RuneCountInString(c.Character) > 1 {
		return Event{}, fmt.Errorf("%w: %q", ErrCharacterTooLong, c.Character)
	}

	return Event{
		Row:           c.Row,
		Col:           c.Col,
		Character:     c.Character,
		Timestamp:     c.Timestamp,
		ParticipantID: participantID,
	}, nil
}

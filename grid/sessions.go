/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

// Sessions counts connected participants. Like Board, it is owned by a
// single goroutine.
type Sessions struct {
	count int
}

func (s *Sessions) Connect() int {
	s.count++

	return s.count
}

// Disconnect never takes the count below zero.
func (s *Sessions) Disconnect() int {
	if s.count > 0 {
		s.count--
	}

	return s.count
}

func (s *Sessions) Count() int {
	return s.count
}

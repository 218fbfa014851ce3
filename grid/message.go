/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

// Message types exchanged over the push channel.
const (
	TypeFullGrid         = "full-grid"
	TypeCellChanged      = "cell-changed"
	TypeHistorySnapshot  = "history-snapshot"
	TypeParticipantCount = "participant-count"
	TypeUpdateRejected   = "update-rejected"

	TypeSubmitUpdate   = "submit-update"
	TypeRequestHistory = "request-history"
)

// Messages sent to participants
type FullGridMessage struct {
	Type string `json:"type"` // "full-grid"
	Grid State  `json:"grid"`
}

type CellChangedMessage struct {
	Type  string `json:"type"` // "cell-changed"
	Event Event  `json:"event"`
}

type HistorySnapshotMessage struct {
	Type    string  `json:"type"`    // "history-snapshot"
	History []Event `json:"history"` // acceptance order, never null
}

type ParticipantCountMessage struct {
	Type  string `json:"type"` // "participant-count"
	Count int    `json:"count"`
}

// UpdateRejectedMessage is only sent when rejection acknowledgements are
// enabled; by default rejected updates are dropped without a reply.
type UpdateRejectedMessage struct {
	Type    string `json:"type"` // "update-rejected"
	Message string `json:"message"`
}

// ClientMessage is anything a participant sends.
type ClientMessage struct {
	Type      string `json:"type"`                // "submit-update", "request-history"
	Row       int    `json:"row"`                 // submit-update
	Col       int    `json:"col"`                 // submit-update
	Character string `json:"character"`           // submit-update
	Timestamp int64  `json:"timestamp,omitempty"` // submit-update
}

// Candidate extracts the edit carried by a submit-update message.
func (m ClientMessage) Candidate() Candidate {
	return Candidate{
		Row:       m.Row,
		Col:       m.Col,
		Character: m.Character,
		Timestamp: m.Timestamp,
	}
}

// ServerMessage decodes any message sent to participants.
type ServerMessage struct {
	Type    string  `json:"type"`
	Grid    *State  `json:"grid,omitempty"`
	Event   *Event  `json:"event,omitempty"`
	History []Event `json:"history,omitempty"`
	Count   int     `json:"count,omitempty"`
	Message string  `json:"message,omitempty"`
}

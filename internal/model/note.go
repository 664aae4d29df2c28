// Package model holds the note and user types shared by the server, the
// client and the CLI.
package model

import "time"

// Note is a sticky note card as it is stored and sent over the wire.
//
// SERIALIZED FIELDS:
// Body, Colors and Position are JSON documents kept as strings. This is the
// shape the browser frontend has always written, so the server stores them
// verbatim and the notefmt package is the only place that decodes them:
//
//	Body:     "\"buy milk\""   (a JSON string, sometimes encoded twice)
//	Colors:   "{\"id\":\"color-yellow\",\"colorHeader\":\"#FFEFBE\",...}"
//	Position: "{\"x\":120,\"y\":48}"
//
// UserID is a pointer because notes created before accounts existed have no
// owner (NULL in SQLite). The JSON tag omits it in that case.
type Note struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Colors    string    `json:"colors"`
	Position  string    `json:"position"`
	UserID    *string   `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner returns the owning user id, or "" for an unowned note.
func (n *Note) Owner() string {
	if n.UserID == nil {
		return ""
	}
	return *n.UserID
}

// Colors is the decoded form of Note.Colors.
type Colors struct {
	ID          string `json:"id"`
	ColorHeader string `json:"colorHeader"`
	ColorBody   string `json:"colorBody"`
	ColorText   string `json:"colorText"`
}

// Position is a card's top-left offset on the board. Both coordinates are
// kept >= 0.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParsedNote is a Note with its serialized fields decoded. Clients render
// and aggregate ParsedNotes; they never see the raw strings.
type ParsedNote struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Colors    Colors    `json:"colors"`
	Position  Position  `json:"position"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

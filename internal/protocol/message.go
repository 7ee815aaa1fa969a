// Package protocol defines the signaling message vocabulary shared by the
// server and clients. Requests are client-to-server commands tagged by "cmd";
// responses are the server-to-client messages that mirror them. Negotiation
// payloads (offer, answer, ice) are opaque to the server and are relayed
// without inspection.
package protocol

import "encoding/json"

// Command tags, client to server.
const (
	CmdCreate = "create"
	CmdJoin   = "join"
	CmdChoice = "choice"
	CmdOffer  = "offer"
	CmdAnswer = "answer"
	CmdICE    = "ice"
)

// Command tags, server to client. Offer/answer/ice are reused verbatim for
// relayed negotiation traffic.
const (
	CmdRoom   = "room"
	CmdPlayer = "player"
	CmdYou    = "you"
	CmdAlert  = "alert"
)

// Request is the envelope for every client-to-server message. Only the
// fields relevant to the tagged command are populated.
type Request struct {
	Cmd string `json:"cmd"`

	// create
	Private bool `json:"private,omitempty"`

	// join
	Code string `json:"code,omitempty"`

	// choice; 0 means unselected
	C int `json:"c,omitempty"`

	// offer / answer / ice. To narrows delivery to a single slot;
	// absent, the relay reaches every other participant in the room.
	Offer     json.RawMessage `json:"offer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        *int            `json:"to,omitempty"`
}

// PlayerInfo is one occupied slot in a room snapshot.
type PlayerInfo struct {
	ID string `json:"id"`
	C  int    `json:"c,omitempty"`
}

// RoomMsg is the full slot snapshot sent on create/join. Players holds one
// entry per slot, null where the slot is vacant. An empty code with an empty
// player list signals a failed join; the connection stays usable.
type RoomMsg struct {
	Cmd     string        `json:"cmd"`
	Code    string        `json:"code,omitempty"`
	Players []*PlayerInfo `json:"players"`
}

// YouMsg tells a client its own session identity and slot.
type YouMsg struct {
	Cmd  string `json:"cmd"`
	ID   string `json:"id"`
	Slot int    `json:"slot"`
}

// PlayerMsg is an incremental slot update: a join, a choice change, or a
// departure (empty id).
type PlayerMsg struct {
	Cmd  string `json:"cmd"`
	Slot int    `json:"slot"`
	ID   string `json:"id,omitempty"`
	C    int    `json:"c,omitempty"`
}

// SignalMsg is a relayed negotiation message. From is the sender's slot,
// stamped by the server.
type SignalMsg struct {
	Cmd       string          `json:"cmd"`
	From      int             `json:"from"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// AlertMsg carries an out-of-band notice (server announcements, creation
// failures).
type AlertMsg struct {
	Cmd string `json:"cmd"`
	Msg string `json:"msg"`
}

// Response is the union of every server-to-client message, used by clients
// to decode before dispatching on Cmd.
type Response struct {
	Cmd       string          `json:"cmd"`
	Code      string          `json:"code,omitempty"`
	Players   []*PlayerInfo   `json:"players,omitempty"`
	ID        string          `json:"id,omitempty"`
	Slot      int             `json:"slot,omitempty"`
	C         int             `json:"c,omitempty"`
	From      int             `json:"from,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Msg       string          `json:"msg,omitempty"`
}

package signaling

import (
	"log/slog"
	"strings"

	"github.com/kfalicov/super-swash-bros/internal/protocol"
)

// Command pairs an inbound request with the connection it arrived on.
type Command struct {
	Client *Client
	Req    protocol.Request
}

// RoomSummary is one row of the public room listing.
type RoomSummary struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Hub is the single authority over rooms and their codes. One goroutine
// (Run) owns all room state; connections talk to it exclusively through
// channels, which serializes every mutation and gives per-connection
// ordering for free.
type Hub struct {
	codes *CodeRegistry
	rooms map[string]*Room

	// Register is where new connections announce themselves.
	Register chan *Client

	// Unregister fires when a connection's transport closes.
	Unregister chan *Client

	// Inbound carries every parsed client command.
	Inbound chan Command

	list     chan chan []RoomSummary
	announce chan string
}

func NewHub() *Hub {
	return &Hub{
		codes:      NewCodeRegistry(),
		rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan Command),
		list:       make(chan chan []RoomSummary),
		announce:   make(chan string),
	}
}

// Run is the hub's event loop. It must be the only goroutine touching
// h.rooms and the rooms' slots.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			// Not in a room yet; they join or create via commands.
			slog.Debug("session connected", "session", client.SessionID)

		case client := <-h.Unregister:
			h.removeClient(client)
			close(client.Send)

		case cmd := <-h.Inbound:
			h.dispatch(cmd)

		case reply := <-h.list:
			reply <- h.publicRooms()

		case text := <-h.announce:
			msg := protocol.AlertMsg{Cmd: protocol.CmdAlert, Msg: text}
			for _, room := range h.rooms {
				for slot := 0; slot < MaxPlayers; slot++ {
					if c := room.ClientAt(slot); c != nil {
						c.trySend(msg)
					}
				}
			}
		}
	}
}

// ListRooms returns the public room listing. Safe to call from any
// goroutine; the snapshot is taken on the hub goroutine.
func (h *Hub) ListRooms() []RoomSummary {
	reply := make(chan []RoomSummary, 1)
	h.list <- reply
	return <-reply
}

// Announce broadcasts an alert to every participant in every room.
func (h *Hub) Announce(text string) {
	h.announce <- text
}

func (h *Hub) dispatch(cmd Command) {
	c := cmd.Client
	req := cmd.Req

	switch req.Cmd {
	case protocol.CmdCreate:
		h.handleCreate(c, req.Private)

	case protocol.CmdJoin:
		h.handleJoin(c, strings.ToUpper(req.Code))

	case protocol.CmdChoice:
		h.handleChoice(c, req.C)

	case protocol.CmdOffer, protocol.CmdAnswer, protocol.CmdICE:
		h.relay(c, req)

	default:
		slog.Warn("unknown command", "cmd", req.Cmd, "session", c.SessionID)
	}
}

func (h *Hub) handleCreate(c *Client, private bool) {
	// A session already holding a slot gets its current room back instead
	// of a second allocation.
	if room, ok := h.rooms[c.RoomCode]; ok {
		c.trySend(protocol.RoomMsg{Cmd: protocol.CmdRoom, Code: room.Code, Players: room.Snapshot()})
		return
	}

	code, err := h.codes.Allocate()
	if err != nil {
		slog.Error("room allocation failed", "session", c.SessionID, "err", err)
		c.trySend(protocol.AlertMsg{Cmd: protocol.CmdAlert, Msg: "could not create a room"})
		return
	}

	room := NewRoom(code, private)
	h.rooms[code] = room
	slog.Info("room created", "code", code, "private", private, "session", c.SessionID)

	h.admit(room, c)
}

func (h *Hub) handleJoin(c *Client, code string) {
	// One session, one slot, one room.
	if current, ok := h.rooms[c.RoomCode]; ok {
		c.trySend(protocol.RoomMsg{Cmd: protocol.CmdRoom, Code: current.Code, Players: current.Snapshot()})
		return
	}

	room, ok := h.rooms[code]
	if !ok || room.State() == StateClosed {
		slog.Info("join rejected", "code", code, "session", c.SessionID, "reason", ErrRoomNotFound)
		h.sendJoinFailure(c)
		return
	}
	if room.State() == StateFull {
		slog.Info("join rejected", "code", code, "session", c.SessionID, "reason", ErrRoomFull)
		h.sendJoinFailure(c)
		return
	}
	h.admit(room, c)
}

// sendJoinFailure surfaces RoomNotFound/RoomFull: a room message with no
// code and an empty player list, leaving the connection open for retry.
func (h *Hub) sendJoinFailure(c *Client) {
	c.trySend(protocol.RoomMsg{Cmd: protocol.CmdRoom, Players: []*protocol.PlayerInfo{}})
}

// admit places the session into the room's lowest free slot, tells the
// joiner who they are, and announces them to everyone already seated.
func (h *Hub) admit(room *Room, c *Client) {
	slot, err := room.Join(c)
	if err != nil {
		h.sendJoinFailure(c)
		return
	}
	c.RoomCode = room.Code
	slog.Info("player joined", "code", room.Code, "slot", slot, "session", c.SessionID)

	update := protocol.PlayerMsg{Cmd: protocol.CmdPlayer, Slot: slot, ID: c.SessionID}
	for i := 0; i < MaxPlayers; i++ {
		if other := room.ClientAt(i); other != nil && other != c {
			other.trySend(update)
		}
	}

	c.trySend(protocol.YouMsg{Cmd: protocol.CmdYou, ID: c.SessionID, Slot: slot})
	c.trySend(protocol.RoomMsg{Cmd: protocol.CmdRoom, Code: room.Code, Players: room.Snapshot()})
}

func (h *Hub) handleChoice(c *Client, choice int) {
	room, ok := h.rooms[c.RoomCode]
	if !ok {
		return
	}
	slot, ok := room.SetChoice(c.SessionID, choice)
	if !ok {
		// Session owns no slot here; silently ignore rather than trust a
		// client-asserted slot index.
		return
	}
	update := protocol.PlayerMsg{Cmd: protocol.CmdPlayer, Slot: slot, ID: c.SessionID, C: choice}
	for i := 0; i < MaxPlayers; i++ {
		if member := room.ClientAt(i); member != nil {
			member.trySend(update)
		}
	}
}

// relay forwards a negotiation message within the sender's room without
// inspecting its payload. The sender's slot is stamped as "from"; an
// explicit "to" narrows delivery to one slot, otherwise every other
// participant receives it.
func (h *Hub) relay(c *Client, req protocol.Request) {
	room, ok := h.rooms[c.RoomCode]
	if !ok {
		slog.Warn("relay outside a room", "cmd", req.Cmd, "session", c.SessionID)
		return
	}
	from := room.SlotOf(c.SessionID)
	if from < 0 {
		return
	}

	msg := protocol.SignalMsg{
		Cmd:       req.Cmd,
		From:      from,
		Offer:     req.Offer,
		Candidate: req.Candidate,
	}

	if req.To != nil {
		if target := room.ClientAt(*req.To); target != nil && target != c {
			target.trySend(msg)
		}
		return
	}
	for i := 0; i < MaxPlayers; i++ {
		if target := room.ClientAt(i); target != nil && target != c {
			target.trySend(msg)
		}
	}
}

// removeClient runs presence cleanup for a dropped transport: the owning
// slot is vacated, and the room is torn down when the host left or nobody
// remains.
func (h *Hub) removeClient(c *Client) {
	slog.Debug("session disconnected", "session", c.SessionID)

	room, ok := h.rooms[c.RoomCode]
	if !ok {
		return
	}
	slot, ok := room.Leave(c.SessionID)
	if !ok {
		return
	}
	c.RoomCode = ""

	vacated := protocol.PlayerMsg{Cmd: protocol.CmdPlayer, Slot: slot}
	for i := 0; i < MaxPlayers; i++ {
		if member := room.ClientAt(i); member != nil {
			member.trySend(vacated)
		}
	}

	if room.State() == StateClosed {
		// Remaining members are back to square one; their sessions no
		// longer hold a slot anywhere.
		for i := 0; i < MaxPlayers; i++ {
			if member := room.ClientAt(i); member != nil {
				room.Leave(member.SessionID)
				member.RoomCode = ""
			}
		}
		delete(h.rooms, room.Code)
		h.codes.Release(room.Code)
		slog.Info("room closed", "code", room.Code)
	}
}

func (h *Hub) publicRooms() []RoomSummary {
	out := make([]RoomSummary, 0, len(h.rooms))
	for _, room := range h.rooms {
		if room.Private {
			continue
		}
		out = append(out, RoomSummary{Code: room.Code, Players: room.Occupied()})
	}
	return out
}

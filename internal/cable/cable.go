// Package cable is the client side of the signaling channel: one websocket
// connection to the lobby server, with explicit handler registration in
// place of ambient global socket state. Handlers are registered
// builder-style before Connect and are invoked from the read goroutine, so
// they must return promptly.
package cable

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kfalicov/super-swash-bros/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Cable manages the websocket connection to the signaling server.
type Cable struct {
	serverURL string
	conn      *websocket.Conn
	outgoing  chan protocol.Request
	done      chan struct{}
	closeOnce sync.Once

	onRoom   func(code string, players []*protocol.PlayerInfo)
	onYou    func(id string, slot int)
	onPlayer func(slot int, id string, choice int)
	onOffer  func(from int, offer json.RawMessage)
	onAnswer func(from int, answer json.RawMessage)
	onICE    func(from int, candidate json.RawMessage)
	onAlert  func(msg string)
	onClosed func()
}

func New(serverURL string) *Cable {
	return &Cable{
		serverURL: serverURL,
		outgoing:  make(chan protocol.Request, 32),
		done:      make(chan struct{}),
	}
}

// OnRoom handles the full slot snapshot after create/join. An empty code
// with no players means the join failed; the cable stays usable.
func (c *Cable) OnRoom(fn func(code string, players []*protocol.PlayerInfo)) *Cable {
	c.onRoom = fn
	return c
}

// OnYou handles the private identity assignment.
func (c *Cable) OnYou(fn func(id string, slot int)) *Cable {
	c.onYou = fn
	return c
}

// OnPlayer handles incremental slot updates; an empty id means the slot
// was vacated.
func (c *Cable) OnPlayer(fn func(slot int, id string, choice int)) *Cable {
	c.onPlayer = fn
	return c
}

// OnOffer handles a relayed session description offer from the given slot.
func (c *Cable) OnOffer(fn func(from int, offer json.RawMessage)) *Cable {
	c.onOffer = fn
	return c
}

// OnAnswer handles a relayed session description answer.
func (c *Cable) OnAnswer(fn func(from int, answer json.RawMessage)) *Cable {
	c.onAnswer = fn
	return c
}

// OnICE handles a relayed connectivity candidate.
func (c *Cable) OnICE(fn func(from int, candidate json.RawMessage)) *Cable {
	c.onICE = fn
	return c
}

// OnAlert handles server notices.
func (c *Cable) OnAlert(fn func(msg string)) *Cable {
	c.onAlert = fn
	return c
}

// OnClosed fires once when the transport drops.
func (c *Cable) OnClosed(fn func()) *Cable {
	c.onClosed = fn
	return c
}

// Connect dials the signaling server and starts the read and write pumps.
func (c *Cable) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("connect to signaling server: %w", err)
	}
	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// Create asks the server for a fresh room; the creator lands in slot 0.
func (c *Cable) Create(private bool) {
	c.send(protocol.Request{Cmd: protocol.CmdCreate, Private: private})
}

// Join enters an existing room by code.
func (c *Cable) Join(code string) {
	c.send(protocol.Request{Cmd: protocol.CmdJoin, Code: code})
}

// Choose sets this player's character choice, 0 to deselect.
func (c *Cable) Choose(choice int) {
	c.send(protocol.Request{Cmd: protocol.CmdChoice, C: choice})
}

// SendOffer relays a session description offer to a peer slot. A negative
// slot broadcasts to the whole room.
func (c *Cable) SendOffer(to int, offer json.RawMessage) {
	c.send(protocol.Request{Cmd: protocol.CmdOffer, Offer: offer, To: target(to)})
}

// SendAnswer relays a session description answer.
func (c *Cable) SendAnswer(to int, answer json.RawMessage) {
	c.send(protocol.Request{Cmd: protocol.CmdAnswer, Offer: answer, To: target(to)})
}

// SendCandidate relays a connectivity candidate.
func (c *Cable) SendCandidate(to int, candidate json.RawMessage) {
	c.send(protocol.Request{Cmd: protocol.CmdICE, Candidate: candidate, To: target(to)})
}

// Close shuts the connection down and stops the pumps.
func (c *Cable) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func target(to int) *int {
	if to < 0 {
		return nil
	}
	return &to
}

func (c *Cable) send(req protocol.Request) {
	select {
	case c.outgoing <- req:
	case <-c.done:
	}
}

func (c *Cable) readPump() {
	defer func() {
		c.conn.Close()
		if c.onClosed != nil {
			c.onClosed()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg protocol.Response
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.dispatch(msg)
	}
}

func (c *Cable) dispatch(msg protocol.Response) {
	switch msg.Cmd {
	case protocol.CmdRoom:
		if c.onRoom != nil {
			c.onRoom(msg.Code, msg.Players)
		}
	case protocol.CmdYou:
		if c.onYou != nil {
			c.onYou(msg.ID, msg.Slot)
		}
	case protocol.CmdPlayer:
		if c.onPlayer != nil {
			c.onPlayer(msg.Slot, msg.ID, msg.C)
		}
	case protocol.CmdOffer:
		if c.onOffer != nil {
			c.onOffer(msg.From, msg.Offer)
		}
	case protocol.CmdAnswer:
		if c.onAnswer != nil {
			c.onAnswer(msg.From, msg.Offer)
		}
	case protocol.CmdICE:
		if c.onICE != nil {
			c.onICE(msg.From, msg.Candidate)
		}
	case protocol.CmdAlert:
		if c.onAlert != nil {
			c.onAlert(msg.Msg)
		}
	default:
		slog.Debug("unhandled message", "cmd", msg.Cmd)
	}
}

func (c *Cable) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case req := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(req); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

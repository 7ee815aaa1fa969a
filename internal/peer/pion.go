package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/kfalicov/super-swash-bros/internal/config"
)

// PionLink is the production Link backed by a pion peer connection with a
// single ordered data channel labeled "cable".
type PionLink struct {
	pc *pion.PeerConnection

	mu          sync.Mutex
	dc          *pion.DataChannel
	onOpen      func()
	onCandidate func(Candidate)
}

// NewPionFactory builds a LinkFactory using the configured ICE servers.
func NewPionFactory(cfg *config.Config) LinkFactory {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}
	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}
	return func(initiator bool) (Link, error) {
		return NewPionLink(iceServers, initiator)
	}
}

// NewPionLink creates the peer connection. The initiating side opens the
// data channel; the responding side adopts the announced one.
func NewPionLink(iceServers []pion.ICEServer, initiator bool) (*PionLink, error) {
	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	l := &PionLink{pc: pc}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		l.mu.Lock()
		sink := l.onCandidate
		l.mu.Unlock()
		if sink == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		sink(raw)
	})

	if initiator {
		ordered := true
		dc, err := pc.CreateDataChannel("cable", &pion.DataChannelInit{Ordered: &ordered})
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("create data channel: %w", err)
		}
		l.dc = dc
		dc.OnOpen(l.fireOpen)
	} else {
		pc.OnDataChannel(func(dc *pion.DataChannel) {
			l.mu.Lock()
			l.dc = dc
			l.mu.Unlock()
			dc.OnOpen(l.fireOpen)
		})
	}

	return l, nil
}

func (l *PionLink) fireOpen() {
	l.mu.Lock()
	fn := l.onOpen
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (l *PionLink) CreateOffer() (Description, error) {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return Description{}, err
	}
	return Description{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

func (l *PionLink) CreateAnswer() (Description, error) {
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return Description{}, err
	}
	return Description{Type: answer.Type.String(), SDP: answer.SDP}, nil
}

func (l *PionLink) SetLocalDescription(d Description) error {
	return l.pc.SetLocalDescription(pion.SessionDescription{
		Type: pion.NewSDPType(d.Type),
		SDP:  d.SDP,
	})
}

func (l *PionLink) SetRemoteDescription(d Description) error {
	return l.pc.SetRemoteDescription(pion.SessionDescription{
		Type: pion.NewSDPType(d.Type),
		SDP:  d.SDP,
	})
}

func (l *PionLink) AddCandidate(c Candidate) error {
	var init pion.ICECandidateInit
	if err := json.Unmarshal(c, &init); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}
	return l.pc.AddICECandidate(init)
}

func (l *PionLink) OnCandidate(fn func(Candidate)) {
	l.mu.Lock()
	l.onCandidate = fn
	l.mu.Unlock()
}

func (l *PionLink) OnOpen(fn func()) {
	l.mu.Lock()
	l.onOpen = fn
	l.mu.Unlock()
}

// Send writes a binary frame to the data channel.
func (l *PionLink) Send(data []byte) error {
	l.mu.Lock()
	dc := l.dc
	l.mu.Unlock()
	if dc == nil {
		return errors.New("data channel not open")
	}
	return dc.Send(data)
}

// OnMessage registers the inbound data-channel sink. Available once the
// channel exists; the responding side should register from OnOpen.
func (l *PionLink) OnMessage(fn func(data []byte)) {
	l.mu.Lock()
	dc := l.dc
	l.mu.Unlock()
	if dc == nil {
		return
	}
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		fn(msg.Data)
	})
}

func (l *PionLink) Close() error {
	return l.pc.Close()
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package pionice implements ice.Connection on top of
// github.com/pion/ice, the same ICE agent the pion WebRTC stack uses.
// One pion ice.Agent is kept per Jingle component (RTP, and RTCP when the
// content doesn't mux it), since an ice.Agent in this library models a
// single 5-tuple rather than libnice's multi-component stream.
package pionice

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pion/ice/v4"
	"github.com/pion/randutil"
	"github.com/pion/stun/v3"

	jingleice "github.com/olesalscheider/jinglecall/ice"
	"github.com/olesalscheider/jinglecall/jingle"
)

const candidateIDLen = 16

var candidateIDRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// Connection is an ice.Connection backed by pion/ice.
type Connection struct {
	mu sync.Mutex

	stunAddr, turnAddr         string
	stunPort, turnPort         uint16
	turnUser, turnPassword     string
	controlling                bool
	remoteUser, remotePassword string

	components map[int]*component

	onCandidates jingleice.CandidateHandler
	onDatagram   jingleice.DatagramHandler
	onDisconnect func()
}

type component struct {
	agent *ice.Agent
	conn  net.Conn
}

// NewConnection returns a Connection with no components yet registered;
// call AddComponent for each RTP/RTCP channel the content needs.
func NewConnection() *Connection {
	return &Connection{components: make(map[int]*component)}
}

// AddComponent implements ice.Connection.
func (c *Connection) AddComponent(comp int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The agent is created with whatever STUN/TURN servers have been set
	// so far; callers must configure servers before adding components.
	agent, err := ice.NewAgent(&ice.AgentConfig{
		Urls:         c.stunTurnURLs(),
		NetworkTypes: []ice.NetworkType{ice.NetworkTypeUDP4, ice.NetworkTypeUDP6},
	})
	if err != nil {
		return fmt.Errorf("pionice: creating agent for component %d: %w", comp, err)
	}

	if err := agent.OnCandidate(func(cand ice.Candidate) {
		if cand == nil {
			return
		}
		c.emitCandidate(comp, cand)
	}); err != nil {
		return err
	}
	if err := agent.OnConnectionStateChange(func(state ice.ConnectionState) {
		if state == ice.ConnectionStateDisconnected || state == ice.ConnectionStateFailed {
			c.mu.Lock()
			cb := c.onDisconnect
			c.mu.Unlock()
			if cb != nil {
				cb()
			}
		}
	}); err != nil {
		return err
	}

	if err := agent.GatherCandidates(); err != nil {
		return fmt.Errorf("pionice: gathering for component %d: %w", comp, err)
	}

	c.components[comp] = &component{agent: agent}
	return nil
}

func (c *Connection) stunTurnURLs() []*stun.URI {
	var urls []*stun.URI
	if c.stunAddr != "" {
		urls = append(urls, &stun.URI{Scheme: stun.SchemeTypeSTUN, Host: c.stunAddr, Port: int(c.stunPort)})
	}
	if c.turnAddr != "" {
		urls = append(urls, &stun.URI{
			Scheme:   stun.SchemeTypeTURN,
			Host:     c.turnAddr,
			Port:     int(c.turnPort),
			Username: c.turnUser,
			Password: c.turnPassword,
			Proto:    stun.ProtoTypeUDP,
		})
	}
	return urls
}

// SetIceControlling implements ice.Connection.
func (c *Connection) SetIceControlling(controlling bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controlling = controlling
}

// SetStunServer implements ice.Connection.
func (c *Connection) SetStunServer(addr string, port uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stunAddr, c.stunPort = addr, port
}

// SetTurnServer implements ice.Connection.
func (c *Connection) SetTurnServer(addr string, port uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnAddr, c.turnPort = addr, port
}

// SetTurnUser implements ice.Connection.
func (c *Connection) SetTurnUser(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnUser = user
}

// SetTurnPassword implements ice.Connection.
func (c *Connection) SetTurnPassword(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turnPassword = password
}

// LocalUser implements ice.Connection, returning the fragment from
// whichever component was added first (pion/ice assigns one ufrag/pwd
// pair per agent, same as libnice does per stream).
func (c *Connection) LocalUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, comp := range c.components {
		ufrag, _, err := comp.agent.GetLocalUserCredentials()
		if err == nil {
			return ufrag
		}
	}
	return ""
}

// LocalPassword implements ice.Connection.
func (c *Connection) LocalPassword() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, comp := range c.components {
		_, pwd, err := comp.agent.GetLocalUserCredentials()
		if err == nil {
			return pwd
		}
	}
	return ""
}

// LocalCandidates implements ice.Connection.
func (c *Connection) LocalCandidates() []jingle.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []jingle.Candidate
	for comp, entry := range c.components {
		cands, err := entry.agent.GetLocalCandidates()
		if err != nil {
			continue
		}
		for _, cand := range cands {
			out = append(out, toJingleCandidate(comp, cand))
		}
	}
	return out
}

// SetRemoteUser implements ice.Connection.
func (c *Connection) SetRemoteUser(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remoteUser = user
}

// SetRemotePassword implements ice.Connection.
func (c *Connection) SetRemotePassword(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remotePassword = password
}

// AddRemoteCandidate implements ice.Connection.
func (c *Connection) AddRemoteCandidate(jc jingle.Candidate) error {
	c.mu.Lock()
	entry, ok := c.components[int(jc.Component)]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("pionice: no component %d registered", jc.Component)
	}

	cand, err := fromJingleCandidate(jc)
	if err != nil {
		return err
	}
	return entry.agent.AddRemoteCandidate(cand)
}

// ConnectToHost implements ice.Connection.
func (c *Connection) ConnectToHost() error {
	c.mu.Lock()
	controlling := c.controlling
	ufrag, pwd := c.remoteUser, c.remotePassword
	comps := make(map[int]*component, len(c.components))
	for k, v := range c.components {
		comps[k] = v
	}
	c.mu.Unlock()

	for comp, entry := range comps {
		c.mu.Lock()
		already := entry.conn != nil
		c.mu.Unlock()
		if already {
			continue
		}

		var conn *ice.Conn
		var err error
		ctx := context.Background()
		if controlling {
			conn, err = entry.agent.Dial(ctx, ufrag, pwd)
		} else {
			conn, err = entry.agent.Accept(ctx, ufrag, pwd)
		}
		if err != nil {
			return fmt.Errorf("pionice: establishing component %d: %w", comp, err)
		}
		c.mu.Lock()
		entry.conn = conn
		c.mu.Unlock()
		go c.readLoop(comp, conn)
	}
	return nil
}

func (c *Connection) readLoop(comp int, conn net.Conn) {
	buf := make([]byte, 1500)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		c.mu.Lock()
		cb := c.onDatagram
		c.mu.Unlock()
		if cb != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			cb(comp, data)
		}
	}
}

// IsConnected implements ice.Connection.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.components) == 0 {
		return false
	}
	for _, entry := range c.components {
		if entry.conn == nil {
			return false
		}
	}
	return true
}

// SendDatagram implements ice.Connection.
func (c *Connection) SendDatagram(comp int, data []byte) error {
	c.mu.Lock()
	entry, ok := c.components[comp]
	c.mu.Unlock()
	if !ok || entry.conn == nil {
		return fmt.Errorf("pionice: component %d not connected", comp)
	}
	_, err := entry.conn.Write(data)
	return err
}

// OnDatagramReceived implements ice.Connection.
func (c *Connection) OnDatagramReceived(fn jingleice.DatagramHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDatagram = fn
}

// OnLocalCandidatesChanged implements ice.Connection.
func (c *Connection) OnLocalCandidatesChanged(fn jingleice.CandidateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCandidates = fn
}

// OnDisconnected implements ice.Connection.
func (c *Connection) OnDisconnected(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// Close implements ice.Connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.components {
		if entry.conn != nil {
			entry.conn.Close()
		}
		entry.agent.Close()
	}
	return nil
}

func (c *Connection) emitCandidate(comp int, cand ice.Candidate) {
	c.mu.Lock()
	cb := c.onCandidates
	c.mu.Unlock()
	if cb == nil {
		return
	}
	cb([]jingle.Candidate{toJingleCandidate(comp, cand)})
}

func toJingleCandidate(comp int, cand ice.Candidate) jingle.Candidate {
	id, _ := randutil.GenerateCryptoRandomString(candidateIDLen, string(candidateIDRunes))
	jc := jingle.Candidate{
		Component:  uint8(comp),
		Foundation: cand.Foundation(),
		Generation: 0,
		ID:         id,
		IP:         cand.Address(),
		Network:    0,
		Port:       uint16(cand.Port()),
		Priority:   cand.Priority(),
		Protocol:   "udp",
		Type:       string(candidateType(cand.Type())),
	}
	if related := cand.RelatedAddress(); related != nil {
		jc.RelAddr = related.Address
		jc.RelPort = uint16(related.Port)
	}
	return jc
}

func candidateType(t ice.CandidateType) string {
	switch t {
	case ice.CandidateTypeHost:
		return jingle.TypeHost
	case ice.CandidateTypeServerReflexive:
		return jingle.TypeSrflx
	case ice.CandidateTypePeerReflexive:
		return jingle.TypePrflx
	case ice.CandidateTypeRelay:
		return jingle.TypeRelay
	default:
		return jingle.TypeHost
	}
}

func fromJingleCandidate(jc jingle.Candidate) (ice.Candidate, error) {
	var candType ice.CandidateType
	switch jc.Type {
	case jingle.TypeHost:
		candType = ice.CandidateTypeHost
	case jingle.TypeSrflx:
		candType = ice.CandidateTypeServerReflexive
	case jingle.TypePrflx:
		candType = ice.CandidateTypePeerReflexive
	case jingle.TypeRelay:
		candType = ice.CandidateTypeRelay
	default:
		return nil, fmt.Errorf("pionice: unknown candidate type %q", jc.Type)
	}

	switch candType {
	case ice.CandidateTypeHost:
		return ice.NewCandidateHost(&ice.CandidateHostConfig{
			Network:    "udp",
			Address:    jc.IP,
			Port:       int(jc.Port),
			Component:  uint16(jc.Component),
			Foundation: jc.Foundation,
			Priority:   jc.Priority,
		})
	case ice.CandidateTypeServerReflexive:
		return ice.NewCandidateServerReflexive(&ice.CandidateServerReflexiveConfig{
			Network:    "udp",
			Address:    jc.IP,
			Port:       int(jc.Port),
			Component:  uint16(jc.Component),
			Foundation: jc.Foundation,
			Priority:   jc.Priority,
			RelAddr:    jc.RelAddr,
			RelPort:    int(jc.RelPort),
		})
	case ice.CandidateTypeRelay:
		return ice.NewCandidateRelay(&ice.CandidateRelayConfig{
			Network:    "udp",
			Address:    jc.IP,
			Port:       int(jc.Port),
			Component:  uint16(jc.Component),
			Foundation: jc.Foundation,
			Priority:   jc.Priority,
			RelAddr:    jc.RelAddr,
			RelPort:    int(jc.RelPort),
		})
	default:
		return ice.NewCandidatePeerReflexive(&ice.CandidatePeerReflexiveConfig{
			Network:    "udp",
			Address:    jc.IP,
			Port:       int(jc.Port),
			Component:  uint16(jc.Component),
			Foundation: jc.Foundation,
			Priority:   jc.Priority,
			RelAddr:    jc.RelAddr,
			RelPort:    int(jc.RelPort),
		})
	}
}

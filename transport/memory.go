// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package transport

import (
	"sync"

	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/stanza"
)

// Memory is an in-process Transport used in tests (and in examples):
// two Memory transports wired to each other with Pair deliver IQs and
// presence synchronously, the Go analogue of
// mellium.im/xmpp/internal/xmpptest's in-memory session.
type Memory struct {
	mu sync.Mutex

	local jid.JID
	peer  *Memory

	onIQ           func(jingle.IQ)
	onPresence     func(stanza.Presence)
	onDisconnected func()
}

// NewMemory returns a Memory transport that believes itself to be local.
func NewMemory(local jid.JID) *Memory {
	return &Memory{local: local}
}

// Pair connects a and b so that sends on one are delivered to the other.
func Pair(a, b *Memory) {
	a.mu.Lock()
	a.peer = b
	a.mu.Unlock()

	b.mu.Lock()
	b.peer = a
	b.mu.Unlock()
}

// LocalJID implements Transport.
func (m *Memory) LocalJID() jid.JID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local
}

// SendIQ implements Transport by delivering iq directly to the paired
// peer's OnIQ handler.
func (m *Memory) SendIQ(iq jingle.IQ) error {
	m.mu.Lock()
	peer := m.peer
	m.mu.Unlock()
	if peer == nil {
		return nil
	}

	peer.mu.Lock()
	handler := peer.onIQ
	peer.mu.Unlock()
	if handler != nil {
		handler(iq)
	}
	return nil
}

// OnIQ implements Transport.
func (m *Memory) OnIQ(fn func(jingle.IQ)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onIQ = fn
}

// OnPresence implements Transport.
func (m *Memory) OnPresence(fn func(stanza.Presence)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPresence = fn
}

// OnDisconnected implements Transport.
func (m *Memory) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// SendPresence delivers p to the paired peer's OnPresence handler,
// letting tests simulate a peer going offline.
func (m *Memory) SendPresence(p stanza.Presence) {
	m.mu.Lock()
	peer := m.peer
	m.mu.Unlock()
	if peer == nil {
		return
	}

	peer.mu.Lock()
	handler := peer.onPresence
	peer.mu.Unlock()
	if handler != nil {
		handler(p)
	}
}

// Disconnect simulates the underlying connection dropping, invoking both
// sides' OnDisconnected handlers and unlinking the pair.
func (m *Memory) Disconnect() {
	m.mu.Lock()
	peer := m.peer
	m.peer = nil
	cb := m.onDisconnected
	m.mu.Unlock()
	if cb != nil {
		cb()
	}

	if peer == nil {
		return
	}
	peer.mu.Lock()
	peer.peer = nil
	peerCb := peer.onDisconnected
	peer.mu.Unlock()
	if peerCb != nil {
		peerCb()
	}
}

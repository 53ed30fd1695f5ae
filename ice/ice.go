// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ice declares the interfaces a connectivity establishment
// subsystem must satisfy to back a Call's transports. The call core only
// ever sees these interfaces; ice/pionice provides a concrete
// implementation on top of github.com/pion/ice.
//
// The shape follows QXmppIceConnection/QXmppIceComponent: one Connection
// per content, holding one Component per RTP/RTCP channel.
package ice

import "github.com/olesalscheider/jinglecall/jingle"

// Component numbers, matching RFC 5245 §4.1 (component 1 is always RTP;
// component 2, when present, is RTCP).
const (
	ComponentRTP  = 1
	ComponentRTCP = 2
)

// DatagramHandler receives datagrams read off a connected Component.
type DatagramHandler func(component int, data []byte)

// CandidateHandler is notified as local candidates are discovered.
type CandidateHandler func(candidates []jingle.Candidate)

// Connection negotiates and carries the ICE-UDP transport of one Jingle
// content. Implementations gather local candidates asynchronously and
// report them through OnLocalCandidatesChanged; once SetRemoteUser,
// SetRemotePassword and AddRemoteCandidate have been called with the
// peer's transport, ConnectToHost begins connectivity checks.
type Connection interface {
	// AddComponent registers a component this connection must establish
	// (ComponentRTP, and ComponentRTCP for contents that use RTCP).
	AddComponent(component int) error

	// SetIceControlling sets whether this side acts as the controlling
	// agent in the ICE role-conflict sense (RFC 8445 §6.1.1); the
	// initiator of a session controls it.
	SetIceControlling(controlling bool)

	SetStunServer(addr string, port uint16)
	SetTurnServer(addr string, port uint16)
	SetTurnUser(user string)
	SetTurnPassword(password string)

	// LocalUser and LocalPassword are this side's ICE credentials,
	// included in the transport element sent to the peer.
	LocalUser() string
	LocalPassword() string

	// LocalCandidates returns the candidates gathered so far.
	LocalCandidates() []jingle.Candidate

	SetRemoteUser(user string)
	SetRemotePassword(password string)
	AddRemoteCandidate(c jingle.Candidate) error

	// ConnectToHost begins connectivity checks against the remote
	// candidates added so far. It is called once the remote side's
	// transport has supplied at least one candidate.
	ConnectToHost() error

	// IsConnected reports whether every added component has an
	// established candidate pair.
	IsConnected() bool

	SendDatagram(component int, data []byte) error
	OnDatagramReceived(fn DatagramHandler)
	OnLocalCandidatesChanged(fn CandidateHandler)
	OnDisconnected(fn func())

	Close() error
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import "fmt"

// Kind classifies the error conditions a Call or CallManager can run
// into signaling a session, reported through a Logger rather than
// propagated as Go errors since most of them happen asynchronously, deep
// inside stanza-driven callbacks with no caller left to return to.
type Kind int

// The error kinds this core reports.
const (
	// NegotiationFailed means no local and remote payload type could be
	// matched for a content. What follows depends on the action: a
	// failed session-initiate or session-accept terminates the whole
	// session with failed-application, a failed content-add is answered
	// with content-reject (or a session-terminate if no other content is
	// left), and a failed content-accept only leaves that content unusable.
	NegotiationFailed Kind = iota

	// ProtocolMisuse means a peer sent a Jingle action that doesn't make
	// sense in the session's current state (e.g. a second
	// session-accept), and the offending request was acked but
	// otherwise ignored.
	ProtocolMisuse

	// UnknownSession means an inbound Jingle IQ named a session id this
	// CallManager has no record of.
	UnknownSession

	// TransportGone means the path to the peer is gone: the stanza
	// transport disconnected, the peer's presence went unavailable, or a
	// content's ICE connection dropped after having been connected.
	TransportGone

	// MediaSubsystemMissing means no codec in a content's offer could be
	// run by the local media.Environment at all, independent of what the
	// remote side supports.
	MediaSubsystemMissing

	// TerminationTimeout means a peer didn't ack a session-terminate
	// within the termination watchdog and the session was finalized
	// locally anyway.
	TerminationTimeout
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case NegotiationFailed:
		return "negotiation failed"
	case ProtocolMisuse:
		return "protocol misuse"
	case UnknownSession:
		return "unknown session"
	case TransportGone:
		return "transport gone"
	case MediaSubsystemMissing:
		return "media subsystem missing"
	case TerminationTimeout:
		return "termination timeout"
	default:
		return "unknown error"
	}
}

// Error reports a problem that occurred while negotiating or running a
// session. It is delivered to a Logger rather than returned from most
// methods, except where a caller directly requested the operation (e.g.
// CallManager.Call).
type Error struct {
	Kind    Kind
	Session string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jinglecall: session %s: %s: %v", e.Session, e.Kind, e.Err)
	}
	return fmt.Sprintf("jinglecall: session %s: %s", e.Session, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Logger receives diagnostic and error events from a Call or
// CallManager. It intentionally mirrors the two-level Infof/Warnf shape
// widely used across the example corpus's structured loggers rather than
// pulling in a full logging library the way a standalone application
// would: a host embedding this core almost always already has one and
// only needs somewhere to forward these two severities.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// nopLogger discards everything; used when a CallManager is constructed
// without an explicit Logger.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}

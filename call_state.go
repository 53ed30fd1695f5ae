// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

// CallState tracks where a Call is in its lifecycle.
// Transitions only ever move forward; a Call never returns to an earlier
// state.
type CallState int

// The four states a Call passes through, mirroring QXmppCall::State.
const (
	// StateConnecting is the initial state: the session-initiate has
	// been sent or received but not yet accepted.
	StateConnecting CallState = iota

	// StateActive means the session has been accepted: an outgoing call
	// has negotiated a codec for at least one content from the peer's
	// session-accept, or an incoming call has sent its session-accept.
	// It does not depend on any ICE transport being connected.
	StateActive

	// StateDisconnecting means a session-terminate has been sent or
	// received and the call is waiting on the termination watchdog or
	// the peer's ack before finalizing.
	StateDisconnecting

	// StateFinished is terminal: all resources have been released and
	// the Call is no longer tracked by its CallManager.
	StateFinished
)

// String implements fmt.Stringer.
func (s CallState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Direction records which party initiated a session.
type Direction int

// The two directions a Call can have been started in.
const (
	Incoming Direction = iota
	Outgoing
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

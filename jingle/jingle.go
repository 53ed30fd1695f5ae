// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingle implements the wire format of the Jingle signaling
// framework (XEP-0166) together with the RTP media description (XEP-0167)
// and ICE-UDP transport (XEP-0176) extensions needed to negotiate a
// peer-to-peer voice/video session. It intentionally stops at marshaling
// and unmarshaling: the session state machine lives in the jinglecall
// package.
//
// Every wire type encodes by implementing xmlstream.Marshaler and
// wrapping its children with mellium.im/xmlstream, and decodes through
// its encoding/xml struct tags.
package jingle

import "github.com/olesalscheider/jinglecall/internal/ns"

// Action identifies the purpose of a Jingle IQ, carried in the
// jingle element's action attribute.
type Action string

// The session and content management actions this core understands.
// QXmppCall.cpp's handleRequest switch is the reference for exactly
// which actions a call needs to act on; the rest (e.g. session-accept's
// sibling transport-replace, content-modify) are outside this core's
// scope per the Non-goals.
const (
	ContentAccept    Action = "content-accept"
	ContentAdd       Action = "content-add"
	ContentReject    Action = "content-reject"
	SessionAccept    Action = "session-accept"
	SessionInfo      Action = "session-info"
	SessionInitiate  Action = "session-initiate"
	SessionTerminate Action = "session-terminate"
	TransportInfo    Action = "transport-info"
)

// Creator identifies which party originally added a content to the
// session.
type Creator string

// The two creator values allowed by XEP-0166.
const (
	Initiator Creator = "initiator"
	Responder Creator = "responder"
)

// Senders restricts which party is allowed to send media for a content.
type Senders string

// The four senders values allowed by XEP-0167.
const (
	SendBoth      Senders = "both"
	SendInitiator Senders = "initiator"
	SendNone      Senders = "none"
	SendResponder Senders = "responder"
)

// Namespace is re-exported for callers that only need the base Jingle
// namespace and don't want to import internal/ns directly.
const Namespace = ns.Jingle

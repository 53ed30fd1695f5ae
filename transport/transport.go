// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package transport declares the stanza transport a CallManager sends
// and receives Jingle traffic over: an abstraction over whatever XMPP
// connection library a host application already uses, so this core never
// depends on one directly. Memory (memory.go) provides an in-process
// implementation used by this module's own tests.
package transport

import (
	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/stanza"
)

// Transport sends Jingle IQs and delivers inbound IQs and presence to a
// CallManager. Implementations are expected to route IQs addressed to
// the Jingle namespace to OnIQ and hand everything else to their own
// dispatch; this core never claims an entire connection.
type Transport interface {
	// LocalJID returns the full JID this transport sends from.
	LocalJID() jid.JID

	// SendIQ sends iq and does not wait for the result; acks are
	// delivered back through OnIQ like any other inbound IQ.
	SendIQ(iq jingle.IQ) error

	// OnIQ registers the handler invoked for every inbound Jingle IQ
	// (request or result/error ack) addressed to this connection.
	OnIQ(func(jingle.IQ))

	// OnPresence registers the handler invoked for every inbound
	// presence stanza, used to notice a peer going offline mid-call.
	OnPresence(func(stanza.Presence))

	// OnDisconnected registers the handler invoked when the underlying
	// connection is lost, which terminates every active call with a
	// "gone" reason the same way a presence unavailable does.
	OnDisconnected(func())
}

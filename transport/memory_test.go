// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package transport_test

import (
	"testing"

	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/stanza"
	"github.com/olesalscheider/jinglecall/transport"
)

func TestMemorySendIQDeliversToPeer(t *testing.T) {
	a := transport.NewMemory(jid.MustParse("romeo@example.net/orchard"))
	b := transport.NewMemory(jid.MustParse("juliet@example.com/balcony"))
	transport.Pair(a, b)

	var received jingle.IQ
	var gotIQ bool
	b.OnIQ(func(iq jingle.IQ) {
		received = iq
		gotIQ = true
	})

	sent := jingle.NewIQ("id1", b.LocalJID(), a.LocalJID(), jingle.SessionInitiate, "sid1")
	if err := a.SendIQ(sent); err != nil {
		t.Fatalf("SendIQ returned error: %v", err)
	}

	if !gotIQ {
		t.Fatal("expected peer to receive the IQ")
	}
	if received.ID != "id1" {
		t.Errorf("received IQ id = %q, want id1", received.ID)
	}
}

func TestMemoryDisconnectNotifiesBothSides(t *testing.T) {
	a := transport.NewMemory(jid.MustParse("romeo@example.net"))
	b := transport.NewMemory(jid.MustParse("juliet@example.com"))
	transport.Pair(a, b)

	var aDisconnected, bDisconnected bool
	a.OnDisconnected(func() { aDisconnected = true })
	b.OnDisconnected(func() { bDisconnected = true })

	a.Disconnect()

	if !aDisconnected || !bDisconnected {
		t.Errorf("expected both sides to be notified, got a=%v b=%v", aDisconnected, bDisconnected)
	}
}

func TestMemoryPresence(t *testing.T) {
	a := transport.NewMemory(jid.MustParse("romeo@example.net"))
	b := transport.NewMemory(jid.MustParse("juliet@example.com"))
	transport.Pair(a, b)

	var gotType stanza.PresenceType
	var gotPresence bool
	b.OnPresence(func(p stanza.Presence) {
		gotType = p.Type
		gotPresence = true
	})

	a.SendPresence(stanza.Presence{From: a.LocalJID(), Type: stanza.UnavailablePresence})

	if !gotPresence {
		t.Fatal("expected peer to receive presence")
	}
	if gotType != stanza.UnavailablePresence {
		t.Errorf("presence type = %q, want unavailable", gotType)
	}
}

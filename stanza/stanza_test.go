// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza_test

import (
	"encoding/xml"
	"testing"

	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/stanza"
)

func TestIQTypeMarshal(t *testing.T) {
	_, err := stanza.IQType("").MarshalXMLAttr(xml.Name{Local: "type"})
	if err != stanza.ErrEmptyIQType {
		t.Errorf("MarshalXMLAttr on empty type = %v, want ErrEmptyIQType", err)
	}

	attr, err := stanza.SetIQ.MarshalXMLAttr(xml.Name{Local: "type"})
	if err != nil {
		t.Fatalf("MarshalXMLAttr returned error: %v", err)
	}
	if attr.Value != "set" {
		t.Errorf("MarshalXMLAttr value = %q, want set", attr.Value)
	}
}

func TestIQResult(t *testing.T) {
	req := stanza.IQ{
		ID:   "abc123",
		To:   jid.MustParse("romeo@example.net"),
		From: jid.MustParse("juliet@example.com/balcony"),
		Type: stanza.SetIQ,
	}

	res := req.Result()
	if res.ID != req.ID {
		t.Errorf("Result() id = %q, want %q", res.ID, req.ID)
	}
	if !res.To.Equal(req.From) {
		t.Errorf("Result() to = %v, want %v", res.To, req.From)
	}
	if !res.From.Equal(req.To) {
		t.Errorf("Result() from = %v, want %v", res.From, req.To)
	}
	if res.Type != stanza.ResultIQ {
		t.Errorf("Result() type = %v, want %v", res.Type, stanza.ResultIQ)
	}
}

func TestIQMarshalXML(t *testing.T) {
	iq := stanza.IQ{
		ID:   "req1",
		To:   jid.MustParse("romeo@example.net"),
		From: jid.MustParse("juliet@example.com"),
		Type: stanza.GetIQ,
	}

	out, err := xml.Marshal(iq)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var roundTrip stanza.IQ
	if err := xml.Unmarshal(out, &roundTrip); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if roundTrip.ID != iq.ID || roundTrip.Type != iq.Type {
		t.Errorf("round-tripped IQ = %+v, want %+v", roundTrip, iq)
	}
	if !roundTrip.To.Equal(iq.To) || !roundTrip.From.Equal(iq.From) {
		t.Errorf("round-tripped IQ addresses = %+v, want %+v", roundTrip, iq)
	}
}

func TestPresenceType(t *testing.T) {
	p := stanza.Presence{
		From: jid.MustParse("romeo@example.net/orchard"),
		Type: stanza.UnavailablePresence,
	}
	if p.Type != "unavailable" {
		t.Errorf("Type = %q, want unavailable", p.Type)
	}
}

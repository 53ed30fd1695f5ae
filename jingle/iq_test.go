// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
)

// TestIQRoundTrip checks that the token-reader encoding of a full
// session-initiate survives a decode through the tag-based unmarshaling
// path, since the two are maintained separately.
func TestIQRoundTrip(t *testing.T) {
	iq := jingle.NewIQ("abc1", jid.MustParse("juliet@example.com/balcony"), jid.MustParse("romeo@example.net/orchard"), jingle.SessionInitiate, "sid1")
	iq.Jingle.Contents = []jingle.Content{{
		Creator: jingle.Initiator,
		Name:    "microphone",
		Senders: jingle.SendBoth,
		Description: jingle.Description{
			Media: "audio",
			SSRC:  "12345",
			PayloadTypes: []jingle.PayloadType{
				{ID: 97, Name: "opus", ClockRate: 48000, Channels: 2},
				{ID: 0, Name: "PCMU", ClockRate: 8000},
			},
		},
		Transport: jingle.Transport{
			User:     "ufrag",
			Password: "pwd",
			Candidates: []jingle.Candidate{{
				Component:  1,
				Foundation: "1",
				ID:         "cand1",
				IP:         "192.0.2.1",
				Port:       5000,
				Priority:   2130706431,
				Protocol:   "udp",
				Type:       jingle.TypeHost,
			}},
		},
	}}

	out, err := xml.Marshal(iq)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var back jingle.IQ
	if err := xml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v\nxml: %s", err, out)
	}
	if back.ID != iq.ID || back.Jingle.Action != jingle.SessionInitiate || back.Jingle.SID != "sid1" {
		t.Errorf("round-tripped IQ = %+v, want %+v", back, iq)
	}
	if len(back.Jingle.Contents) != 1 {
		t.Fatalf("round-tripped %d contents, want 1\nxml: %s", len(back.Jingle.Contents), out)
	}
	content := back.Jingle.Contents[0]
	if content.Name != "microphone" || content.Creator != jingle.Initiator {
		t.Errorf("round-tripped content = %+v", content)
	}
	if len(content.Description.PayloadTypes) != 2 || content.Description.PayloadTypes[0].ID != 97 {
		t.Errorf("round-tripped payload types = %+v", content.Description.PayloadTypes)
	}
	if content.Description.PayloadTypes[0].Channels != 2 {
		t.Errorf("round-tripped opus channels = %d, want 2", content.Description.PayloadTypes[0].Channels)
	}
	if len(content.Transport.Candidates) != 1 || content.Transport.Candidates[0].Port != 5000 {
		t.Errorf("round-tripped candidates = %+v", content.Transport.Candidates)
	}
}

// TestReasonRoundTrip checks the condition-as-element encoding.
func TestReasonRoundTrip(t *testing.T) {
	out, err := xml.Marshal(jingle.Reason{Condition: jingle.ReasonFailedApplication, Text: "no codec"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if !strings.Contains(string(out), "<failed-application") {
		t.Errorf("marshaled reason = %s, want a failed-application child element", out)
	}

	var back jingle.Reason
	if err := xml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if back.Condition != jingle.ReasonFailedApplication || back.Text != "no codec" {
		t.Errorf("round-tripped reason = %+v", back)
	}
}

// TestRingingSessionInfo checks a ringing session-info marshals with the
// rtp:info namespace and no contents.
func TestRingingSessionInfo(t *testing.T) {
	iq := jingle.NewIQ("r1", jid.MustParse("romeo@example.net"), jid.MustParse("juliet@example.com"), jingle.SessionInfo, "sid1")
	iq.Jingle.Ringing = &jingle.Ringing{}

	out, err := xml.Marshal(iq)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if !strings.Contains(string(out), "urn:xmpp:jingle:apps:rtp:info:1") {
		t.Errorf("marshaled session-info = %s, want the rtp:info ringing namespace", out)
	}

	var back jingle.IQ
	if err := xml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if back.Jingle.Ringing == nil {
		t.Errorf("round-tripped session-info lost its ringing payload: %s", out)
	}
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import (
	"testing"

	"github.com/olesalscheider/jinglecall/jingle"
)

func TestNegotiateContentDynamicAdoptsRemoteID(t *testing.T) {
	local := []jingle.PayloadType{
		{ID: 97, Name: "opus", ClockRate: 48000, Channels: 2},
	}
	remote := []jingle.PayloadType{
		{ID: 111, Name: "opus", ClockRate: 48000, Channels: 2},
	}

	matched, encoder, ok := negotiateContent(local, remote)
	if !ok {
		t.Fatal("expected negotiation to succeed")
	}
	if encoder.ID != 111 {
		t.Errorf("negotiated id = %d, want 111 (remote's id)", encoder.ID)
	}
	if encoder.Name != "opus" {
		t.Errorf("negotiated name = %q, want opus (local's name)", encoder.Name)
	}
	if len(matched) != 1 || matched[0].ID != 111 {
		t.Errorf("matched list = %+v, want the single rewritten opus entry", matched)
	}
}

func TestNegotiateContentStaticKeepsLocalName(t *testing.T) {
	local := []jingle.PayloadType{
		{ID: 0, Name: "PCMU", ClockRate: 8000},
	}
	remote := []jingle.PayloadType{
		{ID: 0, Name: "pcmu-alias", ClockRate: 8000},
	}

	_, encoder, ok := negotiateContent(local, remote)
	if !ok {
		t.Fatal("expected negotiation to succeed")
	}
	if encoder.Name != "PCMU" {
		t.Errorf("negotiated name = %q, want PCMU (local's name kept)", encoder.Name)
	}
	if encoder.ID != 0 {
		t.Errorf("negotiated id = %d, want 0 (static ids are never rewritten)", encoder.ID)
	}
}

func TestNegotiateContentRemoteOrderPicksEncoder(t *testing.T) {
	local := []jingle.PayloadType{
		{ID: 99, Name: "h264", ClockRate: 90000},
		{ID: 98, Name: "vp8", ClockRate: 90000},
	}
	remote := []jingle.PayloadType{
		{ID: 98, Name: "vp8", ClockRate: 90000},
		{ID: 99, Name: "h264", ClockRate: 90000},
	}

	matched, encoder, ok := negotiateContent(local, remote)
	if !ok {
		t.Fatal("expected negotiation to succeed")
	}
	if encoder.Name != "vp8" {
		t.Errorf("encoder = %q, want vp8 (the remote offer's first entry wins)", encoder.Name)
	}
	if len(matched) != 2 {
		t.Errorf("matched %d entries, want 2 (later matches stay in the list)", len(matched))
	}
}

func TestNegotiateContentDropsUnmatchedRemoteEntries(t *testing.T) {
	local := []jingle.PayloadType{
		{ID: 97, Name: "opus", ClockRate: 48000},
	}
	remote := []jingle.PayloadType{
		{ID: 96, Name: "speex", ClockRate: 16000},
		{ID: 103, Name: "opus", ClockRate: 48000},
	}

	matched, encoder, ok := negotiateContent(local, remote)
	if !ok {
		t.Fatal("expected negotiation to succeed on the opus entry")
	}
	if len(matched) != 1 {
		t.Errorf("matched list = %+v, want the speex entry dropped", matched)
	}
	if encoder.ID != 103 {
		t.Errorf("encoder id = %d, want 103", encoder.ID)
	}
}

func TestNegotiateContentNoMatchFails(t *testing.T) {
	local := []jingle.PayloadType{
		{ID: 97, Name: "opus", ClockRate: 48000},
	}
	remote := []jingle.PayloadType{
		{ID: 96, Name: "speex", ClockRate: 16000},
	}

	if _, _, ok := negotiateContent(local, remote); ok {
		t.Fatal("expected negotiation to fail when no codec matches")
	}
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"testing"

	"github.com/olesalscheider/jinglecall/jingle"
)

func TestPayloadTypeMatchesDynamic(t *testing.T) {
	local := jingle.PayloadType{ID: 97, Name: "opus", ClockRate: 48000, Channels: 2}
	remote := jingle.PayloadType{ID: 111, Name: "opus", ClockRate: 48000, Channels: 2}

	if !local.Matches(remote) {
		t.Errorf("expected a dynamic remote entry to match by name: %+v vs %+v", local, remote)
	}
	if !remote.IsDynamic() {
		t.Errorf("expected ID 111 to be dynamic")
	}
}

func TestPayloadTypeMatchesStatic(t *testing.T) {
	local := jingle.PayloadType{ID: 0, Name: "PCMU", ClockRate: 8000}
	remote := jingle.PayloadType{ID: 0, Name: "pcmu", ClockRate: 8000}

	if !local.Matches(remote) {
		t.Errorf("expected a static remote entry to match by id regardless of name: %+v vs %+v", local, remote)
	}
	if local.IsDynamic() {
		t.Errorf("expected ID 0 to be static")
	}
}

func TestPayloadTypeChannelsDefaultToOne(t *testing.T) {
	a := jingle.PayloadType{ID: 0, ClockRate: 8000}
	b := jingle.PayloadType{ID: 0, ClockRate: 8000, Channels: 1}

	if !a.Matches(b) {
		t.Errorf("expected missing channels attribute to default to 1")
	}
}

func TestPayloadTypeClockRateMismatch(t *testing.T) {
	a := jingle.PayloadType{ID: 96, Name: "speex", ClockRate: 8000}
	b := jingle.PayloadType{ID: 96, Name: "speex", ClockRate: 16000}

	if a.Matches(b) {
		t.Errorf("expected differing clock rates to fail to match")
	}
}

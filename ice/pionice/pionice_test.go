// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pionice

import (
	"testing"

	"github.com/olesalscheider/jinglecall/jingle"
)

func TestCandidateRoundTrip(t *testing.T) {
	original := jingle.Candidate{
		Component:  1,
		Foundation: "1",
		Generation: 0,
		ID:         "abc123",
		IP:         "192.0.2.1",
		Port:       5000,
		Priority:   2130706431,
		Protocol:   "udp",
		Type:       jingle.TypeHost,
	}

	cand, err := fromJingleCandidate(original)
	if err != nil {
		t.Fatalf("fromJingleCandidate returned error: %v", err)
	}

	back := toJingleCandidate(int(original.Component), cand)
	if back.IP != original.IP || back.Port != original.Port {
		t.Errorf("round-tripped candidate address = %s:%d, want %s:%d", back.IP, back.Port, original.IP, original.Port)
	}
	if back.Type != original.Type {
		t.Errorf("round-tripped candidate type = %q, want %q", back.Type, original.Type)
	}
}

func TestConnectionAddComponent(t *testing.T) {
	conn := NewConnection()
	defer conn.Close()

	if err := conn.AddComponent(1); err != nil {
		t.Fatalf("AddComponent returned error: %v", err)
	}
	if conn.LocalUser() == "" || conn.LocalPassword() == "" {
		t.Errorf("expected local ICE credentials to be generated")
	}
}

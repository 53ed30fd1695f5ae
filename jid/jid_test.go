// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jid_test

import (
	"encoding/xml"
	"testing"

	"github.com/olesalscheider/jinglecall/jid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		local    string
		domain   string
		resource string
	}{
		{"example.net", "", "example.net", ""},
		{"romeo@example.net", "romeo", "example.net", ""},
		{"romeo@example.net/orchard", "romeo", "example.net", "orchard"},
		{"example.net/orchard", "", "example.net", "orchard"},
	}

	for _, tc := range tests {
		j, err := jid.Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.in, err)
			continue
		}
		if j.Localpart() != tc.local || j.Domainpart() != tc.domain || j.Resourcepart() != tc.resource {
			t.Errorf("Parse(%q) = %+v, want local=%q domain=%q resource=%q", tc.in, j, tc.local, tc.domain, tc.resource)
		}
		if got := j.String(); got != tc.in {
			t.Errorf("Parse(%q).String() = %q, want %q", tc.in, got, tc.in)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"@example.net", "romeo@", "romeo@example.net/"} {
		if _, err := jid.Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", in)
		}
	}
}

func TestBare(t *testing.T) {
	j := jid.MustParse("romeo@example.net/orchard")
	bare := j.Bare()
	if bare.Resourcepart() != "" {
		t.Errorf("Bare() resourcepart = %q, want empty", bare.Resourcepart())
	}
	if bare.String() != "romeo@example.net" {
		t.Errorf("Bare().String() = %q, want romeo@example.net", bare.String())
	}
}

func TestEqual(t *testing.T) {
	a := jid.MustParse("romeo@example.net/orchard")
	b := jid.MustParse("romeo@example.net/orchard")
	c := jid.MustParse("romeo@example.net/balcony")

	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestMarshalXMLAttr(t *testing.T) {
	j := jid.MustParse("juliet@example.net")

	attr, err := j.MarshalXMLAttr(xml.Name{Local: "to"})
	if err != nil {
		t.Fatalf("MarshalXMLAttr returned error: %v", err)
	}
	if attr.Value != "juliet@example.net" {
		t.Errorf("MarshalXMLAttr value = %q, want juliet@example.net", attr.Value)
	}

	var roundTrip jid.JID
	if err := roundTrip.UnmarshalXMLAttr(attr); err != nil {
		t.Fatalf("UnmarshalXMLAttr returned error: %v", err)
	}
	if !roundTrip.Equal(j) {
		t.Errorf("round-tripped JID = %v, want %v", roundTrip, j)
	}
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jid implements the XMPP address format (historically "Jabber ID")
// defined in RFC 7622: an optional localpart, a domainpart, and an optional
// resourcepart.
package jid

import (
	"encoding/xml"
	"errors"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// JID represents an XMPP address of the form localpart@domainpart/resourcepart.
// The zero value is not a valid JID; construct one with Parse or MustParse.
type JID struct {
	localpart    string
	domainpart   string
	resourcepart string
}

// Parse parses s into a JID, performing the splitting and normalization
// rules from RFC 7622 §3.
func Parse(s string) (JID, error) {
	local, domain, resource, err := splitString(s)
	if err != nil {
		return JID{}, err
	}
	return FromParts(local, domain, resource)
}

// MustParse is like Parse but panics on error. It is intended for use in
// tests and package-level variable initialization.
func MustParse(s string) JID {
	j, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return j
}

// FromParts constructs a JID directly from its three components, applying
// Unicode normalization and the length/character checks RFC 7622 requires.
func FromParts(localpart, domainpart, resourcepart string) (JID, error) {
	domainpart, err := idna.ToUnicode(domainpart)
	if err != nil {
		return JID{}, err
	}
	localpart = norm.NFC.String(localpart)
	resourcepart = norm.NFC.String(resourcepart)

	if err := commonChecks(localpart, domainpart, resourcepart); err != nil {
		return JID{}, err
	}

	return JID{
		localpart:    localpart,
		domainpart:   domainpart,
		resourcepart: resourcepart,
	}, nil
}

func splitString(s string) (localpart, domainpart, resourcepart string, err error) {
	// RFC 7622 §3.1: match separators before any normalization is applied.
	parts := strings.SplitN(s, "/", 2)
	rest := parts[0]
	if len(parts) == 2 {
		if parts[1] == "" {
			return "", "", "", errors.New("jid: resourcepart must not be empty")
		}
		resourcepart = parts[1]
	}

	atParts := strings.SplitN(rest, "@", 2)
	switch len(atParts) {
	case 1:
		domainpart = atParts[0]
	case 2:
		if atParts[0] == "" {
			return "", "", "", errors.New("jid: localpart must not be empty")
		}
		localpart = atParts[0]
		domainpart = atParts[1]
	}

	// A trailing label separator (dot) is stripped before routing/comparison.
	domainpart = strings.TrimSuffix(domainpart, ".")
	return localpart, domainpart, resourcepart, nil
}

func commonChecks(localpart, domainpart, resourcepart string) error {
	if len(localpart) > 1023 {
		return errors.New("jid: localpart must be smaller than 1024 bytes")
	}
	if strings.ContainsAny(localpart, "\"&'/:<>@") {
		return errors.New("jid: localpart contains forbidden characters")
	}
	if len(resourcepart) > 1023 {
		return errors.New("jid: resourcepart must be smaller than 1024 bytes")
	}
	if l := len(domainpart); l < 1 || l > 1023 {
		return errors.New("jid: domainpart must be between 1 and 1023 bytes")
	}
	return nil
}

// Localpart returns the localpart of the JID (e.g. "romeo").
func (j JID) Localpart() string { return j.localpart }

// Domainpart returns the domainpart of the JID (e.g. "example.net").
func (j JID) Domainpart() string { return j.domainpart }

// Resourcepart returns the resourcepart of the JID (e.g. "orchard").
func (j JID) Resourcepart() string { return j.resourcepart }

// Bare returns a copy of the JID with the resourcepart removed.
func (j JID) Bare() JID {
	j.resourcepart = ""
	return j
}

// IsZero reports whether j is the zero value (no domainpart set).
func (j JID) IsZero() bool {
	return j.domainpart == "" && j.localpart == "" && j.resourcepart == ""
}

// Equal reports whether j and other refer to the same address.
func (j JID) Equal(other JID) bool {
	return j.localpart == other.localpart &&
		j.domainpart == other.domainpart &&
		j.resourcepart == other.resourcepart
}

// String returns the string representation of the JID.
func (j JID) String() string {
	var b strings.Builder
	if j.localpart != "" {
		b.WriteString(j.localpart)
		b.WriteByte('@')
	}
	b.WriteString(j.domainpart)
	if j.resourcepart != "" {
		b.WriteByte('/')
		b.WriteString(j.resourcepart)
	}
	return b.String()
}

// MarshalXMLAttr implements xml.MarshalerAttr so that a JID can be used
// directly as a struct field tagged `xml:"...,attr"`.
func (j JID) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: j.String()}, nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (j *JID) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := Parse(attr.Value)
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

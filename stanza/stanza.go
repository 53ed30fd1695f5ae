// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza provides the minimal set of XMPP stanza types the Jingle
// call core needs to build requests and recognize acks, modeled on
// mellium.im/xmpp/stanza. It does not attempt to be a general purpose XMPP
// stanza library: the stanza transport collaborator is responsible for
// the rest of the wire protocol.
package stanza

import (
	"encoding/xml"
	"errors"

	"mellium.im/xmlstream"

	"github.com/olesalscheider/jinglecall/jid"
)

// ErrEmptyIQType is returned by IQType.MarshalXMLAttr for an empty type.
// Marshaling a whole IQ whose Type has not been set does not return it:
// IQ.Wrap simply omits the type attribute.
var ErrEmptyIQType = errors.New("stanza: empty IQ type")

// IQType is the type attribute of an IQ stanza.
type IQType string

// The four IQ types defined by RFC 6120 §8.2.3.
const (
	GetIQ    IQType = "get"
	SetIQ    IQType = "set"
	ResultIQ IQType = "result"
	ErrorIQ  IQType = "error"
)

// MarshalXMLAttr implements xml.MarshalerAttr.
func (t IQType) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if t == "" {
		return xml.Attr{}, ErrEmptyIQType
	}
	return xml.Attr{Name: name, Value: string(t)}, nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (t *IQType) UnmarshalXMLAttr(attr xml.Attr) error {
	*t = IQType(attr.Value)
	return nil
}

// IQ ("Information Query") is a request/response stanza. Every IQ of type
// get or set must eventually be met with exactly one result or error IQ
// carrying the same id; the Call and CallManager types rely on this to
// track outstanding requests.
type IQ struct {
	XMLName xml.Name `xml:"iq"`
	ID      string   `xml:"id,attr"`
	To      jid.JID  `xml:"to,attr"`
	From    jid.JID  `xml:"from,attr"`
	Type    IQType   `xml:"type,attr"`
}

// Result builds the IQ result ack for this request: empty payload, type
// result, id copied, to/from swapped.
func (iq IQ) Result() IQ {
	return IQ{
		ID:   iq.ID,
		To:   iq.From,
		From: iq.To,
		Type: ResultIQ,
	}
}

// Wrap wraps the payload in the IQ's start element. Passing a nil
// payload produces an empty IQ, e.g. a result ack.
func (iq IQ) Wrap(payload xml.TokenReader) xml.TokenReader {
	start := xml.StartElement{Name: xml.Name{Local: "iq"}}
	if iq.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: iq.ID})
	}
	if !iq.To.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "to"}, Value: iq.To.String()})
	}
	if !iq.From.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "from"}, Value: iq.From.String()})
	}
	if iq.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(iq.Type)})
	}
	return xmlstream.Wrap(payload, start)
}

// TokenReader implements xmlstream.Marshaler.
func (iq IQ) TokenReader() xml.TokenReader {
	return iq.Wrap(nil)
}

// WriteXML implements xmlstream.WriterTo.
func (iq IQ) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, iq.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (iq IQ) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := iq.WriteXML(e)
	return err
}

// PresenceType is the type attribute of a presence stanza.
type PresenceType string

// The presence types the call core cares about; the rest pass through the
// transport untouched.
const (
	// AvailablePresence is the implicit type of presence with no type
	// attribute at all.
	AvailablePresence   PresenceType = ""
	UnavailablePresence PresenceType = "unavailable"
	ErrorPresence       PresenceType = "error"
)

// Presence is an XMPP stanza used to broadcast availability.
type Presence struct {
	XMLName xml.Name     `xml:"presence"`
	ID      string       `xml:"id,attr,omitempty"`
	To      jid.JID      `xml:"to,attr,omitempty"`
	From    jid.JID      `xml:"from,attr"`
	Type    PresenceType `xml:"type,attr,omitempty"`
}

// Wrap wraps the payload in the presence's start element.
func (p Presence) Wrap(payload xml.TokenReader) xml.TokenReader {
	start := xml.StartElement{Name: xml.Name{Local: "presence"}}
	if p.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: p.ID})
	}
	if !p.To.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "to"}, Value: p.To.String()})
	}
	if !p.From.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "from"}, Value: p.From.String()})
	}
	if p.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(p.Type)})
	}
	return xmlstream.Wrap(payload, start)
}

// TokenReader implements xmlstream.Marshaler.
func (p Presence) TokenReader() xml.TokenReader {
	return p.Wrap(nil)
}

// WriteXML implements xmlstream.WriterTo.
func (p Presence) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, p.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (p Presence) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := p.WriteXML(e)
	return err
}

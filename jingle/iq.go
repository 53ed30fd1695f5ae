// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"

	"mellium.im/xmlstream"

	"github.com/olesalscheider/jinglecall/internal/ns"
	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/stanza"
)

// IQ is a Jingle payload wrapped in an IQ stanza, the unit every inbound
// and outbound session message is built from.
type IQ struct {
	stanza.IQ

	Jingle Payload `xml:"urn:xmpp:jingle:1 jingle"`
}

// TokenReader implements xmlstream.Marshaler, wrapping the jingle
// payload in the IQ stanza the way stanza.IQ.Wrap wraps any payload. A
// result ack has no payload and marshals as an empty iq element.
func (iq IQ) TokenReader() xml.TokenReader {
	if iq.Jingle.Action == "" {
		return iq.IQ.Wrap(nil)
	}
	return iq.IQ.Wrap(iq.Jingle.TokenReader())
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

// Payload is the jingle element itself: the action, the session and
// party identifiers, and the contents and reason it carries.
type Payload struct {
	XMLName      xml.Name  `xml:"urn:xmpp:jingle:1 jingle"`
	Action       Action    `xml:"action,attr"`
	InitiatorJID *jid.JID  `xml:"initiator,attr,omitempty"`
	ResponderJID *jid.JID  `xml:"responder,attr,omitempty"`
	SID          string    `xml:"sid,attr"`
	Contents     []Content `xml:"content"`
	Reason       *Reason   `xml:"reason,omitempty"`
	Ringing      *Ringing  `xml:"urn:xmpp:jingle:apps:rtp:info:1 ringing,omitempty"`
}

// Ringing is the session-info payload a responder sends once an incoming
// session has been set up locally and the user is being alerted
// (XEP-0167 §8).
type Ringing struct {
	XMLName xml.Name `xml:"urn:xmpp:jingle:apps:rtp:info:1 ringing"`
}

// TokenReader implements xmlstream.Marshaler.
func (Ringing) TokenReader() xml.TokenReader {
	return xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Space: ns.JingleRTPInfo, Local: "ringing"}})
}

// TokenReader implements xmlstream.Marshaler: the jingle element's
// attributes followed by its contents, reason and session-info payload,
// in that order.
func (p Payload) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Space: ns.Jingle, Local: "jingle"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "action"}, Value: string(p.Action)},
			{Name: xml.Name{Local: "sid"}, Value: p.SID},
		},
	}
	if p.InitiatorJID != nil {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "initiator"}, Value: p.InitiatorJID.String()})
	}
	if p.ResponderJID != nil {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "responder"}, Value: p.ResponderJID.String()})
	}

	var inner []xml.TokenReader
	for _, c := range p.Contents {
		inner = append(inner, c.TokenReader())
	}
	if p.Reason != nil {
		inner = append(inner, p.Reason.TokenReader())
	}
	if p.Ringing != nil {
		inner = append(inner, p.Ringing.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (p Payload) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, p.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (p Payload) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := p.WriteXML(e)
	return err
}

// NewIQ builds a set-type IQ carrying a Jingle payload with the given
// action and session id, addressed to, and considered to be from, the
// given JIDs. Callers fill in Contents/Reason on the returned value
// before handing it to the transport.
func NewIQ(id string, to, from jid.JID, action Action, sid string) IQ {
	return IQ{
		IQ: stanza.IQ{
			ID:   id,
			To:   to,
			From: from,
			Type: stanza.SetIQ,
		},
		Jingle: Payload{
			Action: action,
			SID:    sid,
		},
	}
}

// Reason describes why a session or content was terminated or rejected
// (XEP-0166 §7.4).
type Reason struct {
	XMLName   xml.Name `xml:"reason"`
	Condition Condition
	Text      string `xml:"text,omitempty"`
}

// Condition is a reason's inner element, e.g. <success/> or <busy/>.
type Condition string

// The subset of XEP-0166 §7.4 conditions this core produces or
// recognizes; QXmppCall.cpp only ever sends success, busy,
// failed-application and general-error, and recognizes "gone" for
// peers that disappear.
const (
	ReasonSuccess           Condition = "success"
	ReasonBusy              Condition = "busy"
	ReasonFailedApplication Condition = "failed-application"
	ReasonGeneralError      Condition = "general-error"
	ReasonGone              Condition = "gone"
	ReasonTimeout           Condition = "connectivity-error"
)

// TokenReader implements xmlstream.Marshaler, encoding the condition as
// an empty child element named after it, matching the XEP-0166 wire
// format (<reason><success/></reason> rather than a text-valued element).
func (r Reason) TokenReader() xml.TokenReader {
	var inner []xml.TokenReader
	if r.Condition != "" {
		inner = append(inner, xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Local: string(r.Condition)}}))
	}
	if r.Text != "" {
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(r.Text)),
			xml.StartElement{Name: xml.Name{Local: "text"}},
		))
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), xml.StartElement{Name: xml.Name{Local: "reason"}})
}

// WriteXML implements xmlstream.WriterTo.
func (r Reason) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, r.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (r Reason) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := r.WriteXML(e)
	return err
}

// UnmarshalXML decodes a reason element, recovering the condition from
// whichever child element name is present.
func (r *Reason) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "text" {
				var text string
				if err := d.DecodeElement(&text, &el); err != nil {
					return err
				}
				r.Text = text
				continue
			}
			r.Condition = Condition(el.Name.Local)
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// featureNamespaces lists the service-discovery features a call manager
// advertises for peers to learn this core can negotiate a call, mirroring
// QXmppCallManager::discoveryFeatures().
var featureNamespaces = []string{
	ns.Jingle,
	ns.JingleRTP,
	ns.JingleRTPAudio,
	ns.JingleRTPVideo,
	ns.JingleICEUDP,
}

// DiscoveryFeatures returns the service-discovery feature strings a
// CallManager should advertise.
func DiscoveryFeatures() []string {
	out := make([]string, len(featureNamespaces))
	copy(out, featureNamespaces)
	return out
}

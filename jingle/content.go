// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"strconv"

	"mellium.im/xmlstream"

	"github.com/olesalscheider/jinglecall/internal/ns"
)

// Content describes one media stream within a session: its name, which
// party created it, who may send on it, and the description/transport
// pair negotiated for it.
type Content struct {
	XMLName     xml.Name    `xml:"content"`
	Creator     Creator     `xml:"creator,attr"`
	Name        string      `xml:"name,attr"`
	Senders     Senders     `xml:"senders,attr,omitempty"`
	Description Description `xml:"urn:xmpp:jingle:apps:rtp:1 description"`
	Transport   Transport   `xml:"urn:xmpp:jingle:transports:ice-udp:1 transport"`
}

// TokenReader implements xmlstream.Marshaler. A zero Description or
// Transport is omitted entirely, so a content-reject carries just the
// creator and name attributes.
func (c Content) TokenReader() xml.TokenReader {
	start := xml.StartElement{Name: xml.Name{Local: "content"}}
	if c.Creator != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "creator"}, Value: string(c.Creator)})
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: c.Name})
	if c.Senders != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "senders"}, Value: string(c.Senders)})
	}

	var inner []xml.TokenReader
	if c.Description.Media != "" || len(c.Description.PayloadTypes) > 0 {
		inner = append(inner, c.Description.TokenReader())
	}
	if c.Transport.User != "" || c.Transport.Password != "" || len(c.Transport.Candidates) > 0 {
		inner = append(inner, c.Transport.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (c Content) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, c.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (c Content) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := c.WriteXML(e)
	return err
}

// Description is the RTP media description of a content (XEP-0167): its
// media type and the payload types offered or accepted for it.
type Description struct {
	XMLName      xml.Name      `xml:"urn:xmpp:jingle:apps:rtp:1 description"`
	Media        string        `xml:"media,attr"`
	SSRC         string        `xml:"ssrc,attr,omitempty"`
	PayloadTypes []PayloadType `xml:"payload-type"`
}

// TokenReader implements xmlstream.Marshaler.
func (d Description) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Space: ns.JingleRTP, Local: "description"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "media"}, Value: d.Media}},
	}
	if d.SSRC != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "ssrc"}, Value: d.SSRC})
	}
	var inner []xml.TokenReader
	for _, pt := range d.PayloadTypes {
		inner = append(inner, pt.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (d Description) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, d.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (d Description) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := d.WriteXML(e)
	return err
}

// PayloadType describes a single negotiable codec: its dynamic or static
// payload type number, name, clock rate, channel count, and any
// name=value format parameters carried in <parameter/> children.
//
// Negotiation rules (QXmppCallPrivate::handleDescription is the
// reference): a dynamic payload type (id >= 96) is matched by
// name/clockrate/channels and the remote peer's id is adopted; a static
// payload type (id < 96) is matched by id/clockrate/channels and the
// local name is kept.
type PayloadType struct {
	XMLName    xml.Name    `xml:"payload-type"`
	ID         uint8       `xml:"id,attr"`
	Name       string      `xml:"name,attr,omitempty"`
	ClockRate  uint32      `xml:"clockrate,attr,omitempty"`
	Channels   uint8       `xml:"channels,attr,omitempty"`
	Parameters []Parameter `xml:"parameter,omitempty"`
}

// TokenReader implements xmlstream.Marshaler. The channels attribute is
// only written when it says something an absent attribute wouldn't
// (XEP-0167 defaults it to one).
func (pt PayloadType) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Local: "payload-type"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "id"}, Value: strconv.Itoa(int(pt.ID))}},
	}
	if pt.Name != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: pt.Name})
	}
	if pt.ClockRate != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "clockrate"}, Value: strconv.FormatUint(uint64(pt.ClockRate), 10)})
	}
	if pt.Channels > 1 {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "channels"}, Value: strconv.Itoa(int(pt.Channels))})
	}
	var inner []xml.TokenReader
	for _, p := range pt.Parameters {
		inner = append(inner, p.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (pt PayloadType) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, pt.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (pt PayloadType) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := pt.WriteXML(e)
	return err
}

// Parameter is a codec-specific format parameter, e.g. <parameter
// name="stereo" value="1"/> for Opus.
type Parameter struct {
	XMLName xml.Name `xml:"parameter"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

// TokenReader implements xmlstream.Marshaler.
func (p Parameter) TokenReader() xml.TokenReader {
	return xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Local: "parameter"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "name"}, Value: p.Name},
			{Name: xml.Name{Local: "value"}, Value: p.Value},
		},
	})
}

// WriteXML implements xmlstream.WriterTo.
func (p Parameter) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, p.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (p Parameter) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := p.WriteXML(e)
	return err
}

// IsDynamic reports whether pt uses the dynamic payload type range
// (id >= 96), in which case it is matched by name rather than id.
func (pt PayloadType) IsDynamic() bool {
	return pt.ID >= 96
}

// Matches reports whether the local payload type pt can satisfy the
// remote offer entry, following the static/dynamic matching rules above.
// The rule is chosen by the remote id: dynamic ids are session-local and
// carry no meaning across peers, so a dynamic remote entry matches by
// name, while a static remote entry matches by id.
func (pt PayloadType) Matches(remote PayloadType) bool {
	if pt.ClockRate != remote.ClockRate {
		return false
	}
	if channels(pt) != channels(remote) {
		return false
	}
	if remote.IsDynamic() {
		return pt.Name == remote.Name
	}
	return pt.ID == remote.ID
}

// channels normalizes the channel count: XEP-0167 treats an absent
// channels attribute as equivalent to one channel.
func channels(pt PayloadType) uint8 {
	if pt.Channels == 0 {
		return 1
	}
	return pt.Channels
}

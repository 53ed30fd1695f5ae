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

// Transport is the ICE-UDP transport element of a content (XEP-0176): the
// local ICE credentials and the candidates gathered so far. A transport
// with no candidates is valid: QXmppCall sends one with session-initiate
// before gathering completes, and follow-up candidates arrive later via
// transport-info.
type Transport struct {
	XMLName    xml.Name    `xml:"urn:xmpp:jingle:transports:ice-udp:1 transport"`
	User       string      `xml:"ufrag,attr"`
	Password   string      `xml:"pwd,attr"`
	Candidates []Candidate `xml:"candidate,omitempty"`
}

// TokenReader implements xmlstream.Marshaler.
func (t Transport) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Space: ns.JingleICEUDP, Local: "transport"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "ufrag"}, Value: t.User},
			{Name: xml.Name{Local: "pwd"}, Value: t.Password},
		},
	}
	var inner []xml.TokenReader
	for _, c := range t.Candidates {
		inner = append(inner, c.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), start)
}

// WriteXML implements xmlstream.WriterTo.
func (t Transport) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, t.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (t Transport) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := t.WriteXML(e)
	return err
}

// Candidate is a single ICE candidate (XEP-0176 §3), carrying the same
// fields an ICE agent needs to reconstruct it: foundation, component,
// transport protocol, priority, address/port, candidate type, and (for
// relayed and reflexive candidates) the related address/port.
type Candidate struct {
	XMLName    xml.Name `xml:"candidate"`
	Component  uint8    `xml:"component,attr"`
	Foundation string   `xml:"foundation,attr"`
	Generation uint8    `xml:"generation,attr"`
	ID         string   `xml:"id,attr"`
	IP         string   `xml:"ip,attr"`
	Network    uint8    `xml:"network,attr"`
	Port       uint16   `xml:"port,attr"`
	Priority   uint32   `xml:"priority,attr"`
	Protocol   string   `xml:"protocol,attr"`
	RelAddr    string   `xml:"rel-addr,attr,omitempty"`
	RelPort    uint16   `xml:"rel-port,attr,omitempty"`
	Type       string   `xml:"type,attr"`
}

// TokenReader implements xmlstream.Marshaler.
func (c Candidate) TokenReader() xml.TokenReader {
	attr := []xml.Attr{
		{Name: xml.Name{Local: "component"}, Value: strconv.Itoa(int(c.Component))},
		{Name: xml.Name{Local: "foundation"}, Value: c.Foundation},
		{Name: xml.Name{Local: "generation"}, Value: strconv.Itoa(int(c.Generation))},
		{Name: xml.Name{Local: "id"}, Value: c.ID},
		{Name: xml.Name{Local: "ip"}, Value: c.IP},
		{Name: xml.Name{Local: "network"}, Value: strconv.Itoa(int(c.Network))},
		{Name: xml.Name{Local: "port"}, Value: strconv.Itoa(int(c.Port))},
		{Name: xml.Name{Local: "priority"}, Value: strconv.FormatUint(uint64(c.Priority), 10)},
		{Name: xml.Name{Local: "protocol"}, Value: c.Protocol},
	}
	if c.RelAddr != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "rel-addr"}, Value: c.RelAddr})
	}
	if c.RelPort != 0 {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "rel-port"}, Value: strconv.Itoa(int(c.RelPort))})
	}
	attr = append(attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: c.Type})
	return xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Local: "candidate"}, Attr: attr})
}

// WriteXML implements xmlstream.WriterTo.
func (c Candidate) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, c.TokenReader())
}

// MarshalXML implements xml.Marshaler.
func (c Candidate) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := c.WriteXML(e)
	return err
}

// The candidate type strings a Candidate.Type may hold, matching the ICE
// candidate types an agent reports (host, server reflexive, peer
// reflexive, relayed).
const (
	TypeHost  = "host"
	TypeSrflx = "srflx"
	TypePrflx = "prflx"
	TypeRelay = "relay"
)

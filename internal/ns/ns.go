// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants shared by the jingle and stanza
// packages.
package ns

// Namespaces for the Jingle family of specifications this core implements.
const (
	// Jingle is the base session-management namespace (XEP-0166).
	Jingle = "urn:xmpp:jingle:1"

	// JingleRTP is the RTP media description namespace (XEP-0167).
	JingleRTP = "urn:xmpp:jingle:apps:rtp:1"

	// JingleRTPAudio and JingleRTPVideo are service-discovery features
	// advertised alongside JingleRTP.
	JingleRTPAudio = "urn:xmpp:jingle:apps:rtp:audio"
	JingleRTPVideo = "urn:xmpp:jingle:apps:rtp:video"

	// JingleRTPInfo is the namespace of session-info payloads such as
	// <ringing/> (XEP-0167 §8).
	JingleRTPInfo = "urn:xmpp:jingle:apps:rtp:info:1"

	// JingleICEUDP is the ICE-UDP transport namespace (XEP-0176).
	JingleICEUDP = "urn:xmpp:jingle:transports:ice-udp:1"

	// XML is the namespace of the reserved xml: attribute prefix.
	XML = "http://www.w3.org/XML/1998/namespace"
)

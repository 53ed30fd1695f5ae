// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package media declares the interfaces a media subsystem must satisfy to
// back a CallStream: codec availability probing and the encoder/decoder
// pipeline that bridges RTP packets to and from raw media. This package
// has no media-processing code of its own; media/pionrtp provides a
// concrete implementation built on the pion WebRTC stack.
//
// The split mirrors QXmppCallStreamPrivate's use of GStreamer: the call
// core builds named elements and wires pads together, but never links
// against GStreamer (or, here, pion) directly.
package media

import "context"

// Environment probes which codecs a media subsystem can actually run,
// the Go analogue of QXmppCallPrivate's gst_element_factory_find calls
// that filter CodecRegistry's defaults down to what's installed.
type Environment interface {
	// HasEncoder reports whether an encoder is available for the given
	// codec name (e.g. "opus", "h264", "vp8"), as matched case
	// insensitively against a PayloadType.Name.
	HasEncoder(name string) bool

	// HasDecoder reports whether a decoder is available for the given
	// codec name.
	HasDecoder(name string) bool
}

// Direction indicates which way media flows through a Pipeline.
type Direction int

// The two directions a Pipeline handles.
const (
	Send Direction = iota
	Receive
)

// SSRCActiveFunc is called the first time RTP or RTCP activity is
// observed for a remote synchronization source; the RTCP case lets
// callers attribute an incoming stream to a particular SSRC before any
// RTP has necessarily arrived.
type SSRCActiveFunc func(ssrc uint32)

// Pipeline bridges RTP/RTCP packets for one negotiated codec to and from
// the local media hardware (microphone/speaker, camera/display). A
// CallStream owns exactly one Pipeline per direction it supports.
type Pipeline interface {
	// Start begins encoding (Send) or decoding (Receive) media using the
	// negotiated codec name, payload type id and clock rate, writing or
	// reading RTP packets through WritePacket/ReadPacket until ctx is
	// canceled. The payload type is the negotiated, possibly rewritten id
	// the peer expects on the wire.
	Start(ctx context.Context, codec string, payloadType uint8, clockRate uint32, localSSRC uint32) error

	// WritePacket hands a received RTP packet to a Receive pipeline.
	WritePacket(payload []byte) error

	// ReadPacket blocks until a Send pipeline has an RTP packet ready and
	// returns it.
	ReadPacket(ctx context.Context) ([]byte, error)

	// OnSSRCActive registers a callback invoked the first time RTP or
	// RTCP activity is observed for a remote SSRC on a Receive pipeline.
	OnSSRCActive(fn SSRCActiveFunc)

	// Close releases any resources held by the pipeline.
	Close() error
}

// RTCPReceiver is an optional extension a Receive Pipeline may implement
// to consume RTCP datagrams read off a stream's RTCP component, most
// importantly to fire OnSSRCActive from an RTCP sender report that
// arrives before the first RTP packet does.
type RTCPReceiver interface {
	WriteRTCP(payload []byte) error
}

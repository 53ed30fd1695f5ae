// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package pionrtp implements media.Environment and media.Pipeline on top
// of the pion WebRTC stack: github.com/pion/webrtc/v4's MediaEngine is
// used to probe codec availability and its RTP payloaders/depacketizers
// frame outgoing and incoming media, the same division of labor
// QXmppCallStreamPrivate gives GStreamer's payloader/depayloader
// elements.
//
// This package does not itself capture or render audio/video; Start's
// codec/clockRate arguments exist to size the RTP packetizer and to
// report SSRC activity, not to spin up hardware access; media capture
// and rendering stay the embedding application's concern.
package pionrtp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"

	"github.com/olesalscheider/jinglecall/media"
)

// mimeTypes maps the internal codec names codec.Defaults uses to the
// MIME types MediaEngine.RegisterCodec expects.
var mimeTypes = map[string]string{
	"h265":  webrtc.MimeTypeH265,
	"h264":  webrtc.MimeTypeH264,
	"vp8":   webrtc.MimeTypeVP8,
	"vp9":   webrtc.MimeTypeVP9,
	"opus":  webrtc.MimeTypeOpus,
	"speex": "audio/speex",
	"pcma":  webrtc.MimeTypePCMA,
	"pcmu":  webrtc.MimeTypePCMU,
}

// Environment is a media.Environment backed by a pion MediaEngine with
// every codec pionrtp can frame pre-registered; HasEncoder/HasDecoder
// both answer from the same registration since pion's RTP framing layer
// doesn't distinguish encode-only from decode-only support.
type Environment struct {
	engine     *webrtc.MediaEngine
	registered map[string]bool
}

// NewEnvironment builds an Environment with all codecs pionrtp knows how
// to frame registered against a fresh MediaEngine, following the
// RegisterCodec pattern used for WebRTC peer connections in
// petervdpas-goop2 and n0remac-robot-webrtc.
func NewEnvironment() (*Environment, error) {
	m := &webrtc.MediaEngine{}
	registered := make(map[string]bool)

	videoCodecs := []struct {
		name string
		pt   webrtc.PayloadType
	}{
		{"h265", 101},
		{"h264", 99},
		{"vp8", 98},
		{"vp9", 100},
	}
	for _, c := range videoCodecs {
		if err := m.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: webrtc.RTPCodecCapability{
				MimeType:  mimeTypes[c.name],
				ClockRate: 90000,
				Channels:  1,
			},
			PayloadType: c.pt,
		}, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, fmt.Errorf("pionrtp: registering %s: %w", c.name, err)
		}
		registered[c.name] = true
	}

	audioCodecs := []struct {
		name      string
		pt        webrtc.PayloadType
		clockRate uint32
		channels  uint16
	}{
		{"opus", 97, 48000, 2},
		{"speex", 96, 48000, 1},
		{"pcma", 8, 8000, 1},
		{"pcmu", 0, 8000, 1},
	}
	for _, c := range audioCodecs {
		if err := m.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: webrtc.RTPCodecCapability{
				MimeType:  mimeTypes[c.name],
				ClockRate: c.clockRate,
				Channels:  c.channels,
			},
			PayloadType: c.pt,
		}, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, fmt.Errorf("pionrtp: registering %s: %w", c.name, err)
		}
		registered[c.name] = true
	}

	return &Environment{engine: m, registered: registered}, nil
}

// HasEncoder implements media.Environment, answering from the codecs
// that registered successfully against the MediaEngine.
func (e *Environment) HasEncoder(name string) bool {
	return e.registered[strings.ToLower(name)]
}

// HasDecoder implements media.Environment.
func (e *Environment) HasDecoder(name string) bool {
	return e.HasEncoder(name)
}

// Pipeline is a media.Pipeline that packetizes (Send) or reassembles
// (Receive) RTP payloads for one negotiated codec.
type Pipeline struct {
	mu         sync.Mutex
	dir        media.Direction
	packetizer rtp.Packetizer
	seenSSRC   map[uint32]bool
	onActive   media.SSRCActiveFunc
	outbound   chan []byte
	closed     chan struct{}
}

// NewPipeline constructs a Pipeline for the given direction.
func NewPipeline(dir media.Direction) *Pipeline {
	return &Pipeline{
		dir:      dir,
		seenSSRC: make(map[uint32]bool),
		outbound: make(chan []byte, 32),
		closed:   make(chan struct{}),
	}
}

// Start implements media.Pipeline.
func (p *Pipeline) Start(ctx context.Context, codecName string, payloadType uint8, clockRate uint32, localSSRC uint32) error {
	mime, ok := mimeTypes[strings.ToLower(codecName)]
	if !ok {
		return fmt.Errorf("pionrtp: unknown codec %q", codecName)
	}

	if p.dir == media.Send {
		payloader, err := payloaderFor(mime)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.packetizer = rtp.NewPacketizer(1200, payloadType, localSSRC, payloader, rtp.NewRandomSequencer(), clockRate)
		p.mu.Unlock()
	}
	return nil
}

func payloaderFor(mime string) (rtp.Payloader, error) {
	switch mime {
	case webrtc.MimeTypeH264:
		return &codecs.H264Payloader{}, nil
	case webrtc.MimeTypeVP8:
		return &codecs.VP8Payloader{}, nil
	case webrtc.MimeTypeOpus:
		return &codecs.OpusPayloader{}, nil
	case webrtc.MimeTypePCMA, webrtc.MimeTypePCMU:
		return &codecs.G711Payloader{}, nil
	default:
		// Codecs pionrtp registers for availability probing but has no
		// dedicated pion payloader for (H265, VP9, Speex) fall back to
		// carrying the sample as a single RTP payload per packet.
		return passthroughPayloader{}, nil
	}
}

// passthroughPayloader implements rtp.Payloader for codecs without a
// dedicated pion payloader by emitting the sample unmodified as a single
// packet, the same "no splitting, caller keeps samples small" contract
// QXmppCallStreamPrivate's raw appsrc path uses for codecs GStreamer
// handles as a single buffer per frame.
type passthroughPayloader struct{}

func (passthroughPayloader) Payload(mtu uint16, payload []byte) [][]byte {
	return [][]byte{payload}
}

// WritePacket implements media.Pipeline for a Receive pipeline: it
// extracts the RTP payload, tracks the SSRC for OnSSRCActive, and makes
// the payload available for rendering via the outbound channel.
func (p *Pipeline) WritePacket(data []byte) error {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return fmt.Errorf("pionrtp: unmarshaling RTP packet: %w", err)
	}

	p.mu.Lock()
	first := !p.seenSSRC[pkt.SSRC]
	p.seenSSRC[pkt.SSRC] = true
	cb := p.onActive
	p.mu.Unlock()

	if first && cb != nil {
		cb(pkt.SSRC)
	}

	select {
	case p.outbound <- pkt.Payload:
	case <-p.closed:
	default:
		// Drop rather than block; a slow renderer shouldn't stall the
		// ICE read loop feeding this pipeline.
	}
	return nil
}

// ReadPacket implements media.Pipeline for a Send pipeline, returning the
// next packetized RTP packet for the caller to hand to an ice.Connection.
func (p *Pipeline) ReadPacket(ctx context.Context) ([]byte, error) {
	select {
	case data := <-p.outbound:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.closed:
		return nil, fmt.Errorf("pionrtp: pipeline closed")
	}
}

// Packetize frames a raw media sample into one or more RTP packets using
// the codec selected in Start, for a Send pipeline to push into
// ReadPacket's channel.
func (p *Pipeline) Packetize(sample []byte, samples uint32) error {
	p.mu.Lock()
	packetizer := p.packetizer
	p.mu.Unlock()
	if packetizer == nil {
		return fmt.Errorf("pionrtp: Start has not been called")
	}

	for _, pkt := range packetizer.Packetize(sample, samples) {
		data, err := pkt.Marshal()
		if err != nil {
			return err
		}
		select {
		case p.outbound <- data:
		case <-p.closed:
			return fmt.Errorf("pionrtp: pipeline closed")
		}
	}
	return nil
}

// OnSSRCActive implements media.Pipeline.
func (p *Pipeline) OnSSRCActive(fn media.SSRCActiveFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onActive = fn
}

// Close implements media.Pipeline.
func (p *Pipeline) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

// ParseRTCPSenderSSRC extracts the sender SSRC from an RTCP packet,
// used to drive OnSSRCActive from RTCP traffic that precedes the first
// RTP packet, matching the "RTCP arrives first" ordering QXmppCallStream
// handles via rtp-sync.
func ParseRTCPSenderSSRC(data []byte) (uint32, error) {
	packets, err := rtcp.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	for _, pkt := range packets {
		if sr, ok := pkt.(*rtcp.SenderReport); ok {
			return sr.SSRC, nil
		}
	}
	return 0, fmt.Errorf("pionrtp: no sender report in RTCP compound packet")
}

// WriteRTCP implements media.RTCPReceiver: it surfaces OnSSRCActive from
// a sender report's SSRC the same way WritePacket does from RTP, so a
// CallStream can attribute activity to a remote source before any RTP
// has necessarily arrived.
func (p *Pipeline) WriteRTCP(data []byte) error {
	ssrc, err := ParseRTCPSenderSSRC(data)
	if err != nil {
		return nil
	}

	p.mu.Lock()
	first := !p.seenSSRC[ssrc]
	p.seenSSRC[ssrc] = true
	cb := p.onActive
	p.mu.Unlock()

	if first && cb != nil {
		cb(ssrc)
	}
	return nil
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import (
	"context"
	"math/rand"
	"sync"

	"github.com/olesalscheider/jinglecall/ice"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/media"
)

// CallStream negotiates and carries one content's media: it owns the
// ICE connection for the content, the send/receive media.Pipeline pair,
// and the single codec negotiated for it. A Call creates one CallStream
// per content it offers or accepts (QXmppCallStream is the reference).
type CallStream struct {
	mu sync.Mutex

	name    string
	kind    string // "audio" or "video", matches Description.Media
	creator jingle.Creator
	senders jingle.Senders

	localSSRC uint32

	payloadTypes []jingle.PayloadType
	encoder      jingle.PayloadType
	negotiated   bool

	conn ice.Connection
	send media.Pipeline
	recv media.Pipeline

	cancel context.CancelFunc
	ctx    context.Context

	// decoderStarted guards the lazy installation of the receive
	// pipeline's decoder: the encoder is installed eagerly on
	// negotiation, the decoder only once the first inbound media arrives.
	decoderStarted bool

	// RTCPInterval is the minimum interval, in milliseconds, this side
	// should wait between RTCP sender reports once a future bitrate
	// controller exists. QXmppCallStreamPrivate exposes the same
	// "rtcp-min-interval" pipeline property, wired through but not yet
	// acted on.
	RTCPInterval uint32

	onSSRCActive      func(ssrc uint32)
	onSendPadReady    func(media.Pipeline)
	onReceivePadReady func(media.Pipeline)
}

// newCallStream constructs a CallStream for a content this side is
// offering or has just accepted. conn, send and recv are provided by the
// Call that owns it, which in turn got them from the ice and media
// adapters configured on its CallManager.
func newCallStream(name, kind string, creator jingle.Creator, conn ice.Connection, send, recv media.Pipeline) *CallStream {
	return &CallStream{
		name:      name,
		kind:      kind,
		creator:   creator,
		senders:   jingle.SendBoth,
		localSSRC: rand.Uint32(),
		conn:      conn,
		send:      send,
		recv:      recv,
	}
}

// Name returns the content name this stream carries media for.
func (s *CallStream) Name() string { return s.name }

// Kind returns "audio" or "video".
func (s *CallStream) Kind() string { return s.kind }

// Creator returns which party originally added this content.
func (s *CallStream) Creator() jingle.Creator { return s.creator }

// LocalSSRC returns the synchronization source this side sends with.
func (s *CallStream) LocalSSRC() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localSSRC
}

// PayloadTypes returns every payload type this stream negotiated (the
// remote offer's entries that matched a locally supported codec, with
// dynamic ids rewritten to the remote's), and whether negotiation has
// completed successfully yet. This is what Call.contentFor echoes back
// to the peer, not the full registry this side is willing to offer.
func (s *CallStream) PayloadTypes() ([]jingle.PayloadType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloadTypes, s.negotiated
}

// PayloadType returns the single codec installed as this stream's
// encoder: the first entry in PayloadTypes to have matched during
// negotiation, which is the one the encoder was installed with.
func (s *CallStream) PayloadType() (jingle.PayloadType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder, s.negotiated
}

// setPayloadTypes records the negotiated codec list and installs the
// send pipeline's encoder using matched[0] (the encoder candidate),
// bridging its outbound RTP to the ICE connection. The receive
// pipeline's decoder is installed lazily, only once the first
// inbound datagram arrives (see handleDatagram), not here.
func (s *CallStream) setPayloadTypes(ctx context.Context, matched []jingle.PayloadType, encoder jingle.PayloadType) error {
	s.mu.Lock()
	s.payloadTypes = matched
	s.encoder = encoder
	s.negotiated = true
	localSSRC := s.localSSRC
	onSendReady := s.onSendPadReady
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	prevCancel := s.cancel
	s.cancel = cancel
	s.ctx = ctx
	s.mu.Unlock()
	if prevCancel != nil {
		prevCancel()
	}

	if s.send != nil {
		if err := s.send.Start(ctx, encoder.Name, encoder.ID, encoder.ClockRate, localSSRC); err != nil {
			return err
		}
		go s.pumpSend(ctx)
		if onSendReady != nil {
			onSendReady(s.send)
		}
	}
	if s.conn != nil {
		s.conn.OnDatagramReceived(s.handleDatagram)
	}
	return nil
}

// startDecoderLocked lazily installs the receive pipeline's decoder the first
// time inbound media activity is observed for this stream, and fires
// OnReceivePadReady so the application can wire up an audio/video sink.
// Call with s.mu held.
func (s *CallStream) startDecoderLocked(encoder jingle.PayloadType, localSSRC uint32) {
	if s.decoderStarted || s.recv == nil {
		return
	}
	s.decoderStarted = true
	ctx := s.ctx
	recv := s.recv
	onActive := s.onSSRCActive
	onRecvReady := s.onReceivePadReady
	s.mu.Unlock()
	defer s.mu.Lock()

	if err := recv.Start(ctx, encoder.Name, encoder.ID, encoder.ClockRate, localSSRC); err != nil {
		return
	}
	if onActive != nil {
		recv.OnSSRCActive(onActive)
	}
	if onRecvReady != nil {
		onRecvReady(recv)
	}
}

// pumpSend relays RTP packets the send pipeline produces onto the RTP
// component of the ICE connection until ctx is canceled.
func (s *CallStream) pumpSend(ctx context.Context) {
	for {
		pkt, err := s.send.ReadPacket(ctx)
		if err != nil {
			return
		}
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		_ = conn.SendDatagram(ice.ComponentRTP, pkt)
	}
}

// handleDatagram routes a datagram read off the ICE connection's RTP
// component to the receive pipeline, and an RTCP component datagram to
// it too if it implements media.RTCPReceiver (RTCP sender reports can
// precede the first RTP packet and are the only pre-RTP source of
// OnSSRCActive). Either kind of inbound datagram counts as first
// inbound media, so both lazily start the decoder before handing off
// the payload.
func (s *CallStream) handleDatagram(component int, data []byte) {
	s.mu.Lock()
	if !s.negotiated {
		s.mu.Unlock()
		return
	}
	s.startDecoderLocked(s.encoder, s.localSSRC)
	recv := s.recv
	s.mu.Unlock()
	if recv == nil {
		return
	}
	switch component {
	case ice.ComponentRTP:
		_ = recv.WritePacket(data)
	case ice.ComponentRTCP:
		if rtcpRecv, ok := recv.(media.RTCPReceiver); ok {
			_ = rtcpRecv.WriteRTCP(data)
		}
	}
}

// OnSSRCActive registers a callback invoked the first time RTP or RTCP
// activity is observed for a remote SSRC on this stream's receive
// pipeline. If the decoder has already been lazily started, the
// callback is wired in immediately; otherwise startDecoderLocked applies
// it once the decoder is installed.
func (s *CallStream) OnSSRCActive(fn func(ssrc uint32)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSSRCActive = fn
	if s.decoderStarted && s.recv != nil {
		s.recv.OnSSRCActive(fn)
	}
}

// OnSendPadReady registers the callback invoked once this stream's
// encoder is installed and ready for the application to wire an audio or
// video source into. It fires
// synchronously from within session-initiate, session-accept,
// content-add or content-accept handling, immediately after negotiation
// completes.
func (s *CallStream) OnSendPadReady(fn func(media.Pipeline)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSendPadReady = fn
}

// OnReceivePadReady registers the callback invoked once this stream's
// decoder is lazily installed, on first inbound media, for the
// application to wire an audio or video sink into.
func (s *CallStream) OnReceivePadReady(fn func(media.Pipeline)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReceivePadReady = fn
}

// Connection returns the ICE connection backing this stream's transport,
// for a Call to feed transport-info candidates into.
func (s *CallStream) Connection() ice.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// close releases the stream's ICE connection and media pipelines.
func (s *CallStream) close() {
	s.mu.Lock()
	cancel := s.cancel
	conn := s.conn
	send := s.send
	recv := s.recv
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if send != nil {
		_ = send.Close()
	}
	if recv != nil {
		_ = recv.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import (
	"context"
	"sync"
	"testing"

	"github.com/olesalscheider/jinglecall/ice"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/media"
)

// countingPipeline is a media.Pipeline double that records whether Start
// was called, so tests can tell eager encoder install apart from lazy
// decoder install.
type countingPipeline struct {
	mu      sync.Mutex
	started bool
}

func (p *countingPipeline) Start(ctx context.Context, codec string, payloadType uint8, clockRate uint32, ssrc uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}
func (p *countingPipeline) WritePacket(payload []byte) error { return nil }
func (p *countingPipeline) ReadPacket(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (p *countingPipeline) OnSSRCActive(fn media.SSRCActiveFunc) {}
func (p *countingPipeline) Close() error                        { return nil }

func (p *countingPipeline) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// TestLazyDecoderInstall checks that the encoder is installed
// eagerly on negotiation (OnSendPadReady fires immediately), while the
// decoder is only installed lazily, once the first inbound datagram
// arrives (OnReceivePadReady fires then, not before).
func TestLazyDecoderInstall(t *testing.T) {
	send := &countingPipeline{}
	recv := &countingPipeline{}
	conn := newFakeConn()
	stream := newCallStream("audio-1", "audio", jingle.Initiator, conn, send, recv)

	var sendReady, recvReady bool
	stream.OnSendPadReady(func(media.Pipeline) { sendReady = true })
	stream.OnReceivePadReady(func(media.Pipeline) { recvReady = true })

	opus := jingle.PayloadType{ID: 97, Name: "opus", ClockRate: 48000, Channels: 2}
	if err := stream.setPayloadTypes(context.Background(), []jingle.PayloadType{opus}, opus); err != nil {
		t.Fatalf("setPayloadTypes: %v", err)
	}

	if !send.Started() {
		t.Error("expected send pipeline to be started eagerly on negotiation")
	}
	if !sendReady {
		t.Error("expected OnSendPadReady to fire on negotiation")
	}
	if recv.Started() {
		t.Error("expected receive pipeline not to be started before any inbound media")
	}
	if recvReady {
		t.Error("expected OnReceivePadReady not to fire before any inbound media")
	}

	stream.handleDatagram(ice.ComponentRTP, []byte{0x80, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 0})

	if !recv.Started() {
		t.Error("expected receive pipeline to be started lazily on first inbound datagram")
	}
	if !recvReady {
		t.Error("expected OnReceivePadReady to fire after first inbound datagram")
	}

	stream.close()
}

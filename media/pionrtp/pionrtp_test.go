// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pionrtp_test

import (
	"context"
	"testing"

	"github.com/olesalscheider/jinglecall/media"
	"github.com/olesalscheider/jinglecall/media/pionrtp"
)

func TestEnvironmentHasEncoderDecoder(t *testing.T) {
	env, err := pionrtp.NewEnvironment()
	if err != nil {
		t.Fatalf("NewEnvironment returned error: %v", err)
	}

	for _, name := range []string{"opus", "h264", "vp8", "pcmu"} {
		if !env.HasEncoder(name) {
			t.Errorf("expected HasEncoder(%q) to be true", name)
		}
		if !env.HasDecoder(name) {
			t.Errorf("expected HasDecoder(%q) to be true", name)
		}
	}

	if env.HasEncoder("nonexistent-codec") {
		t.Errorf("expected HasEncoder to reject an unknown codec name")
	}
}

func TestPipelineSendReceiveRoundTrip(t *testing.T) {
	ctx := context.Background()

	send := pionrtp.NewPipeline(media.Send)
	defer send.Close()
	if err := send.Start(ctx, "opus", 97, 48000, 0x1234); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	sample := []byte{1, 2, 3, 4}
	if err := send.Packetize(sample, 960); err != nil {
		t.Fatalf("Packetize returned error: %v", err)
	}

	pkt, err := send.ReadPacket(ctx)
	if err != nil {
		t.Fatalf("ReadPacket returned error: %v", err)
	}
	if len(pkt) == 0 {
		t.Fatal("expected a non-empty RTP packet")
	}

	recv := pionrtp.NewPipeline(media.Receive)
	defer recv.Close()

	var activeSSRC uint32
	recv.OnSSRCActive(func(ssrc uint32) { activeSSRC = ssrc })

	if err := recv.WritePacket(pkt); err != nil {
		t.Fatalf("WritePacket returned error: %v", err)
	}
	if activeSSRC != 0x1234 {
		t.Errorf("OnSSRCActive fired with ssrc %#x, want %#x", activeSSRC, 0x1234)
	}
}

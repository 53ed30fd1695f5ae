// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package codec_test

import (
	"testing"

	"github.com/olesalscheider/jinglecall/codec"
)

// fakeEnv implements media.Environment with a fixed set of supported
// codec names, standing in for a probed GStreamer/pion registry.
type fakeEnv struct {
	supported map[string]bool
}

func (f fakeEnv) HasEncoder(name string) bool { return f.supported[name] }
func (f fakeEnv) HasDecoder(name string) bool { return f.supported[name] }

func TestNewRegistryFiltersUnsupported(t *testing.T) {
	env := fakeEnv{supported: map[string]bool{"opus": true, "vp8": true}}
	reg := codec.NewRegistry(env)

	audio := reg.PayloadTypes(codec.Audio)
	if len(audio) != 2 {
		t.Fatalf("expected 2 opus entries (stereo+mono), got %d: %+v", len(audio), audio)
	}
	for _, pt := range audio {
		if pt.Name != "opus" {
			t.Errorf("expected only opus entries, got %+v", pt)
		}
	}

	video := reg.PayloadTypes(codec.Video)
	if len(video) != 1 || video[0].Name != "VP8" {
		t.Errorf("expected only VP8, got %+v", video)
	}
}

func TestNewRegistryDisabledByDefault(t *testing.T) {
	env := fakeEnv{supported: map[string]bool{"vp9": true}}

	reg := codec.NewRegistry(env)
	if len(reg.PayloadTypes(codec.Video)) != 0 {
		t.Errorf("expected VP9 to stay disabled without being explicitly enabled")
	}

	reg = codec.NewRegistry(env, "vp9")
	video := reg.PayloadTypes(codec.Video)
	if len(video) != 1 || video[0].Name != "VP9" {
		t.Errorf("expected VP9 once enabled, got %+v", video)
	}
}

func TestRegistryEmpty(t *testing.T) {
	reg := codec.NewRegistry(fakeEnv{supported: map[string]bool{}})
	if !reg.Empty() {
		t.Errorf("expected empty registry when environment supports nothing")
	}
}

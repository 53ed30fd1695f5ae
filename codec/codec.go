// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package codec holds the built-in catalog of audio and video codecs this
// core is willing to negotiate, and filters that catalog down to what a
// media.Environment can actually encode and decode.
package codec

import (
	"strings"

	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/media"
)

// Kind distinguishes audio from video entries in the registry.
type Kind string

// The two media kinds a Content's Description.Media attribute may hold.
const (
	Audio Kind = "audio"
	Video Kind = "video"
)

// Entry is one codec the registry knows how to offer, paired with the
// short name used to probe a media.Environment for encoder/decoder
// support. Name intentionally differs from PayloadType.Name in some
// cases (e.g. "h265" vs "H265") since the former is an internal lookup
// key and the latter is the wire format's codec name.
type Entry struct {
	Kind        Kind
	Name        string
	PayloadType jingle.PayloadType
	// DisabledByDefault entries (VP9, here) are kept in the full catalog
	// but excluded unless explicitly enabled, matching QXmpp shipping
	// VP9 support behind a flag.
	DisabledByDefault bool
}

// Defaults is the built-in codec catalog, in priority order: first match
// during negotiation wins when multiple local codecs could satisfy a
// remote offer. Audio payload type ids and names match RFC 3551's static
// assignments where they exist (PCMU=0, PCMA=8); video and Opus use the
// dynamic range as QXmppCall.cpp does.
var Defaults = []Entry{
	{Kind: Video, Name: "h265", PayloadType: jingle.PayloadType{ID: 101, Name: "H265", ClockRate: 90000, Channels: 1}},
	{Kind: Video, Name: "h264", PayloadType: jingle.PayloadType{ID: 99, Name: "H264", ClockRate: 90000, Channels: 1}},
	{Kind: Video, Name: "vp8", PayloadType: jingle.PayloadType{ID: 98, Name: "VP8", ClockRate: 90000, Channels: 1}},
	{Kind: Video, Name: "vp9", PayloadType: jingle.PayloadType{ID: 100, Name: "VP9", ClockRate: 90000, Channels: 1}, DisabledByDefault: true},

	{Kind: Audio, Name: "opus", PayloadType: jingle.PayloadType{ID: 97, Name: "opus", ClockRate: 48000, Channels: 2}},
	{Kind: Audio, Name: "opus", PayloadType: jingle.PayloadType{ID: 97, Name: "opus", ClockRate: 48000, Channels: 1}},
	{Kind: Audio, Name: "speex", PayloadType: jingle.PayloadType{ID: 96, Name: "speex", ClockRate: 48000, Channels: 1}},
	{Kind: Audio, Name: "speex", PayloadType: jingle.PayloadType{ID: 96, Name: "speex", ClockRate: 44100, Channels: 1}},
	{Kind: Audio, Name: "pcma", PayloadType: jingle.PayloadType{ID: 8, Name: "PCMA", ClockRate: 8000, Channels: 1}},
	{Kind: Audio, Name: "pcmu", PayloadType: jingle.PayloadType{ID: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}},
}

// Registry is a codec catalog filtered down to what a particular
// media.Environment can run, used to build the Description offered in a
// session-initiate or session-accept and to negotiate against a remote
// offer.
type Registry struct {
	entries []Entry
}

// NewRegistry filters Defaults (plus any DisabledByDefault entries named
// in enable) down to the codecs env has both an encoder and a decoder
// for, the Go analogue of QXmppCallPrivate's constructor probing
// GStreamer's registry for each candidate element.
func NewRegistry(env media.Environment, enable ...string) *Registry {
	enabled := make(map[string]bool, len(enable))
	for _, name := range enable {
		enabled[strings.ToLower(name)] = true
	}

	r := &Registry{}
	for _, e := range Defaults {
		if e.DisabledByDefault && !enabled[e.Name] {
			continue
		}
		if !env.HasEncoder(e.Name) || !env.HasDecoder(e.Name) {
			continue
		}
		r.entries = append(r.entries, e)
	}
	return r
}

// PayloadTypes returns the payload types of kind k this registry can
// offer, in priority order.
func (r *Registry) PayloadTypes(k Kind) []jingle.PayloadType {
	var out []jingle.PayloadType
	for _, e := range r.entries {
		if e.Kind == k {
			out = append(out, e.PayloadType)
		}
	}
	return out
}

// Empty reports whether the registry offers no codecs of any kind,
// which QXmppCallPrivate treats as "no usable media subsystem" and
// refuses to start a call over.
func (r *Registry) Empty() bool {
	return len(r.entries) == 0
}

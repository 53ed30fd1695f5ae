// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import "github.com/olesalscheider/jinglecall/jingle"

// negotiateContent runs the full content negotiation for one stream:
// walking the remote offer in order, matching each entry against the local
// codec list by the static/dynamic rule, and keeping every match (not just
// the first) in the stream's resulting payload list. The first match
// encountered becomes the encoder candidate; later matches may still be
// chosen by the sender, so they stay in the list even though this side
// only ever installs one encoder (QXmppCallPrivate::handleDescription is
// the reference: it erases unsupported entries from the remote offer but
// keeps every entry that matched, while only ever calling addEncoder once).
//
// When a dynamic remote entry matches, the returned payload type keeps the
// local name/clockrate/channels but adopts the remote id, so that packets
// this side sends carry the id the remote peer associates with that codec
// ("newPayload.setId(remotePayload.id())" in the reference). A static
// match is returned unchanged, keeping the local name: static ids already
// have a fixed, shared meaning (RFC 3551), and a cosmetic difference in
// how the peer spells the codec name must not leak into this side's
// offer.
//
// ok is false when nothing in the remote offer matched anything local,
// meaning this content has failed to negotiate.
func negotiateContent(local, remote []jingle.PayloadType) (matched []jingle.PayloadType, encoder jingle.PayloadType, ok bool) {
	for _, r := range remote {
		for _, l := range local {
			if !l.Matches(r) {
				continue
			}
			pt := l
			if r.IsDynamic() {
				pt.ID = r.ID
			}
			matched = append(matched, pt)
			if !ok {
				encoder = pt
				ok = true
			}
			break
		}
	}
	return matched, encoder, ok
}

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jinglecall implements the session-negotiation core of a Jingle
// (XEP-0166/0167/0176) peer-to-peer voice/video call: the CallManager
// tracks active sessions and routes inbound signaling to them, each Call
// runs the per-session state machine, and each CallStream negotiates and
// carries one RTP media stream. ICE connectivity, media capture and
// rendering, and the underlying XMPP connection are all external
// collaborators reached through the ice, media, and transport package
// interfaces.
package jinglecall

// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import (
	"context"
	"strconv"
	"time"

	"github.com/olesalscheider/jinglecall/codec"
	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/stanza"
)

// terminationTimeout is how long a session-terminate waits for the
// peer's ack before the session is finalized locally regardless
// (QXmppCallPrivate::terminate uses the same 5 second window).
const terminationTimeout = 5 * time.Second

// Call runs the state machine for a single Jingle session with one
// peer: accepting or placing the call, negotiating and tracking the
// streams it carries, and handling mid-session renegotiation and
// termination. A Call is created by a CallManager and is driven entirely
// from the single goroutine that calls its HandleIQ method (and, through
// its CallManager, the presence and disconnect handlers) and the
// accessors below: there is never more than one of
// these calls in flight at a time for a given Call, so the signaling
// path needs no locking of its own.
type Call struct {
	manager   *CallManager
	sid       string
	peer      jid.JID
	direction Direction
	state     CallState

	streams  map[string]*CallStream
	pending  *pendingSet
	watchdog *time.Timer

	onRinging       func()
	onConnected     func()
	onStateChanged  func(CallState)
	onFinished      func()
	onStreamCreated func(*CallStream)
}

func newCall(m *CallManager, sid string, peer jid.JID, dir Direction) *Call {
	return &Call{
		manager:   m,
		sid:       sid,
		peer:      peer,
		direction: dir,
		state:     StateConnecting,
		streams:   make(map[string]*CallStream),
		pending:   newPendingSet(),
	}
}

// JID returns the peer's full JID.
func (c *Call) JID() jid.JID { return c.peer }

// SID returns the session id.
func (c *Call) SID() string { return c.sid }

// State returns the call's current state.
func (c *Call) State() CallState { return c.state }

// Direction returns whether this side initiated the session.
func (c *Call) Direction() Direction { return c.direction }

// Stream returns the CallStream for the given content name, if any.
func (c *Call) Stream(name string) (*CallStream, bool) {
	s, ok := c.streams[name]
	return s, ok
}

// AudioStream returns the first audio content's stream, if the session
// has one.
func (c *Call) AudioStream() (*CallStream, bool) {
	return c.streamOfKind("audio")
}

// VideoStream returns the first video content's stream, if the session
// has one.
func (c *Call) VideoStream() (*CallStream, bool) {
	return c.streamOfKind("video")
}

func (c *Call) streamOfKind(kind string) (*CallStream, bool) {
	for _, s := range c.streams {
		if s.Kind() == kind {
			return s, true
		}
	}
	return nil, false
}

// OnRinging registers the callback invoked when the remote party sends
// a ringing session-info on an outgoing call.
func (c *Call) OnRinging(fn func()) { c.onRinging = fn }

// OnConnected registers the callback invoked when the call becomes
// Active: on an outgoing call once the peer's session-accept has given at
// least one stream a negotiated codec, on an incoming call right after
// Accept sends session-accept. Whether any ICE transport is connected is
// not checked.
func (c *Call) OnConnected(fn func()) { c.onConnected = fn }

// OnStateChanged registers the callback invoked on every state
// transition.
func (c *Call) OnStateChanged(fn func(CallState)) { c.onStateChanged = fn }

// OnFinished registers the callback invoked once the call has fully
// terminated and its resources are released.
func (c *Call) OnFinished(fn func()) { c.onFinished = fn }

// OnStreamCreated registers the callback invoked whenever a new
// CallStream is added to the session, whether from the initial offer or
// a later content-add.
func (c *Call) OnStreamCreated(fn func(*CallStream)) { c.onStreamCreated = fn }

// addStream registers a stream on the call and hooks its ICE events up
// to the signaling context.
func (c *Call) addStream(s *CallStream) {
	c.streams[s.Name()] = s
	c.watchStream(s)
	if c.onStreamCreated != nil {
		c.onStreamCreated(s)
	}
}

// watchStream subscribes to a stream's ICE events: newly gathered local
// candidates are trickled to the peer as transport-info, and a dropped
// connection terminates the session. Both callbacks arrive on the ICE
// implementation's own goroutines and are posted back onto the signaling
// context before touching any Call state.
func (c *Call) watchStream(s *CallStream) {
	conn := s.Connection()
	if conn == nil {
		return
	}
	name := s.Name()
	conn.OnLocalCandidatesChanged(func(cands []jingle.Candidate) {
		c.manager.dispatch(func() { c.sendTransportInfo(name, cands) })
	})
	conn.OnDisconnected(func() {
		c.manager.dispatch(func() {
			if c.state == StateFinished || c.state == StateDisconnecting {
				return
			}
			c.manager.logger.Warnf("session %s: %s: content %q", c.sid, TransportGone, name)
			_ = c.terminate(jingle.ReasonTimeout, "")
		})
	})
}

// sendTransportInfo trickles newly gathered local candidates for one
// content to the peer.
func (c *Call) sendTransportInfo(name string, cands []jingle.Candidate) {
	if c.state == StateFinished || c.state == StateDisconnecting {
		return
	}
	stream, ok := c.streams[name]
	if !ok {
		return
	}
	conn := stream.Connection()
	if conn == nil || len(cands) == 0 {
		return
	}
	iq := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.TransportInfo, c.sid)
	iq.Jingle.Contents = []jingle.Content{{
		Creator: stream.Creator(),
		Name:    name,
		Transport: jingle.Transport{
			User:       conn.LocalUser(),
			Password:   conn.LocalPassword(),
			Candidates: cands,
		},
	}}
	_ = c.sendRequest(iq, "transport-info", name)
}

func (c *Call) setState(s CallState) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onStateChanged != nil {
		c.onStateChanged(s)
	}
}

// Accept accepts an incoming call by sending session-accept with every
// content this side has built a stream for. It is only valid to call
// while the session is Incoming and still Connecting, and like every
// other Call method must be called from the signaling context (see
// CallManager's doc comment).
func (c *Call) Accept() error {
	if c.direction != Incoming || c.state != StateConnecting {
		return &Error{Kind: ProtocolMisuse, Session: c.sid}
	}

	iq := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.SessionAccept, c.sid)
	initiator := c.peer
	responder := c.manager.localJID()
	iq.Jingle.InitiatorJID = &initiator
	iq.Jingle.ResponderJID = &responder
	for _, s := range c.streams {
		iq.Jingle.Contents = append(iq.Jingle.Contents, c.contentFor(s))
	}
	if err := c.sendRequest(iq, "session-accept", ""); err != nil {
		return err
	}

	c.setState(StateActive)
	if c.onConnected != nil {
		c.onConnected()
	}
	return nil
}

// Hangup terminates the call with a "success" reason and waits (in the
// background) for the peer to ack before releasing resources, falling
// back to releasing them anyway after the termination watchdog fires.
func (c *Call) Hangup() error {
	return c.terminate(jingle.ReasonSuccess, "")
}

// AddVideo adds a new video content to an already-active call
// (content-add), building a CallStream for it from the manager's codec
// registry and media/ICE adapters.
func (c *Call) AddVideo() error {
	if c.state != StateActive {
		return &Error{Kind: ProtocolMisuse, Session: c.sid}
	}
	if _, exists := c.streamOfKind("video"); exists {
		return nil
	}

	name := videoContentName
	stream, err := c.manager.buildStream(name, "video", c.direction.creator(), c.direction == Outgoing)
	if err != nil {
		return err
	}
	c.addStream(stream)

	iq := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.ContentAdd, c.sid)
	iq.Jingle.Contents = []jingle.Content{c.contentFor(stream)}
	return c.sendRequest(iq, "content-add", name)
}

func (d Direction) creator() jingle.Creator {
	if d == Outgoing {
		return jingle.Initiator
	}
	return jingle.Responder
}

// contentFor builds the wire Content for a stream this side owns,
// including its current codec offer/accept and ICE transport state.
func (c *Call) contentFor(s *CallStream) jingle.Content {
	content := jingle.Content{
		Creator: s.Creator(),
		Name:    s.Name(),
		Senders: s.senders,
		Description: jingle.Description{
			Media: s.Kind(),
		},
	}
	content.Description.SSRC = strconv.FormatUint(uint64(s.LocalSSRC()), 10)
	if pt, negotiated := s.PayloadTypes(); negotiated {
		content.Description.PayloadTypes = pt
	} else if reg := c.manager.registryFor(s.Kind()); reg != nil {
		content.Description.PayloadTypes = reg.PayloadTypes(codecKind(s.Kind()))
	}
	if conn := s.Connection(); conn != nil {
		content.Transport = jingle.Transport{
			User:       conn.LocalUser(),
			Password:   conn.LocalPassword(),
			Candidates: conn.LocalCandidates(),
		}
	}
	return content
}

func codecKind(mediaKind string) codec.Kind {
	if mediaKind == "video" {
		return codec.Video
	}
	return codec.Audio
}

// HandleIQ dispatches an inbound Jingle IQ: an ack of a previous request,
// or a new request to act on. Acks are sent for every inbound set-type
// request before the corresponding handler runs, so that a slow or
// erroring handler never delays protocol compliance.
func (c *Call) HandleIQ(iq jingle.IQ) {
	if iq.Type == stanza.ResultIQ || iq.Type == stanza.ErrorIQ {
		c.handleAck(iq)
		return
	}

	c.manager.sendAck(iq)
	c.handleRequest(iq)
}

func (c *Call) handleAck(iq jingle.IQ) {
	req, ok := c.pending.take(iq.ID)
	if !ok {
		return
	}
	switch req.action {
	case "session-terminate":
		c.finalize()
	case "session-initiate", "session-accept", "content-add", "transport-info", "session-info", "content-accept", "content-reject":
		// No further action: these are fire-and-forget from this side's
		// perspective once acked.
	}
}

func (c *Call) handleRequest(iq jingle.IQ) {
	switch iq.Jingle.Action {
	case jingle.SessionAccept:
		c.handleSessionAccept(iq)
	case jingle.SessionInfo:
		c.handleSessionInfo(iq)
	case jingle.SessionTerminate:
		c.handleSessionTerminate(iq)
	case jingle.ContentAccept:
		c.handleContentAccept(iq)
	case jingle.ContentAdd:
		c.handleContentAdd(iq)
	case jingle.ContentReject:
		c.handleContentReject(iq)
	case jingle.TransportInfo:
		c.handleTransportInfo(iq)
	default:
		c.manager.logger.Warnf("session %s: ignoring unsupported action %q", c.sid, iq.Jingle.Action)
	}
}

func (c *Call) handleSessionAccept(iq jingle.IQ) {
	if c.direction != Outgoing || c.state != StateConnecting {
		c.manager.logger.Warnf("session %s: %s: unexpected session-accept in state %s", c.sid, ProtocolMisuse, c.state)
		return
	}
	for _, content := range iq.Jingle.Contents {
		stream, ok := c.streams[content.Name]
		if !ok {
			continue
		}
		c.applyRemoteTransport(stream, content)
		if !c.negotiateOne(stream, content.Description.PayloadTypes) {
			_ = c.terminate(jingle.ReasonFailedApplication, "")
			return
		}
	}
	c.maybeMarkActive()
}

func (c *Call) handleSessionInfo(iq jingle.IQ) {
	ringing := iq.Jingle.Ringing != nil ||
		(len(iq.Jingle.Contents) == 0 && iq.Jingle.Reason == nil)
	if ringing && c.direction == Outgoing && c.state == StateConnecting && c.onRinging != nil {
		c.onRinging()
	}
}

func (c *Call) handleSessionTerminate(iq jingle.IQ) {
	reason := jingle.ReasonGeneralError
	if iq.Jingle.Reason != nil {
		reason = iq.Jingle.Reason.Condition
	}
	c.manager.logger.Infof("session %s: terminated by peer: %s", c.sid, reason)
	c.finalize()
}

func (c *Call) handleContentAccept(iq jingle.IQ) {
	if c.state != StateActive {
		c.manager.logger.Warnf("session %s: ignoring content-accept in state %s", c.sid, c.state)
		return
	}
	for _, content := range iq.Jingle.Contents {
		stream, ok := c.streams[content.Name]
		if !ok {
			continue
		}
		c.applyRemoteTransport(stream, content)
		// A failure here is already logged by negotiateOne; the content
		// stays, unusable, and the session carries on over its other
		// streams rather than terminating.
		c.negotiateOne(stream, content.Description.PayloadTypes)
	}
}

func (c *Call) handleContentAdd(iq jingle.IQ) {
	if c.state != StateActive {
		c.manager.logger.Warnf("session %s: ignoring content-add in state %s", c.sid, c.state)
		return
	}
	for _, content := range iq.Jingle.Contents {
		if _, exists := c.streams[content.Name]; exists {
			continue
		}
		stream, err := c.manager.buildStream(content.Name, content.Description.Media, c.remoteCreator(content), c.direction == Outgoing)
		if err != nil {
			c.manager.logger.Warnf("session %s: building stream for content-add %q: %v", c.sid, content.Name, err)
			continue
		}
		c.addStream(stream)
		c.applyRemoteTransport(stream, content)

		// Negotiate before responding: only send content-accept once the
		// description and transport have validated, and send
		// content-reject on failure, never both (QXmppCall.cpp's
		// handleContentAdd does handleDescription/handleTransport first,
		// then replies with exactly one of the two).
		if !c.negotiateOne(stream, content.Description.PayloadTypes) {
			c.rejectContent(content.Name, jingle.ReasonFailedApplication)
			continue
		}

		accept := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.ContentAccept, c.sid)
		accept.Jingle.Contents = []jingle.Content{c.contentFor(stream)}
		_ = c.sendRequest(accept, "content-accept", content.Name)
	}
}

// remoteCreator resolves the creator role for a content the peer added:
// the content's own creator attribute when present, otherwise the peer's
// session role.
func (c *Call) remoteCreator(content jingle.Content) jingle.Creator {
	if content.Creator != "" {
		return content.Creator
	}
	if c.direction == Incoming {
		return jingle.Initiator
	}
	return jingle.Responder
}

func (c *Call) handleContentReject(iq jingle.IQ) {
	for _, content := range iq.Jingle.Contents {
		if s, ok := c.streams[content.Name]; ok {
			s.close()
			delete(c.streams, content.Name)
		}
	}
}

func (c *Call) handleTransportInfo(iq jingle.IQ) {
	for _, content := range iq.Jingle.Contents {
		stream, ok := c.streams[content.Name]
		if !ok {
			continue
		}
		c.applyRemoteTransport(stream, content)
	}
}

func (c *Call) applyRemoteTransport(stream *CallStream, content jingle.Content) {
	conn := stream.Connection()
	if conn == nil {
		return
	}
	if content.Transport.User != "" {
		conn.SetRemoteUser(content.Transport.User)
	}
	if content.Transport.Password != "" {
		conn.SetRemotePassword(content.Transport.Password)
	}
	for _, cand := range content.Transport.Candidates {
		if err := conn.AddRemoteCandidate(cand); err != nil {
			c.manager.logger.Warnf("session %s: adding remote candidate for %q: %v", c.sid, stream.Name(), err)
		}
	}
	if len(content.Transport.Candidates) > 0 {
		if err := conn.ConnectToHost(); err != nil {
			c.manager.logger.Warnf("session %s: connecting %q: %v", c.sid, stream.Name(), err)
		}
	}
}

// negotiateOne runs payload-type negotiation for one stream against a
// remote offer, installing the negotiated codec on success. It only
// reports and logs the outcome; what to do about a failure (terminate,
// content-reject, or nothing) is the handler's decision, since the right
// answer differs per action.
func (c *Call) negotiateOne(stream *CallStream, remotePT []jingle.PayloadType) bool {
	reg := c.manager.registryFor(stream.Kind())
	if reg == nil {
		c.manager.logger.Warnf("session %s: %s: no codec registry for %s", c.sid, MediaSubsystemMissing, stream.Kind())
		return false
	}
	local := reg.PayloadTypes(codecKind(stream.Kind()))
	matched, encoder, ok := negotiateContent(local, remotePT)
	if !ok {
		c.manager.logger.Warnf("session %s: %s for content %q", c.sid, NegotiationFailed, stream.Name())
		return false
	}
	if err := stream.setPayloadTypes(context.Background(), matched, encoder); err != nil {
		c.manager.logger.Warnf("session %s: starting media for content %q: %v", c.sid, stream.Name(), err)
		return false
	}
	return true
}

func (c *Call) rejectContent(name string, reason jingle.Condition) {
	if s, ok := c.streams[name]; ok {
		s.close()
		delete(c.streams, name)
	}
	if len(c.streams) == 0 {
		_ = c.terminate(reason, name)
		return
	}
	iq := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.ContentReject, c.sid)
	iq.Jingle.Contents = []jingle.Content{{Name: name}}
	iq.Jingle.Reason = &jingle.Reason{Condition: reason}
	_ = c.sendRequest(iq, "content-reject", name)
}

// maybeMarkActive moves a connecting call to Active once at least one
// stream has a negotiated codec. One is enough: a responder accepting a
// multi-content offer may answer only the first content, with the rest
// renegotiated later via content-add.
func (c *Call) maybeMarkActive() {
	if c.state != StateConnecting {
		return
	}
	for _, s := range c.streams {
		if _, negotiated := s.PayloadType(); negotiated {
			c.setState(StateActive)
			if c.onConnected != nil {
				c.onConnected()
			}
			return
		}
	}
}

// terminate sends session-terminate with the given reason and arms the
// termination watchdog; it is also used internally for negotiation and
// transport failures, not just explicit hangups.
func (c *Call) terminate(reason jingle.Condition, text string) error {
	if c.state == StateFinished || c.state == StateDisconnecting {
		return nil
	}

	// The session-terminate is enqueued before the state moves to
	// Disconnecting, so the transition can never suppress it.
	iq := jingle.NewIQ(c.manager.nextID(), c.peer, c.manager.localJID(), jingle.SessionTerminate, c.sid)
	iq.Jingle.Reason = &jingle.Reason{Condition: reason, Text: text}
	err := c.sendRequest(iq, "session-terminate", "")

	// A transport that delivers synchronously (transport.Memory does) can
	// loop the peer's ack back before sendRequest even returns, in which
	// case the call is already finalized and arming a watchdog would
	// transition it back out of Finished.
	if c.state == StateFinished {
		return err
	}
	c.setState(StateDisconnecting)

	// time.AfterFunc runs its callback on a fresh goroutine; it is
	// funneled through CallManager.dispatch (Config.Post) back onto the
	// signaling context before touching any Call state, rather than
	// mutating c.state/c.streams/c.pending directly from the timer's own
	// goroutine, the same 5 second QTimer::singleShot watchdog
	// QXmppCallPrivate::terminate arms, but posted instead of run inline.
	c.watchdog = time.AfterFunc(terminationTimeout, func() {
		c.manager.dispatch(func() {
			if c.state != StateFinished {
				c.manager.logger.Warnf("session %s: %s", c.sid, TerminationTimeout)
				c.finalize()
			}
		})
	})

	return err
}

// finalizeGone is called by the CallManager when the transport reports
// the peer is gone (disconnected or presence unavailable). This still
// goes through terminate with reason Gone, passing through
// Disconnecting on its way to Finished rather than jumping there
// directly: the session-terminate is sent best-effort (it may never be
// delivered, since the peer is the one that's gone), and the 5 second
// watchdog reaches Finished regardless of whether an ack ever arrives.
func (c *Call) finalizeGone() {
	if c.state == StateFinished {
		return
	}
	c.manager.logger.Infof("session %s: peer transport gone", c.sid)
	_ = c.terminate(jingle.ReasonGone, "")
}

func (c *Call) finalize() {
	if c.state == StateFinished {
		return
	}
	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	for _, s := range c.streams {
		s.close()
	}
	c.setState(StateFinished)
	c.manager.removeCall(c.sid, c.direction)
	if c.onFinished != nil {
		c.onFinished()
	}
}

func (c *Call) sendRequest(iq jingle.IQ, action, content string) error {
	c.pending.add(pendingRequest{id: iq.ID, action: action, content: content, sentAt: time.Now()})
	return c.manager.transport.SendIQ(iq)
}


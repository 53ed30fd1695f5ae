// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import (
	"context"
	"fmt"
	"sync"

	"github.com/olesalscheider/jinglecall/codec"
	"github.com/olesalscheider/jinglecall/ice"
	"github.com/olesalscheider/jinglecall/internal/attr"
	"github.com/olesalscheider/jinglecall/jid"
	"github.com/olesalscheider/jinglecall/jingle"
	"github.com/olesalscheider/jinglecall/media"
	"github.com/olesalscheider/jinglecall/stanza"
	"github.com/olesalscheider/jinglecall/transport"
)

// ConnectionFactory builds a fresh ice.Connection for one content.
type ConnectionFactory func() ice.Connection

// PipelineFactory builds a fresh media.Pipeline for one direction of one
// content.
type PipelineFactory func(dir media.Direction) media.Pipeline

// Config holds everything a CallManager needs beyond the Transport it
// runs over: the media environment to build codec registries from, and
// the factories used to construct each content's ICE connection and
// media pipelines. All fields except Transport and Environment are
// optional.
type Config struct {
	Transport     transport.Transport
	Environment   media.Environment
	NewConnection ConnectionFactory
	NewPipeline   PipelineFactory
	Logger        Logger

	StunServer   string
	StunPort     uint16
	TurnServer   string
	TurnPort     uint16
	TurnUser     string
	TurnPassword string

	// EnableCodecs names DisabledByDefault codec entries (e.g. "vp9") to
	// include anyway.
	EnableCodecs []string

	// Post, if set, is used to run work that originates off the
	// signaling context — the termination watchdog's timeout callback
	// and each stream's ICE candidate/disconnect events — back on it,
	// the same way pion's RTCPeerConnection
	// funnels callbacks that arrive off its owning goroutine through its
	// own backgroundActions channel instead of touching state directly.
	// A host application wires this to whatever already serializes calls
	// into CallManager/Call (an event loop, a single worker goroutine
	// reading a channel, ...). If nil, the callback runs inline on the
	// timer's own goroutine, matching this package's single-threaded
	// contract only if nothing else ever calls into this CallManager
	// concurrently with it.
	Post func(func())
}

// CallManager tracks every active Call for one XMPP connection, routes
// inbound Jingle IQs and presence to the right one, and is the factory
// for placing outgoing calls (QXmppCallManager is the reference).
//
// Like QXmppCallManager on Qt's single-threaded event loop, a
// CallManager and every Call it owns are only safe to use from a single
// "signaling context": the goroutine that invokes the Transport's OnIQ,
// OnPresence and OnDisconnected callbacks must be the same goroutine
// that calls CallManager.Call and the Accept/Hangup/AddVideo methods on
// its Calls. Given that, nothing in this package needs its own locking;
// the small mutex below only protects the calls map for the
// read-only Calls accessor, which is documented as safe to call from
// any goroutine for introspection/diagnostics.
type CallManager struct {
	transport   transport.Transport
	env         media.Environment
	newConn     ConnectionFactory
	newPipeline PipelineFactory
	logger      Logger
	post        func(func())

	stunServer, turnServer string
	stunPort, turnPort     uint16
	turnUser, turnPassword string
	enableCodecs           []string

	audioRegistry *codec.Registry
	videoRegistry *codec.Registry

	mu    sync.Mutex
	calls map[callKey]*Call

	onIncomingCall func(*Call)
	onCallStarted  func(*Call)
}

// OnIncomingCall registers the callback invoked whenever a session-initiate
// is accepted from a peer, after ringing has been sent. The callback is
// responsible for deciding whether to Accept or Hangup the call (or to
// leave it ringing, to be decided later by the host application).
func (m *CallManager) OnIncomingCall(fn func(*Call)) {
	m.onIncomingCall = fn
}

// OnCallStarted registers the callback invoked right after an outgoing
// Call has been registered, before its session-initiate is sent.
func (m *CallManager) OnCallStarted(fn func(*Call)) {
	m.onCallStarted = fn
}

// SetStunServer configures the STUN server new CallStreams' ICE
// connections are pointed at. It only affects calls placed or accepted
// after it is called (QXmppCallManager::setStunServer is the reference).
func (m *CallManager) SetStunServer(host string, port uint16) {
	m.stunServer, m.stunPort = host, port
}

// SetTurnServer configures the TURN relay host and port new CallStreams'
// ICE connections are given.
func (m *CallManager) SetTurnServer(host string, port uint16) {
	m.turnServer, m.turnPort = host, port
}

// SetTurnUser configures the TURN relay username used by new
// CallStreams' ICE connections.
func (m *CallManager) SetTurnUser(user string) {
	m.turnUser = user
}

// SetTurnPassword configures the TURN relay credential used by new
// CallStreams' ICE connections.
func (m *CallManager) SetTurnPassword(password string) {
	m.turnPassword = password
}

type callKey struct {
	sid string
	dir Direction
}

// NewManager constructs a CallManager wired to cfg.Transport, building
// its codec registries from cfg.Environment and registering handlers on
// the transport for inbound IQs, presence, and disconnection.
func NewManager(cfg Config) *CallManager {
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	m := &CallManager{
		transport:    cfg.Transport,
		env:          cfg.Environment,
		newConn:      cfg.NewConnection,
		newPipeline:  cfg.NewPipeline,
		logger:       logger,
		post:         cfg.Post,
		stunServer:   cfg.StunServer,
		stunPort:     cfg.StunPort,
		turnServer:   cfg.TurnServer,
		turnPort:     cfg.TurnPort,
		turnUser:     cfg.TurnUser,
		turnPassword: cfg.TurnPassword,
		enableCodecs: cfg.EnableCodecs,
		calls:        make(map[callKey]*Call),
	}

	if cfg.Environment != nil {
		m.audioRegistry = codec.NewRegistry(cfg.Environment, cfg.EnableCodecs...)
		m.videoRegistry = codec.NewRegistry(cfg.Environment, cfg.EnableCodecs...)
	}

	if cfg.Transport != nil {
		cfg.Transport.OnIQ(m.handleIQ)
		cfg.Transport.OnPresence(m.handlePresence)
		cfg.Transport.OnDisconnected(m.handleDisconnected)
	}

	return m
}

// DiscoveryFeatures returns the service-discovery features a host
// application should advertise to let peers know calls can be
// negotiated with it.
func (m *CallManager) DiscoveryFeatures() []string {
	return jingle.DiscoveryFeatures()
}

func (m *CallManager) localJID() jid.JID {
	return m.transport.LocalJID()
}

func (m *CallManager) nextID() string {
	return attr.RandomID()
}

// dispatch runs fn on the signaling context via Config.Post if one was
// supplied, or inline otherwise. Every Call uses this to get its
// termination watchdog's timeout and its streams' ICE events back onto
// the signaling context instead of mutating Call state from the timer's
// or the ICE implementation's own goroutines.
func (m *CallManager) dispatch(fn func()) {
	if m.post != nil {
		m.post(fn)
		return
	}
	fn()
}

// The content names this side uses for the streams it creates, matching
// QXmppCallManager's AUDIO_NAME/VIDEO_NAME wire constants.
const (
	audioContentName = "microphone"
	videoContentName = "webcam"
)

func (m *CallManager) registryFor(kind string) *codec.Registry {
	if kind == "video" {
		return m.videoRegistry
	}
	return m.audioRegistry
}

// buildStream constructs a CallStream for a content, wiring up a fresh
// ICE connection (configured with this manager's STUN/TURN settings) and
// send/receive media pipelines from the configured factories. controlling
// is the session role: the side that initiated the session is the
// controlling ICE agent for every content, including ones the responder
// created via content-add.
func (m *CallManager) buildStream(name, kind string, creator jingle.Creator, controlling bool) (*CallStream, error) {
	if m.newConn == nil {
		return nil, &Error{Kind: MediaSubsystemMissing, Session: name, Err: fmt.Errorf("no ICE connection factory configured")}
	}

	// Servers and role are configured before any component is added:
	// adding a component starts candidate gathering, which has to know
	// its STUN/TURN servers up front.
	conn := m.newConn()
	conn.SetIceControlling(controlling)
	if m.stunServer != "" {
		conn.SetStunServer(m.stunServer, m.stunPort)
	}
	if m.turnServer != "" {
		conn.SetTurnServer(m.turnServer, m.turnPort)
		conn.SetTurnUser(m.turnUser)
		conn.SetTurnPassword(m.turnPassword)
	}
	if err := conn.AddComponent(ice.ComponentRTP); err != nil {
		return nil, err
	}
	if err := conn.AddComponent(ice.ComponentRTCP); err != nil {
		return nil, err
	}

	var send, recv media.Pipeline
	if m.newPipeline != nil {
		send = m.newPipeline(media.Send)
		recv = m.newPipeline(media.Receive)
	}

	return newCallStream(name, kind, creator, conn, send, recv), nil
}

// Call places an outgoing call to peer, offering an audio content (and a
// video content too, if withVideo is set). It mirrors
// QXmppCallManager::call's validation: an empty or self JID is rejected
// outright rather than silently producing a session nobody can answer.
func (m *CallManager) Call(peer jid.JID, withVideo bool) (*Call, error) {
	if peer.IsZero() {
		return nil, fmt.Errorf("jinglecall: cannot call an empty JID")
	}
	if peer.Bare().Equal(m.localJID().Bare()) {
		return nil, fmt.Errorf("jinglecall: refusing to call own JID %v", peer)
	}

	sid := attr.RandomID()
	call := newCall(m, sid, peer, Outgoing)

	audio, err := m.buildStream(audioContentName, "audio", jingle.Initiator, true)
	if err != nil {
		return nil, err
	}
	call.addStream(audio)

	if withVideo {
		video, err := m.buildStream(videoContentName, "video", jingle.Initiator, true)
		if err != nil {
			return nil, err
		}
		call.addStream(video)
	}

	m.mu.Lock()
	m.calls[callKey{sid: sid, dir: Outgoing}] = call
	m.mu.Unlock()

	if m.onCallStarted != nil {
		m.onCallStarted(call)
	}

	iq := jingle.NewIQ(m.nextID(), peer, m.localJID(), jingle.SessionInitiate, sid)
	initiator := m.localJID()
	iq.Jingle.InitiatorJID = &initiator
	for _, s := range call.streams {
		iq.Jingle.Contents = append(iq.Jingle.Contents, call.contentFor(s))
	}
	if err := call.sendRequest(iq, "session-initiate", ""); err != nil {
		m.removeCall(sid, Outgoing)
		return nil, err
	}

	return call, nil
}

func (m *CallManager) removeCall(sid string, dir Direction) {
	m.mu.Lock()
	delete(m.calls, callKey{sid: sid, dir: dir})
	m.mu.Unlock()
}

// Calls returns every call currently tracked, for a host application
// that needs to enumerate active sessions (e.g. to hang them all up on
// shutdown).
func (m *CallManager) Calls() []*Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Call, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c)
	}
	return out
}

func (m *CallManager) sendAck(iq jingle.IQ) {
	_ = m.transport.SendIQ(jingle.IQ{IQ: iq.IQ.Result()})
}

func (m *CallManager) handleIQ(iq jingle.IQ) {
	if iq.Type == stanza.ResultIQ || iq.Type == stanza.ErrorIQ {
		// Acks carry no jingle payload, so there is no session id to
		// route by; they are broadcast to every call and matched against
		// each one's pending requests by stanza id.
		for _, call := range m.Calls() {
			call.HandleIQ(iq)
		}
		return
	}

	if iq.Jingle.Action == jingle.SessionInitiate {
		m.handleSessionInitiate(iq)
		return
	}

	m.mu.Lock()
	call, ok := m.calls[callKey{sid: iq.Jingle.SID, dir: Outgoing}]
	if !ok {
		call, ok = m.calls[callKey{sid: iq.Jingle.SID, dir: Incoming}]
	}
	m.mu.Unlock()

	if !ok {
		m.sendAck(iq)
		m.logger.Warnf("%s: sid %q", UnknownSession, iq.Jingle.SID)
		return
	}
	call.HandleIQ(iq)
}

// handleSessionInitiate builds a Call and its one initial CallStream from
// the first content of an inbound session-initiate (QXmppCallManager
// only ever looks at iq.contents().first(); a session carries more
// contents only via later content-add), acks, registers the call, then
// runs description and transport negotiation against that content
// exactly as the reference's _q_jingleIqReceived does; on failure it
// sends session-terminate (failed-application) instead of reporting the
// call to the application, mirroring QXmppCallManager::terminate(...,
// QXmppJingleIq::Reason::FailedApplication) on the same path.
func (m *CallManager) handleSessionInitiate(iq jingle.IQ) {
	m.sendAck(iq)

	m.mu.Lock()
	_, exists := m.calls[callKey{sid: iq.Jingle.SID, dir: Incoming}]
	m.mu.Unlock()
	if exists {
		m.logger.Warnf("%s: duplicate session-initiate for sid %q", ProtocolMisuse, iq.Jingle.SID)
		return
	}

	if len(iq.Jingle.Contents) == 0 {
		m.logger.Warnf("%s: session %s offered no content", MediaSubsystemMissing, iq.Jingle.SID)
		return
	}
	content := iq.Jingle.Contents[0]

	call := newCall(m, iq.Jingle.SID, iq.From, Incoming)

	// The call is registered before negotiation runs so that, on
	// failure, the session-terminate it sends below is a tracked
	// outbound request its peer's ack can be routed back to, the same
	// as any other termination.
	m.mu.Lock()
	m.calls[callKey{sid: call.sid, dir: Incoming}] = call
	m.mu.Unlock()

	stream, err := m.buildStream(content.Name, content.Description.Media, call.remoteCreator(content), false)
	if err != nil {
		m.logger.Warnf("session %s: building stream for %q: %v", iq.Jingle.SID, content.Name, err)
		_ = call.terminate(jingle.ReasonFailedApplication, "")
		return
	}
	call.addStream(stream)
	call.applyRemoteTransport(stream, content)

	reg := m.registryFor(stream.Kind())
	if reg == nil || reg.Empty() {
		m.logger.Warnf("%s: session %s has no codecs configured for %s", MediaSubsystemMissing, iq.Jingle.SID, stream.Kind())
		_ = call.terminate(jingle.ReasonFailedApplication, "")
		return
	}
	local := reg.PayloadTypes(codecKind(stream.Kind()))
	matched, encoder, ok := negotiateContent(local, content.Description.PayloadTypes)
	if !ok {
		m.logger.Warnf("%s: session %s: no common codec for %s", NegotiationFailed, iq.Jingle.SID, stream.Kind())
		_ = call.terminate(jingle.ReasonFailedApplication, "")
		return
	}
	if err := stream.setPayloadTypes(context.Background(), matched, encoder); err != nil {
		m.logger.Warnf("session %s: starting media for %q: %v", iq.Jingle.SID, content.Name, err)
		_ = call.terminate(jingle.ReasonFailedApplication, "")
		return
	}

	ringing := jingle.NewIQ(m.nextID(), call.peer, m.localJID(), jingle.SessionInfo, call.sid)
	ringing.Jingle.Ringing = &jingle.Ringing{}
	_ = call.sendRequest(ringing, "session-info", "")

	if m.onIncomingCall != nil {
		m.onIncomingCall(call)
	}
}

func (m *CallManager) handlePresence(p stanza.Presence) {
	if p.Type != stanza.UnavailablePresence {
		return
	}
	m.mu.Lock()
	var toTerminate []*Call
	for _, call := range m.calls {
		if call.peer.Equal(p.From) {
			toTerminate = append(toTerminate, call)
		}
	}
	m.mu.Unlock()

	for _, call := range toTerminate {
		call.finalizeGone()
	}
}

func (m *CallManager) handleDisconnected() {
	for _, call := range m.Calls() {
		call.finalizeGone()
	}
}


// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall

import "time"

// pendingRequest tracks one outbound Jingle IQ this side is waiting to
// have acked, so that an inbound result/error IQ can be matched back to
// the action that caused it (QXmppCallPrivate kept a parallel
// QList<QXmppJingleIq> of "requests" for the same reason).
type pendingRequest struct {
	id      string
	action  string
	content string
	sentAt  time.Time
}

// pendingSet is an insertion-ordered collection of pendingRequest,
// keyed by stanza id.
type pendingSet struct {
	order []string
	byID  map[string]pendingRequest
}

func newPendingSet() *pendingSet {
	return &pendingSet{byID: make(map[string]pendingRequest)}
}

func (s *pendingSet) add(req pendingRequest) {
	if _, exists := s.byID[req.id]; !exists {
		s.order = append(s.order, req.id)
	}
	s.byID[req.id] = req
}

// take removes and returns the pending request with the given id, if
// any is tracked.
func (s *pendingSet) take(id string) (pendingRequest, bool) {
	req, ok := s.byID[id]
	if !ok {
		return pendingRequest{}, false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return req, true
}

func (s *pendingSet) len() int { return len(s.order) }

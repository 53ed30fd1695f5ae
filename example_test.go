// Copyright 2026 The Jinglecall Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jinglecall_test

import (
	"fmt"
	"log"
	"os"
	"strings"

	jinglecall "github.com/olesalscheider/jinglecall"
)

// logAdapter satisfies jinglecall.Logger on top of the standard library's
// log.Logger, for a host application that already has one of those lying
// around rather than a dedicated structured logger.
type logAdapter struct {
	*log.Logger
}

func (l logAdapter) Infof(format string, args ...interface{}) {
	l.Printf("INFO "+format, args...)
}

func (l logAdapter) Warnf(format string, args ...interface{}) {
	l.Printf("WARN "+format, args...)
}

// ExampleCallManager_DiscoveryFeatures shows wiring a standard log.Logger
// into a CallManager and reading the service-discovery features a host
// application advertises so peers know calls can be negotiated with it.
func ExampleCallManager_DiscoveryFeatures() {
	logger := logAdapter{log.New(os.Stdout, "", 0)}

	m := jinglecall.NewManager(jinglecall.Config{Logger: logger})
	features := m.DiscoveryFeatures()
	fmt.Println(strings.Join(features, "\n"))
	// Output:
	// urn:xmpp:jingle:1
	// urn:xmpp:jingle:apps:rtp:1
	// urn:xmpp:jingle:apps:rtp:audio
	// urn:xmpp:jingle:apps:rtp:video
	// urn:xmpp:jingle:transports:ice-udp:1
}

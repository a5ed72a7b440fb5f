// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"io"
	"net"
	"sync"
	"time"
)

// dataChannelConn wraps a detached pion data channel ReadWriteCloser as a
// net.Conn, adapted from the daemon transport's connection wrapper: the
// underlying stream is SCTP-backed and already handles fragmentation and
// reassembly, so it behaves like a plain TCP connection to callers copying
// an instruction archive across it.
type dataChannelConn struct {
	rwc        io.ReadWriteCloser
	localLabel string
	peerLabel  string

	mu             sync.Mutex
	readTimer      *time.Timer
	writeTimer     *time.Timer
	deadlineClosed bool
}

var _ net.Conn = (*dataChannelConn)(nil)

func newDataChannelConn(rwc io.ReadWriteCloser, localLabel, peerLabel string) *dataChannelConn {
	return &dataChannelConn{rwc: rwc, localLabel: localLabel, peerLabel: peerLabel}
}

func (c *dataChannelConn) Read(buffer []byte) (int, error)  { return c.rwc.Read(buffer) }
func (c *dataChannelConn) Write(buffer []byte) (int, error) { return c.rwc.Write(buffer) }

func (c *dataChannelConn) Close() error {
	c.mu.Lock()
	c.stopTimersLocked()
	c.mu.Unlock()
	return c.rwc.Close()
}

func (c *dataChannelConn) LocalAddr() net.Addr  { return &dataChannelAddr{label: c.localLabel} }
func (c *dataChannelConn) RemoteAddr() net.Addr { return &dataChannelAddr{label: c.peerLabel} }

func (c *dataChannelConn) SetDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReadDeadlineLocked(deadline)
	c.setWriteDeadlineLocked(deadline)
	return nil
}

func (c *dataChannelConn) SetReadDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReadDeadlineLocked(deadline)
	return nil
}

func (c *dataChannelConn) SetWriteDeadline(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setWriteDeadlineLocked(deadline)
	return nil
}

func (c *dataChannelConn) setReadDeadlineLocked(deadline time.Time) {
	if c.readTimer != nil {
		c.readTimer.Stop()
		c.readTimer = nil
	}
	if deadline.IsZero() || c.deadlineClosed {
		return
	}
	duration := time.Until(deadline)
	if duration <= 0 {
		c.closeFromDeadline()
		return
	}
	c.readTimer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closeFromDeadline()
	})
}

func (c *dataChannelConn) setWriteDeadlineLocked(deadline time.Time) {
	if c.writeTimer != nil {
		c.writeTimer.Stop()
		c.writeTimer = nil
	}
	if deadline.IsZero() || c.deadlineClosed {
		return
	}
	duration := time.Until(deadline)
	if duration <= 0 {
		c.closeFromDeadline()
		return
	}
	c.writeTimer = time.AfterFunc(duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closeFromDeadline()
	})
}

func (c *dataChannelConn) closeFromDeadline() {
	if c.deadlineClosed {
		return
	}
	c.deadlineClosed = true
	c.rwc.Close()
}

func (c *dataChannelConn) stopTimersLocked() {
	if c.readTimer != nil {
		c.readTimer.Stop()
		c.readTimer = nil
	}
	if c.writeTimer != nil {
		c.writeTimer.Stop()
		c.writeTimer = nil
	}
}

type dataChannelAddr struct {
	label string
}

func (a *dataChannelAddr) Network() string { return "webrtc" }
func (a *dataChannelAddr) String() string  { return a.label }

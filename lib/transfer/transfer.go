// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package transfer is the optional peer-to-peer convenience behind
// "driftpack send"/"driftpack receive": a single WebRTC PeerConnection
// carrying one reliable, ordered data channel, signaled by the two
// operators pasting SDP offer/answer text between terminals rather
// than through a signaling server. It never participates in build or
// execute semantics; every core operation works identically with the
// instruction archive moved by scp, a USB stick, or this helper.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/driftpack/driftpack/lib/clock"
)

// channelLabel is the single data channel label used for the archive
// transfer stream.
const channelLabel = "instruction"

// iceGatherTimeout bounds how long ICE candidate gathering may take
// before the offer or answer is considered stuck. Signaling is
// vanilla ICE: every candidate is gathered locally before the SDP
// text is shown to the operator, so the pasted blob is self-contained
// and needs no further candidate exchange.
const iceGatherTimeout = 15 * time.Second

// dataChannelOpenTimeout bounds how long the data channel may take to
// reach the open state once the remote description is set.
const dataChannelOpenTimeout = 30 * time.Second

// Offer begins the sending side of a transfer: it creates a
// PeerConnection and a data channel, gathers ICE candidates, and
// returns the local SDP offer as text meant to be copied to the
// receiving operator. Complete finishes signaling once the operator
// has pasted back the remote SDP answer, returning a net.Conn over
// the data channel.
func Offer(ctx context.Context, logger *slog.Logger) (offerSDP string, complete func(answerSDP string) (net.Conn, error), err error) {
	return offer(ctx, logger, clock.Real())
}

// offer is Offer's implementation, parameterized over a clock so
// tests can exercise the ICE-gathering and data-channel-open timeout
// paths deterministically instead of waiting out real wall-clock
// delays.
func offer(ctx context.Context, logger *slog.Logger, clk clock.Clock) (offerSDP string, complete func(answerSDP string) (net.Conn, error), err error) {
	pc, err := newPeerConnection()
	if err != nil {
		return "", nil, fmt.Errorf("transfer: creating peer connection: %w", err)
	}

	established := make(chan net.Conn, 1)
	failed := make(chan error, 1)

	dc, err := pc.CreateDataChannel(channelLabel, nil)
	if err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: creating data channel: %w", err)
	}
	dc.OnOpen(func() {
		logger.Debug("data channel open", "label", dc.Label())
		rawChannel, detachErr := dc.Detach()
		if detachErr != nil {
			failed <- fmt.Errorf("transfer: detaching data channel: %w", detachErr)
			return
		}
		established <- newDataChannelConn(rawChannel, "sender", "receiver")
	})

	offerDesc, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: creating offer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offerDesc); err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: setting local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-clk.After(iceGatherTimeout):
		pc.Close()
		return "", nil, fmt.Errorf("transfer: ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		pc.Close()
		return "", nil, ctx.Err()
	}

	complete = func(answerSDP string) (net.Conn, error) {
		answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}
		if err := pc.SetRemoteDescription(answer); err != nil {
			pc.Close()
			return nil, fmt.Errorf("transfer: setting remote description: %w", err)
		}
		select {
		case conn := <-established:
			return conn, nil
		case err := <-failed:
			pc.Close()
			return nil, err
		case <-clk.After(dataChannelOpenTimeout):
			pc.Close()
			return nil, fmt.Errorf("transfer: data channel did not open within %s", dataChannelOpenTimeout)
		case <-ctx.Done():
			pc.Close()
			return nil, ctx.Err()
		}
	}

	return pc.LocalDescription().SDP, complete, nil
}

// Answer completes the receiving side of a transfer given the offer
// text pasted from the sending operator: it creates a PeerConnection,
// sets the remote offer, and returns the local SDP answer to paste
// back along with a net.Conn that becomes usable once the sender's
// data channel opens.
func Answer(ctx context.Context, logger *slog.Logger, offerSDP string) (answerSDP string, conn net.Conn, err error) {
	return answer(ctx, logger, offerSDP, clock.Real())
}

// answer is Answer's implementation, parameterized over a clock for
// the same reason as offer.
func answer(ctx context.Context, logger *slog.Logger, offerSDP string, clk clock.Clock) (answerSDP string, conn net.Conn, err error) {
	pc, err := newPeerConnection()
	if err != nil {
		return "", nil, fmt.Errorf("transfer: creating peer connection: %w", err)
	}

	established := make(chan net.Conn, 1)
	failed := make(chan error, 1)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		logger.Debug("inbound data channel", "label", dc.Label())
		dc.OnOpen(func() {
			rawChannel, detachErr := dc.Detach()
			if detachErr != nil {
				failed <- fmt.Errorf("transfer: detaching data channel: %w", detachErr)
				return
			}
			established <- newDataChannelConn(rawChannel, "receiver", "sender")
		})
	})

	offerDesc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offerDesc); err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: setting remote description: %w", err)
	}

	answerDesc, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: creating answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answerDesc); err != nil {
		pc.Close()
		return "", nil, fmt.Errorf("transfer: setting local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-clk.After(iceGatherTimeout):
		pc.Close()
		return "", nil, fmt.Errorf("transfer: ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		pc.Close()
		return "", nil, ctx.Err()
	}

	select {
	case conn = <-established:
	case err = <-failed:
		pc.Close()
		return "", nil, err
	case <-clk.After(dataChannelOpenTimeout):
		pc.Close()
		return "", nil, fmt.Errorf("transfer: data channel did not open within %s", dataChannelOpenTimeout)
	case <-ctx.Done():
		pc.Close()
		return "", nil, ctx.Err()
	}

	return pc.LocalDescription().SDP, conn, nil
}

// newPeerConnection builds a pion PeerConnection configured for a
// direct, signaling-server-free transfer: no ICE servers (a manually
// pasted SDP blob already carries every candidate, so STUN/TURN add
// nothing here), detached data channels for stream-oriented access,
// and loopback candidates included so a transfer between two
// processes on the same host (as in tests) still completes.
func newPeerConnection() (*webrtc.PeerConnection, error) {
	settingEngine := webrtc.SettingEngine{}
	settingEngine.DetachDataChannels()
	settingEngine.SetIncludeLoopbackCandidate(true)

	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))
	return api.NewPeerConnection(webrtc.Configuration{})
}

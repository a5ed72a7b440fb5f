// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftpack/driftpack/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOfferAnswerEstablishesDataChannel exercises the full manual
// signaling round-trip between two in-process peers, the same way two
// operators would paste offer/answer text between terminals, and
// verifies a size-prefixed file transfer across the resulting
// connection.
func TestOfferAnswerEstablishesDataChannel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := discardLogger()

	offerSDP, complete, err := Offer(ctx, logger)
	if err != nil {
		t.Fatalf("Offer() error: %v", err)
	}
	if offerSDP == "" {
		t.Fatal("Offer() returned empty SDP")
	}

	answerSDP, receiverConn, err := Answer(ctx, logger, offerSDP)
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if answerSDP == "" {
		t.Fatal("Answer() returned empty SDP")
	}
	defer receiverConn.Close()

	senderConn, err := complete(answerSDP)
	if err != nil {
		t.Fatalf("complete() error: %v", err)
	}
	defer senderConn.Close()

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "instruction.tar.zst")
	payload := []byte("fake instruction archive contents")
	if err := os.WriteFile(srcPath, payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- SendFile(senderConn, srcPath)
	}()

	destPath := filepath.Join(dir, "received.tar.zst")
	if err := ReceiveFile(receiverConn, destPath); err != nil {
		t.Fatalf("ReceiveFile() error: %v", err)
	}
	if err := testutil.RequireReceive(t, sendErr, 5*time.Second, "waiting for SendFile to finish"); err != nil {
		t.Fatalf("SendFile() error: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("received contents = %q, want %q", got, payload)
	}
}

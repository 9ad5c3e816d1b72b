/*
 * MIT License
 *
 * Copyright (c) 2026 The imago Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/protocol"
	"github.com/nabbar/imago/internal/transport"
)

// selfSignedCert builds a throwaway certificate good only for this test
// process; it exercises no filesystem path, unlike transport.ServerTLSConfig.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "imago-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}

func startListener(t *testing.T, l *Listener) {
	t.Helper()
	l.Ready = make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run() }()

	select {
	case <-l.Ready:
	case err := <-errCh:
		t.Fatalf("listener exited before binding: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never became ready")
	}

	t.Cleanup(func() {
		_ = l.Shutdown()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Shutdown")
		}
	})
}

// TestListenerPlainRoundTrip drives a real TCP dial through Listener against
// a plain (non-TLS) configuration, confirming the accept loop actually
// constructs a working Handler end to end.
func TestListenerPlainRoundTrip(t *testing.T) {
	enq := &fakeEnqueuer{}
	l := &Listener{Addr: "127.0.0.1:0", Sched: enq, Log: logger.Discard()}
	startListener(t, l)

	conn, err := net.DialTimeout("tcp", l.BoundAddr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cli := newTestClient(t, conn)
	cli.send(protocol.HELLO, "", nil)
	hdr, _, outcome := cli.recv()
	if outcome != transport.Ok || hdr.Type != protocol.ImageIDResponse {
		t.Fatalf("expected IMAGE_ID_RESPONSE, got %v outcome %v", hdr.Type, outcome)
	}
}

// TestListenerTLSHandshakeFailure drives scenario 6 from spec.md §8: a
// plain-TCP client speaking to a TLS-enabled Listener fails the handshake,
// and the connection is closed without ever reaching the handler.
func TestListenerTLSHandshakeFailure(t *testing.T) {
	cert, err := selfSignedCert()
	if err != nil {
		t.Fatalf("generate test cert: %v", err)
	}

	enq := &fakeEnqueuer{}
	l := &Listener{
		Addr:  "127.0.0.1:0",
		TLS:   &tls.Config{Certificates: []tls.Certificate{cert}},
		Sched: enq,
		Log:   logger.Discard(),
	}
	startListener(t, l)

	conn, err := net.DialTimeout("tcp", l.BoundAddr(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Speak plaintext HELLO at a TLS-only listener: the handshake never
	// completes, so the server must close without enqueueing anything.
	plain := transport.NewPlain(conn, 2*time.Second)
	hdr := protocol.Encode(protocol.NewHeader(protocol.HELLO, 0, ""))
	_ = plain.SendExact(hdr[:])

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if n, err := conn.Read(buf); err == nil && n > 0 {
		t.Fatalf("expected connection to be closed on failed handshake, got %d bytes", n)
	}

	if _, ok := enq.last(); ok {
		t.Fatal("a job was enqueued despite a failed TLS handshake")
	}
}

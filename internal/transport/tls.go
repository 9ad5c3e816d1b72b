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

package transport

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
)

// TLSAssets names the certificate/key pair loaded from a TLS asset
// directory, per spec.md §6 ("<tls_dir>/server.crt", "<tls_dir>/server.key").
type TLSAssets struct {
	CertFile string
	KeyFile  string
}

// AssetsFromDir locates the conventional server.crt/server.key pair inside a
// TLS directory.
func AssetsFromDir(dir string) TLSAssets {
	return TLSAssets{
		CertFile: filepath.Join(dir, "server.crt"),
		KeyFile:  filepath.Join(dir, "server.key"),
	}
}

// ServerTLSConfig builds an immutable *tls.Config shared by every accepted
// connection for SSL-object creation, matching the teacher's "TLS context
// created once, never mutated" invariant (spec.md §5).
func ServerTLSConfig(assets TLSAssets) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(assets.CertFile, assets.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("transport: load TLS asset pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ClientTLSConfig builds the client-side *tls.Config used when the
// configured protocol scheme is "https". serverName drives hostname
// verification and is used as given; an empty value is not replaced by the
// dialed host here (Sender.dial passes Config.Host when no override is set).
func ClientTLSConfig(serverName string, insecureSkipVerify bool) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}
}

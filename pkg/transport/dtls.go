package transport

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/pion/dtls/v2"
)

// DTLSState is the narrow projection of a DTLS connection's handshake
// progress the core needs; it never sees pion's full connection state.
type DTLSState int

const (
	DTLSHandshaking DTLSState = iota
	DTLSEstablished
	DTLSFailed
)

// DTLSHandshaker is the narrow seam between the core and a concrete
// DTLS stack. The adapter supplies a net.Conn (already demultiplexed
// to this transport's DTLS records per spec §4.2's demux rule); the
// core only drives Handshake and reads back state/fingerprint.
type DTLSHandshaker interface {
	Handshake(ctx context.Context) error
	State() DTLSState
	// RemoteFingerprint returns the algorithm ("sha-256") and hex
	// digest of the certificate the peer presented, once established.
	RemoteFingerprint() (algorithm, digest string, ok bool)
	Close() error
}

// pionDTLSHandshaker wraps github.com/pion/dtls/v2 behind
// DTLSHandshaker. It is the only place in this module that imports
// pion/dtls directly.
type pionDTLSHandshaker struct {
	conn     net.Conn
	config   *dtls.Config
	isServer bool
	dconn    *dtls.Conn
	state    DTLSState
}

// NewDTLSHandshaker wraps conn — supplied by the adapter once it has
// demultiplexed DTLS records to this transport — as a DTLS client or
// server per role. verify checks the peer's certificate against the
// SDP-negotiated fingerprint; identity is established that way, not
// via a CA chain, so the handshake itself skips chain verification.
func NewDTLSHandshaker(conn net.Conn, cert tls.Certificate, isServer bool, verify func(peerCert *x509.Certificate) error) DTLSHandshaker {
	cfg := &dtls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true,
		ClientAuth:         dtls.RequireAnyClientCert,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if verify == nil || len(rawCerts) == 0 {
				return nil
			}
			peerCert, err := x509.ParseCertificate(rawCerts[0])
			if err != nil {
				return fmt.Errorf("parse peer certificate: %w", err)
			}
			return verify(peerCert)
		},
	}
	return &pionDTLSHandshaker{conn: conn, config: cfg, isServer: isServer, state: DTLSHandshaking}
}

func (h *pionDTLSHandshaker) Handshake(ctx context.Context) error {
	var err error
	if h.isServer {
		h.dconn, err = dtls.ServerWithContext(ctx, h.conn, h.config)
	} else {
		h.dconn, err = dtls.ClientWithContext(ctx, h.conn, h.config)
	}
	if err != nil {
		h.state = DTLSFailed
		return fmt.Errorf("dtls handshake: %w", err)
	}
	h.state = DTLSEstablished
	return nil
}

func (h *pionDTLSHandshaker) State() DTLSState { return h.state }

func (h *pionDTLSHandshaker) RemoteFingerprint() (string, string, bool) {
	if h.dconn == nil {
		return "", "", false
	}
	state := h.dconn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return "", "", false
	}
	cert, err := x509.ParseCertificate(state.PeerCertificates[0])
	if err != nil {
		return "", "", false
	}
	return "sha-256", fingerprintSHA256Hex(cert), true
}

func (h *pionDTLSHandshaker) Close() error {
	if h.dconn == nil {
		return nil
	}
	return h.dconn.Close()
}

// fingerprintSHA256Hex formats a certificate's SHA-256 digest the way
// SDP's a=fingerprint attribute does: colon-separated uppercase hex
// pairs (RFC 8122).
func fingerprintSHA256Hex(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(parts, ":")
}

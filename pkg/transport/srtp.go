package transport

import (
	"fmt"

	"github.com/pion/srtp/v2"
)

// SRTPProtector is the narrow seam between the core and a concrete
// SRTP implementation, used by SDES-SRTP and DTLS-SRTP transports to
// protect outbound RTP/RTCP and unprotect inbound packets.
type SRTPProtector interface {
	EncryptRTP(pkt []byte) ([]byte, error)
	DecryptRTP(pkt []byte) ([]byte, error)
	EncryptRTCP(pkt []byte) ([]byte, error)
	DecryptRTCP(pkt []byte) ([]byte, error)
}

// pionSRTPProtector wraps github.com/pion/srtp/v2's Context, the only
// place in this module that imports pion/srtp directly.
type pionSRTPProtector struct {
	ctx *srtp.Context
}

// NewSRTPProtector builds a protector from SRTP master key/salt,
// either ingested directly (SDES-SRTP, spec §9) or derived from a
// completed DTLS-SRTP handshake's exported keying material.
func NewSRTPProtector(key, salt []byte, profile srtp.ProtectionProfile) (SRTPProtector, error) {
	ctx, err := srtp.CreateContext(key, salt, profile)
	if err != nil {
		return nil, fmt.Errorf("create srtp context: %w", err)
	}
	return &pionSRTPProtector{ctx: ctx}, nil
}

func (p *pionSRTPProtector) EncryptRTP(pkt []byte) ([]byte, error) {
	return p.ctx.EncryptRTP(nil, pkt, nil)
}

func (p *pionSRTPProtector) DecryptRTP(pkt []byte) ([]byte, error) {
	return p.ctx.DecryptRTP(nil, pkt, nil)
}

func (p *pionSRTPProtector) EncryptRTCP(pkt []byte) ([]byte, error) {
	return p.ctx.EncryptRTCP(nil, pkt, nil)
}

func (p *pionSRTPProtector) DecryptRTCP(pkt []byte) ([]byte, error) {
	return p.ctx.DecryptRTCP(nil, pkt, nil)
}

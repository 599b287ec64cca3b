package transport

import "fmt"

// Transport is a built, negotiated transport (spec §4.2): it owns a
// type, optional ICE/DTLS/SRTP state, local ports, the remote RTP/RTCP
// addresses, and connection state. It never performs I/O — Send*
// methods return protected bytes and a destination for the caller to
// write, gated on ConnectionState() == Connected.
type Transport struct {
	id          ID
	typ         Type
	avpfCapable bool

	ice  IceAgent // nil if offer_ice was off
	dtls DTLSHandshaker
	prot SRTPProtector

	localRTPPort  int
	localRTCPPort *int // nil iff rtcp-mux is active, invariant from spec §4.2

	remoteRTP  Addr
	remoteRTCP Addr

	conn *connState
}

// ID returns this transport's identity.
func (t *Transport) ID() ID { return t.id }

// Type returns the transport's security profile.
func (t *Transport) Type() Type { return t.typ }

// RtcpMuxActive reports whether RTP and RTCP share one socket —
// spec §4.2's invariant: true iff remote_rtp_address == remote_rtcp_address
// and local_rtcp_port is unset.
func (t *Transport) RtcpMuxActive() bool {
	return t.localRTCPPort == nil
}

// LocalRTPPort, LocalRTCPPort return the ports an adapter bound for
// this transport. LocalRTCPPort's second return is false when
// rtcp-mux is active and no dedicated RTCP socket exists.
func (t *Transport) LocalRTPPort() int { return t.localRTPPort }
func (t *Transport) LocalRTCPPort() (int, bool) {
	if t.localRTCPPort == nil {
		return 0, false
	}
	return *t.localRTCPPort, true
}

// RemoteRTPAddr returns the negotiated remote RTP address, used to
// re-match an active Media against a renegotiated m-line lacking mid
// (spec §4.5's matches() fallback rule).
func (t *Transport) RemoteRTPAddr() Addr { return t.remoteRTP }

// SetRemoteAddrs records the negotiated remote RTP/RTCP addresses.
// When rtcp-mux is active rtcpAddr is ignored and set equal to rtpAddr,
// preserving spec §4.2's invariant.
func (t *Transport) SetRemoteAddrs(rtpAddr, rtcpAddr Addr) {
	t.remoteRTP = rtpAddr
	if t.RtcpMuxActive() {
		t.remoteRTCP = rtpAddr
	} else {
		t.remoteRTCP = rtcpAddr
	}
}

// RemoveRtcpSocket folds a confirmed rtcp-mux downgrade (spec §4.2's
// "RemoveRtcpSocket transport change") into this transport: the
// dedicated RTCP socket is dropped and RTCP now rides the RTP port.
func (t *Transport) RemoveRtcpSocket() {
	t.localRTCPPort = nil
	t.remoteRTCP = t.remoteRTP
}

// ConnectionState returns the current connection state.
func (t *Transport) ConnectionState() ConnectionState {
	return t.conn.state()
}

// NotifySdpComplete advances the connection state once SDP exchange
// finishes for this transport. Plain RTP/SDES-SRTP reach Connected
// immediately, unless the transport has an ICE agent, in which case
// Connected waits for NotifyIceConnected; DTLS-SRTP requires a
// separate NotifyDtlsEstablished.
func (t *Transport) NotifySdpComplete() {
	iceRequired := t.ice != nil
	if t.typ == DTLSSRTP {
		t.conn.fire(evSdpComplete)
		return
	}
	t.conn.markSdpComplete(iceRequired)
}

// NotifyIceConnected advances the state once the ICE agent selects a
// candidate pair.
func (t *Transport) NotifyIceConnected() {
	t.conn.fire(evIceConnect)
	if t.typ != DTLSSRTP {
		t.conn.fire(evDtlsHandshakeDone)
	}
}

// NotifyDtlsEstablished marks the DTLS-SRTP handshake complete and
// installs the derived SRTP protector.
func (t *Transport) NotifyDtlsEstablished(prot SRTPProtector) {
	t.prot = prot
	t.conn.fire(evDtlsHandshakeDone)
}

// NotifyDtlsFailed moves the transport to Failed, spec §7's
// "Transport fatal" policy: Media on this transport remain but cease
// to deliver.
func (t *Transport) NotifyDtlsFailed() {
	t.conn.fire(evDtlsFail)
}

// IngestSDESKeys installs an SRTP protector directly from SDES
// a=crypto keying material (spec §9's key-ingestion point, sibling to
// the DTLS handshake path — no key derivation happens here).
func (t *Transport) IngestSDESKeys(prot SRTPProtector) {
	t.prot = prot
	t.conn.fire(evDtlsHandshakeDone)
}

// SendRTP addresses an RTP packet to the negotiated remote address,
// protecting it first if this transport encrypts. Returns ok=false
// and drops the packet silently if the transport is not yet
// Connected, per spec §4.2's send-path gating.
func (t *Transport) SendRTP(payload []byte) (out []byte, target Addr, ok bool) {
	return t.send(payload, t.remoteRTP)
}

// SendRTCP addresses an RTCP compound to the negotiated RTCP address
// (equal to the RTP address when rtcp-mux is active).
func (t *Transport) SendRTCP(payload []byte) (out []byte, target Addr, ok bool) {
	return t.sendRTCP(payload, t.remoteRTCP)
}

func (t *Transport) send(payload []byte, target Addr) ([]byte, Addr, bool) {
	if t.ConnectionState() != StateConnected {
		return nil, Addr{}, false
	}
	if !t.typ.Encrypted() {
		return payload, target, true
	}
	protected, err := t.prot.EncryptRTP(payload)
	if err != nil {
		return nil, Addr{}, false
	}
	return protected, target, true
}

func (t *Transport) sendRTCP(payload []byte, target Addr) ([]byte, Addr, bool) {
	if t.ConnectionState() != StateConnected {
		return nil, Addr{}, false
	}
	if !t.typ.Encrypted() {
		return payload, target, true
	}
	protected, err := t.prot.EncryptRTCP(payload)
	if err != nil {
		return nil, Addr{}, false
	}
	return protected, target, true
}

// ReceiveRTP unprotects an inbound RTP datagram already classified as
// ClassRTP by Classify.
func (t *Transport) ReceiveRTP(data []byte) ([]byte, error) {
	if !t.typ.Encrypted() {
		return data, nil
	}
	if t.prot == nil {
		return nil, fmt.Errorf("transport %d: no SRTP key material yet", t.id)
	}
	return t.prot.DecryptRTP(data)
}

// ReceiveRTCP unprotects an inbound RTCP datagram already classified
// as ClassRTCP by Classify.
func (t *Transport) ReceiveRTCP(data []byte) ([]byte, error) {
	if !t.typ.Encrypted() {
		return data, nil
	}
	if t.prot == nil {
		return nil, fmt.Errorf("transport %d: no SRTP key material yet", t.id)
	}
	return t.prot.DecryptRTCP(data)
}

// DtlsCapable reports whether inbound datagrams on this transport
// should be tested against Classify's DTLS byte range.
func (t *Transport) DtlsCapable() bool {
	return t.typ == DTLSSRTP
}

// AddStunServer forwards a newly configured STUN server to this
// transport's ICE agent, if it has one (spec §4.6's add_stun_server
// fans out to every live transport).
func (t *Transport) AddStunServer(addr string) error {
	if t.ice == nil {
		return nil
	}
	return t.ice.AddStunServer(addr)
}

// IceAgent exposes the transport's ICE agent, if offer_ice was on, for
// gathering/connection-state introspection (spec §4.6).
func (t *Transport) IceAgent() (IceAgent, bool) {
	if t.ice == nil {
		return nil, false
	}
	return t.ice, true
}

package transport

import "fmt"

// TransportBuilder is a transport-in-construction: it holds
// configuration and pending ICE until the peer's answer fixes the
// DTLS role and final addresses (spec §4.2).
type TransportBuilder struct {
	id            ID
	typ           Type
	avpfCapable   bool
	rtcpMuxPolicy RtcpMuxPolicy

	offerIce bool
	ice      IceAgent

	localRTPPort  int
	localRTCPPort *int // set once, nil when SetPorts was given no RTCP port (always so under Require)
	portsSet      bool
}

// NewBuilder creates a TransportBuilder for a locally-initiated
// transport per the session's configured offer_transport/rtcp_mux_policy,
// creating the optional ICE agent immediately when offerIce is on,
// per spec §4.2: "The optional ICE agent is created at TransportBuilder
// construction when offer_ice is on."
func NewBuilder(id ID, typ Type, avpfCapable, offerIce bool, policy RtcpMuxPolicy) *TransportBuilder {
	b := &TransportBuilder{
		id:            id,
		typ:           typ,
		avpfCapable:   avpfCapable,
		rtcpMuxPolicy: policy,
		offerIce:      offerIce,
	}
	if offerIce {
		b.ice = newNullIceAgent("", "")
	}
	return b
}

// WantsRtcpSocket reports whether the offer this builder produces
// should request a dedicated RTCP socket alongside the RTP one.
// Require never does; Negotiate always offers both per spec §4.2.
func (b *TransportBuilder) WantsRtcpSocket() bool {
	return b.rtcpMuxPolicy == MuxNegotiate
}

// SetPorts records the local RTP/RTCP ports the owner bound in
// response to a CreateSocket/CreateSocketPair transport change, and
// seeds host candidates on the ICE agent if present, per spec §4.2.
func (b *TransportBuilder) SetPorts(ip string, rtpPort int, rtcpPort *int) error {
	b.localRTPPort = rtpPort
	b.localRTCPPort = rtcpPort
	b.portsSet = true
	if b.ice != nil {
		if err := b.ice.AddHostCandidate(ip, rtpPort); err != nil {
			return fmt.Errorf("add host candidate: %w", err)
		}
	}
	return nil
}

// LocalRTPPort and LocalRTCPPort report the ports last recorded by
// SetPorts, used to build an SDP offer before the builder has been
// promoted to a Transport (spec §4.5.3's create_sdp_offer needs the
// port while a pending AddMedia's transport may still be unconfirmed).
func (b *TransportBuilder) LocalRTPPort() int { return b.localRTPPort }
func (b *TransportBuilder) LocalRTCPPort() (int, bool) {
	if b.localRTCPPort == nil {
		return 0, false
	}
	return *b.localRTCPPort, true
}

// PortsSet reports whether SetPorts has been called — SDP answer/offer
// construction must refuse to proceed otherwise (spec §5: "the caller
// must satisfy CreateSocket* requests before calling
// create_sdp_answer/create_sdp_offer, or the answer-construction panics
// on unset ports. This panic is an API contract, not recoverable error.")
func (b *TransportBuilder) PortsSet() bool { return b.portsSet }

// BuildFromAnswer finalizes the transport once the peer's answer is
// known: it fixes whether rtcp-mux is confirmed and the negotiated
// remote addresses, enforcing spec §4.2's Require-policy invariant.
func (b *TransportBuilder) BuildFromAnswer(rtcpMuxConfirmed bool, remoteRTP, remoteRTCP Addr) (*Transport, error) {
	if !b.portsSet {
		panic(fmt.Sprintf("transport %d: BuildFromAnswer called before SetPorts", b.id))
	}
	if b.rtcpMuxPolicy == MuxRequire && !rtcpMuxConfirmed {
		return nil, fmt.Errorf("transport %d: peer did not confirm rtcp-mux under Require policy", b.id)
	}

	t := &Transport{
		id:          b.id,
		typ:         b.typ,
		avpfCapable: b.avpfCapable,
		ice:         b.ice,
		conn:        newConnState(),
	}
	if rtcpMuxConfirmed {
		t.localRTCPPort = nil
	} else {
		port := 0
		if b.localRTCPPort != nil {
			port = *b.localRTCPPort
		}
		t.localRTCPPort = &port
	}
	t.localRTPPort = b.localRTPPort
	t.SetRemoteAddrs(remoteRTP, remoteRTCP)
	return t, nil
}

// BuildFromOffer finalizes a transport seeded from a received offer
// (the answering side): codec/type selection already happened by the
// time this is called, so it takes the confirmed mux state directly.
func (b *TransportBuilder) BuildFromOffer(rtcpMuxConfirmed bool, remoteRTP, remoteRTCP Addr) (*Transport, error) {
	return b.BuildFromAnswer(rtcpMuxConfirmed, remoteRTP, remoteRTCP)
}

// Type returns the transport type this builder will produce.
func (b *TransportBuilder) Type() Type { return b.typ }

// ID returns this builder's identity, shared with the Transport it produces.
func (b *TransportBuilder) ID() ID { return b.id }

// AddStunServer forwards to the builder's ICE agent, if any.
func (b *TransportBuilder) AddStunServer(addr string) error {
	if b.ice == nil {
		return nil
	}
	return b.ice.AddStunServer(addr)
}

// IceAgent exposes the builder's ICE agent, if offer_ice was on.
func (b *TransportBuilder) IceAgent() (IceAgent, bool) {
	if b.ice == nil {
		return nil, false
	}
	return b.ice, true
}

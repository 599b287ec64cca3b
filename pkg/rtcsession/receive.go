package rtcsession

import (
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// Receive routes one inbound datagram already associated with
// transportID: classify RTP vs RTCP vs STUN/DTLS, unprotect if the
// transport encrypts, then dispatch to the owning Media (spec
// §4.4/§4.6, mirrors original_source mod.rs's receive()).
func (s *SessionState) Receive(transportID transport.ID, data []byte, now time.Time) {
	entry, ok := s.transports[transportID]
	if !ok {
		s.log.Debug("rtcsession.Receive unknown transport", "transport_id", transportID)
		return
	}
	if entry.built == nil {
		// Still negotiating: STUN/DTLS handshake bytes for a building
		// transport are handled by the adapter directly (spec §4.2's
		// ICE/DTLS non-goal), nothing to route to a Media yet.
		return
	}
	t := entry.built

	switch transport.Classify(data, t.DtlsCapable()) {
	case transport.ClassRTP:
		plain, err := t.ReceiveRTP(data)
		if err != nil {
			s.log.Debug("rtcsession.Receive failed to unprotect RTP", "transport_id", transportID, "error", err)
			return
		}
		s.receiveRTP(transportID, plain, now)
	case transport.ClassRTCP:
		plain, err := t.ReceiveRTCP(data)
		if err != nil {
			s.log.Debug("rtcsession.Receive failed to unprotect RTCP", "transport_id", transportID, "error", err)
			return
		}
		s.receiveRTCP(plain, now)
	default:
		// STUN/DTLS/ignore: owned by the adapter, not the core.
	}
}

func (s *SessionState) receiveRTP(transportID transport.ID, data []byte, now time.Time) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		s.log.Debug("rtcsession.Receive failed to parse RTP packet", "transport_id", transportID, "error", err)
		return
	}
	extMid, haveExtMid := media.ReadMidExtension(&pkt)

	for _, m := range s.activeMedia {
		if m.TransportID() != transportID {
			continue
		}
		if m.MatchesRTP(extMid, haveExtMid, pkt.PayloadType) {
			m.RtpSession().RecvRTP(pkt, now)
			return
		}
	}
	s.log.Debug("rtcsession.Receive no media matched inbound RTP", "transport_id", transportID, "ssrc", pkt.SSRC)
}

func (s *SessionState) receiveRTCP(data []byte, now time.Time) {
	pkts, err := rtcp.Unmarshal(data)
	if err != nil {
		s.log.Debug("rtcsession.Receive failed to parse RTCP compound", "error", err)
		return
	}
	if len(pkts) == 0 {
		return
	}

	ssrc, ok := rtcpSenderSSRC(pkts[0])
	if !ok {
		return
	}

	for _, m := range s.activeMedia {
		if m.OwnsSSRC(ssrc) {
			m.RtpSession().RecvRTCP(pkts, now)
			return
		}
	}
	s.log.Debug("rtcsession.Receive no media matched inbound RTCP", "ssrc", ssrc)
}

// rtcpSenderSSRC extracts the originating SSRC from the first packet
// of a compound. App/BYE/SDES and unknown packet kinds carry nothing
// we can route on and are ignored, mirroring original_source mod.rs's
// receive().
func rtcpSenderSSRC(pkt rtcp.Packet) (uint32, bool) {
	switch p := pkt.(type) {
	case *rtcp.SenderReport:
		return p.SSRC, true
	case *rtcp.ReceiverReport:
		return p.SSRC, true
	case *rtcp.TransportLayerNack:
		return p.SenderSSRC, true
	case *rtcp.PictureLossIndication:
		return p.SenderSSRC, true
	case *rtcp.FullIntraRequest:
		return p.SenderSSRC, true
	default:
		return 0, false
	}
}

// Package media implements Media (spec §4.4): the binding of one
// negotiated codec and RtpSession to one transport, RTCP timer
// cadence, and RTP packet routing by mid/payload-type.
package media

import (
	"log/slog"
	"time"

	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/rtpsession"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// ID identifies one live Media stream, stable across renegotiation
// when the stream is re-matched (spec §3).
type ID uint64

// rtcpInterval returns the per-media-type RTCP cadence from spec §4.4:
// "video = 1s; audio/other = 5s."
func rtcpInterval(t codec.MediaType) time.Duration {
	if t == codec.Video {
		return time.Second
	}
	return 5 * time.Second
}

// initialRTCPDelay is spec §4.4's "First RTCP is delayed 5s after
// construction."
const initialRTCPDelay = 5 * time.Second

// Media binds one negotiated codec and RtpSession to one transport
// (spec §4.4). Renegotiation may change only Direction — a codec
// change means destroying and recreating the Media, never mutating
// Codec/TransportID in place.
type Media struct {
	id            ID
	localMediaID  localmedia.ID
	mediaType     codec.MediaType
	mid           string
	hasMid        bool
	direction     sdpdir.Direction
	avpf          bool
	transportID   transport.ID
	codec         codec.NegotiatedCodec
	rtp           *rtpsession.RtpSession
	rtcpInterval  time.Duration
	nextRTCPAt    time.Time
}

// New constructs a Media bound to transportID, per spec §4.4/§4.5.1
// step 5 ("Create the Media bound to the chosen transport, codec, and
// direction"). now is the construction time used to schedule the
// first RTCP tick.
func New(id ID, localMediaID localmedia.ID, mediaType codec.MediaType, mid string, hasMid bool, direction sdpdir.Direction, avpf bool, transportID transport.ID, nc codec.NegotiatedCodec, now time.Time) *Media {
	return &Media{
		id:           id,
		localMediaID: localMediaID,
		mediaType:    mediaType,
		mid:          mid,
		hasMid:       hasMid,
		direction:    direction,
		avpf:         avpf,
		transportID:  transportID,
		codec:        nc,
		rtp:          rtpsession.New(nc.ClockRate),
		rtcpInterval: rtcpInterval(mediaType),
		nextRTCPAt:   now.Add(initialRTCPDelay),
	}
}

func (m *Media) ID() ID                       { return m.id }
func (m *Media) LocalMediaID() localmedia.ID   { return m.localMediaID }
func (m *Media) MediaType() codec.MediaType    { return m.mediaType }
func (m *Media) Mid() (string, bool)           { return m.mid, m.hasMid }
func (m *Media) Direction() sdpdir.Direction   { return m.direction }
func (m *Media) AVPF() bool                    { return m.avpf }
func (m *Media) TransportID() transport.ID     { return m.transportID }
func (m *Media) Codec() codec.NegotiatedCodec  { return m.codec }
func (m *Media) RtpSession() *rtpsession.RtpSession { return m.rtp }

// SetDirection applies a renegotiated direction. Callers are
// responsible for emitting MediaChanged only when this actually
// differs, per spec §4.5.1 step 2.
func (m *Media) SetDirection(d sdpdir.Direction) {
	m.direction = d
}

// MatchesRTP reports whether this Media should receive an inbound RTP
// packet per spec §4.4's routing rule: mid header-extension value
// (when both sides use mid) else payload type membership.
func (m *Media) MatchesRTP(extMid string, haveExtMid bool, pt uint8) bool {
	if m.hasMid && haveExtMid {
		return m.mid == extMid
	}
	return m.codec.RecvPT == pt || (m.codec.Dtmf != nil && m.codec.Dtmf.PT == pt)
}

// OwnsSSRC reports whether this Media's RtpSession has recorded ssrc
// as a remote source, used to route inbound RTCP compounds per
// spec §4.4.
func (m *Media) OwnsSSRC(ssrc uint32) bool {
	return m.rtp.HasRemoteSSRC(ssrc)
}

// DueForRTCP reports whether the next scheduled RTCP tick has
// elapsed.
func (m *Media) DueForRTCP(now time.Time) bool {
	return !now.Before(m.nextRTCPAt)
}

// NextRTCPAt returns the next scheduled RTCP send time, used by
// SessionState.Timeout to compute the minimum wakeup deadline.
func (m *Media) NextRTCPAt() time.Time { return m.nextRTCPAt }

// AdvanceRTCPTick schedules the next RTCP tick regardless of whether a
// report was actually sent this time — spec §4.4: "if not connected
// at the tick, the report is skipped (the next tick advances normally
// — no catch-up)."
func (m *Media) AdvanceRTCPTick(now time.Time) {
	m.nextRTCPAt = now.Add(m.rtcpInterval)
}

// PrepareSendRTP stamps pkt with this Media's local SSRC, negotiated
// send payload type, and mid extension (if negotiated), and updates
// send counters. It does not perform any I/O — the caller hands the
// returned packet to the owning Transport.
func (m *Media) PrepareSendRTP(pkt rtp.Packet) rtp.Packet {
	pkt.SSRC = m.rtp.SSRC()
	pkt.PayloadType = m.codec.SendPT
	if m.hasMid {
		if err := setMidExtension(&pkt, m.mid); err != nil {
			slog.Debug("media.PrepareSendRTP failed to set mid extension", "media_id", m.id, "error", err)
		}
	}
	m.rtp.SendRTP(pkt)
	return pkt
}

// midExtensionID is the one-byte header extension id this module
// negotiates the RFC 8843 "mid" extension at. A real deployment would
// negotiate this via a=extmap; fixed here since the core ships no
// extmap negotiation state machine of its own (spec's scope is the PT
// negotiation, not extension-id bargaining).
const midExtensionID = 1

func setMidExtension(pkt *rtp.Packet, mid string) error {
	return pkt.SetExtension(midExtensionID, []byte(mid))
}

// ReadMidExtension extracts the RFC 8843 mid value from an inbound
// packet's one-byte header extension, if present.
func ReadMidExtension(pkt *rtp.Packet) (string, bool) {
	ext := pkt.GetExtension(midExtensionID)
	if ext == nil {
		return "", false
	}
	return string(ext), true
}

// Package rtpsession implements the per-stream RTP/RTCP engine: SSRC
// identity, jitter-buffered delivery, send/receive counters, and RTCP
// SR/RR generation and ingest (RFC 3550).
package rtpsession

import (
	"math/rand"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// remoteStats tracks everything RtpSession needs to know about one
// remote SSRC: extended sequence tracking for loss/jitter (RFC 3550
// Appendix A.8) and the bookkeeping needed to build RTCP reception
// report blocks.
type remoteStats struct {
	ssrc uint32

	initialized bool
	baseSeq     uint16
	maxSeq      uint16
	cycles      uint32 // sequence-number wraparound count, shifted into bits 16-31 of extended seq

	received uint64

	// jitter, per RFC 3550 Appendix A.8.
	jitter       float64
	lastArrival  time.Time
	lastRTPStamp uint32
	haveLastTS   bool

	lastSR     uint32 // middle 32 bits of the NTP timestamp of the last SR received from this SSRC
	lastSRRecv time.Time
	haveLastSR bool
}

// extend folds a 16-bit sequence number into this remote's running
// 32-bit extended sequence space, bumping the wraparound counter when
// the sequence drops back near zero after being near 65535.
func (r *remoteStats) extend(seq uint16) uint32 {
	if !r.initialized {
		r.initialized = true
		r.baseSeq = seq
		r.maxSeq = seq
		return uint32(r.cycles)<<16 | uint32(seq)
	}
	if seq < r.maxSeq && r.maxSeq-seq > 0x8000 {
		r.cycles++
	} else if seq > r.maxSeq && seq-r.maxSeq > 0x8000 && r.cycles > 0 {
		r.cycles--
	}
	if int32(seq)-int32(r.maxSeq) > 0 || (r.cycles == 0 && seq > r.maxSeq) {
		r.maxSeq = seq
	}
	return uint32(r.cycles)<<16 | uint32(seq)
}

func (r *remoteStats) extSeq() uint32 {
	return uint32(r.cycles)<<16 | uint32(r.maxSeq)
}

// updateJitter folds one packet's interarrival spacing into the
// running jitter estimate, RFC 3550 §6.4.1.
func (r *remoteStats) updateJitter(clockRate uint32, rtpTimestamp uint32, arrival time.Time) {
	if !r.haveLastTS {
		r.haveLastTS = true
		r.lastArrival = arrival
		r.lastRTPStamp = rtpTimestamp
		return
	}
	arrivalUnits := arrival.Sub(r.lastArrival).Seconds() * float64(clockRate)
	d := arrivalUnits - float64(int64(rtpTimestamp)-int64(r.lastRTPStamp))
	if d < 0 {
		d = -d
	}
	r.jitter += (d - r.jitter) / 16
	r.lastArrival = arrival
	r.lastRTPStamp = rtpTimestamp
}

// RtpSession is the per-stream RTP/RTCP engine described in spec §4.3:
// local SSRC identity, remote SSRC discovery, a jitter buffer keyed by
// (ssrc, seq), send counters, and RTCP SR/RR generation and ingest.
// It never touches the network itself; callers own the transport and
// the socket write.
type RtpSession struct {
	ssrc      uint32
	clockRate uint32

	jb      *jitterBuffer
	remotes map[uint32]*remoteStats

	sentPackets uint64
	sentOctets  uint64
	highestTS   uint32
	haveSentAny bool
}

// New creates an RtpSession with a random local SSRC, per spec §4.3's
// "local SSRC (random at construction)".
func New(clockRate uint32) *RtpSession {
	return &RtpSession{
		ssrc:      rand.Uint32(),
		clockRate: clockRate,
		jb:        newJitterBuffer(),
		remotes:   make(map[uint32]*remoteStats),
	}
}

// SSRC returns the local SSRC this session stamps outgoing packets with.
func (s *RtpSession) SSRC() uint32 { return s.ssrc }

// ClockRate returns the RTP clock rate configured for this stream.
func (s *RtpSession) ClockRate() uint32 { return s.clockRate }

func (s *RtpSession) remote(ssrc uint32) *remoteStats {
	r, ok := s.remotes[ssrc]
	if !ok {
		r = &remoteStats{ssrc: ssrc}
		s.remotes[ssrc] = r
	}
	return r
}

// Stats reports this session's cumulative send/receive counters and
// current jitter-buffer depth, for metrics export (pkg/metrics).
func (s *RtpSession) Stats() (sentPackets, sentOctets uint64, recvPackets uint64, jitterBufferDepth int) {
	var received uint64
	for _, r := range s.remotes {
		received += r.received
	}
	return s.sentPackets, s.sentOctets, received, s.jb.depth()
}

// HasRemoteSSRC reports whether ssrc has been learned from an inbound
// RTP packet or Sender Report on this session, used to route inbound RTCP compounds to
// the right Media (spec §4.4).
func (s *RtpSession) HasRemoteSSRC(ssrc uint32) bool {
	_, ok := s.remotes[ssrc]
	return ok
}

// RecvRTP inserts an inbound packet into the jitter buffer keyed by
// sender SSRC, dropping duplicates, and updates receive statistics.
func (s *RtpSession) RecvRTP(pkt rtp.Packet, now time.Time) {
	r := s.remote(pkt.SSRC)
	extSeq := r.extend(pkt.SequenceNumber)
	if !s.jb.insert(pkt.SSRC, extSeq, pkt, now) {
		return
	}
	r.received++
	r.updateJitter(s.clockRate, pkt.Timestamp, now)
}

// PopRTP releases the oldest packet across all remote SSRCs whose
// hold deadline has elapsed, or returns ok=false if none is ready.
// maxHold of 0 releases as soon as a packet is the lowest pending
// sequence number for its SSRC.
func (s *RtpSession) PopRTP(now time.Time, maxHold time.Duration) (rtp.Packet, bool) {
	return s.jb.pop(now, maxHold)
}

// PopRTPAfter returns the duration until PopRTP would next return a
// packet, or ok=false if the buffer is empty.
func (s *RtpSession) PopRTPAfter(now time.Time, maxHold time.Duration) (time.Duration, bool) {
	return s.jb.popAfter(now, maxHold)
}

// SendRTP updates send counters only; the caller is responsible for
// the actual transport write, so SSRC rewriting can happen first.
func (s *RtpSession) SendRTP(pkt rtp.Packet) {
	s.sentPackets++
	s.sentOctets += uint64(len(pkt.Payload))
	if !s.haveSentAny || int32(pkt.Timestamp-s.highestTS) > 0 {
		s.highestTS = pkt.Timestamp
	}
	s.haveSentAny = true
}

// WriteRtcpReport emits a Sender Report if this session has sent any
// RTP, else a Receiver Report, with one reception report block per
// known remote SSRC, and returns the number of bytes written into buf.
func (s *RtpSession) WriteRtcpReport(now time.Time, buf []byte) (int, error) {
	blocks := s.reportBlocks(now)

	var pkt rtcp.Packet
	if s.haveSentAny {
		pkt = &rtcp.SenderReport{
			SSRC:        s.ssrc,
			NTPTime:     toNTP(now),
			RTPTime:     s.highestTS,
			PacketCount: uint32(s.sentPackets),
			OctetCount:  uint32(s.sentOctets),
			Reports:     blocks,
		}
	} else {
		pkt = &rtcp.ReceiverReport{
			SSRC:    s.ssrc,
			Reports: blocks,
		}
	}

	marshaled, err := pkt.Marshal()
	if err != nil {
		return 0, err
	}
	return copy(buf, marshaled), nil
}

func (s *RtpSession) reportBlocks(now time.Time) []rtcp.ReceptionReport {
	blocks := make([]rtcp.ReceptionReport, 0, len(s.remotes))
	for _, r := range s.remotes {
		var dlsr uint32
		if r.haveLastSR {
			d := now.Sub(r.lastSRRecv)
			if d > 0 {
				dlsr = uint32(d.Seconds() * 65536)
			}
		}
		var lastSR uint32
		if r.haveLastSR {
			lastSR = r.lastSR
		}

		expected := r.extSeq() - uint32(r.baseSeq) + 1
		var lost uint32
		if expected > uint32(r.received) {
			lost = expected - uint32(r.received)
		}
		var fractionLost uint8
		if expected > 0 {
			fractionLost = uint8((uint64(lost) << 8) / uint64(expected))
		}

		blocks = append(blocks, rtcp.ReceptionReport{
			SSRC:               r.ssrc,
			FractionLost:       fractionLost,
			TotalLost:          lost,
			LastSequenceNumber: r.extSeq(),
			Jitter:             uint32(r.jitter),
			LastSenderReport:   lastSR,
			Delay:              dlsr,
		})
	}
	return blocks
}

// RecvRTCP folds an inbound compound packet's SR/RR information into
// the matching remote's statistics; unknown packet types are ignored,
// per spec §4.3.
func (s *RtpSession) RecvRTCP(pkts []rtcp.Packet, now time.Time) {
	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *rtcp.SenderReport:
			r := s.remote(p.SSRC)
			r.lastSR = middle32(p.NTPTime)
			r.lastSRRecv = now
			r.haveLastSR = true
		case *rtcp.ReceiverReport:
			// RR carries no sender-side NTP timestamp to retain; report
			// blocks inside it about *us* are exposed via statistics
			// once consumers need RTT, not tracked here.
		default:
			// App/BYE/SDES/unknown: ignored at the core, per spec.
		}
	}
}

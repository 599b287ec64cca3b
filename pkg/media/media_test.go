package media

import (
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
)

func newTestMedia(now time.Time, hasMid bool) *Media {
	nc := codec.NegotiatedCodec{SendPT: 0, RecvPT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}
	return New(1, 1, codec.Audio, "0", hasMid, sdpdir.SendRecv, false, 1, nc, now)
}

func TestRtcpIntervalByMediaType(t *testing.T) {
	if got := rtcpInterval(codec.Video); got != time.Second {
		t.Errorf("video interval = %s, want 1s", got)
	}
	if got := rtcpInterval(codec.Audio); got != 5*time.Second {
		t.Errorf("audio interval = %s, want 5s", got)
	}
}

func TestNewSchedulesInitialRTCPDelay(t *testing.T) {
	now := time.Now()
	m := newTestMedia(now, true)
	want := now.Add(initialRTCPDelay)
	if !m.NextRTCPAt().Equal(want) {
		t.Errorf("NextRTCPAt() = %s, want %s", m.NextRTCPAt(), want)
	}
	if m.DueForRTCP(now) {
		t.Error("should not be due for RTCP immediately after construction")
	}
	if !m.DueForRTCP(want) {
		t.Error("should be due for RTCP at the scheduled time")
	}
}

func TestAdvanceRTCPTick(t *testing.T) {
	now := time.Now()
	m := newTestMedia(now, true)
	tick := now.Add(initialRTCPDelay)
	m.AdvanceRTCPTick(tick)
	want := tick.Add(5 * time.Second)
	if !m.NextRTCPAt().Equal(want) {
		t.Errorf("NextRTCPAt() after tick = %s, want %s", m.NextRTCPAt(), want)
	}
}

func TestMatchesRTPByMid(t *testing.T) {
	m := newTestMedia(time.Now(), true)
	if !m.MatchesRTP("0", true, 99) {
		t.Error("expected mid match to take priority over payload type")
	}
	if m.MatchesRTP("1", true, 0) {
		t.Error("a different mid should not match even with the right payload type")
	}
}

func TestMatchesRTPByPayloadTypeFallback(t *testing.T) {
	m := newTestMedia(time.Now(), false)
	if !m.MatchesRTP("", false, 0) {
		t.Error("expected payload-type fallback match")
	}
	if m.MatchesRTP("", false, 8) {
		t.Error("unexpected match for an unrelated payload type")
	}
}

func TestPrepareSendRTPStampsSSRCAndPT(t *testing.T) {
	m := newTestMedia(time.Now(), true)
	out := m.PrepareSendRTP(rtp.Packet{Header: rtp.Header{SequenceNumber: 1}})
	if out.SSRC != m.RtpSession().SSRC() {
		t.Errorf("SSRC = %d, want %d", out.SSRC, m.RtpSession().SSRC())
	}
	if out.PayloadType != 0 {
		t.Errorf("PayloadType = %d, want 0", out.PayloadType)
	}
	mid, ok := ReadMidExtension(&out)
	if !ok || mid != "0" {
		t.Errorf("ReadMidExtension() = %q,%v, want 0,true", mid, ok)
	}
}

func TestOwnsSSRCTracksReceivedSources(t *testing.T) {
	m := newTestMedia(time.Now(), true)
	if m.OwnsSSRC(42) {
		t.Error("should not own an SSRC it has never received from")
	}
	m.RtpSession().RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 42, SequenceNumber: 1}}, time.Now())
	if !m.OwnsSSRC(42) {
		t.Error("should own an SSRC after receiving a packet from it")
	}
}

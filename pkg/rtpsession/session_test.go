package rtpsession

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecvRTPOrdersBySequence(t *testing.T) {
	s := New(8000)
	base := time.Now()

	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 2}}, base)
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 1}}, base)
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 0}}, base)

	var order []uint16
	for {
		pkt, ok := s.PopRTP(base, 0)
		if !ok {
			break
		}
		order = append(order, pkt.SequenceNumber)
	}
	assert.Equal(t, []uint16{0, 1, 2}, order)
}

func TestRecvRTPDropsDuplicates(t *testing.T) {
	s := New(8000)
	now := time.Now()
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 5}}, now)
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 5}}, now)

	_, ok := s.PopRTP(now, 0)
	require.True(t, ok)
	_, ok = s.PopRTP(now, 0)
	assert.False(t, ok, "duplicate sequence number must not produce a second packet")
}

func TestPopRTPAfterRespectsMaxHold(t *testing.T) {
	s := New(8000)
	now := time.Now()
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 1, SequenceNumber: 1}}, now)

	hold := 20 * time.Millisecond
	_, ok := s.PopRTP(now, hold)
	assert.False(t, ok, "packet should still be held")

	d, ok := s.PopRTPAfter(now, hold)
	require.True(t, ok)
	assert.Equal(t, hold, d)

	_, ok = s.PopRTP(now.Add(hold), hold)
	assert.True(t, ok, "packet should release once the hold deadline elapses")
}

func TestWriteRtcpReportEmitsSenderReportAfterSend(t *testing.T) {
	s := New(8000)
	now := time.Now()

	s.SendRTP(rtp.Packet{Header: rtp.Header{Timestamp: 1000}, Payload: make([]byte, 160)})

	buf := make([]byte, 1500)
	n, err := s.WriteRtcpReport(now, buf)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	pkts, err := rtcp.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	sr, ok := pkts[0].(*rtcp.SenderReport)
	require.True(t, ok, "expected a SenderReport once RTP has been sent")
	assert.EqualValues(t, 1, sr.PacketCount)
	assert.EqualValues(t, 160, sr.OctetCount)
}

func TestWriteRtcpReportEmitsReceiverReportBeforeAnySend(t *testing.T) {
	s := New(8000)
	now := time.Now()
	s.RecvRTP(rtp.Packet{Header: rtp.Header{SSRC: 42, SequenceNumber: 1}}, now)

	buf := make([]byte, 1500)
	n, err := s.WriteRtcpReport(now, buf)
	require.NoError(t, err)

	pkts, err := rtcp.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	rr, ok := pkts[0].(*rtcp.ReceiverReport)
	require.True(t, ok, "expected a ReceiverReport before any RTP has been sent")
	require.Len(t, rr.Reports, 1)
	assert.EqualValues(t, 42, rr.Reports[0].SSRC)
}

func TestRecvRTCPIgnoresUnknownTypes(t *testing.T) {
	s := New(8000)
	now := time.Now()

	s.RecvRTCP([]rtcp.Packet{&rtcp.Goodbye{Sources: []uint32{7}}}, now)
	assert.NotPanics(t, func() {
		s.RecvRTCP([]rtcp.Packet{&rtcp.SourceDescription{}}, now)
	})
}

func TestRecvRTCPSenderReportRecordsLastSR(t *testing.T) {
	s := New(8000)
	now := time.Now()

	sr := &rtcp.SenderReport{SSRC: 99, NTPTime: toNTP(now)}
	s.RecvRTCP([]rtcp.Packet{sr}, now)

	r := s.remote(99)
	require.True(t, r.haveLastSR)
	assert.Equal(t, middle32(toNTP(now)), r.lastSR)
}

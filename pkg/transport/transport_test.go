package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPlainRTP(t *testing.T) *Transport {
	t.Helper()
	b := NewBuilder(1, RTP, false, false, MuxNegotiate)
	require.NoError(t, b.SetPorts("127.0.0.1", 10000, nil))
	tr, err := b.BuildFromAnswer(false, Addr{IP: "203.0.113.1", Port: 20000}, Addr{IP: "203.0.113.1", Port: 20001})
	require.NoError(t, err)
	return tr
}

func TestSendGatedOnConnectedState(t *testing.T) {
	tr := buildPlainRTP(t)

	_, _, ok := tr.SendRTP([]byte{0x80, 0x00})
	assert.False(t, ok, "must not send before Connected")

	tr.NotifySdpComplete()
	require.Equal(t, StateConnected, tr.ConnectionState())

	out, target, ok := tr.SendRTP([]byte{0x80, 0x00})
	require.True(t, ok)
	assert.Equal(t, []byte{0x80, 0x00}, out)
	assert.Equal(t, Addr{IP: "203.0.113.1", Port: 20000}, target)
}

func TestRtcpMuxConfirmedSharesAddress(t *testing.T) {
	b := NewBuilder(2, RTP, false, false, MuxNegotiate)
	require.NoError(t, b.SetPorts("127.0.0.1", 10000, nil))
	tr, err := b.BuildFromAnswer(true, Addr{IP: "203.0.113.1", Port: 20000}, Addr{})
	require.NoError(t, err)

	assert.True(t, tr.RtcpMuxActive())
	_, ok := tr.LocalRTCPPort()
	assert.False(t, ok)
}

func TestBuildFromAnswerRejectsUnconfirmedMuxUnderRequire(t *testing.T) {
	b := NewBuilder(3, RTP, false, false, MuxRequire)
	require.NoError(t, b.SetPorts("127.0.0.1", 10000, nil))
	_, err := b.BuildFromAnswer(false, Addr{}, Addr{})
	assert.Error(t, err)
}

func TestRemoveRtcpSocketCollapsesAddresses(t *testing.T) {
	b := NewBuilder(4, RTP, false, false, MuxNegotiate)
	rtcpPort := 20001
	require.NoError(t, b.SetPorts("127.0.0.1", 10000, &rtcpPort))
	tr, err := b.BuildFromAnswer(false, Addr{IP: "203.0.113.1", Port: 20000}, Addr{IP: "203.0.113.1", Port: 20001})
	require.NoError(t, err)
	require.False(t, tr.RtcpMuxActive())

	tr.RemoveRtcpSocket()
	assert.True(t, tr.RtcpMuxActive())
	assert.Equal(t, tr.remoteRTP, tr.remoteRTCP)
}

func TestBuildFromAnswerPanicsWithoutSetPorts(t *testing.T) {
	b := NewBuilder(5, RTP, false, false, MuxNegotiate)
	assert.Panics(t, func() {
		_, _ = b.BuildFromAnswer(false, Addr{}, Addr{})
	})
}

func TestDtlsSrtpRequiresHandshakeBeforeConnected(t *testing.T) {
	b := NewBuilder(6, DTLSSRTP, false, false, MuxNegotiate)
	require.NoError(t, b.SetPorts("127.0.0.1", 10000, nil))
	tr, err := b.BuildFromAnswer(true, Addr{IP: "203.0.113.1", Port: 20000}, Addr{})
	require.NoError(t, err)

	tr.NotifySdpComplete()
	assert.Equal(t, StateConnecting, tr.ConnectionState(), "DTLS-SRTP must not reach Connected on SDP completion alone")
}

func TestDemuxClassify(t *testing.T) {
	assert.Equal(t, ClassSTUN, Classify([]byte{0x00, 0x01}, false))
	assert.Equal(t, ClassDTLS, Classify([]byte{20, 0x01}, true))
	assert.Equal(t, ClassIgnore, Classify([]byte{20, 0x01}, false), "DTLS byte range ignored on non-DTLS transports")
	assert.Equal(t, ClassRTP, Classify([]byte{0x80, 0x00}, true))
	assert.Equal(t, ClassRTCP, Classify([]byte{0x80, 200}, true), "SR payload type 200 & 0x7f = 72 falls in the RTCP range")
	assert.Equal(t, ClassIgnore, Classify([]byte{}, true))
}

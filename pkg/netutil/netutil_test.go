package netutil

import "testing"

func TestCreateUDPSocketPairBindsTwoDistinctPorts(t *testing.T) {
	pair, err := CreateUDPSocketPair("127.0.0.1")
	if err != nil {
		t.Fatalf("CreateUDPSocketPair: %v", err)
	}
	defer pair.RTP.Close()
	defer pair.RTCP.Close()

	rtpPort := LocalPort(pair.RTP)
	rtcpPort := LocalPort(pair.RTCP)
	if rtpPort == 0 || rtcpPort == 0 {
		t.Fatalf("expected non-zero ports, got rtp=%d rtcp=%d", rtpPort, rtcpPort)
	}
	if rtpPort == rtcpPort {
		t.Error("expected the RTP and RTCP sockets to bind distinct ports")
	}
}

func TestCreateSingleUDPSocket(t *testing.T) {
	conn, err := CreateSingleUDPSocket("127.0.0.1")
	if err != nil {
		t.Fatalf("CreateSingleUDPSocket: %v", err)
	}
	defer conn.Close()
	if LocalPort(conn) == 0 {
		t.Error("expected a non-zero bound port")
	}
}

func TestLocalPortNilConn(t *testing.T) {
	if LocalPort(nil) != 0 {
		t.Error("LocalPort(nil) should return 0")
	}
}

func TestApplyVoiceQoS(t *testing.T) {
	conn, err := CreateSingleUDPSocket("127.0.0.1")
	if err != nil {
		t.Fatalf("CreateSingleUDPSocket: %v", err)
	}
	defer conn.Close()
	// Best effort across platforms: the call must not panic, regardless
	// of whether this platform's applyDSCP implementation is wired.
	_ = ApplyVoiceQoS(conn, DSCPExpeditedForwarding)
}

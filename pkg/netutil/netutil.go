// Package netutil provides the adapter-side socket helpers the core
// itself never calls (spec §1's "core never opens sockets"
// non-goal): binding the UDP socket pair a transport change requests
// and applying DSCP QoS marking for voice/video traffic, adapted from
// the teacher's pkg/rtp/transport_common.go and
// transport_socket_{linux,darwin,windows}.go.
package netutil

import (
	"fmt"
	"net"
)

// DSCP classes used for RTP/RTCP QoS marking, RFC 4594.
const (
	DSCPExpeditedForwarding = 46 // EF — interactive audio
	DSCPAssuredForwarding   = 34 // AF41 — streaming video
	DSCPBestEffort          = 0
)

// VoiceOptimizedRecvBuffer and VoiceOptimizedSendBuffer are the socket
// buffer sizes the teacher sizes voice sockets to — enough to absorb
// several seconds of G.711 without a send stalling.
const (
	VoiceOptimizedRecvBuffer = 65535
	VoiceOptimizedSendBuffer = 65535
)

// SocketPair is the pair of bound UDP sockets a CreateSocketPair
// transport change (spec §4.6) asks an adapter to create: one for
// RTP, one for RTCP. The two ports are chosen independently and are
// not necessarily adjacent.
type SocketPair struct {
	RTP  *net.UDPConn
	RTCP *net.UDPConn
}

// CreateUDPSocketPair binds two UDP sockets on ip, letting the kernel
// choose ports, and applies voice-optimized buffer sizes. The caller
// feeds the resulting ports back to SessionState.SetTransportPorts.
func CreateUDPSocketPair(ip string) (SocketPair, error) {
	rtpConn, err := bindUDP(ip)
	if err != nil {
		return SocketPair{}, fmt.Errorf("netutil: bind rtp socket: %w", err)
	}
	rtcpConn, err := bindUDP(ip)
	if err != nil {
		rtpConn.Close()
		return SocketPair{}, fmt.Errorf("netutil: bind rtcp socket: %w", err)
	}
	if err := tuneVoiceBuffers(rtpConn); err != nil {
		rtpConn.Close()
		rtcpConn.Close()
		return SocketPair{}, err
	}
	if err := tuneVoiceBuffers(rtcpConn); err != nil {
		rtpConn.Close()
		rtcpConn.Close()
		return SocketPair{}, err
	}
	return SocketPair{RTP: rtpConn, RTCP: rtcpConn}, nil
}

// CreateSingleUDPSocket binds one UDP socket, for the rtcp-mux
// CreateSocket (not Pair) transport change.
func CreateSingleUDPSocket(ip string) (*net.UDPConn, error) {
	conn, err := bindUDP(ip)
	if err != nil {
		return nil, fmt.Errorf("netutil: bind socket: %w", err)
	}
	if err := tuneVoiceBuffers(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func bindUDP(ip string) (*net.UDPConn, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: 0}
	return net.ListenUDP("udp", addr)
}

func tuneVoiceBuffers(conn *net.UDPConn) error {
	if err := conn.SetReadBuffer(VoiceOptimizedRecvBuffer); err != nil {
		return fmt.Errorf("netutil: set read buffer: %w", err)
	}
	if err := conn.SetWriteBuffer(VoiceOptimizedSendBuffer); err != nil {
		return fmt.Errorf("netutil: set write buffer: %w", err)
	}
	return nil
}

// LocalPort extracts the bound port of a UDP socket, for replying to
// a CreateSocket(Pair) transport change.
func LocalPort(conn *net.UDPConn) int {
	if conn == nil {
		return 0
	}
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}

// ApplyVoiceQoS marks conn's outgoing packets with dscp via the
// platform-specific socket option (see
// netutil_linux.go/netutil_darwin.go/netutil_windows.go). Only those
// three platforms define applyDSCP; there is no fallback for others.
func ApplyVoiceQoS(conn *net.UDPConn, dscp int) error {
	return applyDSCP(conn, dscp)
}

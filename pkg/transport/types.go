// Package transport implements the transport layer described in
// spec §4.2: a built Transport (RTP/SDES-SRTP/DTLS-SRTP) or a
// TransportBuilder awaiting peer confirmation, connection-state
// tracking, datagram demultiplexing, and SRTP-gated send.
//
// The package never opens a socket itself — callers own all network
// I/O and hand datagrams to Classify and ReceiveRTP/ReceiveRTCP, and
// write to the wire the bytes SendRTP/SendRTCP produce.
package transport

import "fmt"

// ID identifies one Transport or TransportBuilder within a session.
// The zero value is never a valid id.
type ID uint64

// Type is the transport's security profile, spec §4.2.
type Type int

const (
	RTP Type = iota
	SDESSRTP
	DTLSSRTP
)

func (t Type) String() string {
	switch t {
	case RTP:
		return "RTP"
	case SDESSRTP:
		return "SDES-SRTP"
	case DTLSSRTP:
		return "DTLS-SRTP"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Encrypted reports whether packets on this transport type must be
// SRTP-protected before they leave the core.
func (t Type) Encrypted() bool {
	return t == SDESSRTP || t == DTLSSRTP
}

// ConnectionState projects the transport's fsm state, spec §4.2:
// New → Connecting → Connected, terminal Failed.
type ConnectionState int

const (
	StateNew ConnectionState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
}

// Component distinguishes the RTP and RTCP legs of a transport for
// the purposes of send addressing and demultiplexing.
type Component int

const (
	ComponentRTP Component = iota
	ComponentRTCP
)

// RtcpMuxPolicy controls how aggressively rtcp-mux is offered,
// spec §4.2/§4.6.
type RtcpMuxPolicy int

const (
	// MuxNegotiate offers both a dedicated RTCP port and a=rtcp-mux,
	// accepting whichever the answer confirms.
	MuxNegotiate RtcpMuxPolicy = iota
	// MuxRequire offers only a=rtcp-mux and rejects a transport whose
	// answer doesn't confirm it.
	MuxRequire
)

// Addr is a destination the caller must resolve to its own transport
// addressing (ICE candidate, plain socket, etc). It carries only what
// the core knows: the negotiated IP/port pair from SDP.
type Addr struct {
	IP   string
	Port int
}

func (a Addr) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// IsZero reports whether this address was never set.
func (a Addr) IsZero() bool {
	return a.IP == "" && a.Port == 0
}

// GatheringState mirrors the ICE agent's candidate-gathering progress.
type GatheringState int

const (
	GatheringNew GatheringState = iota
	GatheringGathering
	GatheringComplete
)

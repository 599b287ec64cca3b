package transport

import (
	"context"

	"github.com/looplab/fsm"
)

// fsm state/event names. Kept lower_snake_case to match the teacher's
// dialog-layer fsm usage (pkg/dialog/refer_fsm.go).
const (
	stNew        = "new"
	stConnecting = "connecting"
	stConnected  = "connected"
	stFailed     = "failed"

	evIceConnect        = "ice_connect"
	evDtlsHandshakeDone = "dtls_handshake_done"
	evDtlsFail          = "dtls_fail"
	evSdpComplete       = "sdp_complete"
)

// connState wraps looplab/fsm to drive a Transport's connection
// state, spec §4.2's "New → Connecting → Connected, terminal Failed".
type connState struct {
	f *fsm.FSM
}

func newConnState() *connState {
	return &connState{
		f: fsm.NewFSM(
			stNew,
			fsm.Events{
				{Name: evSdpComplete, Src: []string{stNew}, Dst: stConnecting},
				{Name: evIceConnect, Src: []string{stNew, stConnecting}, Dst: stConnecting},
				{Name: evDtlsHandshakeDone, Src: []string{stNew, stConnecting}, Dst: stConnected},
				{Name: evDtlsFail, Src: []string{stNew, stConnecting, stConnected}, Dst: stFailed},
			},
			nil,
		),
	}
}

func (c *connState) state() ConnectionState {
	switch c.f.Current() {
	case stNew:
		return StateNew
	case stConnecting:
		return StateConnecting
	case stConnected:
		return StateConnected
	case stFailed:
		return StateFailed
	default:
		return StateNew
	}
}

// fire applies an event, ignoring fsm.InvalidEventError (an
// out-of-order or redundant event is a no-op here, not a bug — e.g. a
// plain-RTP transport that never sees a DTLS event at all).
func (c *connState) fire(event string) {
	_ = c.f.Event(context.Background(), event)
}

// markSdpComplete transitions plain-RTP/SDES-SRTP transports straight
// toward Connected once SDP exchange finishes, per spec §4.2: "For
// plain RTP and SDES-SRTP, Connected is reached as soon as SDP
// exchange completes (and ICE, if present, connects)."
func (c *connState) markSdpComplete(iceRequired bool) {
	c.fire(evSdpComplete)
	if !iceRequired {
		c.fire(evDtlsHandshakeDone)
	}
}

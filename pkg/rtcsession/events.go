package rtcsession

import (
	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// EventKind discriminates Event's payload, mirroring the Rust Event
// enum's variants (spec §4.6/original_source events.rs).
type EventKind int

const (
	EventMediaAdded EventKind = iota
	EventMediaChanged
	EventMediaRemoved
	EventIceGatheringState
	EventIceConnectionState
	EventTransportConnectionState
	EventSendData
	EventReceiveRTP
)

func (k EventKind) String() string {
	switch k {
	case EventMediaAdded:
		return "media_added"
	case EventMediaChanged:
		return "media_changed"
	case EventMediaRemoved:
		return "media_removed"
	case EventIceGatheringState:
		return "ice_gathering_state"
	case EventIceConnectionState:
		return "ice_connection_state"
	case EventTransportConnectionState:
		return "transport_connection_state"
	case EventSendData:
		return "send_data"
	case EventReceiveRTP:
		return "receive_rtp"
	default:
		return "unknown"
	}
}

// MediaAddedData carries the negotiated parameters of a newly active Media.
type MediaAddedData struct {
	ID           media.ID
	TransportID  transport.ID
	LocalMediaID localmedia.ID
	Direction    sdpdir.Direction
	Codec        codec.NegotiatedCodec
}

// MediaChangedData reports a direction renegotiation on an existing Media.
type MediaChangedData struct {
	ID            media.ID
	OldDirection  sdpdir.Direction
	NewDirection  sdpdir.Direction
}

// TransportConnectionStateData reports a transport's fsm transition.
type TransportConnectionStateData struct {
	TransportID transport.ID
	Old, New    transport.ConnectionState
}

// IceGatheringStateData reports an ICE agent's gathering progress change.
type IceGatheringStateData struct {
	TransportID transport.ID
	Old, New    transport.GatheringState
}

// IceConnectionStateData reports an ICE agent's connectivity-check progress.
type IceConnectionStateData struct {
	TransportID transport.ID
	Old, New    transport.ConnectionState
}

// SendDataData is emitted whenever a transport has bytes ready to
// leave the process; the caller owns the actual socket write.
type SendDataData struct {
	TransportID transport.ID
	Component   transport.Component
	Data        []byte
	Target      transport.Addr
}

// ReceiveRTPData is emitted once per RTP packet released by a Media's
// jitter buffer, ready for the caller's decoder pipeline.
type ReceiveRTPData struct {
	MediaID media.ID
	Packet  rtp.Packet
}

// Event is one occurrence surfaced by PopEvent. Exactly one of the
// typed fields matching Kind is populated; this mirrors the Rust
// Event enum as a Go tagged union rather than an interface hierarchy,
// since every variant is a plain data record with no distinct
// behavior attached.
type Event struct {
	Kind EventKind

	MediaAdded               *MediaAddedData
	MediaChanged             *MediaChangedData
	MediaRemoved             media.ID
	IceGatheringState        *IceGatheringStateData
	IceConnectionState       *IceConnectionStateData
	TransportConnectionState *TransportConnectionStateData
	SendData                 *SendDataData
	ReceiveRTP               *ReceiveRTPData
}

// TransportChangeKind discriminates TransportChange (spec §4.2/§4.6).
type TransportChangeKind int

const (
	// TransportCreateSocket requests one UDP socket for rtcp-mux use.
	TransportCreateSocket TransportChangeKind = iota
	// TransportCreateSocketPair requests separate RTP/RTCP sockets.
	TransportCreateSocketPair
	// TransportRemove requests the transport's resources be released.
	TransportRemove
	// TransportRemoveRtcpSocket requests the dedicated RTCP socket be
	// closed after a confirmed rtcp-mux downgrade.
	TransportRemoveRtcpSocket
)

func (k TransportChangeKind) String() string {
	switch k {
	case TransportCreateSocket:
		return "create_socket"
	case TransportCreateSocketPair:
		return "create_socket_pair"
	case TransportRemove:
		return "remove"
	case TransportRemoveRtcpSocket:
		return "remove_rtcp_socket"
	default:
		return "unknown"
	}
}

// TransportChange is one pending side effect the caller must apply
// (bind sockets, tear down resources) before the next SDP offer/answer
// can be created, per spec §4.2/§5.
type TransportChange struct {
	Kind        TransportChangeKind
	TransportID transport.ID
}

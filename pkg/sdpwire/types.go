// Package sdpwire предоставляет типизированное представление SDP
// поверх github.com/pion/sdp/v3. Эта библиотека хранит атрибуты как
// плоский список Attribute{Key, Value} и не разбирает семантику
// rtpmap/fmtp/mid/group/ice-ufrag/setup/fingerprint — как и в
// pkg/manager_media и pkg/media_sdp тичера, разбор этих атрибутов
// делается вручную поверх общей модели.
package sdpwire

import "github.com/arzzra/rtcmedia/pkg/sdpdir"

// TransportProtocol перечисляет протокольные токены m-line, понимаемые
// ядром (RFC 3264 + RFC 5764).
type TransportProtocol int

const (
	Unspecified TransportProtocol = iota
	RtpAvp
	RtpAvpf
	RtpSavp
	RtpSavpf
	UdpTlsRtpSavp
	UdpTlsRtpSavpf
)

func (p TransportProtocol) String() string {
	switch p {
	case RtpAvp:
		return "RTP/AVP"
	case RtpAvpf:
		return "RTP/AVPF"
	case RtpSavp:
		return "RTP/SAVP"
	case RtpSavpf:
		return "RTP/SAVPF"
	case UdpTlsRtpSavp:
		return "UDP/TLS/RTP/SAVP"
	case UdpTlsRtpSavpf:
		return "UDP/TLS/RTP/SAVPF"
	default:
		return "RTP/AVP"
	}
}

// IsAVPF reports whether the protocol is one of the feedback-profile
// variants (RFC 4585).
func (p TransportProtocol) IsAVPF() bool {
	switch p {
	case RtpAvpf, RtpSavpf, UdpTlsRtpSavpf:
		return true
	default:
		return false
	}
}

// IsEncrypted reports whether the protocol implies SRTP.
func (p TransportProtocol) IsEncrypted() bool {
	switch p {
	case RtpSavp, RtpSavpf, UdpTlsRtpSavp, UdpTlsRtpSavpf:
		return true
	default:
		return false
	}
}

// IsDTLS reports whether the protocol implies a DTLS-SRTP transport.
func (p TransportProtocol) IsDTLS() bool {
	return p == UdpTlsRtpSavp || p == UdpTlsRtpSavpf
}

// ParseTransportProtocol maps the slash-joined m-line proto tokens
// (pion/sdp splits "RTP/AVP" into []string{"RTP","AVP"}) to a
// TransportProtocol. ok is false for an unrecognized combination.
func ParseTransportProtocol(tokens []string) (TransportProtocol, bool) {
	switch joinProto(tokens) {
	case "RTP/AVP":
		return RtpAvp, true
	case "RTP/AVPF":
		return RtpAvpf, true
	case "RTP/SAVP":
		return RtpSavp, true
	case "RTP/SAVPF":
		return RtpSavpf, true
	case "UDP/TLS/RTP/SAVP":
		return UdpTlsRtpSavp, true
	case "UDP/TLS/RTP/SAVPF":
		return UdpTlsRtpSavpf, true
	default:
		return Unspecified, false
	}
}

func joinProto(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += "/"
		}
		out += t
	}
	return out
}

// ProtosTokens splits a TransportProtocol back into the token slice
// pion/sdp/v3's MediaName.Protos expects.
func (p TransportProtocol) ProtosTokens() []string {
	switch p {
	case RtpAvp:
		return []string{"RTP", "AVP"}
	case RtpAvpf:
		return []string{"RTP", "AVPF"}
	case RtpSavp:
		return []string{"RTP", "SAVP"}
	case RtpSavpf:
		return []string{"RTP", "SAVPF"}
	case UdpTlsRtpSavp:
		return []string{"UDP", "TLS", "RTP", "SAVP"}
	case UdpTlsRtpSavpf:
		return []string{"UDP", "TLS", "RTP", "SAVPF"}
	default:
		return []string{"RTP", "AVP"}
	}
}

// RtpMap is a parsed a=rtpmap:<pt> <name>/<clockrate>[/<channels>] line.
type RtpMap struct {
	PT        uint8
	Name      string
	ClockRate uint32
	Channels  uint8
}

// Fmtp is a parsed a=fmtp:<pt> <params> line.
type Fmtp struct {
	PT     uint8
	Params string
}

// Group is a parsed a=group:<type> <mid> <mid> ... line.
type Group struct {
	Type string
	Mids []string
}

// Setup is the DTLS a=setup role (RFC 4145/5763).
type Setup int

const (
	SetupNone Setup = iota
	SetupActive
	SetupPassive
	SetupActPass
	SetupHoldConn
)

func (s Setup) String() string {
	switch s {
	case SetupActive:
		return "active"
	case SetupPassive:
		return "passive"
	case SetupActPass:
		return "actpass"
	case SetupHoldConn:
		return "holdconn"
	default:
		return ""
	}
}

func ParseSetup(v string) (Setup, bool) {
	switch v {
	case "active":
		return SetupActive, true
	case "passive":
		return SetupPassive, true
	case "actpass":
		return SetupActPass, true
	case "holdconn":
		return SetupHoldConn, true
	default:
		return SetupNone, false
	}
}

// Fingerprint is a parsed a=fingerprint:<algo> <digest> line.
type Fingerprint struct {
	Algorithm string
	Digest    string
}

// RtcpAttr is a parsed a=rtcp:<port> line (RFC 3605).
type RtcpAttr struct {
	Port    int
	Address string // empty if not present
}

// ExtMap is a parsed a=extmap:<id> <uri> line (RFC 5285).
type ExtMap struct {
	ID  int
	URI string
}

// MediaDescription is the typed view of one remote or local m-line.
type MediaDescription struct {
	MediaType  string // "audio", "video", "application", raw token
	Port       int
	Proto      TransportProtocol
	Formats    []string
	Mid        string
	HasMid     bool
	Direction  sdpdir.Direction
	RtpMaps    []RtpMap
	Fmtps      []Fmtp
	RtcpMux    bool
	Rtcp       *RtcpAttr
	IceUfrag   string
	IcePwd     string
	Setup      Setup
	HasSetup   bool
	Fingerprints []Fingerprint
	ExtMaps    []ExtMap
	Candidates []string // raw a=candidate values, opaque to the core
	EndOfCandidates bool
	ConnAddress string // c= address at media level, if any
}

// FindFmtp returns the fmtp params for the given payload type, if any.
func (m *MediaDescription) FindFmtp(pt uint8) (string, bool) {
	for _, f := range m.Fmtps {
		if f.PT == pt {
			return f.Params, true
		}
	}
	return "", false
}

// SessionDescription is the typed view of a whole SDP document.
type SessionDescription struct {
	ConnAddress string
	Groups      []Group
	IceUfrag    string
	IcePwd      string
	MediaDescriptions []MediaDescription
}

// FindBundleGroup returns the BUNDLE group containing mid, if any.
func (s *SessionDescription) FindBundleGroup(mid string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Type != "BUNDLE" {
			continue
		}
		for _, m := range g.Mids {
			if m == mid {
				return g, true
			}
		}
	}
	return Group{}, false
}

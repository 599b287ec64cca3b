package sdpwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/pion/sdp/v3"
)

// MediaDescParams is everything needed to serialize one outgoing
// m-line, either active or rejected.
type MediaDescParams struct {
	Rejected  bool // true emits a port-0 m-line preserving MediaType/Mid
	MediaType string
	Port      int
	Proto     TransportProtocol
	Formats   []string

	Mid    string
	HasMid bool

	Direction sdpdir.Direction

	RtpMaps []RtpMap
	Fmtps   []Fmtp

	RtcpMux bool
	// RtcpPort is nil when rtcp-mux is active (no separate RTCP socket).
	RtcpPort *int

	ConnAddress string // empty = inherit session-level connection

	IceUfrag, IcePwd string
	Candidates       []string
	EndOfCandidates  bool

	HasSetup bool
	Setup    Setup

	Fingerprints []Fingerprint
	ExtMaps      []ExtMap
}

// BuildMediaDescription serializes one m-line to pion/sdp/v3's model.
func BuildMediaDescription(p MediaDescParams) *sdp.MediaDescription {
	if p.Rejected {
		md := &sdp.MediaDescription{
			MediaName: sdp.MediaName{
				Media:   p.MediaType,
				Port:    sdp.RangedPort{Value: 0},
				Protos:  RtpAvp.ProtosTokens(),
				Formats: []string{"0"},
			},
		}
		if p.HasMid {
			md.Attributes = append(md.Attributes, sdp.NewAttribute("mid", p.Mid))
		}
		return md
	}

	md := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   p.MediaType,
			Port:    sdp.RangedPort{Value: p.Port},
			Protos:  p.Proto.ProtosTokens(),
			Formats: p.Formats,
		},
	}

	if p.ConnAddress != "" {
		md.ConnectionInformation = &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: p.ConnAddress},
		}
	}

	md.Attributes = append(md.Attributes, sdp.NewPropertyAttribute(p.Direction.String()))

	if p.HasMid {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("mid", p.Mid))
	}

	for _, rm := range p.RtpMaps {
		val := fmt.Sprintf("%d %s/%d", rm.PT, rm.Name, rm.ClockRate)
		if rm.Channels > 0 {
			val += fmt.Sprintf("/%d", rm.Channels)
		}
		md.Attributes = append(md.Attributes, sdp.NewAttribute("rtpmap", val))
	}

	for _, f := range p.Fmtps {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("fmtp", fmt.Sprintf("%d %s", f.PT, f.Params)))
	}

	if p.RtcpMux {
		md.Attributes = append(md.Attributes, sdp.NewPropertyAttribute("rtcp-mux"))
	}
	if p.RtcpPort != nil {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("rtcp", strconv.Itoa(*p.RtcpPort)))
	}

	if p.IceUfrag != "" {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("ice-ufrag", p.IceUfrag))
		md.Attributes = append(md.Attributes, sdp.NewAttribute("ice-pwd", p.IcePwd))
	}
	for _, c := range p.Candidates {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("candidate", c))
	}
	if p.EndOfCandidates {
		md.Attributes = append(md.Attributes, sdp.NewPropertyAttribute("end-of-candidates"))
	}

	if p.HasSetup {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("setup", p.Setup.String()))
	}
	for _, fp := range p.Fingerprints {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("fingerprint", fp.Algorithm+" "+fp.Digest))
	}
	for _, em := range p.ExtMaps {
		md.Attributes = append(md.Attributes, sdp.NewAttribute("extmap", fmt.Sprintf("%d %s", em.ID, em.URI)))
	}

	return md
}

// SessionDescParams holds session-level fields for BuildSessionDescription.
type SessionDescParams struct {
	ID, Version uint64
	Address     string
	Groups      []Group
	IceUfrag    string
	IcePwd      string
	Medias      []*sdp.MediaDescription
}

// BuildSessionDescription assembles a full pion/sdp/v3 document from
// already-built m-lines.
func BuildSessionDescription(p SessionDescParams) *sdp.SessionDescription {
	sess := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      p.ID,
			SessionVersion: p.Version,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: p.Address,
		},
		SessionName: "-",
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: p.Address},
		},
		TimeDescriptions:  []sdp.TimeDescription{{Timing: sdp.Timing{StartTime: 0, StopTime: 0}}},
		MediaDescriptions: p.Medias,
	}

	sess.Attributes = append(sess.Attributes, sdp.NewPropertyAttribute("extmap-allow-mixed"))

	for _, g := range p.Groups {
		if len(g.Mids) == 0 {
			continue
		}
		sess.Attributes = append(sess.Attributes, sdp.NewAttribute("group", g.Type+" "+strings.Join(g.Mids, " ")))
	}

	if p.IceUfrag != "" {
		sess.Attributes = append(sess.Attributes, sdp.NewAttribute("ice-ufrag", p.IceUfrag))
		sess.Attributes = append(sess.Attributes, sdp.NewAttribute("ice-pwd", p.IcePwd))
	}

	return sess
}

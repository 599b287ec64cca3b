package sdpwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/pion/sdp/v3"
)

// ParseSessionDescription converts a pion/sdp/v3 document into the
// typed view the negotiator operates on.
func ParseSessionDescription(sd *sdp.SessionDescription) (*SessionDescription, error) {
	out := &SessionDescription{}

	if sd.ConnectionInformation != nil && sd.ConnectionInformation.Address != nil {
		out.ConnAddress = sd.ConnectionInformation.Address.Address
	}

	for _, attr := range sd.Attributes {
		switch attr.Key {
		case "group":
			if g, ok := parseGroup(attr.Value); ok {
				out.Groups = append(out.Groups, g)
			}
		case "ice-ufrag":
			out.IceUfrag = attr.Value
		case "ice-pwd":
			out.IcePwd = attr.Value
		}
	}

	for i, md := range sd.MediaDescriptions {
		parsed, err := parseMediaDescription(md)
		if err != nil {
			return nil, fmt.Errorf("sdpwire: m-line %d: %w", i, err)
		}
		out.MediaDescriptions = append(out.MediaDescriptions, parsed)
	}

	return out, nil
}

func parseGroup(value string) (Group, bool) {
	fields := strings.Fields(value)
	if len(fields) < 1 {
		return Group{}, false
	}
	return Group{Type: fields[0], Mids: fields[1:]}, true
}

func parseMediaDescription(md *sdp.MediaDescription) (MediaDescription, error) {
	out := MediaDescription{
		MediaType: md.MediaName.Media,
		Port:      md.MediaName.Port.Value,
		Formats:   md.MediaName.Formats,
		Direction: sdpdir.SendRecv,
	}

	proto, ok := ParseTransportProtocol(md.MediaName.Protos)
	if !ok {
		return MediaDescription{}, fmt.Errorf("unsupported transport protocol %q", strings.Join(md.MediaName.Protos, "/"))
	}
	out.Proto = proto

	if md.ConnectionInformation != nil && md.ConnectionInformation.Address != nil {
		out.ConnAddress = md.ConnectionInformation.Address.Address
	}

	for _, attr := range md.Attributes {
		switch attr.Key {
		case "sendrecv", "sendonly", "recvonly", "inactive":
			if d, ok := sdpdir.ParseAttribute(attr.Key); ok {
				out.Direction = d
			}
		case "mid":
			out.Mid = attr.Value
			out.HasMid = true
		case "rtpmap":
			if rm, ok := parseRtpMap(attr.Value); ok {
				out.RtpMaps = append(out.RtpMaps, rm)
			}
		case "fmtp":
			if f, ok := parseFmtp(attr.Value); ok {
				out.Fmtps = append(out.Fmtps, f)
			}
		case "rtcp-mux":
			out.RtcpMux = true
		case "rtcp":
			if r, ok := parseRtcpAttr(attr.Value); ok {
				out.Rtcp = &r
			}
		case "ice-ufrag":
			out.IceUfrag = attr.Value
		case "ice-pwd":
			out.IcePwd = attr.Value
		case "setup":
			if s, ok := ParseSetup(attr.Value); ok {
				out.Setup = s
				out.HasSetup = true
			}
		case "fingerprint":
			if fp, ok := parseFingerprint(attr.Value); ok {
				out.Fingerprints = append(out.Fingerprints, fp)
			}
		case "extmap":
			if em, ok := parseExtMap(attr.Value); ok {
				out.ExtMaps = append(out.ExtMaps, em)
			}
		case "candidate":
			out.Candidates = append(out.Candidates, attr.Value)
		case "end-of-candidates":
			out.EndOfCandidates = true
		}
	}

	return out, nil
}

func parseRtpMap(value string) (RtpMap, bool) {
	// "<pt> <name>/<clockrate>[/<channels>]"
	fields := strings.SplitN(value, " ", 2)
	if len(fields) != 2 {
		return RtpMap{}, false
	}
	ptVal, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return RtpMap{}, false
	}
	parts := strings.Split(fields[1], "/")
	if len(parts) < 2 {
		return RtpMap{}, false
	}
	clockRate, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return RtpMap{}, false
	}
	var channels uint8
	if len(parts) >= 3 {
		if c, err := strconv.ParseUint(parts[2], 10, 8); err == nil {
			channels = uint8(c)
		}
	}
	return RtpMap{PT: uint8(ptVal), Name: parts[0], ClockRate: uint32(clockRate), Channels: channels}, true
}

func parseFmtp(value string) (Fmtp, bool) {
	fields := strings.SplitN(value, " ", 2)
	ptVal, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return Fmtp{}, false
	}
	params := ""
	if len(fields) == 2 {
		params = fields[1]
	}
	return Fmtp{PT: uint8(ptVal), Params: params}, true
}

func parseRtcpAttr(value string) (RtcpAttr, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return RtcpAttr{}, false
	}
	port, err := strconv.Atoi(fields[0])
	if err != nil {
		return RtcpAttr{}, false
	}
	out := RtcpAttr{Port: port}
	if len(fields) >= 4 {
		out.Address = fields[3]
	}
	return out, true
}

func parseFingerprint(value string) (Fingerprint, bool) {
	fields := strings.SplitN(value, " ", 2)
	if len(fields) != 2 {
		return Fingerprint{}, false
	}
	return Fingerprint{Algorithm: fields[0], Digest: fields[1]}, true
}

func parseExtMap(value string) (ExtMap, bool) {
	fields := strings.SplitN(value, " ", 2)
	if len(fields) != 2 {
		return ExtMap{}, false
	}
	idStr := fields[0]
	if idx := strings.Index(idStr, "/"); idx >= 0 {
		idStr = idStr[:idx]
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return ExtMap{}, false
	}
	return ExtMap{ID: id, URI: fields[1]}, true
}

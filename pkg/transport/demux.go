package transport

// Class classifies one inbound datagram per spec §4.2's demux rule.
type Class int

const (
	ClassIgnore Class = iota
	ClassSTUN
	ClassDTLS
	ClassRTP
	ClassRTCP
)

// Classify applies spec §4.2's demultiplex rule to the first bytes of
// an inbound datagram. dtlsCapable must be true only for DTLS-SRTP
// transports (plain RTP/SDES-SRTP never see DTLS records).
func Classify(data []byte, dtlsCapable bool) Class {
	if len(data) == 0 {
		return ClassIgnore
	}
	first := data[0]
	switch {
	case first <= 3:
		return ClassSTUN
	case dtlsCapable && first >= 20 && first <= 63:
		return ClassDTLS
	case first >= 128 && first <= 191:
		return classifyRTPOrRTCP(data)
	default:
		return ClassIgnore
	}
}

// classifyRTPOrRTCP applies the rtcp-mux second-byte payload-type
// rule: RTCP packet types 192..223 (SR=200, RR=201, ...) with the top
// bit masked off fall in 64..95, so those values are RTCP, else RTP.
func classifyRTPOrRTCP(data []byte) Class {
	if len(data) < 2 {
		return ClassRTP
	}
	pt := data[1] & 0x7f
	if pt >= 64 && pt <= 95 {
		return ClassRTCP
	}
	return ClassRTP
}

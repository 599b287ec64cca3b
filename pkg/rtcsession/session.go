// Package rtcsession implements SessionState (spec §4.6) and the
// SdpNegotiator algorithm (spec §4.5): the synchronous, poll-driven
// facade that ties LocalMedia, Media, and Transport into one SDP
// offer/answer session, grounded directly on
// original_source/media/rtc/src/state/{mod,sdp,media}.rs.
package rtcsession

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/metrics"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// BundlePolicy controls how a locally-initiated offer groups media
// onto transports (spec §4.5/§9).
type BundlePolicy int

const (
	// MaxCompat offers a standalone transport for every media line in
	// addition to a shared bundle transport, so a peer without BUNDLE
	// support still gets working media.
	MaxCompat BundlePolicy = iota
	// MaxBundle offers only the shared bundle transport. If the peer's
	// answer doesn't confirm BUNDLE, negotiation fails per spec §9's
	// resolved Open Question (an *Error, not a panic).
	MaxBundle
)

// Options configures a SessionState at construction (spec §4.6).
type Options struct {
	OfferICE       bool
	OfferAVPF      bool
	OfferTransport transport.Type
	RtcpMuxPolicy  transport.RtcpMuxPolicy
	BundlePolicy   BundlePolicy
	Logger         *slog.Logger
}

// transportEntry holds either a finished Transport or a
// TransportBuilder awaiting SetTransportPorts/peer confirmation,
// mirroring the Rust TransportEntry enum (mod.rs).
type transportEntry struct {
	built    *transport.Transport
	building *transport.TransportBuilder
}

func (e *transportEntry) id() transport.ID {
	if e.built != nil {
		return e.built.ID()
	}
	return e.building.ID()
}

func (e *transportEntry) typ() transport.Type {
	if e.built != nil {
		return e.built.Type()
	}
	return e.building.Type()
}

// unwrap returns the built Transport, panicking if it is still a
// builder — mirroring TransportEntry::unwrap's documented API
// contract (mod.rs): accessing an incomplete transport is caller
// misuse, not a recoverable error.
func (e *transportEntry) unwrap() *transport.Transport {
	if e.built == nil {
		panic("rtcsession: tried to access incomplete transport")
	}
	return e.built
}

// pendingMedia is a not-yet-confirmed AddMedia request (spec §4.5.3).
type pendingMedia struct {
	id                  media.ID
	localMediaID        localmedia.ID
	mediaType           codec.MediaType
	mid                 string
	direction           sdpdir.Direction
	useAVPF             bool
	standaloneTransport *transport.ID
	bundleTransport     transport.ID
}

type pendingChangeKind int

const (
	pcAddMedia pendingChangeKind = iota
	pcRemoveMedia
	pcChangeDirection
)

type pendingChange struct {
	kind          pendingChangeKind
	addMedia      *pendingMedia
	removeMediaID media.ID
	changeMediaID media.ID
	newDirection  sdpdir.Direction
}

// SessionState is the facade described by spec §4.6: it owns every
// LocalMedia, Media, and Transport in one SDP/RTP session and exposes
// the offer/answer and poll/event surface an adapter drives.
type SessionState struct {
	opts Options
	log  *slog.Logger

	id      uint64
	version uint64
	address string

	ptAlloc *codec.DynamicPTAllocator

	nextLocalMediaID localmedia.ID
	localMedia       map[localmedia.ID]*localmedia.LocalMedia
	localMediaOrder  []localmedia.ID

	nextMediaID media.ID
	activeMedia []*media.Media

	nextTransportID transport.ID
	transports      map[transport.ID]*transportEntry
	transportOrder  []transport.ID

	pendingChanges   []pendingChange
	transportChanges []TransportChange
	events           []Event

	// pendingRemote stashes the remote RTP/RTCP address and rtcp-mux
	// confirmation recorded while processing an incoming offer, used to
	// finalize a TransportBuilder into a Transport lazily, the first
	// time CreateSdpAnswer needs it (original_source media_description_for_active
	// expects self.transports[..] to already be a built Transport).
	pendingRemote map[transport.ID]remoteInfo

	stunServers []string

	lastNegotiationErrors []error
}

// New creates an empty session. address is placed in the SDP
// connection field and used as the default candidate source when no
// ICE agent is in use (spec §4.6).
func New(address string, opts Options) *SessionState {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SessionState{
		opts:       opts,
		log:        opts.Logger,
		id:         uint64(rand.Uint32() & 0xffff),
		version:    uint64(rand.Uint32() & 0xffff),
		address:    address,
		ptAlloc:    codec.NewDynamicPTAllocator(),
		localMedia:    make(map[localmedia.ID]*localmedia.LocalMedia),
		transports:    make(map[transport.ID]*transportEntry),
		pendingRemote: make(map[transport.ID]remoteInfo),
	}
}

// AddStunServer registers a STUN server for every live and future ICE
// agent, spec §4.6's add_stun_server.
func (s *SessionState) AddStunServer(addr string) {
	s.stunServers = append(s.stunServers, addr)
	for _, id := range s.transportOrder {
		e := s.transports[id]
		var err error
		if e.built != nil {
			err = e.built.AddStunServer(addr)
		} else {
			err = e.building.AddStunServer(addr)
		}
		if err != nil {
			s.log.Debug("rtcsession.AddStunServer failed on transport", "transport_id", id, "error", err)
		}
	}
}

// HasMedia reports whether any media is active or pending, spec §4.6.
func (s *SessionState) HasMedia() bool {
	if len(s.activeMedia) > 0 {
		return true
	}
	for _, c := range s.pendingChanges {
		if c.kind == pcAddMedia {
			return true
		}
	}
	return false
}

// AddLocalMedia registers codecs for a media type with ucount limit
// and default direction (spec §4.1/§4.6). Dynamic payload types are
// assigned from the session's shared [96,127] allocator; on
// exhaustion no codec is mutated and a KindResourceExhausted *Error is
// returned.
func (s *SessionState) AddLocalMedia(mediaType codec.MediaType, codecs []codec.Codec, limit int, direction sdpdir.Direction, dtmf localmedia.DtmfPolicy) (localmedia.ID, error) {
	mark := s.ptAlloc.Checkpoint()
	assigned := append([]codec.Codec(nil), codecs...)
	if err := codec.AssignDynamicPT(s.ptAlloc, assigned); err != nil {
		return 0, newError(KindResourceExhausted, "AddLocalMedia", err)
	}

	if dtmf.Enabled && dtmf.PT == 0 {
		pt, err := s.ptAlloc.Reserve()
		if err != nil {
			s.ptAlloc.Restore(mark)
			return 0, newError(KindResourceExhausted, "AddLocalMedia", err)
		}
		dtmf.PT = pt
	}
	copy(codecs, assigned)

	s.nextLocalMediaID++
	id := s.nextLocalMediaID
	s.localMedia[id] = localmedia.New(id, mediaType, codecs, limit, direction, dtmf)
	s.localMediaOrder = append(s.localMediaOrder, id)
	return id, nil
}

// TransportChanges drains the list of pending transport side effects
// the caller must apply before the next offer/answer (spec §4.6).
func (s *SessionState) TransportChanges() []TransportChange {
	out := s.transportChanges
	s.transportChanges = nil
	return out
}

// SetTransportPorts reports the local RTP/RTCP ports bound in response
// to a CreateSocket/CreateSocketPair transport change (spec §4.6).
// rtcpPort is nil when only one socket was requested (rtcp-mux).
func (s *SessionState) SetTransportPorts(id transport.ID, ip string, rtpPort int, rtcpPort *int) error {
	e, ok := s.transports[id]
	if !ok || e.built != nil {
		return newError(KindProtocol, "SetTransportPorts", nil)
	}
	return e.building.SetPorts(ip, rtpPort, rtcpPort)
}

// Timeout reports the minimum duration the caller should wait before
// calling Poll again: the earliest RTCP tick or jitter-buffer release
// across all active Media (spec §4.6/original_source mod.rs timeout()).
func (s *SessionState) Timeout(now time.Time) (time.Duration, bool) {
	var best time.Duration
	found := false
	for _, m := range s.activeMedia {
		if d, ok := m.RtpSession().PopRTPAfter(now, 0); ok {
			if !found || d < best {
				best, found = d, true
			}
		}
		rtcpDue := m.NextRTCPAt().Sub(now)
		if rtcpDue < 0 {
			rtcpDue = 0
		}
		if !found || rtcpDue < best {
			best, found = rtcpDue, true
		}
	}
	return best, found
}

// Poll advances every active Media's jitter buffer and RTCP timer,
// queuing ReceiveRTP and SendData events (spec §4.6/original_source
// media.rs poll()).
func (s *SessionState) Poll(now time.Time) {
	for _, m := range s.activeMedia {
		if pkt, ok := m.RtpSession().PopRTP(now, 0); ok {
			s.events = append(s.events, Event{
				Kind:       EventReceiveRTP,
				ReceiveRTP: &ReceiveRTPData{MediaID: m.ID(), Packet: pkt},
			})
		}

		if !m.DueForRTCP(now) {
			continue
		}
		m.AdvanceRTCPTick(now)

		entry, ok := s.transports[m.TransportID()]
		if !ok || entry.built == nil {
			continue
		}
		t := entry.built
		if t.ConnectionState() != transport.StateConnected {
			continue
		}
		buf := make([]byte, 1500)
		n, err := m.RtpSession().WriteRtcpReport(now, buf)
		if err != nil {
			s.log.Warn("rtcsession.Poll failed to write RTCP report", "media_id", m.ID(), "error", err)
			continue
		}
		out, target, ok := t.SendRTCP(buf[:n])
		if !ok {
			continue
		}
		s.events = append(s.events, Event{
			Kind: EventSendData,
			SendData: &SendDataData{
				TransportID: t.ID(),
				Component:   transport.ComponentRTCP,
				Data:        out,
				Target:      target,
			},
		})
	}
}

// PopEvent dequeues the next pending Event, false if none remain
// (spec §4.6/mod.rs pop_event).
func (s *SessionState) PopEvent() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, true
}

// SendRTP stamps pkt with mediaID's negotiated SSRC/payload type and
// returns the wire bytes and destination address for the caller to
// write. It panics if mediaID or its transport are not found or not
// yet built, per spec §7's documented "API misuse" policy (mirrors
// mod.rs send_rtp's unwrap()).
func (s *SessionState) SendRTP(mediaID media.ID, pkt rtp.Packet) (data []byte, target transport.Addr, ok bool) {
	m, _ := s.findMedia(mediaID)
	if m == nil {
		panic("rtcsession: SendRTP called with unknown media id")
	}
	entry, found := s.transports[m.TransportID()]
	if !found {
		panic("rtcsession: SendRTP called with media bound to unknown transport")
	}
	t := entry.unwrap()

	prepared := m.PrepareSendRTP(pkt)
	marshaled, err := prepared.Marshal()
	if err != nil {
		s.log.Warn("rtcsession.SendRTP failed to marshal packet", "media_id", mediaID, "error", err)
		return nil, transport.Addr{}, false
	}
	return t.SendRTP(marshaled)
}

// MediaSamples implements metrics.Source, reporting one sample per
// active Media for Prometheus collection (spec §4.6's optional wiring).
func (s *SessionState) MediaSamples() []metrics.MediaSample {
	out := make([]metrics.MediaSample, 0, len(s.activeMedia))
	for _, m := range s.activeMedia {
		sent, sentOctets, recv, depth := m.RtpSession().Stats()
		out = append(out, metrics.MediaSample{
			MediaID:           uint64(m.ID()),
			MediaType:         m.MediaType().String(),
			TransportID:       uint64(m.TransportID()),
			SentPackets:       sent,
			SentOctets:        sentOctets,
			RecvPackets:       recv,
			JitterBufferDepth: depth,
		})
	}
	return out
}

// LastNegotiationErrors returns the errors collected during the most
// recent ReceiveSdpAnswer call, spec §9's resolved Open Question.
func (s *SessionState) LastNegotiationErrors() []error {
	return s.lastNegotiationErrors
}

// findMedia returns the active Media with the given id, if any.
func (s *SessionState) findMedia(id media.ID) (*media.Media, int) {
	for i, m := range s.activeMedia {
		if m.ID() == id {
			return m, i
		}
	}
	return nil, -1
}

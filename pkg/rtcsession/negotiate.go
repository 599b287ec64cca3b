package rtcsession

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pion/sdp/v3"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/sdpwire"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// remoteInfo is the negotiated remote addressing for one transport,
// recorded while an offer or answer is processed and consumed the
// first time that transport needs to be finalized.
type remoteInfo struct {
	rtp, rtcp transport.Addr
	rtcpMux   bool
}

// answerEntry is one outcome of ReceiveSdpOffer: either an active
// Media to describe in the answer, or a declined m-line (spec §4.5.2).
type answerEntry struct {
	active    bool
	mediaID   media.ID
	mediaType string
	mid       string
	hasMid    bool
}

// AnswerState is the intermediate result ReceiveSdpOffer hands to
// CreateSdpAnswer, one entry per m-line of the offer in order.
type AnswerState struct {
	entries []answerEntry
}

// protoForType maps a transport's security profile plus per-media AVPF
// use to the SDP m-line proto token (spec §4.2/§4.5).
func protoForType(t transport.Type, avpf bool) sdpwire.TransportProtocol {
	switch t {
	case transport.DTLSSRTP:
		if avpf {
			return sdpwire.UdpTlsRtpSavpf
		}
		return sdpwire.UdpTlsRtpSavp
	case transport.SDESSRTP:
		if avpf {
			return sdpwire.RtpSavpf
		}
		return sdpwire.RtpSavp
	default:
		if avpf {
			return sdpwire.RtpAvpf
		}
		return sdpwire.RtpAvp
	}
}

// typeForProto is protoForType's inverse, used when a remote m-line
// requests a transport type we don't yet have.
func typeForProto(p sdpwire.TransportProtocol) (transport.Type, bool) {
	switch p {
	case sdpwire.RtpAvp, sdpwire.RtpAvpf:
		return transport.RTP, true
	case sdpwire.RtpSavp, sdpwire.RtpSavpf:
		return transport.SDESSRTP, true
	case sdpwire.UdpTlsRtpSavp, sdpwire.UdpTlsRtpSavpf:
		return transport.DTLSSRTP, true
	default:
		return transport.RTP, false
	}
}

func negotiatedCodecFromMatch(match localmedia.OfferMatch) codec.NegotiatedCodec {
	nc := codec.NegotiatedCodec{
		SendPT:    match.RemotePT,
		RecvPT:    match.RemotePT,
		Name:      match.Codec.Name,
		ClockRate: match.Codec.ClockRate,
		Channels:  match.Codec.Channels,
		SendFmtp:  match.RemoteFmtp,
		RecvFmtp:  match.Codec.Fmtp,
	}
	if match.Dtmf != nil {
		nc.Dtmf = &codec.NegotiatedDtmf{PT: match.Dtmf.PT, Fmtp: match.Dtmf.Fmtp}
	}
	return nc
}

func addrOf(sess *sdpwire.SessionDescription, desc *sdpwire.MediaDescription) string {
	if desc.ConnAddress != "" {
		return desc.ConnAddress
	}
	return sess.ConnAddress
}

// remoteInfoFromDesc extracts the negotiated remote RTP/RTCP address
// and rtcp-mux state from one m-line, falling back to the session-level
// connection address (spec §4.5's "c= may live at session or media level").
func remoteInfoFromDesc(sess *sdpwire.SessionDescription, desc *sdpwire.MediaDescription) remoteInfo {
	ip := addrOf(sess, desc)
	rtp := transport.Addr{IP: ip, Port: desc.Port}
	rtcp := rtp
	mux := desc.RtcpMux
	if !mux && desc.Rtcp != nil {
		rip := desc.Rtcp.Address
		if rip == "" {
			rip = ip
		}
		rtcp = transport.Addr{IP: rip, Port: desc.Rtcp.Port}
	}
	return remoteInfo{rtp: rtp, rtcp: rtcp, rtcpMux: mux}
}

func firstFormatPT(desc *sdpwire.MediaDescription) (uint8, bool) {
	if len(desc.Formats) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(desc.Formats[0])
	if err != nil || v < 0 || v > 255 {
		return 0, false
	}
	return uint8(v), true
}

// mediaMatches reimplements media.rs's Media::matches: media type must
// agree; if both sides carry a mid it decides the match; otherwise the
// fallback is the existing transport's negotiated remote RTP port
// equalling the new m-line's port.
func (s *SessionState) mediaMatches(m *media.Media, desc *sdpwire.MediaDescription) bool {
	if m.MediaType().String() != desc.MediaType {
		return false
	}
	mid, hasMid := m.Mid()
	if hasMid && desc.HasMid {
		return mid == desc.Mid
	}
	entry, ok := s.transports[m.TransportID()]
	if !ok || entry.built == nil {
		return false
	}
	return entry.built.RemoteRTPAddr().Port == desc.Port
}

func (s *SessionState) mediaPendingRemoval(id media.ID) bool {
	for _, c := range s.pendingChanges {
		if c.kind == pcRemoveMedia && c.removeMediaID == id {
			return true
		}
	}
	return false
}

// updateActiveMedia reconciles an existing active Media's direction
// against a renegotiated m-line, emitting MediaChanged only if the
// intersected direction actually differs (spec §4.5.1 step 2).
func (s *SessionState) updateActiveMedia(m *media.Media, desc *sdpwire.MediaDescription) {
	newDir := desc.Direction.Flip()
	if lm, ok := s.localMedia[m.LocalMediaID()]; ok {
		newDir = sdpdir.Intersect(lm.Direction(), newDir)
	}
	if newDir == m.Direction() {
		return
	}
	s.events = append(s.events, Event{
		Kind: EventMediaChanged,
		MediaChanged: &MediaChangedData{
			ID:           m.ID(),
			OldDirection: m.Direction(),
			NewDirection: newDir,
		},
	})
	m.SetDirection(newDir)
}

func (s *SessionState) findActiveForOffer(desc *sdpwire.MediaDescription, used map[media.ID]bool) *media.Media {
	for _, m := range s.activeMedia {
		if used[m.ID()] {
			continue
		}
		if s.mediaMatches(m, desc) {
			return m
		}
	}
	return nil
}

func (s *SessionState) findLocalMediaForOffer(desc *sdpwire.MediaDescription) (*localmedia.LocalMedia, localmedia.OfferMatch, bool) {
	for _, id := range s.localMediaOrder {
		lm := s.localMedia[id]
		if lm.MediaType().String() != desc.MediaType {
			continue
		}
		if match, ok := lm.MaybeUseForOffer(desc); ok {
			return lm, match, true
		}
	}
	return nil, localmedia.OfferMatch{}, false
}

// findBundledTransport looks up the offer's BUNDLE group containing
// mid and returns the transport already used by any media (new or
// previously active) whose mid falls in that group (spec §4.5.1's
// find_bundled_transport).
func (s *SessionState) findBundledTransport(newState []*media.Media, offer *sdpwire.SessionDescription, mid string) (transport.ID, bool) {
	group, ok := offer.FindBundleGroup(mid)
	if !ok {
		return 0, false
	}
	inGroup := func(candidate string) bool {
		for _, gm := range group.Mids {
			if gm == candidate {
				return true
			}
		}
		return false
	}
	for _, m := range newState {
		if mm, has := m.Mid(); has && inGroup(mm) {
			return m.TransportID(), true
		}
	}
	for _, m := range s.activeMedia {
		if mm, has := m.Mid(); has && inGroup(mm) {
			return m.TransportID(), true
		}
	}
	return 0, false
}

// getOrCreateTransport implements spec §4.5.1's get_or_create_transport:
// reuse a bundled transport by mid, else open a fresh TransportBuilder
// for the protocol the offer requested.
func (s *SessionState) getOrCreateTransport(newState []*media.Media, offer *sdpwire.SessionDescription, desc *sdpwire.MediaDescription) (transport.ID, error) {
	if desc.HasMid {
		if id, ok := s.findBundledTransport(newState, offer, desc.Mid); ok {
			return id, nil
		}
	}
	typ, ok := typeForProto(desc.Proto)
	if !ok {
		return 0, fmt.Errorf("unsupported transport protocol %q", desc.Proto.String())
	}
	return s.newTransportBuilder(typ), nil
}

// removeUnusedTransports drops every transport not referenced by an
// active Media or a pending AddMedia change, queuing a Remove
// TransportChange for each (spec §4.5.1's remove_unused_transports).
func (s *SessionState) removeUnusedTransports() {
	inUse := make(map[transport.ID]bool)
	for _, m := range s.activeMedia {
		inUse[m.TransportID()] = true
	}
	for _, c := range s.pendingChanges {
		if c.kind != pcAddMedia {
			continue
		}
		if c.addMedia.standaloneTransport != nil {
			inUse[*c.addMedia.standaloneTransport] = true
		}
		inUse[c.addMedia.bundleTransport] = true
	}

	kept := s.transportOrder[:0]
	for _, id := range s.transportOrder {
		if inUse[id] {
			kept = append(kept, id)
			continue
		}
		delete(s.transports, id)
		delete(s.pendingRemote, id)
		s.transportChanges = append(s.transportChanges, TransportChange{Kind: TransportRemove, TransportID: id})
	}
	s.transportOrder = kept
}

// ReceiveSdpOffer implements spec §4.5.1: it reconciles the incoming
// offer against active Media and LocalMedia registrations, returning
// the AnswerState CreateSdpAnswer consumes.
func (s *SessionState) ReceiveSdpOffer(now time.Time, offer *sdpwire.SessionDescription) *AnswerState {
	newState := make([]*media.Media, 0, len(offer.MediaDescriptions))
	as := &AnswerState{entries: make([]answerEntry, 0, len(offer.MediaDescriptions))}
	used := make(map[media.ID]bool)

	for i := range offer.MediaDescriptions {
		desc := &offer.MediaDescriptions[i]

		if m := s.findActiveForOffer(desc, used); m != nil {
			used[m.ID()] = true
			s.updateActiveMedia(m, desc)
			newState = append(newState, m)
			as.entries = append(as.entries, answerEntry{
				active: true, mediaID: m.ID(), mediaType: desc.MediaType, mid: desc.Mid, hasMid: desc.HasMid,
			})
			continue
		}

		lm, match, found := s.findLocalMediaForOffer(desc)
		if !found {
			as.entries = append(as.entries, answerEntry{mediaType: desc.MediaType, mid: desc.Mid, hasMid: desc.HasMid})
			continue
		}

		transportID, err := s.getOrCreateTransport(newState, offer, desc)
		if err != nil {
			s.log.Debug("rtcsession.ReceiveSdpOffer declining media, no usable transport", "media_type", desc.MediaType, "error", err)
			as.entries = append(as.entries, answerEntry{mediaType: desc.MediaType, mid: desc.Mid, hasMid: desc.HasMid})
			continue
		}
		s.pendingRemote[transportID] = remoteInfoFromDesc(offer, desc)

		nc := negotiatedCodecFromMatch(match)
		s.nextMediaID++
		mediaID := s.nextMediaID
		avpf := desc.Proto.IsAVPF()
		m := media.New(mediaID, lm.ID(), lm.MediaType(), desc.Mid, desc.HasMid, match.Direction, avpf, transportID, nc, now)
		lm.Acquire()

		s.events = append(s.events, Event{
			Kind: EventMediaAdded,
			MediaAdded: &MediaAddedData{
				ID: mediaID, TransportID: transportID, LocalMediaID: lm.ID(), Direction: match.Direction, Codec: nc,
			},
		})

		newState = append(newState, m)
		as.entries = append(as.entries, answerEntry{
			active: true, mediaID: mediaID, mediaType: desc.MediaType, mid: desc.Mid, hasMid: desc.HasMid,
		})
	}

	for _, old := range s.activeMedia {
		if used[old.ID()] {
			continue
		}
		if lm, ok := s.localMedia[old.LocalMediaID()]; ok {
			lm.Release()
		}
		s.events = append(s.events, Event{Kind: EventMediaRemoved, MediaRemoved: old.ID()})
	}

	s.activeMedia = newState
	s.removeUnusedTransports()
	return as
}

// finalizeTransportIfNeeded promotes a TransportBuilder created while
// answering an offer into a built Transport the first time it's
// needed, using the remote address stashed by ReceiveSdpOffer. Panics
// if no such address was ever recorded or the builder's ports are
// unset — mirrors original_source's "create_sdp_answer panics if any
// transport's port unset" API contract (spec §5).
func (s *SessionState) finalizeTransportIfNeeded(id transport.ID) (*transport.Transport, error) {
	entry, ok := s.transports[id]
	if !ok {
		return nil, fmt.Errorf("transport %d not found", id)
	}
	if entry.built != nil {
		return entry.built, nil
	}
	info, ok := s.pendingRemote[id]
	if !ok {
		panic(fmt.Sprintf("rtcsession: transport %d has no remote address recorded before create_sdp_answer", id))
	}
	built, err := entry.building.BuildFromOffer(info.rtcpMux, info.rtp, info.rtcp)
	if err != nil {
		return nil, err
	}
	entry.built = built
	entry.building = nil
	delete(s.pendingRemote, id)
	built.NotifySdpComplete()
	return built, nil
}

func (s *SessionState) firstIceCredentials() (string, string) {
	for _, id := range s.transportOrder {
		e := s.transports[id]
		var agent transport.IceAgent
		var ok bool
		if e.built != nil {
			agent, ok = e.built.IceAgent()
		} else {
			agent, ok = e.building.IceAgent()
		}
		if ok {
			return agent.Credentials()
		}
	}
	return "", ""
}

// mediaDescriptionForActive builds one m-line for an already-negotiated
// Media, optionally overriding its direction for a freshly created
// offer (spec §4.5's media_description_for_active).
func (s *SessionState) mediaDescriptionForActive(m *media.Media, overrideDirection *sdpdir.Direction) (*sdp.MediaDescription, error) {
	t, err := s.finalizeTransportIfNeeded(m.TransportID())
	if err != nil {
		return nil, newError(KindProtocol, "mediaDescriptionForActive", err)
	}

	nc := m.Codec()
	rtpMaps := []sdpwire.RtpMap{{PT: nc.RecvPT, Name: nc.Name, ClockRate: nc.ClockRate, Channels: nc.Channels}}
	var fmtps []sdpwire.Fmtp
	if nc.RecvFmtp != "" {
		fmtps = append(fmtps, sdpwire.Fmtp{PT: nc.RecvPT, Params: nc.RecvFmtp})
	}
	formats := []string{strconv.Itoa(int(nc.RecvPT))}
	if nc.Dtmf != nil {
		rtpMaps = append(rtpMaps, sdpwire.RtpMap{PT: nc.Dtmf.PT, Name: "telephone-event", ClockRate: nc.ClockRate})
		if nc.Dtmf.Fmtp != "" {
			fmtps = append(fmtps, sdpwire.Fmtp{PT: nc.Dtmf.PT, Params: nc.Dtmf.Fmtp})
		}
		formats = append(formats, strconv.Itoa(int(nc.Dtmf.PT)))
	}

	direction := m.Direction()
	if overrideDirection != nil {
		direction = *overrideDirection
	}

	mid, hasMid := m.Mid()
	rtcpMux := t.RtcpMuxActive()

	var rtcpPort *int
	if !rtcpMux {
		if port, ok := t.LocalRTCPPort(); ok {
			p := port
			rtcpPort = &p
		}
	}

	return sdpwire.BuildMediaDescription(sdpwire.MediaDescParams{
		MediaType: m.MediaType().String(),
		Port:      t.LocalRTPPort(),
		Proto:     protoForType(t.Type(), m.AVPF()),
		Formats:   formats,
		Mid:       mid,
		HasMid:    hasMid,
		Direction: direction,
		RtpMaps:   rtpMaps,
		Fmtps:     fmtps,
		RtcpMux:   rtcpMux,
		RtcpPort:  rtcpPort,
	}), nil
}

// buildBundleGroups groups mids by transport across active Media, and
// optionally pending AddMedia changes too (spec §4.5's build_bundle_groups).
func (s *SessionState) buildBundleGroups(includePending bool) []sdpwire.Group {
	byTransport := make(map[transport.ID][]string)
	order := make([]transport.ID, 0, len(s.transportOrder))

	addMid := func(transportID transport.ID, mid string, hasMid bool) {
		if !hasMid {
			return
		}
		if _, ok := byTransport[transportID]; !ok {
			order = append(order, transportID)
		}
		byTransport[transportID] = append(byTransport[transportID], mid)
	}

	for _, m := range s.activeMedia {
		mid, hasMid := m.Mid()
		addMid(m.TransportID(), mid, hasMid)
	}

	if includePending {
		for _, c := range s.pendingChanges {
			if c.kind != pcAddMedia {
				continue
			}
			addMid(c.addMedia.bundleTransport, c.addMedia.mid, true)
		}
	}

	groups := make([]sdpwire.Group, 0, len(order))
	for _, id := range order {
		mids := byTransport[id]
		if len(mids) == 0 {
			continue
		}
		groups = append(groups, sdpwire.Group{Type: "BUNDLE", Mids: mids})
	}
	return groups
}

// CreateSdpAnswer implements spec §4.5.2: one m-line per AnswerState
// entry, active entries built from negotiated Media, rejected entries
// as port-0 m-lines preserving media type and mid.
func (s *SessionState) CreateSdpAnswer(state *AnswerState) (*sdp.SessionDescription, error) {
	medias := make([]*sdp.MediaDescription, 0, len(state.entries))
	for _, e := range state.entries {
		if !e.active {
			medias = append(medias, sdpwire.BuildMediaDescription(sdpwire.MediaDescParams{
				Rejected: true, MediaType: e.mediaType, Mid: e.mid, HasMid: e.hasMid,
			}))
			continue
		}
		m, _ := s.findMedia(e.mediaID)
		if m == nil {
			return nil, newError(KindProtocol, "CreateSdpAnswer", fmt.Errorf("answer entry references missing media %d", e.mediaID))
		}
		md, err := s.mediaDescriptionForActive(m, nil)
		if err != nil {
			return nil, err
		}
		medias = append(medias, md)
	}

	iceUfrag, icePwd := s.firstIceCredentials()
	s.version++
	return sdpwire.BuildSessionDescription(sdpwire.SessionDescParams{
		ID: s.id, Version: s.version, Address: s.address,
		Groups: s.buildBundleGroups(false), IceUfrag: iceUfrag, IcePwd: icePwd, Medias: medias,
	}), nil
}

// CreateSdpOffer implements spec §4.5.3: one m-line per active Media
// (direction overridden by a pending ChangeDirection, if any — a
// pending RemoveMedia has no effect here, matching original_source's
// create_sdp_offer, whose continue only short-circuits the inner
// pending-changes scan, not the per-media loop), plus one fresh m-line
// per pending AddMedia.
func (s *SessionState) CreateSdpOffer() (*sdp.SessionDescription, error) {
	medias := make([]*sdp.MediaDescription, 0, len(s.activeMedia)+len(s.pendingChanges))

	for _, m := range s.activeMedia {
		var overrideDir *sdpdir.Direction
		for _, c := range s.pendingChanges {
			if c.kind == pcChangeDirection && c.changeMediaID == m.ID() {
				d := c.newDirection
				overrideDir = &d
			}
		}
		md, err := s.mediaDescriptionForActive(m, overrideDir)
		if err != nil {
			return nil, err
		}
		medias = append(medias, md)
	}

	for _, c := range s.pendingChanges {
		if c.kind != pcAddMedia {
			continue
		}
		pm := c.addMedia
		lm, ok := s.localMedia[pm.localMediaID]
		if !ok {
			return nil, newError(KindProtocol, "CreateSdpOffer", fmt.Errorf("pending media references missing local media %d", pm.localMediaID))
		}

		transportID := pm.bundleTransport
		if pm.standaloneTransport != nil {
			transportID = *pm.standaloneTransport
		}
		entry, ok := s.transports[transportID]
		if !ok {
			return nil, newError(KindProtocol, "CreateSdpOffer", fmt.Errorf("pending media references missing transport %d", transportID))
		}

		var rtpPort int
		var rtcpPort *int
		var typ transport.Type
		if entry.built != nil {
			t := entry.built
			rtpPort = t.LocalRTPPort()
			if !t.RtcpMuxActive() {
				if p, ok := t.LocalRTCPPort(); ok {
					rtcpPort = &p
				}
			}
			typ = t.Type()
		} else {
			b := entry.building
			if !b.PortsSet() {
				panic(fmt.Sprintf("rtcsession: CreateSdpOffer pending media's transport %d has no ports set", transportID))
			}
			rtpPort = b.LocalRTPPort()
			if port, ok := b.LocalRTCPPort(); ok {
				p := port
				rtcpPort = &p
			}
			typ = b.Type()
		}

		rtpMaps := make([]sdpwire.RtpMap, 0, len(lm.Codecs())+1)
		var fmtps []sdpwire.Fmtp
		formats := make([]string, 0, len(lm.Codecs())+1)
		for _, cd := range lm.Codecs() {
			rtpMaps = append(rtpMaps, sdpwire.RtpMap{PT: cd.PT, Name: cd.Name, ClockRate: cd.ClockRate, Channels: cd.Channels})
			if cd.Fmtp != "" {
				fmtps = append(fmtps, sdpwire.Fmtp{PT: cd.PT, Params: cd.Fmtp})
			}
			formats = append(formats, strconv.Itoa(int(cd.PT)))
		}
		if dtmf := lm.Dtmf(); dtmf.Enabled {
			rtpMaps = append(rtpMaps, sdpwire.RtpMap{PT: dtmf.PT, Name: "telephone-event", ClockRate: dtmf.ClockRate})
			if dtmf.Fmtp != "" {
				fmtps = append(fmtps, sdpwire.Fmtp{PT: dtmf.PT, Params: dtmf.Fmtp})
			}
			formats = append(formats, strconv.Itoa(int(dtmf.PT)))
		}

		medias = append(medias, sdpwire.BuildMediaDescription(sdpwire.MediaDescParams{
			MediaType: pm.mediaType.String(),
			Port:      rtpPort,
			Proto:     protoForType(typ, pm.useAVPF),
			Formats:   formats,
			Mid:       pm.mid,
			HasMid:    true,
			Direction: pm.direction,
			RtpMaps:   rtpMaps,
			Fmtps:     fmtps,
			RtcpMux:   true, // always offer rtcp-mux, per original_source create_sdp_offer
			RtcpPort:  rtcpPort,
		}))
	}

	iceUfrag, icePwd := s.firstIceCredentials()
	s.version++
	return sdpwire.BuildSessionDescription(sdpwire.SessionDescParams{
		ID: s.id, Version: s.version, Address: s.address,
		Groups: s.buildBundleGroups(true), IceUfrag: iceUfrag, IcePwd: icePwd, Medias: medias,
	}), nil
}

func (s *SessionState) findActiveForAnswer(desc *sdpwire.MediaDescription) *media.Media {
	for _, m := range s.activeMedia {
		if s.mediaPendingRemoval(m.ID()) {
			continue
		}
		if s.mediaMatches(m, desc) {
			return m
		}
	}
	return nil
}

func (s *SessionState) findPendingMediaForAnswer(desc *sdpwire.MediaDescription) (int, *pendingMedia, bool) {
	for i, c := range s.pendingChanges {
		if c.kind != pcAddMedia {
			continue
		}
		if s.pendingMediaMatchesAnswer(c.addMedia, desc) {
			return i, c.addMedia, true
		}
	}
	return -1, nil, false
}

// pendingMediaMatchesAnswer implements spec §4.5.3's matches_answer:
// media type must agree; mid decides if the answer carries one;
// otherwise the standalone (preferred) or bundle transport's proto
// token must equal the answer's.
func (s *SessionState) pendingMediaMatchesAnswer(pm *pendingMedia, desc *sdpwire.MediaDescription) bool {
	if pm.mediaType.String() != desc.MediaType {
		return false
	}
	if desc.HasMid {
		return pm.mid == desc.Mid
	}
	if pm.standaloneTransport != nil {
		if entry, ok := s.transports[*pm.standaloneTransport]; ok && protoForType(entry.typ(), pm.useAVPF) == desc.Proto {
			return true
		}
	}
	if entry, ok := s.transports[pm.bundleTransport]; ok && protoForType(entry.typ(), pm.useAVPF) == desc.Proto {
		return true
	}
	return false
}

// ReceiveSdpAnswer implements spec §4.5.3: reconciles each non-Inactive
// answer m-line against active Media (direction update) or pending
// AddMedia (transport finalization + codec choice), applies queued
// RemoveMedia changes, and returns every negotiation error encountered
// instead of panicking — spec §9's resolved Open Question for the
// MaxBundle-without-confirmation case.
func (s *SessionState) ReceiveSdpAnswer(now time.Time, answer *sdpwire.SessionDescription) []error {
	s.lastNegotiationErrors = nil

	for i := range answer.MediaDescriptions {
		desc := &answer.MediaDescriptions[i]
		if desc.Direction == sdpdir.Inactive {
			continue
		}

		if m := s.findActiveForAnswer(desc); m != nil {
			s.updateActiveMedia(m, desc)
			continue
		}

		idx, pm, found := s.findPendingMediaForAnswer(desc)
		if !found {
			s.log.Warn("rtcsession.ReceiveSdpAnswer no pending media matched answer m-line", "media_type", desc.MediaType, "mid", desc.Mid)
			continue
		}

		isBundled := false
		if desc.HasMid {
			if group, ok := answer.FindBundleGroup(desc.Mid); ok {
				for _, gm := range group.Mids {
					if gm == desc.Mid {
						isBundled = true
					}
				}
			}
		}

		var transportID transport.ID
		switch {
		case isBundled:
			transportID = pm.bundleTransport
		case pm.standaloneTransport != nil:
			transportID = *pm.standaloneTransport
		default:
			s.lastNegotiationErrors = append(s.lastNegotiationErrors,
				newError(KindNegotiation, "ReceiveSdpAnswer", ErrBundleNotConfirmed))
			s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
			continue
		}

		entry, ok := s.transports[transportID]
		if !ok {
			s.lastNegotiationErrors = append(s.lastNegotiationErrors,
				newError(KindProtocol, "ReceiveSdpAnswer", fmt.Errorf("pending media references missing transport %d", transportID)))
			s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
			continue
		}

		if entry.built == nil {
			info := remoteInfoFromDesc(answer, desc)
			built, err := entry.building.BuildFromAnswer(info.rtcpMux, info.rtp, info.rtcp)
			if err != nil {
				s.lastNegotiationErrors = append(s.lastNegotiationErrors, newError(KindNegotiation, "ReceiveSdpAnswer", err))
				s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
				continue
			}
			entry.built = built
			entry.building = nil
			built.NotifySdpComplete()
		}

		lm, ok := s.localMedia[pm.localMediaID]
		if !ok {
			s.lastNegotiationErrors = append(s.lastNegotiationErrors,
				newError(KindProtocol, "ReceiveSdpAnswer", fmt.Errorf("pending media references missing local media %d", pm.localMediaID)))
			s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
			continue
		}

		chosenPT, ok := firstFormatPT(desc)
		if !ok {
			s.lastNegotiationErrors = append(s.lastNegotiationErrors,
				newError(KindProtocol, "ReceiveSdpAnswer", fmt.Errorf("answer m-line has no payload types")))
			s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
			continue
		}

		match, ok := lm.ChooseCodecFromAnswer(desc, chosenPT)
		if !ok {
			s.lastNegotiationErrors = append(s.lastNegotiationErrors,
				newError(KindNegotiation, "ReceiveSdpAnswer", fmt.Errorf("no codec match for payload type %d", chosenPT)))
			s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
			continue
		}

		nc := negotiatedCodecFromMatch(match)
		avpf := desc.Proto.IsAVPF()
		m := media.New(pm.id, pm.localMediaID, pm.mediaType, pm.mid, true, match.Direction, avpf, transportID, nc, now)
		lm.Acquire()

		s.events = append(s.events, Event{
			Kind: EventMediaAdded,
			MediaAdded: &MediaAddedData{
				ID: pm.id, TransportID: transportID, LocalMediaID: pm.localMediaID, Direction: match.Direction, Codec: nc,
			},
		})
		s.activeMedia = append(s.activeMedia, m)

		s.pendingChanges = append(s.pendingChanges[:idx], s.pendingChanges[idx+1:]...)
	}

	kept := s.activeMedia[:0]
	for _, m := range s.activeMedia {
		if !s.mediaPendingRemoval(m.ID()) {
			kept = append(kept, m)
			continue
		}
		if lm, ok := s.localMedia[m.LocalMediaID()]; ok {
			lm.Release()
		}
		s.events = append(s.events, Event{Kind: EventMediaRemoved, MediaRemoved: m.ID()})
	}
	s.activeMedia = kept

	remaining := s.pendingChanges[:0]
	for _, c := range s.pendingChanges {
		if c.kind != pcRemoveMedia {
			remaining = append(remaining, c)
		}
	}
	s.pendingChanges = remaining

	s.removeUnusedTransports()
	return s.lastNegotiationErrors
}

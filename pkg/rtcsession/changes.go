package rtcsession

import (
	"fmt"
	"strconv"

	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// transportTypeForNewMedia picks the transport type a new pending
// media should use: the most capable type already in use by an
// existing transport, or the configured default if none exist yet
// (spec §4.6/original_source add_media).
func (s *SessionState) transportTypeForNewMedia() transport.Type {
	var best transport.Type
	have := false
	for _, id := range s.transportOrder {
		t := s.transports[id].typ()
		if !have || t > best {
			best = t
			have = true
		}
	}
	if !have {
		return s.opts.OfferTransport
	}
	return best
}

// newTransportBuilder opens a fresh TransportBuilder of the given
// type, forwards every registered STUN server to it, and queues the
// CreateSocket/CreateSocketPair side effect the caller must apply
// (spec §4.2/§4.6).
func (s *SessionState) newTransportBuilder(typ transport.Type) transport.ID {
	s.nextTransportID++
	id := s.nextTransportID

	builder := transport.NewBuilder(id, typ, s.opts.OfferAVPF, s.opts.OfferICE, s.opts.RtcpMuxPolicy)
	for _, addr := range s.stunServers {
		if err := builder.AddStunServer(addr); err != nil {
			s.log.Debug("rtcsession.newTransportBuilder failed to add stun server", "transport_id", id, "error", err)
		}
	}

	s.transports[id] = &transportEntry{building: builder}
	s.transportOrder = append(s.transportOrder, id)

	kind := TransportCreateSocket
	if builder.WantsRtcpSocket() {
		kind = TransportCreateSocketPair
	}
	s.transportChanges = append(s.transportChanges, TransportChange{Kind: kind, TransportID: id})

	return id
}

// AddMedia queues a new media line for the next CreateSdpOffer,
// choosing its bundle/standalone transport per spec §4.5.3/§9's
// BundlePolicy semantics (mirrors original_source add_media).
func (s *SessionState) AddMedia(localMediaID localmedia.ID, direction sdpdir.Direction) (media.ID, error) {
	lm, ok := s.localMedia[localMediaID]
	if !ok {
		return 0, newError(KindProtocol, "AddMedia", fmt.Errorf("unknown local media id %d", localMediaID))
	}

	s.nextMediaID++
	mediaID := s.nextMediaID

	typ := s.transportTypeForNewMedia()

	var bundleFound transport.ID
	haveBundle := false
	for _, id := range s.transportOrder {
		if s.transports[id].typ() == typ {
			bundleFound = id
			haveBundle = true
			break
		}
	}

	var standaloneTransport *transport.ID
	var bundleTransport transport.ID

	switch s.opts.BundlePolicy {
	case MaxCompat:
		standaloneID := s.newTransportBuilder(typ)
		standaloneTransport = &standaloneID
		if haveBundle {
			bundleTransport = bundleFound
		} else {
			bundleTransport = standaloneID
		}
	default: // MaxBundle
		if haveBundle {
			bundleTransport = bundleFound
		} else {
			bundleTransport = s.newTransportBuilder(typ)
		}
	}

	s.pendingChanges = append(s.pendingChanges, pendingChange{
		kind: pcAddMedia,
		addMedia: &pendingMedia{
			id:                  mediaID,
			localMediaID:        localMediaID,
			mediaType:           lm.MediaType(),
			mid:                 strconv.FormatUint(uint64(mediaID), 10),
			direction:           direction,
			useAVPF:             s.opts.OfferAVPF,
			standaloneTransport: standaloneTransport,
			bundleTransport:     bundleTransport,
		},
	})
	return mediaID, nil
}

// UpdateMedia queues a direction renegotiation for the next offer.
// A no-op if mediaID isn't currently active (spec §4.6's update_media
// guard: only active media can be renegotiated).
func (s *SessionState) UpdateMedia(mediaID media.ID, newDirection sdpdir.Direction) {
	if _, idx := s.findMedia(mediaID); idx < 0 {
		return
	}
	s.pendingChanges = append(s.pendingChanges, pendingChange{
		kind: pcChangeDirection, changeMediaID: mediaID, newDirection: newDirection,
	})
}

// RemoveMedia queues mediaID for removal the next time a
// ReceiveSdpAnswer completes. A no-op if mediaID isn't active (spec
// §4.6's remove_media guard). Note this has no effect on a
// CreateSdpOffer issued before the removal is confirmed by the peer —
// see CreateSdpOffer's doc comment.
func (s *SessionState) RemoveMedia(mediaID media.ID) {
	if _, idx := s.findMedia(mediaID); idx < 0 {
		return
	}
	s.pendingChanges = append(s.pendingChanges, pendingChange{kind: pcRemoveMedia, removeMediaID: mediaID})
}

// Package localmedia implements the reusable "offerable kind"
// described in spec §4.1: a codec list plus direction default and
// usage limit that produces a concrete negotiated codec when matched
// against a remote description.
package localmedia

import (
	"log/slog"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/sdpwire"
)

// ID identifies one LocalMedia registration within a session.
type ID uint64

// DtmfPolicy describes how a LocalMedia offers RFC 4733 telephone-event
// support: a payload type paired with the clock rate it is offered at.
// A LocalMedia with no DTMF support leaves PT at zero.
type DtmfPolicy struct {
	Enabled   bool
	PT        uint8
	ClockRate uint32
	Fmtp      string // e.g. "0-15"
}

// LocalMedia is one reusable offerable kind (spec §4.1): a codec list
// for one media type, a use-count limit, a default direction, and an
// optional DTMF policy.
type LocalMedia struct {
	id           ID
	mediaType    codec.MediaType
	codecs       []codec.Codec
	limit        int
	useCount     int
	direction    sdpdir.Direction
	dtmf         DtmfPolicy
}

// New creates a LocalMedia. codecs must already have payload types
// resolved (see codec.AssignDynamicPT) — add_local_media in spec §4.6
// is responsible for that before constructing this value.
func New(id ID, mediaType codec.MediaType, codecs []codec.Codec, limit int, direction sdpdir.Direction, dtmf DtmfPolicy) *LocalMedia {
	return &LocalMedia{
		id:        id,
		mediaType: mediaType,
		codecs:    codecs,
		limit:     limit,
		direction: direction,
		dtmf:      dtmf,
	}
}

func (lm *LocalMedia) ID() ID                     { return lm.id }
func (lm *LocalMedia) MediaType() codec.MediaType  { return lm.mediaType }
func (lm *LocalMedia) Codecs() []codec.Codec       { return lm.codecs }
func (lm *LocalMedia) Limit() int                  { return lm.limit }
func (lm *LocalMedia) UseCount() int                { return lm.useCount }
func (lm *LocalMedia) Direction() sdpdir.Direction  { return lm.direction }
func (lm *LocalMedia) Dtmf() DtmfPolicy             { return lm.dtmf }

// Available reports whether this LocalMedia can back one more Media.
// A non-positive limit means unlimited.
func (lm *LocalMedia) Available() bool {
	return lm.limit <= 0 || lm.useCount < lm.limit
}

// Acquire/Release track how many live Media instances are bound to
// this LocalMedia, spec §4.1/§3's use_count bookkeeping.
func (lm *LocalMedia) Acquire() { lm.useCount++ }
func (lm *LocalMedia) Release() {
	if lm.useCount > 0 {
		lm.useCount--
	}
}

// OfferMatch is the result of matching this LocalMedia against a
// remote m-line: the chosen codec, the remote payload type it binds
// to, the reconciled local direction, and an optional DTMF match.
type OfferMatch struct {
	Codec       codec.Codec
	RemotePT    uint8
	RemoteFmtp  string
	Direction   sdpdir.Direction
	Dtmf        *DtmfPolicy
}

// MaybeUseForOffer implements spec §4.1's matching rule: the first
// codec whose (name, clock rate, channels) tuple matches any rtpmap
// in the remote m-line, subject to use_count < limit and a non-Inactive
// intersected direction. Returns ok=false if nothing matches.
func (lm *LocalMedia) MaybeUseForOffer(remote *sdpwire.MediaDescription) (OfferMatch, bool) {
	if !lm.Available() {
		return OfferMatch{}, false
	}
	requested := remote.Direction.Flip()
	direction := sdpdir.Intersect(lm.direction, requested)
	if direction == sdpdir.Inactive {
		slog.Debug("localmedia.MaybeUseForOffer direction intersection is inactive", "local_media_id", lm.id)
		return OfferMatch{}, false
	}

	for _, c := range lm.codecs {
		for _, rm := range remote.RtpMaps {
			if !c.Matches(rm.Name, rm.ClockRate, rm.Channels) {
				continue
			}
			fmtp, _ := remote.FindFmtp(rm.PT)
			if !fmtpCompatible(c.Fmtp, fmtp) {
				continue
			}
			match := OfferMatch{
				Codec:      c,
				RemotePT:   rm.PT,
				RemoteFmtp: fmtp,
				Direction:  direction,
			}
			if lm.dtmf.Enabled {
				if d, ok := lm.matchDtmf(remote); ok {
					match.Dtmf = &d
				}
			}
			return match, true
		}
	}
	return OfferMatch{}, false
}

// ChooseCodecFromAnswer implements spec §4.5.1's choose_codec_from_answer:
// the same matching rule applied to the single payload type the
// answerer chose, rather than scanning every rtpmap.
func (lm *LocalMedia) ChooseCodecFromAnswer(remote *sdpwire.MediaDescription, chosenPT uint8) (OfferMatch, bool) {
	for _, rm := range remote.RtpMaps {
		if rm.PT != chosenPT {
			continue
		}
		for _, c := range lm.codecs {
			if !c.Matches(rm.Name, rm.ClockRate, rm.Channels) {
				continue
			}
			fmtp, _ := remote.FindFmtp(rm.PT)
			if !fmtpCompatible(c.Fmtp, fmtp) {
				continue
			}
			direction := sdpdir.Intersect(lm.direction, remote.Direction.Flip())
			match := OfferMatch{Codec: c, RemotePT: rm.PT, RemoteFmtp: fmtp, Direction: direction}
			if lm.dtmf.Enabled {
				if d, ok := lm.matchDtmf(remote); ok {
					match.Dtmf = &d
				}
			}
			return match, true
		}
	}
	return OfferMatch{}, false
}

func (lm *LocalMedia) matchDtmf(remote *sdpwire.MediaDescription) (DtmfPolicy, bool) {
	for _, rm := range remote.RtpMaps {
		if rm.Name != "telephone-event" {
			continue
		}
		if rm.ClockRate != lm.dtmf.ClockRate {
			continue
		}
		fmtp, _ := remote.FindFmtp(rm.PT)
		return DtmfPolicy{Enabled: true, PT: rm.PT, ClockRate: rm.ClockRate, Fmtp: fmtp}, true
	}
	return DtmfPolicy{}, false
}

// fmtpCompatible is a conservative check: an empty local fmtp always
// matches; otherwise the remote fmtp must be identical. The same exact
// string comparison applies to every codec: no per-codec fmtp rule
// (e.g. H.264 profile-level-id compatibility) is applied, and pkg/h264
// is not called from here.
func fmtpCompatible(local, remote string) bool {
	if local == "" {
		return true
	}
	return local == remote
}

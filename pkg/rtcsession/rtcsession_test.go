package rtcsession

import (
	"errors"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/localmedia"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/sdpwire"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

func pcmuCodecs() []codec.Codec {
	pt := uint8(0)
	return []codec.Codec{{Name: "PCMU", ClockRate: 8000, Channels: 1, StaticPT: &pt}}
}

func newTestSession(address string) *SessionState {
	return New(address, Options{
		OfferTransport: transport.RTP,
		RtcpMuxPolicy:  transport.MuxNegotiate,
		BundlePolicy:   MaxCompat,
	})
}

// applyTransportChanges satisfies every pending CreateSocket/CreateSocketPair
// request with fixed loopback ports, mirroring what an adapter driven by
// pkg/netutil would do, without actually opening sockets in a test.
func applyTransportChanges(t *testing.T, s *SessionState, basePort int) {
	t.Helper()
	for _, c := range s.TransportChanges() {
		switch c.Kind {
		case TransportCreateSocketPair:
			rtcp := basePort + 1
			if err := s.SetTransportPorts(c.TransportID, "127.0.0.1", basePort, &rtcp); err != nil {
				t.Fatalf("SetTransportPorts: %v", err)
			}
		case TransportCreateSocket:
			if err := s.SetTransportPorts(c.TransportID, "127.0.0.1", basePort, nil); err != nil {
				t.Fatalf("SetTransportPorts: %v", err)
			}
		}
	}
}

func TestAddLocalMediaAssignsStaticPT(t *testing.T) {
	s := newTestSession("127.0.0.1")
	codecs := pcmuCodecs()
	id, err := s.AddLocalMedia(codec.Audio, codecs, 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err != nil {
		t.Fatalf("AddLocalMedia: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero local media id")
	}
	if codecs[0].PT != 0 {
		t.Fatalf("expected static PT 0, got %d", codecs[0].PT)
	}
	if s.ptAlloc.Checkpoint() != 96 {
		t.Fatal("dynamic allocator should not have advanced for a static PT")
	}
}

func TestAddLocalMediaExhaustsDynamicRange(t *testing.T) {
	s := newTestSession("127.0.0.1")
	codecs := make([]codec.Codec, 33) // only 32 dynamic PTs available in [96,127]
	for i := range codecs {
		codecs[i] = codec.Codec{Name: "x", ClockRate: 8000, Channels: 1}
	}
	_, err := s.AddLocalMedia(codec.Audio, codecs, 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err == nil {
		t.Fatal("expected ErrPTExhausted to propagate as a KindResourceExhausted error")
	}
	var sessErr *Error
	if !errors.As(err, &sessErr) || sessErr.Kind != KindResourceExhausted {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFullOfferAnswerExchange(t *testing.T) {
	now := time.Now()

	offerer := newTestSession("127.0.0.1")
	lmOfferer, err := offerer.AddLocalMedia(codec.Audio, pcmuCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err != nil {
		t.Fatalf("AddLocalMedia (offerer): %v", err)
	}
	if _, err := offerer.AddMedia(lmOfferer, sdpdir.SendRecv); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	applyTransportChanges(t, offerer, 10000)

	offerSD, err := offerer.CreateSdpOffer()
	if err != nil {
		t.Fatalf("CreateSdpOffer: %v", err)
	}
	if len(offerSD.MediaDescriptions) != 1 {
		t.Fatalf("offer has %d m-lines, want 1", len(offerSD.MediaDescriptions))
	}

	offer, err := sdpwire.ParseSessionDescription(offerSD)
	if err != nil {
		t.Fatalf("ParseSessionDescription(offer): %v", err)
	}

	answerer := newTestSession("127.0.0.1")
	lmAnswerer, err := answerer.AddLocalMedia(codec.Audio, pcmuCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err != nil {
		t.Fatalf("AddLocalMedia (answerer): %v", err)
	}
	_ = lmAnswerer

	answerState := answerer.ReceiveSdpOffer(now, offer)
	applyTransportChanges(t, answerer, 20000)

	answerSD, err := answerer.CreateSdpAnswer(answerState)
	if err != nil {
		t.Fatalf("CreateSdpAnswer: %v", err)
	}
	if len(answerSD.MediaDescriptions) != 1 {
		t.Fatalf("answer has %d m-lines, want 1", len(answerSD.MediaDescriptions))
	}

	ev, ok := answerer.PopEvent()
	if !ok || ev.Kind != EventMediaAdded {
		t.Fatalf("expected a MediaAdded event on the answerer, got %+v, ok=%v", ev, ok)
	}

	answer, err := sdpwire.ParseSessionDescription(answerSD)
	if err != nil {
		t.Fatalf("ParseSessionDescription(answer): %v", err)
	}

	if errs := offerer.ReceiveSdpAnswer(now, answer); len(errs) != 0 {
		t.Fatalf("ReceiveSdpAnswer reported errors: %v", errs)
	}

	ev, ok = offerer.PopEvent()
	if !ok || ev.Kind != EventMediaAdded {
		t.Fatalf("expected a MediaAdded event on the offerer, got %+v, ok=%v", ev, ok)
	}
}

// TestAsymmetricDynamicPTRoutesRTP forces the offerer and answerer to
// land on *different* dynamic payload types for the same codec before
// negotiation (each SessionState owns its own [96,127] allocator, so
// nothing guarantees they agree), then proves RTP stamped by one side
// is still routed to the right Media on the other, catching the class
// of bug where negotiatedCodecFromMatch's SendPT/RecvPT don't line up
// with how mediaDescriptionForActive, MatchesRTP and PrepareSendRTP
// actually consume them.
func TestAsymmetricDynamicPTRoutesRTP(t *testing.T) {
	now := time.Now()

	opusCodecs := func() []codec.Codec {
		return []codec.Codec{{Name: "opus", ClockRate: 48000, Channels: 2}}
	}

	offerer := newTestSession("127.0.0.1")
	lmOfferer, err := offerer.AddLocalMedia(codec.Audio, opusCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err != nil {
		t.Fatalf("AddLocalMedia (offerer): %v", err)
	}
	offererMediaID, err := offerer.AddMedia(lmOfferer, sdpdir.SendRecv)
	if err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	applyTransportChanges(t, offerer, 10000)

	offerSD, err := offerer.CreateSdpOffer()
	if err != nil {
		t.Fatalf("CreateSdpOffer: %v", err)
	}
	offer, err := sdpwire.ParseSessionDescription(offerSD)
	if err != nil {
		t.Fatalf("ParseSessionDescription(offer): %v", err)
	}

	answerer := newTestSession("127.0.0.1")
	// Consume PT 96 with an unrelated codec first so the answerer's own
	// registration of opus lands on PT 97, one ahead of the offerer's
	// PT 96 for the same codec.
	if _, err := answerer.AddLocalMedia(codec.Audio, []codec.Codec{{Name: "g722-throwaway", ClockRate: 8000, Channels: 1}}, 0, sdpdir.SendRecv, localmedia.DtmfPolicy{}); err != nil {
		t.Fatalf("AddLocalMedia (throwaway): %v", err)
	}
	if _, err := answerer.AddLocalMedia(codec.Audio, opusCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{}); err != nil {
		t.Fatalf("AddLocalMedia (answerer): %v", err)
	}

	answerState := answerer.ReceiveSdpOffer(now, offer)
	applyTransportChanges(t, answerer, 20000)

	ev, ok := answerer.PopEvent()
	if !ok || ev.Kind != EventMediaAdded {
		t.Fatalf("expected a MediaAdded event on the answerer, got %+v, ok=%v", ev, ok)
	}
	answererMediaID := ev.MediaAdded.ID
	answererTransportID := ev.MediaAdded.TransportID

	answerSD, err := answerer.CreateSdpAnswer(answerState)
	if err != nil {
		t.Fatalf("CreateSdpAnswer: %v", err)
	}
	answer, err := sdpwire.ParseSessionDescription(answerSD)
	if err != nil {
		t.Fatalf("ParseSessionDescription(answer): %v", err)
	}

	if errs := offerer.ReceiveSdpAnswer(now, answer); len(errs) != 0 {
		t.Fatalf("ReceiveSdpAnswer reported errors: %v", errs)
	}
	if ev, ok := offerer.PopEvent(); !ok || ev.Kind != EventMediaAdded {
		t.Fatalf("expected a MediaAdded event on the offerer, got %+v, ok=%v", ev, ok)
	}

	offererMedia, _ := offerer.findMedia(offererMediaID)
	if offererMedia == nil {
		t.Fatal("offerer media not found after negotiation")
	}
	answererMedia, _ := answerer.findMedia(answererMediaID)
	if answererMedia == nil {
		t.Fatal("answerer media not found after negotiation")
	}

	if offererMedia.Codec().SendPT != answererMedia.Codec().RecvPT {
		t.Fatalf("offerer SendPT %d != answerer RecvPT %d: RTP the offerer stamps would never match what the answerer listens for", offererMedia.Codec().SendPT, answererMedia.Codec().RecvPT)
	}

	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			SequenceNumber: 1,
			Timestamp:      8000,
		},
		Payload: []byte{0xAA, 0xBB, 0xCC},
	}

	data, _, ok := offerer.SendRTP(offererMediaID, pkt)
	if !ok {
		t.Fatal("offerer.SendRTP failed")
	}

	answerer.Receive(answererTransportID, data, now)
	answerer.Poll(now)

	ev, ok = answerer.PopEvent()
	if !ok || ev.Kind != EventReceiveRTP {
		t.Fatalf("expected EventReceiveRTP on the answerer after routing the offerer's RTP, got %+v, ok=%v", ev, ok)
	}
	if ev.ReceiveRTP.MediaID != answererMediaID {
		t.Fatalf("RTP routed to media %d, want %d", ev.ReceiveRTP.MediaID, answererMediaID)
	}
}

func TestMaxBundleWithoutConfirmationReturnsNegotiationError(t *testing.T) {
	now := time.Now()

	offerer := New("127.0.0.1", Options{
		OfferTransport: transport.RTP,
		RtcpMuxPolicy:  transport.MuxNegotiate,
		BundlePolicy:   MaxBundle,
	})
	lm, err := offerer.AddLocalMedia(codec.Audio, pcmuCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	if err != nil {
		t.Fatalf("AddLocalMedia: %v", err)
	}
	if _, err := offerer.AddMedia(lm, sdpdir.SendRecv); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	applyTransportChanges(t, offerer, 10000)

	offerSD, err := offerer.CreateSdpOffer()
	if err != nil {
		t.Fatalf("CreateSdpOffer: %v", err)
	}
	offer, err := sdpwire.ParseSessionDescription(offerSD)
	if err != nil {
		t.Fatalf("ParseSessionDescription: %v", err)
	}

	// Simulate a peer that answers without ever forming a BUNDLE group,
	// by stripping the offer's groups before feeding the answer back as
	// if it were the peer's reply with no a=group present.
	answer := *offer
	answer.Groups = nil

	errs := offerer.ReceiveSdpAnswer(now, &answer)
	if len(errs) != 1 {
		t.Fatalf("got %d negotiation errors, want 1", len(errs))
	}
	sessErr, ok := errs[0].(*Error)
	if !ok || sessErr.Kind != KindNegotiation {
		t.Fatalf("unexpected error %v", errs[0])
	}
}

func TestRemoveMediaIsNoOpForNextOfferButTakesEffectOnAnswer(t *testing.T) {
	now := time.Now()

	offerer := newTestSession("127.0.0.1")
	answerer := newTestSession("127.0.0.1")
	lmO, _ := offerer.AddLocalMedia(codec.Audio, pcmuCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})
	answerer.AddLocalMedia(codec.Audio, pcmuCodecs(), 0, sdpdir.SendRecv, localmedia.DtmfPolicy{})

	mediaID, _ := offerer.AddMedia(lmO, sdpdir.SendRecv)
	applyTransportChanges(t, offerer, 10000)
	offerSD, _ := offerer.CreateSdpOffer()
	offer, _ := sdpwire.ParseSessionDescription(offerSD)

	answerState := answerer.ReceiveSdpOffer(now, offer)
	applyTransportChanges(t, answerer, 20000)
	answerSD, _ := answerer.CreateSdpAnswer(answerState)
	answer, _ := sdpwire.ParseSessionDescription(answerSD)
	if errs := offerer.ReceiveSdpAnswer(now, answer); len(errs) != 0 {
		t.Fatalf("first ReceiveSdpAnswer errors: %v", errs)
	}

	offerer.RemoveMedia(mediaID)

	// A freshly created offer still describes the about-to-be-removed
	// media, per original_source create_sdp_offer's continue-only-inner-loop
	// behavior preserved in CreateSdpOffer's doc comment.
	offerSD2, err := offerer.CreateSdpOffer()
	if err != nil {
		t.Fatalf("CreateSdpOffer after RemoveMedia: %v", err)
	}
	if len(offerSD2.MediaDescriptions) != 1 {
		t.Fatalf("offer after RemoveMedia has %d m-lines, want 1 (removal takes effect on answer, not immediately)", len(offerSD2.MediaDescriptions))
	}

	offer2, _ := sdpwire.ParseSessionDescription(offerSD2)
	answerSD2, _ := answerer.CreateSdpAnswer(answerer.ReceiveSdpOffer(now, offer2))
	answer2, _ := sdpwire.ParseSessionDescription(answerSD2)
	if errs := offerer.ReceiveSdpAnswer(now, answer2); len(errs) != 0 {
		t.Fatalf("second ReceiveSdpAnswer errors: %v", errs)
	}
	if m, _ := offerer.findMedia(mediaID); m != nil {
		t.Fatal("media still active after the answer to the post-removal offer")
	}
}

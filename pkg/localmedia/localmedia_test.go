package localmedia

import (
	"testing"

	"github.com/arzzra/rtcmedia/pkg/codec"
	"github.com/arzzra/rtcmedia/pkg/sdpdir"
	"github.com/arzzra/rtcmedia/pkg/sdpwire"
)

func pcmuCodec() codec.Codec {
	pt := uint8(0)
	return codec.Codec{Name: "PCMU", ClockRate: 8000, Channels: 1, StaticPT: &pt, PT: 0}
}

func TestMaybeUseForOfferMatches(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 0, sdpdir.SendRecv, DtmfPolicy{})
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.SendRecv,
		RtpMaps:   []sdpwire.RtpMap{{PT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}},
	}
	match, ok := lm.MaybeUseForOffer(remote)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.RemotePT != 0 || match.Codec.Name != "PCMU" {
		t.Errorf("unexpected match %+v", match)
	}
	if match.Direction != sdpdir.SendRecv {
		t.Errorf("direction = %s, want sendrecv", match.Direction)
	}
}

func TestMaybeUseForOfferNoCodecMatch(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 0, sdpdir.SendRecv, DtmfPolicy{})
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.SendRecv,
		RtpMaps:   []sdpwire.RtpMap{{PT: 8, Name: "PCMA", ClockRate: 8000, Channels: 1}},
	}
	if _, ok := lm.MaybeUseForOffer(remote); ok {
		t.Error("expected no match for a codec not in the list")
	}
}

func TestMaybeUseForOfferInactiveDirectionRejected(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 0, sdpdir.RecvOnly, DtmfPolicy{})
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.RecvOnly, // flipped requested direction is SendOnly -> intersect with local RecvOnly is Inactive
		RtpMaps:   []sdpwire.RtpMap{{PT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}},
	}
	if _, ok := lm.MaybeUseForOffer(remote); ok {
		t.Error("expected no match when intersected direction is inactive")
	}
}

func TestMaybeUseForOfferRespectsLimit(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 1, sdpdir.SendRecv, DtmfPolicy{})
	lm.Acquire()
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.SendRecv,
		RtpMaps:   []sdpwire.RtpMap{{PT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}},
	}
	if _, ok := lm.MaybeUseForOffer(remote); ok {
		t.Error("expected limit exhaustion to reject the match")
	}
	lm.Release()
	if !lm.Available() {
		t.Error("expected Available() after Release()")
	}
}

func TestFmtpCompatible(t *testing.T) {
	if !fmtpCompatible("", "profile-level-id=42e01f") {
		t.Error("empty local fmtp should always match")
	}
	if !fmtpCompatible("a=1", "a=1") {
		t.Error("identical fmtp should match")
	}
	if fmtpCompatible("a=1", "a=2") {
		t.Error("different fmtp should not match")
	}
}

func TestChooseCodecFromAnswer(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 0, sdpdir.SendRecv, DtmfPolicy{})
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.SendOnly,
		RtpMaps:   []sdpwire.RtpMap{{PT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1}},
	}
	match, ok := lm.ChooseCodecFromAnswer(remote, 0)
	if !ok {
		t.Fatal("expected a match for the chosen PT")
	}
	if match.Direction != sdpdir.RecvOnly {
		t.Errorf("direction = %s, want recvonly (flip of sendonly)", match.Direction)
	}
}

func TestMatchDtmf(t *testing.T) {
	lm := New(1, codec.Audio, []codec.Codec{pcmuCodec()}, 0, sdpdir.SendRecv, DtmfPolicy{Enabled: true, ClockRate: 8000})
	remote := &sdpwire.MediaDescription{
		Direction: sdpdir.SendRecv,
		RtpMaps: []sdpwire.RtpMap{
			{PT: 0, Name: "PCMU", ClockRate: 8000, Channels: 1},
			{PT: 101, Name: "telephone-event", ClockRate: 8000},
		},
		Fmtps: []sdpwire.Fmtp{{PT: 101, Params: "0-15"}},
	}
	match, ok := lm.MaybeUseForOffer(remote)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Dtmf == nil {
		t.Fatal("expected DTMF to be matched")
	}
	if match.Dtmf.PT != 101 || match.Dtmf.Fmtp != "0-15" {
		t.Errorf("unexpected dtmf match %+v", match.Dtmf)
	}
}

package rtcsession

import (
	"github.com/arzzra/rtcmedia/pkg/media"
	"github.com/arzzra/rtcmedia/pkg/transport"
)

// IceGatheringState returns the minimum (least-progressed) gathering
// state across every transport that uses ICE, or false if none do
// (spec §4.6/original_source mod.rs's ice_gathering_state).
func (s *SessionState) IceGatheringState() (transport.GatheringState, bool) {
	best := transport.GatheringComplete
	found := false
	for _, id := range s.transportOrder {
		e := s.transports[id]
		var agent transport.IceAgent
		var ok bool
		if e.built != nil {
			agent, ok = e.built.IceAgent()
		} else {
			agent, ok = e.building.IceAgent()
		}
		if !ok {
			continue
		}
		if gs := agent.GatheringState(); !found || gs < best {
			best, found = gs, true
		}
	}
	return best, found
}

// IceConnectionState returns the minimum connection state across
// every transport that uses ICE, or false if none do.
func (s *SessionState) IceConnectionState() (transport.ConnectionState, bool) {
	best := transport.StateConnected
	found := false
	for _, id := range s.transportOrder {
		e := s.transports[id]
		var agent transport.IceAgent
		var ok bool
		if e.built != nil {
			agent, ok = e.built.IceAgent()
		} else {
			agent, ok = e.building.IceAgent()
		}
		if !ok {
			continue
		}
		if cs := agent.ConnectionState(); !found || cs < best {
			best, found = cs, true
		}
	}
	return best, found
}

// IceGatheringStateOfMedia returns the gathering state of mediaID's
// transport, false if the media doesn't exist or its transport isn't
// using ICE.
func (s *SessionState) IceGatheringStateOfMedia(mediaID media.ID) (transport.GatheringState, bool) {
	agent, ok := s.iceAgentOfMedia(mediaID)
	if !ok {
		return 0, false
	}
	return agent.GatheringState(), true
}

// IceConnectionStateOfMedia returns the connection state of mediaID's
// transport's ICE agent, false if the media doesn't exist or its
// transport isn't using ICE.
func (s *SessionState) IceConnectionStateOfMedia(mediaID media.ID) (transport.ConnectionState, bool) {
	agent, ok := s.iceAgentOfMedia(mediaID)
	if !ok {
		return 0, false
	}
	return agent.ConnectionState(), true
}

func (s *SessionState) iceAgentOfMedia(mediaID media.ID) (transport.IceAgent, bool) {
	m, _ := s.findMedia(mediaID)
	if m == nil {
		return nil, false
	}
	e, ok := s.transports[m.TransportID()]
	if !ok {
		return nil, false
	}
	if e.built != nil {
		return e.built.IceAgent()
	}
	return e.building.IceAgent()
}

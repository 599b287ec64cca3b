package transport

// IceAgent is the narrow interface the core needs from an ICE
// implementation (spec §4.2/§4.6). Per scope, this module ships no
// concrete agent — only this interface and nullIceAgent, a stub that
// NewBuilder installs when offer_ice is on. A real deployment supplies its
// own implementation (e.g. backed by pion/ice) from outside the core.
type IceAgent interface {
	AddHostCandidate(ip string, port int) error
	AddStunServer(addr string) error
	Credentials() (ufrag, pwd string)
	GatheringState() GatheringState
	ConnectionState() ConnectionState
	SelectedPair() (local, remote Addr, ok bool)
}

// nullIceAgent is a no-op IceAgent: always gathered, never connects on
// its own. Used for transports created with offer_ice on; transports
// created with offer_ice off carry no agent, and their connection
// state machine advances on SDP completion alone.
type nullIceAgent struct {
	ufrag, pwd string
}

func newNullIceAgent(ufrag, pwd string) *nullIceAgent {
	return &nullIceAgent{ufrag: ufrag, pwd: pwd}
}

func (a *nullIceAgent) AddHostCandidate(string, int) error { return nil }
func (a *nullIceAgent) AddStunServer(string) error         { return nil }
func (a *nullIceAgent) Credentials() (string, string)      { return a.ufrag, a.pwd }
func (a *nullIceAgent) GatheringState() GatheringState     { return GatheringComplete }
func (a *nullIceAgent) ConnectionState() ConnectionState   { return StateConnected }
func (a *nullIceAgent) SelectedPair() (Addr, Addr, bool)   { return Addr{}, Addr{}, false }

// Package codec определяет описание кодеков, которыми оперирует
// процесс согласования SDP: статически или динамически назначаемый
// payload type, частота дискретизации, fmtp-параметры и результат
// согласования (NegotiatedCodec).
package codec

// MediaType перечисляет типы медиапотоков, с которыми работает ядро.
type MediaType int

const (
	Audio MediaType = iota
	Video
	Application
)

func (t MediaType) String() string {
	switch t {
	case Audio:
		return "audio"
	case Video:
		return "video"
	case Application:
		return "application"
	default:
		return "unknown"
	}
}

// ParseMediaType converts the SDP m= media token to a MediaType.
// Unknown tokens map to Application, mirroring how an m-line with an
// unrecognized media type is still carried through SDP round-trips.
func ParseMediaType(s string) MediaType {
	switch s {
	case "audio":
		return Audio
	case "video":
		return Video
	default:
		return Application
	}
}

// Codec описывает один локально поддерживаемый кодек до согласования.
// StaticPT не nil для кодеков с фиксированным RFC 3551 payload
// type (PCMU=0, PCMA=8, G722=9, ...); для остальных PT назначается
// динамически в диапазоне [96,127] вызовом AssignDynamicPT.
type Codec struct {
	Name      string
	ClockRate uint32
	Channels  uint8 // 0 = not applicable/not signaled
	StaticPT  *uint8
	PT        uint8 // resolved payload type, set by AssignDynamicPT if StaticPT is nil
	Fmtp      string
}

// Matches reports whether this codec is the same (name, clock rate,
// channels) tuple as another — the comparison SDP offer/answer
// matching is built on, case-insensitive per RFC 4566 encoding names.
func (c Codec) Matches(name string, clockRate uint32, channels uint8) bool {
	return equalFold(c.Name, name) && c.ClockRate == clockRate && c.Channels == channels
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// NegotiatedDtmf carries the result of negotiating a telephone-event
// (RFC 4733) payload type alongside a codec.
type NegotiatedDtmf struct {
	PT   uint8
	Fmtp string // e.g. "0-15"
}

// NegotiatedCodec is the result of reconciling a local Codec against a
// remote description: send/recv payload types may diverge per RFC
// 3264 since each side assigns its own dynamic PT space.
type NegotiatedCodec struct {
	SendPT    uint8
	RecvPT    uint8
	Name      string
	ClockRate uint32
	Channels  uint8
	SendFmtp  string
	RecvFmtp  string
	Dtmf      *NegotiatedDtmf
}

// ErrPTExhausted is returned (wrapped) when the dynamic payload type
// range [96,127] has been exhausted while registering a LocalMedia.
type ErrPTExhausted struct{}

func (ErrPTExhausted) Error() string { return "dynamic payload type range [96,127] exhausted" }

// DynamicPTAllocator hands out payload type numbers in [96,127] in
// increasing order. It is owned by the session and shared across all
// LocalMedia registrations so PT assignments never collide.
type DynamicPTAllocator struct {
	next uint8
}

// NewDynamicPTAllocator creates an allocator starting at the bottom of
// the dynamic range.
func NewDynamicPTAllocator() *DynamicPTAllocator {
	return &DynamicPTAllocator{next: 96}
}

// Reserve hands out one PT per call; payload types need not be
// consecutive across unrelated codecs. It returns ErrPTExhausted without mutating
// state if the range is exhausted, so a caller can roll back a
// partially-assigned batch.
func (a *DynamicPTAllocator) Reserve() (uint8, error) {
	if a.next > 127 {
		return 0, ErrPTExhausted{}
	}
	pt := a.next
	a.next++
	return pt, nil
}

// Checkpoint/Restore let a caller atomically undo a batch of Reserve
// calls if a later one in the same batch fails — mirrors the
// rollback-to-prev_next_pt behavior required by add_local_media.
func (a *DynamicPTAllocator) Checkpoint() uint8  { return a.next }
func (a *DynamicPTAllocator) Restore(mark uint8) { a.next = mark }

// AssignDynamicPT assigns PTs to every codec in codecs lacking a
// StaticPT, using alloc. On exhaustion none of the codecs are mutated
// and ErrPTExhausted is returned.
func AssignDynamicPT(alloc *DynamicPTAllocator, codecs []Codec) error {
	mark := alloc.Checkpoint()
	assigned := make([]uint8, len(codecs))
	for i, c := range codecs {
		if c.StaticPT != nil {
			assigned[i] = *c.StaticPT
			continue
		}
		pt, err := alloc.Reserve()
		if err != nil {
			alloc.Restore(mark)
			return err
		}
		assigned[i] = pt
	}
	for i := range codecs {
		codecs[i].PT = assigned[i]
	}
	return nil
}

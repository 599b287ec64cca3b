// Package sdpdir содержит тип направления медиапотока (RFC 3264:
// sendrecv/sendonly/recvonly/inactive) и утилиты для его инверсии.
package sdpdir

// Direction описывает направление медиапотока с локальной точки зрения.
type Direction int

const (
	SendRecv Direction = iota
	SendOnly
	RecvOnly
	Inactive
)

func (d Direction) String() string {
	switch d {
	case SendRecv:
		return "sendrecv"
	case SendOnly:
		return "sendonly"
	case RecvOnly:
		return "recvonly"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Flip возвращает направление с противоположной точки зрения: то, что
// для удалённой стороны было sendonly, локально становится recvonly.
func (d Direction) Flip() Direction {
	switch d {
	case SendOnly:
		return RecvOnly
	case RecvOnly:
		return SendOnly
	default:
		return d
	}
}

// Bools раскладывает направление на независимые send/recv флаги, что
// упрощает пересечение двух направлений (см. Intersect).
type Bools struct {
	Send bool
	Recv bool
}

func (d Direction) Bools() Bools {
	switch d {
	case SendRecv:
		return Bools{Send: true, Recv: true}
	case SendOnly:
		return Bools{Send: true, Recv: false}
	case RecvOnly:
		return Bools{Send: false, Recv: true}
	default:
		return Bools{Send: false, Recv: false}
	}
}

func (b Bools) Direction() Direction {
	switch {
	case b.Send && b.Recv:
		return SendRecv
	case b.Send:
		return SendOnly
	case b.Recv:
		return RecvOnly
	default:
		return Inactive
	}
}

// Intersect combines the local default direction with the peer's
// (already-flipped) requested direction.
func Intersect(a, b Direction) Direction {
	ab, bb := a.Bools(), b.Bools()
	return Bools{Send: ab.Send && bb.Send, Recv: ab.Recv && bb.Recv}.Direction()
}

// ParseAttribute maps an SDP a=sendrecv/sendonly/recvonly/inactive
// attribute key to a Direction. ok is false if key is none of those.
func ParseAttribute(key string) (Direction, bool) {
	switch key {
	case "sendrecv":
		return SendRecv, true
	case "sendonly":
		return SendOnly, true
	case "recvonly":
		return RecvOnly, true
	case "inactive":
		return Inactive, true
	default:
		return SendRecv, false
	}
}

package sdpdir

import "testing"

func TestFlip(t *testing.T) {
	cases := map[Direction]Direction{
		SendRecv: SendRecv,
		SendOnly: RecvOnly,
		RecvOnly: SendOnly,
		Inactive: Inactive,
	}
	for in, want := range cases {
		if got := in.Flip(); got != want {
			t.Errorf("%s.Flip() = %s, want %s", in, got, want)
		}
	}
}

func TestIntersect(t *testing.T) {
	if got := Intersect(SendRecv, SendOnly); got != SendOnly {
		t.Errorf("Intersect(SendRecv, SendOnly) = %s, want sendonly", got)
	}
	if got := Intersect(RecvOnly, SendOnly); got != Inactive {
		t.Errorf("Intersect(RecvOnly, SendOnly) = %s, want inactive", got)
	}
	if got := Intersect(SendRecv, SendRecv); got != SendRecv {
		t.Errorf("Intersect(SendRecv, SendRecv) = %s, want sendrecv", got)
	}
}

func TestParseAttribute(t *testing.T) {
	if d, ok := ParseAttribute("sendonly"); !ok || d != SendOnly {
		t.Errorf("ParseAttribute(sendonly) = %s,%v", d, ok)
	}
	if _, ok := ParseAttribute("ptime"); ok {
		t.Errorf("ParseAttribute(ptime) should not be a direction")
	}
}

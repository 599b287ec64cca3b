package h264

import "testing"

func TestParseProfileLevelIDRoundTrip(t *testing.T) {
	cases := []string{"42e01f", "640c34", "4d400d"}
	for _, s := range cases {
		p, err := ParseProfileLevelID(s)
		if err != nil {
			t.Fatalf("ParseProfileLevelID(%q): %v", s, err)
		}
		if got := p.String(); got != upper(s) {
			t.Errorf("round trip %q -> %+v -> %q, want %q", s, p, got, upper(s))
		}
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestParseProfileLevelIDInvalidLength(t *testing.T) {
	if _, err := ParseProfileLevelID("42e0"); err == nil {
		t.Error("expected an error for a short profile-level-id")
	}
}

func TestParseProfileLevelIDUnknownProfile(t *testing.T) {
	if _, err := ParseProfileLevelID("ffe01f"); err == nil {
		t.Error("expected an error for an unknown profile_idc")
	}
}

func TestLevel1BAliasing(t *testing.T) {
	// profile_idc=66 (baseline), level_idc=11 with constraint-set-3 set -> Level1B.
	p, err := FromBytes(66, ConstraintSet3Flag, 11)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if p.Level != Level1B {
		t.Errorf("level = %v, want Level1B", p.Level)
	}
	if got := p.String(); got != "42100B" {
		t.Errorf("String() = %q, want 42100B", got)
	}

	p2, err := FromBytes(66, 0, 11)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if p2.Level != Level1_1 {
		t.Errorf("level = %v, want Level1_1", p2.Level)
	}
}

func TestFromBytesUnknownLevel(t *testing.T) {
	if _, err := FromBytes(66, 0, 99); err == nil {
		t.Error("expected an error for an unknown level_idc")
	}
}

func TestResolutionFromMaxFS(t *testing.T) {
	// 4:3 aspect ratio, max-fs=396 macroblocks (CIF): verify the boundary
	// invariant directly rather than a hardcoded resolution, since the
	// result steps by the reduced aspect ratio, not by macroblock units.
	w, h, ok := ResolutionFromMaxFS(4, 3, 396)
	if !ok {
		t.Fatal("expected a resolution")
	}
	const limit = 256 * 396
	if uint64(w)*uint64(h) > limit {
		t.Errorf("%dx%d exceeds the max-fs limit of %d", w, h, limit)
	}
	if uint64(w+4)*uint64(h+3) <= limit {
		t.Errorf("%dx%d is not the largest fit: stepping once more still fits", w, h)
	}
	if w%4 != 0 || h%3 != 0 {
		t.Errorf("%dx%d is not a multiple of the reduced aspect ratio 4:3", w, h)
	}
}

func TestResolutionFromMaxFSRejectsZero(t *testing.T) {
	if _, _, ok := ResolutionFromMaxFS(0, 3, 396); ok {
		t.Error("expected failure for a zero aspect ratio component")
	}
	if _, _, ok := ResolutionFromMaxFS(4, 3, 0); ok {
		t.Error("expected failure for a zero max-fs")
	}
}

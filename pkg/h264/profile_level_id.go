// Package h264 is the narrow external-collaborator surface spec §1
// carves out of the core: H.264 profile/level fmtp parsing and the
// max-frame-size-to-resolution helper its testable properties (§8
// items 6-7) exercise independently of SDP negotiation. Encoder
// configuration and RTP payloading are out of scope here, same as for
// the core.
package h264

import (
	"fmt"
	"strconv"
	"strings"
)

// Profile is an H.264 encoding profile (profile_idc), ITU-T H.264 Annex A.
type Profile int

const (
	ProfileBaseline Profile = iota
	ProfileMain
	ProfileExtended
	ProfileHigh
	ProfileHigh10
	ProfileHigh422
	ProfileHigh444Predictive
	ProfileCAVLC444
)

// ProfileIdc returns the profile_idc byte for this profile.
func (p Profile) ProfileIdc() uint8 {
	switch p {
	case ProfileBaseline:
		return 66
	case ProfileMain:
		return 77
	case ProfileExtended:
		return 88
	case ProfileHigh:
		return 100
	case ProfileHigh10:
		return 110
	case ProfileHigh422:
		return 122
	case ProfileHigh444Predictive:
		return 244
	case ProfileCAVLC444:
		return 44
	default:
		return 66
	}
}

func profileFromIdc(idc uint8) (Profile, bool) {
	switch idc {
	case 66:
		return ProfileBaseline, true
	case 77:
		return ProfileMain, true
	case 88:
		return ProfileExtended, true
	case 100:
		return ProfileHigh, true
	case 110:
		return ProfileHigh10, true
	case 122:
		return ProfileHigh422, true
	case 244:
		return ProfileHigh444Predictive, true
	case 44:
		return ProfileCAVLC444, true
	default:
		return 0, false
	}
}

// Level is an H.264 encoding level (level_idc).
type Level int

const (
	Level1_0 Level = iota
	Level1B
	Level1_1
	Level1_2
	Level1_3
	Level2_0
	Level2_1
	Level2_2
	Level3_0
	Level3_1
	Level3_2
	Level4_0
	Level4_1
	Level4_2
	Level5_0
	Level5_1
	Level5_2
	Level6_0
	Level6_1
	Level6_2
)

// LevelIdc returns the level_idc byte for this level. Level 1.1 and
// Level 1.B share the same idc (11); they are distinguished in the
// wire form by the constrained-set-3 bit of profile_iop.
func (l Level) LevelIdc() uint8 {
	switch l {
	case Level1_0:
		return 10
	case Level1B, Level1_1:
		return 11
	case Level1_2:
		return 12
	case Level1_3:
		return 13
	case Level2_0:
		return 20
	case Level2_1:
		return 21
	case Level2_2:
		return 22
	case Level3_0:
		return 30
	case Level3_1:
		return 31
	case Level3_2:
		return 32
	case Level4_0:
		return 40
	case Level4_1:
		return 41
	case Level4_2:
		return 42
	case Level5_0:
		return 50
	case Level5_1:
		return 51
	case Level5_2:
		return 52
	case Level6_0:
		return 60
	case Level6_1:
		return 61
	case Level6_2:
		return 62
	default:
		return 10
	}
}

// profile_iop constraint-set bit masks (ITU-T H.264 Annex A).
const (
	ConstraintSet0Flag uint8 = 1 << 7
	ConstraintSet1Flag uint8 = 1 << 6
	ConstraintSet2Flag uint8 = 1 << 5
	ConstraintSet3Flag uint8 = 1 << 4
	ConstraintSet4Flag uint8 = 1 << 3
	ConstraintSet5Flag uint8 = 1 << 2
)

// ProfileLevelID is the fmtp "profile-level-id" parameter: three hex
// bytes encoding profile_idc, profile_iop (constraint flags), and
// level_idc.
type ProfileLevelID struct {
	Profile    Profile
	ProfileIop uint8
	Level      Level
}

// DefaultProfileLevelID is Baseline (no constraint flags), Level 1.0 — the
// fallback profile-level-id RFC 6184 mandates when fmtp omits it.
var DefaultProfileLevelID = ProfileLevelID{Profile: ProfileBaseline, Level: Level1_0}

// FromBytes validates and assembles a ProfileLevelID from its three
// raw fields, resolving the Level 1.1/1.B aliasing via the
// constrained-set-3 bit, mirroring the original Rust
// ProfileLevelId::from_bytes.
func FromBytes(profileIdc, profileIop, levelIdc uint8) (ProfileLevelID, error) {
	profile, ok := profileFromIdc(profileIdc)
	if !ok {
		return ProfileLevelID{}, fmt.Errorf("h264: unknown profile-idc %d", profileIdc)
	}
	level, ok := levelFromIdc(levelIdc, profileIop)
	if !ok {
		return ProfileLevelID{}, fmt.Errorf("h264: unknown level-idc %d", levelIdc)
	}
	return ProfileLevelID{Profile: profile, ProfileIop: profileIop, Level: level}, nil
}

func levelFromIdc(idc, profileIop uint8) (Level, bool) {
	switch idc {
	case 10:
		return Level1_0, true
	case 11:
		if profileIop&ConstraintSet3Flag != 0 {
			return Level1B, true
		}
		return Level1_1, true
	case 12:
		return Level1_2, true
	case 13:
		return Level1_3, true
	case 20:
		return Level2_0, true
	case 21:
		return Level2_1, true
	case 22:
		return Level2_2, true
	case 30:
		return Level3_0, true
	case 31:
		return Level3_1, true
	case 32:
		return Level3_2, true
	case 40:
		return Level4_0, true
	case 41:
		return Level4_1, true
	case 42:
		return Level4_2, true
	case 50:
		return Level5_0, true
	case 51:
		return Level5_1, true
	case 52:
		return Level5_2, true
	case 60:
		return Level6_0, true
	case 61:
		return Level6_1, true
	case 62:
		return Level6_2, true
	default:
		return 0, false
	}
}

// ParseProfileLevelID parses the 6-hex-character profile-level-id
// fmtp value.
func ParseProfileLevelID(s string) (ProfileLevelID, error) {
	if len(s) != 6 {
		return ProfileLevelID{}, fmt.Errorf("h264: profile-level-id %q is not exactly 6 hex characters", s)
	}
	profileIdc, err := parseHexByte(s[0:2])
	if err != nil {
		return ProfileLevelID{}, err
	}
	profileIop, err := parseHexByte(s[2:4])
	if err != nil {
		return ProfileLevelID{}, err
	}
	levelIdc, err := parseHexByte(s[4:6])
	if err != nil {
		return ProfileLevelID{}, err
	}
	return FromBytes(profileIdc, profileIop, levelIdc)
}

func parseHexByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("h264: invalid hex byte %q: %w", s, err)
	}
	return uint8(v), nil
}

// String serializes the ProfileLevelID back to its 6-hex-character
// fmtp form, folding the Level 1.B alias back into the constrained-
// set-3 bit — the inverse of ParseProfileLevelID, a fixed point per
// the round-trip property the core's Level 1.B case requires.
func (p ProfileLevelID) String() string {
	iop := p.ProfileIop
	if p.Level == Level1B {
		iop |= ConstraintSet3Flag
	}
	return strings.ToUpper(fmt.Sprintf("%02x%02x%02x", p.Profile.ProfileIdc(), iop, p.Level.LevelIdc()))
}

// gcd returns the greatest common divisor of two positive integers.
func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ResolutionFromMaxFS computes the largest width/height pair at
// aspect ratio num:denom whose macroblock count (w/16 * h/16) does
// not exceed maxFS, per the fmtp "max-fs" parameter (macroblocks,
// each 16x16 = 256 pixels). It searches increasing multiples of the
// reduced aspect ratio and returns the last one that still fits,
// matching spec §8 item 7's invariants:
//
//	(w/g)*(h/g) <= 256*maxFS  and  (w+num/g)*(h+denom/g) > 256*maxFS
//
// where g = gcd(num, denom).
func ResolutionFromMaxFS(num, denom, maxFS uint32) (width, height uint32, ok bool) {
	if num == 0 || denom == 0 || maxFS == 0 {
		return 0, 0, false
	}
	g := gcd(num, denom)
	stepW, stepH := num/g, denom/g
	limit := uint64(256) * uint64(maxFS)

	var w, h uint32
	for k := uint32(1); ; k++ {
		cw, ch := stepW*k, stepH*k
		if uint64(cw)*uint64(ch) > limit {
			break
		}
		w, h = cw, ch
	}
	if w == 0 || h == 0 {
		return 0, 0, false
	}
	return w, h, true
}

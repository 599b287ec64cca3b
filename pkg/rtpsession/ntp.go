package rtpsession

import "time"

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

// toNTP converts a wall-clock time to a 64-bit NTP timestamp as used
// in RTCP Sender Reports (RFC 3550 §4).
func toNTP(t time.Time) uint64 {
	secs := uint64(t.Unix()) + ntpEpochOffset
	frac := uint64(float64(t.Nanosecond()) * (1 << 32) / 1e9)
	return secs<<32 | frac
}

// middle32 extracts the middle 32 bits of an NTP timestamp, the form
// carried in RTCP's "last SR" (LSR) field.
func middle32(ntp uint64) uint32 {
	return uint32(ntp >> 16)
}

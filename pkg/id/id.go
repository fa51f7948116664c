package id

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// RunID identifies one pipeline run. It is 12 bytes big-endian,
// [8 bytes ms_timestamp][4 bytes random], so IDs sort by start time
// and stay unique across supervisors started in the same millisecond.
type RunID [12]byte

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// randRead fills the entropy suffix. Stubbed in tests.
var randRead = crand.Read

// NewRunID generates a fresh run identifier.
func NewRunID() RunID {
	var r RunID
	binary.BigEndian.PutUint64(r[0:8], uint64(NowMs()))
	if _, err := randRead(r[8:12]); err != nil {
		// crypto/rand only fails when the platform source is broken;
		// fall back to the clock rather than returning a zero suffix.
		binary.BigEndian.PutUint32(r[8:12], uint32(time.Now().UnixNano()))
	}
	return r
}

// ParseRunID decodes the 24-character hex form produced by String.
func ParseRunID(s string) (RunID, error) {
	var r RunID
	if len(s) != len(r)*2 {
		return r, fmt.Errorf("run id %q: want %d hex chars, got %d", s, len(r)*2, len(s))
	}
	for i := 0; i < len(r); i++ {
		hi, ok1 := unhex(s[i*2])
		lo, ok2 := unhex(s[i*2+1])
		if !ok1 || !ok2 {
			return RunID{}, fmt.Errorf("run id %q: invalid hex at position %d", s, i*2)
		}
		r[i] = hi<<4 | lo
	}
	return r, nil
}

// Bytes returns the raw 12-byte representation.
func (r RunID) Bytes() []byte { b := make([]byte, len(r)); copy(b, r[:]); return b }

// String returns the lower-case hex form.
func (r RunID) String() string { return fmtHex(r[:]) }

// IsZero reports whether r is the zero identifier.
func (r RunID) IsZero() bool { return r == RunID{} }

// Time returns the moment the run started, at millisecond precision.
func (r RunID) Time() time.Time {
	ms := int64(binary.BigEndian.Uint64(r[0:8]))
	return time.UnixMilli(ms)
}

// Compare returns -1, 0, 1 based on lexical comparison.
func (r RunID) Compare(other RunID) int {
	for idx := 0; idx < len(r); idx++ {
		if r[idx] < other[idx] {
			return -1
		}
		if r[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// fmtHex is a small, allocation-lean hex encoder for fixed-size IDs.
func fmtHex(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

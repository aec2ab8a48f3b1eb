// Package id generates sortable identifiers for requests, batches and log artifacts.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Crockford's Base32 alphabet (excludes I, L, O, U to avoid confusion).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// BatchTimeLayout is the timestamp layout used as the sortable prefix of batch IDs.
const BatchTimeLayout = "20060102150405"

// NewULID generates a ULID for the current time.
func NewULID() string {
	return NewULIDAt(time.Now())
}

// NewULIDAt generates a 26-character ULID: 10 chars of 48-bit millisecond
// timestamp followed by 16 chars of 80-bit randomness.
func NewULIDAt(t time.Time) string {
	var out [26]byte
	encodeTime(out[:10], uint64(t.UnixMilli()))
	encodeRandom(out[10:], 10)
	return string(out[:])
}

// NewShortID generates a 16-character sortable ID: 6 chars of timestamp
// (lower 30 bits of milliseconds) followed by 10 random chars.
func NewShortID() string {
	var out [16]byte
	encodeTime(out[:6], uint64(time.Now().UnixMilli())&0x3FFFFFFF)
	encodeRandom(out[6:], 7)
	return string(out[:])
}

// NewBatchID returns "<YYYYMMDDhhmmss>_<shortid>" for the given start time.
// The timestamp keeps IDs human readable and sortable; the random suffix keeps
// batches started within the same second apart.
func NewBatchID(startedAt time.Time) string {
	var suffix [8]byte
	encodeRandom(suffix[:], 5)
	return startedAt.Format(BatchTimeLayout) + "_" + string(suffix[:])
}

// encodeTime writes the low 5*len(dst) bits of v into dst, most significant first.
func encodeTime(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = crockfordBase32[v&0x1F]
		v >>= 5
	}
}

// encodeRandom fills dst with base32 characters drawn from n random bytes.
// Bits are consumed MSB-first; a trailing partial group is zero-padded.
func encodeRandom(dst []byte, n int) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// Degraded but functional entropy.
		var ts [8]byte
		binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
		for i := range buf {
			buf[i] = ts[i%len(ts)]
		}
	}

	var acc uint32
	bits := 0
	j := 0
	for _, b := range buf {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 && j < len(dst) {
			bits -= 5
			dst[j] = crockfordBase32[(acc>>uint(bits))&0x1F]
			j++
		}
	}
	if bits > 0 && j < len(dst) {
		dst[j] = crockfordBase32[(acc<<uint(5-bits))&0x1F]
		j++
	}
	for ; j < len(dst); j++ {
		dst[j] = crockfordBase32[0]
	}
}

// Package identity generates and formats the CID (RFC 9562 v4 UUID) and
// local MAC address sACN sources use to identify themselves, grounded on
// original_source/src/IDTools.h's bit-twiddling (spec.md §4.2, §9 design
// note 3).
package identity

import (
	"fmt"
	"io"
)

// GenerateUUIDv4 fills a 16-byte buffer from r and stamps it as a version-4,
// variant-RFC4122 UUID: byte 6's top nibble becomes 0x4, byte 8's top two
// bits become 0b10.
func GenerateUUIDv4(r io.Reader) ([16]byte, error) {
	var u [16]byte
	if _, err := io.ReadFull(r, u[:]); err != nil {
		return u, err
	}
	u[6] = 0x40 | (u[6] & 0x0f)
	u[8] = 0x80 | (u[8] & 0x3f)
	return u, nil
}

// VerifyUUID reports the UUID version nibble iff it lies in [1,7] and the
// variant bits are RFC4122-conformant (0b10), or 0 if either check fails.
// This mirrors spec.md §4.7 generically rather than hardcoding version 4:
// any RFC4122 UUID passes, not only the v4 CIDs this package generates.
func VerifyUUID(u [16]byte) uint8 {
	version := u[6] >> 4
	variant := u[8] >> 6
	if version >= 1 && version <= 7 && variant == 0x02 {
		return version
	}
	return 0
}

// FormatUUID renders u as the canonical 36-character uppercase hyphenated
// form sACN's CID field uses in human-facing output.
func FormatUUID(u [16]byte) string {
	return fmt.Sprintf("%02X%02X%02X%02X-%02X%02X-%02X%02X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		u[0], u[1], u[2], u[3], u[4], u[5], u[6], u[7],
		u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15])
}

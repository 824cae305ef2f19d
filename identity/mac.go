package identity

import (
	"fmt"
	"io"
)

// GenerateLocalMAC fills a 6-byte buffer from r and stamps it as a
// locally-administered, administratively-assigned unicast address: the
// multicast bit (bit 0) cleared, the local/universal bit (bit 1) set, and
// the two administratively-assigned bits (bits 2-3) cleared (spec.md §4.7).
func GenerateLocalMAC(r io.Reader) ([6]byte, error) {
	var m [6]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return m, err
	}
	m[0] &^= 0x01
	m[0] |= 0x02
	m[0] &^= 0x0c
	return m, nil
}

// FormatMAC renders m as colon-separated uppercase hex octets.
func FormatMAC(m [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

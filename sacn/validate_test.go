package sacn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validTemplate() [MaxPacketLen]byte {
	cid := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	return BuildTemplate(cid, "test source", 1, 100, StartCodeDMX, false)
}

func TestValidateAcceptsWellFormedPacket(t *testing.T) {
	buf := validTemplate()
	pkt, err := Validate(buf[:], 1)
	require.NoError(t, err)
	require.Equal(t, uint16(1), pkt.Universe)
	require.Equal(t, "test source", pkt.SourceName)
	require.Equal(t, uint8(100), pkt.Priority)
	require.False(t, pkt.Terminated)
}

func TestValidateRejectsShortPacket(t *testing.T) {
	_, err := Validate(make([]byte, 10), 1)
	require.ErrorContains(t, err, "packet too short")
}

func TestValidateRejectsBadPreamble(t *testing.T) {
	buf := validTemplate()
	buf[offPreamble] = 0xff
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "invalid preamble size")
}

func TestValidateRejectsBadACNIdentifier(t *testing.T) {
	buf := validTemplate()
	buf[offACNIdentifier] = 0xff
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "invalid ACN packet identifier")
}

func TestValidateRejectsUniverseMismatch(t *testing.T) {
	buf := validTemplate()
	_, err := Validate(buf[:], 2)
	require.ErrorContains(t, err, "universe mismatch")
}

func TestValidateRejectsPriorityOutOfRange(t *testing.T) {
	buf := validTemplate()
	buf[offPriority] = MaxPriority + 1
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "priority out of range")
}

func TestValidateRejectsInvalidOptions(t *testing.T) {
	buf := validTemplate()
	buf[offOptions] = 0x01 // a reserved bit, not the stream-terminated bit
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "invalid options")
}

func TestValidateAcceptsStreamTerminated(t *testing.T) {
	buf := validTemplate()
	MarkTerminated(buf[:])
	pkt, err := Validate(buf[:], 1)
	require.NoError(t, err)
	require.True(t, pkt.Terminated)
}

func TestValidateDefaultsToRejectingPerSlotPriority(t *testing.T) {
	cid := [16]byte{1}
	buf := BuildTemplate(cid, "x", 1, 100, StartCodePerSlotPriority, true)
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "unsupported start code")

	pkt, err := Validate(buf[:], 1, StartCodeDMX, StartCodePerSlotPriority)
	require.NoError(t, err)
	require.Equal(t, uint8(StartCodePerSlotPriority), pkt.StartCode)
}

func TestValidateRejectsTamperedLength(t *testing.T) {
	buf := validTemplate()
	buf[offRootFlagsLen] = 0x7f
	buf[offRootFlagsLen+1] = 0xff
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "invalid root layer length")
}

func TestValidateRejectsTamperedFlagsNibbleAlone(t *testing.T) {
	buf := validTemplate()
	// Leave the length bits untouched and flip only the top ("flags")
	// nibble from 0x7 to 0x9 — reconstructLength must not discard this.
	buf[offRootFlagsLen] = (buf[offRootFlagsLen] & 0x0f) | 0x90
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "invalid root layer length")
}

func TestValidateRejectsPropertyCountMismatch(t *testing.T) {
	buf := validTemplate()
	buf[offPropValueCount] = 0x00
	buf[offPropValueCount+1] = 0x01
	_, err := Validate(buf[:], 1)
	require.ErrorContains(t, err, "property value count mismatch")
}

func TestDecodeSourceNameStopsAtNull(t *testing.T) {
	field := make([]byte, sourceNameSize)
	copy(field, "abc")
	require.Equal(t, "abc", decodeSourceName(field))
}

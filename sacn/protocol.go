// Package sacn implements the wire codec, source-tracking state machine, and
// sender/receiver façades for ANSI E1.31 streaming ACN (sACN) lighting data.
package sacn

import "encoding/binary"

const (
	// Port is the UDP port sACN data packets are exchanged on.
	Port = 5568

	// MinUniverse and MaxUniverse bound the 16-bit universe number.
	MinUniverse = 1
	MaxUniverse = 63999

	// MaxSlots is the maximum number of DMX512 property slots per universe,
	// not counting the start code.
	MaxSlots = 512

	// HeaderSize is the fixed root+framing+DMP header length, not counting
	// the start code octet.
	HeaderSize = 125

	// MinPacketLen is HeaderSize plus the mandatory start code octet.
	MinPacketLen = HeaderSize + 1

	// MaxPacketLen is HeaderSize + 1 (start code) + MaxSlots: 638 octets.
	MaxPacketLen = HeaderSize + 1 + MaxSlots

	// StartCodeDMX is the NULL start code carrying DMX512 level data.
	StartCodeDMX = 0x00

	// StartCodePerSlotPriority is the per-slot-priority companion stream's
	// start code.
	StartCodePerSlotPriority = 0xDD

	// VectorRootE131Data is the root-layer vector for E1.31 data packets.
	VectorRootE131Data = 0x00000004

	// VectorE131DataPacket is the framing-layer vector for E1.31 data packets.
	VectorE131DataPacket = 0x00000002

	// VectorDMPSetProperty is the DMP-layer vector (SET PROPERTY).
	VectorDMPSetProperty = 0x02

	// addressDataType is the fixed DMP address-type/data-type octet.
	addressDataType = 0xa1

	// DefaultPriority is the default source priority. BuildTemplate and
	// Sender do not apply it; they use the priority they are given.
	DefaultPriority = 100

	// MaxPriority is the highest legal priority value; anything above it
	// invalidates the packet (spec.md §3, §4.3 rule 6).
	MaxPriority = 200

	// optionsStreamTerminated is framing-options bit 6.
	optionsStreamTerminated = 1 << 6

	// Byte offsets into the packet, per the root/framing/DMP layout.
	offPreamble       = 0
	offPostamble      = 2
	offACNIdentifier  = 4
	offRootFlagsLen   = 16
	offRootVector     = 18
	offCID            = 22
	offFramingFlagLen = 38
	offFramingVector  = 40
	offSourceName     = 44
	offPriority       = 108
	offSyncAddress    = 109
	offSequence       = 111
	offOptions        = 112
	offUniverse       = 113
	offDMPFlagLen     = 115
	offDMPVector      = 117
	offAddressType    = 118
	offFirstPropAddr  = 119
	offAddressInc     = 121
	offPropValueCount = 123
	offStartCode      = 125
	offSlots          = 126

	cidSize        = 16
	sourceNameSize = 64

	// flagsNibble is the fixed top nibble ("flags") of every flags+length field.
	flagsNibble = 0x7000
)

// acnIdentifier is "ASC-E1.17\0\0\0", the 12-octet root-layer magic.
var acnIdentifier = [12]byte{
	0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00,
}

// flagsAndLength packs the top nibble 0x7 with a 12-bit length.
func flagsAndLength(length int) uint16 {
	return flagsNibble | uint16(length&0x0fff)
}

// MulticastGroup returns 239.255.<hi>.<lo> for the given universe, the
// group a sender or receiver must join/target for that universe.
func MulticastGroup(universe uint16) [4]byte {
	return [4]byte{239, 255, byte(universe >> 8), byte(universe)}
}

// BuildTemplate constructs a conformant 638-octet E1.31 data packet template
// for the given cid/source name/universe/priority/start code, with
// sequence 0, options 0, and a zeroed slot payload. Flags+length fields are
// computed for the maximum slot count (512), matching the fixed-size buffer
// Receiver/Sender keep for the lifetime of the connection (spec.md §4.2).
//
// When startCode is StartCodePerSlotPriority and priorityFill is true, every
// slot is pre-filled with the scalar priority value, matching the per-slot
// companion stream's documented default (spec.md §4.2).
func BuildTemplate(cid [16]byte, sourceName string, universe uint16, priority uint8, startCode uint8, priorityFill bool) [MaxPacketLen]byte {
	var buf [MaxPacketLen]byte

	copy(buf[offPreamble:], []byte{0x00, 0x10})
	copy(buf[offPostamble:], []byte{0x00, 0x00})
	copy(buf[offACNIdentifier:], acnIdentifier[:])
	binary.BigEndian.PutUint16(buf[offRootFlagsLen:], flagsAndLength(len(buf)-offRootFlagsLen))
	binary.BigEndian.PutUint32(buf[offRootVector:], VectorRootE131Data)
	copy(buf[offCID:], cid[:])

	binary.BigEndian.PutUint16(buf[offFramingFlagLen:], flagsAndLength(len(buf)-offFramingFlagLen))
	binary.BigEndian.PutUint32(buf[offFramingVector:], VectorE131DataPacket)
	setSourceName(buf[:], sourceName)
	buf[offPriority] = priority
	binary.BigEndian.PutUint16(buf[offSyncAddress:], 0)
	buf[offSequence] = 0
	buf[offOptions] = 0
	binary.BigEndian.PutUint16(buf[offUniverse:], universe)

	binary.BigEndian.PutUint16(buf[offDMPFlagLen:], flagsAndLength(len(buf)-offDMPFlagLen))
	buf[offDMPVector] = VectorDMPSetProperty
	buf[offAddressType] = addressDataType
	binary.BigEndian.PutUint16(buf[offFirstPropAddr:], 0)
	binary.BigEndian.PutUint16(buf[offAddressInc:], 1)
	binary.BigEndian.PutUint16(buf[offPropValueCount:], uint16(1+MaxSlots))
	buf[offStartCode] = startCode

	if startCode == StartCodePerSlotPriority && priorityFill {
		for i := offSlots; i < len(buf); i++ {
			buf[i] = priority
		}
	}

	return buf
}

// setSourceName null-pads name into the fixed 64-octet framing field.
func setSourceName(buf []byte, name string) {
	field := buf[offSourceName : offSourceName+sourceNameSize]
	for i := range field {
		field[i] = 0
	}
	copy(field, name)
}

// SetCID patches the CID in-place (idempotent byte copy).
func SetCID(buf []byte, cid [16]byte) {
	copy(buf[offCID:offCID+cidSize], cid[:])
}

// SetSourceName patches the source name in-place.
func SetSourceName(buf []byte, name string) {
	setSourceName(buf, name)
}

// SetSlot writes one DMX slot (1..512); out of range is a silent no-op, per
// spec.md §4.2.
func SetSlot(buf []byte, slot int, value uint8) {
	if slot < 1 || slot > MaxSlots {
		return
	}
	buf[offSlots+slot-1] = value
}

// SetSlots bulk-copies up to 512 bytes starting at slot 1.
func SetSlots(buf []byte, data []byte) {
	copy(buf[offSlots:offSlots+MaxSlots], data)
}

// IncrementSequence adds 1 modulo 256 to the sequence-number octet.
func IncrementSequence(buf []byte) {
	buf[offSequence]++
}

// SetSequence writes the sequence-number octet directly.
func SetSequence(buf []byte, seq uint8) {
	buf[offSequence] = seq
}

// GetSequence reads the sequence-number octet.
func GetSequence(buf []byte) uint8 {
	return buf[offSequence]
}

// MarkTerminated sets the stream-terminated options bit.
func MarkTerminated(buf []byte) {
	buf[offOptions] |= optionsStreamTerminated
}

// GetUniverse reads the configured universe out of a template/packet buffer.
func GetUniverse(buf []byte) uint16 {
	return binary.BigEndian.Uint16(buf[offUniverse : offUniverse+2])
}

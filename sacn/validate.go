package sacn

import "encoding/binary"

// ParseError reports why Validate rejected a datagram. It carries the byte
// offset of the field that failed so callers can log or fuzz against it.
type ParseError struct {
	Message string
	Offset  int
}

func (e *ParseError) Error() string { return e.Message }

func newParseError(message string, offset int) *ParseError {
	return &ParseError{Message: message, Offset: offset}
}

// Packet is a fully validated, layer-decoded E1.31 data packet. It never
// holds more than it needs: Slots is a view into the slot payload as
// received, which may be shorter than MaxSlots (spec.md §9 open question 2).
type Packet struct {
	CID        [16]byte
	SourceName string
	Priority   uint8
	Sequence   uint8
	Universe   uint16
	StartCode  uint8
	Terminated bool
	Slots      []byte
}

// Validate inspects every layer of data against spec.md §4.3 and returns the
// decoded packet iff every rule holds. universe is the receiver's configured
// universe; a mismatch is rejected (rule 8). allowedStartCodes restricts
// which DMP start codes are accepted; when empty it defaults to
// {StartCodeDMX} only, per the "default is reject" policy in spec.md §4.3
// rule 11 — callers that also want the per-slot-priority stream pass
// StartCodePerSlotPriority explicitly.
//
// Validate is pure: no state, no allocation beyond the returned Packet, no I/O.
func Validate(data []byte, universe uint16, allowedStartCodes ...uint8) (*Packet, error) {
	if len(allowedStartCodes) == 0 {
		allowedStartCodes = []uint8{StartCodeDMX}
	}

	if len(data) < MinPacketLen {
		return nil, newParseError("packet too short", 0)
	}
	if len(data) > MaxPacketLen {
		return nil, newParseError("packet too long", 0)
	}

	if data[offPreamble] != 0x00 || data[offPreamble+1] != 0x10 {
		return nil, newParseError("invalid preamble size", offPreamble)
	}
	if data[offPostamble] != 0x00 || data[offPostamble+1] != 0x00 {
		return nil, newParseError("invalid postamble size", offPostamble)
	}
	for i, want := range acnIdentifier {
		if data[offACNIdentifier+i] != want {
			return nil, newParseError("invalid ACN packet identifier", offACNIdentifier)
		}
	}

	if reconstructLength(data, offRootFlagsLen) != len(data) {
		return nil, newParseError("invalid root layer length", offRootFlagsLen)
	}
	if binary.BigEndian.Uint32(data[offRootVector:]) != VectorRootE131Data {
		return nil, newParseError("invalid root vector", offRootVector)
	}

	if reconstructLength(data, offFramingFlagLen) != len(data) {
		return nil, newParseError("invalid framing layer length", offFramingFlagLen)
	}
	if binary.BigEndian.Uint32(data[offFramingVector:]) != VectorE131DataPacket {
		return nil, newParseError("invalid framing vector", offFramingVector)
	}

	priority := data[offPriority]
	if priority > MaxPriority {
		return nil, newParseError("priority out of range", offPriority)
	}

	options := data[offOptions]
	if options&^optionsStreamTerminated != 0 {
		return nil, newParseError("invalid options", offOptions)
	}
	terminated := options&optionsStreamTerminated != 0

	pktUniverse := binary.BigEndian.Uint16(data[offUniverse:])
	if pktUniverse != universe {
		return nil, newParseError("universe mismatch", offUniverse)
	}

	if reconstructLength(data, offDMPFlagLen) != len(data) {
		return nil, newParseError("invalid DMP layer length", offDMPFlagLen)
	}
	if data[offDMPVector] != VectorDMPSetProperty {
		return nil, newParseError("invalid DMP vector", offDMPVector)
	}
	if data[offAddressType] != addressDataType {
		return nil, newParseError("invalid address/data type", offAddressType)
	}
	if binary.BigEndian.Uint16(data[offFirstPropAddr:]) != 0 {
		return nil, newParseError("invalid first property address", offFirstPropAddr)
	}
	if binary.BigEndian.Uint16(data[offAddressInc:]) != 1 {
		return nil, newParseError("invalid address increment", offAddressInc)
	}

	propCount := binary.BigEndian.Uint16(data[offPropValueCount:])
	if int(propCount) != len(data)-offStartCode || propCount < 1 {
		return nil, newParseError("property value count mismatch", offPropValueCount)
	}

	startCode := data[offStartCode]
	if !startCodeAllowed(startCode, allowedStartCodes) {
		return nil, newParseError("unsupported start code", offStartCode)
	}

	var cid [16]byte
	copy(cid[:], data[offCID:offCID+cidSize])

	return &Packet{
		CID:        cid,
		SourceName: decodeSourceName(data[offSourceName : offSourceName+sourceNameSize]),
		Priority:   priority,
		Sequence:   data[offSequence],
		Universe:   pktUniverse,
		StartCode:  startCode,
		Terminated: terminated,
		Slots:      data[offSlots:],
	}, nil
}

// reconstructLength undoes the flags+length encoding at the given field
// offset, matching original_source/src/sACN.cpp's flagAndLength literally:
// stored = 0x7000 | (total_len - fieldOffset), so
// total_len = stored - 0x7000 + fieldOffset (spec.md §4.1). Subtracting
// 0x7000 rather than masking off the top nibble means a tampered flags
// nibble changes the reconstructed length instead of being silently
// discarded.
func reconstructLength(data []byte, fieldOffset int) int {
	stored := binary.BigEndian.Uint16(data[fieldOffset:])
	return int(stored) - 0x7000 + fieldOffset
}

func startCodeAllowed(code uint8, allowed []uint8) bool {
	for _, a := range allowed {
		if a == code {
			return true
		}
	}
	return false
}

// decodeSourceName trims the null-padded 64-octet source name field.
func decodeSourceName(field []byte) string {
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

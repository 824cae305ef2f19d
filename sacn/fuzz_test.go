package sacn

import (
	"bytes"
	"testing"
)

// FuzzValidateArbitrary throws arbitrary bytes at Validate: it must never
// panic, and any accepted packet must report the universe it was asked for.
func FuzzValidateArbitrary(f *testing.F) {
	cid := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	f.Add(BuildTemplate(cid, "test", 1, 100, StartCodeDMX, false)[:])
	f.Add(BuildTemplate(cid, "test", 63999, 200, StartCodeDMX, false)[:])
	f.Add(BuildTemplate(cid, "", 1, 0, StartCodePerSlotPriority, true)[:])
	f.Add([]byte{})
	f.Add(make([]byte, MinPacketLen-1))
	f.Add(make([]byte, MinPacketLen))
	f.Add(make([]byte, MaxPacketLen))

	f.Fuzz(func(t *testing.T, data []byte) {
		pkt, err := Validate(data, 1, StartCodeDMX, StartCodePerSlotPriority)
		if err != nil {
			return
		}
		if pkt.Universe != 1 {
			t.Fatalf("Validate accepted a packet for the wrong universe: %d", pkt.Universe)
		}
	})
}

// FuzzBuildValidateRoundtrip checks that every template BuildTemplate
// constructs for valid inputs survives Validate unchanged.
func FuzzBuildValidateRoundtrip(f *testing.F) {
	f.Add(uint16(1), uint8(0), uint8(100), "test", make([]byte, 512))
	f.Add(uint16(63999), uint8(255), uint8(200), "source", make([]byte, 100))
	f.Add(uint16(100), uint8(1), uint8(0), "", make([]byte, 0))
	f.Add(uint16(1), uint8(0), uint8(100), "a very long source name that exceeds normal limits by a lot", make([]byte, 512))

	f.Fuzz(func(t *testing.T, universe uint16, seq uint8, priority uint8, sourceName string, dmxInput []byte) {
		if universe < MinUniverse || universe > MaxUniverse {
			return
		}
		if priority > MaxPriority {
			return
		}
		cid := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
		buf := BuildTemplate(cid, sourceName, universe, priority, StartCodeDMX, false)
		SetSequence(buf[:], seq)
		SetSlots(buf[:], dmxInput)

		pkt, err := Validate(buf[:], universe)
		if err != nil {
			t.Fatalf("failed to validate a packet we just built: %v", err)
		}
		if pkt.Universe != universe {
			t.Fatalf("universe mismatch: sent %d, got %d", universe, pkt.Universe)
		}
		if pkt.Sequence != seq {
			t.Fatalf("sequence mismatch: sent %d, got %d", seq, pkt.Sequence)
		}
		if pkt.CID != cid {
			t.Fatalf("cid mismatch")
		}
		expectedLen := len(dmxInput)
		if expectedLen > MaxSlots {
			expectedLen = MaxSlots
		}
		if !bytes.Equal(pkt.Slots[:expectedLen], dmxInput[:expectedLen]) {
			t.Fatalf("dmx data mismatch")
		}
	})
}

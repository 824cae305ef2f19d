package config

import "testing"

func FuzzValidateUniverse(f *testing.F) {
	f.Add(uint16(1), string(ModeReceive), uint8(100), false, "")
	f.Add(uint16(63999), string(ModeSend), uint8(200), true, "10.0.0.5")
	f.Add(uint16(0), string(ModeReceive), uint8(0), false, "")
	f.Add(uint16(64000), string(ModeSend), uint8(201), false, "")
	f.Add(uint16(1), "", uint8(100), false, "")
	f.Add(uint16(1), "bogus", uint8(100), false, "")
	f.Add(uint16(1), string(ModeSend), uint8(100), true, "")

	f.Fuzz(func(t *testing.T, number uint16, mode string, priority uint8, unicast bool, target string) {
		u := UniverseConfig{
			Number:        number,
			Mode:          Mode(mode),
			Priority:      priority,
			Unicast:       unicast,
			UnicastTarget: target,
		}
		err := validateUniverse(&u)
		if err != nil {
			return
		}
		if u.Number < 1 || u.Number > 63999 {
			t.Fatalf("validateUniverse accepted out-of-range number %d", u.Number)
		}
		if u.Mode != ModeReceive && u.Mode != ModeSend {
			t.Fatalf("validateUniverse accepted invalid mode %q", u.Mode)
		}
		if u.Priority > 200 {
			t.Fatalf("validateUniverse accepted out-of-range priority %d", u.Priority)
		}
		if u.Mode == ModeSend && u.Unicast && u.UnicastTarget == "" {
			t.Fatalf("validateUniverse accepted unicast send with no target")
		}
	})
}

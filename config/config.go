// Package config loads sacnd's TOML configuration, adapted from the
// teacher's mapping-rule config into per-universe receive/send session
// descriptions (spec.md §5, §9 design note 4 for unicast targets).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gopatchy/sacnd/sacn"
)

// Mode selects whether a configured universe is received or sent.
type Mode string

const (
	ModeReceive Mode = "receive"
	ModeSend    Mode = "send"
)

// Config is sacnd's top-level configuration.
type Config struct {
	SourceName string           `toml:"source_name"`
	Universes  []UniverseConfig `toml:"universe"`
}

// UniverseConfig describes one universe's receive or send session.
type UniverseConfig struct {
	Number          uint16 `toml:"number"`
	Mode            Mode   `toml:"mode"`
	Priority        uint8  `toml:"priority"`
	PerSlotPriority bool   `toml:"per_slot_priority"`
	Unicast         bool   `toml:"unicast"`
	UnicastTarget   string `toml:"unicast_target"` // send mode: destination IPv4; receive mode: unused
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SourceName == "" {
		cfg.SourceName = "sacnd"
	}

	for i := range cfg.Universes {
		if err := validateUniverse(&cfg.Universes[i]); err != nil {
			return nil, fmt.Errorf("universe %d: %w", i, err)
		}
	}

	return &cfg, nil
}

// validateUniverse checks and defaults one UniverseConfig in place. It is
// pure (no file I/O) so it can be exercised directly by fuzz/unit tests.
func validateUniverse(u *UniverseConfig) error {
	if u.Number < sacn.MinUniverse || u.Number > sacn.MaxUniverse {
		return fmt.Errorf("number must be %d-%d", sacn.MinUniverse, sacn.MaxUniverse)
	}
	switch u.Mode {
	case ModeReceive, ModeSend:
	case "":
		return fmt.Errorf("mode is required (receive or send)")
	default:
		return fmt.Errorf("unknown mode %q", u.Mode)
	}
	if u.Priority == 0 {
		u.Priority = sacn.DefaultPriority
	}
	if u.Priority > sacn.MaxPriority {
		return fmt.Errorf("priority must be 0-%d", sacn.MaxPriority)
	}
	if u.Mode == ModeSend && u.Unicast && u.UnicastTarget == "" {
		return fmt.Errorf("unicast_target is required for unicast send")
	}
	return nil
}

// ReceiveUniverses returns the universe configs for receive mode.
func (c *Config) ReceiveUniverses() []UniverseConfig {
	var out []UniverseConfig
	for _, u := range c.Universes {
		if u.Mode == ModeReceive {
			out = append(out, u)
		}
	}
	return out
}

// SendUniverses returns the universe configs for send mode.
func (c *Config) SendUniverses() []UniverseConfig {
	var out []UniverseConfig
	for _, u := range c.Universes {
		if u.Mode == ModeSend {
			out = append(out, u)
		}
	}
	return out
}

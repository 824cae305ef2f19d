package sacn

import (
	"errors"
	"log"
	"time"
)

// SenderState is the sender façade's lifecycle (spec.md §4.6).
type SenderState int

const (
	SenderIdle SenderState = iota
	SenderStreaming
	SenderStopped
)

func (s SenderState) String() string {
	switch s {
	case SenderIdle:
		return "idle"
	case SenderStreaming:
		return "streaming"
	case SenderStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	// PollingTimeNullMS is the max silence window before Idle must
	// re-transmit the NULL/level stream to keep receivers from timing out
	// (spec.md §4.6; receivers apply NetworkDataLossTimeoutMS).
	PollingTimeNullMS = 850

	// PollingTimeDDMS is the equivalent keep-alive window for the per-slot
	// priority companion stream.
	PollingTimeDDMS = 1000

	// StartStopBurstCount is how many packets Begin/Stop transmit back to
	// back, matching E1.31's recommended startup/termination burst so a
	// single dropped datagram doesn't delay source discovery or the
	// stream-terminated clear.
	StartStopBurstCount = 3

	// burstIntervalMS spaces the burst transmissions.
	burstIntervalMS = 40
)

var errSenderNotStreaming = errors.New("sacn: sender is not streaming")

// Sender implements the sACN sender façade: Idle → Streaming → Stopped. It
// owns two fixed-size packet buffers (the NULL/level stream and, when
// enabled, the 0xDD per-slot-priority companion) built once at Begin and
// mutated in place for every transmission (spec.md §4.2, §4.6).
type Sender struct {
	socket SendSocket
	clock  Clock

	cid        [16]byte
	sourceName string

	universe        uint16
	priority        uint8
	perSlotPriority bool
	dest            *[4]byte // nil: multicast group derived from universe

	nullBuf [MaxPacketLen]byte
	ddBuf   [MaxPacketLen]byte

	lastNullSentMS uint32
	lastDDSentMS   uint32

	state SenderState
}

// NewSender stores the socket handle, CID, and source name the façade will
// stamp into every packet it builds. The socket is borrowed, not owned.
func NewSender(socket SendSocket, clock Clock, cid [16]byte, sourceName string) *Sender {
	return &Sender{
		socket:     socket,
		clock:      clock,
		cid:        cid,
		sourceName: sourceName,
		state:      SenderIdle,
	}
}

// Begin starts multicast streaming on universe at the given priority,
// optionally enabling the 0xDD per-slot-priority companion stream. It emits
// a start burst of StartStopBurstCount packets before returning.
func (s *Sender) Begin(universe uint16, priority uint8, perSlotPriority bool) error {
	return s.begin(universe, priority, perSlotPriority, nil)
}

// BeginUnicast is Begin's unicast variant (spec.md §9 design note 4): it
// sends only to dest instead of joining/targeting the multicast group.
func (s *Sender) BeginUnicast(universe uint16, priority uint8, perSlotPriority bool, dest [4]byte) error {
	return s.begin(universe, priority, perSlotPriority, &dest)
}

func (s *Sender) begin(universe uint16, priority uint8, perSlotPriority bool, dest *[4]byte) error {
	if s.state == SenderStreaming {
		s.Stop()
	}

	s.universe = universe
	s.priority = priority
	s.perSlotPriority = perSlotPriority
	s.dest = dest

	s.nullBuf = BuildTemplate(s.cid, s.sourceName, universe, priority, StartCodeDMX, false)
	if perSlotPriority {
		s.ddBuf = BuildTemplate(s.cid, s.sourceName, universe, priority, StartCodePerSlotPriority, true)
	}

	s.state = SenderStreaming
	now := s.clock.NowMS()
	s.lastNullSentMS = now
	s.lastDDSentMS = now

	s.burst()
	log.Printf("[sacn-send] started universe=%d priority=%d per-slot-priority=%t", universe, priority, perSlotPriority)
	return nil
}

// DMX stages DMX512 level data into the NULL-stream buffer without
// transmitting it; the next Send or Idle carries it.
func (s *Sender) DMX(data []byte) {
	SetSlots(s.nullBuf[:], data)
}

// DMXSlot stages one DMX slot (1..512) into the NULL-stream buffer.
func (s *Sender) DMXSlot(slot int, value uint8) {
	SetSlot(s.nullBuf[:], slot, value)
}

// DD stages per-slot-priority data into the 0xDD buffer; a no-op when the
// companion stream wasn't enabled at Begin.
func (s *Sender) DD(data []byte) {
	if !s.perSlotPriority {
		return
	}
	SetSlots(s.ddBuf[:], data)
}

// DDSlot stages one per-slot-priority value; a no-op when the companion
// stream wasn't enabled at Begin.
func (s *Sender) DDSlot(slot int, value uint8) {
	if !s.perSlotPriority {
		return
	}
	SetSlot(s.ddBuf[:], slot, value)
}

// Send transmits the NULL/level stream's current buffer and increments its
// sequence number.
func (s *Sender) Send() error {
	if s.state != SenderStreaming {
		return errSenderNotStreaming
	}
	if err := s.transmit(s.nullBuf[:]); err != nil {
		return err
	}
	IncrementSequence(s.nullBuf[:])
	s.lastNullSentMS = s.clock.NowMS()
	return nil
}

// SendDD transmits the 0xDD companion stream's current buffer, stamped with
// the NULL stream's current sequence number, and then increments that
// NULL-stream counter rather than an independent one — the original
// implementation shares a single sequence counter across both streams, and
// spec.md §9 open question 3 keeps that behavior rather than silently
// "fixing" it. A no-op when the companion stream wasn't enabled at Begin.
func (s *Sender) SendDD() error {
	if !s.perSlotPriority {
		return nil
	}
	if s.state != SenderStreaming {
		return errSenderNotStreaming
	}
	SetSequence(s.ddBuf[:], GetSequence(s.nullBuf[:]))
	if err := s.transmit(s.ddBuf[:]); err != nil {
		return err
	}
	IncrementSequence(s.nullBuf[:])
	s.lastDDSentMS = s.clock.NowMS()
	return nil
}

// Idle re-transmits the NULL/level stream iff PollingTimeNullMS has elapsed
// since the last transmission, the keep-alive call a sender's main loop
// makes every tick regardless of whether new DMX data arrived.
func (s *Sender) Idle() error {
	if s.state != SenderStreaming {
		return nil
	}
	now := s.clock.NowMS()
	if elapsedSince(now, s.lastNullSentMS) < PollingTimeNullMS {
		return nil
	}
	return s.Send()
}

// IdleDD is Idle's 0xDD counterpart, gated by PollingTimeDDMS. A no-op when
// the companion stream wasn't enabled at Begin.
func (s *Sender) IdleDD() error {
	if !s.perSlotPriority || s.state != SenderStreaming {
		return nil
	}
	now := s.clock.NowMS()
	if elapsedSince(now, s.lastDDSentMS) < PollingTimeDDMS {
		return nil
	}
	return s.SendDD()
}

// Stop marks both buffers stream-terminated, emits a termination burst of
// StartStopBurstCount packets, and releases the façade to Stopped.
func (s *Sender) Stop() error {
	if s.state != SenderStreaming {
		s.state = SenderStopped
		return nil
	}

	MarkTerminated(s.nullBuf[:])
	if s.perSlotPriority {
		MarkTerminated(s.ddBuf[:])
	}
	err := s.burst()

	s.state = SenderStopped
	log.Printf("[sacn-send] stopped universe=%d", s.universe)
	return err
}

// burst transmits StartStopBurstCount back-to-back packets on both streams,
// spaced burstIntervalMS apart. The NULL sequence increments between every
// packet, including during the termination burst, matching
// original_source/src/sACN.cpp's Source::send(): the original increments
// the sequence octet on every transmitted packet regardless of whether the
// stream-terminated bit is set.
func (s *Sender) burst() error {
	var firstErr error
	for i := 0; i < StartStopBurstCount; i++ {
		if err := s.transmit(s.nullBuf[:]); err != nil && firstErr == nil {
			firstErr = err
		}
		IncrementSequence(s.nullBuf[:])
		if s.perSlotPriority {
			SetSequence(s.ddBuf[:], GetSequence(s.nullBuf[:]))
			if err := s.transmit(s.ddBuf[:]); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if i < StartStopBurstCount-1 {
			time.Sleep(burstIntervalMS * time.Millisecond)
		}
	}
	return firstErr
}

func (s *Sender) transmit(buf []byte) error {
	dest := s.dest
	if dest == nil {
		g := MulticastGroup(s.universe)
		dest = &g
	}
	return s.socket.Send(*dest, Port, buf)
}

// Universe returns the configured universe.
func (s *Sender) Universe() uint16 {
	return s.universe
}

// State returns the façade's current lifecycle state.
func (s *Sender) State() SenderState {
	return s.state
}

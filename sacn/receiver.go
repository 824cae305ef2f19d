package sacn

import "log"

// ReceiverState is the receiver façade's lifecycle (spec.md §4.5).
type ReceiverState int

const (
	StateIdle ReceiverState = iota
	StateBound
	StateRunning
	StateStopped
)

func (s ReceiverState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBound:
		return "bound"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventSink is the polymorphic callback capability the receiver façade
// dispatches to (spec.md §9 design note: "callbacks → polymorphic event
// sink"). NoopSink is the default.
type EventSink interface {
	OnDmxChanged(r *Receiver)
	OnNewSource(r *Receiver)
	OnTimeout(r *Receiver)
	OnFramerate(r *Receiver)
}

// NoopSink implements EventSink with no-ops.
type NoopSink struct{}

func (NoopSink) OnDmxChanged(*Receiver) {}
func (NoopSink) OnNewSource(*Receiver)  {}
func (NoopSink) OnTimeout(*Receiver)    {}
func (NoopSink) OnFramerate(*Receiver)  {}

// Receiver implements the sACN receiver façade: Idle → Running → Stopped,
// polling a ReceiveSocket, validating, and driving a Tracker (spec.md
// §4.5). Begin binds the socket and moves straight to Running; StateBound
// is never entered.
type Receiver struct {
	socket   ReceiveSocket
	clock    Clock
	sink     EventSink
	metrics  *Metrics
	tracker  *Tracker
	universe uint16
	state    ReceiverState

	allowedStartCodes []uint8
	lastRejectMsg     string

	buf [MaxPacketLen]byte
}

// NewReceiver stores the socket handle; the socket is borrowed, not owned
// (spec.md §5) — the caller manages its lifetime outside Begin/Stop.
func NewReceiver(socket ReceiveSocket, clock Clock) *Receiver {
	return &Receiver{
		socket: socket,
		clock:  clock,
		sink:   NoopSink{},
		state:  StateIdle,
	}
}

// SetEventSink installs the callback target for DmxChanged/NewSource/
// Timeout/Framerate events.
func (r *Receiver) SetEventSink(sink EventSink) {
	if sink == nil {
		sink = NoopSink{}
	}
	r.sink = sink
}

// SetMetrics attaches a Prometheus Metrics instance.
func (r *Receiver) SetMetrics(m *Metrics) {
	r.metrics = m
}

// AllowPerSlotPriority toggles whether the 0xDD per-slot-priority stream is
// also accepted alongside the default NULL/level stream (spec.md §4.4).
func (r *Receiver) AllowPerSlotPriority(allow bool) {
	if allow {
		r.allowedStartCodes = []uint8{StartCodeDMX, StartCodePerSlotPriority}
	} else {
		r.allowedStartCodes = []uint8{StartCodeDMX}
	}
}

// Begin subscribes to the sACN multicast group for universe (or binds
// unicast without joining multicast, spec.md §9 design note 4). A repeat
// call first stops the previous session.
func (r *Receiver) Begin(universe uint16, unicastMode bool) error {
	if r.state != StateIdle {
		r.Stop()
	}

	var err error
	if unicastMode {
		err = r.socket.Begin(Port)
	} else {
		err = r.socket.BeginMulticast(MulticastGroup(universe), Port)
	}
	if err != nil {
		return err
	}

	r.universe = universe
	r.tracker = NewTracker()
	r.state = StateRunning
	if r.allowedStartCodes == nil {
		r.allowedStartCodes = []uint8{StartCodeDMX}
	}
	log.Printf("[sacn-recv] bound universe=%d unicast=%t", universe, unicastMode)
	return nil
}

// Update is a non-blocking poll: it reads at most one pending datagram,
// validates it, feeds the tracker, dispatches callbacks, and always
// re-evaluates the network-data-loss timeout even when nothing was read.
// It returns true exactly when a packet was validated AND accepted by the
// source tracker (spec.md §4.5).
func (r *Receiver) Update() bool {
	if r.state != StateRunning {
		return false
	}

	now := r.clock.NowMS()
	accepted := false

	n, err := r.socket.Receive(r.buf[:])
	switch {
	case err != nil:
		log.Printf("[sacn-recv] socket error: universe=%d err=%v", r.universe, err)
	case n > 0:
		pkt, verr := Validate(r.buf[:n], r.universe, r.allowedStartCodes...)
		if verr != nil {
			r.logReject(verr)
			if r.metrics != nil {
				r.metrics.observeReject()
			}
			break
		}
		r.lastRejectMsg = ""
		ev, ok := r.tracker.Accept(pkt, now)
		r.dispatch(ev)
		accepted = ok
		if r.metrics != nil {
			if ok {
				r.metrics.observeAccept()
			} else {
				r.metrics.observeReject()
			}
		}
	}

	r.dispatch(r.tracker.Tick(now))

	if r.metrics != nil {
		r.metrics.setActive(r.tracker.Active())
		r.metrics.setFramerate(r.tracker.Framerate())
	}

	return accepted
}

// logReject logs at most once per run of identical rejection reasons
// (spec.md §7), rather than once per rejected datagram.
func (r *Receiver) logReject(err error) {
	msg := err.Error()
	if msg == r.lastRejectMsg {
		return
	}
	r.lastRejectMsg = msg
	log.Printf("[sacn-recv] reject universe=%d err=%v", r.universe, msg)
}

func (r *Receiver) dispatch(ev Events) {
	if ev.NewSource {
		r.sink.OnNewSource(r)
	}
	if ev.DmxChanged {
		r.sink.OnDmxChanged(r)
	}
	if ev.Timeout {
		if r.metrics != nil {
			r.metrics.observeTimeout()
		}
		r.sink.OnTimeout(r)
	}
	if ev.Framerate {
		r.sink.OnFramerate(r)
	}
}

// Stop releases the socket and returns the façade to Stopped.
func (r *Receiver) Stop() {
	if r.state == StateIdle {
		return
	}
	if err := r.socket.Stop(); err != nil {
		log.Printf("[sacn-recv] stop error: universe=%d err=%v", r.universe, err)
	}
	r.state = StateStopped
	log.Printf("[sacn-recv] stopped universe=%d", r.universe)
}

// DMX returns a copy of the latched source's 512-slot buffer.
func (r *Receiver) DMX() [MaxSlots]byte {
	if r.tracker == nil {
		return [MaxSlots]byte{}
	}
	return r.tracker.DMX()
}

// DMXSlot returns one DMX slot (1..512).
func (r *Receiver) DMXSlot(slot int) uint8 {
	if r.tracker == nil {
		return 0
	}
	return r.tracker.DMXSlot(slot)
}

// Name returns the latched source's name.
func (r *Receiver) Name() string {
	if r.tracker == nil {
		return ""
	}
	return r.tracker.Name()
}

// Framerate returns the latched source's last-published framerate.
func (r *Receiver) Framerate() uint8 {
	if r.tracker == nil {
		return 0
	}
	return r.tracker.Framerate()
}

// SourcesActive reports whether a source is currently latched and live.
func (r *Receiver) SourcesActive() bool {
	return r.tracker != nil && r.tracker.Active()
}

// Universe returns the configured universe.
func (r *Receiver) Universe() uint16 {
	return r.universe
}

// State returns the façade's current lifecycle state.
func (r *Receiver) State() ReceiverState {
	return r.state
}

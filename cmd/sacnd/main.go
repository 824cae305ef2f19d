// Command sacnd is a standalone sACN receiver/sender daemon: it binds one
// Receiver or Sender per configured universe and exposes per-universe
// Prometheus metrics for the received universes over HTTP.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gopatchy/sacnd/config"
	"github.com/gopatchy/sacnd/identity"
	"github.com/gopatchy/sacnd/sacn"
)

const pollInterval = 20 * time.Millisecond

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	sacnInterface := flag.String("sacn-interface", "", "network interface for sACN multicast")
	pcapInterface := flag.String("pcap-interface", "", "capture interface for pcap-based receive (bypasses bound-port conflicts, requires root)")
	metricsListen := flag.String("metrics-listen", ":9110", "Prometheus metrics listen address (empty to disable)")
	debug := flag.Bool("debug", false, "log DMX-change and framerate events")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[config] error: %v", err)
	}
	log.Printf("[config] loaded source_name=%q universes=%d", cfg.SourceName, len(cfg.Universes))

	cid, err := identity.GenerateUUIDv4(rand.Reader)
	if err != nil {
		log.Fatalf("[identity] cid generation error: %v", err)
	}
	if identity.VerifyUUID(cid) == 0 {
		log.Fatalf("[identity] generated CID failed RFC4122 self-check: %s", identity.FormatUUID(cid))
	}
	log.Printf("[identity] cid=%s", identity.FormatUUID(cid))

	app := &app{
		cfg:     cfg,
		cid:     cid,
		debug:   *debug,
		metrics: http.NewServeMux(),
	}

	for _, u := range cfg.ReceiveUniverses() {
		if err := app.startReceiver(u, *sacnInterface, *pcapInterface); err != nil {
			log.Fatalf("[sacn-recv] universe=%d start error: %v", u.Number, err)
		}
	}
	for _, u := range cfg.SendUniverses() {
		if err := app.startSender(u, *sacnInterface); err != nil {
			log.Fatalf("[sacn-send] universe=%d start error: %v", u.Number, err)
		}
	}

	if *metricsListen != "" {
		go func() {
			log.Printf("[metrics] listening addr=%s", *metricsListen)
			if err := http.ListenAndServe(*metricsListen, app.metrics); err != nil && err != http.ErrServerClosed {
				log.Printf("[metrics] server error: %v", err)
			}
		}()
	}

	go app.pollLoop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] shutting down")
	app.stop()
}

type app struct {
	cfg     *config.Config
	cid     [16]byte
	debug   bool
	metrics *http.ServeMux

	mu        sync.Mutex
	receivers []*sacn.Receiver
	senders   []*sacn.Sender
}

func (a *app) startReceiver(u config.UniverseConfig, ifaceName, pcapIface string) error {
	var socket sacn.ReceiveSocket
	var err error
	if pcapIface != "" {
		socket, err = sacn.NewPcapSocket(pcapIface)
	} else {
		socket, err = sacn.NewUDPSocket(ifaceName)
	}
	if err != nil {
		return err
	}

	r := sacn.NewReceiver(socket, sacn.NewRealClock())
	r.AllowPerSlotPriority(u.PerSlotPriority)

	m := sacn.NewMetrics(u.Number)
	r.SetMetrics(m)
	a.metrics.Handle(fmt.Sprintf("/metrics/universe/%d", u.Number), m.Handler())

	r.SetEventSink(&logSink{universe: u.Number, debug: a.debug})

	if err := r.Begin(u.Number, u.Unicast); err != nil {
		return err
	}

	a.mu.Lock()
	a.receivers = append(a.receivers, r)
	a.mu.Unlock()

	log.Printf("[sacn-recv] universe=%d unicast=%t per-slot-priority=%t", u.Number, u.Unicast, u.PerSlotPriority)
	return nil
}

func (a *app) startSender(u config.UniverseConfig, ifaceName string) error {
	socket, err := sacn.NewSendSocket(ifaceName)
	if err != nil {
		return err
	}

	s := sacn.NewSender(socket, sacn.NewRealClock(), a.cid, a.cfg.SourceName)

	if u.Unicast {
		var dest [4]byte
		if err := parseIPv4(u.UnicastTarget, &dest); err != nil {
			return fmt.Errorf("unicast_target: %w", err)
		}
		err = s.BeginUnicast(u.Number, u.Priority, u.PerSlotPriority, dest)
	} else {
		err = s.Begin(u.Number, u.Priority, u.PerSlotPriority)
	}
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.senders = append(a.senders, s)
	a.mu.Unlock()

	log.Printf("[sacn-send] universe=%d priority=%d unicast=%t per-slot-priority=%t", u.Number, u.Priority, u.Unicast, u.PerSlotPriority)
	return nil
}

// pollLoop drives every receiver's non-blocking Update and every sender's
// keep-alive Idle/IdleDD, the cooperative scheduling loop the façades are
// designed around (spec.md §4.5, §4.6).
func (a *app) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		a.mu.Lock()
		receivers := append([]*sacn.Receiver(nil), a.receivers...)
		senders := append([]*sacn.Sender(nil), a.senders...)
		a.mu.Unlock()

		for _, r := range receivers {
			r.Update()
		}
		for _, s := range senders {
			if err := s.Idle(); err != nil {
				log.Printf("[sacn-send] universe=%d idle error: %v", s.Universe(), err)
			}
			if err := s.IdleDD(); err != nil {
				log.Printf("[sacn-send] universe=%d idle-dd error: %v", s.Universe(), err)
			}
		}
	}
}

func (a *app) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.receivers {
		r.Stop()
	}
	for _, s := range a.senders {
		if err := s.Stop(); err != nil {
			log.Printf("[sacn-send] universe=%d stop error: %v", s.Universe(), err)
		}
	}
}

// logSink bridges receiver events into bracketed log lines.
type logSink struct {
	universe uint16
	debug    bool
	sacn.NoopSink
}

func (l *logSink) OnNewSource(r *sacn.Receiver) {
	log.Printf("[sacn-recv] new source universe=%d name=%q", l.universe, r.Name())
}

func (l *logSink) OnDmxChanged(r *sacn.Receiver) {
	if l.debug {
		log.Printf("[sacn-recv] dmx changed universe=%d", l.universe)
	}
}

func (l *logSink) OnTimeout(r *sacn.Receiver) {
	log.Printf("[sacn-recv] source lost universe=%d", l.universe)
}

func (l *logSink) OnFramerate(r *sacn.Receiver) {
	if l.debug {
		log.Printf("[sacn-recv] framerate universe=%d fps=%d", l.universe, r.Framerate())
	}
}

func parseIPv4(s string, out *[4]byte) error {
	var a, b, c, d int
	if _, err := fmt.Sscanf(s, "%d.%d.%d.%d", &a, &b, &c, &d); err != nil {
		return err
	}
	if a < 0 || a > 255 || b < 0 || b > 255 || c < 0 || c > 255 || d < 0 || d > 255 {
		return fmt.Errorf("invalid IPv4 address %q", s)
	}
	*out = [4]byte{byte(a), byte(b), byte(c), byte(d)}
	return nil
}

func init() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
}

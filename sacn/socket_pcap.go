package sacn

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PcapSocket is an alternate ReceiveSocket backed by packet capture instead
// of a bound UDP port, grounded on sacn/receiver_pcap.go in the teacher
// repo: it avoids the port-5568 conflict a bound socket would have with
// another sACN receiver on the same host, at the cost of requiring
// root/admin privileges.
type PcapSocket struct {
	handle *pcap.Handle
	pkts   chan []byte
	done   chan struct{}
}

// NewPcapSocket opens iface for capture and filters to sACN's UDP port.
func NewPcapSocket(iface string) (*PcapSocket, error) {
	handle, err := pcap.OpenLive(iface, 1600, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("pcap open: %w", err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("udp port %d", Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("pcap filter: %w", err)
	}

	s := &PcapSocket{
		handle: handle,
		pkts:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go s.capture()
	return s, nil
}

func (s *PcapSocket) capture() {
	source := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	for {
		select {
		case <-s.done:
			return
		case pkt, ok := <-source.Packets():
			if !ok {
				return
			}
			udpLayer := pkt.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}
			payload := append([]byte(nil), udp.Payload...)
			select {
			case s.pkts <- payload:
			default:
				// backlog full: drop, matching the non-blocking poll
				// contract rather than stalling capture.
			}
		}
	}
}

// Begin is a no-op: the BPF filter installed at open time already scopes
// capture to sACN traffic regardless of unicast/multicast framing.
func (s *PcapSocket) Begin(int) error { return nil }

// BeginMulticast is a no-op for the same reason as Begin.
func (s *PcapSocket) BeginMulticast([4]byte, int) error { return nil }

// Receive is a non-blocking poll of the capture backlog.
func (s *PcapSocket) Receive(buf []byte) (int, error) {
	select {
	case pkt := <-s.pkts:
		return copy(buf, pkt), nil
	default:
		return 0, nil
	}
}

// Stop closes the capture handle.
func (s *PcapSocket) Stop() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.handle.Close()
	return nil
}

// ListInterfaces returns available network interfaces for packet capture.
func ListInterfaces() ([]string, error) {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(devices))
	for _, dev := range devices {
		names = append(names, dev.Name)
	}
	return names, nil
}

// DefaultInterface returns a reasonable default interface for capture: the
// first non-loopback interface with at least one address.
func DefaultInterface() string {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return "en0"
	}
	for _, dev := range devices {
		if len(dev.Addresses) > 0 && dev.Name != "lo0" && dev.Name != "lo" {
			return dev.Name
		}
	}
	if len(devices) > 0 {
		return devices[0].Name
	}
	return "en0"
}

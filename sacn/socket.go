package sacn

import (
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// ReceiveSocket is the polymorphic socket capability the receiver façade
// consumes (spec.md §6: begin/begin_multicast/stop/parse_packet/read,
// collapsed into one non-blocking Receive call — Go has no analogue to a
// bare "pending datagram size" probe separate from reading it).
type ReceiveSocket interface {
	// Begin binds for unicast reception on port.
	Begin(port int) error
	// BeginMulticast joins the given IPv4 multicast group on port.
	BeginMulticast(group [4]byte, port int) error
	// Receive is a non-blocking poll: it returns the next pending
	// datagram's payload length, or 0 with a nil error when nothing is
	// available yet.
	Receive(buf []byte) (n int, err error)
	// Stop releases the socket.
	Stop() error
}

// SendSocket is the polymorphic socket capability the sender façade
// consumes (spec.md §6: begin_packet/write/end_packet collapsed into Send).
type SendSocket interface {
	Send(dest [4]byte, port int, buf []byte) error
	Stop() error
}

// UDPSocket is the default ReceiveSocket implementation, backed by
// golang.org/x/net/ipv4 the way sacn/receiver.go in the teacher repo joins
// multicast groups. The send side is NewSendSocket's separate socket.
type UDPSocket struct {
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	iface *net.Interface
}

// NewUDPSocket creates a socket bound to ifaceName for multicast interface
// selection ("" selects the system default).
func NewUDPSocket(ifaceName string) (*UDPSocket, error) {
	var iface *net.Interface
	if ifaceName != "" {
		found, err := net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, err
		}
		iface = found
	}
	return &UDPSocket{iface: iface}, nil
}

// Begin binds for unicast reception on port without joining any multicast
// group — the correct behavior for unicast receive mode (spec.md §9 design
// note 4).
func (s *UDPSocket) Begin(port int) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return err
	}
	s.conn = conn
	s.pconn = ipv4.NewPacketConn(conn)
	return nil
}

// BeginMulticast binds on port and joins the given IPv4 multicast group.
func (s *UDPSocket) BeginMulticast(group [4]byte, port int) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return err
	}
	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(s.iface, &net.UDPAddr{IP: net.IPv4(group[0], group[1], group[2], group[3])}); err != nil {
		conn.Close()
		return err
	}
	s.conn = conn
	s.pconn = pconn
	return nil
}

// Receive polls for a pending datagram, waiting at most 1 ms: it arms a
// 1 ms read deadline and treats a timeout as "nothing pending". (A deadline
// of time.Now() would fail every read, pending datagram or not.)
func (s *UDPSocket) Receive(buf []byte) (int, error) {
	if s.conn == nil {
		return 0, nil
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Stop releases the socket.
func (s *UDPSocket) Stop() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.pconn = nil
	return err
}

// sendConn is a dedicated send-side UDP socket, opened by NewSendSocket, matching
// sacn/sender.go's pattern of an ephemeral-port outbound connection
// separate from any bound receive socket.
type sendConn struct {
	conn  *net.UDPConn
	iface *net.Interface
}

// NewSendSocket opens an ephemeral-port UDP socket for transmission,
// optionally pinned to a specific outbound interface for multicast sends.
func NewSendSocket(ifaceName string) (SendSocket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, err
	}

	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			conn.Close()
			return nil, err
		}
		p := ipv4.NewPacketConn(conn)
		if err := p.SetMulticastInterface(iface); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &sendConn{conn: conn, iface: iface}, nil
}

func (s *sendConn) Send(dest [4]byte, port int, buf []byte) error {
	addr := &net.UDPAddr{IP: net.IPv4(dest[0], dest[1], dest[2], dest[3]), Port: port}
	_, err := s.conn.WriteToUDP(buf, addr)
	return err
}

func (s *sendConn) Stop() error {
	return s.conn.Close()
}

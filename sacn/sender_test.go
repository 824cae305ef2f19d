package sacn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sentPacket struct {
	dest [4]byte
	port int
	data []byte
}

type fakeSendSocket struct {
	sent    []sentPacket
	stopped bool
}

func (s *fakeSendSocket) Send(dest [4]byte, port int, buf []byte) error {
	s.sent = append(s.sent, sentPacket{dest: dest, port: port, data: append([]byte(nil), buf...)})
	return nil
}

func (s *fakeSendSocket) Stop() error {
	s.stopped = true
	return nil
}

var senderCID = [16]byte{7}

func TestSenderBeginEmitsStartBurst(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")

	require.NoError(t, s.Begin(1, 100, false))
	require.Equal(t, StartStopBurstCount, len(socket.sent))
	require.Equal(t, MulticastGroup(1), socket.sent[0].dest)
	require.Equal(t, Port, socket.sent[0].port)
}

func TestSenderSendIncrementsSequence(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")
	require.NoError(t, s.Begin(1, 100, false))

	socket.sent = nil
	s.DMX([]byte{1, 2, 3})
	require.NoError(t, s.Send())
	require.Len(t, socket.sent, 1)
	require.Equal(t, uint8(1), socket.sent[0].data[offSlots])

	firstSeq := GetSequence(socket.sent[0].data)
	require.NoError(t, s.Send())
	secondSeq := GetSequence(socket.sent[1].data)
	require.Equal(t, firstSeq+1, secondSeq)
}

func TestSenderSendDDSharesNullSequenceCounter(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")
	require.NoError(t, s.Begin(1, 100, true))

	socket.sent = nil
	require.NoError(t, s.Send())
	require.NoError(t, s.SendDD())

	require.Len(t, socket.sent, 2)
	nullSeq := GetSequence(socket.sent[0].data)
	ddSeq := GetSequence(socket.sent[1].data)
	require.Equal(t, nullSeq+1, ddSeq)
}

func TestSenderDDNoopWithoutPerSlotPriority(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")
	require.NoError(t, s.Begin(1, 100, false))

	socket.sent = nil
	s.DD([]byte{1})
	require.NoError(t, s.SendDD())
	require.Empty(t, socket.sent)
}

func TestSenderIdleRespectsPollingWindow(t *testing.T) {
	socket := &fakeSendSocket{}
	clock := &fakeClock{ms: 1000}
	s := NewSender(socket, clock, senderCID, "console")
	require.NoError(t, s.Begin(1, 100, false))

	socket.sent = nil
	require.NoError(t, s.Idle())
	require.Empty(t, socket.sent, "idle before the polling window elapses should not transmit")

	clock.ms += PollingTimeNullMS + 1
	require.NoError(t, s.Idle())
	require.Len(t, socket.sent, 1)
}

func TestSenderStopEmitsTerminationBurst(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")
	require.NoError(t, s.Begin(1, 100, false))

	socket.sent = nil
	require.NoError(t, s.Stop())
	require.Equal(t, StartStopBurstCount, len(socket.sent))
	for _, p := range socket.sent {
		require.NotZero(t, p.data[offOptions]&optionsStreamTerminated)
	}
	require.Equal(t, SenderStopped, s.State())
}

func TestSenderBeginUnicastTargetsDest(t *testing.T) {
	socket := &fakeSendSocket{}
	s := NewSender(socket, &fakeClock{ms: 1000}, senderCID, "console")
	dest := [4]byte{10, 0, 0, 5}

	require.NoError(t, s.BeginUnicast(1, 100, false, dest))
	require.Equal(t, dest, socket.sent[0].dest)
}

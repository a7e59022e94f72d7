// Package udp implements the single datagram request/response exchange used to talk to master servers.
package udp

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultBufferSize is the upper bound for a single reply datagram.
// Anything the peer sends past this size is dropped by the socket.
const DefaultBufferSize = 8 * 1024

// Phase names the step of the exchange that failed.
type Phase string

const (
	// PhaseConnect covers address resolution, bind of the local port and connect.
	PhaseConnect Phase = "connect"
	// PhaseSend covers the datagram write.
	PhaseSend Phase = "send"
	// PhaseReceive covers the read of the reply, including deadline expiry.
	PhaseReceive Phase = "receive"
)

// ConnectivityError is returned for any socket level failure of an exchange.
type ConnectivityError struct {
	Err     error
	Address string
	Phase   Phase
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("udp %s %s: %v", e.Phase, e.Address, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by an expired read deadline.
func (e *ConnectivityError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// SendAndReceive sends message to address and waits for one reply datagram of at most DefaultBufferSize bytes.
// A zero timeout blocks until a reply arrives.
func SendAndReceive(address string, message []byte, timeout time.Duration) ([]byte, error) {
	return Exchange(address, message, timeout, DefaultBufferSize)
}

// Exchange is SendAndReceive with an explicit receive buffer size.
// Non-positive sizes fall back to DefaultBufferSize.
func Exchange(address string, message []byte, timeout time.Duration, bufferSize int) ([]byte, error) {
	conn, err := Connect(address)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := Send(conn, address, message); err != nil {
		return nil, err
	}

	return Receive(conn, address, timeout, bufferSize)
}

// Connect binds an ephemeral local port and connects it to address.
func Connect(address string) (*net.UDPConn, error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, &ConnectivityError{Phase: PhaseConnect, Address: address, Err: err}
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, &ConnectivityError{Phase: PhaseConnect, Address: address, Err: err}
	}

	return conn, nil
}

// Send writes message as a single datagram on a connected socket.
func Send(conn *net.UDPConn, address string, message []byte) error {
	if _, err := conn.Write(message); err != nil {
		return &ConnectivityError{Phase: PhaseSend, Address: address, Err: err}
	}

	return nil
}

// Receive reads one datagram from a connected socket.
func Receive(conn *net.UDPConn, address string, timeout time.Duration, bufferSize int) ([]byte, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, &ConnectivityError{Phase: PhaseReceive, Address: address, Err: err}
	}

	buffer := make([]byte, bufferSize)
	n, err := conn.Read(buffer)
	if err != nil {
		return nil, &ConnectivityError{Phase: PhaseReceive, Address: address, Err: err}
	}

	return buffer[:n], nil
}

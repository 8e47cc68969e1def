package transport

import (
	"net"
	"sync/atomic"
	"syscall"

	"github.com/godzie44/go-uring/uring"

	"github.com/nczempin/httpd-go-uring/errors"
)

// connQueueDepth is small because a v2 connection has one request in flight
const connQueueDepth = 4

// UringListenerV2 implements Listener with godzie44/go-uring. Accept is a
// blocking accept(2); each connection gets its own ring for read and write,
// since a go-uring ring must not be shared between goroutines.
type UringListenerV2 struct {
	fd     int
	addr   *net.TCPAddr
	closed atomic.Bool
}

// NewUringListenerV2 takes ownership of sock. It tries ring setup once so
// an unsupported kernel is reported here rather than on the first request.
func NewUringListenerV2(sock *ListenSocket) (*UringListenerV2, error) {
	ring, err := uring.New(connQueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	ring.Close()

	return &UringListenerV2{fd: sock.Fd, addr: sock.Addr}, nil
}

// Accept waits for the next client
func (l *UringListenerV2) Accept() (Conn, error) {
	for {
		fd, sa, err := syscall.Accept(l.fd)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			if l.closed.Load() {
				return nil, errors.NewTransportError(errors.TransportErrorListenerClosed, "", err)
			}
			return nil, errors.NewTransportError(errors.TransportErrorAcceptFailure, "accept failed", err)
		}
		syscall.CloseOnExec(fd)

		ring, err := uring.New(connQueueDepth)
		if err != nil {
			syscall.Close(fd)
			return nil, errors.NewTransportError(
				errors.TransportErrorIoUringInit,
				"failed to initialize io_uring",
				err,
			)
		}

		return &UringConnV2{ring: ring, fd: fd, remote: sockaddrString(sa)}, nil
	}
}

// Close shuts the listening socket down, which wakes a blocked accept
func (l *UringListenerV2) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	syscall.Shutdown(l.fd, syscall.SHUT_RDWR)
	if err := syscall.Close(l.fd); err != nil {
		return errors.NewTransportError(errors.TransportErrorListenerClosed, "failed to close socket", err)
	}
	return nil
}

// Addr returns the bound address
func (l *UringListenerV2) Addr() net.Addr {
	return l.addr
}

// UringConnV2 is an accepted connection with a private ring
type UringConnV2 struct {
	ring   *uring.Ring
	fd     int
	remote string
}

// submit queues one operation and waits for its completion
func (c *UringConnV2) submit(op uring.Operation, failure errors.TransportError) (int, error) {
	if err := c.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue request",
			err,
		)
	}

	if _, err := c.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}

	cqe, err := c.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(failure, "failed to wait for completion", err)
	}

	if err := cqe.Error(); err != nil {
		c.ring.SeenCQE(cqe)
		return 0, errors.NewTransportError(failure, "operation failed", err)
	}

	n := int(cqe.Res)
	c.ring.SeenCQE(cqe)
	return n, nil
}

// Read receives data from the connection using io_uring
func (c *UringConnV2) Read(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "connection closed", nil)
	}

	n, err := c.submit(uring.Read(uintptr(c.fd), buf, 0), errors.TransportErrorSocketReadFailure)
	if err != nil {
		return 0, err
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "closed by peer", nil)
	}

	return n, nil
}

// Write sends data over the connection using io_uring
func (c *UringConnV2) Write(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "connection closed", nil)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := c.submit(uring.Write(uintptr(c.fd), buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure)
		if err != nil {
			return totalWritten, err
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Close closes the socket and releases the ring
func (c *UringConnV2) Close() error {
	if c.fd < 0 {
		return nil
	}

	err := syscall.Close(c.fd)
	c.fd = -1
	if c.ring != nil {
		c.ring.Close()
		c.ring = nil
	}

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "failed to close socket", err)
	}
	return nil
}

// RemoteAddr returns the peer address
func (c *UringConnV2) RemoteAddr() string {
	return c.remote
}

package transport

import (
	"net"
	"sync/atomic"
	"syscall"

	"github.com/iceber/iouring-go"

	"github.com/nczempin/httpd-go-uring/errors"
)

// QueueDepth is the submission queue size of the io_uring instances
const QueueDepth = 32

// UringListener implements Listener using io_uring for accept, read and write
type UringListener struct {
	iour   *iouring.IOURing
	fd     int
	addr   *net.TCPAddr
	closed atomic.Bool
}

// NewUringListener takes ownership of sock and serves it through io_uring
func NewUringListener(sock *ListenSocket) (*UringListener, error) {
	iour, err := iouring.New(QueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringListener{
		iour: iour,
		fd:   sock.Fd,
		addr: sock.Addr,
	}, nil
}

// Accept waits for the next client through an io_uring accept request
func (l *UringListener) Accept() (Conn, error) {
	if l.closed.Load() {
		return nil, errors.NewTransportError(errors.TransportErrorListenerClosed, "", nil)
	}

	ch := make(chan iouring.Result, 1)
	if _, err := l.iour.SubmitRequest(iouring.Accept(l.fd), ch); err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit accept request",
			err,
		)
	}

	result := <-ch
	fd, err := result.ReturnFd()
	if err != nil {
		if l.closed.Load() {
			return nil, errors.NewTransportError(errors.TransportErrorListenerClosed, "", err)
		}
		return nil, errors.NewTransportError(errors.TransportErrorAcceptFailure, "accept failed", err)
	}

	return &UringConn{iour: l.iour, fd: fd, remote: peerAddr(fd)}, nil
}

// Close shuts the listening socket down, which completes a pending accept
func (l *UringListener) Close() error {
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
func (l *UringListener) Addr() net.Addr {
	return l.addr
}

// Destroy cleans up resources including the io_uring instance
func (l *UringListener) Destroy() {
	l.Close()
	if l.iour != nil {
		l.iour.Close()
		l.iour = nil
	}
}

// UringConn is an accepted connection sharing the listener's ring
type UringConn struct {
	iour   *iouring.IOURing
	fd     int
	remote string
	closed bool
}

// Read receives data from the connection using io_uring
func (c *UringConn) Read(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "connection closed", nil)
	}

	ch := make(chan iouring.Result, 1)
	if _, err := c.iour.SubmitRequest(iouring.Read(c.fd, buf), ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	// Read and Write install a result resolver; Recv and Send do not, so
	// ReturnInt would never yield a byte count for them.
	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "closed by peer", nil)
	}

	return n, nil
}

// Write sends data over the connection using io_uring
func (c *UringConn) Write(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "connection closed", nil)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		if _, err := c.iour.SubmitRequest(iouring.Write(c.fd, buf[totalWritten:]), ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
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

// Close closes the connection
func (c *UringConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := syscall.Close(c.fd); err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "failed to close socket", err)
	}
	return nil
}

// RemoteAddr returns the peer address
func (c *UringConn) RemoteAddr() string {
	return c.remote
}

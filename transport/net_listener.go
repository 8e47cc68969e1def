package transport

import (
	stderrors "errors"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/nczempin/httpd-go-uring/errors"
)

// NetListener implements Listener on top of the standard net package
type NetListener struct {
	ln net.Listener
}

// NewNetListener takes ownership of sock and serves it through net. On
// error the socket is left open for the caller.
func NewNetListener(sock *ListenSocket) (*NetListener, error) {
	dup, err := syscall.Dup(sock.Fd)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorListenFailure,
			"failed to dup listening socket",
			err,
		)
	}
	f := os.NewFile(uintptr(dup), "listener")
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorListenFailure,
			"failed to wrap listening socket",
			err,
		)
	}

	// FileListener holds its own descriptor.
	syscall.Close(sock.Fd)
	return &NetListener{ln: ln}, nil
}

// Accept waits for the next client
func (l *NetListener) Accept() (Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		if stderrors.Is(err, net.ErrClosed) {
			return nil, errors.NewTransportError(errors.TransportErrorListenerClosed, "", err)
		}
		return nil, errors.NewTransportError(errors.TransportErrorAcceptFailure, "accept failed", err)
	}
	return &NetConn{conn: conn}, nil
}

// Close closes the listener
func (l *NetListener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound address
func (l *NetListener) Addr() net.Addr {
	return l.ln.Addr()
}

// NetConn implements Conn over a net.Conn
type NetConn struct {
	conn   net.Conn
	closed bool
}

// Read receives data from the connection
func (c *NetConn) Read(buf []byte) (int, error) {
	n, err := c.conn.Read(buf)
	if err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "closed by peer", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	}
	return n, nil
}

// Write sends buf over the connection
func (c *NetConn) Write(buf []byte) (int, error) {
	n, err := c.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "closed by peer", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
	}
	return n, nil
}

// Close closes the connection
func (c *NetConn) Close() error {
	if c.closed {
		return nil // Idempotent close
	}
	c.closed = true
	return c.conn.Close()
}

// RemoteAddr returns the peer address
func (c *NetConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

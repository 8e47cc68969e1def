package transport

import "net"

// Listener defines the interface for accepting client connections
type Listener interface {
	// Accept blocks until a client connects
	// Returns a ListenerClosed error once Close has been called
	Accept() (Conn, error)

	// Close stops the listener; a blocked Accept returns
	Close() error

	// Addr returns the bound local address
	Addr() net.Addr
}

// Conn defines one accepted client connection
type Conn interface {
	// Read receives data from the connection
	// Returns the number of bytes read
	Read(buf []byte) (int, error)

	// Write sends all of buf over the connection
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Close closes the connection
	Close() error

	// RemoteAddr returns the peer address, or "" if unknown
	RemoteAddr() string
}

// Destroyer is implemented by listeners that hold resources beyond the
// socket itself, such as an io_uring instance.
type Destroyer interface {
	Destroy()
}

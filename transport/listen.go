package transport

import (
	"fmt"
	"net"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/errors"
)

// ListenConfig describes where and how to listen
type ListenConfig struct {
	// Host is empty for the wildcard address
	Host    string
	Port    string
	Backlog int
}

// ListenSocket is a bound socket in listening state
type ListenSocket struct {
	Fd   int
	Addr *net.TCPAddr
}

// Listen resolves the configured address, binds the first candidate that
// accepts a bind and puts it into listening state.
func Listen(cfg ListenConfig, logger zerolog.Logger) (*ListenSocket, error) {
	candidates, err := resolvePassive(cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}

	fd := -1
	var lastErr error
	for _, sa := range candidates {
		logger.Debug().Str("candidate", sockaddrString(sa)).Msg("binding")

		fd, lastErr = bindSocket(sa)
		if lastErr == nil {
			break
		}
		logger.Debug().Err(lastErr).Str("candidate", sockaddrString(sa)).Msg("bind failed")
	}
	if fd < 0 {
		return nil, errors.NewTransportError(
			errors.TransportErrorBindFailure,
			fmt.Sprintf("no address for %s:%s could be bound", cfg.Host, cfg.Port),
			lastErr,
		)
	}

	if err := syscall.Listen(fd, cfg.Backlog); err != nil {
		syscall.Close(fd)
		return nil, errors.NewTransportError(
			errors.TransportErrorListenFailure,
			fmt.Sprintf("listen with backlog %d", cfg.Backlog),
			err,
		)
	}

	addr, err := localAddr(fd)
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}

	logger.Info().Str("addr", addr.String()).Int("backlog", cfg.Backlog).Msg("listening")
	return &ListenSocket{Fd: fd, Addr: addr}, nil
}

// Close releases the socket. Listeners built from the socket own it, so
// this is only for a socket that was never handed to one.
func (s *ListenSocket) Close() error {
	return syscall.Close(s.Fd)
}

// resolvePassive returns the IPv4 candidates for host:port. An empty host
// means the wildcard address.
func resolvePassive(host, port string) ([]syscall.Sockaddr, error) {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		portNum, err = net.LookupPort("tcp", port)
	}
	if err != nil || portNum < 0 || portNum > 65535 {
		return nil, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("invalid port %q", port),
			err,
		)
	}

	if host == "" {
		return []syscall.Sockaddr{&syscall.SockaddrInet4{Port: portNum}}, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("failed to resolve %s", host),
			err,
		)
	}

	var candidates []syscall.Sockaddr
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			sa := &syscall.SockaddrInet4{Port: portNum}
			copy(sa.Addr[:], ip4)
			candidates = append(candidates, sa)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("no IPv4 address for %s", host),
			nil,
		)
	}

	return candidates, nil
}

// bindSocket creates a stream socket and binds it to sa
func bindSocket(sa syscall.Sockaddr) (int, error) {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		syscall.Close(fd)
		return -1, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set SO_REUSEADDR",
			err,
		)
	}

	if err := syscall.Bind(fd, sa); err != nil {
		syscall.Close(fd)
		return -1, err
	}

	return fd, nil
}

func localAddr(fd int) (*net.TCPAddr, error) {
	sa, err := syscall.Getsockname(fd)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"getsockname",
			err,
		)
	}
	return tcpAddr(sa), nil
}

func tcpAddr(sa syscall.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *syscall.SockaddrInet4:
		return &net.TCPAddr{IP: net.IPv4(sa.Addr[0], sa.Addr[1], sa.Addr[2], sa.Addr[3]), Port: sa.Port}
	case *syscall.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}
	default:
		return &net.TCPAddr{}
	}
}

func sockaddrString(sa syscall.Sockaddr) string {
	return tcpAddr(sa).String()
}

// peerAddr returns the remote address of fd, or "" if it cannot be read
func peerAddr(fd int) string {
	sa, err := syscall.Getpeername(fd)
	if err != nil {
		return ""
	}
	return sockaddrString(sa)
}

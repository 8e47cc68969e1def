package transport

import (
	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Kind selects a Listener implementation
type Kind string

const (
	KindUring   Kind = "iouring"
	KindUringV2 Kind = "iouring-v2"
	KindNet     Kind = "net"
)

// DefaultKinds is the order Open tries listener implementations in
var DefaultKinds = []Kind{KindUring, KindUringV2, KindNet}

// Open binds and listens, then wraps the socket in the first kind that
// initialises. Only io_uring setup failures fall through to the next kind.
func Open(cfg ListenConfig, kinds []Kind, logger zerolog.Logger) (Listener, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}

	sock, err := Listen(cfg, logger)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, kind := range kinds {
		var ln Listener
		switch kind {
		case KindUring:
			ln, lastErr = NewUringListener(sock)
		case KindUringV2:
			ln, lastErr = NewUringListenerV2(sock)
		case KindNet:
			ln, lastErr = NewNetListener(sock)
		default:
			continue
		}

		if lastErr == nil {
			logger.Info().Str("transport", string(kind)).Msg("transport ready")
			return ln, nil
		}
		if !errors.IsTransport(lastErr, errors.TransportErrorIoUringInit) {
			break
		}
		logger.Warn().Err(lastErr).Str("transport", string(kind)).Msg("transport unavailable, trying next")
	}

	sock.Close()
	if lastErr == nil {
		lastErr = errors.NewTransportError(errors.TransportErrorListenFailure, "no usable transport kind", nil)
	}
	return nil, lastErr
}

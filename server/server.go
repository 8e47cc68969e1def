package server

import (
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resource"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Server runs the accept loop: one read, one dispatch and one write per
// connection, then close.
type Server struct {
	cfg        Config
	listener   transport.Listener
	dispatcher *Dispatcher
	builder    *protocol.ResponseBuilder
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

// New creates a server on listener
func New(cfg Config, listener transport.Listener, dispatcher *Dispatcher, logger zerolog.Logger) *Server {
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultMaxRequestSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &Server{
		cfg:        cfg,
		listener:   listener,
		dispatcher: dispatcher,
		builder:    protocol.NewResponseBuilder(cfg.MaxResponseSize),
		logger:     logger,
	}
}

// NewDispatcherFor wires the disk, MIME and shell collaborators for cfg
func NewDispatcherFor(cfg Config, logger zerolog.Logger) *Dispatcher {
	return NewDispatcher(
		resource.NewDiskFiles(cfg.Root),
		resource.NewMimeClassifier(cfg.Root),
		resource.NewShellRunner(cfg.Root),
		cfg.IndexFile,
		logger,
	)
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener fails. It returns nil after
// Close and the accept error otherwise.
func (s *Server) Serve() error {
	if d, ok := s.listener.(transport.Destroyer); ok {
		defer d.Destroy()
	}

	slots := make(chan struct{}, s.cfg.Workers)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.wg.Wait()
			if errors.IsTransport(err, errors.TransportErrorListenerClosed) {
				s.logger.Info().Msg("listener closed")
				return nil
			}
			s.logger.Error().Err(err).Msg("accept failed")
			return err
		}

		if s.cfg.Workers == 1 {
			s.handle(conn)
			continue
		}

		slots <- struct{}{}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-slots }()
			s.handle(conn)
		}()
	}
}

// Close stops the listener; Serve returns once in-flight connections finish
func (s *Server) Close() error {
	return s.listener.Close()
}

// handle serves exactly one request on conn
func (s *Server) handle(conn transport.Conn) {
	defer conn.Close()
	logger := s.logger.With().Str("remote", conn.RemoteAddr()).Logger()

	buf := make([]byte, s.cfg.MaxRequestSize)
	n, err := conn.Read(buf)
	if errors.IsTransport(err, errors.TransportErrorConnectionClosed) {
		logger.Debug().Msg("peer closed before sending a request")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("read failed")
		return
	}

	req, resp := s.dispatcher.Dispatch(buf[:n])
	msg := s.builder.Build(resp)

	written, err := conn.Write(msg)
	if err != nil {
		logger.Warn().Err(err).Int("bytes", written).Msg("write failed")
		return
	}

	event := logger.Info().Int("status", int(resp.Status)).Int("bytes", written)
	if req != nil {
		event = event.Str("method", req.Token).Str("target", req.Target)
	}
	event.Msg("served")
}

// Command httpd serves files for GET and runs form-posted commands for POST
// on port 3421, one connection at a time.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/transport"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := server.DefaultConfig()

	ln, err := transport.Open(transport.ListenConfig{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Backlog: cfg.Backlog,
	}, transport.DefaultKinds, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("port", cfg.Port).Msg("cannot listen")
	}

	srv := server.New(cfg, ln, server.NewDispatcherFor(cfg, logger), logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

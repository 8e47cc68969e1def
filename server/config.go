package server

import "github.com/nczempin/httpd-go-uring/protocol"

const (
	// DefaultPort is the fixed listening port
	DefaultPort = "3421"
	// DefaultBacklog bounds the queue of not yet accepted connections
	DefaultBacklog = 5
	// DefaultMaxRequestSize is the size of the single read per connection
	DefaultMaxRequestSize = 4096
	// DefaultMaxResponseSize caps a rendered response; larger bodies are cut
	DefaultMaxResponseSize = 1 << 20
)

// Config holds the server settings
type Config struct {
	// Host is empty to listen on every IPv4 address
	Host    string
	Port    string
	Backlog int

	// Root is the document root and the working directory of commands
	Root      string
	IndexFile string

	MaxRequestSize  int
	MaxResponseSize int

	// Workers is the number of connections served at once. 1 keeps the
	// strict one-at-a-time behaviour.
	Workers int
}

// DefaultConfig returns the fixed configuration the server runs with
func DefaultConfig() Config {
	return Config{
		Port:            DefaultPort,
		Backlog:         DefaultBacklog,
		Root:            ".",
		IndexFile:       protocol.DefaultIndexFile,
		MaxRequestSize:  DefaultMaxRequestSize,
		MaxResponseSize: DefaultMaxResponseSize,
		Workers:         1,
	}
}

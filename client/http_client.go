package client

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
)

var (
	headerSeparator  = []byte("\r\n\r\n")
	contentLengthKey = []byte("Content-Length:")
)

// HttpResponse represents a response as received by the client
type HttpResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       protocol.HttpHeaders
	Body          []byte
	ContentLength int
}

// HttpClient sends one request per connection to an httpd server. The
// server closes after each response, so nothing is reused.
type HttpClient struct {
	addr    string
	Timeout time.Duration
}

// NewHttpClient creates a client for host:port
func NewHttpClient(host string, port int) *HttpClient {
	return &HttpClient{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		Timeout: 5 * time.Second,
	}
}

// Get requests path
func (c *HttpClient) Get(path string) (*HttpResponse, error) {
	return c.Do([]byte(fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", path, c.addr)))
}

// PostCommand posts a form with a single command field
func (c *HttpClient) PostCommand(path, command string) (*HttpResponse, error) {
	body := "command=" + url.QueryEscape(command)
	raw := fmt.Sprintf(
		"POST %s HTTP/1.1\r\nHost: %s\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: %d\r\n\r\n%s",
		path, c.addr, len(body), body,
	)
	return c.Do([]byte(raw))
}

// Do writes raw as the request and parses the response
func (c *HttpClient) Do(raw []byte) (*HttpResponse, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.Timeout)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			fmt.Sprintf("failed to connect to %s", c.addr),
			err,
		)
	}
	defer conn.Close()

	if c.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.Timeout))
	}

	if _, err := conn.Write(raw); err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	buffer, headerSize, contentLength, err := readFullResponse(conn)
	if err != nil {
		return nil, err
	}

	return parseResponse(buffer, headerSize, contentLength)
}

// readFullResponse reads until the declared body is complete or the peer closes
func readFullResponse(conn net.Conn) ([]byte, int, int, error) {
	buffer := make([]byte, 0, 1024)
	headerSize := 0
	contentLength := -1

	readBuf := make([]byte, 1024)
	for {
		n, err := conn.Read(readBuf)
		buffer = append(buffer, readBuf[:n]...)

		// Look for header separator if we haven't found it yet
		if headerSize == 0 {
			if pos := bytes.Index(buffer, headerSeparator); pos >= 0 {
				headerSize = pos + len(headerSeparator)
				contentLength = parseContentLength(buffer[:headerSize])
			}
		}

		if contentLength >= 0 && len(buffer) >= headerSize+contentLength {
			break
		}

		if err != nil {
			if !stderrors.Is(err, io.EOF) {
				return nil, 0, 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
			}
			if contentLength >= 0 && len(buffer) < headerSize+contentLength {
				return nil, 0, 0, errors.NewProtocolError(
					errors.ProtocolErrorIncompleteResponse,
					"connection closed before complete response received",
				)
			}
			break
		}
	}

	if headerSize == 0 {
		return nil, 0, 0, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"failed to parse HTTP response headers",
		)
	}

	return buffer, headerSize, contentLength, nil
}

// parseContentLength extracts Content-Length from headers
func parseContentLength(headersView []byte) int {
	lines := bytes.Split(headersView, []byte("\n"))
	for _, line := range lines[1:] { // Skip status line
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}

		if bytes.HasPrefix(bytes.ToLower(line), bytes.ToLower(contentLengthKey)) {
			value := strings.TrimSpace(string(line[len(contentLengthKey):]))
			if length, err := strconv.Atoi(value); err == nil {
				return length
			}
		}
	}
	return -1
}

// parseResponse splits the buffer into status line, headers and body
func parseResponse(buffer []byte, headerSize, contentLength int) (*HttpResponse, error) {
	headersBlock := buffer[:headerSize-len(headerSeparator)]

	// Split into status line and rest of headers
	parts := bytes.SplitN(headersBlock, []byte("\n"), 2)
	statusLine := bytes.TrimSuffix(parts[0], []byte("\r"))

	// Parse status line: "HTTP/1.1 200 OK"
	statusParts := bytes.SplitN(statusLine, []byte(" "), 3)
	if len(statusParts) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"invalid status line format",
		)
	}

	statusCode, err := strconv.Atoi(string(statusParts[1]))
	if err != nil {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status code: %s", statusParts[1]),
		)
	}

	statusMessage := ""
	if len(statusParts) >= 3 {
		statusMessage = string(statusParts[2])
	}

	var headers protocol.HttpHeaders
	if len(parts) > 1 {
		for _, line := range bytes.Split(parts[1], []byte("\n")) {
			line = bytes.TrimSuffix(line, []byte("\r"))
			headerParts := bytes.SplitN(line, []byte(":"), 2)
			if len(headerParts) == 2 {
				headers = append(headers, protocol.HttpHeader{
					Key:   string(headerParts[0]),
					Value: strings.TrimSpace(string(headerParts[1])),
				})
			}
		}
	}

	var body []byte
	if contentLength >= 0 {
		body = buffer[headerSize : headerSize+contentLength]
	} else {
		body = buffer[headerSize:]
	}

	return &HttpResponse{
		StatusCode:    statusCode,
		StatusMessage: statusMessage,
		Headers:       headers,
		Body:          append([]byte(nil), body...),
		ContentLength: contentLength,
	}, nil
}

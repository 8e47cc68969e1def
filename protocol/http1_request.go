package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
)

// DefaultIndexFile is served for the "/" target
const DefaultIndexFile = "index.html"

var (
	contentLengthKey = "Content-Length"
	commandKey       = []byte("command=")
)

// ParseRequest parses one request that was read in a single recv. A request
// split across reads is not reassembled. indexFile replaces the "/" target;
// when empty DefaultIndexFile is used.
//
// An unrecognised method yields a request with MethodOther and a nil error;
// the rest of such a request is not parsed.
func ParseRequest(raw []byte, indexFile string) (*HttpRequest, error) {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}

	requestLine, rest, _ := nextLine(raw)
	tokens := bytes.FieldsFunc(requestLine, func(r rune) bool { return r == ' ' })
	if len(tokens) == 0 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorMalformedRequestLine,
			"empty request line",
		)
	}

	req := &HttpRequest{
		Method:        parseMethod(tokens[0]),
		Token:         string(tokens[0]),
		ContentLength: -1,
	}
	if req.Method == MethodOther {
		return req, nil
	}

	if len(tokens) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorMalformedRequestLine,
			fmt.Sprintf("no target in %q", requestLine),
		)
	}
	req.Target = string(tokens[1])

	headers, body, terminated := parseHeaders(rest)
	req.Headers = headers
	if value, ok := headers.Get(contentLengthKey); ok {
		req.ContentLength = parseContentLength(value)
	}

	switch req.Method {
	case MethodGet:
		if req.Target == "/" {
			req.Path = indexFile
		} else {
			req.Path = strings.TrimPrefix(req.Target, "/")
		}
		return req, nil

	case MethodPost:
		if !terminated {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorTruncatedRequest,
				"header section not terminated by an empty line",
			)
		}
		if req.ContentLength < 0 {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorMissingContentLength,
				"POST without a valid Content-Length",
			)
		}

		// The declared length may exceed what one read delivered.
		if len(body) > req.ContentLength {
			body = body[:req.ContentLength]
		}
		req.Body = append([]byte(nil), body...)

		command, err := parseCommand(req.Body)
		if err != nil {
			return nil, err
		}
		req.Command = command
	}

	return req, nil
}

func parseMethod(token []byte) HttpMethod {
	switch {
	case bytes.EqualFold(token, []byte("GET")):
		return MethodGet
	case bytes.EqualFold(token, []byte("POST")):
		return MethodPost
	default:
		return MethodOther
	}
}

// parseHeaders reads header lines up to the empty line. It returns the bytes
// after the empty line and whether the empty line was found at all.
func parseHeaders(buf []byte) (HttpHeaders, []byte, bool) {
	var headers HttpHeaders

	for len(buf) > 0 {
		line, rest, ok := nextLine(buf)
		if !ok {
			return headers, nil, false
		}
		buf = rest

		if len(line) == 0 {
			return headers, buf, true
		}

		parts := bytes.SplitN(line, []byte(":"), 2)
		if len(parts) != 2 {
			continue
		}
		headers = append(headers, HttpHeader{
			Key:   string(bytes.TrimSpace(parts[0])),
			Value: string(bytes.TrimSpace(parts[1])),
		})
	}

	return headers, nil, false
}

// parseContentLength returns -1 for anything that is not a non-negative integer
func parseContentLength(value string) int {
	length, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || length < 0 {
		return -1
	}
	return length
}

// parseCommand finds the command= field on the first line of a form body
// and percent-decodes its value.
func parseCommand(body []byte) (string, error) {
	line, _, _ := nextLine(body)

	for _, field := range bytes.Split(line, []byte("&")) {
		if !bytes.HasPrefix(field, commandKey) {
			continue
		}
		decoded, err := PercentDecode(field[len(commandKey):])
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}

	return "", errors.NewProtocolError(
		errors.ProtocolErrorMissingCommand,
		"no command= field in body",
	)
}

// nextLine splits buf at the first '\n'. The line has its trailing '\r'
// removed. ok is false when buf holds no '\n'; line is then all of buf.
func nextLine(buf []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, '\n')
	if i < 0 {
		return bytes.TrimSuffix(buf, []byte("\r")), nil, false
	}
	return bytes.TrimSuffix(buf[:i], []byte("\r")), buf[i+1:], true
}

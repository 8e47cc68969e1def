package protocol

import "strings"

// HttpMethod represents HTTP request methods
type HttpMethod int

const (
	MethodOther HttpMethod = iota
	MethodGet
	MethodPost
)

func (m HttpMethod) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "OTHER"
	}
}

// HttpStatus is the set of statuses the server can answer with
type HttpStatus int

const (
	StatusOK             HttpStatus = 200
	StatusNotFound       HttpStatus = 404
	StatusServerError    HttpStatus = 500
	StatusNotImplemented HttpStatus = 501
)

// Reason returns the reason phrase written on the status line.
func (s HttpStatus) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "Not Found"
	case StatusNotImplemented:
		return "Not Implemented"
	default:
		return "Server Error"
	}
}

// DefaultContentType is used when no content type is known
const DefaultContentType = "text/plain"

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// HttpHeaders is a list of headers with case-insensitive lookup
type HttpHeaders []HttpHeader

// Get returns the value of the first header named key, ignoring case.
func (h HttpHeaders) Get(key string) (string, bool) {
	for _, header := range h {
		if strings.EqualFold(header.Key, key) {
			return header.Value, true
		}
	}
	return "", false
}

// HttpRequest represents a parsed HTTP request
type HttpRequest struct {
	Method HttpMethod
	// Token is the method token as sent by the client.
	Token string
	// Target is the request target before any mapping.
	Target string
	// Path is the relative resource path for GET requests.
	Path    string
	Headers HttpHeaders
	// ContentLength is -1 unless a Content-Length header parsed.
	ContentLength int
	Body          []byte
	// Command is the decoded command= value of a POST body.
	Command string
}

// HttpResponse represents a response before rendering
type HttpResponse struct {
	Status      HttpStatus
	ContentType string
	Body        []byte
}

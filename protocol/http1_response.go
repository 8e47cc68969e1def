package protocol

import (
	"strconv"
	"time"
)

// DateLayout is the RFC 1123 form used for the Date header
const DateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// ResponseBuilder renders responses into wire format
type ResponseBuilder struct {
	// MaxSize bounds the rendered message; 0 means unbounded. Only the body
	// is ever cut, so a MaxSize below the head length yields the bare head
	// with an empty body and the message still exceeds MaxSize.
	MaxSize int
	// Now supplies the Date header; it is read at render time.
	Now func() time.Time
}

// NewResponseBuilder creates a builder using the wall clock
func NewResponseBuilder(maxSize int) *ResponseBuilder {
	return &ResponseBuilder{
		MaxSize: maxSize,
		Now:     time.Now,
	}
}

// Build renders resp. If the message would exceed MaxSize the body is cut
// short; Content-Length always describes the body actually written.
func (b *ResponseBuilder) Build(resp *HttpResponse) []byte {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	date := now().UTC().Format(DateLayout)

	contentType := resp.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	body := resp.Body
	head := buildHead(resp.Status, date, contentType, len(body))
	for b.MaxSize > 0 && len(head)+len(body) > b.MaxSize && len(body) > 0 {
		room := b.MaxSize - len(head)
		if room < 0 {
			room = 0
		}
		body = body[:room]
		head = buildHead(resp.Status, date, contentType, len(body))
	}

	buf := make([]byte, 0, len(head)+len(body))
	buf = append(buf, head...)
	return append(buf, body...)
}

// buildHead formats the status line, headers and blank line
func buildHead(status HttpStatus, date, contentType string, contentLength int) []byte {
	head := make([]byte, 0, 128)

	head = append(head, "HTTP/1.1 "...)
	head = strconv.AppendInt(head, int64(status), 10)
	head = append(head, ' ')
	head = append(head, status.Reason()...)
	head = append(head, "\r\n"...)

	head = append(head, "Date: "...)
	head = append(head, date...)
	head = append(head, "\r\n"...)

	head = append(head, "Content-Type: "...)
	head = append(head, contentType...)
	head = append(head, "\r\n"...)

	head = append(head, "Content-Length: "...)
	head = strconv.AppendInt(head, int64(contentLength), 10)
	head = append(head, "\r\n"...)

	return append(head, "\r\n"...)
}

package protocol

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"
)

var fixedNow = func() time.Time {
	return time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC)
}

// splitMessage separates a rendered response into header lines and body
func splitMessage(t *testing.T, msg []byte) ([]string, []byte) {
	t.Helper()

	pos := bytes.Index(msg, []byte("\r\n\r\n"))
	if pos < 0 {
		t.Fatalf("No header terminator in %q", msg)
	}
	return strings.Split(string(msg[:pos]), "\r\n"), msg[pos+4:]
}

func headerValue(lines []string, key string) string {
	for _, line := range lines[1:] {
		if k, v, ok := strings.Cut(line, ": "); ok && k == key {
			return v
		}
	}
	return ""
}

func TestResponseBuilder_Build_OK(t *testing.T) {
	b := &ResponseBuilder{Now: fixedNow}
	msg := b.Build(&HttpResponse{
		Status:      StatusOK,
		ContentType: "text/html",
		Body:        []byte("<p>hi</p>\r\n"),
	})

	want := "HTTP/1.1 200 OK\r\n" +
		"Date: Fri, 31 Dec 1999 23:59:59 GMT\r\n" +
		"Content-Type: text/html\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"<p>hi</p>\r\n"
	if string(msg) != want {
		t.Errorf("Build returned\n%q\nwant\n%q", msg, want)
	}
}

func TestResponseBuilder_Build_StatusLines(t *testing.T) {
	tests := []struct {
		status HttpStatus
		line   string
	}{
		{StatusOK, "HTTP/1.1 200 OK"},
		{StatusNotFound, "HTTP/1.1 404 Not Found"},
		{StatusServerError, "HTTP/1.1 500 Server Error"},
		{StatusNotImplemented, "HTTP/1.1 501 Not Implemented"},
	}

	b := &ResponseBuilder{Now: fixedNow}
	for _, tt := range tests {
		lines, body := splitMessage(t, b.Build(&HttpResponse{Status: tt.status}))
		if lines[0] != tt.line {
			t.Errorf("Expected status line %q, got %q", tt.line, lines[0])
		}
		if headerValue(lines, "Content-Type") != DefaultContentType {
			t.Errorf("Expected default content type, got %q", headerValue(lines, "Content-Type"))
		}
		if headerValue(lines, "Content-Length") != "0" || len(body) != 0 {
			t.Errorf("Expected empty body, got length %q and %q", headerValue(lines, "Content-Length"), body)
		}
	}
}

func TestResponseBuilder_Build_BinaryBody(t *testing.T) {
	body := []byte{'a', 0, 'b', 0, 0, 0xff, '\n'}

	b := &ResponseBuilder{Now: fixedNow}
	lines, got := splitMessage(t, b.Build(&HttpResponse{Status: StatusOK, Body: body}))

	if headerValue(lines, "Content-Length") != "7" {
		t.Errorf("Expected Content-Length 7, got %q", headerValue(lines, "Content-Length"))
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Expected body %q, got %q", body, got)
	}
}

func TestResponseBuilder_Build_DateAtRenderTime(t *testing.T) {
	calls := 0
	b := &ResponseBuilder{Now: func() time.Time {
		calls++
		return fixedNow().Add(time.Duration(calls) * time.Hour)
	}}

	first, _ := splitMessage(t, b.Build(&HttpResponse{Status: StatusOK}))
	second, _ := splitMessage(t, b.Build(&HttpResponse{Status: StatusOK}))

	if headerValue(first, "Date") != "Sat, 01 Jan 2000 00:59:59 GMT" {
		t.Errorf("Unexpected first Date %q", headerValue(first, "Date"))
	}
	if headerValue(second, "Date") != "Sat, 01 Jan 2000 01:59:59 GMT" {
		t.Errorf("Unexpected second Date %q", headerValue(second, "Date"))
	}
}

func TestResponseBuilder_Build_TruncatesToMaxSize(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 10000)

	for _, max := range []int{4096, 200, 120} {
		b := &ResponseBuilder{MaxSize: max, Now: fixedNow}
		msg := b.Build(&HttpResponse{Status: StatusOK, Body: body})

		lines, got := splitMessage(t, msg)
		length, err := strconv.Atoi(headerValue(lines, "Content-Length"))
		if err != nil {
			t.Fatalf("Bad Content-Length: %v", err)
		}
		if length != len(got) {
			t.Errorf("max %d: Content-Length %d but body is %d bytes", max, length, len(got))
		}
		if len(msg) > max {
			t.Errorf("max %d: message is %d bytes", max, len(msg))
		}
	}
}

func TestResponseBuilder_Build_MaxSizeBelowHead(t *testing.T) {
	b := &ResponseBuilder{MaxSize: 10, Now: fixedNow}
	msg := b.Build(&HttpResponse{Status: StatusOK, Body: []byte("hello")})

	lines, got := splitMessage(t, msg)
	if len(got) != 0 {
		t.Errorf("Expected empty body, got %q", got)
	}
	if headerValue(lines, "Content-Length") != "0" {
		t.Errorf("Expected Content-Length 0, got %q", headerValue(lines, "Content-Length"))
	}

	head := buildHead(StatusOK, fixedNow().Format(DateLayout), DefaultContentType, 0)
	if !bytes.Equal(msg, head) {
		t.Errorf("Expected the bare head, got %q", msg)
	}
}

func TestResponseBuilder_Build_Unbounded(t *testing.T) {
	body := bytes.Repeat([]byte("y"), 64*1024)

	b := &ResponseBuilder{Now: fixedNow}
	_, got := splitMessage(t, b.Build(&HttpResponse{Status: StatusOK, Body: body}))
	if len(got) != len(body) {
		t.Errorf("Expected %d body bytes, got %d", len(body), len(got))
	}
}

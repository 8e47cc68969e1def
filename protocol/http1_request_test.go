package protocol

import (
	"testing"

	"github.com/nczempin/httpd-go-uring/errors"
)

const browserGet = "GET / HTTP/1.1\r\n" +
	"Host: localhost:3421\r\n" +
	"Connection: keep-alive\r\n" +
	"Accept: text/html,application/xhtml+xml\r\n" +
	"\r\n"

func TestParseRequest_GetRoot(t *testing.T) {
	req, err := ParseRequest([]byte(browserGet), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}

	if req.Method != MethodGet {
		t.Errorf("Expected MethodGet, got %v", req.Method)
	}
	if req.Path != "index.html" {
		t.Errorf("Expected path index.html, got %q", req.Path)
	}
	if host, ok := req.Headers.Get("host"); !ok || host != "localhost:3421" {
		t.Errorf("Expected Host header localhost:3421, got %q", host)
	}
}

func TestParseRequest_GetRootCustomIndex(t *testing.T) {
	req, err := ParseRequest([]byte(browserGet), "home.html")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Path != "home.html" {
		t.Errorf("Expected path home.html, got %q", req.Path)
	}
}

func TestParseRequest_GetStripsLeadingSlash(t *testing.T) {
	req, err := ParseRequest([]byte("get /docs/a%20b.txt HTTP/1.1\r\n\r\n"), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}

	if req.Method != MethodGet {
		t.Errorf("Expected case-insensitive GET, got %v", req.Method)
	}
	// GET targets are not decoded.
	if req.Path != "docs/a%20b.txt" {
		t.Errorf("Expected path docs/a%%20b.txt, got %q", req.Path)
	}
}

func TestParseRequest_GetWithoutHeaderTerminator(t *testing.T) {
	req, err := ParseRequest([]byte("GET /x.txt HTTP/1.1\r\nHost: a"), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Path != "x.txt" {
		t.Errorf("Expected path x.txt, got %q", req.Path)
	}
}

func TestParseRequest_PostCommand(t *testing.T) {
	raw := "POST /run HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"content-length: 15\r\n" +
		"\r\n" +
		"command=echo+hi"

	req, err := ParseRequest([]byte(raw), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}

	if req.Method != MethodPost {
		t.Errorf("Expected MethodPost, got %v", req.Method)
	}
	if req.ContentLength != 15 {
		t.Errorf("Expected content length 15, got %d", req.ContentLength)
	}
	if req.Command != "echo hi" {
		t.Errorf("Expected command %q, got %q", "echo hi", req.Command)
	}
}

func TestParseRequest_PostBodyLimitedByContentLength(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nContent-Length: 13\r\n\r\ncommand=ls+-lTRAILING"

	req, err := ParseRequest([]byte(raw), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if string(req.Body) != "command=ls+-l" {
		t.Errorf("Expected body %q, got %q", "command=ls+-l", req.Body)
	}
	if req.Command != "ls -l" {
		t.Errorf("Expected command %q, got %q", "ls -l", req.Command)
	}
}

func TestParseRequest_PostDeclaredLengthExceedsBuffer(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nContent-Length: 4000\r\n\r\ncommand=date"

	req, err := ParseRequest([]byte(raw), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if string(req.Body) != "command=date" {
		t.Errorf("Expected body %q, got %q", "command=date", req.Body)
	}
}

func TestParseRequest_PostCommandAmongFields(t *testing.T) {
	raw := "POST / HTTP/1.1\nContent-Length: 30\n\nuser=me&command=uname%20-a&x=1"

	req, err := ParseRequest([]byte(raw), "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Command != "uname -a" {
		t.Errorf("Expected command %q, got %q", "uname -a", req.Command)
	}
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code errors.ProtocolError
	}{
		{"empty", "", errors.ProtocolErrorMalformedRequestLine},
		{"no target", "GET\r\n\r\n", errors.ProtocolErrorMalformedRequestLine},
		{"post no target", "POST\r\nContent-Length: 3\r\n\r\nabc", errors.ProtocolErrorMalformedRequestLine},
		{"missing length", "POST / HTTP/1.1\r\nHost: a\r\n\r\ncommand=ls", errors.ProtocolErrorMissingContentLength},
		{"bad length", "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\ncommand=ls", errors.ProtocolErrorMissingContentLength},
		{"negative length", "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\ncommand=ls", errors.ProtocolErrorMissingContentLength},
		{"truncated", "POST / HTTP/1.1\r\nContent-Length: 10\r\n", errors.ProtocolErrorTruncatedRequest},
		{"no command", "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\na=b&c", errors.ProtocolErrorMissingCommand},
		{"bad encoding", "POST / HTTP/1.1\r\nContent-Length: 11\r\n\r\ncommand=%zz", errors.ProtocolErrorMalformedEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.raw), "")
			if err == nil {
				t.Fatalf("Expected error, got request %+v", req)
			}
			if !errors.IsProtocol(err, tt.code) {
				t.Errorf("Expected %v, got %v", tt.code, err)
			}
		})
	}
}

func TestParseRequest_UnknownMethod(t *testing.T) {
	for _, raw := range []string{"DELETE /index.html HTTP/1.1\r\n\r\n", "PATCH\r\n"} {
		req, err := ParseRequest([]byte(raw), "")
		if err != nil {
			t.Fatalf("ParseRequest(%q) failed: %v", raw, err)
		}
		if req.Method != MethodOther {
			t.Errorf("Expected MethodOther for %q, got %v", raw, req.Method)
		}
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorResource
)

// TransportError represents socket-level errors. Apart from the per-connection
// read and write failures, these are fatal to the server.
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorBindFailure
	TransportErrorListenFailure
	TransportErrorAcceptFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorListenerClosed
	TransportErrorDnsFailure
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
	TransportErrorConnectionClosed
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorSocketCreateFailure:
		return "socket create failure"
	case TransportErrorBindFailure:
		return "bind failure"
	case TransportErrorListenFailure:
		return "listen failure"
	case TransportErrorAcceptFailure:
		return "accept failure"
	case TransportErrorSocketReadFailure:
		return "socket read failure"
	case TransportErrorSocketWriteFailure:
		return "socket write failure"
	case TransportErrorListenerClosed:
		return "listener closed"
	case TransportErrorDnsFailure:
		return "dns failure"
	case TransportErrorIoUringInit:
		return "io_uring init failure"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failure"
	case TransportErrorConnectionClosed:
		return "connection closed"
	default:
		return fmt.Sprintf("transport error %d", int(e))
	}
}

// ProtocolError represents message parsing errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorMalformedRequestLine
	ProtocolErrorTruncatedRequest
	ProtocolErrorMissingContentLength
	ProtocolErrorMissingCommand
	ProtocolErrorMalformedEncoding
	ProtocolErrorInvalidStatusLine
	ProtocolErrorIncompleteResponse
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorMalformedRequestLine:
		return "malformed request line"
	case ProtocolErrorTruncatedRequest:
		return "truncated request"
	case ProtocolErrorMissingContentLength:
		return "missing content length"
	case ProtocolErrorMissingCommand:
		return "missing command"
	case ProtocolErrorMalformedEncoding:
		return "malformed encoding"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorIncompleteResponse:
		return "incomplete response"
	default:
		return fmt.Sprintf("protocol error %d", int(e))
	}
}

// ResourceError represents failures of the file and command collaborators
type ResourceError int

const (
	ResourceErrorNone ResourceError = iota
	ResourceErrorFileNotFound
	ResourceErrorReadFailure
	ResourceErrorExecutionFailure
)

func (e ResourceError) String() string {
	switch e {
	case ResourceErrorFileNotFound:
		return "file not found"
	case ResourceErrorReadFailure:
		return "read failure"
	case ResourceErrorExecutionFailure:
		return "execution failure"
	default:
		return fmt.Sprintf("resource error %d", int(e))
	}
}

// HttpError is the main error type for the HTTP server
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	ResourceErr   ResourceError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorResource:
		typeStr = fmt.Sprintf("Resource error (%s)", e.ResourceErr)
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewResourceError creates a new resource error
func NewResourceError(err ResourceError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorResource,
		ResourceErr:   err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// IsTransport reports whether err carries the given transport error code.
func IsTransport(err error, code TransportError) bool {
	var httpErr *HttpError
	return stderrors.As(err, &httpErr) && httpErr.Type == ErrorTransport && httpErr.TransportErr == code
}

// IsProtocol reports whether err carries the given protocol error code.
func IsProtocol(err error, code ProtocolError) bool {
	var httpErr *HttpError
	return stderrors.As(err, &httpErr) && httpErr.Type == ErrorProtocol && httpErr.ProtocolErr == code
}

// IsResource reports whether err carries the given resource error code.
func IsResource(err error, code ResourceError) bool {
	var httpErr *HttpError
	return stderrors.As(err, &httpErr) && httpErr.Type == ErrorResource && httpErr.ResourceErr == code
}

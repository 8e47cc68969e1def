package server

import (
	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resource"
)

// Dispatcher turns raw request bytes into a response. It does no socket I/O.
type Dispatcher struct {
	files      resource.FileReader
	classifier resource.Classifier
	runner     resource.Runner
	indexFile  string
	logger     zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given collaborators
func NewDispatcher(files resource.FileReader, classifier resource.Classifier, runner resource.Runner, indexFile string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		files:      files,
		classifier: classifier,
		runner:     runner,
		indexFile:  indexFile,
		logger:     logger,
	}
}

// Dispatch parses raw and produces the response for it. Every outcome,
// including a parse failure, is a response.
func (d *Dispatcher) Dispatch(raw []byte) (*protocol.HttpRequest, *protocol.HttpResponse) {
	req, err := protocol.ParseRequest(raw, d.indexFile)
	if err != nil {
		d.logger.Debug().Err(err).Msg("unparsable request")
		if errors.IsProtocol(err, errors.ProtocolErrorMalformedRequestLine) {
			return nil, &protocol.HttpResponse{Status: protocol.StatusNotFound}
		}
		return nil, &protocol.HttpResponse{Status: protocol.StatusServerError}
	}

	switch req.Method {
	case protocol.MethodGet:
		return req, d.serveFile(req.Path)
	case protocol.MethodPost:
		return req, d.runCommand(req.Command)
	default:
		return req, &protocol.HttpResponse{Status: protocol.StatusNotImplemented}
	}
}

func (d *Dispatcher) serveFile(path string) *protocol.HttpResponse {
	body, err := d.files.ReadFile(path)
	if err != nil {
		if errors.IsResource(err, errors.ResourceErrorFileNotFound) {
			d.logger.Debug().Err(err).Str("path", path).Msg("file not found")
			return &protocol.HttpResponse{Status: protocol.StatusNotFound}
		}
		d.logger.Warn().Err(err).Str("path", path).Msg("file read failed")
		return &protocol.HttpResponse{Status: protocol.StatusServerError}
	}

	contentType, err := d.classifier.Classify(path)
	if err != nil {
		d.logger.Debug().Err(err).Str("path", path).Msg("content type unknown")
		contentType = protocol.DefaultContentType
	}

	return &protocol.HttpResponse{
		Status:      protocol.StatusOK,
		ContentType: contentType,
		Body:        body,
	}
}

func (d *Dispatcher) runCommand(command string) *protocol.HttpResponse {
	out, err := d.runner.Run(command)
	if err != nil {
		d.logger.Warn().Err(err).Str("command", command).Msg("command failed")
		return &protocol.HttpResponse{Status: protocol.StatusServerError}
	}

	return &protocol.HttpResponse{
		Status:      protocol.StatusOK,
		ContentType: protocol.DefaultContentType,
		Body:        out,
	}
}

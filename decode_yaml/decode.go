package decode_yaml

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
	"gopkg.in/yaml.v3"
)

// RequestDecoder collects every problem of a request before failing, so one
// run reports all of them.
type RequestDecoder struct {
	ctx    context.Context
	errors []string
}

func NewRequestDecoder(ctx context.Context) RequestDecoder {
	var r RequestDecoder
	r.ctx = ctx
	return r
}

// Process decodes, defaults and validates a YAML request.
func (r *RequestDecoder) Process(yamlRequest []byte) (request.Request, *log.Status) {
	req, status := r.Decode(yamlRequest)
	if status != nil {
		return req, status
	}
	return req, r.Finish(&req)
}

// Finish applies defaults to a request built elsewhere and validates it.
func (r *RequestDecoder) Finish(req *request.Request) *log.Status {
	r.Defaults(req)
	r.Validate(req)
	if len(r.errors) > 0 {
		return log.ErrorNoErr(r.ctx, 400, strings.Join(r.errors, "\n"))
	}
	return nil
}

// Decode rejects unknown keys, which are usually misspelled options.
func (r *RequestDecoder) Decode(yamlRequest []byte) (request.Request, *log.Status) {
	var req request.Request
	decoder := yaml.NewDecoder(bytes.NewReader(yamlRequest))
	decoder.KnownFields(true)
	err := decoder.Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return req, log.Error(r.ctx, 400, err, "Error decoding YAML request")
	}
	return req, nil
}

func (r *RequestDecoder) Encode(req request.Request) (string, *log.Status) {
	d, err := yaml.Marshal(&req)
	if err != nil {
		return ``, log.Error(r.ctx, 500, err, "Error encoding request to YAML")
	}
	return string(d), nil
}

func (r *RequestDecoder) Errors() []string {
	return r.errors
}

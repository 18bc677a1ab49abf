package decode_yaml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	"github.com/spoken-corpus/anom-oral/transcript"
	"golang.org/x/net/html/charset"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(`yaml`), `,`, 2)[0]
		if name == `-` || name == `` {
			return field.Name
		}
		return name
	})
	return v
}

// Defaults fills the fields a request may leave empty.
func (r *RequestDecoder) Defaults(req *request.Request) {
	if req.DatasetName == `` {
		base := filepath.Base(req.Input)
		req.DatasetName = strings.TrimSuffix(base, filepath.Ext(base))
		if req.DatasetName == `` || req.DatasetName == `-` || req.DatasetName == `.` {
			req.DatasetName = `anom_oral`
		}
	}
	req.DatasetName = strings.Replace(req.DatasetName, ` `, `_`, -1)
	if req.Format == `` {
		req.Format = `vertical`
	}
	if req.Format == `vert` {
		req.Format = `vertical`
	}
	if req.TranscriptDir == `` {
		req.TranscriptDir = req.InputDir
	}
	if req.ToneHz == 0 {
		req.ToneHz = request.DefaultToneHz
	}
	if req.Workers == 0 {
		req.Workers = runtime.NumCPU()
	}
	if req.Database.Driver == `` && req.Database.DSN != `` {
		req.Database.Driver = `sqlite3`
	}
}

func (r *RequestDecoder) Validate(req *request.Request) {
	r.checkTags(req)
	r.checkFormat(req)
	r.checkDirectory(req.InputDir, `input_dir`)
	r.checkDirectory(req.OutputDir, `output_dir`)
	if req.Format == `trs` {
		r.checkDirectory(req.TranscriptDir, `transcript_dir`)
	}
	r.checkEncoding(req.Encoding)
	r.checkAddresses(req.NotifyOk, `notify_ok`)
	r.checkAddresses(req.NotifyErr, `notify_err`)
	if req.Bucket.Name == `` && (req.Bucket.Prefix != `` || req.Bucket.Region != ``) {
		r.errors = append(r.errors, `bucket.name is required when bucket is configured`)
	}
}

func (r *RequestDecoder) checkTags(req *request.Request) {
	err := validate.Struct(req)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Namespace(), e.Tag())
			if e.Param() != `` {
				msg = fmt.Sprintf("%s (value: %s)", msg, e.Param())
			}
			r.errors = append(r.errors, msg)
		}
	} else if err != nil {
		r.errors = append(r.errors, err.Error())
	}
}

func (r *RequestDecoder) checkFormat(req *request.Request) {
	format, ok := transcript.ParseFormat(req.Format)
	if !ok {
		return // reported by the oneof tag
	}
	if format == transcript.Vertical && req.TrsGlob != `` {
		r.errors = append(r.errors, `trs_glob requires format: trs`)
	}
	if format == transcript.Trs && req.Input == `-` {
		r.errors = append(r.errors, `a trs id list cannot be read from stdin`)
	}
	if req.TrsGlob != `` {
		_, err := filepath.Match(req.TrsGlob, ``)
		if err != nil {
			r.errors = append(r.errors, `trs_glob is not a valid pattern: `+req.TrsGlob)
		}
	}
}

func (r *RequestDecoder) checkDirectory(dir string, fieldName string) {
	if dir == `` {
		return
	}
	info, err := os.Stat(dir)
	if err != nil {
		r.errors = append(r.errors, fieldName+` does not exist: `+dir)
	} else if !info.IsDir() {
		r.errors = append(r.errors, fieldName+` is not a directory: `+dir)
	}
}

func (r *RequestDecoder) checkEncoding(label string) {
	if label == `` {
		return
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		r.errors = append(r.errors, `Unknown encoding: `+label)
	}
}

// checkAddresses accepts e-mail addresses and SQS queue URLs.
func (r *RequestDecoder) checkAddresses(addresses []string, fieldName string) {
	for _, a := range addresses {
		if !IsEmail(a) && !IsQueue(a) {
			r.errors = append(r.errors, fieldName+` entry is neither an e-mail nor an SQS queue: `+a)
		}
	}
}

func IsEmail(address string) bool {
	return strings.Contains(address, `@`)
}

func IsQueue(address string) bool {
	return strings.HasPrefix(address, `https://sqs.`)
}

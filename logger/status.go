package log

import (
	"context"
	"strconv"
)

// Status is the error value passed between pipeline steps. It is logged
// when it is created, so callers only propagate it.
type Status struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
	cause   error
}

func (s *Status) Error() string {
	if s.Err == `` {
		return s.Message
	}
	return s.Message + `: ` + s.Err
}

func (s *Status) Unwrap() error {
	return s.cause
}

func (s *Status) String() string {
	return strconv.Itoa(s.Status) + ` ` + s.Error()
}

// Error logs err with a message and returns it as a Status with the given code.
func Error(ctx context.Context, status int, err error, args ...any) *Status {
	var s Status
	s.Status = status
	s.Message = join(args)
	s.cause = err
	e := entry(ctx).WithField(`status`, status)
	if err != nil {
		s.Err = err.Error()
		e = e.WithError(err)
	}
	e.Error(s.Message)
	return &s
}

func ErrorNoErr(ctx context.Context, status int, args ...any) *Status {
	return Error(ctx, status, nil, args...)
}

// NewStatus builds a Status without logging it, for outcomes that are
// reported some other way.
func NewStatus(status int, err error, args ...any) *Status {
	var s Status
	s.Status = status
	s.Message = join(args)
	s.cause = err
	if err != nil {
		s.Err = err.Error()
	}
	return &s
}

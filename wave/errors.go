package wave

import (
	"errors"
	"fmt"
)

// ErrOutputExists is returned by Save when the destination is already present.
var ErrOutputExists = errors.New("output file already exists")

type RecordingNotFoundError struct {
	Path string
	Err  error
}

func (e *RecordingNotFoundError) Error() string {
	return fmt.Sprintf("recording not found: %s", e.Path)
}

func (e *RecordingNotFoundError) Unwrap() error {
	return e.Err
}

// FormatError means the file is readable but is not integer PCM WAV.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

package wave

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// PartExt ends the name of the temporary file Save writes before the
// recording is linked into place.
const PartExt = `.part`

// Waveform is the PCM content of one recording. Samples are interleaved
// frame by frame and hold the file's native integer values: 8-bit samples
// are unsigned (0..255), wider ones are signed.
type Waveform struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Samples    []int
}

// Frames is the number of sample frames, one sample per channel each.
func (w *Waveform) Frames() int {
	if w.Channels == 0 {
		return 0
	}
	return len(w.Samples) / w.Channels
}

// Duration in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate == 0 {
		return 0
	}
	return float64(w.Frames()) / float64(w.SampleRate)
}

// At returns the sample of channel ch in frame i.
func (w *Waveform) At(i int, ch int) int {
	return w.Samples[i*w.Channels+ch]
}

// SetFrame writes value into every channel of frame i.
func (w *Waveform) SetFrame(i int, value int) {
	base := i * w.Channels
	for ch := 0; ch < w.Channels; ch++ {
		w.Samples[base+ch] = value
	}
}

// Narrow converts v to the native sample type the way an integer cast does:
// the fraction is truncated toward zero and the result wraps around the
// bit depth.
func (w *Waveform) Narrow(v float64) int {
	x := int64(math.Trunc(v))
	bits := uint(w.BitDepth)
	if bits == 0 || bits >= 64 {
		return int(x)
	}
	mask := int64(1)<<bits - 1
	x &= mask
	if bits > 8 && x >= int64(1)<<(bits-1) {
		x -= int64(1) << bits
	}
	return int(x)
}

// Load reads a PCM WAV file.
func Load(path string) (*Waveform, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &RecordingNotFoundError{Path: path, Err: err}
		}
		return nil, err
	}
	defer file.Close()
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, &FormatError{Path: path, Reason: `not a valid WAV file`}
	}
	switch decoder.WavAudioFormat {
	case formatPCM, formatExtensible:
	case formatFloat:
		return nil, &FormatError{Path: path, Reason: `floating point samples are not supported`}
	default:
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("audio format %d is not PCM", decoder.WavAudioFormat)}
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}
	var result Waveform
	result.SampleRate = int(decoder.SampleRate)
	result.BitDepth = int(decoder.BitDepth)
	result.Channels = int(decoder.NumChans)
	result.Samples = buf.Data
	if result.Channels < 1 {
		return nil, &FormatError{Path: path, Reason: `no channels`}
	}
	// Drop a trailing partial frame.
	result.Samples = result.Samples[:result.Frames()*result.Channels]
	return &result, nil
}

// Save writes w as a new PCM WAV file. An existing file at path is never
// replaced: ErrOutputExists is returned instead. The content is written to
// a temporary file in the same directory first, so path only ever holds a
// complete recording.
func Save(path string, w *Waveform) error {
	if _, err := os.Lstat(path); err == nil {
		return ErrOutputExists
	}
	dir, base := filepath.Split(path)
	file, err := os.CreateTemp(dir, `.`+base+`.*`+PartExt)
	if err != nil {
		return err
	}
	tmp := file.Name()
	defer os.Remove(tmp)
	err = encode(file, w)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	// Link fails when path appeared meanwhile, so nothing is overwritten.
	err = os.Link(tmp, path)
	if errors.Is(err, fs.ErrExist) {
		return ErrOutputExists
	}
	return err
}

func encode(file *os.File, w *Waveform) error {
	encoder := wav.NewEncoder(file, w.SampleRate, w.BitDepth, w.Channels, formatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           w.Samples,
		SourceBitDepth: w.BitDepth,
	}
	err := encoder.Write(buf)
	if err != nil {
		return err
	}
	return encoder.Close()
}

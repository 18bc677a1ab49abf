package anonymize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/transcript"
	"github.com/spoken-corpus/anom-oral/wave"
)

type Options struct {
	CheckOverlap bool
}

// Span is one target segment resolved against a recording. StartSample and
// EndSample are inclusive frame indexes; EndSample < StartSample is an
// empty span.
type Span struct {
	Seq         int     `json:"seq"`
	Text        string  `json:"text"`
	StartTS     float64 `json:"start"`
	EndTS       float64 `json:"end"`
	StartSample int     `json:"start_sample"`
	EndSample   int     `json:"end_sample"`
	Peak        float64 `json:"peak"`
	Written     int     `json:"written"`
}

func (s Span) Len() int {
	if s.EndSample < s.StartSample {
		return 0
	}
	return s.EndSample - s.StartSample + 1
}

// ResolveSpans returns the time boundaries of every target segment of doc.
// Seq is the position of the segment in the document.
func ResolveSpans(ctx context.Context, doc transcript.Document) ([]Span, *log.Status) {
	var results []Span
	for i, seg := range doc.Segments {
		if !seg.IsTarget() {
			continue
		}
		var span Span
		span.Seq = i
		span.Text = seg.Code()
		var err error
		span.StartTS, err = seg.Start()
		if err != nil {
			return nil, transcriptError(ctx, err, doc, i)
		}
		span.EndTS, err = seg.End()
		if err != nil {
			return nil, transcriptError(ctx, err, doc, i)
		}
		results = append(results, span)
	}
	return results, nil
}

func transcriptError(ctx context.Context, err error, doc transcript.Document, seq int) *log.Status {
	var missing *transcript.MissingAttributeError
	var parseErr *transcript.ParseError
	if errors.As(err, &missing) || errors.As(err, &parseErr) {
		return log.Error(ctx, 400, err, "Unable to resolve segment", seq, "of", doc.Source)
	}
	return log.Error(ctx, 500, err, "Unable to resolve segment", seq, "of", doc.Source)
}

// Plan resolves the target spans of doc to frame ranges of w and measures
// their peaks. w is not modified, so every peak comes from original audio.
func Plan(ctx context.Context, doc transcript.Document, w *wave.Waveform) ([]Span, *log.Status) {
	spans, status := ResolveSpans(ctx, doc)
	if status != nil {
		return nil, status
	}
	last := w.Frames() - 1
	for i := range spans {
		span := &spans[i]
		span.StartSample = TimeToSample(span.StartTS, w.SampleRate)
		span.EndSample = min(TimeToSample(span.EndTS, w.SampleRate), last)
		if span.Len() == 0 {
			log.Debug(ctx, "Empty span", span.Text, "at", span.StartTS, span.EndTS)
			continue
		}
		window := w.Samples[span.StartSample*w.Channels : (span.EndSample+1)*w.Channels]
		span.Peak = EquivSinePeak(window)
	}
	return spans, nil
}

// Apply overwrites every channel of each span with a tone at freq Hz scaled
// to the span's peak, narrowed to the native sample type.
func Apply(w *wave.Waveform, spans []Span, freq float64) {
	for i := range spans {
		span := &spans[i]
		tone := GenSine(span.Len(), freq, w.SampleRate)
		for n, v := range tone {
			w.SetFrame(span.StartSample+n, w.Narrow(v*span.Peak))
		}
		span.Written = len(tone)
	}
}

// CheckOverlap logs a warning for each pair of non-empty spans that share
// frames and returns how many there are.
func CheckOverlap(ctx context.Context, spans []Span) int {
	var sorted []Span
	for _, span := range spans {
		if span.Len() > 0 {
			sorted = append(sorted, span)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSample < sorted[j].StartSample
	})
	count := 0
	for i := 1; i < len(sorted); i++ {
		cur := sorted[i]
		for _, prev := range sorted[:i] {
			if cur.StartSample <= prev.EndSample {
				log.Warn(ctx, "Spans overlap:", prev.Text, prev.StartTS, prev.EndTS, "and", cur.Text, cur.StartTS, cur.EndTS)
				count++
			}
		}
	}
	return count
}

// Anonymize loads <wavDir>/<doc.ID>.wav and replaces every target span
// with a tone of matching energy. The returned waveform is not saved.
func Anonymize(ctx context.Context, doc transcript.Document, wavDir string, freq float64, opts Options) (*wave.Waveform, []Span, *log.Status) {
	path := filepath.Join(wavDir, doc.ID+`.wav`)
	w, err := wave.Load(path)
	if err != nil {
		var notFound *wave.RecordingNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil, log.Error(ctx, 404, err, "Recording not found", path)
		}
		return nil, nil, log.Error(ctx, 500, err, "Unable to read recording", path)
	}
	if w.Channels > 1 {
		log.Warn(ctx, fmt.Sprintf("%s is not mono (%d channels).", path, w.Channels))
	}
	if freq >= float64(w.SampleRate)/2 {
		log.Warn(ctx, "Tone of", freq, "Hz is above the Nyquist frequency of", path)
	}
	spans, status := Plan(ctx, doc, w)
	if status != nil {
		return nil, nil, status
	}
	if opts.CheckOverlap {
		CheckOverlap(ctx, spans)
	}
	Apply(w, spans, freq)
	log.Debug(ctx, "Anonymized", len(spans), "spans in", path)
	return w, spans, nil
}

package ffmpeg

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	log "github.com/spoken-corpus/anom-oral/logger"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type ProbeData struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	Filename       string `json:"filename"`
	NBStreams      int    `json:"nb_streams"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

type ProbeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleFmt     string `json:"sample_fmt"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
	Duration      string `json:"duration"`
}

// DurationTolerance is the largest difference, in seconds, between two
// recordings that are considered the same length.
const DurationTolerance = 0.001

func GetProbeData(ctx context.Context, filePath string) (ProbeData, *log.Status) {
	var result ProbeData
	data, err := ffmpeg.Probe(filePath)
	if err != nil {
		return result, log.Error(ctx, 500, err, "ffprobe failed on", filePath)
	}
	err = parseProbeData([]byte(data), &result)
	if err != nil {
		return result, log.Error(ctx, 500, err, "Unable to read ffprobe output for", filePath)
	}
	return result, nil
}

func parseProbeData(data []byte, result *ProbeData) error {
	return json.Unmarshal(data, result)
}

// GetAudioDuration returns the container duration, or that of the first
// audio stream when the container has none.
func GetAudioDuration(ctx context.Context, filePath string) (float64, *log.Status) {
	probeData, status := GetProbeData(ctx, filePath)
	if status != nil {
		return 0, status
	}
	result, err := probeData.Duration()
	if err != nil {
		return 0, log.Error(ctx, 500, err, "No duration for", filePath)
	}
	return result, nil
}

func (p ProbeData) Duration() (float64, error) {
	text := strings.TrimSpace(p.Format.Duration)
	if text == `` {
		for _, stream := range p.Streams {
			if stream.CodecType == `audio` {
				text = strings.TrimSpace(stream.Duration)
				break
			}
		}
	}
	return strconv.ParseFloat(text, 64)
}

// CompareDurations fails when the recordings differ in length by more
// than DurationTolerance.
func CompareDurations(ctx context.Context, original string, anonymized string) *log.Status {
	want, status := GetAudioDuration(ctx, original)
	if status != nil {
		return status
	}
	got, status := GetAudioDuration(ctx, anonymized)
	if status != nil {
		return status
	}
	if math.Abs(want-got) > DurationTolerance {
		return log.ErrorNoErr(ctx, 500, "Duration of", anonymized, "is", got, "expected", want)
	}
	return nil
}

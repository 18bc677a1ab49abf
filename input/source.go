package input

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/transcript"
)

// Stdin is the input name that reads a vertical from standard input.
const Stdin = `-`

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource opens the transcript input a request names: a vertical file,
// a trs id list, or a glob of trs files. The returned closer releases the
// input file once the source is exhausted.
func OpenSource(ctx context.Context, req request.Request) (transcript.Source, io.Closer, *log.Status) {
	opts := transcript.ReadOptions{Encoding: req.Encoding}
	format, ok := transcript.ParseFormat(req.Format)
	if !ok {
		return nil, nil, log.ErrorNoErr(ctx, 400, "Unknown transcript format", req.Format)
	}
	dir := req.TranscriptDir
	if dir == `` {
		dir = req.InputDir
	}
	if format == transcript.Trs && req.TrsGlob != `` {
		paths, status := Glob(ctx, filepath.Join(dir, req.TrsGlob))
		if status != nil {
			return nil, nil, status
		}
		return transcript.NewTrsFileSource(paths, opts), nopCloser{}, nil
	}
	reader, closer, status := openInput(ctx, req.Input)
	if status != nil {
		return nil, nil, status
	}
	if format == transcript.Trs {
		return transcript.NewTrsListSource(reader, dir, opts), closer, nil
	}
	name := req.Input
	if name == Stdin {
		name = `stdin`
	}
	return transcript.NewVerticalSource(reader, name, opts), closer, nil
}

func openInput(ctx context.Context, path string) (io.Reader, io.Closer, *log.Status) {
	if path == Stdin {
		return os.Stdin, nopCloser{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, log.Error(ctx, 404, err, "Input not found", path)
		}
		return nil, nil, log.Error(ctx, 500, err, "Unable to open input", path)
	}
	return file, file, nil
}

// Glob returns the matching files in lexical order. No match is an error.
func Glob(ctx context.Context, search string) ([]string, *log.Status) {
	paths, err := filepath.Glob(search)
	if err != nil {
		return nil, log.Error(ctx, 400, err, "Invalid file pattern", search)
	}
	var results []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			results = append(results, path)
		}
	}
	if len(results) == 0 {
		return nil, log.ErrorNoErr(ctx, 404, "No files found for", search)
	}
	sort.Strings(results)
	return results, nil
}

package transcript

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"
)

// Pending is a document that has been located but not parsed yet.
type Pending interface {
	Name() string
	Load() (Document, error)
}

// Source yields pending documents in input order. Next returns nil, nil
// when the input is exhausted.
type Source interface {
	Next() (Pending, error)
}

// TrsListSource reads document ids, one per line, each naming
// <dir>/<id>.trs. Blank lines are skipped.
type TrsListSource struct {
	scanner *bufio.Scanner
	dir     string
	opts    ReadOptions
}

func NewTrsListSource(r io.Reader, dir string, opts ReadOptions) *TrsListSource {
	return &TrsListSource{scanner: bufio.NewScanner(r), dir: dir, opts: opts}
}

func (s *TrsListSource) Next() (Pending, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == `` {
			continue
		}
		return trsFile{
			path: filepath.Join(s.dir, line+`.trs`),
			id:   trsID(line),
			opts: s.opts,
		}, nil
	}
	return nil, s.scanner.Err()
}

// TrsFileSource yields the given .trs files; ids are the base names.
type TrsFileSource struct {
	paths []string
	opts  ReadOptions
}

func NewTrsFileSource(paths []string, opts ReadOptions) *TrsFileSource {
	return &TrsFileSource{paths: paths, opts: opts}
}

func (s *TrsFileSource) Next() (Pending, error) {
	if len(s.paths) == 0 {
		return nil, nil
	}
	path := s.paths[0]
	s.paths = s.paths[1:]
	return trsFile{path: path, id: trsID(path), opts: s.opts}, nil
}

type trsFile struct {
	path string
	id   string
	opts ReadOptions
}

func (f trsFile) Name() string {
	return f.path
}

func (f trsFile) Load() (Document, error) {
	return ReadTrsFile(f.path, f.id, f.opts)
}

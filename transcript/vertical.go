package transcript

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ParseVertical parses one vertical document: a root element with an id
// attribute and <seg start=".." end=".."> elements anywhere below it.
func ParseVertical(data []byte, source string, opts ReadOptions) (Document, error) {
	var result Document
	result.Format = Vertical
	result.Source = source
	doc, err := readXML(data, source, opts)
	if err != nil {
		return result, err
	}
	root := doc.Root()
	id := root.SelectAttr(`id`)
	if id == nil {
		return result, &MissingAttributeError{Element: root.Tag, Attr: `id`}
	}
	result.ID = id.Value
	var segs []*etree.Element
	if root.Tag == `seg` {
		segs = append(segs, root)
	}
	segs = findElements(root, `seg`, segs)
	for _, seg := range segs {
		result.Segments = append(result.Segments, Segment{
			Text:   fullText(seg),
			bounds: verticalBounds{seg: seg},
		})
	}
	return result, nil
}

type verticalBounds struct {
	seg *etree.Element
}

func (v verticalBounds) start() (float64, error) {
	return v.attr(`start`)
}

func (v verticalBounds) end() (float64, error) {
	return v.attr(`end`)
}

func (v verticalBounds) attr(name string) (float64, error) {
	a := v.seg.SelectAttr(name)
	if a == nil {
		return 0, &MissingAttributeError{Element: v.seg.Tag, Attr: name}
	}
	return parseTime(v.seg.Tag, name, a.Value)
}

// VerticalSource splits a vertical stream into documents. A document ends
// with the first line starting with "</doc".
type VerticalSource struct {
	reader *bufio.Reader
	name   string
	opts   ReadOptions
	line   int
	done   bool
}

func NewVerticalSource(r io.Reader, name string, opts ReadOptions) *VerticalSource {
	return &VerticalSource{reader: bufio.NewReader(r), name: name, opts: opts}
}

// Next returns the next document chunk, or nil at the end of the stream.
// Parsing is left to Pending.Load so that it can run on a worker.
func (v *VerticalSource) Next() (Pending, error) {
	if v.done {
		return nil, nil
	}
	var buf bytes.Buffer
	startLine := v.line + 1
	for {
		line, err := v.reader.ReadString('\n')
		if len(line) > 0 {
			v.line++
			buf.WriteString(line)
			if strings.HasPrefix(line, `</doc`) {
				return verticalChunk{name: v.location(startLine), data: buf.Bytes(), opts: v.opts}, nil
			}
		}
		if errors.Is(err, io.EOF) {
			v.done = true
			if len(bytes.TrimSpace(buf.Bytes())) == 0 {
				return nil, nil
			}
			return unterminated{name: v.location(startLine)}, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (v *VerticalSource) location(line int) string {
	return v.name + `:` + strconv.Itoa(line)
}

type verticalChunk struct {
	name string
	data []byte
	opts ReadOptions
}

func (c verticalChunk) Name() string {
	return c.name
}

func (c verticalChunk) Load() (Document, error) {
	return ParseVertical(c.data, c.name, c.opts)
}

type unterminated struct {
	name string
}

func (u unterminated) Name() string {
	return u.name
}

func (u unterminated) Load() (Document, error) {
	return Document{Format: Vertical, Source: u.name},
		&ParseError{Source: u.name, Err: errors.New("document is not closed by a </doc line")}
}

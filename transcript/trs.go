package transcript

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// ParseTrs parses a Transcriber (.trs) document. Every text node is a
// segment. A text node hangs off an anchor element: the element it follows
// inside its parent (a <Sync/>), or the parent itself when no element
// precedes it (a <Turn> without a sync mark).
func ParseTrs(data []byte, id string, source string, opts ReadOptions) (Document, error) {
	var result Document
	result.ID = id
	result.Format = Trs
	result.Source = source
	doc, err := readXML(data, source, opts)
	if err != nil {
		return result, err
	}
	root := doc.Root()
	var nodes []textNode
	collectText(root, &nodes)
	for _, node := range nodes {
		result.Segments = append(result.Segments, Segment{
			Text:   node.text,
			bounds: trsBounds{anchor: node.anchor, root: root},
		})
	}
	return result, nil
}

// ReadTrsFile reads one .trs file. An empty id is taken from the file name
// without its extension.
func ReadTrsFile(path string, id string, opts ReadOptions) (Document, error) {
	if id == `` {
		id = trsID(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{ID: id, Format: Trs, Source: path}, err
	}
	return ParseTrs(data, id, path, opts)
}

func trsID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type textNode struct {
	text   string
	anchor *etree.Element
}

func collectText(e *etree.Element, nodes *[]textNode) {
	anchor := e
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			*nodes = append(*nodes, textNode{text: sb.String(), anchor: anchor})
			sb.Reset()
		}
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			flush()
			collectText(t, nodes)
			anchor = t
		default:
			flush()
		}
	}
	flush()
}

type trsBounds struct {
	anchor *etree.Element
	root   *etree.Element
}

// start reads @time of the anchor, or @startTime when the anchor is a turn.
func (b trsBounds) start() (float64, error) {
	if a := b.anchor.SelectAttr(`time`); a != nil {
		return parseTime(b.anchor.Tag, `time`, a.Value)
	}
	if a := b.anchor.SelectAttr(`startTime`); a != nil {
		return parseTime(b.anchor.Tag, `startTime`, a.Value)
	}
	return 0, &MissingAttributeError{Element: b.anchor.Tag, Attr: `time|startTime`}
}

// end reads the element following the anchor, or failing that the anchor's
// parent: its @time, or @endTime when it has none.
func (b trsBounds) end() (float64, error) {
	n := b.nextElement(b.anchor)
	if n == nil {
		n = b.parent(b.anchor)
	}
	if n == nil {
		return 0, &MissingAttributeError{Element: b.anchor.Tag, Attr: `time|endTime`}
	}
	if a := n.SelectAttr(`time`); a != nil {
		return parseTime(n.Tag, `time`, a.Value)
	}
	if a := n.SelectAttr(`endTime`); a != nil {
		return parseTime(n.Tag, `endTime`, a.Value)
	}
	return 0, &MissingAttributeError{Element: n.Tag, Attr: `time|endTime`}
}

func (b trsBounds) parent(e *etree.Element) *etree.Element {
	if e == b.root {
		return nil
	}
	return e.Parent()
}

func (b trsBounds) nextElement(e *etree.Element) *etree.Element {
	p := b.parent(e)
	if p == nil {
		return nil
	}
	found := false
	for _, tok := range p.Child {
		el, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		if found {
			return el
		}
		if el == e {
			found = true
		}
	}
	return nil
}

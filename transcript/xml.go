package transcript

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ReadOptions apply to both schemas.
type ReadOptions struct {
	// Encoding forces the charset of the input. When empty, the XML
	// declaration decides and UTF-8 is assumed without one.
	Encoding string
}

func readXML(data []byte, source string, opts ReadOptions) (*etree.Document, error) {
	doc := etree.NewDocument()
	if opts.Encoding != `` {
		reader, err := charset.NewReaderLabel(opts.Encoding, bytes.NewReader(data))
		if err != nil {
			return nil, &ParseError{Source: source, Err: err}
		}
		data, err = io.ReadAll(reader)
		if err != nil {
			return nil, &ParseError{Source: source, Err: err}
		}
		// Already transcoded, so the declared encoding must not be applied again.
		doc.ReadSettings.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
			return input, nil
		}
	} else {
		doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	}
	err := doc.ReadFromBytes(data)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if len(doc.ChildElements()) != 1 {
		return nil, &ParseError{Source: source, Err: errors.New("expected exactly one root element")}
	}
	return doc, nil
}

// fullText concatenates all character data below e, in document order.
func fullText(e *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(e)
	return sb.String()
}

func findElements(e *etree.Element, tag string, results []*etree.Element) []*etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			results = append(results, child)
		}
		results = findElements(child, tag, results)
	}
	return results
}

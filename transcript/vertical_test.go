package transcript

import (
	"errors"
	"strings"
	"testing"
)

const twoDocs = `<doc id="ABC01">
<p>
<seg start="0.00" end="0.50">hello</seg>
<seg start="0.75" end="1.25"> NP </seg>
</p>
</doc>
<doc id="ABC02">
<seg start="2" end="3">N<b>P</b></seg>
</doc>
`

func TestVerticalSource_TwoDocuments(t *testing.T) {
	src := NewVerticalSource(strings.NewReader(twoDocs), `stdin`, ReadOptions{})
	var docs []Document
	for {
		p, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		if p == nil {
			break
		}
		doc, err := p.Load()
		if err != nil {
			t.Fatal(p.Name(), err)
		}
		docs = append(docs, doc)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != `ABC01` || docs[1].ID != `ABC02` {
		t.Error("ids", docs[0].ID, docs[1].ID)
	}
	if docs[0].Source != `stdin:1` || docs[1].Source != `stdin:7` {
		t.Error("sources", docs[0].Source, docs[1].Source)
	}
	targets := docs[0].Targets()
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}
	start, err := targets[0].Start()
	if err != nil || start != 0.75 {
		t.Error("start", start, err)
	}
	end, err := targets[0].End()
	if err != nil || end != 1.25 {
		t.Error("end", end, err)
	}
	// Text of nested markup is concatenated.
	if !docs[1].Segments[0].IsTarget() {
		t.Error("expected nested NP to be a target", docs[1].Segments[0].Text)
	}
}

func TestVerticalSource_Empty(t *testing.T) {
	src := NewVerticalSource(strings.NewReader("\n  \n"), `empty`, ReadOptions{})
	p, err := src.Next()
	if err != nil || p != nil {
		t.Fatal("expected end of input", p, err)
	}
}

func TestVerticalSource_Unterminated(t *testing.T) {
	data := twoDocs + `<doc id="ABC03"><seg start="1" end="2">NN</seg>`
	src := NewVerticalSource(strings.NewReader(data), `in.vert`, ReadOptions{})
	var last Pending
	for {
		p, err := src.Next()
		if err != nil {
			t.Fatal(err)
		}
		if p == nil {
			break
		}
		last = p
	}
	_, err := last.Load()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatal("expected ParseError, got", err)
	}
}

func TestParseVertical_MissingID(t *testing.T) {
	_, err := ParseVertical([]byte(`<doc><seg start="1" end="2">NP</seg></doc>`), `x`, ReadOptions{})
	var missing *MissingAttributeError
	if !errors.As(err, &missing) {
		t.Fatal("expected MissingAttributeError, got", err)
	}
	if missing.Attr != `id` {
		t.Error(missing.Attr)
	}
}

func TestParseVertical_MissingEnd(t *testing.T) {
	doc, err := ParseVertical([]byte(`<doc id="A"><seg start="1">NP</seg></doc>`), `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = doc.Segments[0].End()
	var missing *MissingAttributeError
	if !errors.As(err, &missing) || missing.Attr != `end` {
		t.Fatal("expected missing end, got", err)
	}
}

func TestParseVertical_BadTime(t *testing.T) {
	doc, err := ParseVertical([]byte(`<doc id="A"><seg start="abc" end="2">NP</seg></doc>`), `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = doc.Segments[0].Start()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatal("expected ParseError, got", err)
	}
}

func TestParseVertical_NonFiniteTime(t *testing.T) {
	for _, value := range []string{`NaN`, `inf`, `-Infinity`} {
		doc, err := ParseVertical([]byte(`<doc id="A"><seg start="1" end="`+value+`">NP</seg></doc>`), `x`, ReadOptions{})
		if err != nil {
			t.Fatal(err)
		}
		_, err = doc.Segments[0].End()
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Error(value, "expected ParseError, got", err)
		}
	}
}

func TestParseVertical_Malformed(t *testing.T) {
	_, err := ParseVertical([]byte(`<doc id="A"><seg>NP</doc>`), `x`, ReadOptions{})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatal("expected ParseError, got", err)
	}
}

func TestParseVertical_Encoding(t *testing.T) {
	// "Žena" in ISO-8859-2, declared in the prolog.
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?>\n<doc id=\"A\"><seg start=\"0\" end=\"1\">\xaeena</seg></doc>")
	doc, err := ParseVertical(data, `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Segments[0].Text != `Žena` {
		t.Error("declared encoding", doc.Segments[0].Text)
	}
	// Forced encoding for a file without a declaration.
	data = []byte("<doc id=\"A\"><seg start=\"0\" end=\"1\">\xaeena</seg></doc>")
	doc, err = ParseVertical(data, `x`, ReadOptions{Encoding: `iso-8859-2`})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Segments[0].Text != `Žena` {
		t.Error("forced encoding", doc.Segments[0].Text)
	}
}

func TestIsTarget(t *testing.T) {
	for _, code := range []string{`NP`, `NN`, `NJ`, `NM`, `NO`, ` NP `, "\nNO\t"} {
		if !IsTarget(code) {
			t.Error("expected target", code)
		}
	}
	for _, code := range []string{`N`, `NX`, `np`, `N P`, `NPX`, ``, `XNP`} {
		if IsTarget(code) {
			t.Error("expected non-target", code)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat(`TRS`); !ok || f != Trs {
		t.Error("trs", f, ok)
	}
	if f, ok := ParseFormat(``); !ok || f != Vertical {
		t.Error("default", f, ok)
	}
	if _, ok := ParseFormat(`srt`); ok {
		t.Error("srt should be rejected")
	}
}

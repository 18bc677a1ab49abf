package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const episode = `<?xml version="1.0" encoding="UTF-8"?>
<Trans audio_filename="ABC01">
<Episode>
<Section type="report" startTime="0" endTime="10">
<Turn startTime="0" endTime="6"><Sync time="0"/>hello<Sync time="2.5"/>NP<Sync time="3.0"/>world
</Turn>
<Turn startTime="6" endTime="8">NN</Turn>
<Turn startTime="8" endTime="10"><Sync time="8"/>NJ</Turn>
</Section>
</Episode>
</Trans>
`

func findSegment(t *testing.T, doc Document, text string) Segment {
	for _, seg := range doc.Segments {
		if strings.TrimSpace(seg.Text) == text {
			return seg
		}
	}
	t.Fatal("segment not found", text)
	return Segment{}
}

func checkBounds(t *testing.T, seg Segment, start float64, end float64) {
	s, err := seg.Start()
	if err != nil {
		t.Fatal(seg.Text, err)
	}
	e, err := seg.End()
	if err != nil {
		t.Fatal(seg.Text, err)
	}
	if s != start || e != end {
		t.Errorf("%q: expected [%v, %v], got [%v, %v]", seg.Text, start, end, s, e)
	}
}

func TestParseTrs_Boundaries(t *testing.T) {
	doc, err := ParseTrs([]byte(episode), `ABC01`, `ABC01.trs`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != `ABC01` || doc.Format != Trs {
		t.Error(doc.ID, doc.Format)
	}
	// Between two syncs.
	checkBounds(t, findSegment(t, doc, `NP`), 2.5, 3.0)
	// After the last sync, the turn closes the span.
	checkBounds(t, findSegment(t, doc, `world`), 3.0, 6)
	// A turn without a sync runs to the next turn's endTime.
	checkBounds(t, findSegment(t, doc, `NN`), 6, 10)
	// Last sync of the last turn falls back to the turn's endTime.
	checkBounds(t, findSegment(t, doc, `NJ`), 8, 10)
	if n := len(doc.Targets()); n != 3 {
		t.Error("expected 3 targets, got", n)
	}
}

func TestParseTrs_SoleTurn(t *testing.T) {
	data := `<Trans><Section startTime="0" endTime="12"><Turn startTime="4" endTime="5">NO</Turn></Section></Trans>`
	doc, err := ParseTrs([]byte(data), `X`, `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// No following element, so the enclosing section's endTime is used.
	checkBounds(t, findSegment(t, doc, `NO`), 4, 12)
}

func TestParseTrs_MissingAttribute(t *testing.T) {
	doc, err := ParseTrs([]byte(`<Trans>NP</Trans>`), `X`, `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	seg := findSegment(t, doc, `NP`)
	var missing *MissingAttributeError
	if _, err = seg.Start(); !errors.As(err, &missing) {
		t.Error("start: expected MissingAttributeError, got", err)
	}
	if _, err = seg.End(); !errors.As(err, &missing) {
		t.Error("end: expected MissingAttributeError, got", err)
	}
	doc, err = ParseTrs([]byte(`<Trans><Turn><Sync time="1"/>NM<Other/></Turn></Trans>`), `X`, `x`, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = findSegment(t, doc, `NM`).End()
	if !errors.As(err, &missing) || missing.Element != `Other` {
		t.Error("expected missing time on <Other>, got", err)
	}
}

func TestReadTrsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `ABC01.trs`)
	err := os.WriteFile(path, []byte(episode), 0644)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ReadTrsFile(path, ``, ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.ID != `ABC01` || doc.Source != path {
		t.Error(doc.ID, doc.Source)
	}
	_, err = ReadTrsFile(filepath.Join(dir, `none.trs`), ``, ReadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("expected not exist, got", err)
	}
}

func TestTrsListSource(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{`A1`, `B2`} {
		err := os.WriteFile(filepath.Join(dir, id+`.trs`), []byte(episode), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	src := NewTrsListSource(strings.NewReader("A1\n\n  \nB2\n"), dir, ReadOptions{})
	var ids []string
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
			t.Fatal(err)
		}
		ids = append(ids, doc.ID)
	}
	if strings.Join(ids, `,`) != `A1,B2` {
		t.Error("ids", ids)
	}
}

func TestTrsFileSource(t *testing.T) {
	src := NewTrsFileSource([]string{`/a/X1.trs`, `/b/Y2.trs`}, ReadOptions{})
	var names []string
	for {
		p, _ := src.Next()
		if p == nil {
			break
		}
		names = append(names, p.Name())
	}
	if len(names) != 2 || names[1] != `/b/Y2.trs` {
		t.Error(names)
	}
}

package anonymize

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/transcript"
	"github.com/spoken-corpus/anom-oral/wave"
)

func writeRecording(t *testing.T, dir string, id string, channels int, frames int) *wave.Waveform {
	w := &wave.Waveform{SampleRate: 8000, BitDepth: 16, Channels: channels}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			w.Samples = append(w.Samples, ((i*37+ch*11)%2000)-1000)
		}
	}
	err := wave.Save(filepath.Join(dir, id+`.wav`), w)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func parseDoc(t *testing.T, xml string) transcript.Document {
	doc, err := transcript.ParseVertical([]byte(xml), `test`, transcript.ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTimeToSample(t *testing.T) {
	if s := TimeToSample(1.5, 8000); s != 12000 {
		t.Error("start", s)
	}
	if s := TimeToSample(2.5, 8000); s != 20000 {
		t.Error("end", s)
	}
	if s := TimeToSample(0.00012, 8000); s != 0 {
		t.Error("floor", s)
	}
	if s := TimeToSample(-0.5, 8000); s != 0 {
		t.Error("negative", s)
	}
}

func TestEquivSinePeak(t *testing.T) {
	for _, a := range []int{1000, -1000, 32767, -32768, 8388607} {
		samples := make([]int, 50)
		for i := range samples {
			samples[i] = a
		}
		got := EquivSinePeak(samples)
		want := math.Abs(float64(a)) * math.Sqrt2
		if math.Abs(got-want) > 1e-6*want {
			t.Errorf("constant %d: expected %v, got %v", a, want, got)
		}
	}
	if EquivSinePeak(nil) != 0 {
		t.Error("empty window")
	}
}

func TestGenSine(t *testing.T) {
	tone := GenSine(5, 2000, 8000)
	want := []float64{0, 1, 0, -1, 0}
	for i := range want {
		if math.Abs(tone[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], tone[i])
		}
	}
	if GenSine(0, 440, 8000) != nil {
		t.Error("zero length")
	}
}

func TestPlan_Clamp(t *testing.T) {
	ctx := context.Background()
	w := &wave.Waveform{SampleRate: 1000, BitDepth: 16, Channels: 1, Samples: make([]int, 1000)}
	doc := parseDoc(t, `<doc id="A"><seg start="0.5" end="5.0">NP</seg></doc>`)
	spans, status := Plan(ctx, doc, w)
	if status != nil {
		t.Fatal(status)
	}
	if len(spans) != 1 || spans[0].StartSample != 500 || spans[0].EndSample != 999 {
		t.Fatal(spans)
	}
}

func TestTimeToSample_Saturates(t *testing.T) {
	if s := TimeToSample(1e300, 1000); s != math.MaxInt {
		t.Error("huge", s)
	}
	if s := TimeToSample(math.Inf(1), 1000); s != math.MaxInt {
		t.Error("inf", s)
	}
	if s := TimeToSample(math.NaN(), 1000); s != math.MaxInt {
		t.Error("nan", s)
	}
	if s := TimeToSample(math.Inf(-1), 1000); s != 0 {
		t.Error("-inf", s)
	}
}

func TestAnonymize_StartBeyondRecording(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orig := writeRecording(t, dir, `F`, 1, 1000)
	doc := parseDoc(t, `<doc id="F"><seg start="1e300" end="0.09">NP</seg></doc>`)
	w, spans, status := Anonymize(ctx, doc, dir, 440, Options{})
	if status != nil {
		t.Fatal(status)
	}
	if len(spans) != 1 || spans[0].Len() != 0 || spans[0].Written != 0 {
		t.Fatal(spans)
	}
	for i := range orig.Samples {
		if w.Samples[i] != orig.Samples[i] {
			t.Fatal("sample modified", i)
		}
	}
}

func TestAnonymize_NonFiniteTime(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeRecording(t, dir, `G`, 1, 1000)
	for _, start := range []string{`NaN`, `Inf`, `-Inf`} {
		doc := parseDoc(t, `<doc id="G"><seg start="`+start+`" end="0.09">NP</seg></doc>`)
		_, _, status := Anonymize(ctx, doc, dir, 440, Options{})
		if status == nil || status.Status != 400 {
			t.Error(start, "expected 400, got", status)
		}
	}
}

func TestCheckOverlap_NonAdjacent(t *testing.T) {
	spans := []Span{
		{Text: `NP`, StartSample: 0, EndSample: 100},
		{Text: `NN`, StartSample: 10, EndSample: 20},
		{Text: `NJ`, StartSample: 30, EndSample: 40},
		{Text: `NO`, StartSample: 200, EndSample: 300},
	}
	if n := CheckOverlap(context.Background(), spans); n != 2 {
		t.Error("expected 2 overlaps, got", n)
	}
}

func TestAnonymize_Stereo(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orig := writeRecording(t, dir, `ABC01`, 2, 8000)
	doc := parseDoc(t, `<doc id="ABC01">
<seg start="0" end="0.1">hello</seg>
<seg start="0.25" end="0.5">NP</seg>
<seg start="0.6" end="0.7">NX</seg>
</doc>`)
	w, spans, status := Anonymize(ctx, doc, dir, 440, Options{})
	if status != nil {
		t.Fatal(status)
	}
	if len(spans) != 1 {
		t.Fatal("expected 1 span, got", len(spans))
	}
	span := spans[0]
	if span.StartSample != 2000 || span.EndSample != 4000 || span.Written != 2001 {
		t.Fatal(span)
	}
	peak := EquivSinePeak(orig.Samples[2000*2 : 4001*2])
	if span.Peak != peak {
		t.Error("peak", span.Peak, peak)
	}
	step := 440.0 / 8000 * 2 * math.Pi
	for i := 0; i < w.Frames(); i++ {
		inside := i >= 2000 && i <= 4000
		for ch := 0; ch < 2; ch++ {
			got := w.At(i, ch)
			if !inside {
				if got != orig.At(i, ch) {
					t.Fatalf("frame %d channel %d modified outside span", i, ch)
				}
				continue
			}
			want := int(int16(math.Trunc(math.Sin(float64(i-2000)*step) * peak)))
			if got != want {
				t.Fatalf("frame %d channel %d: expected %d, got %d", i, ch, want, got)
			}
		}
		if inside && w.At(i, 0) != w.At(i, 1) {
			t.Fatalf("frame %d: channels differ", i)
		}
	}
}

func TestAnonymize_PeaksFromOriginal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orig := writeRecording(t, dir, `OVL`, 1, 4000)
	doc := parseDoc(t, `<doc id="OVL">
<seg start="0.1" end="0.3">NN</seg>
<seg start="0.2" end="0.4">NM</seg>
</doc>`)
	_, spans, status := Anonymize(ctx, doc, dir, 440, Options{CheckOverlap: true})
	if status != nil {
		t.Fatal(status)
	}
	second := spans[1]
	want := EquivSinePeak(orig.Samples[second.StartSample : second.EndSample+1])
	if second.Peak != want {
		t.Error("second peak was not measured on original audio", second.Peak, want)
	}
	if n := CheckOverlap(ctx, spans); n != 1 {
		t.Error("expected 1 overlap, got", n)
	}
}

func TestAnonymize_EmptySpan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	orig := writeRecording(t, dir, `E`, 1, 1000)
	doc := parseDoc(t, `<doc id="E">
<seg start="0.05" end="0.04">NO</seg>
<seg start="5" end="6">NJ</seg>
</doc>`)
	w, spans, status := Anonymize(ctx, doc, dir, 440, Options{})
	if status != nil {
		t.Fatal(status)
	}
	for _, span := range spans {
		if span.Written != 0 || span.Len() != 0 {
			t.Error("expected empty span", span)
		}
	}
	for i := range orig.Samples {
		if w.Samples[i] != orig.Samples[i] {
			t.Fatal("sample modified", i)
		}
	}
}

func TestAnonymize_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	doc := parseDoc(t, `<doc id="NONE"><seg start="0" end="1">NP</seg></doc>`)
	_, _, status := Anonymize(ctx, doc, dir, 440, Options{})
	if status == nil || status.Status != 404 {
		t.Fatal("expected 404, got", status)
	}
	writeRecording(t, dir, `M`, 1, 100)
	doc = parseDoc(t, `<doc id="M"><seg start="0">NP</seg></doc>`)
	_, _, status = Anonymize(ctx, doc, dir, 440, Options{})
	if status == nil || status.Status != 400 {
		t.Fatal("expected 400, got", status)
	}
}

func TestResolveSpans(t *testing.T) {
	doc := parseDoc(t, `<doc id="R"><seg start="1" end="2">a</seg><seg start="3" end="4"> NJ </seg></doc>`)
	spans, status := ResolveSpans(context.Background(), doc)
	if status != nil {
		t.Fatal(status)
	}
	if len(spans) != 1 || spans[0].Seq != 1 || spans[0].Text != `NJ` || spans[0].StartTS != 3 || spans[0].EndTS != 4 {
		t.Fatal(spans)
	}
}

func init() {
	log.SetLevel(`error`)
}

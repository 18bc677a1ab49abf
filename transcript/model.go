package transcript

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Format int

const (
	Vertical Format = iota
	Trs
)

func (f Format) String() string {
	switch f {
	case Vertical:
		return `vertical`
	case Trs:
		return `trs`
	default:
		return `Format(` + strconv.Itoa(int(f)) + `)`
	}
}

// ParseFormat accepts the names used in requests and on the command line.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ``, `vertical`, `vert`:
		return Vertical, true
	case `trs`:
		return Trs, true
	default:
		return Vertical, false
	}
}

// Document is one transcript unit, read-only once parsed.
type Document struct {
	ID       string
	Format   Format
	Source   string // file or stream location, for messages
	Segments []Segment
}

// Segment is one annotated span. Its boundaries are resolved on demand
// because trs boundaries depend on the surrounding tree.
type Segment struct {
	Text   string
	bounds boundaries
}

type boundaries interface {
	start() (float64, error)
	end() (float64, error)
}

var anonCode = regexp.MustCompile(`^N[PNJMO]$`)

// IsTarget reports whether text, once trimmed, is one of the codes
// NP, NN, NJ, NM or NO.
func IsTarget(text string) bool {
	return anonCode.MatchString(strings.TrimSpace(text))
}

func (s Segment) IsTarget() bool {
	return IsTarget(s.Text)
}

// Code is the trimmed segment text.
func (s Segment) Code() string {
	return strings.TrimSpace(s.Text)
}

func (s Segment) Start() (float64, error) {
	if s.bounds == nil {
		return 0, &MissingAttributeError{Element: `segment`, Attr: `start`}
	}
	return s.bounds.start()
}

func (s Segment) End() (float64, error) {
	if s.bounds == nil {
		return 0, &MissingAttributeError{Element: `segment`, Attr: `end`}
	}
	return s.bounds.end()
}

// Targets returns the segments to be anonymized, in document order.
func (d Document) Targets() []Segment {
	var results []Segment
	for _, seg := range d.Segments {
		if seg.IsTarget() {
			results = append(results, seg)
		}
	}
	return results
}

func parseTime(element string, attr string, value string) (float64, error) {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, &ParseError{Source: element + `@` + attr, Err: err}
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, &ParseError{Source: element + `@` + attr, Err: fmt.Errorf("time is not finite: %s", value)}
	}
	return result, nil
}

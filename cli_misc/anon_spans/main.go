package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spoken-corpus/anom-oral/anonymize"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	"github.com/spoken-corpus/anom-oral/input"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// anon_spans lists the segments anom_oral would replace, as CSV, without
// touching any recording. It is used to review transcripts before a run.

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	var req request.Request
	var trs bool
	flags := flag.NewFlagSet(`anon_spans`, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&trs, "t", false, "input is a list of .trs ids instead of a vertical")
	flags.StringVar(&req.TranscriptDir, "trs-dir", ".", "directory of .trs files")
	flags.StringVar(&req.TrsGlob, "glob", "", "list every .trs file matching this pattern in the trs dir")
	flags.StringVar(&req.Encoding, "encoding", "", "charset of transcripts without an XML declaration")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: anon_spans [-t] [-trs-dir dir] [-glob pattern] [<input>]\n")
		fmt.Fprintf(stderr, "Prints doc_id,seq,start,end,text for every anonymized segment.\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 2
	}
	req.Format = `vertical`
	if trs || req.TrsGlob != `` {
		req.Format = `trs`
	}
	req.Input = flags.Arg(0)
	if req.Input == `` && req.TrsGlob == `` {
		req.Input = input.Stdin
	}
	if flags.NArg() > 1 || (req.Format == `trs` && req.Input == input.Stdin) {
		flags.Usage()
		return 2
	}
	ctx := context.Background()
	status := listSpans(ctx, req, stdout)
	if status != nil {
		fmt.Fprintln(stderr, status.String())
		if status.Status == 400 || status.Status == 404 {
			return 2
		}
		return 1
	}
	return 0
}

func listSpans(ctx context.Context, req request.Request, w io.Writer) *log.Status {
	source, closer, status := input.OpenSource(ctx, req)
	if status != nil {
		return status
	}
	defer closer.Close()
	out := csv.NewWriter(w)
	_ = out.Write([]string{`doc_id`, `seq`, `start`, `end`, `text`})
	for {
		pending, err := source.Next()
		if err != nil {
			return log.Error(ctx, 500, err, "Unable to read", req.Input)
		}
		if pending == nil {
			break
		}
		doc, err := pending.Load()
		if err != nil {
			return log.Error(ctx, 400, err, "Unable to parse", pending.Name())
		}
		spans, status := anonymize.ResolveSpans(ctx, doc)
		if status != nil {
			return status
		}
		for _, span := range spans {
			_ = out.Write([]string{
				doc.ID,
				strconv.Itoa(span.Seq),
				strconv.FormatFloat(span.StartTS, 'f', -1, 64),
				strconv.FormatFloat(span.EndTS, 'f', -1, 64),
				span.Text,
			})
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return log.Error(ctx, 500, err, "Unable to write spans")
	}
	return nil
}

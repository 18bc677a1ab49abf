package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spoken-corpus/anom-oral/controller"
	"github.com/spoken-corpus/anom-oral/courier"
	"github.com/spoken-corpus/anom-oral/db"
	"github.com/spoken-corpus/anom-oral/decode_yaml"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// anom_oral replaces the segments of spoken corpus recordings coded NP, NN,
// NJ, NM or NO in their transcripts with a tone of the same energy.
//
//	anom_oral -i wav_in -o wav_out corpus.vert
//	anom_oral -t -i wav_in -o wav_out ids.txt
//	anom_oral -config request.yaml

type options struct {
	config        string
	inputDir      string
	outputDir     string
	transcriptDir string
	glob          string
	encoding      string
	freq          float64
	trs           bool
	workers       int
	checkOverlap  bool
	verify        bool
	reportJSON    string
	reportXLSX    string
	dbDriver      string
	dbDSN         string
	logPath       string
	logLevel      string
	logJSON       bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(stderr, "Unable to read .env:", err)
	}
	var o options
	flags := newFlagSet(&o, stderr)
	if err := flags.Parse(args); err != nil {
		return controller.ExitUsage
	}
	if flags.NArg() > 1 {
		fmt.Fprintln(stderr, "Only one input can be given:", flags.Args())
		flags.Usage()
		return controller.ExitUsage
	}
	if o.logPath != `` {
		log.SetOutput(o.logPath)
	}
	if o.logLevel != `` {
		log.SetLevel(o.logLevel)
	}
	log.SetJSON(o.logJSON)
	req, yamlContent, status := buildRequest(ctx, flags, o)
	if status != nil {
		fmt.Fprintln(stderr, status.Error())
		flags.Usage()
		return controller.ExitUsage
	}
	stopWatch := courier.LongRunNotify(ctx, req)
	summary, status := controller.RunBatch(ctx, req)
	stopWatch()
	deliver(ctx, req, yamlContent, o, summary, status)
	if status != nil {
		return controller.ExitUsage
	}
	return summary.ExitCode()
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet(`anom_oral`, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.config, "config", "", "YAML request; flags override its fields")
	flags.StringVar(&o.inputDir, "i", "", "directory of input WAV files (required)")
	flags.StringVar(&o.inputDir, "input-dir", "", "same as -i")
	flags.StringVar(&o.outputDir, "o", "", "directory where output WAV files are saved (required)")
	flags.StringVar(&o.outputDir, "output-dir", "", "same as -o")
	flags.Float64Var(&o.freq, "f", request.DefaultToneHz, "frequency of the replacement tone in Hz")
	flags.Float64Var(&o.freq, "freq", request.DefaultToneHz, "same as -f")
	flags.BoolVar(&o.trs, "t", false, "input is a list of .trs ids instead of a vertical")
	flags.BoolVar(&o.trs, "trs", false, "same as -t")
	flags.StringVar(&o.transcriptDir, "trs-dir", "", "directory of .trs files (default: input dir)")
	flags.StringVar(&o.glob, "glob", "", "process every .trs file matching this pattern in the trs dir")
	flags.StringVar(&o.encoding, "encoding", "", "charset of transcripts without an XML declaration")
	flags.IntVar(&o.workers, "workers", 0, "number of documents processed at once (default: CPU count)")
	flags.BoolVar(&o.checkOverlap, "check-overlap", false, "warn about overlapping anonymized spans")
	flags.BoolVar(&o.verify, "verify", false, "compare input and output durations with ffprobe")
	flags.StringVar(&o.reportJSON, "report-json", "", "write a JSON report to this file")
	flags.StringVar(&o.reportXLSX, "report-xlsx", "", "write a spreadsheet report to this file")
	flags.StringVar(&o.dbDriver, "db-driver", "", "run ledger driver: sqlite3 or mysql")
	flags.StringVar(&o.dbDSN, "db", "", "run ledger database file or DSN")
	flags.StringVar(&o.logPath, "log", "", "log to stdout, stderr or a file (default: stderr)")
	flags.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&o.logJSON, "log-json", false, "write log entries as JSON")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: anom_oral -i <wav_dir> -o <out_dir> [options] <input>\n")
		fmt.Fprintf(stderr, "\n<input> is a vertical with one or more documents ('-' reads stdin),\n")
		fmt.Fprintf(stderr, "or with -t a file of document ids naming <trs-dir>/<id>.trs.\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}
	return flags
}

// buildRequest reads the YAML request, if any, lets the flags that were
// given override it, then applies defaults and validates.
func buildRequest(ctx context.Context, flags *flag.FlagSet, o options) (request.Request, []byte, *log.Status) {
	var req request.Request
	var yamlContent []byte
	decoder := decode_yaml.NewRequestDecoder(ctx)
	if o.config != `` {
		var err error
		yamlContent, err = os.ReadFile(o.config)
		if err != nil {
			return req, nil, log.Error(ctx, 400, err, "Unable to read request", o.config)
		}
		var status *log.Status
		req, status = decoder.Decode(yamlContent)
		if status != nil {
			return req, nil, status
		}
	}
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	given := func(names ...string) bool {
		for _, name := range names {
			if set[name] {
				return true
			}
		}
		return false
	}
	if flags.NArg() == 1 {
		req.Input = flags.Arg(0)
	}
	if given(`i`, `input-dir`) {
		req.InputDir = o.inputDir
	}
	if given(`o`, `output-dir`) {
		req.OutputDir = o.outputDir
	}
	if given(`f`, `freq`) {
		req.ToneHz = o.freq
	}
	if given(`t`, `trs`) && o.trs {
		req.Format = `trs`
	}
	if given(`trs-dir`) {
		req.TranscriptDir = o.transcriptDir
	}
	if given(`glob`) {
		req.TrsGlob = o.glob
		req.Format = `trs`
	}
	if given(`encoding`) {
		req.Encoding = o.encoding
	}
	if given(`workers`) {
		req.Workers = o.workers
	}
	if given(`check-overlap`) {
		req.CheckOverlap = o.checkOverlap
	}
	if given(`verify`) {
		req.VerifyOutput = o.verify
	}
	if given(`report-json`) {
		req.Report.JSON = o.reportJSON
	}
	if given(`report-xlsx`) {
		req.Report.XLSX = o.reportXLSX
	}
	if given(`db-driver`) {
		req.Database.Driver = o.dbDriver
	}
	if given(`db`) {
		req.Database.DSN = o.dbDSN
	}
	status := decoder.Finish(&req)
	return req, yamlContent, status
}

// deliver writes the reports and the ledger, then uploads and notifies.
// Failures here are logged and do not change the exit code.
func deliver(ctx context.Context, req request.Request, yamlContent []byte, o options,
	summary controller.Summary, status *log.Status) {
	b := courier.NewCourier(ctx, req, yamlContent, summary.RunID)
	if o.logPath != `` && o.logPath != `stdout` && o.logPath != `stderr` {
		b.AddLogFile(o.logPath)
	}
	if status == nil {
		if req.Report.JSON != `` && courier.WriteJSON(ctx, summary, req.Report.JSON) == nil {
			b.AddOutput(req.Report.JSON)
		}
		if req.Report.XLSX != `` && courier.WriteXLSX(ctx, summary, req.Report.XLSX) == nil {
			b.AddOutput(req.Report.XLSX)
		}
		if req.Database.Driver != `` {
			conn, st := db.NewDBAdapter(ctx, req.Database.Driver, req.Database.DSN)
			if st == nil {
				if conn.InsertRun(summary.Run(), summary.Records()) == nil {
					b.AddDatabase(conn)
				}
			}
			conn.Close()
		}
		for _, output := range summary.Outputs() {
			b.AddOutput(output)
		}
	}
	_ = b.PersistToBucket()
	_ = b.Notification(summary, status)
}

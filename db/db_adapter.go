package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// DBAdapter is the run ledger: one row per run, per document and per
// anonymized span. The schema is valid for both sqlite3 and mysql.
type DBAdapter struct {
	ctx          context.Context
	conn         *sql.DB
	Driver       string
	DatabasePath string
}

type Run struct {
	RunID       string
	DatasetName string
	Started     time.Time
	Finished    time.Time
	Succeeded   int
	Skipped     int
	Failed      int
	ExitCode    int
}

type Document struct {
	RunID    string
	DocID    string
	Source   string
	Outcome  string
	Status   int
	Message  string
	Output   string
	Seconds  float64
	Channels int
	Spans    []Span
}

type Span struct {
	Seq         int
	Text        string
	StartTS     float64
	EndTS       float64
	StartSample int
	EndSample   int
	Peak        float64
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR(36) NOT NULL PRIMARY KEY,
		dataset_name VARCHAR(255) NOT NULL,
		started VARCHAR(40) NOT NULL,
		finished VARCHAR(40) NOT NULL,
		succeeded INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		exit_code INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS documents (
		run_id VARCHAR(36) NOT NULL,
		doc_id VARCHAR(255) NOT NULL,
		source VARCHAR(1024) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		status INTEGER NOT NULL,
		message TEXT NOT NULL,
		output VARCHAR(1024) NOT NULL,
		seconds DOUBLE NOT NULL,
		channels INTEGER NOT NULL,
		PRIMARY KEY (run_id, doc_id))`,
	`CREATE TABLE IF NOT EXISTS spans (
		run_id VARCHAR(36) NOT NULL,
		doc_id VARCHAR(255) NOT NULL,
		seq INTEGER NOT NULL,
		text VARCHAR(16) NOT NULL,
		start_ts DOUBLE NOT NULL,
		end_ts DOUBLE NOT NULL,
		start_sample INTEGER NOT NULL,
		end_sample INTEGER NOT NULL,
		peak DOUBLE NOT NULL,
		PRIMARY KEY (run_id, doc_id, seq))`,
}

// NewDBAdapter opens the ledger and creates its tables when missing.
// driver is sqlite3 or mysql; for sqlite3 dsn is a file path or ":memory:".
func NewDBAdapter(ctx context.Context, driver string, dsn string) (DBAdapter, *log.Status) {
	var d DBAdapter
	d.ctx = ctx
	d.Driver = driver
	d.DatabasePath = dsn
	var err error
	d.conn, err = sql.Open(driver, dsn)
	if err != nil {
		return d, log.Error(ctx, 500, err, "Error opening database", driver)
	}
	if driver == `sqlite3` {
		// A :memory: database exists per connection.
		d.conn.SetMaxOpenConns(1)
	}
	err = d.conn.PingContext(ctx)
	if err != nil {
		return d, log.Error(ctx, 500, err, "Database ping failed", driver)
	}
	for _, stmt := range schema {
		_, err = d.conn.ExecContext(ctx, stmt)
		if err != nil {
			return d, log.Error(ctx, 500, err, stmt)
		}
	}
	return d, nil
}

func (d *DBAdapter) Close() {
	if d.conn != nil {
		_ = d.conn.Close()
	}
}

// InsertRun stores a run with its documents and spans in one transaction.
func (d *DBAdapter) InsertRun(run Run, docs []Document) *log.Status {
	tx, err := d.conn.BeginTx(d.ctx, nil)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Unable to begin transaction")
	}
	status := d.insertRun(tx, run, docs)
	if status != nil {
		_ = tx.Rollback()
		return status
	}
	err = tx.Commit()
	if err != nil {
		return log.Error(d.ctx, 500, err, "Unable to commit run", run.RunID)
	}
	return nil
}

func (d *DBAdapter) insertRun(tx *sql.Tx, run Run, docs []Document) *log.Status {
	query := `INSERT INTO runs (run_id, dataset_name, started, finished, succeeded, skipped,
		failed, exit_code) VALUES (?,?,?,?,?,?,?,?)`
	_, err := tx.ExecContext(d.ctx, query, run.RunID, run.DatasetName, run.Started.Format(time.RFC3339Nano),
		run.Finished.Format(time.RFC3339Nano), run.Succeeded, run.Skipped, run.Failed, run.ExitCode)
	if err != nil {
		return log.Error(d.ctx, 500, err, query)
	}
	query = `INSERT INTO documents (run_id, doc_id, source, outcome, status, message, output,
		seconds, channels) VALUES (?,?,?,?,?,?,?,?,?)`
	docStmt, err := tx.PrepareContext(d.ctx, query)
	if err != nil {
		return log.Error(d.ctx, 500, err, query)
	}
	defer docStmt.Close()
	spanQuery := `INSERT INTO spans (run_id, doc_id, seq, text, start_ts, end_ts, start_sample,
		end_sample, peak) VALUES (?,?,?,?,?,?,?,?,?)`
	spanStmt, err := tx.PrepareContext(d.ctx, spanQuery)
	if err != nil {
		return log.Error(d.ctx, 500, err, spanQuery)
	}
	defer spanStmt.Close()
	for _, doc := range docs {
		_, err = docStmt.ExecContext(d.ctx, run.RunID, doc.DocID, doc.Source, doc.Outcome, doc.Status,
			doc.Message, doc.Output, doc.Seconds, doc.Channels)
		if err != nil {
			return log.Error(d.ctx, 500, err, query, doc.DocID)
		}
		for _, span := range doc.Spans {
			_, err = spanStmt.ExecContext(d.ctx, run.RunID, doc.DocID, span.Seq, span.Text, span.StartTS,
				span.EndTS, span.StartSample, span.EndSample, span.Peak)
			if err != nil {
				return log.Error(d.ctx, 500, err, spanQuery, doc.DocID)
			}
		}
	}
	return nil
}

// SelectDocuments returns the documents of a run with their spans, ordered
// by document id and span position.
func (d *DBAdapter) SelectDocuments(runID string) ([]Document, *log.Status) {
	var results []Document
	query := `SELECT doc_id, source, outcome, status, message, output, seconds, channels
		FROM documents WHERE run_id = ? ORDER BY doc_id`
	rows, err := d.conn.QueryContext(d.ctx, query, runID)
	if err != nil {
		return results, log.Error(d.ctx, 500, err, query)
	}
	defer rows.Close()
	index := make(map[string]int)
	for rows.Next() {
		var doc Document
		doc.RunID = runID
		err = rows.Scan(&doc.DocID, &doc.Source, &doc.Outcome, &doc.Status, &doc.Message, &doc.Output,
			&doc.Seconds, &doc.Channels)
		if err != nil {
			return results, log.Error(d.ctx, 500, err, query)
		}
		index[doc.DocID] = len(results)
		results = append(results, doc)
	}
	err = rows.Err()
	if err != nil {
		return results, log.Error(d.ctx, 500, err, query)
	}
	query = `SELECT doc_id, seq, text, start_ts, end_ts, start_sample, end_sample, peak
		FROM spans WHERE run_id = ? ORDER BY doc_id, seq`
	spanRows, err := d.conn.QueryContext(d.ctx, query, runID)
	if err != nil {
		return results, log.Error(d.ctx, 500, err, query)
	}
	defer spanRows.Close()
	for spanRows.Next() {
		var docID string
		var span Span
		err = spanRows.Scan(&docID, &span.Seq, &span.Text, &span.StartTS, &span.EndTS, &span.StartSample,
			&span.EndSample, &span.Peak)
		if err != nil {
			return results, log.Error(d.ctx, 500, err, query)
		}
		i, ok := index[docID]
		if !ok {
			log.Warn(d.ctx, "Span without document", docID, span.Seq)
			continue
		}
		results[i].Spans = append(results[i].Spans, span)
	}
	err = spanRows.Err()
	if err != nil {
		return results, log.Error(d.ctx, 500, err, query)
	}
	return results, nil
}

// SelectRun returns a run by id; ok is false when there is none.
func (d *DBAdapter) SelectRun(runID string) (Run, bool, *log.Status) {
	var run Run
	var started, finished string
	query := `SELECT run_id, dataset_name, started, finished, succeeded, skipped, failed, exit_code
		FROM runs WHERE run_id = ?`
	err := d.conn.QueryRowContext(d.ctx, query, runID).Scan(&run.RunID, &run.DatasetName, &started,
		&finished, &run.Succeeded, &run.Skipped, &run.Failed, &run.ExitCode)
	if err == sql.ErrNoRows {
		return run, false, nil
	}
	if err != nil {
		return run, false, log.Error(d.ctx, 500, err, query)
	}
	run.Started, _ = time.Parse(time.RFC3339Nano, started)
	run.Finished, _ = time.Parse(time.RFC3339Nano, finished)
	return run, true, nil
}

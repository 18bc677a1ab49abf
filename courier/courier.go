package courier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spoken-corpus/anom-oral/db"
	"github.com/spoken-corpus/anom-oral/decode_yaml/request"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// Courier delivers what a run produced: it uploads the request, log, ledger
// and outputs to a bucket, and notifies the request's recipients.
type Courier struct {
	ctx         context.Context
	IsUnitTest  bool // lets a test reach S3, SQS and SMTP
	start       time.Time
	bucket      string
	region      string
	prefix      string
	dataset     string
	runID       string
	yamlContent string
	logFile     string
	databases   []string
	outputs     []string
	outputKeys  []string
	notifyOk    []string
	notifyErr   []string
}

func NewCourier(ctx context.Context, req request.Request, yaml []byte, runID string) Courier {
	var b Courier
	b.ctx = ctx
	b.start = time.Now()
	b.bucket = req.Bucket.Name
	if b.bucket == `` {
		b.bucket = os.Getenv("ANOM_ORAL_BUCKET")
	}
	b.region = req.Bucket.Region
	b.prefix = strings.Trim(req.Bucket.Prefix, `/`)
	b.dataset = req.DatasetName
	b.runID = runID
	b.yamlContent = string(yaml)
	b.notifyOk = req.NotifyOk
	b.notifyErr = req.NotifyErr
	return b
}

func (b *Courier) AddLogFile(logPath string) {
	b.logFile = logPath
}

// AddDatabase uploads sqlite ledgers; a mysql ledger is already shared.
func (b *Courier) AddDatabase(conn db.DBAdapter) {
	if conn.Driver == `sqlite3` && conn.DatabasePath != `:memory:` {
		b.databases = append(b.databases, conn.DatabasePath)
	}
}

func (b *Courier) AddOutput(outputPath string) {
	if len(outputPath) > 0 {
		b.outputs = append(b.outputs, outputPath)
	}
}

func (b *Courier) GetOutputPaths() []string {
	return b.outputs
}

func (b *Courier) GetOutputByExt(fileExt string) []string {
	var results []string
	for _, path := range b.outputs {
		if strings.HasSuffix(path, fileExt) {
			results = append(results, path)
		}
	}
	return results
}

// PersistToBucket is a no-op unless a bucket is configured.
func (b *Courier) PersistToBucket() *log.Status {
	if b.bucket == `` {
		return nil
	}
	if testing.Testing() && !b.IsUnitTest {
		return nil
	}
	var allStatus []*log.Status
	var opts []func(*config.LoadOptions) error
	if b.region != `` {
		opts = append(opts, config.WithRegion(b.region))
	}
	cfg, err := config.LoadDefaultConfig(b.ctx, opts...)
	if err != nil {
		return log.Error(b.ctx, 500, err, "Error loading AWS config.")
	}
	client := s3.NewFromConfig(cfg)
	if b.yamlContent != `` {
		_, status := b.uploadString(client, "request", b.dataset+".yaml", b.yamlContent)
		allStatus = append(allStatus, status)
	}
	if b.logFile != `` {
		_, status := b.uploadFile(client, "log", b.logFile)
		allStatus = append(allStatus, status)
	}
	for _, database := range b.databases {
		_, status := b.uploadFile(client, "database", database)
		allStatus = append(allStatus, status)
	}
	for _, output := range b.outputs {
		outputKey, status := b.uploadFile(client, "output", output)
		allStatus = append(allStatus, status)
		if status == nil {
			b.outputKeys = append(b.outputKeys, outputKey)
		}
	}
	_, status := b.uploadString(client, "duration", "duration.txt", time.Since(b.start).String())
	allStatus = append(allStatus, status)
	for _, stat := range allStatus {
		if stat != nil {
			return stat
		}
	}
	log.Info(b.ctx, "Uploaded", len(b.outputKeys), "outputs to", b.bucket, b.createKey("", ""))
	return nil
}

func (b *Courier) uploadString(client *s3.Client, typ string, filename string, content string) (string, *log.Status) {
	objectKey := b.createKey(typ, filename)
	_, err := client.PutObject(b.ctx, &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    &objectKey,
		Body:   strings.NewReader(content),
	})
	if err != nil {
		return objectKey, log.Error(b.ctx, 500, err, "Error uploading string content.")
	}
	return objectKey, nil
}

func (b *Courier) uploadFile(client *s3.Client, typ string, filePath string) (string, *log.Status) {
	objectKey := b.createKey(typ, filePath)
	file, err := os.Open(filePath)
	if err != nil {
		log.Warn(b.ctx, err, "Error opening file to upload to S3.")
		return objectKey, nil
	}
	defer file.Close()
	_, err = client.PutObject(b.ctx, &s3.PutObjectInput{
		Bucket: &b.bucket,
		Key:    &objectKey,
		Body:   file,
	})
	if err != nil {
		return objectKey, log.Error(b.ctx, 500, err, "Error uploading file to S3.")
	}
	return objectKey, nil
}

// createKey is prefix/dataset/run/type/file, without empty parts.
func (b *Courier) createKey(typ string, filename string) string {
	var parts []string
	for _, part := range []string{b.prefix, b.dataset, b.runID, typ, filepath.Base(filename)} {
		if part != `` && part != `.` {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, `/`)
}

package courier

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// SQSEnqueue sends data as JSON to the queue. The client region is the one
// in the queue URL, else region, else that of the environment.
func SQSEnqueue(ctx context.Context, region string, queueURL string, data any) (string, *log.Status) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error Marshalling SQS Message")
	}
	if r := queueRegion(queueURL); r != `` {
		region = r
	}
	var opts []func(*config.LoadOptions) error
	if region != `` {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error loading AWS configuration")
	}
	client := sqs.NewFromConfig(cfg)
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(jsonData)),
	}
	result, err := client.SendMessage(ctx, input)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error Enqueueing SQS Message", queueURL)
	}
	log.Info(ctx, "Enqueued:", *result.MessageId, queueURL)
	return *result.MessageId, nil
}

// queueRegion reads the region from https://sqs.<region>.amazonaws.com/...
func queueRegion(queueURL string) string {
	u, err := url.Parse(queueURL)
	if err != nil {
		return ``
	}
	parts := strings.Split(u.Hostname(), `.`)
	if len(parts) < 4 || parts[0] != `sqs` || parts[2] != `amazonaws` {
		return ``
	}
	return parts[1]
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	log "github.com/spoken-corpus/anom-oral/logger"
)

// create_sqs_queue creates the queue whose URL goes into notify_ok or
// notify_err of an anom_oral request.

func main() {
	name := flag.String("name", "anom_oral_runs", "queue name")
	region := flag.String("region", "", "AWS region (default: from the environment)")
	retention := flag.Int("retention-days", 14, "days a message is kept")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: create_sqs_queue [-name queue] [-region region]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if *region != `` {
		opts = append(opts, config.WithRegion(*region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		_ = log.Error(ctx, 500, err, "Unable to load AWS config")
		os.Exit(1)
	}
	client := sqs.NewFromConfig(cfg)
	input := &sqs.CreateQueueInput{
		QueueName: aws.String(*name),
		Attributes: map[string]string{
			"DelaySeconds":           "0",
			"MessageRetentionPeriod": strconv.Itoa(*retention * 24 * 3600),
		},
	}
	result, err := client.CreateQueue(ctx, input)
	if err != nil {
		_ = log.Error(ctx, 500, err, "Unable to create queue", *name)
		os.Exit(1)
	}
	fmt.Println(*result.QueueUrl)
}

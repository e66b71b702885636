package aws

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// RunRequest is the queue message for one requested engine run. The
// evaluation date and VDA flag echo the analysis configuration at enqueue
// time; the processor runs against the stored analysis.
type RunRequest struct {
	AnalysisID     uuid.UUID  `json:"analysis_id"`
	EvaluationDate *time.Time `json:"evaluation_date,omitempty"`
	VDAMode        bool       `json:"vda_mode"`
	NotifyEmail    string     `json:"notify_email,omitempty"`
	EnqueuedAt     time.Time  `json:"enqueued_at"`
}

// RunQueueClient publishes analysis run requests to SQS. Local stages point
// it at an elasticmq/localstack endpoint via SQS_ENDPOINT_URL; deployed
// stages use the default credential chain.
type RunQueueClient struct {
	svc      *sqs.Client
	queueURL string
}

// NewRunQueueClient creates and initializes a new run queue client.
func NewRunQueueClient(ctx context.Context, queueURL string) (*RunQueueClient, error) {
	if queueURL == "" {
		return nil, errors.New("run queue URL is required")
	}

	endpoint := os.Getenv("SQS_ENDPOINT_URL")

	var loadOpts []func(*config.LoadOptions) error
	if endpoint != "" {
		// Local queue emulators accept any static key pair.
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
			config.WithRegion("us-east-1"),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS SDK config")
	}

	svc := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &RunQueueClient{
		svc:      svc,
		queueURL: queueURL,
	}, nil
}

// EnqueueRun sends one run request to the queue.
func (c *RunQueueClient) EnqueueRun(ctx context.Context, request RunRequest) error {
	if request.AnalysisID == uuid.Nil {
		return errors.New("run request requires an analysis id")
	}
	if request.EnqueuedAt.IsZero() {
		request.EnqueuedAt = time.Now().UTC()
	}

	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "failed to marshal run request")
	}

	analysisID := request.AnalysisID.String()
	_, err = c.svc.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AnalysisID": {
				StringValue: aws.String(analysisID),
				DataType:    aws.String("String"),
			},
			"Action": {
				StringValue: aws.String("run"),
				DataType:    aws.String("String"),
			},
		},
	})
	if err != nil {
		logger.Log.Error("Failed to enqueue run request",
			zap.String("analysis_id", analysisID),
			zap.Error(err))
		return errors.Wrap(err, "failed to send message to SQS")
	}

	logger.Log.Info("Run request enqueued",
		zap.String("analysis_id", analysisID),
		zap.String("queue_url", c.queueURL))
	return nil
}

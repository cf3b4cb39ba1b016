package activitylog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/internal/pkg/env"
)

const messageType = "store_activity_log"

// sqsAPI is the subset of the SQS client the sink needs.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type message struct {
	Event string `json:"event"`
	Data  Entry  `json:"data"`
}

// SQSSink publishes entries to the activity log queue consumed by the
// logging service.
type SQSSink struct {
	client   sqsAPI
	queueURL string
}

func NewSQSSink(client sqsAPI, queueURL string) *SQSSink {
	return &SQSSink{client: client, queueURL: queueURL}
}

// NewSQSSinkFromEnv returns nil when AWS_SQS_QUEUE_ACTIVITY_LOG_URL is unset.
func NewSQSSinkFromEnv(ctx context.Context) (*SQSSink, error) {
	queueURL := strings.TrimSpace(env.GetEnv("AWS_SQS_QUEUE_ACTIVITY_LOG_URL", ""))
	if queueURL == "" {
		return nil, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(env.GetEnv("AWS_REGION", "us-east-1")),
	}
	accessKey := env.GetEnv("AWS_ACCESS_KEY_ID", "")
	secretKey := env.GetEnv("AWS_SECRET_ACCESS_KEY", "")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Infof("[ActivityLog] publishing to SQS queue %s", queueURL)
	return NewSQSSink(sqs.NewFromConfig(awsConfig), queueURL), nil
}

func (s *SQSSink) Store(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(message{Event: "log", Data: entry})
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(messageType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send activity log to SQS: %w", err)
	}
	return nil
}

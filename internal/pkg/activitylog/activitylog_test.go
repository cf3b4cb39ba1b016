package activitylog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows []models.ActivityLog
	err  error
}

func (r *memoryRepo) Create(entry *models.ActivityLog) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, *entry)
	return nil
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

var sample = Entry{
	UserUUID:  "user-1",
	Action:    models.ActionAwardedChallenge,
	Metadata:  "Account has been awarded - 700123",
	UserType:  models.ActorTypeAdmin,
	EventType: models.EventTypeChallenge,
	CreatedBy: "admin-1",
}

func TestLoggerWritesAllSinks(t *testing.T) {
	repo := &memoryRepo{}
	queue := &fakeSQS{}
	logger := NewLogger(NewDBSink(repo), NewSQSSink(queue, "https://sqs.local/queue"))

	require.NoError(t, logger.Store(context.Background(), sample))

	require.Len(t, repo.rows, 1)
	assert.Equal(t, "user-1", repo.rows[0].UserUUID)
	assert.Equal(t, models.ActionAwardedChallenge, repo.rows[0].Action)

	require.Len(t, queue.inputs, 1)
	in := queue.inputs[0]
	assert.Equal(t, "https://sqs.local/queue", aws.ToString(in.QueueUrl))
	assert.Equal(t, messageType, aws.ToString(in.MessageAttributes["type"].StringValue))

	var msg message
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &msg))
	assert.Equal(t, "log", msg.Event)
	assert.Equal(t, sample, msg.Data)
}

func TestLoggerPrimaryErrorPropagates(t *testing.T) {
	repo := &memoryRepo{err: errors.New("db down")}
	queue := &fakeSQS{}
	logger := NewLogger(NewDBSink(repo), NewSQSSink(queue, "q"))

	err := logger.Store(context.Background(), sample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Len(t, queue.inputs, 1)
}

func TestLoggerSecondaryErrorIsSwallowed(t *testing.T) {
	repo := &memoryRepo{}
	logger := NewLogger(NewDBSink(repo), NewSQSSink(&fakeSQS{err: errors.New("throttled")}, "q"))

	require.NoError(t, logger.Store(context.Background(), sample))
	assert.Len(t, repo.rows, 1)
}

package activitylog

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/propmodel/challenge-admin/app/models"
	"github.com/propmodel/challenge-admin/app/repository"
)

// Entry is one audit event.
type Entry struct {
	UserUUID  string `json:"user_uuid"`
	Action    string `json:"action"`
	Metadata  string `json:"metadata"`
	UserType  string `json:"user_type"`
	EventType string `json:"event_type"`
	CreatedBy string `json:"created_by"`
}

// Sink persists entries somewhere.
type Sink interface {
	Store(ctx context.Context, entry Entry) error
}

// DBSink writes entries to the activity_logs table.
type DBSink struct {
	repo repository.ActivityLogRepository
}

func NewDBSink(repo repository.ActivityLogRepository) *DBSink {
	return &DBSink{repo: repo}
}

func (s *DBSink) Store(_ context.Context, entry Entry) error {
	return s.repo.Create(&models.ActivityLog{
		UserUUID:  entry.UserUUID,
		Action:    entry.Action,
		Metadata:  entry.Metadata,
		UserType:  entry.UserType,
		EventType: entry.EventType,
		CreatedBy: entry.CreatedBy,
	})
}

// Logger fans an entry out to all sinks. The primary sink's error is
// returned; failures of secondary sinks are only logged.
type Logger struct {
	primary   Sink
	secondary []Sink
}

func NewLogger(primary Sink, secondary ...Sink) *Logger {
	return &Logger{primary: primary, secondary: secondary}
}

func (l *Logger) Store(ctx context.Context, entry Entry) error {
	var err error
	if l.primary != nil {
		err = l.primary.Store(ctx, entry)
	}
	for _, s := range l.secondary {
		if serr := s.Store(ctx, entry); serr != nil {
			log.Errorf("[ActivityLog] secondary sink failed for %s/%s: %v", entry.Action, entry.UserUUID, serr)
		}
	}
	if err != nil {
		return fmt.Errorf("store activity log: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// traceRecorder keeps every error GORM hands to its logger.
type traceRecorder struct {
	mu     sync.Mutex
	errors []error
}

func (r *traceRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *traceRecorder) Info(context.Context, string, ...interface{}) {}

func (r *traceRecorder) Warn(context.Context, string, ...interface{}) {}

func (r *traceRecorder) Error(context.Context, string, ...interface{}) {}

func (r *traceRecorder) Trace(_ context.Context, _ time.Time, _ func() (string, int64), err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *traceRecorder) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	recorder := &traceRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: recorder})
	require.NoError(t, err)
	return db, mock, recorder
}

func TestGetAdvancedForGroupMissingRow(t *testing.T) {
	db, mock, recorder := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `advanced_challenge_settings`").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "platform_group_uuid"}))

	settings, err := NewChallengeSettingsRepository(db).GetAdvancedForGroup("group-1")

	assert.Nil(t, settings)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, recorder.errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAdvancedForGroupFound(t *testing.T) {
	db, mock, recorder := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `advanced_challenge_settings`").
		WillReturnRows(sqlmock.NewRows([]string{"uuid", "platform_group_uuid"}).AddRow("adv-1", "group-1"))

	settings, err := NewChallengeSettingsRepository(db).GetAdvancedForGroup("group-1")

	require.NoError(t, err)
	assert.Equal(t, "adv-1", settings.UUID)
	require.NotNil(t, settings.PlatformGroupUUID)
	assert.Equal(t, "group-1", *settings.PlatformGroupUUID)
	assert.Empty(t, recorder.errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func trace(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestLoggerLevels(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	l := NewLogger(log, 50*time.Millisecond)
	ctx := context.Background()

	l.Trace(ctx, time.Now(), trace("SELECT 1"), errors.New("connection reset"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "SELECT 1", hook.LastEntry().Data["sql"])

	l.Trace(ctx, time.Now().Add(-time.Second), trace("SELECT pg_sleep(1)"), nil)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// Not found is an answer, not a failure.
	l.Trace(ctx, time.Now(), trace("SELECT * FROM teams"), gorm.ErrRecordNotFound)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestLoggerSilentMode(t *testing.T) {
	log, hook := test.NewNullLogger()
	l := NewLogger(log, time.Millisecond).LogMode(logger.Silent)

	l.Trace(context.Background(), time.Now(), trace("SELECT 1"), errors.New("boom"))
	l.Error(context.Background(), "boom %d", 1)
	assert.Empty(t, hook.AllEntries())
}

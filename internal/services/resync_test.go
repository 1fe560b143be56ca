package services

import (
	"context"
	"testing"
	"time"

	"live-voting/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronResync_RunsOnSchedule(t *testing.T) {
	refresher := &mockRefresher{}
	resync := NewCronResync(time.Second, refresher, logger.NewNop())

	require.NoError(t, resync.Start(context.Background()))
	defer resync.Stop()

	assert.Eventually(t, func() bool {
		refreshes, _ := refresher.counts()
		return refreshes >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCronResync_ZeroIntervalDisables(t *testing.T) {
	refresher := &mockRefresher{}
	resync := NewCronResync(0, refresher, logger.NewNop())

	require.NoError(t, resync.Start(context.Background()))
	assert.Empty(t, resync.cron.Entries())
	require.NoError(t, resync.Stop())

	refreshes, _ := refresher.counts()
	assert.Zero(t, refreshes)
}

func TestCronResync_FailuresAreLoggedNotFatal(t *testing.T) {
	refresher := &mockRefresher{err: assert.AnError}
	resync := NewCronResync(time.Second, refresher, logger.NewNop())

	resync.resync(context.Background())
	resync.resync(context.Background())

	refreshes, _ := refresher.counts()
	assert.Equal(t, 2, refreshes)
}

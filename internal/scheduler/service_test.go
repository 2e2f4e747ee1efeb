package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trendscope/trendscope/internal/config"
	"github.com/trendscope/trendscope/internal/models"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunWatchlist(ctx context.Context, topics []models.WatchTopic) (*models.Report, error) {
	args := m.Called(ctx, topics)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func TestCronExpression(t *testing.T) {
	assert.Equal(t, "0 0 9 * * *", cronExpression("daily"))
	assert.Equal(t, "0 0 9 * * MON", cronExpression("weekly"))
	assert.Equal(t, "0 0 9 * * MON", cronExpression(""))
}

func TestNewService_InvalidTimezone(t *testing.T) {
	_, err := NewService(&config.Config{TimeZone: "Mars/Olympus"}, &MockRunner{})
	assert.Error(t, err)
}

func TestService_StartRegistersJob(t *testing.T) {
	svc, err := NewService(&config.Config{TimeZone: "UTC", ReportSchedule: "daily"}, &MockRunner{})
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	entries := svc.cron.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 9, entries[0].Next.Hour())
}

func TestService_RunNow(t *testing.T) {
	topics := []models.WatchTopic{{Name: "rust", Query: "rust web framework"}}
	report := &models.Report{TotalTopics: 1}

	runner := &MockRunner{}
	runner.On("RunWatchlist", mock.Anything, topics).Return(report, nil)

	svc, err := NewService(&config.Config{TimeZone: "UTC", Watchlist: topics}, runner)
	require.NoError(t, err)

	got, err := svc.RunNow(context.Background())
	require.NoError(t, err)
	assert.Same(t, report, got)
	runner.AssertExpectations(t)
}

func TestService_RunNowEmptyWatchlist(t *testing.T) {
	runner := &MockRunner{}
	svc, err := NewService(&config.Config{TimeZone: "UTC"}, runner)
	require.NoError(t, err)

	got, err := svc.RunNow(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	runner.AssertNotCalled(t, "RunWatchlist", mock.Anything, mock.Anything)
}

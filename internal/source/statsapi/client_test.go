package statsapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// urlRecordingFetcher hands back a canned body and remembers every URL asked
// for, so tests can pin down the exact endpoints the client composes.
type urlRecordingFetcher struct {
	body []byte
	urls []string
}

func (f *urlRecordingFetcher) Fetch(_ context.Context, req pipeline.FetchRequest) (pipeline.FetchResponse, error) {
	f.urls = append(f.urls, req.URL)
	return pipeline.FetchResponse{URL: req.URL, StatusCode: 200, Body: f.body}, nil
}

func TestClientComposesEndpointURLs(t *testing.T) {
	fake := &urlRecordingFetcher{body: []byte(scheduleFixture)}
	c := NewClient(fake, "https://statsapi.mlb.com/api", zap.NewNop())

	_, err := c.Schedule(context.Background(), 2024, 0)
	require.NoError(t, err)

	fake.body = []byte(feedFixture)
	_, _, err = c.Game(context.Background(), 745804)
	require.NoError(t, err)

	require.Len(t, fake.urls, 2)
	assert.Equal(t, "https://statsapi.mlb.com/api/v1/schedule", fake.urls[0])
	assert.Equal(t, "https://statsapi.mlb.com/api/v1.1/game/745804/feed/live", fake.urls[1])
}

func TestClientTrimsTrailingSlashFromBase(t *testing.T) {
	fake := &urlRecordingFetcher{body: []byte(scheduleFixture)}
	c := NewClient(fake, "http://localhost:8080/api/", zap.NewNop())

	_, err := c.Schedule(context.Background(), 2024, 0)
	require.NoError(t, err)

	require.Len(t, fake.urls, 1)
	assert.Equal(t, "http://localhost:8080/api/v1/schedule", fake.urls[0])
}

package pipeline

import (
	"context"
	"time"
)

// Fetcher issues a rate-limited HTTP request and returns the raw payload.
// Parsing never happens here.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}

// GameSink persists game records with upsert semantics keyed by gamePk.
type GameSink interface {
	UpsertGames(ctx context.Context, recs []GameRecord) error
}

// Archiver stores a raw payload snapshot and returns its URI.
type Archiver interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (swapped out in tests).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with time.Now.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

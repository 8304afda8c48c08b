package fetch

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSet holds one circuit breaker per external host so a provider
// outage trips fast instead of burning the whole retry budget on each game.
type BreakerSet struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	timeout  time.Duration
	logger   *zap.Logger
}

// NewBreakerSet builds the set. timeout is how long an open breaker stays
// open before probing again.
func NewBreakerSet(timeout time.Duration, logger *zap.Logger) *BreakerSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BreakerSet{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute runs fn under the breaker for host.
func (b *BreakerSet) Execute(host string, fn func() (interface{}, error)) (interface{}, error) {
	return b.forHost(host).Execute(fn)
}

func (b *BreakerSet) forHost(host string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[host]; ok {
		return cb
	}
	logger := b.logger
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	b.breakers[host] = cb
	return cb
}
